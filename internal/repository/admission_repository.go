// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"readmission-risk-go/internal/pipeline"
	"readmission-risk-go/pkg/log"
)

// AdmissionTable 是入院数据表在内存中的只读快照，按 hadm_id 建立索引。
// 启动时加载一次，之后只读，可以被多个 goroutine 同时查询。
type AdmissionTable struct {
	idColumn string
	columns  []string
	rows     map[int64][]pipeline.AdmissionRow
	ids      []int64
	total    int
}

// NewAdmissionTable 根据列名和行数据构建索引。每一行的 idColumn 都必须是整数。
func NewAdmissionTable(columns []string, idColumn string, rows []map[string]interface{}) (*AdmissionTable, error) {
	if !containsString(columns, idColumn) {
		return nil, fmt.Errorf("id column %q not found in admission columns %v", idColumn, columns)
	}
	t := &AdmissionTable{
		idColumn: idColumn,
		columns:  append([]string(nil), columns...),
		rows:     make(map[int64][]pipeline.AdmissionRow),
	}
	for i, r := range rows {
		id, err := parseHadmID(r[idColumn])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		row := make(pipeline.AdmissionRow, len(r))
		for k, v := range r {
			row[k] = v
		}
		if _, seen := t.rows[id]; !seen {
			t.ids = append(t.ids, id)
		}
		t.rows[id] = append(t.rows[id], row)
		t.total++
	}
	sort.Slice(t.ids, func(i, j int) bool { return t.ids[i] < t.ids[j] })
	if dup := t.total - len(t.ids); dup > 0 {
		log.Warnf("[AdmissionTable] %d 行的 %s 与其它行重复, 查询这些患者时会返回错误", dup, idColumn)
	}
	return t, nil
}

// Columns 返回数据表的列名。
func (t *AdmissionTable) Columns() []string {
	return t.columns
}

// FindByHadmID 返回所有匹配的行。
func (t *AdmissionTable) FindByHadmID(hadmID int64) []pipeline.AdmissionRow {
	return t.rows[hadmID]
}

// IDs 返回所有不同的 hadm_id，升序排列。
func (t *AdmissionTable) IDs() []int64 {
	return t.ids
}

// Len 返回数据表的总行数。
func (t *AdmissionTable) Len() int {
	return t.total
}

// LoadAdmissionsFromDB 把 MySQL 中的入院数据表整体读入内存。
func LoadAdmissionsFromDB(db *gorm.DB, table, idColumn string) (*AdmissionTable, error) {
	rows, err := db.Table(table).Rows()
	if err != nil {
		return nil, fmt.Errorf("查询入院数据表 %s 失败: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("读取入院数据表列名失败: %w", err)
	}

	var records []map[string]interface{}
	for rows.Next() {
		record := make(map[string]interface{}, len(columns))
		if err := db.ScanRows(rows, &record); err != nil {
			return nil, fmt.Errorf("扫描入院数据行失败: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历入院数据表失败: %w", err)
	}

	log.Infof("[AdmissionTable] 从 MySQL 表 %s 加载 %d 行, %d 列", table, len(records), len(columns))
	return NewAdmissionTable(columns, idColumn, records)
}

// LoadAdmissionsFromCSV 读取带表头的 CSV 导出文件。所有单元格都以字符串保存，数值转换由特征组装阶段完成。
func LoadAdmissionsFromCSV(r io.Reader, idColumn string) (*AdmissionTable, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("admission csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("读取 CSV 表头失败: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
	}

	var records []map[string]interface{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("读取 CSV 失败: %w", err)
		}
		record := make(map[string]interface{}, len(columns))
		for i, c := range columns {
			record[c] = rec[i]
		}
		records = append(records, record)
	}

	log.Infof("[AdmissionTable] 从 CSV 加载 %d 行, %d 列", len(records), len(columns))
	return NewAdmissionTable(columns, idColumn, records)
}

func parseHadmID(v interface{}) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x), nil
		}
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return int64(x), nil
		}
	case []byte:
		return parseHadmID(string(x))
	case string:
		s := strings.TrimSpace(x)
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			return id, nil
		}
		// pandas 导出的整数列在有空值时会变成 "123.0"
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && !math.IsInf(f, 0) {
			return int64(f), nil
		}
	}
	return 0, fmt.Errorf("hadm_id %v (%T) is not an integer", v, v)
}

func containsString(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
