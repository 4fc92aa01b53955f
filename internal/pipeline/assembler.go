package pipeline

import (
	"math"
	"strconv"
	"strings"

	"readmission-risk-go/pkg/log"
)

// AdmissionRow 是结构化数据表中的一行，键为列名。
type AdmissionRow map[string]interface{}

// AdmissionStore 是结构化入院数据的只读查询接口。
// FindByHadmID 返回所有匹配的行，唯一性由调用方校验。
type AdmissionStore interface {
	Columns() []string
	FindByHadmID(hadmID int64) []AdmissionRow
	IDs() []int64
}

// Assembler 把结构化特征与文档向量按固定顺序拼接为分类器输入。
type Assembler struct {
	store AdmissionStore
}

// NewAssembler 创建一个新的 Assembler。
func NewAssembler(store AdmissionStore) *Assembler {
	return &Assembler{store: store}
}

// Lookup 查找唯一匹配 hadmID 的行。
func (a *Assembler) Lookup(hadmID int64) (AdmissionRow, error) {
	rows := a.store.FindByHadmID(hadmID)
	switch len(rows) {
	case 0:
		return nil, &MissingPatientError{HadmID: hadmID}
	case 1:
		return rows[0], nil
	default:
		log.Warnf("[Assembler] hadm_id %d 匹配到 %d 行, 数据表唯一键约束被破坏", hadmID, len(rows))
		return nil, &DuplicatePatientError{HadmID: hadmID, Count: len(rows)}
	}
}

// Assemble 返回 [按 featureNames 顺序提取的结构化特征] 后接 [documentVector]。
// 输出长度恒为 len(featureNames) + len(documentVector)。
func (a *Assembler) Assemble(hadmID int64, documentVector []float64, featureNames []string) ([]float64, error) {
	row, err := a.Lookup(hadmID)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(featureNames)+len(documentVector))
	for _, name := range featureNames {
		cell, ok := row[name]
		if !ok {
			return nil, &MissingFeatureError{Feature: name}
		}
		x, ok := toFloat(cell)
		if !ok {
			return nil, &NonNumericFeatureError{Feature: name, HadmID: hadmID, Value: cell}
		}
		out = append(out, x)
	}
	return append(out, documentVector...), nil
}

// ValidateSchema 在启动时校验所有声明的特征都是数据表的列，且每一行的取值都可以转换为数值。
func (a *Assembler) ValidateSchema(featureNames []string) error {
	columns := make(map[string]struct{}, len(a.store.Columns()))
	for _, c := range a.store.Columns() {
		columns[c] = struct{}{}
	}
	for _, name := range featureNames {
		if _, ok := columns[name]; !ok {
			return &MissingFeatureError{Feature: name}
		}
	}
	for _, id := range a.store.IDs() {
		for _, row := range a.store.FindByHadmID(id) {
			for _, name := range featureNames {
				if _, ok := toFloat(row[name]); !ok {
					return &NonNumericFeatureError{Feature: name, HadmID: id, Value: row[name]}
				}
			}
		}
	}
	return nil
}

// NumericValue 按 Assemble 使用的同一规则把单元格转换为特征值。
func NumericValue(v interface{}) (float64, bool) {
	return toFloat(v)
}

// toFloat 把数据表中的单元格转换为 float64。空值（nil）、NaN 和无穷大都不是合法的特征值。
func toFloat(v interface{}) (float64, bool) {
	f, ok := rawFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func rawFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		return parseNumeric(x)
	case []byte:
		return parseNumeric(string(x))
	}
	return 0, false
}

func parseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "true":
		return 1, true
	case "false":
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
