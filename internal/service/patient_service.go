package service

import (
	"github.com/samber/lo"

	"readmission-risk-go/internal/pipeline"
)

// PatientListResponse 是分页的患者标识列表，供前端下拉框使用。
type PatientListResponse struct {
	Content       []int64 `json:"content"`
	TotalElements int     `json:"totalElements"`
	TotalPages    int     `json:"totalPages"`
	Size          int     `json:"size"`
	Number        int     `json:"number"`
}

// AdmissionDetail 是一位患者参与建模的结构化特征。
type AdmissionDetail struct {
	HadmID   int64              `json:"hadmId"`
	Features map[string]float64 `json:"features"`
	Invalid  []string           `json:"invalid,omitempty"`
}

// PatientService 接口定义了患者数据的查询操作。
type PatientService interface {
	ListPatientIDs(page, size int) *PatientListResponse
	GetAdmission(hadmID int64) (*AdmissionDetail, error)
}

// patientService 是 PatientService 接口的实现。
type patientService struct {
	assembler    *pipeline.Assembler
	store        pipeline.AdmissionStore
	featureNames []string
}

// NewPatientService 创建一个新的 PatientService 实例。
func NewPatientService(store pipeline.AdmissionStore, featureNames []string) PatientService {
	return &patientService{
		assembler:    pipeline.NewAssembler(store),
		store:        store,
		featureNames: featureNames,
	}
}

// MaxPatientPageSize 是单页最多返回的患者标识数量。
const MaxPatientPageSize = 500

// ListPatientIDs 分页返回所有患者标识，page 从 1 开始。
// size 超过 MaxPatientPageSize 时截断，page 超过总页数时返回最后一页。
func (s *patientService) ListPatientIDs(page, size int) *PatientListResponse {
	if size < 1 {
		size = 20
	}
	size = min(size, MaxPatientPageSize)
	ids := s.store.IDs()
	total := len(ids)
	totalPages := (total + size - 1) / size
	page = max(min(page, totalPages), 1)
	return &PatientListResponse{
		Content:       lo.Subset(ids, (page-1)*size, uint(size)),
		TotalElements: total,
		TotalPages:    totalPages,
		Size:          size,
		Number:        page,
	}
}

// GetAdmission 返回患者的结构化特征。只暴露契约中的特征列，其它列（可能包含个人信息）不返回。
func (s *patientService) GetAdmission(hadmID int64) (*AdmissionDetail, error) {
	row, err := s.assembler.Lookup(hadmID)
	if err != nil {
		return nil, err
	}
	picked := lo.PickByKeys(row, s.featureNames)
	detail := &AdmissionDetail{HadmID: hadmID, Features: make(map[string]float64, len(picked))}
	for _, name := range s.featureNames {
		x, ok := pipeline.NumericValue(picked[name])
		if !ok {
			detail.Invalid = append(detail.Invalid, name)
			continue
		}
		detail.Features[name] = x
	}
	return detail, nil
}
