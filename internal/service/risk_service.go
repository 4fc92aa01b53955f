// Package service 包含了应用的业务逻辑层。
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"readmission-risk-go/internal/model"
	"readmission-risk-go/internal/pipeline"
	"readmission-risk-go/pkg/log"
)

// PatientID 是前端传入的患者标识，JSON 中可以是数字也可以是数字字符串，最终由 ParseHadmID 转换为整数。
type PatientID string

// UnmarshalJSON 接受 JSON 数字、字符串和 null。
func (p *PatientID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*p = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PatientID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("patientId must be a number or a string: %w", err)
	}
	*p = PatientID(n.String())
	return nil
}

// AssessmentRequest 是一次风险评估的输入。
// Insurance、AdmissionType、Age、Diagnosis 和 DischargeDate 由前端录入，只做格式校验；
// 模型使用的结构化特征以入院数据表为准。
type AssessmentRequest struct {
	PatientName   string    `json:"patientName"`
	PatientID     PatientID `json:"patientId"`
	Age           string    `json:"age"`
	Insurance     string    `json:"insurance" binding:"omitempty,oneof=medicare private medicaid gov selfpay"`
	AdmissionType string    `json:"admissionType" binding:"omitempty,oneof=emergency elective newborn urgent"`
	Diagnosis     string    `json:"diagnosis"`
	DischargeDate string    `json:"dischargeDate" binding:"omitempty,datetime=2006-01-02"`
	DischargeNote string    `json:"dischargeNote"`
}

// RiskService 接口定义了再入院风险评估相关的业务操作。
type RiskService interface {
	Assess(ctx context.Context, req AssessmentRequest) (*model.Assessment, error)
	VectorizeNote(note string) *model.NoteVector
	Threshold() float64
}

// riskService 是 RiskService 接口的实现。
type riskService struct {
	pipeline  *pipeline.Pipeline
	threshold float64
}

// NewRiskService 创建一个新的 RiskService 实例。threshold 为判定高风险的概率下限（含）。
func NewRiskService(p *pipeline.Pipeline, threshold float64) RiskService {
	return &riskService{pipeline: p, threshold: threshold}
}

// ParseHadmID 解析前端传入的患者标识。
func ParseHadmID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, &pipeline.InvalidInputError{Field: "patientId", Reason: "is required"}
	}
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return id, nil
	}
	// 100001.0 这类整数值的浮点写法也接受
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f), nil
	}
	return 0, &pipeline.InvalidInputError{Field: "patientId", Reason: fmt.Sprintf("%q is not an integer", raw)}
}

// Assess 对一位患者执行完整的风险评估流程。
func (s *riskService) Assess(ctx context.Context, req AssessmentRequest) (*model.Assessment, error) {
	// 1. 校验输入，患者姓名和标识都必须填写
	name := strings.TrimSpace(req.PatientName)
	if name == "" {
		return nil, &pipeline.InvalidInputError{Field: "patientName", Reason: "is required"}
	}
	hadmID, err := ParseHadmID(string(req.PatientID))
	if err != nil {
		return nil, err
	}
	log.Infof("[RiskService] 步骤1: 开始评估, hadm_id: %d, 病历长度: %d", hadmID, len(req.DischargeNote))

	// 2. 执行评分流程
	scored, err := s.pipeline.Score(ctx, hadmID, req.DischargeNote)
	if err != nil {
		log.Warnf("[RiskService] hadm_id %d 评分失败: %v", hadmID, err)
		return nil, err
	}
	log.Infof("[RiskService] 步骤2: 评分完成, hadm_id: %d, tokens: %d, 命中: %d", hadmID, len(scored.Tokens), len(scored.MatchedTokens))

	// 3. 根据阈值生成建议
	recommendation, atRisk := Recommendation(name, scored.Probability, s.threshold)

	var warnings []string
	if strings.TrimSpace(req.DischargeNote) == "" {
		warnings = append(warnings, "discharge note is empty; the text features are all zero")
	} else if len(scored.MatchedTokens) == 0 {
		warnings = append(warnings, "no word of the discharge note is in the embedding vocabulary; the text features are all zero")
	}

	return &model.Assessment{
		PatientName:     name,
		HadmID:          hadmID,
		Probability:     scored.Probability,
		RiskPercent:     RiskPercent(scored.Probability),
		AtRisk:          atRisk,
		Threshold:       s.threshold,
		Recommendation:  recommendation,
		ContractVersion: s.pipeline.Contract().Version,
		ModelVersion:    s.pipeline.ModelVersion(),
		MatchedTokens:   len(scored.MatchedTokens),
		TotalTokens:     len(scored.Tokens),
		Warnings:        warnings,
	}, nil
}

// VectorizeNote 返回病历文本的分词和向量化结果，用于排查词表覆盖问题。
func (s *riskService) VectorizeNote(note string) *model.NoteVector {
	v := s.pipeline.Vectorizer()
	tokens := pipeline.Tokenize(note)
	return &model.NoteVector{
		Tokens:        tokens,
		MatchedTokens: v.MatchedTokens(tokens),
		Vector:        v.Vectorize(tokens),
		Dimensions:    v.Dim(),
	}
}

// Threshold 返回当前的风险阈值。
func (s *riskService) Threshold() float64 {
	return s.threshold
}

// RiskPercent 把概率换算为百分比并保留两位小数。
func RiskPercent(prob float64) float64 {
	return math.Round(prob*100*100) / 100
}

// Recommendation 根据阈值生成面向临床人员的建议文本，prob >= threshold 视为高风险。
func Recommendation(name string, prob, threshold float64) (string, bool) {
	if prob >= threshold {
		pct := formatPercent(RiskPercent(prob))
		return fmt.Sprintf("%s has a %s%% risk for developing a complication within 30 days. Recommend scheduling follow up with primary care physician within 2 weeks", name, pct), true
	}
	return fmt.Sprintf("%s is NOT at risk for developing complications within 30 days.", name), false
}

// formatPercent 输出最短的十进制表示，整数值保留一位小数（50 → "50.0"）。
func formatPercent(pct float64) string {
	s := strconv.FormatFloat(pct, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
