package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"readmission-risk-go/internal/service"
	"readmission-risk-go/pkg/log"
)

// RiskHandler 负责处理再入院风险评估的 API 请求。
type RiskHandler struct {
	riskService service.RiskService
}

// NewRiskHandler 创建一个新的 RiskHandler 实例。
func NewRiskHandler(riskService service.RiskService) *RiskHandler {
	return &RiskHandler{riskService: riskService}
}

// Assess 评估一位患者 30 天内的再入院风险。
func (h *RiskHandler) Assess(c *gin.Context) {
	var req service.AssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadPayload(c, "Assess", err)
		return
	}

	assessment, err := h.riskService.Assess(c.Request.Context(), req)
	if err != nil {
		respondError(c, "Assess", err)
		return
	}

	if clinician, ok := currentClinician(c); ok {
		log.Infof("Clinician '%s' assessed hadm_id %d, atRisk: %t", clinician.Username, assessment.HadmID, assessment.AtRisk)
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": assessment.Recommendation, "data": assessment})
}

// VectorizeRequest 定义了病历向量化 API 的请求体结构。
type VectorizeRequest struct {
	Note string `json:"note"`
}

// VectorizeNote 返回病历文本的分词与向量化结果，用于排查词表覆盖问题。
func (h *RiskHandler) VectorizeNote(c *gin.Context) {
	var req VectorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadPayload(c, "VectorizeNote", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": h.riskService.VectorizeNote(req.Note)})
}
