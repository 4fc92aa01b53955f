package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"readmission-risk-go/internal/pipeline"
)

// HealthHandler 报告服务加载的制品信息。
type HealthHandler struct {
	pipeline *pipeline.Pipeline
}

// NewHealthHandler 创建一个新的 HealthHandler 实例。
func NewHealthHandler(p *pipeline.Pipeline) *HealthHandler {
	return &HealthHandler{pipeline: p}
}

// Healthz 返回契约版本、指纹、词向量维度和词表大小。
func (h *HealthHandler) Healthz(c *gin.Context) {
	contract := h.pipeline.Contract()
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "ok",
		"data": gin.H{
			"contractVersion": contract.Version,
			"fingerprint":     contract.Fingerprint(),
			"featureCount":    len(contract.FeatureNames),
			"embeddingDim":    h.pipeline.Vectorizer().Dim(),
			"vocabularySize":  h.pipeline.Vectorizer().VocabularySize(),
			"modelVersion":    h.pipeline.ModelVersion(),
		},
	})
}
