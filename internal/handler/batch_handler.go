package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"readmission-risk-go/internal/service"
	"readmission-risk-go/pkg/tasks"
)

// BatchHandler 负责处理批量评分的 API 请求。
type BatchHandler struct {
	batchService service.BatchService
}

// NewBatchHandler 创建一个新的 BatchHandler 实例。
func NewBatchHandler(batchService service.BatchService) *BatchHandler {
	return &BatchHandler{batchService: batchService}
}

// SubmitBatchRequest 定义了提交批量评分 API 的请求体结构。
type SubmitBatchRequest struct {
	Items []tasks.BatchScoringItem `json:"items" binding:"required"`
}

// Submit 提交一个批量评分任务，立即返回任务 ID，结果通过 Get 轮询。
func (h *BatchHandler) Submit(c *gin.Context) {
	var req SubmitBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadPayload(c, "SubmitBatch", err)
		return
	}

	submittedBy := ""
	if clinician, ok := currentClinician(c); ok {
		submittedBy = clinician.Username
	}
	job, err := h.batchService.Submit(c.Request.Context(), submittedBy, req.Items)
	if err != nil {
		respondError(c, "SubmitBatch", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"code": http.StatusAccepted, "message": "任务已提交", "data": job})
}

// Get 查询批量评分任务的状态和结果。
func (h *BatchHandler) Get(c *gin.Context) {
	job, err := h.batchService.Get(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		respondError(c, "GetBatch", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": job})
}
