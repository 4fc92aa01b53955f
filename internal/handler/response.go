package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"readmission-risk-go/internal/pipeline"
	"readmission-risk-go/pkg/log"
)

// respondError 把领域错误映射为 HTTP 状态码和面向用户的提示。
// 病历文本和结构化数据不会出现在响应或日志中。
func respondError(c *gin.Context, op string, err error) {
	var (
		invalid   *pipeline.InvalidInputError
		missing   *pipeline.MissingPatientError
		duplicate *pipeline.DuplicatePatientError
	)
	switch {
	case errors.As(err, &invalid):
		log.Warnf("%s: invalid input, error: %v", op, err)
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": invalid.UserMessage(), "data": gin.H{"field": invalid.Field}})
	case errors.As(err, &missing):
		log.Warnf("%s: %v", op, err)
		c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": missing.UserMessage(), "data": nil})
	case errors.As(err, &duplicate):
		log.Errorf("%s: %v", op, err)
		c.JSON(http.StatusConflict, gin.H{"code": http.StatusConflict, "message": "患者标识对应多条入院记录, 请联系管理员", "data": nil})
	case errors.Is(err, pipeline.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "任务不存在或已过期", "data": nil})
	default:
		log.Errorf("%s: internal error: %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "服务器内部错误", "data": nil})
	}
}

// respondBadPayload 用于请求体无法解析或绑定校验失败的情况。
func respondBadPayload(c *gin.Context, op string, err error) {
	log.Warnf("%s: Invalid request payload, error: %v", op, err)
	c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": pipeline.CompleteDataEntryMessage, "data": nil})
}
