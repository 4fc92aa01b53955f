package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"readmission-risk-go/internal/model"
	"readmission-risk-go/pkg/log"
)

// RequestLogger 是一个 Gin 中间件，用于记录请求日志。
// 请求体和响应体包含病历文本和患者信息，只记录长度，不记录内容。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		fields := []interface{}{
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.FullPath(),
			"requestBytes", c.Request.ContentLength,
			"responseBytes", c.Writer.Size(),
		}
		if v, ok := c.Get("clinician"); ok {
			if clinician, ok := v.(*model.Clinician); ok {
				fields = append(fields, "clinician", clinician.Username)
			}
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}
		log.Infow("HTTP Request Log", fields...)
	}
}
