package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"readmission-risk-go/internal/model"
)

// AdminAuthMiddleware 检查用户是否具有管理员权限。
// 此中间件必须在 AuthMiddleware 之后使用。
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get("clinician")
		if !exists {
			// AuthMiddleware 未能成功注入用户，这是一个服务器内部错误
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取用户信息"})
			return
		}

		clinician, ok := v.(*model.Clinician)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "用户数据类型错误"})
			return
		}

		if clinician.Role != model.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": http.StatusForbidden, "message": "权限不足，需要管理员权限"})
			return
		}

		c.Next()
	}
}
