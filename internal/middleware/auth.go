// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"readmission-risk-go/internal/model"
	"readmission-risk-go/pkg/token"
)

// ClinicianLookup 根据用户名查询临床用户，service.ClinicianService 满足该接口。
type ClinicianLookup interface {
	GetProfile(username string) (*model.Clinician, error)
}

// AuthMiddleware 创建一个 Gin 中间件，用于 JWT 认证。
// 它会从请求头中提取 access token，验证其有效性，并将完整的 Clinician 对象存入 Gin 的上下文中。
func AuthMiddleware(jwtManager *token.JWTManager, clinicians ClinicianLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从 Authorization 请求头中获取 token
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "请求未包含授权头"})
			return
		}

		// Token 以 "Bearer <token>" 的形式提供
		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的授权头格式"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, bearerPrefix)

		claims, err := jwtManager.VerifyToken(tokenString, token.TypeAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效或已过期的 token"})
			return
		}

		// 使用 claims 中的用户名从数据库获取完整的用户信息，用户被删除后 token 随之失效
		clinician, err := clinicians.GetProfile(claims.Username)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "用户不存在"})
			return
		}

		c.Set("clinician", clinician)
		c.Set("claims", claims)

		c.Next()
	}
}
