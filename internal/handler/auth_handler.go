// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"readmission-risk-go/internal/model"
	"readmission-risk-go/internal/service"
	"readmission-risk-go/pkg/log"
)

// AuthHandler 负责处理认证相关的 API 请求。
type AuthHandler struct {
	clinicianService service.ClinicianService
}

// NewAuthHandler 创建一个新的 AuthHandler 实例。
func NewAuthHandler(clinicianService service.ClinicianService) *AuthHandler {
	return &AuthHandler{clinicianService: clinicianService}
}

// LoginRequest 定义了登录 API 的请求体结构。
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 处理临床用户登录请求。
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Login: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：用户名和密码不能为空",
		})
		return
	}

	accessToken, refreshToken, err := h.clinicianService.Login(req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			log.Error("Login: 登录失败", err)
			c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "服务器内部错误"})
			return
		}
		log.Warnf("Login: Authentication failed for '%s'", req.Username)
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    http.StatusUnauthorized,
			"message": "无效的凭证",
		})
		return
	}

	log.Infof("Clinician '%s' logged in successfully", req.Username)
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Login successful",
		"data": gin.H{
			"token":        accessToken,
			"refreshToken": refreshToken,
		},
	})
}

// RefreshTokenRequest 定义了刷新 token API 的请求体结构。
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshToken 处理刷新 token 的请求。
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("RefreshToken: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求负载：refreshToken 不能为空"})
		return
	}

	newAccessToken, newRefreshToken, err := h.clinicianService.RefreshToken(req.RefreshToken)
	if err != nil {
		log.Warnf("RefreshToken: Failed to refresh token, error: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的 refresh token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Token refreshed successfully",
		"data": gin.H{
			"token":        newAccessToken,
			"refreshToken": newRefreshToken,
		},
	})
}

// Profile 返回当前登录的临床用户，由 AuthMiddleware 注入到上下文中。
func (h *AuthHandler) Profile(c *gin.Context) {
	clinician, ok := currentClinician(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取用户信息"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": clinician})
}

// currentClinician 读取 AuthMiddleware 注入的用户。
func currentClinician(c *gin.Context) (*model.Clinician, bool) {
	v, exists := c.Get("clinician")
	if !exists {
		return nil, false
	}
	clinician, ok := v.(*model.Clinician)
	return clinician, ok && clinician != nil
}
