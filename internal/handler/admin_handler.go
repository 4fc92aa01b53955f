package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"readmission-risk-go/internal/service"
	"readmission-risk-go/pkg/log"
)

// AdminHandler 负责处理管理员的 API 请求。
type AdminHandler struct {
	clinicianService service.ClinicianService
}

// NewAdminHandler 创建一个新的 AdminHandler 实例。
func NewAdminHandler(clinicianService service.ClinicianService) *AdminHandler {
	return &AdminHandler{clinicianService: clinicianService}
}

// RegisterClinicianRequest 定义了创建临床用户 API 的请求体结构。
type RegisterClinicianRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"fullName"`
	Role     string `json:"role" binding:"omitempty,oneof=CLINICIAN ADMIN"`
}

// RegisterClinician 处理创建临床用户的请求。
func (h *AdminHandler) RegisterClinician(c *gin.Context) {
	var req RegisterClinicianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("RegisterClinician: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求负载", "data": nil})
		return
	}

	clinician, err := h.clinicianService.Register(req.Username, req.Password, req.FullName, req.Role)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"code": http.StatusConflict, "message": err.Error(), "data": nil})
			return
		}
		log.Error("RegisterClinician: 创建临床用户失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "创建临床用户失败", "data": nil})
		return
	}

	if admin, ok := currentClinician(c); ok {
		log.Infof("Admin '%s' registered clinician '%s'", admin.Username, clinician.Username)
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "Clinician registered successfully", "data": clinician})
}

// ListClinicians 处理分页获取临床用户列表的请求。
func (h *AdminHandler) ListClinicians(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	list, err := h.clinicianService.ListClinicians(page, size)
	if err != nil {
		log.Error("ListClinicians: Failed to list clinicians", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "获取用户列表失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": list})
}
