package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"readmission-risk-go/internal/service"
)

// PatientHandler 负责处理患者查询的 API 请求。
type PatientHandler struct {
	patientService service.PatientService
}

// NewPatientHandler 创建一个新的 PatientHandler 实例。
func NewPatientHandler(patientService service.PatientService) *PatientHandler {
	return &PatientHandler{patientService: patientService}
}

// List 分页返回可评估的患者标识。
func (h *PatientHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "50"))
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": h.patientService.ListPatientIDs(page, size)})
}

// Get 返回一位患者参与建模的结构化特征。
func (h *PatientHandler) Get(c *gin.Context) {
	hadmID, err := service.ParseHadmID(c.Param("hadmId"))
	if err != nil {
		respondError(c, "GetPatient", err)
		return
	}
	detail, err := h.patientService.GetAdmission(hadmID)
	if err != nil {
		respondError(c, "GetPatient", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": detail})
}
