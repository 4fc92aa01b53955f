package handler

import (
	"github.com/gin-gonic/gin"

	"readmission-risk-go/internal/middleware"
	"readmission-risk-go/internal/pipeline"
	"readmission-risk-go/internal/service"
	"readmission-risk-go/pkg/token"
)

// Services 汇总了路由需要的全部依赖。
type Services struct {
	JWT        *token.JWTManager
	Clinicians service.ClinicianService
	Risk       service.RiskService
	Patients   service.PatientService
	Batches    service.BatchService
	Pipeline   *pipeline.Pipeline
}

// NewRouter 创建路由引擎并注册所有路由。
func NewRouter(s Services) *gin.Engine {
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())

	r.GET("/healthz", NewHealthHandler(s.Pipeline).Healthz)

	authHandler := NewAuthHandler(s.Clinicians)
	requireAuth := middleware.AuthMiddleware(s.JWT, s.Clinicians)

	apiV1 := r.Group("/api/v1")
	{
		// Auth 路由组，登录和刷新无需认证
		auth := apiV1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refreshToken", authHandler.RefreshToken)
			auth.GET("/me", requireAuth, authHandler.Profile)
		}

		patientHandler := NewPatientHandler(s.Patients)
		patients := apiV1.Group("/patients")
		patients.Use(requireAuth)
		{
			patients.GET("", patientHandler.List)
			patients.GET("/:hadmId", patientHandler.Get)
		}

		riskHandler := NewRiskHandler(s.Risk)
		batchHandler := NewBatchHandler(s.Batches)
		readmission := apiV1.Group("/readmission")
		readmission.Use(requireAuth)
		{
			readmission.POST("/assess", riskHandler.Assess)
			readmission.POST("/batch", batchHandler.Submit)
			readmission.GET("/batch/:jobId", batchHandler.Get)
		}

		notes := apiV1.Group("/notes")
		notes.Use(requireAuth)
		{
			notes.POST("/vectorize", riskHandler.VectorizeNote)
		}

		// 管理员路由组，需要同时通过认证和管理员授权两个中间件
		adminHandler := NewAdminHandler(s.Clinicians)
		admin := apiV1.Group("/admin")
		admin.Use(requireAuth, middleware.AdminAuthMiddleware())
		{
			admin.POST("/clinicians", adminHandler.RegisterClinician)
			admin.GET("/clinicians", adminHandler.ListClinicians)
		}
	}
	return r
}
