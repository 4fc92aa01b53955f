// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"readmission-risk-go/internal/config"
	"readmission-risk-go/internal/handler"
	"readmission-risk-go/internal/model"
	"readmission-risk-go/internal/pipeline"
	"readmission-risk-go/internal/repository"
	"readmission-risk-go/internal/service"
	"readmission-risk-go/pkg/classifier"
	"readmission-risk-go/pkg/database"
	"readmission-risk-go/pkg/embedding"
	"readmission-risk-go/pkg/kafka"
	"readmission-risk-go/pkg/log"
	"readmission-risk-go/pkg/storage"
	"readmission-risk-go/pkg/token"
)

func main() {
	// 1. 初始化配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}
	config.Init(configPath)
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis、MinIO 和 Kafka
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	if cfg.MinIO.Enabled() {
		storage.InitMinIO(cfg.MinIO)
	} else {
		log.Info("未配置 MinIO, 只能从本地路径加载制品")
	}
	kafka.InitProducer(cfg.Kafka)
	if err := database.DB.AutoMigrate(&model.Clinician{}); err != nil {
		log.Fatal("迁移 clinicians 表失败", err)
	}

	// 4. 加载制品：词向量表、入院数据表、分类器
	ctx := context.Background()
	table, err := loadEmbeddingTable(ctx, cfg.Embedding)
	if err != nil {
		log.Fatal("加载词向量表失败", err)
	}
	admissions, err := loadAdmissions(ctx, cfg.Admissions)
	if err != nil {
		log.Fatal("加载入院数据表失败", err)
	}
	contract := pipeline.Contract{
		Version:      cfg.Classifier.Contract.Version,
		FeatureNames: cfg.Classifier.Contract.FeatureNames,
		EmbeddingDim: cfg.Embedding.Dimensions,
	}
	scorer, err := loadScorer(ctx, cfg.Classifier, contract.Width())
	if err != nil {
		log.Fatal("加载分类器失败", err)
	}

	// 5. 组装评分流程并校验特征契约，任何不一致都不允许启动
	p := pipeline.New(
		pipeline.NewVectorizer(table, cfg.Batch.Parallelism),
		pipeline.NewAssembler(admissions),
		scorer,
		contract,
	)
	if err := p.ValidateContract(cfg.Classifier.Contract.Fingerprint); err != nil {
		log.Fatal("特征契约校验失败", err)
	}
	log.Infof("特征契约校验通过, version: %s, fingerprint: %s, 特征数: %d, 向量维度: %d",
		contract.Version, contract.Fingerprint(), len(contract.FeatureNames), contract.EmbeddingDim)

	// 6. 初始化 Repository 和 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	clinicianRepo := repository.NewClinicianRepository(database.DB)
	jobRepo := repository.NewBatchJobRepository(database.RDB, cfg.Batch.JobTTL)

	clinicianService := service.NewClinicianService(clinicianRepo, jwtManager)
	if err := clinicianService.EnsureAdmin(cfg.Seed.AdminUsername, cfg.Seed.AdminPassword); err != nil {
		log.Fatal("初始化管理员失败", err)
	}
	riskService := service.NewRiskService(p, cfg.Risk.Threshold)
	patientService := service.NewPatientService(admissions, contract.FeatureNames)
	batchService := service.NewBatchService(jobRepo, kafka.ProduceBatchTask, cfg.Batch.MaxItems)

	// 7. 启动后台 Kafka 消费者
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	consumerDone := make(chan struct{})
	processor := pipeline.NewProcessor(p, jobRepo, cfg.Risk.Threshold)
	go func() {
		defer close(consumerDone)
		kafka.StartConsumer(consumerCtx, cfg.Kafka, processor)
	}()

	// 8. 设置 Gin 模式并注册路由
	gin.SetMode(cfg.Server.Mode)
	r := handler.NewRouter(handler.Services{
		JWT:        jwtManager,
		Clinicians: clinicianService,
		Risk:       riskService,
		Patients:   patientService,
		Batches:    batchService,
		Pipeline:   p,
	})

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP 服务器关闭失败: %v", err)
	}

	// 停止 Kafka 消费者，等待正在处理的任务结束
	stopConsumer()
	select {
	case <-consumerDone:
	case <-shutdownCtx.Done():
		log.Warnf("等待 Kafka 消费者退出超时")
	}
	if err := kafka.CloseProducer(); err != nil {
		log.Errorf("关闭 Kafka 生产者失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}

// loadEmbeddingTable 从本地或 MinIO 加载词向量表，并检查维度与配置一致。
func loadEmbeddingTable(ctx context.Context, cfg config.EmbeddingConfig) (embedding.Table, error) {
	format, err := embedding.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	rc, err := storage.OpenArtifact(ctx, cfg.Artifact)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	start := time.Now()
	table, err := embedding.Load(rc, cfg.Artifact, format)
	if err != nil {
		return nil, err
	}
	log.Infof("词向量表加载完成, 词数: %d, 维度: %d, 耗时: %s", table.Len(), table.Dim(), time.Since(start))
	if table.Dim() != cfg.Dimensions {
		return nil, &pipeline.ContractError{Reason: fmt.Sprintf("embedding artifact has dimension %d, configured %d", table.Dim(), cfg.Dimensions)}
	}
	return table, nil
}

// loadAdmissions 从 MySQL 或 CSV 制品加载入院数据表。
func loadAdmissions(ctx context.Context, cfg config.AdmissionsConfig) (*repository.AdmissionTable, error) {
	if cfg.Source == "csv" {
		rc, err := storage.OpenArtifact(ctx, cfg.Artifact)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return repository.LoadAdmissionsFromCSV(rc, cfg.IDColumn)
	}
	return repository.LoadAdmissionsFromDB(database.DB, cfg.Table, cfg.IDColumn)
}

// loadScorer 根据配置创建分类器客户端。
func loadScorer(ctx context.Context, cfg config.ClassifierConfig, contractWidth int) (classifier.Scorer, error) {
	if cfg.Kind == "http" {
		inputSize := cfg.InputSize
		if inputSize == 0 {
			inputSize = contractWidth
		}
		return classifier.NewHTTPScorer(cfg.Endpoint, inputSize, cfg.Contract.Version, cfg.Timeout), nil
	}
	rc, err := storage.OpenArtifact(ctx, cfg.Artifact)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return classifier.LoadLogistic(rc)
}
