// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Log        LogConfig        `mapstructure:"log"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding"`
	Admissions AdmissionsConfig `mapstructure:"admissions"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Risk       RiskConfig       `mapstructure:"risk"`
	Batch      BatchConfig      `mapstructure:"batch"`
	Seed       SeedConfig       `mapstructure:"seed"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port" validate:"required"`
	Mode string `mapstructure:"mode" validate:"omitempty,oneof=debug release test"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn" validate:"required"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储 JWT 相关的配置。
type JWTConfig struct {
	Secret                 string `mapstructure:"secret" validate:"required,min=16"`
	AccessTokenExpireHours int    `mapstructure:"access_token_expire_hours" validate:"gt=0"`
	RefreshTokenExpireDays int    `mapstructure:"refresh_token_expire_days" validate:"gt=0"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format" validate:"omitempty,oneof=json console"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers" validate:"required"`
	Topic   string `mapstructure:"topic" validate:"required"`
	GroupID string `mapstructure:"group_id"`
}

// MinIOConfig 存储 MinIO 对象存储的配置，模型与数据制品都存放在这里。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// Enabled 表示是否配置了 MinIO。只使用本地制品时可以不配置。
func (c MinIOConfig) Enabled() bool {
	return c.Endpoint != ""
}

// EmbeddingConfig 描述词向量表制品。
type EmbeddingConfig struct {
	// Artifact 可以是本地路径，也可以是 minio://bucket/object
	Artifact   string `mapstructure:"artifact" validate:"required"`
	Format     string `mapstructure:"format" validate:"oneof=text binary"`
	Dimensions int    `mapstructure:"dimensions" validate:"gt=0"`
}

// AdmissionsConfig 描述结构化入院数据的来源。
type AdmissionsConfig struct {
	Source   string `mapstructure:"source" validate:"oneof=mysql csv"`
	Table    string `mapstructure:"table" validate:"required_if=Source mysql"`
	Artifact string `mapstructure:"artifact" validate:"required_if=Source csv"`
	IDColumn string `mapstructure:"id_column" validate:"required"`
}

// ClassifierConfig 描述外部分类器以及与之约定的特征契约。
type ClassifierConfig struct {
	Kind     string        `mapstructure:"kind" validate:"oneof=logistic http"`
	Artifact string        `mapstructure:"artifact" validate:"required_if=Kind logistic"`
	Endpoint string        `mapstructure:"endpoint" validate:"required_if=Kind http"`
	Timeout  time.Duration `mapstructure:"timeout"`
	// InputSize 仅用于 http 分类器：模型服务期望的向量长度
	InputSize int            `mapstructure:"input_size"`
	Contract  ContractConfig `mapstructure:"contract"`
}

// ContractConfig 固定了特征名称顺序和版本，必须与模型训练时完全一致。
type ContractConfig struct {
	Version      string   `mapstructure:"version" validate:"required"`
	FeatureNames []string `mapstructure:"feature_names" validate:"required,min=1,unique,dive,required"`
	Fingerprint  string   `mapstructure:"fingerprint"`
}

// RiskConfig 存储风险判定阈值。
type RiskConfig struct {
	Threshold float64 `mapstructure:"threshold" validate:"gte=0,lte=1"`
}

// BatchConfig 存储批量评分的相关参数。
type BatchConfig struct {
	Parallelism int           `mapstructure:"parallelism" validate:"gte=0"`
	MaxItems    int           `mapstructure:"max_items" validate:"gt=0"`
	JobTTL      time.Duration `mapstructure:"job_ttl"`
}

// SeedConfig 用于在首次启动时创建管理员账号。
type SeedConfig struct {
	AdminUsername string `mapstructure:"admin_username"`
	AdminPassword string `mapstructure:"admin_password"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8081")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("kafka.group_id", "readmission-risk-go-consumer")
	v.SetDefault("embedding.format", "text")
	v.SetDefault("admissions.source", "mysql")
	v.SetDefault("admissions.table", "admissions")
	v.SetDefault("admissions.id_column", "hadm_id")
	v.SetDefault("classifier.kind", "logistic")
	v.SetDefault("classifier.timeout", "5s")
	v.SetDefault("risk.threshold", 0.30)
	v.SetDefault("batch.max_items", 500)
	v.SetDefault("batch.job_ttl", "24h")
}

// Load 从指定路径读取 YAML 文件并解析、校验，返回配置。
// 环境变量 READMIT_<SECTION>_<KEY> 会覆盖文件中的同名配置。
func Load(configPath string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("READMIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate 使用 validator 校验配置结构体上的约束。
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}
	return nil
}

// Init 初始化配置加载，失败时直接 panic，与启动流程的其它致命错误保持一致。
func Init(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	Conf = cfg
}
