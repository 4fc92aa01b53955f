// Package storage提供了与对象存储服务（如 MinIO）交互的功能，模型和数据制品从这里读取。
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"readmission-risk-go/internal/config"
	"readmission-risk-go/pkg/log"
)

// MinioClient 是一个全局的 MinIO 客户端实例，未配置 MinIO 时为 nil。
var MinioClient *minio.Client

const minioScheme = "minio://"

// ErrMinIODisabled 表示制品地址指向 MinIO，但服务没有配置 MinIO。
var ErrMinIODisabled = errors.New("minio is not configured")

// InitMinIO 初始化 MinIO 客户端并确保指定的存储桶存在。
func InitMinIO(cfg config.MinIOConfig) {
	var err error

	// 1. 初始化 MinIO 客户端
	MinioClient, err = minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Fatal("初始化 MinIO 客户端失败", err)
	}

	log.Info("MinIO 客户端初始化成功")

	// 2. 检查存储桶 (Bucket) 是否存在。制品由训练流程上传，这里只做检查，不自动创建
	ctx := context.Background()
	exists, err := MinioClient.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		log.Fatal("检查 MinIO 存储桶失败", err)
	}
	if !exists {
		log.Warnf("存储桶 '%s' 不存在, 所有 minio:// 制品都将无法加载", cfg.BucketName)
		return
	}
	log.Infof("存储桶 '%s' 已存在", cfg.BucketName)
}

// ArtifactLocation 是解析后的制品地址。Bucket 为空时 Object 是本地文件路径。
type ArtifactLocation struct {
	Bucket string
	Object string
}

// Remote 表示制品存放在 MinIO 中。
func (l ArtifactLocation) Remote() bool {
	return l.Bucket != ""
}

func (l ArtifactLocation) String() string {
	if l.Remote() {
		return minioScheme + l.Bucket + "/" + l.Object
	}
	return l.Object
}

// ParseArtifactURI 解析 "minio://bucket/path/to/object" 或本地路径。
func ParseArtifactURI(uri string) (ArtifactLocation, error) {
	if uri == "" {
		return ArtifactLocation{}, errors.New("artifact uri is empty")
	}
	if !strings.HasPrefix(uri, minioScheme) {
		return ArtifactLocation{Object: uri}, nil
	}
	rest := strings.TrimPrefix(uri, minioScheme)
	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return ArtifactLocation{}, fmt.Errorf("invalid artifact uri %q, expected minio://bucket/object", uri)
	}
	return ArtifactLocation{Bucket: bucket, Object: object}, nil
}

// OpenArtifact 打开一个制品用于读取，调用方负责关闭。
func OpenArtifact(ctx context.Context, uri string) (io.ReadCloser, error) {
	loc, err := ParseArtifactURI(uri)
	if err != nil {
		return nil, err
	}
	if !loc.Remote() {
		f, err := os.Open(loc.Object)
		if err != nil {
			return nil, fmt.Errorf("打开本地制品失败: %w", err)
		}
		return f, nil
	}
	if MinioClient == nil {
		return nil, fmt.Errorf("%s: %w", loc, ErrMinIODisabled)
	}

	log.Infof("[Storage] 从 MinIO 下载制品, bucket: %s, object: %s", loc.Bucket, loc.Object)
	obj, err := MinioClient.GetObject(ctx, loc.Bucket, loc.Object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("从 MinIO 获取制品失败: %w", err)
	}
	// GetObject 是惰性的，Stat 才会真正发起请求，对象不存在时在这里暴露
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, fmt.Errorf("读取 MinIO 制品元数据失败: %w", err)
	}
	return obj, nil
}
