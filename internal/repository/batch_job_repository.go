package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"readmission-risk-go/internal/model"
	"readmission-risk-go/internal/pipeline"
)

// batchJobRepository 把批量评分任务的状态以 JSON 形式保存在 Redis 中，过期后自动删除。
// 它实现了 pipeline.JobRepository。
type batchJobRepository struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewBatchJobRepository 创建一个新的基于 Redis 的 JobRepository。
func NewBatchJobRepository(redisClient *redis.Client, ttl time.Duration) pipeline.JobRepository {
	return &batchJobRepository{redisClient: redisClient, ttl: ttl}
}

func batchJobKey(jobID string) string {
	return "batch:job:" + jobID
}

// Get 读取任务状态，不存在或已过期时返回 pipeline.ErrJobNotFound。
func (r *batchJobRepository) Get(ctx context.Context, jobID string) (*model.BatchJob, error) {
	val, err := r.redisClient.Get(ctx, batchJobKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, pipeline.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("读取任务 %s 失败: %w", jobID, err)
	}
	var job model.BatchJob
	if err := json.Unmarshal(val, &job); err != nil {
		return nil, fmt.Errorf("解析任务 %s 失败: %w", jobID, err)
	}
	return &job, nil
}

// Save 写入任务状态并刷新过期时间。
func (r *batchJobRepository) Save(ctx context.Context, job *model.BatchJob) error {
	val, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return r.redisClient.Set(ctx, batchJobKey(job.JobID), val, r.ttl).Err()
}
