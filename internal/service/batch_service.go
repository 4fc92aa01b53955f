package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"readmission-risk-go/internal/model"
	"readmission-risk-go/internal/pipeline"
	"readmission-risk-go/pkg/log"
	"readmission-risk-go/pkg/tasks"
)

// TaskProducer 把批量评分任务投递到消息队列，生产环境中是 kafka.ProduceBatchTask。
type TaskProducer func(ctx context.Context, task tasks.BatchScoringTask) error

// BatchService 接口定义了批量评分相关的业务操作。
type BatchService interface {
	Submit(ctx context.Context, submittedBy string, items []tasks.BatchScoringItem) (*model.BatchJob, error)
	Get(ctx context.Context, jobID string) (*model.BatchJob, error)
}

// batchService 是 BatchService 接口的实现。
type batchService struct {
	jobs     pipeline.JobRepository
	produce  TaskProducer
	maxItems int
}

// NewBatchService 创建一个新的 BatchService 实例。
func NewBatchService(jobs pipeline.JobRepository, produce TaskProducer, maxItems int) BatchService {
	return &batchService{jobs: jobs, produce: produce, maxItems: maxItems}
}

// Submit 校验并提交一个批量评分任务，立即返回 pending 状态的任务。
func (s *batchService) Submit(ctx context.Context, submittedBy string, items []tasks.BatchScoringItem) (*model.BatchJob, error) {
	// 1. 校验输入
	if len(items) == 0 {
		return nil, &pipeline.InvalidInputError{Field: "items", Reason: "must not be empty"}
	}
	if len(items) > s.maxItems {
		return nil, &pipeline.InvalidInputError{Field: "items", Reason: fmt.Sprintf("at most %d items per job, got %d", s.maxItems, len(items))}
	}
	if bad, found := lo.Find(items, func(it tasks.BatchScoringItem) bool { return it.HadmID <= 0 }); found {
		return nil, &pipeline.InvalidInputError{Field: "items.hadmId", Reason: fmt.Sprintf("%d is not a valid patient id", bad.HadmID)}
	}

	// 2. 保存 pending 状态
	now := model.LocalTime(time.Now())
	job := &model.BatchJob{
		JobID:       uuid.NewString(),
		Status:      model.BatchJobPending,
		SubmittedBy: submittedBy,
		Total:       len(items),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("保存任务状态失败: %w", err)
	}

	// 3. 投递到 Kafka
	task := tasks.BatchScoringTask{JobID: job.JobID, SubmittedBy: submittedBy, Items: items}
	if err := s.produce(ctx, task); err != nil {
		log.Errorf("[BatchService] 投递任务失败, JobID: %s, error: %v", job.JobID, err)
		job.Status = model.BatchJobFailed
		job.Error = "failed to enqueue job"
		job.Touch()
		if saveErr := s.jobs.Save(context.WithoutCancel(ctx), job); saveErr != nil {
			log.Errorf("[BatchService] 保存失败状态出错, JobID: %s, error: %v", job.JobID, saveErr)
		}
		return nil, fmt.Errorf("投递批量评分任务失败: %w", err)
	}

	log.Infof("[BatchService] 批量评分任务已提交, JobID: %s, 条目数: %d, 提交人: %s", job.JobID, len(items), submittedBy)
	return job, nil
}

// Get 查询任务状态，不存在或已过期时返回 pipeline.ErrJobNotFound。
func (s *batchService) Get(ctx context.Context, jobID string) (*model.BatchJob, error) {
	return s.jobs.Get(ctx, jobID)
}
