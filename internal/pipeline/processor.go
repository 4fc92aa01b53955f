package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"readmission-risk-go/internal/model"
	"readmission-risk-go/pkg/log"
	"readmission-risk-go/pkg/tasks"
)

// JobRepository 定义了批量任务状态的读写接口。
type JobRepository interface {
	Get(ctx context.Context, jobID string) (*model.BatchJob, error)
	Save(ctx context.Context, job *model.BatchJob) error
}

// ErrJobNotFound 表示任务状态不存在（从未提交或已过期）。
var ErrJobNotFound = errors.New("batch job not found")

// Processor 消费 Kafka 中的批量评分任务。
type Processor struct {
	pipeline  *Pipeline
	jobs      JobRepository
	threshold float64
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(pipeline *Pipeline, jobs JobRepository, threshold float64) *Processor {
	return &Processor{
		pipeline:  pipeline,
		jobs:      jobs,
		threshold: threshold,
	}
}

// Process 是批量评分的主函数。单条失败记录在结果中，只有基础设施错误才会返回 error 触发重试。
func (p *Processor) Process(ctx context.Context, task tasks.BatchScoringTask) error {
	log.Infof("[Processor] 开始处理批量评分任务, JobID: %s, 条目数: %d", task.JobID, len(task.Items))

	// 1. 读取任务状态，不存在时（例如 Redis 中已过期）重新创建
	job, err := p.jobs.Get(ctx, task.JobID)
	if errors.Is(err, ErrJobNotFound) {
		log.Warnf("[Processor] 任务 %s 的状态不存在, 重新创建", task.JobID)
		job = &model.BatchJob{
			JobID:       task.JobID,
			SubmittedBy: task.SubmittedBy,
			Total:       len(task.Items),
			CreatedAt:   model.LocalTime(time.Now()),
		}
	} else if err != nil {
		return fmt.Errorf("读取任务状态失败: %w", err)
	}
	if job.Status == model.BatchJobCompleted {
		log.Infof("[Processor] 任务 %s 已完成, 跳过", task.JobID)
		return nil
	}

	job.Status = model.BatchJobRunning
	job.ContractVersion = p.pipeline.Contract().Version
	job.Touch()
	if err := p.jobs.Save(ctx, job); err != nil {
		return fmt.Errorf("更新任务状态失败: %w", err)
	}

	// 2. 批量评分
	log.Info("[Processor] 步骤2: 开始批量向量化与评分")
	items := make([]BatchItem, len(task.Items))
	for i, it := range task.Items {
		items[i] = BatchItem{HadmID: it.HadmID, Note: it.Note}
	}
	results, err := p.pipeline.ScoreBatch(ctx, items)
	if err != nil {
		job.Status = model.BatchJobFailed
		job.Error = err.Error()
		job.Touch()
		// ctx 可能已被取消，失败状态仍然要写入，否则任务会一直停留在 running 直到过期
		if saveErr := p.jobs.Save(context.WithoutCancel(ctx), job); saveErr != nil {
			log.Errorf("[Processor] 保存失败状态出错, JobID: %s, error: %v", task.JobID, saveErr)
		}
		return fmt.Errorf("批量评分失败: %w", err)
	}

	// 3. 汇总结果
	job.Results = make([]model.BatchItemResult, len(results))
	job.Succeeded, job.Failed = 0, 0
	for i, r := range results {
		item := model.BatchItemResult{HadmID: items[i].HadmID}
		if r.Err != nil {
			item.Error = userMessage(r.Err)
			job.Failed++
		} else {
			prob := r.Scored.Probability
			atRisk := prob >= p.threshold
			item.Probability = &prob
			item.AtRisk = &atRisk
			job.Succeeded++
		}
		job.Results[i] = item
	}
	job.Status = model.BatchJobCompleted
	job.Touch()
	if err := p.jobs.Save(ctx, job); err != nil {
		return fmt.Errorf("保存任务结果失败: %w", err)
	}

	log.Infof("[Processor] 批量评分任务完成, JobID: %s, 成功: %d, 失败: %d", task.JobID, job.Succeeded, job.Failed)
	return nil
}

// userMessage 优先返回错误自带的面向用户的提示。
func userMessage(err error) string {
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return err.Error()
}
