package model

import "time"

// BatchJobStatus 是批量评分任务的状态。
type BatchJobStatus string

const (
	BatchJobPending   BatchJobStatus = "pending"
	BatchJobRunning   BatchJobStatus = "running"
	BatchJobCompleted BatchJobStatus = "completed"
	BatchJobFailed    BatchJobStatus = "failed"
)

// BatchItemResult 是批量任务中单个患者的评分结果。
type BatchItemResult struct {
	HadmID      int64    `json:"hadmId"`
	Probability *float64 `json:"probability,omitempty"`
	AtRisk      *bool    `json:"atRisk,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// BatchJob 记录一个批量评分任务的状态，保存在 Redis 中并带有过期时间。
type BatchJob struct {
	JobID           string            `json:"jobId"`
	Status          BatchJobStatus    `json:"status"`
	SubmittedBy     string            `json:"submittedBy"`
	ContractVersion string            `json:"contractVersion"`
	Total           int               `json:"total"`
	Succeeded       int               `json:"succeeded"`
	Failed          int               `json:"failed"`
	Results         []BatchItemResult `json:"results,omitempty"`
	Error           string            `json:"error,omitempty"`
	CreatedAt       LocalTime         `json:"createdAt"`
	UpdatedAt       LocalTime         `json:"updatedAt"`
}

// Touch 更新任务的修改时间。
func (j *BatchJob) Touch() {
	j.UpdatedAt = LocalTime(time.Now())
}
