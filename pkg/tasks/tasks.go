// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// BatchScoringItem is one admission to score inside a batch job.
type BatchScoringItem struct {
	HadmID int64  `json:"hadm_id"`
	Note   string `json:"note"`
}

// BatchScoringTask represents the data structure for a batch scoring job.
type BatchScoringTask struct {
	JobID       string             `json:"job_id"`
	SubmittedBy string             `json:"submitted_by"`
	Items       []BatchScoringItem `json:"items"`
}
