package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"readmission-risk-go/internal/model"
	"readmission-risk-go/pkg/tasks"
)

func TestProcessor_Process(t *testing.T) {
	req := require.New(t)
	jobs := newMemJobs()
	jobs.jobs["job-1"] = model.BatchJob{JobID: "job-1", Status: model.BatchJobPending, Total: 2}
	p := newTestPipeline(t, &sumScorer{prob: 0.35}, patientRow(1, 40, 1))
	proc := NewProcessor(p, jobs, 0.30)

	err := proc.Process(context.Background(), tasks.BatchScoringTask{
		JobID: "job-1",
		Items: []tasks.BatchScoringItem{
			{HadmID: 1, Note: "fever"},
			{HadmID: 2, Note: "pain"},
		},
	})
	req.NoError(err)

	job := jobs.jobs["job-1"]
	req.Equal(model.BatchJobCompleted, job.Status)
	req.Equal("test-v1", job.ContractVersion)
	req.Equal(1, job.Succeeded)
	req.Equal(1, job.Failed)
	req.Len(job.Results, 2)

	req.NotNil(job.Results[0].Probability)
	req.Equal(0.35, *job.Results[0].Probability)
	req.True(*job.Results[0].AtRisk)

	req.Nil(job.Results[1].Probability)
	req.Equal("No admission record was found for patient ID 2.", job.Results[1].Error)
}

func TestProcessor_RecreatesExpiredJob(t *testing.T) {
	jobs := newMemJobs()
	proc := NewProcessor(newTestPipeline(t, &sumScorer{prob: 0.1}, patientRow(1, 40, 1)), jobs, 0.30)

	err := proc.Process(context.Background(), tasks.BatchScoringTask{
		JobID:       "gone",
		SubmittedBy: "drhouse",
		Items:       []tasks.BatchScoringItem{{HadmID: 1, Note: "fever"}},
	})
	require.NoError(t, err)

	job := jobs.jobs["gone"]
	require.Equal(t, model.BatchJobCompleted, job.Status)
	require.Equal(t, "drhouse", job.SubmittedBy)
	require.False(t, *job.Results[0].AtRisk)
}

func TestProcessor_SkipsCompletedJob(t *testing.T) {
	jobs := newMemJobs()
	jobs.jobs["done"] = model.BatchJob{JobID: "done", Status: model.BatchJobCompleted, Succeeded: 5}
	scorer := &sumScorer{prob: 0.5}
	proc := NewProcessor(newTestPipeline(t, scorer, patientRow(1, 40, 1)), jobs, 0.30)

	err := proc.Process(context.Background(), tasks.BatchScoringTask{
		JobID: "done",
		Items: []tasks.BatchScoringItem{{HadmID: 1, Note: "fever"}},
	})
	require.NoError(t, err)
	require.Empty(t, scorer.seen)
	require.Equal(t, 5, jobs.jobs["done"].Succeeded)
}

func TestProcessor_RepositoryFailureIsReturned(t *testing.T) {
	jobs := newMemJobs()
	jobs.err = errors.New("redis down")
	proc := NewProcessor(newTestPipeline(t, &sumScorer{prob: 0.5}, patientRow(1, 40, 1)), jobs, 0.30)

	err := proc.Process(context.Background(), tasks.BatchScoringTask{JobID: "x"})
	require.ErrorIs(t, err, jobs.err)
}

func TestProcessor_CanceledContextMarksJobFailed(t *testing.T) {
	jobs := newMemJobs()
	proc := NewProcessor(newTestPipeline(t, &sumScorer{prob: 0.5}, patientRow(1, 40, 1)), jobs, 0.30)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// 任务进入 running 后消费者被关闭
	jobs.onSave = func(job model.BatchJob) {
		if job.Status == model.BatchJobRunning {
			cancel()
		}
	}

	err := proc.Process(ctx, tasks.BatchScoringTask{
		JobID: "c",
		Items: []tasks.BatchScoringItem{{HadmID: 1, Note: "fever"}},
	})
	require.ErrorIs(t, err, context.Canceled)
	job := jobs.jobs["c"]
	require.Equal(t, model.BatchJobFailed, job.Status)
	require.Contains(t, job.Error, context.Canceled.Error())
}

func TestProcessor_CanceledBeforeStartLeavesStateUntouched(t *testing.T) {
	jobs := newMemJobs()
	jobs.jobs["early"] = model.BatchJob{JobID: "early", Status: model.BatchJobPending}
	proc := NewProcessor(newTestPipeline(t, &sumScorer{prob: 0.5}, patientRow(1, 40, 1)), jobs, 0.30)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := proc.Process(ctx, tasks.BatchScoringTask{JobID: "early"})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, model.BatchJobPending, jobs.jobs["early"].Status)
}
