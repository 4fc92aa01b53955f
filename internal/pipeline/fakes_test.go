package pipeline

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"readmission-risk-go/internal/model"
	"readmission-risk-go/pkg/embedding"
)

// memStore is an in-memory AdmissionStore keyed by hadm_id.
type memStore struct {
	columns []string
	rows    map[int64][]AdmissionRow
}

func newMemStore(columns []string, rows ...AdmissionRow) *memStore {
	s := &memStore{columns: columns, rows: make(map[int64][]AdmissionRow)}
	for _, r := range rows {
		id := r["hadm_id"].(int64)
		s.rows[id] = append(s.rows[id], r)
	}
	return s
}

func (s *memStore) Columns() []string { return s.columns }

func (s *memStore) FindByHadmID(id int64) []AdmissionRow { return s.rows[id] }

func (s *memStore) IDs() []int64 {
	ids := make([]int64, 0, len(s.rows))
	for id := range s.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// sumScorer returns a fixed probability and records the vectors it was given.
type sumScorer struct {
	mu        sync.Mutex
	inputSize int
	prob      float64
	seen      [][]float64
	err       error
}

func (s *sumScorer) PredictProba(_ context.Context, features []float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.seen = append(s.seen, features)
	return s.prob, nil
}

func (s *sumScorer) InputSize() int { return s.inputSize }

func (s *sumScorer) Version() string { return "fake" }

// memJobs is an in-memory JobRepository. Like Redis it refuses to work with a
// canceled context. onSave runs after every successful write.
type memJobs struct {
	mu     sync.Mutex
	jobs   map[string]model.BatchJob
	err    error
	onSave func(job model.BatchJob)
}

func newMemJobs() *memJobs { return &memJobs{jobs: make(map[string]model.BatchJob)} }

func (m *memJobs) Get(ctx context.Context, id string) (*model.BatchJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return &j, nil
}

func (m *memJobs) Save(ctx context.Context, job *model.BatchJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	if m.err != nil {
		m.mu.Unlock()
		return m.err
	}
	m.jobs[job.JobID] = *job
	hook := m.onSave
	m.mu.Unlock()
	if hook != nil {
		hook(*job)
	}
	return nil
}

var errScorerDown = errors.New("scorer down")

func feverPainTable(t *testing.T) embedding.Table {
	t.Helper()
	table, err := embedding.NewMemoryTable(map[string][]float32{
		"fever": {1, 0},
		"pain":  {0, 1},
	})
	require.NoError(t, err)
	return table
}

func patientRow(id int64, age, los interface{}) AdmissionRow {
	return AdmissionRow{"hadm_id": id, "age": age, "los_days": los, "name": "n/a"}
}
