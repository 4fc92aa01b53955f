package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"readmission-risk-go/internal/model"
	"readmission-risk-go/internal/pipeline"
	"readmission-risk-go/internal/repository"
	"readmission-risk-go/pkg/classifier"
	"readmission-risk-go/pkg/embedding"
)

var testFeatures = []string{"age", "los_days"}

func newTestAdmissions(t *testing.T) *repository.AdmissionTable {
	t.Helper()
	table, err := repository.NewAdmissionTable(
		[]string{"hadm_id", "age", "los_days", "patient_name"},
		"hadm_id",
		[]map[string]interface{}{
			{"hadm_id": int64(100001), "age": int64(70), "los_days": 5.0, "patient_name": "Jane Roe"},
			{"hadm_id": int64(100002), "age": int64(30), "los_days": 1.0, "patient_name": "John Doe"},
			{"hadm_id": int64(100003), "age": "n/a", "los_days": 2.0, "patient_name": "Jim Poe"},
		},
	)
	require.NoError(t, err)
	return table
}

// newTestPipeline 构建一个真实的评分流程：逻辑回归只看 fever 维度，
// 所以包含 fever 的病历概率为 sigmoid(4)，否则为 sigmoid(-4)。
func newTestPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	table, err := embedding.NewMemoryTable(map[string][]float32{
		"fever": {1, 0},
		"pain":  {0, 1},
	})
	require.NoError(t, err)
	scorer, err := classifier.NewLogisticScorer(-4, []float64{0, 0, 8, 0}, "lr-test")
	require.NoError(t, err)

	contract := pipeline.Contract{Version: "contract-test", FeatureNames: testFeatures, EmbeddingDim: 2}
	p := pipeline.New(pipeline.NewVectorizer(table, 1), pipeline.NewAssembler(newTestAdmissions(t)), scorer, contract)
	return p
}

// memJobs 是内存中的 JobRepository，与 Redis 一样在 ctx 取消后拒绝读写。
type memJobs struct {
	mu   sync.Mutex
	jobs map[string]model.BatchJob
}

func newMemJobs() *memJobs { return &memJobs{jobs: make(map[string]model.BatchJob)} }

func (m *memJobs) Get(ctx context.Context, id string) (*model.BatchJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, pipeline.ErrJobNotFound
	}
	return &j, nil
}

func (m *memJobs) Save(ctx context.Context, job *model.BatchJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.JobID] = *job
	return nil
}

// memClinicians 是内存中的 ClinicianRepository。
type memClinicians struct {
	mu     sync.Mutex
	nextID uint
	byName map[string]*model.Clinician
}

func newMemClinicians() *memClinicians {
	return &memClinicians{byName: make(map[string]*model.Clinician)}
}

func (m *memClinicians) Create(c *model.Clinician) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	cp := *c
	m.byName[c.Username] = &cp
	return nil
}

func (m *memClinicians) FindByUsername(username string) (*model.Clinician, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byName[username]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memClinicians) FindByID(id uint) (*model.Clinician, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byName {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memClinicians) FindWithPagination(offset, limit int) ([]model.Clinician, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]model.Clinician, 0, len(m.byName))
	for id := uint(1); id <= m.nextID; id++ {
		for _, c := range m.byName {
			if c.ID == id {
				all = append(all, *c)
			}
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return []model.Clinician{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *memClinicians) CountByRole(role string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range m.byName {
		if c.Role == role {
			n++
		}
	}
	return n, nil
}
