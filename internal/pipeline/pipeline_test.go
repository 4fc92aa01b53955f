package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T, scorer *sumScorer, rows ...AdmissionRow) *Pipeline {
	t.Helper()
	contract := Contract{Version: "test-v1", FeatureNames: []string{"age", "los_days"}, EmbeddingDim: 2}
	if scorer.inputSize == 0 {
		scorer.inputSize = contract.Width()
	}
	return New(
		NewVectorizer(feverPainTable(t), 2),
		NewAssembler(newMemStore(testColumns, rows...)),
		scorer,
		contract,
	)
}

func TestScore_EndToEnd(t *testing.T) {
	req := require.New(t)
	scorer := &sumScorer{prob: 0.42}
	p := newTestPipeline(t, scorer, patientRow(12345, 80, 6))

	scored, err := p.Score(context.Background(), 12345, "Patient has fever and pain 123")
	req.NoError(err)
	req.Equal(int64(12345), scored.HadmID)
	req.Equal([]string{"patient", "has", "fever", "and", "pain"}, scored.Tokens)
	req.Equal([]string{"fever", "pain"}, scored.MatchedTokens)
	req.InDeltaSlice([]float64{80, 6, 0.5, 0.5}, scored.FeatureVector, 1e-12)
	req.Equal(0.42, scored.Probability)
	req.Len(scorer.seen, 1)
}

func TestScore_EmptyNoteUsesZeroVector(t *testing.T) {
	scorer := &sumScorer{prob: 0.1}
	p := newTestPipeline(t, scorer, patientRow(1, 40, 1))

	scored, err := p.Score(context.Background(), 1, "")
	require.NoError(t, err)
	require.Equal(t, []float64{40, 1, 0, 0}, scored.FeatureVector)
	require.Empty(t, scored.Tokens)
}

func TestScore_MissingPatientDoesNotReachScorer(t *testing.T) {
	scorer := &sumScorer{prob: 0.9}
	p := newTestPipeline(t, scorer, patientRow(1, 40, 1))

	_, err := p.Score(context.Background(), 2, "fever")
	require.ErrorIs(t, err, ErrLookup)
	require.Empty(t, scorer.seen)
}

func TestScore_ScorerFailureIsWrapped(t *testing.T) {
	scorer := &sumScorer{err: errScorerDown}
	p := newTestPipeline(t, scorer, patientRow(1, 40, 1))

	_, err := p.Score(context.Background(), 1, "fever")
	require.ErrorIs(t, err, errScorerDown)
	require.Contains(t, err.Error(), "hadm_id 1")
}

func TestScoreBatch_IsolatesFailures(t *testing.T) {
	req := require.New(t)
	scorer := &sumScorer{prob: 0.3}
	p := newTestPipeline(t, scorer, patientRow(1, 40, 1), patientRow(3, 70, 9))

	results, err := p.ScoreBatch(context.Background(), []BatchItem{
		{HadmID: 1, Note: "fever"},
		{HadmID: 2, Note: "pain"},
		{HadmID: 3, Note: "fever and pain"},
	})
	req.NoError(err)
	req.Len(results, 3)

	req.NoError(results[0].Err)
	req.Equal([]float64{40, 1, 1, 0}, results[0].Scored.FeatureVector)

	var missing *MissingPatientError
	req.ErrorAs(results[1].Err, &missing)
	req.Equal(int64(2), missing.HadmID)

	req.NoError(results[2].Err)
	req.InDeltaSlice([]float64{70, 9, 0.5, 0.5}, results[2].Scored.FeatureVector, 1e-12)
}

func TestScoreBatch_CanceledContext(t *testing.T) {
	p := newTestPipeline(t, &sumScorer{prob: 0.3}, patientRow(1, 40, 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ScoreBatch(ctx, []BatchItem{{HadmID: 1, Note: "fever"}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestValidateContract(t *testing.T) {
	t.Run("ok without pinned fingerprint", func(t *testing.T) {
		p := newTestPipeline(t, &sumScorer{}, patientRow(1, 40, 1))
		require.NoError(t, p.ValidateContract(""))
	})

	t.Run("ok with matching fingerprint", func(t *testing.T) {
		p := newTestPipeline(t, &sumScorer{}, patientRow(1, 40, 1))
		require.NoError(t, p.ValidateContract(p.Contract().Fingerprint()))
	})

	t.Run("fingerprint mismatch", func(t *testing.T) {
		p := newTestPipeline(t, &sumScorer{}, patientRow(1, 40, 1))
		var ce *ContractError
		require.ErrorAs(t, p.ValidateContract("deadbeef"), &ce)
	})

	t.Run("classifier input size mismatch", func(t *testing.T) {
		p := newTestPipeline(t, &sumScorer{inputSize: 5}, patientRow(1, 40, 1))
		var ce *ContractError
		require.ErrorAs(t, p.ValidateContract(""), &ce)
		require.Contains(t, ce.Error(), "expects 5 inputs")
	})

	t.Run("embedding dimension mismatch", func(t *testing.T) {
		contract := Contract{Version: "v", FeatureNames: []string{"age"}, EmbeddingDim: 300}
		p := New(NewVectorizer(feverPainTable(t), 1), NewAssembler(newMemStore(testColumns)), &sumScorer{inputSize: 301}, contract)
		var ce *ContractError
		require.ErrorAs(t, p.ValidateContract(""), &ce)
	})

	t.Run("unknown feature column", func(t *testing.T) {
		contract := Contract{Version: "v", FeatureNames: []string{"bmi"}, EmbeddingDim: 2}
		p := New(NewVectorizer(feverPainTable(t), 1), NewAssembler(newMemStore(testColumns)), &sumScorer{inputSize: 3}, contract)
		var mf *MissingFeatureError
		require.ErrorAs(t, p.ValidateContract(""), &mf)
	})
}

func TestContractFingerprint(t *testing.T) {
	req := require.New(t)
	base := Contract{Version: "v1", FeatureNames: []string{"age", "los_days"}, EmbeddingDim: 300}

	req.Equal(base.Fingerprint(), Contract{Version: "v1", FeatureNames: []string{"age", "los_days"}, EmbeddingDim: 300}.Fingerprint())
	req.NotEqual(base.Fingerprint(), Contract{Version: "v1", FeatureNames: []string{"los_days", "age"}, EmbeddingDim: 300}.Fingerprint())
	req.NotEqual(base.Fingerprint(), Contract{Version: "v1", FeatureNames: []string{"age", "los_days"}, EmbeddingDim: 200}.Fingerprint())
	req.NotEqual(base.Fingerprint(), Contract{Version: "v2", FeatureNames: []string{"age", "los_days"}, EmbeddingDim: 300}.Fingerprint())
	req.Len(base.Fingerprint(), 64)
	req.Equal(302, base.Width())
}
