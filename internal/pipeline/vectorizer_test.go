package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"readmission-risk-go/pkg/embedding"
)

func abTable(t *testing.T) embedding.Table {
	t.Helper()
	table, err := embedding.NewMemoryTable(map[string][]float32{
		"a": {1, 0},
		"b": {0, 1},
	})
	require.NoError(t, err)
	return table
}

func TestVectorize_WeightedByFrequency(t *testing.T) {
	v := NewVectorizer(abTable(t), 1)
	got := v.Vectorize([]string{"a", "a", "b"})
	require.InDeltaSlice(t, []float64{2.0 / 3.0, 1.0 / 3.0}, got, 1e-12)
}

func TestVectorize_ZeroVectorWithoutMatches(t *testing.T) {
	req := require.New(t)
	v := NewVectorizer(abTable(t), 1)

	req.Equal([]float64{0, 0}, v.Vectorize(nil))
	req.Equal([]float64{0, 0}, v.Vectorize([]string{}))
	req.Equal([]float64{0, 0}, v.Vectorize([]string{"zzz", "qqq"}))
}

func TestVectorize_IgnoresOutOfVocabulary(t *testing.T) {
	v := NewVectorizer(abTable(t), 1)
	require.Equal(t, v.Vectorize([]string{"a"}), v.Vectorize([]string{"x", "a", "y"}))
}

func TestVectorize_Idempotent(t *testing.T) {
	v := NewVectorizer(abTable(t), 1)
	tokens := []string{"b", "a", "b", "c"}
	require.Equal(t, v.Vectorize(tokens), v.Vectorize(tokens))
}

func TestVectorize_OrderIndependent(t *testing.T) {
	v := NewVectorizer(abTable(t), 1)
	require.InDeltaSlice(t, v.Vectorize([]string{"a", "b", "b"}), v.Vectorize([]string{"b", "a", "b"}), 1e-12)
}

func TestVectorize_DoesNotNormalize(t *testing.T) {
	table, err := embedding.NewMemoryTable(map[string][]float32{"big": {3, 4}})
	require.NoError(t, err)
	v := NewVectorizer(table, 1)
	require.Equal(t, []float64{3, 4}, v.Vectorize([]string{"big", "big"}))
}

func TestVectorize_CompositionLaw(t *testing.T) {
	// 两段 token 拼接后的平均等于各自平均按命中数加权
	v := NewVectorizer(abTable(t), 1)
	t1 := []string{"a", "x", "a"}
	t2 := []string{"b", "a", "b", "b"}

	n1 := float64(len(v.MatchedTokens(t1)))
	n2 := float64(len(v.MatchedTokens(t2)))
	v1 := v.Vectorize(t1)
	v2 := v.Vectorize(t2)

	combined := v.Vectorize(append(append([]string{}, t1...), t2...))
	for i := range combined {
		expected := (n1*v1[i] + n2*v2[i]) / (n1 + n2)
		require.InDelta(t, expected, combined[i], 1e-12)
	}
}

func TestVectorize_OutputLengthIsDim(t *testing.T) {
	table, err := embedding.NewMemoryTable(map[string][]float32{"w": {1, 2, 3, 4, 5}})
	require.NoError(t, err)
	v := NewVectorizer(table, 0)
	require.Equal(t, 5, v.Dim())
	require.Len(t, v.Vectorize([]string{"nope"}), 5)
	require.Len(t, v.Vectorize([]string{"w"}), 5)
}

func TestVectorizeSingleNote(t *testing.T) {
	v := NewVectorizer(feverPainTable(t), 1)
	got := v.VectorizeSingleNote("Patient has fever and pain 123")
	require.InDeltaSlice(t, []float64{0.5, 0.5}, got, 1e-12)
	require.Equal(t, v.Vectorize(Tokenize("Patient has fever and pain 123")), got)
}

func TestVectorizeBatch_MatchesSequential(t *testing.T) {
	req := require.New(t)
	v := NewVectorizer(abTable(t), 3)
	docs := [][]string{
		{"a"},
		{},
		{"b", "b", "a"},
		{"c"},
		{"a", "b"},
	}

	got, err := v.VectorizeBatch(context.Background(), docs)
	req.NoError(err)
	req.Len(got, len(docs))
	for i, doc := range docs {
		req.Equal(v.Vectorize(doc), got[i], "doc %d", i)
	}
}

func TestVectorizeBatch_CanceledContext(t *testing.T) {
	v := NewVectorizer(abTable(t), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := v.VectorizeBatch(ctx, [][]string{{"a"}, {"b"}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestMatchedTokens_KeepsDuplicatesAndOrder(t *testing.T) {
	v := NewVectorizer(abTable(t), 1)
	require.Equal(t, []string{"b", "a", "b"}, v.MatchedTokens([]string{"b", "x", "a", "b"}))
}
