package pipeline

import (
	"context"
	"runtime"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"readmission-risk-go/pkg/embedding"
)

// Vectorizer 把 token 序列映射为词向量的算术平均。
// 它只持有对词向量表的只读引用，可以被任意多个 goroutine 同时使用。
type Vectorizer struct {
	table       embedding.Table
	dim         int
	parallelism int
}

// NewVectorizer 创建一个新的 Vectorizer，维度在构造时从词向量表读取并固定。
// parallelism <= 0 时批量向量化使用 GOMAXPROCS 个 goroutine。
func NewVectorizer(table embedding.Table, parallelism int) *Vectorizer {
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	return &Vectorizer{
		table:       table,
		dim:         table.Dim(),
		parallelism: parallelism,
	}
}

// Dim 返回文档向量的维度 D。
func (v *Vectorizer) Dim() int {
	return v.dim
}

// VocabularySize 返回词表大小。
func (v *Vectorizer) VocabularySize() int {
	return v.table.Len()
}

// inVocabulary 保留词表中存在的 token，顺序不变，重复出现的 token 全部保留。
func inVocabulary(table embedding.Table, tokens []string) []string {
	return lo.Filter(tokens, func(tok string, _ int) bool {
		return table.Contains(tok)
	})
}

// MatchedTokens 返回 tokens 中命中词表的部分，用于调试和日志。
func (v *Vectorizer) MatchedTokens(tokens []string) []string {
	return inVocabulary(v.table, tokens)
}

// Vectorize 返回命中词表的 token 的词向量的逐维算术平均。
// 没有任何命中时返回长度为 D 的零向量。结果不做任何归一化。
func (v *Vectorizer) Vectorize(tokens []string) []float64 {
	out := make([]float64, v.dim)
	matched := inVocabulary(v.table, tokens)
	if len(matched) == 0 {
		return out
	}
	for _, tok := range matched {
		vec, _ := v.table.Vector(tok)
		for i, x := range vec {
			out[i] += float64(x)
		}
	}
	n := float64(len(matched))
	for i := range out {
		out[i] /= n
	}
	return out
}

// VectorizeSingleNote 等价于 Vectorize(Tokenize(note))。
func (v *Vectorizer) VectorizeSingleNote(note string) []float64 {
	return v.Vectorize(Tokenize(note))
}

// VectorizeBatch 独立地向量化每个 token 序列，结果顺序与输入一致。
// 唯一可能的错误来自 ctx 被取消。
func (v *Vectorizer) VectorizeBatch(ctx context.Context, docs [][]string) ([][]float64, error) {
	out := make([][]float64, len(docs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.parallelism)
	for i, doc := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = v.Vectorize(doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
