package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"readmission-risk-go/pkg/classifier"
	"readmission-risk-go/pkg/log"
)

// Contract 固定了分类器输入向量的布局：先是按顺序排列的结构化特征，然后是 EmbeddingDim 维文档向量。
type Contract struct {
	Version      string
	FeatureNames []string
	EmbeddingDim int
}

// Width 返回特征向量的总长度。
func (c Contract) Width() int {
	return len(c.FeatureNames) + c.EmbeddingDim
}

// Fingerprint 返回契约的 SHA-256 摘要，特征顺序、维度或版本的任何变化都会改变它。
func (c Contract) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(c.Version))
	h.Write([]byte{0})
	for _, name := range c.FeatureNames {
		h.Write([]byte(name))
		h.Write([]byte{0})
	}
	h.Write([]byte(strconv.Itoa(c.EmbeddingDim)))
	return hex.EncodeToString(h.Sum(nil))
}

// Scored 是一次评分的完整结果。
type Scored struct {
	HadmID        int64
	Tokens        []string
	MatchedTokens []string
	FeatureVector []float64
	Probability   float64
}

// BatchItem 是批量评分中的一条输入。
type BatchItem struct {
	HadmID int64
	Note   string
}

// BatchResult 是批量评分中一条输入的结果，Err 不为空时 Scored 为零值。
type BatchResult struct {
	Scored Scored
	Err    error
}

// Pipeline 串联 tokenize → vectorize → assemble → score。
type Pipeline struct {
	vectorizer *Vectorizer
	assembler  *Assembler
	scorer     classifier.Scorer
	contract   Contract
}

// New 创建一个新的 Pipeline。
func New(vectorizer *Vectorizer, assembler *Assembler, scorer classifier.Scorer, contract Contract) *Pipeline {
	return &Pipeline{
		vectorizer: vectorizer,
		assembler:  assembler,
		scorer:     scorer,
		contract:   contract,
	}
}

// Contract 返回当前生效的特征契约。
func (p *Pipeline) Contract() Contract {
	return p.contract
}

// Vectorizer 返回底层的 Vectorizer。
func (p *Pipeline) Vectorizer() *Vectorizer {
	return p.vectorizer
}

// Assembler 返回底层的 Assembler。
func (p *Pipeline) Assembler() *Assembler {
	return p.assembler
}

// ModelVersion 返回分类器制品的版本。
func (p *Pipeline) ModelVersion() string {
	return p.scorer.Version()
}

// ValidateContract 在启动时校验词向量维度、数据表结构和分类器输入长度与契约一致。
// expectedFingerprint 为空时跳过指纹比对。
func (p *Pipeline) ValidateContract(expectedFingerprint string) error {
	if p.vectorizer.Dim() != p.contract.EmbeddingDim {
		return &ContractError{Reason: fmt.Sprintf("embedding table has dimension %d, contract declares %d", p.vectorizer.Dim(), p.contract.EmbeddingDim)}
	}
	if err := p.assembler.ValidateSchema(p.contract.FeatureNames); err != nil {
		return err
	}
	if p.scorer.InputSize() != p.contract.Width() {
		return &ContractError{Reason: fmt.Sprintf("classifier expects %d inputs, contract produces %d (%d features + %d embedding)",
			p.scorer.InputSize(), p.contract.Width(), len(p.contract.FeatureNames), p.contract.EmbeddingDim)}
	}
	if fp := p.contract.Fingerprint(); expectedFingerprint != "" && !strings.EqualFold(fp, expectedFingerprint) {
		return &ContractError{Reason: fmt.Sprintf("fingerprint %s does not match pinned %s", fp, expectedFingerprint)}
	}
	return nil
}

// Score 对单条出院小结执行完整的评分流程。
func (p *Pipeline) Score(ctx context.Context, hadmID int64, note string) (Scored, error) {
	tokens := Tokenize(note)
	return p.scoreTokens(ctx, hadmID, tokens, p.vectorizer.Vectorize(tokens))
}

func (p *Pipeline) scoreTokens(ctx context.Context, hadmID int64, tokens []string, docVec []float64) (Scored, error) {
	features, err := p.assembler.Assemble(hadmID, docVec, p.contract.FeatureNames)
	if err != nil {
		return Scored{}, err
	}
	if len(features) != p.contract.Width() {
		return Scored{}, &ContractError{Reason: fmt.Sprintf("assembled %d features, contract requires %d", len(features), p.contract.Width())}
	}
	prob, err := p.scorer.PredictProba(ctx, features)
	if err != nil {
		return Scored{}, fmt.Errorf("classifier failed for hadm_id %d: %w", hadmID, err)
	}
	matched := p.vectorizer.MatchedTokens(tokens)
	log.Debugf("[Pipeline] hadm_id %d: tokens=%d, matched=%d, probability=%.4f", hadmID, len(tokens), len(matched), prob)
	return Scored{
		HadmID:        hadmID,
		Tokens:        tokens,
		MatchedTokens: matched,
		FeatureVector: features,
		Probability:   prob,
	}, nil
}

// ScoreBatch 批量评分。向量化并行执行；单条失败不会影响其它条目，只有 ctx 取消才会返回错误。
func (p *Pipeline) ScoreBatch(ctx context.Context, items []BatchItem) ([]BatchResult, error) {
	docs := make([][]string, len(items))
	for i, item := range items {
		docs[i] = Tokenize(item.Note)
	}
	vectors, err := p.vectorizer.VectorizeBatch(ctx, docs)
	if err != nil {
		return nil, err
	}
	results := make([]BatchResult, len(items))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scored, err := p.scoreTokens(ctx, item.HadmID, docs[i], vectors[i])
		results[i] = BatchResult{Scored: scored, Err: err}
	}
	return results, nil
}
