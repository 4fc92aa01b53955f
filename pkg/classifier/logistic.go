package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

// LogisticScorer evaluates a logistic regression exported from the training environment.
type LogisticScorer struct {
	intercept float64
	coef      []float64
	version   string
}

// logisticArtifact is the JSON layout of an exported model:
// {"version": "...", "intercept": b, "coef": [w1, ..., wn]}.
type logisticArtifact struct {
	Version   string    `json:"version"`
	Intercept float64   `json:"intercept"`
	Coef      []float64 `json:"coef"`
}

// NewLogisticScorer builds a scorer from explicit coefficients.
func NewLogisticScorer(intercept float64, coef []float64, version string) (*LogisticScorer, error) {
	if len(coef) == 0 {
		return nil, errors.New("logistic model has no coefficients")
	}
	c := make([]float64, len(coef))
	copy(c, coef)
	return &LogisticScorer{intercept: intercept, coef: c, version: version}, nil
}

// LoadLogistic decodes an exported logistic regression artifact.
func LoadLogistic(r io.Reader) (*LogisticScorer, error) {
	var a logisticArtifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode logistic artifact: %w", err)
	}
	return NewLogisticScorer(a.Intercept, a.Coef, a.Version)
}

// PredictProba returns sigmoid(intercept + coef·features).
func (s *LogisticScorer) PredictProba(_ context.Context, features []float64) (float64, error) {
	if err := checkShape(features, len(s.coef)); err != nil {
		return 0, err
	}
	z := s.intercept
	for i, x := range features {
		z += s.coef[i] * x
	}
	p := sigmoid(z)
	if err := checkProbability(p); err != nil {
		return 0, err
	}
	return p, nil
}

// InputSize returns the number of coefficients.
func (s *LogisticScorer) InputSize() int { return len(s.coef) }

// Version returns the artifact version.
func (s *LogisticScorer) Version() string { return s.version }

// sigmoid is written in the numerically stable form for large |z|.
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
