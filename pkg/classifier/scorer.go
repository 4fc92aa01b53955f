// Package classifier provides clients for the pre-trained readmission classifier.
// The classifier is opaque: it consumes one fixed-length feature vector and returns the
// probability of the positive (readmission) class.
package classifier

import (
	"context"
	"fmt"
)

// Scorer scores one feature vector.
type Scorer interface {
	PredictProba(ctx context.Context, features []float64) (float64, error)
	// InputSize is the feature vector length the model was trained on.
	InputSize() int
	Version() string
}

// ShapeError reports a feature vector of the wrong length.
type ShapeError struct {
	Got      int
	Expected int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("classifier expects %d features, got %d", e.Expected, e.Got)
}

// RangeError reports a probability outside [0, 1].
type RangeError struct {
	Probability float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("classifier returned probability %v outside [0,1]", e.Probability)
}

func checkShape(features []float64, expected int) error {
	if len(features) != expected {
		return &ShapeError{Got: len(features), Expected: expected}
	}
	return nil
}

func checkProbability(p float64) error {
	if !(p >= 0 && p <= 1) {
		return &RangeError{Probability: p}
	}
	return nil
}
