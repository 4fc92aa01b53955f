// Package embedding provides the pre-trained word-embedding table used to vectorize notes.
package embedding

import (
	"errors"
	"fmt"
)

// Table is a read-only word → vector lookup with a fixed dimension.
// Vectors returned by Vector are shared with the table and must not be modified.
type Table interface {
	Dim() int
	Len() int
	Contains(word string) bool
	Vector(word string) ([]float32, bool)
}

// ErrEmptyTable is returned when an artifact or map contains no vectors.
var ErrEmptyTable = errors.New("embedding table is empty")

// DimensionError reports a vector whose length differs from the table dimension.
type DimensionError struct {
	Word     string
	Got      int
	Expected int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("embedding for %q has dimension %d, expected %d", e.Word, e.Got, e.Expected)
}

// MemoryTable is an immutable in-memory Table.
type MemoryTable struct {
	dim     int
	vectors map[string][]float32
}

// NewMemoryTable copies vectors into a new table. All vectors must share one non-zero dimension.
func NewMemoryTable(vectors map[string][]float32) (*MemoryTable, error) {
	if len(vectors) == 0 {
		return nil, ErrEmptyTable
	}
	dim := -1
	copied := make(map[string][]float32, len(vectors))
	for word, vec := range vectors {
		if dim == -1 {
			dim = len(vec)
		}
		if len(vec) != dim || dim == 0 {
			return nil, &DimensionError{Word: word, Got: len(vec), Expected: dim}
		}
		v := make([]float32, dim)
		copy(v, vec)
		copied[word] = v
	}
	return &MemoryTable{dim: dim, vectors: copied}, nil
}

// Dim returns the fixed embedding dimension.
func (t *MemoryTable) Dim() int { return t.dim }

// Len returns the vocabulary size.
func (t *MemoryTable) Len() int { return len(t.vectors) }

// Contains reports whether word is in the vocabulary.
func (t *MemoryTable) Contains(word string) bool {
	_, ok := t.vectors[word]
	return ok
}

// Vector returns the embedding of word.
func (t *MemoryTable) Vector(word string) ([]float32, bool) {
	v, ok := t.vectors[word]
	return v, ok
}
