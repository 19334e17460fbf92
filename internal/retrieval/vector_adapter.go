// Package retrieval turns a processed question into resolved knowledge:
// vector search with query variants, record resolution, context rendering
// and related-content lookup.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

// VectorIndex stores embedded documents and answers nearest-neighbour queries.
type VectorIndex interface {
	// Search finds the k nearest neighbours of the query vector.
	Search(ctx context.Context, query []float32, k int) ([]VectorResult, error)

	// Upsert adds or replaces entries by key.
	Upsert(ctx context.Context, entries []VectorEntry) error

	// Delete removes entries by key.
	Delete(ctx context.Context, keys []string) error

	// Count returns the number of entries in the collection.
	Count(ctx context.Context) (int64, error)

	Close() error
}

// VectorEntry is one embedded document.
type VectorEntry struct {
	Key        string
	SourceType string
	Text       string
	Vector     []float32
	Metadata   Metadata
}

// VectorResult is a search hit.
type VectorResult struct {
	Key      string
	Text     string
	Distance float32
	Score    float32 // 1 - distance for cosine
	Metadata Metadata
}

// ErrVectorDimensionMismatch indicates a dimension mismatch.
var ErrVectorDimensionMismatch = errors.New("vector dimension mismatch")

// MemoryIndex is an in-process cosine index for development and tests.
type MemoryIndex struct {
	mu        sync.RWMutex
	dimension int
	vectors   map[string]indexedVector
}

type indexedVector struct {
	entry  VectorEntry
	vector []float32
}

// NewMemoryIndex creates an empty index. A zero dimension is taken from the
// first inserted vector.
func NewMemoryIndex(dimension int) *MemoryIndex {
	return &MemoryIndex{
		dimension: dimension,
		vectors:   make(map[string]indexedVector),
	}
}

// Search finds the k nearest neighbours using cosine distance.
// Ties are broken by key so results are stable.
func (a *MemoryIndex) Search(_ context.Context, query []float32, k int) ([]VectorResult, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.dimension > 0 && len(query) != a.dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrVectorDimensionMismatch, a.dimension, len(query))
	}
	q := normalizeVector(query)

	results := make([]VectorResult, 0, len(a.vectors))
	for key, iv := range a.vectors {
		dist := cosineDistance(q, iv.vector)
		results = append(results, VectorResult{
			Key:      key,
			Text:     iv.entry.Text,
			Distance: dist,
			Score:    1 - dist,
			Metadata: iv.entry.Metadata,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Key < results[j].Key
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Upsert adds or replaces vectors by key.
func (a *MemoryIndex) Upsert(_ context.Context, entries []VectorEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, e := range entries {
		if len(e.Vector) == 0 {
			return fmt.Errorf("empty vector for key %s", e.Key)
		}
		if a.dimension == 0 {
			a.dimension = len(e.Vector)
		}
		if len(e.Vector) != a.dimension {
			return fmt.Errorf("%w: expected %d, got %d for key %s",
				ErrVectorDimensionMismatch, a.dimension, len(e.Vector), e.Key)
		}
		a.vectors[e.Key] = indexedVector{
			entry:  e,
			vector: normalizeVector(e.Vector),
		}
	}
	return nil
}

// Delete removes vectors by key.
func (a *MemoryIndex) Delete(_ context.Context, keys []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, key := range keys {
		delete(a.vectors, key)
	}
	return nil
}

// Count returns the number of vectors in the index.
func (a *MemoryIndex) Count(_ context.Context) (int64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return int64(len(a.vectors)), nil
}

// Close is a no-op.
func (a *MemoryIndex) Close() error {
	return nil
}

// cosineDistance computes cosine distance between two normalized vectors.
func cosineDistance(a, b []float32) float32 {
	if len(a) != len(b) {
		return 1.0
	}

	var dot float32
	for i := range a {
		dot += a[i] * b[i]
	}

	// clamp floating point drift
	if dot > 1 {
		dot = 1
	} else if dot < -1 {
		dot = -1
	}
	return 1 - dot
}

// normalizeVector returns a unit vector.
func normalizeVector(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, x := range v {
		normalized[i] = float32(float64(x) / norm)
	}
	return normalized
}

var _ VectorIndex = (*MemoryIndex)(nil)
