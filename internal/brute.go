package internal

import (
	"fmt"
	"sync"
)

var _ VectorIndex = (*BruteIndex)(nil)

// BruteIndex holds all vectors in memory and scans every candidate per query.
// O(n*D) per search, which is fine for the corpus sizes in scope, and exactly
// equivalent to the accelerated strategy in results.
type BruteIndex struct {
	mu        sync.RWMutex
	dimension int
	vectors   map[int64][]float32
}

func NewBruteIndex(dimension int) *BruteIndex {
	return &BruteIndex{
		dimension: dimension,
		vectors:   make(map[int64][]float32),
	}
}

func (b *BruteIndex) Insert(id int64, vec []float32) error {
	if len(vec) != b.dimension {
		return fmt.Errorf("%w: index has %d, vector has %d", ErrDimensionMismatch, b.dimension, len(vec))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	cp := make([]float32, len(vec))
	copy(cp, vec)
	b.vectors[id] = cp
	return nil
}

// Remove is a no-op when the id is absent; the invariant is about the set of
// entries matching the store, not about call symmetry.
func (b *BruteIndex) Remove(id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.vectors, id)
	return nil
}

func (b *BruteIndex) Replace(id int64, vec []float32) error {
	return b.Insert(id, vec)
}

func (b *BruteIndex) Search(query []float32, k int, candidates map[int64]bool) ([]Hit, error) {
	if len(query) != b.dimension {
		return nil, fmt.Errorf("%w: index has %d, query has %d", ErrDimensionMismatch, b.dimension, len(query))
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if k <= 0 || len(b.vectors) == 0 {
		return nil, nil
	}

	var hits []Hit
	if candidates != nil {
		hits = scoreCandidates(b.vectors, query, candidates)
	} else {
		hits = make([]Hit, 0, len(b.vectors))
		for id, vec := range b.vectors {
			hits = append(hits, Hit{ID: id, Score: Cosine(query, vec)})
		}
		sortHits(hits)
	}

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (b *BruteIndex) Contains(id int64) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.vectors[id]
	return ok
}

func (b *BruteIndex) IDs() []int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]int64, 0, len(b.vectors))
	for id := range b.vectors {
		ids = append(ids, id)
	}
	return ids
}

func (b *BruteIndex) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.vectors)
}

func (b *BruteIndex) Close() error {
	return nil
}
