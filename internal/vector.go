package internal

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Hit is one nearest-neighbor match from a VectorIndex.
type Hit struct {
	ID    int64
	Score float64
}

// VectorIndex holds (id, vector) pairs mirrored from the record store.
// Both strategies must score with the exact same cosine so results are
// backend-independent.
type VectorIndex interface {
	Insert(id int64, vec []float32) error
	Remove(id int64) error
	Replace(id int64, vec []float32) error

	// Search returns up to k hits ordered by score descending, with ties
	// going to the higher (more recent) id. If candidates is non-nil only
	// those ids are eligible.
	Search(query []float32, k int, candidates map[int64]bool) ([]Hit, error)

	Contains(id int64) bool
	IDs() []int64
	Len() int
	Close() error
}

const (
	BackendAuto   = "auto"
	BackendAnnoy  = "annoy"
	BackendMemory = "memory"
)

// OpenIndex selects the similarity strategy at store-open time. A failure to
// bring up the accelerated backend is a local degradation, not an error: it
// logs and falls back to the brute-force strategy.
func OpenIndex(backend, basePath string, dimension int, logger *zap.Logger) (VectorIndex, error) {
	switch backend {
	case BackendMemory:
		return NewBruteIndex(dimension), nil
	case BackendAnnoy, BackendAuto, "":
		idx, err := NewAnnoyIndex(basePath, dimension)
		if err != nil {
			logger.Warn("accelerated index unavailable, falling back to brute-force search",
				zap.String("backend", BackendAnnoy),
				zap.Error(err))
			return NewBruteIndex(dimension), nil
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("%w: unknown index backend %q (supported: auto, annoy, memory)", ErrBackendUnavailable, backend)
	}
}

// sortHits applies the index-level ordering: score descending, higher id
// first. Ids are assigned monotonically, so on a score tie the higher id is
// the more recently created record; a top-k cut therefore keeps the newest
// of a tied group. Final ordering of hydrated results happens upstream.
func sortHits(hits []Hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID > hits[j].ID
	})
}

// scoreCandidates computes exact cosine scores for the given ids. Shared by
// both strategies so candidate-restricted searches are identical everywhere.
func scoreCandidates(vectors map[int64][]float32, query []float32, candidates map[int64]bool) []Hit {
	hits := make([]Hit, 0, len(candidates))
	for id := range candidates {
		vec, ok := vectors[id]
		if !ok {
			continue
		}
		hits = append(hits, Hit{ID: id, Score: Cosine(query, vec)})
	}
	sortHits(hits)
	return hits
}
