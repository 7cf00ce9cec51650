package internal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// SearchResult pairs a hydrated record with its cosine similarity score.
type SearchResult struct {
	Memory *Memory
	Score  float64
}

// RetrievalService orchestrates a search: embed the query, restrict by tags,
// consult the index, hydrate records and produce deterministically ordered
// results. It also assembles bounded context blocks for the chat flow.
type RetrievalService struct {
	store    *SQLiteStore
	index    VectorIndex
	embedder Embedder
	log      *zap.Logger
}

func NewRetrievalService(store *SQLiteStore, index VectorIndex, embedder Embedder, logger *zap.Logger) *RetrievalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetrievalService{store: store, index: index, embedder: embedder, log: logger}
}

// Search returns up to k results ordered by score descending; ties go to the
// more recently created record, then to the lower id, so identical queries
// against an unchanged store always yield identical output.
func (r *RetrievalService) Search(ctx context.Context, query string, k int, tags []string) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", ErrValidation)
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var candidates map[int64]bool
	if len(tags) > 0 {
		candidates, err = r.store.IDsByTags(ctx, tags)
		if err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			return nil, nil
		}
	}

	hits, err := r.index.Search(queryVec, k, candidates)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		mem, err := r.store.Get(ctx, hit.ID)
		if errors.Is(err, ErrNotFound) {
			// Index can briefly reference a record deleted underneath us;
			// filter it rather than failing the whole search.
			r.log.Warn("dropping stale index hit", zap.Int64("id", hit.ID))
			continue
		}
		if err != nil {
			return nil, err
		}
		results = append(results, SearchResult{Memory: mem, Score: hit.Score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Memory.CreatedAt.Equal(b.Memory.CreatedAt) {
			return a.Memory.CreatedAt.After(b.Memory.CreatedAt)
		}
		return a.Memory.ID < b.Memory.ID
	})
	return results, nil
}

// FilterMinScore keeps results scoring at or above min.
func FilterMinScore(results []SearchResult, min float64) []SearchResult {
	out := results[:0]
	for _, res := range results {
		if res.Score >= min {
			out = append(out, res)
		}
	}
	return out
}

// AssembleContext renders the top-ranked memories into one block of at most
// maxChars characters, each record whole under an id/score header, with
// records scoring below minScore dropped. Assembly stops before the first
// record that would overflow the budget. This is the only surface the chat
// flow consumes.
func (r *RetrievalService) AssembleContext(ctx context.Context, query string, k, maxChars int, minScore float64) (string, error) {
	if maxChars <= 0 {
		return "", fmt.Errorf("%w: maxChars must be positive", ErrValidation)
	}

	results, err := r.Search(ctx, query, k, nil)
	if err != nil {
		return "", err
	}
	results = FilterMinScore(results, minScore)

	const sep = "\n\n"
	var sb strings.Builder
	for _, res := range results {
		block := fmt.Sprintf("[Memory #%d | Score: %.2f]\n%s", res.Memory.ID, res.Score, res.Memory.Content)
		need := len(block)
		if sb.Len() > 0 {
			need += len(sep)
		}
		if sb.Len()+need > maxChars {
			break
		}
		if sb.Len() > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(block)
	}
	return sb.String(), nil
}
