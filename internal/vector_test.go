package internal

import (
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"
)

func vec(vals ...float32) []float32 { return vals }

func insertAll(t *testing.T, idx VectorIndex, vectors map[int64][]float32) {
	t.Helper()
	for id, v := range vectors {
		if err := idx.Insert(id, v); err != nil {
			t.Fatalf("Insert(%d): %v", id, err)
		}
	}
}

// Both strategies must produce identical hits for the same data, since the
// accelerated one re-scores its candidates exactly.
func TestIndexStrategyEquivalence(t *testing.T) {
	const dim = 8
	vectors := map[int64][]float32{
		1: {1, 0, 0, 0, 0, 0, 0, 0},
		2: {0.9, 0.1, 0, 0, 0, 0, 0, 0},
		3: {0, 1, 0, 0, 0, 0, 0, 0},
		4: {0, 0, 1, 0, 0, 0, 0, 0},
		5: {0.5, 0.5, 0, 0, 0, 0, 0, 0},
	}

	brute := NewBruteIndex(dim)
	annoy, err := NewAnnoyIndex(t.TempDir(), dim)
	if err != nil {
		t.Fatalf("NewAnnoyIndex: %v", err)
	}
	defer annoy.Close()

	insertAll(t, brute, vectors)
	insertAll(t, annoy, vectors)

	query := vec(1, 0.05, 0, 0, 0, 0, 0, 0)
	bruteHits, err := brute.Search(query, 3, nil)
	if err != nil {
		t.Fatalf("brute search: %v", err)
	}
	annoyHits, err := annoy.Search(query, 3, nil)
	if err != nil {
		t.Fatalf("annoy search: %v", err)
	}

	if len(bruteHits) != len(annoyHits) {
		t.Fatalf("hit count mismatch: brute=%d annoy=%d", len(bruteHits), len(annoyHits))
	}
	for i := range bruteHits {
		if bruteHits[i].ID != annoyHits[i].ID {
			t.Errorf("hit %d: brute id=%d annoy id=%d", i, bruteHits[i].ID, annoyHits[i].ID)
		}
		if math.Abs(bruteHits[i].Score-annoyHits[i].Score) > 1e-6 {
			t.Errorf("hit %d: score mismatch brute=%v annoy=%v", i, bruteHits[i].Score, annoyHits[i].Score)
		}
	}
}

func TestIndexCandidateRestriction(t *testing.T) {
	for _, tc := range []struct {
		name string
		open func(t *testing.T) VectorIndex
	}{
		{"brute", func(t *testing.T) VectorIndex { return NewBruteIndex(4) }},
		{"annoy", func(t *testing.T) VectorIndex {
			idx, err := NewAnnoyIndex(t.TempDir(), 4)
			if err != nil {
				t.Fatalf("NewAnnoyIndex: %v", err)
			}
			return idx
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			idx := tc.open(t)
			defer idx.Close()

			insertAll(t, idx, map[int64][]float32{
				1: {1, 0, 0, 0},
				2: {1, 0, 0, 0},
				3: {0, 1, 0, 0},
			})

			hits, err := idx.Search(vec(1, 0, 0, 0), 10, map[int64]bool{2: true, 3: true})
			if err != nil {
				t.Fatalf("Search: %v", err)
			}

			for _, h := range hits {
				if h.ID == 1 {
					t.Error("hit outside candidate set returned")
				}
			}
			if len(hits) == 0 || hits[0].ID != 2 {
				t.Errorf("hits = %v, want id 2 first", hits)
			}
		})
	}
}

func TestIndexDimensionMismatch(t *testing.T) {
	idx := NewBruteIndex(4)
	if err := idx.Insert(1, vec(1, 2)); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Insert error = %v, want ErrDimensionMismatch", err)
	}
	if _, err := idx.Search(vec(1, 2), 5, nil); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Search error = %v, want ErrDimensionMismatch", err)
	}
}

func TestIndexRemoveAbsentIsNoop(t *testing.T) {
	idx := NewBruteIndex(4)
	if err := idx.Remove(99); err != nil {
		t.Errorf("Remove(absent) = %v, want nil", err)
	}
}

func TestOpenIndexBackends(t *testing.T) {
	logger := zap.NewNop()

	idx, err := OpenIndex(BackendMemory, t.TempDir(), 4, logger)
	if err != nil {
		t.Fatalf("OpenIndex(memory): %v", err)
	}
	if _, ok := idx.(*BruteIndex); !ok {
		t.Errorf("memory backend = %T, want *BruteIndex", idx)
	}

	idx, err = OpenIndex(BackendAnnoy, t.TempDir(), 4, logger)
	if err != nil {
		t.Fatalf("OpenIndex(annoy): %v", err)
	}
	if _, ok := idx.(*AnnoyIndex); !ok {
		t.Errorf("annoy backend = %T, want *AnnoyIndex", idx)
	}
	idx.Close()

	if _, err := OpenIndex("bogus", t.TempDir(), 4, logger); err == nil {
		t.Error("unknown backend should error")
	}
}

func TestSortHitsDeterministic(t *testing.T) {
	hits := []Hit{
		{ID: 1, Score: 0.5},
		{ID: 3, Score: 0.5},
		{ID: 2, Score: 0.9},
	}
	sortHits(hits)

	wantIDs := []int64{2, 3, 1}
	for i, want := range wantIDs {
		if hits[i].ID != want {
			t.Errorf("hits[%d].ID = %d, want %d", i, hits[i].ID, want)
		}
	}
}

// A top-k cut through a group of equal scores keeps the most recently
// created (highest-id) records on both strategies.
func TestIndexTieBreakKeepsNewestAtCutoff(t *testing.T) {
	tied := map[int64][]float32{
		1: {1, 0, 0, 0},
		2: {1, 0, 0, 0},
		3: {1, 0, 0, 0},
	}

	for _, tc := range []struct {
		name string
		open func(t *testing.T) VectorIndex
	}{
		{"brute", func(t *testing.T) VectorIndex { return NewBruteIndex(4) }},
		{"annoy", func(t *testing.T) VectorIndex {
			idx, err := NewAnnoyIndex(t.TempDir(), 4)
			if err != nil {
				t.Fatalf("NewAnnoyIndex: %v", err)
			}
			return idx
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			idx := tc.open(t)
			defer idx.Close()
			insertAll(t, idx, tied)

			hits, err := idx.Search(vec(1, 0, 0, 0), 2, nil)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if len(hits) != 2 {
				t.Fatalf("got %d hits, want 2", len(hits))
			}
			if hits[0].ID != 3 || hits[1].ID != 2 {
				t.Errorf("hits = [%d %d], want the two newest (3, 2)", hits[0].ID, hits[1].ID)
			}
		})
	}
}
