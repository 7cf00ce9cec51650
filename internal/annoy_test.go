package internal

import (
	"os"
	"testing"
)

func TestAnnoySaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	idx, err := NewAnnoyIndex(dir, 4)
	if err != nil {
		t.Fatalf("NewAnnoyIndex: %v", err)
	}
	insertAll(t, idx, map[int64][]float32{
		10: {1, 0, 0, 0},
		20: {0, 1, 0, 0},
	})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewAnnoyIndex(dir, 4)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	if reopened.Len() != 2 {
		t.Fatalf("Len = %d, want 2", reopened.Len())
	}
	hits, err := reopened.Search(vec(1, 0, 0, 0), 1, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != 10 {
		t.Errorf("hits = %v, want id 10", hits)
	}
}

func TestAnnoyClosePersistsMappingOnly(t *testing.T) {
	dir := t.TempDir()

	idx, err := NewAnnoyIndex(dir, 4)
	if err != nil {
		t.Fatalf("NewAnnoyIndex: %v", err)
	}
	insertAll(t, idx, map[int64][]float32{1: {1, 0, 0, 0}})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != MappingFilename {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("index directory = %v, want only %s", names, MappingFilename)
	}
}

func TestAnnoyLoadRejectsDimensionChange(t *testing.T) {
	dir := t.TempDir()

	idx, err := NewAnnoyIndex(dir, 4)
	if err != nil {
		t.Fatalf("NewAnnoyIndex: %v", err)
	}
	insertAll(t, idx, map[int64][]float32{1: {1, 0, 0, 0}})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := NewAnnoyIndex(dir, 8); err == nil {
		t.Error("reopening with a different dimension should error")
	}
}

func TestAnnoyMutateAfterBuild(t *testing.T) {
	idx, err := NewAnnoyIndex(t.TempDir(), 4)
	if err != nil {
		t.Fatalf("NewAnnoyIndex: %v", err)
	}
	defer idx.Close()

	insertAll(t, idx, map[int64][]float32{
		1: {1, 0, 0, 0},
		2: {0, 1, 0, 0},
	})

	// First search builds the forest.
	if _, err := idx.Search(vec(1, 0, 0, 0), 2, nil); err != nil {
		t.Fatalf("Search: %v", err)
	}

	// Mutations after a build must be visible to the next search.
	if err := idx.Remove(1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := idx.Insert(3, vec(0.9, 0.1, 0, 0)); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	hits, err := idx.Search(vec(1, 0, 0, 0), 5, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, h := range hits {
		if h.ID == 1 {
			t.Error("removed id still returned")
		}
	}
	if len(hits) == 0 || hits[0].ID != 3 {
		t.Errorf("hits = %v, want id 3 first", hits)
	}
}
