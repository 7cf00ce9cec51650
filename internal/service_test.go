package internal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func testCoreOptions(t *testing.T, dim int) CoreOptions {
	t.Helper()
	dir := t.TempDir()
	return CoreOptions{
		DBPath:    filepath.Join(dir, "recall.db"),
		IndexPath: filepath.Join(dir, "index"),
		Backend:   BackendMemory,
		Embedder:  NewWordBagEmbedder(dim),
	}
}

func TestOpenCoreRoundTrip(t *testing.T) {
	opts := testCoreOptions(t, testDim)
	ctx := context.Background()

	core, err := OpenCore(ctx, opts)
	if err != nil {
		t.Fatalf("OpenCore: %v", err)
	}

	mem, err := core.Memories.Create(ctx, "persisted across opens", []string{"test"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := core.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Fresh embedder instance; the brute index starts empty and reconciliation
	// must repopulate it from stored vectors.
	opts.Embedder = NewWordBagEmbedder(testDim)
	core, err = OpenCore(ctx, opts)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer core.Close()

	if !core.Index.Contains(mem.ID) {
		t.Error("index not rebuilt from stored vectors on reopen")
	}

	results, err := core.Retrieval.Search(ctx, "persisted across opens", 1, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Memory.ID != mem.ID {
		t.Errorf("results = %v", results)
	}
}

func TestOpenCoreRejectsDimensionMismatch(t *testing.T) {
	opts := testCoreOptions(t, 16)
	ctx := context.Background()

	core, err := OpenCore(ctx, opts)
	if err != nil {
		t.Fatalf("OpenCore: %v", err)
	}
	if _, err := core.Memories.Create(ctx, "sized for 16", nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := core.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	opts.Embedder = NewWordBagEmbedder(32)
	if _, err := OpenCore(ctx, opts); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("OpenCore with changed model = %v, want ErrDimensionMismatch", err)
	}
}

func TestReindexAfterModelChange(t *testing.T) {
	opts := testCoreOptions(t, 16)
	ctx := context.Background()

	core, err := OpenCore(ctx, opts)
	if err != nil {
		t.Fatalf("OpenCore: %v", err)
	}
	if _, err := core.Memories.Create(ctx, "first record", nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := core.Memories.Create(ctx, "second record", nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := core.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Switch to a larger model and rebuild.
	opts.Embedder = NewWordBagEmbedder(32)
	opts.RebuildIndex = true
	core, err = OpenCore(ctx, opts)
	if err != nil {
		t.Fatalf("OpenCore rebuild: %v", err)
	}

	n, err := core.Memories.Reindex(ctx)
	if err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	if n != 2 {
		t.Errorf("reindexed %d, want 2", n)
	}
	if err := core.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// The store now opens cleanly under the new dimension.
	opts.RebuildIndex = false
	core, err = OpenCore(ctx, opts)
	if err != nil {
		t.Fatalf("reopen after reindex: %v", err)
	}
	defer core.Close()

	results, err := core.Retrieval.Search(ctx, "second record", 1, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %v", results)
	}
}

func TestServiceCount(t *testing.T) {
	opts := testCoreOptions(t, testDim)
	ctx := context.Background()

	core, err := OpenCore(ctx, opts)
	if err != nil {
		t.Fatalf("OpenCore: %v", err)
	}
	defer core.Close()

	for _, content := range []string{"a", "b", "c"} {
		if _, err := core.Memories.Create(ctx, content, nil); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	n, err := core.Memories.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}
