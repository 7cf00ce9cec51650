package internal

import (
	"path/filepath"
	"testing"
)

func TestHomeDirHonorsEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RECALL_HOME", dir)

	if got := HomeDir(); got != dir {
		t.Errorf("HomeDir = %q, want %q", got, dir)
	}
	if got := ConfigPath(); got != filepath.Join(dir, "config.yaml") {
		t.Errorf("ConfigPath = %q", got)
	}
}

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	t.Setenv("RECALL_HOME", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Backend != BackendAuto {
		t.Errorf("backend = %q, want %q", cfg.Backend, BackendAuto)
	}
	if cfg.Embeddings.Dimension != 384 {
		t.Errorf("dimension = %d, want 384", cfg.Embeddings.Dimension)
	}
	if cfg.SearchLimit != 10 {
		t.Errorf("search_limit = %d, want 10", cfg.SearchLimit)
	}
}

func TestConfigSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("RECALL_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.Backend = BackendMemory
	cfg.MinScore = 0.3
	cfg.Embeddings.Backend = "wordbag"
	cfg.Embeddings.Dimension = 64

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	got, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.Backend != BackendMemory || got.MinScore != 0.3 {
		t.Errorf("loaded config = %+v", got)
	}
	if got.Embeddings.Backend != "wordbag" || got.Embeddings.Dimension != 64 {
		t.Errorf("embeddings = %+v", got.Embeddings)
	}
}

func TestNewEmbedderFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Embeddings.Backend = "wordbag"
	cfg.Embeddings.Dimension = 16

	emb := NewEmbedderFromConfig(cfg)
	defer emb.Close()

	if _, ok := emb.(*WordBagEmbedder); !ok {
		t.Errorf("embedder = %T, want *WordBagEmbedder", emb)
	}
	if emb.Dimension() != 16 {
		t.Errorf("dimension = %d, want 16", emb.Dimension())
	}
}
