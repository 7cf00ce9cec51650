package internal

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// MemoryService is the CRUD surface handed to the CLI layer. Mutations go
// through the consistency manager so store and index never drift apart.
type MemoryService struct {
	store   *SQLiteStore
	manager *ConsistencyManager
}

func NewMemoryService(store *SQLiteStore, manager *ConsistencyManager) *MemoryService {
	return &MemoryService{store: store, manager: manager}
}

func (s *MemoryService) Create(ctx context.Context, content string, tags []string) (*Memory, error) {
	return s.manager.Create(ctx, content, tags)
}

func (s *MemoryService) Get(ctx context.Context, id int64) (*Memory, error) {
	return s.store.Get(ctx, id)
}

func (s *MemoryService) Update(ctx context.Context, id int64, newContent *string, newTags []string) (*Memory, error) {
	return s.manager.Update(ctx, id, newContent, newTags)
}

func (s *MemoryService) Delete(ctx context.Context, id int64) error {
	return s.manager.Delete(ctx, id)
}

func (s *MemoryService) List(ctx context.Context, tags []string, limit, offset int) ([]*Memory, error) {
	return s.store.List(ctx, tags, limit, offset)
}

func (s *MemoryService) ExportAll(ctx context.Context) ([]*Memory, error) {
	return s.store.ExportAll(ctx)
}

func (s *MemoryService) ImportBatch(ctx context.Context, items []ImportItem) ([]*Memory, error) {
	return s.manager.ImportBatch(ctx, items)
}

func (s *MemoryService) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// Reindex re-embeds every record with the active model and replaces its
// index entry, the remedy for a dimension mismatch after a model change.
func (s *MemoryService) Reindex(ctx context.Context) (int, error) {
	memories, err := s.store.ExportAll(ctx)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, mem := range memories {
		if err := s.manager.Reembed(ctx, mem.ID); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Core bundles an opened store, index, embedder and the services built on
// them. OpenCore is the single store-open entrypoint: it verifies the
// dimension contract, selects the index strategy and reconciles.
type Core struct {
	Store     *SQLiteStore
	Index     VectorIndex
	Embedder  Embedder
	Manager   *ConsistencyManager
	Memories  *MemoryService
	Retrieval *RetrievalService
}

type CoreOptions struct {
	DBPath    string
	IndexPath string
	Backend   string
	Embedder  Embedder
	Logger    *zap.Logger

	// RebuildIndex discards the persisted index and skips the dimension
	// check, for reindexing after an embedding model change.
	RebuildIndex bool
}

func OpenCore(ctx context.Context, opts CoreOptions) (*Core, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := NewSQLiteStore(opts.DBPath)
	if err != nil {
		return nil, err
	}

	if opts.RebuildIndex {
		if err := os.RemoveAll(opts.IndexPath); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("discard index: %w", err)
		}
	} else {
		// A store with existing vectors is bound to their dimensionality; a
		// differently sized model must not silently truncate or pad.
		storedDim, err := store.Dimension(ctx)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		if storedDim != 0 && storedDim != opts.Embedder.Dimension() {
			_ = store.Close()
			return nil, fmt.Errorf("%w: store has %d, model has %d",
				ErrDimensionMismatch, storedDim, opts.Embedder.Dimension())
		}
	}

	index, err := OpenIndex(opts.Backend, opts.IndexPath, opts.Embedder.Dimension(), logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	manager := NewConsistencyManager(store, index, opts.Embedder, logger)
	if !opts.RebuildIndex {
		if err := manager.Reconcile(ctx); err != nil {
			_ = index.Close()
			_ = store.Close()
			return nil, err
		}
	}

	return &Core{
		Store:     store,
		Index:     index,
		Embedder:  opts.Embedder,
		Manager:   manager,
		Memories:  NewMemoryService(store, manager),
		Retrieval: NewRetrievalService(store, index, opts.Embedder, logger),
	}, nil
}

func (c *Core) Close() error {
	err := c.Index.Close()
	if serr := c.Store.Close(); err == nil {
		err = serr
	}
	if eerr := c.Embedder.Close(); err == nil {
		err = eerr
	}
	return err
}
