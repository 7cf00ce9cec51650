package internal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ConsistencyManager makes the record store and the similarity index behave
// as one atomic unit. Row and index live in separate structures, so each
// mutation runs as a compensating-action saga: do the row op inside a
// transaction, do the index op, undo on failure. Startup reconciliation is
// the convergence mechanism for anything a crash left behind.
type ConsistencyManager struct {
	store    *SQLiteStore
	index    VectorIndex
	embedder Embedder
	log      *zap.Logger
}

func NewConsistencyManager(store *SQLiteStore, index VectorIndex, embedder Embedder, logger *zap.Logger) *ConsistencyManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsistencyManager{store: store, index: index, embedder: embedder, log: logger}
}

// Create embeds the text, persists the row and inserts the index entry.
// Either both structures are updated or neither is.
func (m *ConsistencyManager) Create(ctx context.Context, content string, tags []string) (*Memory, error) {
	mem, err := NewMemory(content, tags)
	if err != nil {
		return nil, err
	}

	vec, err := m.embedder.Embed(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	mem.Vector = vec

	tx, err := m.store.Begin(ctx)
	if err != nil {
		return nil, err
	}

	if err := m.store.insertTx(ctx, tx, mem); err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err := m.index.Insert(mem.ID, mem.Vector); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("index insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		_ = m.index.Remove(mem.ID)
		return nil, fmt.Errorf("%w: commit create: %v", ErrStorageFailure, err)
	}
	return mem, nil
}

// Update changes text and/or tags; at least one must be supplied. A text
// change re-embeds before anything is persisted, so a committed record is
// never observable with a vector derived from stale text.
func (m *ConsistencyManager) Update(ctx context.Context, id int64, newContent *string, newTags []string) (*Memory, error) {
	if newContent == nil && newTags == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}
	if newContent != nil && strings.TrimSpace(*newContent) == "" {
		return nil, fmt.Errorf("%w: empty content", ErrValidation)
	}

	mem, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	oldVector := mem.Vector
	textChanged := newContent != nil && *newContent != mem.Content

	if newContent != nil {
		mem.Content = *newContent
	}
	if newTags != nil {
		mem.Tags = NormalizeTags(newTags)
	}
	mem.UpdatedAt = time.Now().UTC()

	if textChanged {
		vec, err := m.embedder.Embed(ctx, mem.Content)
		if err != nil {
			return nil, fmt.Errorf("embed: %w", err)
		}
		mem.Vector = vec
	}

	tx, err := m.store.Begin(ctx)
	if err != nil {
		return nil, err
	}

	if err := m.store.updateTx(ctx, tx, mem, textChanged); err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if textChanged {
		if err := m.index.Replace(mem.ID, mem.Vector); err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("index replace: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		if textChanged {
			_ = m.index.Replace(mem.ID, oldVector)
		}
		return nil, fmt.Errorf("%w: commit update: %v", ErrStorageFailure, err)
	}
	return mem, nil
}

// Delete removes row and index entry together. An unknown id is ErrNotFound;
// an index entry already absent is fine, the invariant is about the sets
// matching, not about call symmetry.
func (m *ConsistencyManager) Delete(ctx context.Context, id int64) error {
	mem, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}

	tx, err := m.store.Begin(ctx)
	if err != nil {
		return err
	}

	if err := m.store.deleteTx(ctx, tx, id); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := m.index.Remove(id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("index remove: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if mem.Vector != nil {
			_ = m.index.Insert(id, mem.Vector)
		}
		return fmt.Errorf("%w: commit delete: %v", ErrStorageFailure, err)
	}
	return nil
}

// Reembed recomputes a record's vector from its current text with the active
// model and replaces both the stored vector and the index entry. Text and
// tags are untouched.
func (m *ConsistencyManager) Reembed(ctx context.Context, id int64) error {
	mem, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}

	oldVector := mem.Vector
	vec, err := m.embedder.Embed(ctx, mem.Content)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	mem.Vector = vec

	tx, err := m.store.Begin(ctx)
	if err != nil {
		return err
	}

	if err := m.store.updateTx(ctx, tx, mem, true); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := m.index.Replace(mem.ID, mem.Vector); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("index replace: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if oldVector != nil {
			_ = m.index.Replace(mem.ID, oldVector)
		}
		return fmt.Errorf("%w: commit reembed: %v", ErrStorageFailure, err)
	}
	return nil
}

// ImportBatch assigns fresh ids and re-embeds every item; exported ids are
// never reused, which keeps imports collision-free across stores.
func (m *ConsistencyManager) ImportBatch(ctx context.Context, items []ImportItem) ([]*Memory, error) {
	out := make([]*Memory, 0, len(items))
	for i, item := range items {
		mem, err := m.Create(ctx, item.Content, item.Tags)
		if err != nil {
			return out, fmt.Errorf("import item %d: %w", i, err)
		}
		out = append(out, mem)
	}
	return out, nil
}

type ImportItem struct {
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// Reconcile converges the index to the persisted vector set: entries without
// a live row are dropped, live rows missing from the index are re-inserted
// from their stored vectors (no re-embedding). Running it twice in a row
// changes nothing the second time.
func (m *ConsistencyManager) Reconcile(ctx context.Context) error {
	stored, err := m.store.AllVectors(ctx)
	if err != nil {
		return err
	}

	var dropped, restored int
	for _, id := range m.index.IDs() {
		if _, ok := stored[id]; !ok {
			if err := m.index.Remove(id); err != nil {
				return fmt.Errorf("drop orphan %d: %w", id, err)
			}
			dropped++
		}
	}

	for id, vec := range stored {
		if m.index.Contains(id) {
			continue
		}
		if err := m.index.Insert(id, vec); err != nil {
			return fmt.Errorf("restore %d: %w", id, err)
		}
		restored++
	}

	if dropped > 0 || restored > 0 {
		m.log.Info("index reconciled",
			zap.Int("dropped", dropped),
			zap.Int("restored", restored))
	}
	return nil
}
