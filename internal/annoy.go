package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mariotoffia/goannoy/builder"
	"github.com/mariotoffia/goannoy/interfaces"
)

const (
	MappingFilename = "mapping.json"

	// Annoy cannot mutate a built forest, so mutations mark the index dirty
	// and the forest is rebuilt lazily before the next search.
	defaultNumTrees = 16

	// ANN search is approximate; candidates are over-fetched and re-scored
	// with exact cosine so ranking matches the brute-force strategy.
	overfetchFactor = 4
	minOverfetch    = 32
)

var _ VectorIndex = (*AnnoyIndex)(nil)

// AnnoyIndex is the accelerated similarity strategy. It keeps the authoritative
// (id, vector) set in memory, mirrors it into an annoy forest for sub-linear
// candidate retrieval, and persists both forest and id mapping under basePath.
type AnnoyIndex struct {
	mu        sync.RWMutex
	idx       interfaces.AnnoyIndex[float32, uint32]
	dimension int
	basePath  string

	vectors map[int64][]float32
	idToKey map[int64]uint32
	keyToID map[uint32]int64
	nextKey uint32
	built   bool
	dirty   bool
}

type annoyMapping struct {
	IDs  []int64 `json:"ids"`
	Dim  int     `json:"dim"`
	Data []byte  `json:"vectors"`
}

func NewAnnoyIndex(basePath string, dimension int) (*AnnoyIndex, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	a := &AnnoyIndex{
		idx:       newForest(dimension),
		dimension: dimension,
		basePath:  basePath,
		vectors:   make(map[int64][]float32),
		idToKey:   make(map[int64]uint32),
		keyToID:   make(map[uint32]int64),
	}

	if err := a.load(); err != nil {
		return nil, err
	}
	return a, nil
}

func newForest(dimension int) interfaces.AnnoyIndex[float32, uint32] {
	return builder.Index[float32, uint32]().
		AngularDistance(dimension).
		UseMultiWorkerPolicy().
		MmapIndexAllocator().
		Build()
}

func (a *AnnoyIndex) Insert(id int64, vec []float32) error {
	if len(vec) != a.dimension {
		return fmt.Errorf("%w: index has %d, vector has %d", ErrDimensionMismatch, a.dimension, len(vec))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	cp := make([]float32, len(vec))
	copy(cp, vec)
	a.vectors[id] = cp
	a.dirty = true
	a.built = false
	return nil
}

func (a *AnnoyIndex) Remove(id int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.vectors[id]; !ok {
		return nil
	}

	delete(a.vectors, id)
	a.dirty = true
	a.built = false
	return nil
}

func (a *AnnoyIndex) Replace(id int64, vec []float32) error {
	return a.Insert(id, vec)
}

func (a *AnnoyIndex) Search(query []float32, k int, candidates map[int64]bool) ([]Hit, error) {
	if len(query) != a.dimension {
		return nil, fmt.Errorf("%w: index has %d, query has %d", ErrDimensionMismatch, a.dimension, len(query))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if k <= 0 || len(a.vectors) == 0 {
		return nil, nil
	}

	// Tag-restricted searches score the candidate set directly; the set is
	// already small and exact scoring keeps both strategies identical.
	if candidates != nil {
		hits := scoreCandidates(a.vectors, query, candidates)
		if k < len(hits) {
			hits = hits[:k]
		}
		return hits, nil
	}

	if !a.built {
		a.rebuild()
	}

	fetch := k * overfetchFactor
	if fetch < minOverfetch {
		fetch = minOverfetch
	}
	if fetch > len(a.vectors) {
		fetch = len(a.vectors)
	}

	searchCtx := a.idx.CreateContext()
	keys, _ := a.idx.GetNnsByVector(query, fetch, -1, searchCtx)

	hits := make([]Hit, 0, len(keys))
	for _, key := range keys {
		id, ok := a.keyToID[key]
		if !ok {
			continue
		}
		vec, ok := a.vectors[id]
		if !ok {
			continue
		}
		hits = append(hits, Hit{ID: id, Score: Cosine(query, vec)})
	}

	sortHits(hits)
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// rebuild reconstructs the annoy forest from the authoritative vector set.
// Caller must hold the write lock.
func (a *AnnoyIndex) rebuild() {
	a.idx = newForest(a.dimension)
	a.idToKey = make(map[int64]uint32, len(a.vectors))
	a.keyToID = make(map[uint32]int64, len(a.vectors))
	a.nextKey = 0

	for id, vec := range a.vectors {
		key := a.nextKey
		a.nextKey++
		a.idToKey[id] = key
		a.keyToID[key] = id
		a.idx.AddItem(key, vec)
	}

	a.idx.Build(defaultNumTrees, -1)
	a.built = true
}

// Save persists the id/vector mapping. The forest is not written: it is
// rebuilt lazily from the mapping after the next open, which also folds in
// whatever reconciliation finds.
func (a *AnnoyIndex) Save() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	ids := make([]int64, 0, len(a.vectors))
	data := make([]byte, 0, len(a.vectors)*a.dimension*4)
	for id, vec := range a.vectors {
		ids = append(ids, id)
		data = append(data, encodeVector(vec)...)
	}

	mapping := annoyMapping{IDs: ids, Dim: a.dimension, Data: data}
	raw, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("marshal mapping: %w", err)
	}

	if err := os.WriteFile(filepath.Join(a.basePath, MappingFilename), raw, 0644); err != nil {
		return fmt.Errorf("write mapping: %w", err)
	}

	a.dirty = false
	return nil
}

// load restores the persisted vector set, if any. The forest is rebuilt
// lazily; reconciliation against the record store runs right after open, so
// the rebuild always starts from the reconciled set.
func (a *AnnoyIndex) load() error {
	raw, err := os.ReadFile(filepath.Join(a.basePath, MappingFilename))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read mapping: %w", err)
	}

	var mapping annoyMapping
	if err := json.Unmarshal(raw, &mapping); err != nil {
		return fmt.Errorf("unmarshal mapping: %w", err)
	}

	if mapping.Dim != a.dimension {
		return fmt.Errorf("%w: index file has %d, configured %d", ErrDimensionMismatch, mapping.Dim, a.dimension)
	}

	stride := a.dimension * 4
	if len(mapping.Data) != len(mapping.IDs)*stride {
		return fmt.Errorf("mapping data length %d does not match %d ids", len(mapping.Data), len(mapping.IDs))
	}

	for i, id := range mapping.IDs {
		vec, err := decodeVector(mapping.Data[i*stride : (i+1)*stride])
		if err != nil {
			return fmt.Errorf("decode vector for id %d: %w", id, err)
		}
		a.vectors[id] = vec
	}

	a.dirty = false
	return nil
}

func (a *AnnoyIndex) Contains(id int64) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.vectors[id]
	return ok
}

func (a *AnnoyIndex) IDs() []int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()

	ids := make([]int64, 0, len(a.vectors))
	for id := range a.vectors {
		ids = append(ids, id)
	}
	return ids
}

func (a *AnnoyIndex) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.vectors)
}

func (a *AnnoyIndex) Close() error {
	a.mu.RLock()
	dirty := a.dirty
	a.mu.RUnlock()

	if dirty {
		return a.Save()
	}
	return nil
}
