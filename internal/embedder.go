package internal

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Embedder turns text into a fixed-length vector. Implementations are
// deterministic for a fixed model version.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Close() error
}

func validateEmbedInput(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: cannot embed empty text", ErrInvalidInput)
	}
	return nil
}

// LazyEmbedder defers the expensive model load until the first Embed call,
// then reuses the loaded model for the process lifetime. Dimension is known
// up front from configuration so the store can be opened without paying the
// load cost.
type LazyEmbedder struct {
	dimension int
	open      func() (Embedder, error)

	once    sync.Once
	inner   Embedder
	openErr error
}

var _ Embedder = (*LazyEmbedder)(nil)

func NewLazyEmbedder(dimension int, open func() (Embedder, error)) *LazyEmbedder {
	return &LazyEmbedder{dimension: dimension, open: open}
}

func (l *LazyEmbedder) init() error {
	l.once.Do(func() {
		l.inner, l.openErr = l.open()
		if l.openErr == nil && l.inner.Dimension() != l.dimension {
			l.openErr = fmt.Errorf("%w: model has %d, configured %d",
				ErrDimensionMismatch, l.inner.Dimension(), l.dimension)
		}
	})
	return l.openErr
}

func (l *LazyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := validateEmbedInput(text); err != nil {
		return nil, err
	}
	if err := l.init(); err != nil {
		return nil, err
	}
	return l.inner.Embed(ctx, text)
}

func (l *LazyEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	for _, t := range texts {
		if err := validateEmbedInput(t); err != nil {
			return nil, err
		}
	}
	if err := l.init(); err != nil {
		return nil, err
	}
	return l.inner.EmbedBatch(ctx, texts)
}

func (l *LazyEmbedder) Dimension() int { return l.dimension }

func (l *LazyEmbedder) Close() error {
	if l.inner != nil {
		return l.inner.Close()
	}
	return nil
}
