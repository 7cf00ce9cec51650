package internal

import (
	"context"
	"hash/fnv"
	"strings"
)

var _ Embedder = (*WordBagEmbedder)(nil)

// WordBagEmbedder is a deterministic, model-free embedder: each lowercased
// word is hashed into a dimension bucket and the resulting bag-of-words
// vector is L2-normalized. Texts that share vocabulary score high on cosine,
// which makes it useful for tests and for running without a model file. It
// is not a substitute for a real sentence encoder.
type WordBagEmbedder struct {
	dimension int
}

func NewWordBagEmbedder(dimension int) *WordBagEmbedder {
	return &WordBagEmbedder{dimension: dimension}
}

func (e *WordBagEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := validateEmbedInput(text); err != nil {
		return nil, err
	}

	vec := make([]float32, e.dimension)
	for _, word := range strings.Fields(text) {
		word = normalizeWord(word)
		if word == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[int(h.Sum32())%e.dimension]++
	}
	return l2Normalize(vec), nil
}

func (e *WordBagEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *WordBagEmbedder) Dimension() int { return e.dimension }

func (e *WordBagEmbedder) Close() error { return nil }

// normalizeWord lowercases, strips punctuation and folds trivial plurals so
// "uses" and "use" land in the same bucket.
func normalizeWord(w string) string {
	w = strings.ToLower(strings.Trim(w, ".,;:!?\"'()[]{}"))
	if len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") {
		w = w[:len(w)-1]
	}
	return w
}
