package internal

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestWordBagDeterministic(t *testing.T) {
	emb := NewWordBagEmbedder(32)
	ctx := context.Background()

	a, err := emb.Embed(ctx, "the quick brown fox")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, err := emb.Embed(ctx, "the quick brown fox")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same text produced different vectors")
	}

	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1) > 1e-6 {
		t.Errorf("vector norm = %v, want 1", math.Sqrt(norm))
	}
}

func TestWordBagRelatedTextsScoreHigher(t *testing.T) {
	emb := NewWordBagEmbedder(64)
	ctx := context.Background()

	doc, _ := emb.Embed(ctx, "the build pipeline deploys the api service")
	related, _ := emb.Embed(ctx, "how does the pipeline deploy the service")
	unrelated, _ := emb.Embed(ctx, "birthday cake recipe with chocolate")

	if Cosine(doc, related) <= Cosine(doc, unrelated) {
		t.Errorf("related=%v unrelated=%v", Cosine(doc, related), Cosine(doc, unrelated))
	}
}

func TestWordBagFoldsPlurals(t *testing.T) {
	emb := NewWordBagEmbedder(64)
	ctx := context.Background()

	a, _ := emb.Embed(ctx, "agent")
	b, _ := emb.Embed(ctx, "agents")
	if math.Abs(Cosine(a, b)-1) > 1e-6 {
		t.Errorf("singular/plural cosine = %v, want 1", Cosine(a, b))
	}
}

func TestWordBagRejectsEmptyInput(t *testing.T) {
	emb := NewWordBagEmbedder(16)
	if _, err := emb.Embed(context.Background(), "   "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Embed(blank) = %v, want ErrInvalidInput", err)
	}
}

func TestWordBagEmbedBatch(t *testing.T) {
	emb := NewWordBagEmbedder(16)
	vecs, err := emb.EmbedBatch(context.Background(), []string{"one two", "three four"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vecs) != 2 || len(vecs[0]) != 16 {
		t.Errorf("batch shape wrong: %d vectors", len(vecs))
	}
}
