package semantic

import (
	"context"
	"errors"
	"testing"
)

func TestStubDeterministic(t *testing.T) {
	cfg := Config{Tier: "fast", EmbeddingDim: 16, Normalize: true}
	e1, err := Semanticize(context.Background(), "doc-1", "hello world", cfg, Deps{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e2, err := Semanticize(context.Background(), "doc-1", "hello world", cfg, Deps{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(e1.Vector) != 16 {
		t.Fatalf("expected dim 16, got %d", len(e1.Vector))
	}
	for i := range e1.Vector {
		if e1.Vector[i] != e2.Vector[i] {
			t.Fatalf("stub not deterministic at index %d", i)
		}
	}
}

func TestStubDiffersByText(t *testing.T) {
	cfg := Config{Tier: "fast", EmbeddingDim: 8}
	a, _ := Semanticize(context.Background(), "doc-1", "hello", cfg, Deps{})
	b, _ := Semanticize(context.Background(), "doc-1", "goodbye", cfg, Deps{})
	same := true
	for i := range a.Vector {
		if a.Vector[i] != b.Vector[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("expected different texts to produce different stub vectors")
	}
}

func TestAPIModeWithoutProviderFails(t *testing.T) {
	cfg := Config{Mode: "api"}
	_, err := Semanticize(context.Background(), "doc-1", "hello", cfg, Deps{})
	if err == nil {
		t.Fatalf("expected error for api mode without provider")
	}
}

type fakeRunner struct {
	available bool
	fail      bool
}

func (f fakeRunner) Available() bool { return f.available }
func (f fakeRunner) Tokenize(ctx context.Context, text string) (TokenizedInput, error) {
	ids := make([]int64, len(text))
	for i := range ids {
		ids[i] = int64(i)
	}
	return TokenizedInput{InputIDs: ids, AttentionMask: ids}, nil
}
func (f fakeRunner) Run(ctx context.Context, input TokenizedInput) ([]float32, error) {
	if f.fail {
		return nil, errors.New("boom")
	}
	vec := make([]float32, 4)
	for i := range vec {
		vec[i] = float32(len(input.InputIDs))
	}
	return vec, nil
}

func TestOnnxModeUnavailableFallsBackToStub(t *testing.T) {
	cfg := Config{Mode: "onnx", EmbeddingDim: 4}
	e, err := Semanticize(context.Background(), "doc-1", "hello", cfg, Deps{Runner: fakeRunner{available: false}})
	if err != nil {
		t.Fatalf("unexpected error, should fall back to stub: %v", err)
	}
	if e.ModelName != "stub" {
		t.Fatalf("expected stub fallback, got model %q", e.ModelName)
	}
}

func TestOnnxModeChunkingAndPooling(t *testing.T) {
	cfg := Config{
		Mode:              "onnx",
		MaxSequenceLength: 5,
		EnableChunking:    true,
		ChunkOverlapRatio: 0.2,
		PoolingStrategy:   "mean",
	}
	longText := make([]byte, 20)
	for i := range longText {
		longText[i] = 'a'
	}
	e, err := Semanticize(context.Background(), "doc-1", string(longText), cfg, Deps{Runner: fakeRunner{available: true}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(e.Vector) != 4 {
		t.Fatalf("expected pooled vector of dim 4, got %d", len(e.Vector))
	}
}

func TestBatchPreservesOrder(t *testing.T) {
	cfg := Config{Tier: "fast", EmbeddingDim: 4}
	items := []Item{{DocID: "a", Text: "one"}, {DocID: "b", Text: "two"}, {DocID: "c", Text: "three"}}
	out, errs := SemanticizeBatch(context.Background(), items, cfg, Deps{})
	for i, err := range errs {
		if err != nil {
			t.Fatalf("item %d: unexpected error: %v", i, err)
		}
	}
	for i, item := range items {
		if out[i].DocID != item.DocID {
			t.Fatalf("order mismatch at %d: got %s want %s", i, out[i].DocID, item.DocID)
		}
	}
}

func TestPoolingStrategies(t *testing.T) {
	chunks := [][]float32{{1, 2}, {3, 4}, {5, 6}}
	mean := pool(chunks, PoolMean)
	if mean[0] != 3 || mean[1] != 4 {
		t.Fatalf("mean pooling wrong: %+v", mean)
	}
	max := pool(chunks, PoolMax)
	if max[0] != 5 || max[1] != 6 {
		t.Fatalf("max pooling wrong: %+v", max)
	}
	first := pool(chunks, PoolFirst)
	if first[0] != 1 || first[1] != 2 {
		t.Fatalf("first pooling wrong: %+v", first)
	}
}
