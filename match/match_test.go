package match

import (
	"context"
	"encoding/hex"
	"testing"

	"contentfp/canonical"
	"contentfp/index"
	"contentfp/perceptual"
	"contentfp/semantic"
)

func seedBackend(t *testing.T) index.Backend {
	t.Helper()
	ctx := context.Background()
	b := index.NewInMemory()
	entries := []index.Entry{
		{TenantID: "t1", DocID: "exact-match", CanonicalHash: exactHashFor(t, "hello world")},
		{TenantID: "t1", DocID: "semantic-close", Embedding: index.Quantize(stubVector(t, "semantic-close", "hello world"), 100), Scale: 100},
		{TenantID: "t1", DocID: "perceptual-close", Signature: signatureFor(t, "hello world plus extra padding tokens here")},
		{TenantID: "t2", DocID: "other-tenant", CanonicalHash: exactHashFor(t, "hello world")},
	}
	if err := b.BatchPut(ctx, entries); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return b
}

func exactHashFor(t *testing.T, text string) []byte {
	t.Helper()
	doc, err := canonical.Canonicalize("seed", text, canonical.Config{Version: 1})
	if err != nil {
		t.Fatalf("canonicalize failed: %v", err)
	}
	decoded, err := hex.DecodeString(doc.IdentityHash)
	if err != nil {
		t.Fatalf("hex decode failed: %v", err)
	}
	return decoded
}

func stubVector(t *testing.T, docID, text string) []float32 {
	t.Helper()
	emb, err := semantic.Semanticize(context.Background(), docID, text, semantic.Config{Tier: "fast", EmbeddingDim: 16, Normalize: true}, semantic.Deps{})
	if err != nil {
		t.Fatalf("semanticize failed: %v", err)
	}
	return emb.Vector
}

func signatureFor(t *testing.T, text string) []uint64 {
	t.Helper()
	doc, err := canonical.Canonicalize("seed", text, canonical.Config{Version: 1})
	if err != nil {
		t.Fatalf("canonicalize failed: %v", err)
	}
	var tokens []perceptual.Token
	for _, tok := range doc.Tokens {
		tokens = append(tokens, perceptual.Token{Text: tok.Text})
	}
	fp, err := perceptual.Perceptualize(tokens, perceptual.Config{Version: 1, K: 3, W: 4, Bands: 4, RowsPerBand: 4, Seed: 1})
	if err != nil {
		t.Fatalf("perceptualize failed: %v", err)
	}
	return fp.Signature
}

func TestMatchDocumentExactStrategy(t *testing.T) {
	b := seedBackend(t)
	req := Request{
		TenantID:  "t1",
		QueryText: "hello world",
		Config: Config{
			Strategy:      Exact(),
			MaxResults:    10,
			TenantEnforce: true,
		},
	}
	deps := Deps{Backend: b, CanonicalConfig: canonical.Config{Version: 1}}
	hits, err := MatchDocument(context.Background(), req, deps)
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if len(hits) != 1 || hits[0].DocID != "exact-match" {
		t.Fatalf("expected exact-match hit, got %+v", hits)
	}
	if hits[0].Score != 1.0 {
		t.Fatalf("expected score 1.0, got %v", hits[0].Score)
	}
}

func TestMatchDocumentTenantIsolation(t *testing.T) {
	b := seedBackend(t)
	req := Request{
		TenantID:  "t2",
		QueryText: "hello world",
		Config:    Config{Strategy: Exact(), MaxResults: 10, TenantEnforce: true},
	}
	deps := Deps{Backend: b, CanonicalConfig: canonical.Config{Version: 1}}
	hits, err := MatchDocument(context.Background(), req, deps)
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if len(hits) != 1 || hits[0].DocID != "other-tenant" {
		t.Fatalf("expected other-tenant hit scoped to t2, got %+v", hits)
	}
}

func TestMatchDocumentInvalidWeightFails(t *testing.T) {
	b := seedBackend(t)
	req := Request{
		TenantID:  "t1",
		QueryText: "hello world",
		Config:    Config{Strategy: Weighted(1.5, 0), MaxResults: 10},
	}
	deps := Deps{Backend: b, CanonicalConfig: canonical.Config{Version: 1}}
	_, err := MatchDocument(context.Background(), req, deps)
	if err == nil {
		t.Fatalf("expected InvalidConfig error for out-of-range weight")
	}
}

func TestOrStrategyUsesBothSignals(t *testing.T) {
	strat := Or(Semantic("cosine", -1), Perceptual("jaccard", -1))
	if usesSemantic(strat) != true || usesPerceptual(strat) != true {
		t.Fatalf("expected Or() to require both semantic and perceptual signals")
	}
}

func TestEvalWeightedMissingSignalTreatedAsZero(t *testing.T) {
	expr := Weighted(0.5, 0)
	semanticSignals := map[string]signalScore{"a": {docID: "a", score: 1.0}}
	perceptualSignals := map[string]signalScore{}
	out := eval(expr, nil, semanticSignals, perceptualSignals)
	h, ok := out["a"]
	if !ok {
		t.Fatalf("expected doc a present")
	}
	if h.score != 0.5 {
		t.Fatalf("expected 0.5*1.0 + 0.5*0 = 0.5, got %v", h.score)
	}
}

func TestEvalAndIntersectsWithMinScore(t *testing.T) {
	expr := And(Semantic("cosine", 0), Perceptual("jaccard", 0))
	semanticSignals := map[string]signalScore{"a": {docID: "a", score: 0.9}, "b": {docID: "b", score: 0.8}}
	perceptualSignals := map[string]signalScore{"a": {docID: "a", score: 0.3}}
	out := eval(expr, nil, semanticSignals, perceptualSignals)
	if len(out) != 1 {
		t.Fatalf("expected only doc a in intersection, got %+v", out)
	}
	if out["a"].score != 0.3 {
		t.Fatalf("expected min(0.9, 0.3) = 0.3, got %v", out["a"].score)
	}
}
