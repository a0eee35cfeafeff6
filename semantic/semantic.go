// Package semantic implements C4: mode-selected embedding (deterministic
// stub, external API, or local ONNX inference), with chunking, pooling, and
// L2 normalization.
package semantic

import (
	"context"

	cferrors "contentfp/errors"
)

const stage = "semantic"

// Config governs embedding mode selection and behavior.
type Config struct {
	Tier              string
	Mode              string
	ModelName         string
	ModelPath         string
	TokenizerPath     string
	APIURL            string
	APIAuthHeader     string
	APIProvider       string
	Normalize         bool
	EmbeddingDim      int
	MaxSequenceLength int
	EnableChunking    bool
	ChunkOverlapRatio float64
	PoolingStrategy   string
	TokenSoftLimit    int
	TokenTarget       int
}

// Embedding is the C4 output.
type Embedding struct {
	DocID      string
	Vector     []float32
	ModelName  string
	Tier       string
	Dim        int
	Normalized bool
}

// Item is one (doc_id, text) pair for batch embedding.
type Item struct {
	DocID string
	Text  string
}

// Deps are the external collaborators Semanticize needs for non-stub modes.
// Any may be nil; nil Provider/Runner triggers the fallback behavior §4.4
// specifies (stub for onnx, InvalidConfig for api).
type Deps struct {
	Provider  EmbeddingProvider
	Runner    OnnxRunner
	Tokenizer Tokenizer
}

// Semanticize runs the C4 pipeline for one document.
func Semanticize(ctx context.Context, docID, text string, cfg Config, deps Deps) (*Embedding, error) {
	tokenizer := deps.Tokenizer
	if tokenizer == nil {
		tokenizer = DefaultTokenizer()
	}

	trimmed, err := TrimToBudget(ctx, tokenizer, text, cfg.TokenSoftLimit, cfg.TokenTarget)
	if err == nil {
		text = trimmed
	}

	useStub := cfg.Tier == "fast" || cfg.Mode == "fast"

	switch {
	case useStub:
		return stubResult(docID, text, cfg), nil

	case cfg.Mode == "api":
		if deps.Provider == nil {
			if cfg.APIURL == "" {
				return nil, cferrors.New(stage, cferrors.InvalidConfig, "api mode requires a provider and api_url")
			}
			return nil, cferrors.New(stage, cferrors.InvalidConfig, "api mode requires an EmbeddingProvider")
		}
		vec, err := deps.Provider.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		if cfg.Normalize {
			l2Normalize(vec)
		}
		return &Embedding{DocID: docID, Vector: vec, ModelName: cfg.ModelName, Tier: cfg.Tier, Dim: len(vec), Normalized: cfg.Normalize}, nil

	case cfg.Mode == "onnx":
		if deps.Runner == nil || !deps.Runner.Available() {
			// Missing/unreachable assets are not fatal: downgrade to stub.
			return stubResult(docID, text, cfg), nil
		}
		vec, err := runLocalInference(ctx, deps.Runner, text, cfg)
		if err != nil {
			if cferrors.Recoverable(err) {
				return stubResult(docID, text, cfg), nil
			}
			return nil, err
		}
		return &Embedding{DocID: docID, Vector: vec, ModelName: cfg.ModelName, Tier: cfg.Tier, Dim: len(vec), Normalized: cfg.Normalize}, nil

	default:
		return nil, cferrors.New(stage, cferrors.InvalidConfig, "unknown mode: "+cfg.Mode)
	}
}

func stubResult(docID, text string, cfg Config) *Embedding {
	dim := cfg.EmbeddingDim
	if dim <= 0 {
		dim = 384
	}
	vec := stubEmbedding(docID, text, dim, cfg.Normalize)
	return &Embedding{DocID: docID, Vector: vec, ModelName: "stub", Tier: "fast", Dim: dim, Normalized: cfg.Normalize}
}

// SemanticizeBatch embeds each item; output order equals input order.
// Errors for individual items are collected and returned alongside
// whatever embeddings succeeded, at the same index (nil for a failed item).
func SemanticizeBatch(ctx context.Context, items []Item, cfg Config, deps Deps) ([]*Embedding, []error) {
	out := make([]*Embedding, len(items))
	errs := make([]error, len(items))
	for i, item := range items {
		emb, err := Semanticize(ctx, item.DocID, item.Text, cfg, deps)
		out[i] = emb
		errs[i] = err
	}
	return out, errs
}
