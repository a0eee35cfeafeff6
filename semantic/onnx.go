package semantic

import (
	"context"

	cferrors "contentfp/errors"
)

// TokenizedInput is the tensor triple a tokenizer produces for model input.
type TokenizedInput struct {
	InputIDs      []int64
	AttentionMask []int64
	TokenTypeIDs  []int64 // optional, may be nil
}

// OnnxRunner is the external collaborator contract for local ONNX
// inference. No ONNX runtime binding is vendored in this module; callers
// supply an implementation backed by whatever runtime they embed.
type OnnxRunner interface {
	// Tokenize splits text into model-ready tensors.
	Tokenize(ctx context.Context, text string) (TokenizedInput, error)
	// Run executes the model over a single tokenized window, returning the
	// first output tensor as a flat embedding vector.
	Run(ctx context.Context, input TokenizedInput) ([]float32, error)
	// Available reports whether model/tokenizer assets are resolved and
	// loadable. When false, callers downgrade to the stub rather than fail.
	Available() bool
}

// runLocalInference implements the §4.4 local inference path: tokenize,
// chunk if needed, embed each chunk, pool, and optionally L2-normalize.
func runLocalInference(ctx context.Context, runner OnnxRunner, text string, cfg Config) ([]float32, error) {
	if !runner.Available() {
		return nil, cferrors.New("semantic", cferrors.ModelNotFound, "onnx model/tokenizer assets unavailable")
	}

	tokenized, err := runner.Tokenize(ctx, text)
	if err != nil {
		return nil, cferrors.Wrap("semantic", cferrors.Inference, "tokenize failed", err)
	}

	tokenCount := len(tokenized.InputIDs)
	if tokenCount <= cfg.MaxSequenceLength || !cfg.EnableChunking {
		vec, err := runner.Run(ctx, tokenized)
		if err != nil {
			return nil, cferrors.Wrap("semantic", cferrors.Inference, "model run failed", err)
		}
		if cfg.Normalize {
			l2Normalize(vec)
		}
		return vec, nil
	}

	overlap := int(float64(cfg.MaxSequenceLength) * cfg.ChunkOverlapRatio)
	windows := chunkWindows(tokenized, cfg.MaxSequenceLength, overlap)

	chunkVecs := make([][]float32, 0, len(windows))
	for _, w := range windows {
		vec, err := runner.Run(ctx, w)
		if err != nil {
			return nil, cferrors.Wrap("semantic", cferrors.Inference, "model run failed on chunk", err)
		}
		chunkVecs = append(chunkVecs, vec)
	}

	pooled := pool(chunkVecs, PoolingStrategy(cfg.PoolingStrategy))
	if cfg.Normalize {
		l2Normalize(pooled)
	}
	return pooled, nil
}

// chunkWindows splits a tokenized input into overlapping windows of size
// maxLen with the given token overlap between consecutive windows.
func chunkWindows(input TokenizedInput, maxLen, overlap int) []TokenizedInput {
	if maxLen <= 0 {
		return []TokenizedInput{input}
	}
	stride := maxLen - overlap
	if stride < 1 {
		stride = maxLen
	}

	n := len(input.InputIDs)
	var windows []TokenizedInput
	for start := 0; start < n; start += stride {
		end := start + maxLen
		if end > n {
			end = n
		}
		w := TokenizedInput{
			InputIDs:      input.InputIDs[start:end],
			AttentionMask: input.AttentionMask[start:end],
		}
		if input.TokenTypeIDs != nil {
			w.TokenTypeIDs = input.TokenTypeIDs[start:end]
		}
		windows = append(windows, w)
		if end == n {
			break
		}
	}
	return windows
}
