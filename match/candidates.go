package match

import (
	"context"
	"math"
	"sort"

	"contentfp/index"
)

// signalScore is one primitive lookup's result for a single candidate.
type signalScore struct {
	docID         string
	canonicalHash []byte
	metadataJSON  []byte
	score         float64
}

// fetchExact returns at most one hit: the candidate whose canonical hash
// equals queryHash exactly, score 1.0.
func fetchExact(ctx context.Context, backend index.Backend, tenantID string, queryHash []byte) ([]signalScore, error) {
	var out []signalScore
	err := backend.Scan(ctx, tenantID, func(e index.Entry) bool {
		if bytesEqual(e.CanonicalHash, queryHash) {
			out = append(out, signalScore{docID: e.DocID, canonicalHash: e.CanonicalHash, metadataJSON: e.MetadataJSON, score: 1.0})
			return false
		}
		return true
	})
	return out, err
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// fetchSemantic scores the backend's nearest-by-embedding candidates in
// tenantID by cosine similarity against queryVector, keeping the top
// internalTopK. The candidate set itself comes from the backend's ANN path
// (index/hnsw for InMemory, pgvector's ivfflat index for Postgres), which
// falls back to an exhaustive scan under each backend's own threshold;
// cosine similarity is recomputed here from the dequantized embedding so
// ranking stays exact regardless of how the candidate set was produced.
func fetchSemantic(ctx context.Context, backend index.Backend, tenantID string, queryVector []float32, internalTopK int) ([]signalScore, error) {
	candidates, err := backend.NearestByEmbedding(ctx, tenantID, queryVector, internalTopK)
	if err != nil {
		return nil, err
	}
	out := make([]signalScore, 0, len(candidates))
	for _, e := range candidates {
		if len(e.Embedding) == 0 {
			continue
		}
		scale := e.Scale
		if scale == 0 {
			scale = index.DefaultQuantizeScale
		}
		vec := index.Dequantize(e.Embedding, scale)
		out = append(out, signalScore{
			docID: e.DocID, canonicalHash: e.CanonicalHash, metadataJSON: e.MetadataJSON,
			score: cosineSimilarity(queryVector, vec),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].score > out[j].score })
	if len(out) > internalTopK {
		out = out[:internalTopK]
	}
	return out, nil
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// fetchPerceptual scores every candidate by the fraction of MinHash slots
// that agree with querySignature, keeping the top internalTopK. minHashOverlap
// compares the two signatures in place, so scoring a candidate allocates
// nothing beyond its result entry.
func fetchPerceptual(ctx context.Context, backend index.Backend, tenantID string, querySignature []uint64, internalTopK int) ([]signalScore, error) {
	var out []signalScore
	err := backend.Scan(ctx, tenantID, func(e index.Entry) bool {
		if len(e.Signature) == 0 {
			return true
		}
		out = append(out, signalScore{
			docID: e.DocID, canonicalHash: e.CanonicalHash, metadataJSON: e.MetadataJSON,
			score: minHashOverlap(querySignature, e.Signature),
		})
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].score > out[j].score })
	if len(out) > internalTopK {
		out = out[:internalTopK]
	}
	return out, nil
}

func minHashOverlap(a, b []uint64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	matches := 0
	for i := 0; i < n; i++ {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(n)
}
