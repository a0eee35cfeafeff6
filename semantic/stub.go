package semantic

import (
	"hash/fnv"
	"math"

	"contentfp/splitmix"
)

// stubSeed derives the SplitMix64 seed for the deterministic stub embedding
// from doc_id and text: FNV-1a 64-bit of their concatenation. FNV rather
// than a full SHA-256 digest string because SplitMix64 wants a 64-bit seed
// directly, not a hex string to re-parse.
func stubSeed(docID, text string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(docID))
	h.Write([]byte{0x00})
	h.Write([]byte(text))
	return h.Sum64()
}

// stubEmbedding produces a deterministic vector of length dim from
// SplitMix64 seeded by hash(doc_id || text), optionally L2-normalized.
func stubEmbedding(docID, text string, dim int, normalize bool) []float32 {
	gen := splitmix.New(stubSeed(docID, text))
	vec := make([]float32, dim)
	for i := range vec {
		// Map the uniform [0,1) draw into [-1, 1) so the stub resembles a
		// typical trained embedding's value range rather than all-positive.
		vec[i] = float32(gen.Float64()*2 - 1)
	}
	if normalize {
		l2Normalize(vec)
	}
	return vec
}

func l2Normalize(vec []float32) {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	norm := math.Sqrt(sumSq)
	const eps = 1e-9
	if norm < eps {
		return
	}
	for i, v := range vec {
		vec[i] = float32(float64(v) / norm)
	}
}
