package perceptual

import (
	"math"
	"runtime"
	"sync"

	"contentfp/splitmix"
)

// coefficients derives m independent affine hash coefficient pairs (a_j, b_j)
// deterministically from seed via SplitMix64 expansion.
func coefficients(seed uint64, m int) (a, b []uint64) {
	gen := splitmix.New(seed)
	a = make([]uint64, m)
	b = make([]uint64, m)
	for j := 0; j < m; j++ {
		a[j] = gen.Next()
		b[j] = gen.Next()
	}
	return a, b
}

// uniqueHashes returns the distinct values among winnowed, preserving no
// particular order (MinHash is order-independent by construction).
func uniqueHashes(winnowed []Winnowed) []uint64 {
	seen := make(map[uint64]struct{}, len(winnowed))
	out := make([]uint64, 0, len(winnowed))
	for _, w := range winnowed {
		if _, ok := seen[w.Hash]; !ok {
			seen[w.Hash] = struct{}{}
			out = append(out, w.Hash)
		}
	}
	return out
}

// MinHashSignature computes the m = bands*rows_per_band slot signature over
// the unique winnowed shingle hashes. When parallel is true, slots are
// computed concurrently across a worker pool; the result is bit-identical
// to the sequential computation because each slot reads only the shared,
// read-only unique set and writes only its own output index.
func MinHashSignature(winnowed []Winnowed, bands, rowsPerBand int, seed uint64, parallel bool) []uint64 {
	m := bands * rowsPerBand
	sig := make([]uint64, m)
	if m == 0 {
		return sig
	}

	unique := uniqueHashes(winnowed)
	a, b := coefficients(seed, m)

	compute := func(j int) uint64 {
		if len(unique) == 0 {
			return math.MaxUint64
		}
		min := uint64(math.MaxUint64)
		for _, x := range unique {
			v := addMod(mulMod(a[j], x), b[j])
			if v < min {
				min = v
			}
		}
		return min
	}

	if !parallel || m == 1 {
		for j := 0; j < m; j++ {
			sig[j] = compute(j)
		}
		return sig
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > m {
		workers = m
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	chunk := (m + workers - 1) / workers
	for start := 0; start < m; start += chunk {
		end := start + chunk
		if end > m {
			end = m
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for j := start; j < end; j++ {
				sig[j] = compute(j)
			}
		}(start, end)
	}
	wg.Wait()
	return sig
}
