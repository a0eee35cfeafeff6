package semantic

// PoolingStrategy selects how per-chunk vectors are combined into one
// document-level embedding.
type PoolingStrategy string

const (
	PoolMean         PoolingStrategy = "mean"
	PoolWeightedMean PoolingStrategy = "weighted_mean"
	PoolMax          PoolingStrategy = "max"
	PoolFirst        PoolingStrategy = "first"
)

// pool combines chunk vectors (all same length) per strategy.
func pool(chunks [][]float32, strategy PoolingStrategy) []float32 {
	if len(chunks) == 0 {
		return nil
	}
	if len(chunks) == 1 || strategy == PoolFirst {
		out := make([]float32, len(chunks[0]))
		copy(out, chunks[0])
		return out
	}

	dim := len(chunks[0])
	out := make([]float32, dim)

	switch strategy {
	case PoolMax:
		copy(out, chunks[0])
		for _, c := range chunks[1:] {
			for i, v := range c {
				if v > out[i] {
					out[i] = v
				}
			}
		}
		return out

	case PoolWeightedMean:
		n := len(chunks)
		weights := make([]float64, n)
		center := float64(n-1) / 2.0
		var total float64
		for i := range weights {
			// Triangular weight centered at (N-1)/2: peaks at the middle
			// chunk, falls off linearly toward the ends.
			w := 1.0 - (absFloat(float64(i)-center) / (center + 1))
			if w < 0 {
				w = 0
			}
			weights[i] = w
			total += w
		}
		if total == 0 {
			total = 1
		}
		for i, c := range chunks {
			weight := weights[i] / total
			for j, v := range c {
				out[j] += float32(weight) * v
			}
		}
		return out

	default: // PoolMean
		for _, c := range chunks {
			for i, v := range c {
				out[i] += v
			}
		}
		n := float32(len(chunks))
		for i := range out {
			out[i] /= n
		}
		return out
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
