package perceptual

// Winnowed is a (hash, start_index) pair emitted by the winnowing pass.
type Winnowed struct {
	Hash       uint64
	StartIndex int
}

// Winnow slides a window of width w across shingles and keeps, per window,
// the rightmost minimum. A monotonic deque (slice-backed, not
// container/list — no need to pay node-allocation overhead for a
// fixed-capacity sliding window) tracks candidate minima in O(n) total.
func Winnow(shingles []uint64, w int) []Winnowed {
	n := len(shingles)
	if n == 0 {
		return nil
	}
	if n <= w {
		best := 0
		for i := 1; i < n; i++ {
			if shingles[i] <= shingles[best] {
				best = i
			}
		}
		return []Winnowed{{Hash: shingles[best], StartIndex: best}}
	}

	deque := make([]int, 0, w)
	var out []Winnowed
	lastEmitted := -1

	for i := 0; i < n; i++ {
		for len(deque) > 0 && shingles[deque[len(deque)-1]] >= shingles[i] {
			deque = deque[:len(deque)-1]
		}
		deque = append(deque, i)
		for deque[0] <= i-w {
			deque = deque[1:]
		}
		if i >= w-1 {
			front := deque[0]
			if front != lastEmitted {
				out = append(out, Winnowed{Hash: shingles[front], StartIndex: front})
				lastEmitted = front
			}
		}
	}
	return out
}
