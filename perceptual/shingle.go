package perceptual

// Token is the minimal shape this package needs from a canonicalized token:
// its text bytes. Callers pass canonical.Token.Text through.
type Token struct {
	Text string
}

// Shingle computes the rolling-hash k-shingle sequence for tokens, per
// the base=131, modulus=2^61-1 scheme.
func Shingle(tokens []Token, k int, seed uint64) []uint64 {
	n := len(tokens)
	if n < k {
		return nil
	}

	const base uint64 = 131
	hashes := make([]uint64, n)
	for i, tok := range tokens {
		hashes[i] = tokenHash(seed, []byte(tok.Text))
	}

	baseKMinus1 := modPow(base, k-1)

	out := make([]uint64, n-k+1)
	var cur uint64
	for j := 0; j < k; j++ {
		term := mulMod(modPow(base, k-1-j), hashes[j])
		cur = addMod(cur, term)
	}
	out[0] = cur

	for i := 1; i <= n-k; i++ {
		leaving := mulMod(hashes[i-1], baseKMinus1)
		cur = subMod(cur, leaving)
		cur = mulMod(cur, base)
		cur = addMod(cur, hashes[i+k-1])
		out[i] = cur
	}

	return out
}
