package perceptual

import (
	"math"
	"testing"
)

func tokensOf(words ...string) []Token {
	out := make([]Token, len(words))
	for i, w := range words {
		out[i] = Token{Text: w}
	}
	return out
}

func TestNotEnoughTokens(t *testing.T) {
	_, err := Perceptualize(tokensOf("a", "b"), Config{Version: 1, K: 3, W: 2, Bands: 2, RowsPerBand: 2, Seed: 1})
	if err == nil {
		t.Fatalf("expected NotEnoughTokens error")
	}
}

func TestSignatureLength(t *testing.T) {
	fp, err := Perceptualize(tokensOf("a", "b", "c", "d", "e"), Config{Version: 1, K: 2, W: 2, Bands: 4, RowsPerBand: 2, Seed: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fp.Signature) != 8 {
		t.Fatalf("expected signature length 8, got %d", len(fp.Signature))
	}
}

func TestMinHashStabilityAcrossParallelFlag(t *testing.T) {
	toks := tokensOf("a", "b", "c", "d", "e", "f", "g", "h", "i", "j")
	cfgSeq := Config{Version: 1, K: 3, W: 2, Bands: 4, RowsPerBand: 2, Seed: 42, UseParallel: false}
	cfgPar := cfgSeq
	cfgPar.UseParallel = true

	seq, err := Perceptualize(toks, cfgSeq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	par, err := Perceptualize(toks, cfgPar)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seq.Signature) != 8 || len(par.Signature) != 8 {
		t.Fatalf("expected 8-slot signatures")
	}
	for i := range seq.Signature {
		if seq.Signature[i] != par.Signature[i] {
			t.Fatalf("slot %d differs: sequential=%d parallel=%d", i, seq.Signature[i], par.Signature[i])
		}
	}
}

func TestWinnowingTieBreak(t *testing.T) {
	shingles := []uint64{5, 5, 5, 5}
	out := Winnow(shingles, 2)
	want := []int{1, 2, 3}
	if len(out) != len(want) {
		t.Fatalf("expected %d winnowed entries, got %d", len(want), len(out))
	}
	for i, w := range want {
		if out[i].StartIndex != w {
			t.Fatalf("entry %d: expected start_index %d, got %d", i, w, out[i].StartIndex)
		}
	}
}

func TestWinnowWiderThanShinglesEmitsOne(t *testing.T) {
	shingles := []uint64{9, 3, 7}
	out := Winnow(shingles, 10)
	if len(out) != 1 {
		t.Fatalf("expected exactly one winnowed entry, got %d", len(out))
	}
	if out[0].StartIndex != 1 || out[0].Hash != 3 {
		t.Fatalf("expected rightmost-ish minimum at index 1 value 3, got %+v", out[0])
	}
}

func TestEmptyWinnowedSetAllMax(t *testing.T) {
	sig := MinHashSignature(nil, 2, 2, 1, false)
	for i, v := range sig {
		if v != math.MaxUint64 {
			t.Fatalf("slot %d expected MaxUint64, got %d", i, v)
		}
	}
}

func TestShingleRollingMatchesDirect(t *testing.T) {
	toks := tokensOf("alpha", "beta", "gamma", "delta", "epsilon")
	k := 3
	seed := uint64(99)
	rolled := Shingle(toks, k, seed)

	hashes := make([]uint64, len(toks))
	for i, tok := range toks {
		hashes[i] = tokenHash(seed, []byte(tok.Text))
	}
	const base uint64 = 131
	for i := 0; i <= len(toks)-k; i++ {
		var direct uint64
		for j := 0; j < k; j++ {
			term := mulMod(modPow(base, k-1-j), hashes[i+j])
			direct = addMod(direct, term)
		}
		if direct != rolled[i] {
			t.Fatalf("shingle %d: direct=%d rolled=%d", i, direct, rolled[i])
		}
	}
}
