package perceptual

import (
	"encoding/binary"
	"math/bits"

	"github.com/cespare/xxhash/v2"
)

// primeM is the Mersenne prime 2^61 - 1 used both for shingle-hash folding
// and as the MinHash modulus p (reused rather than introducing a second
// constant, per the compatibility note this package documents).
const primeM uint64 = (1 << 61) - 1

// tokenHash is the single deterministic per-token hash this implementation
// picks to satisfy the "source uses an unspecified FNV/rolling combination"
// open question: xxHash64 seeded by prefixing the seed's 8 little-endian
// bytes to the token bytes. Changing this constant changes every
// fingerprint this package produces; it is not a correctness bug, it is a
// compatibility-affecting choice, and must stay fixed once adopted.
func tokenHash(seed uint64, tokenBytes []byte) uint64 {
	var seedBuf [8]byte
	binary.LittleEndian.PutUint64(seedBuf[:], seed)
	d := xxhash.New()
	d.Write(seedBuf[:])
	d.Write(tokenBytes)
	return d.Sum64()
}

// addMod computes (a+b) mod primeM for arbitrary uint64 a, b; both operands
// are reduced first, so the sum stays below 2^62 and cannot overflow.
func addMod(a, b uint64) uint64 {
	a %= primeM
	b %= primeM
	s := a + b
	if s >= primeM {
		s -= primeM
	}
	return s
}

func subMod(a, b uint64) uint64 {
	d, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		d, _ = bits.Add64(d, primeM, 0)
	}
	return d
}

// mulMod computes a*b mod primeM for arbitrary uint64 a, b (not just values
// already reduced below primeM), folding the 128-bit product using the
// identity 2^64 ≡ 8 (mod 2^61-1).
func mulMod(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	for hi != 0 {
		hi2, lo2 := bits.Mul64(hi, 8)
		var carry uint64
		lo, carry = bits.Add64(lo, lo2, 0)
		hi = hi2 + carry
	}
	return lo % primeM
}

// modPow computes base^exp mod primeM.
func modPow(base uint64, exp int) uint64 {
	result := uint64(1)
	base %= primeM
	for exp > 0 {
		if exp&1 == 1 {
			result = mulMod(result, base)
		}
		base = mulMod(base, base)
		exp >>= 1
	}
	return result
}
