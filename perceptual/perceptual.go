// Package perceptual implements C3: rolling-hash k-shingling, winnowing,
// and MinHash LSH signature computation.
package perceptual

import (
	cferrors "contentfp/errors"
)

const stage = "perceptual"

// Config governs shingling, winnowing, and MinHash signature computation.
type Config struct {
	Version              int
	K                    int
	W                    int
	Bands                int
	RowsPerBand          int
	Seed                 uint64
	UseParallel          bool
	IncludeIntermediates bool
}

// Metadata carries the effective parameters a signature was produced under.
type Metadata struct {
	K                int
	W                int
	Bands            int
	RowsPerBand      int
	Seed             uint64
	SignatureLength  int
	ParallelFlag     bool
	ConfigVersion    int
}

// Fingerprint is the C3 output.
type Fingerprint struct {
	Shingles  []uint64 // optional, only when IncludeIntermediates
	Winnowed  []Winnowed // optional, only when IncludeIntermediates
	Signature []uint64
	Metadata  Metadata
}

// Perceptualize runs the C3 pipeline over tokens under cfg.
func Perceptualize(tokens []Token, cfg Config) (*Fingerprint, error) {
	if cfg.Version < 1 {
		return nil, cferrors.New(stage, cferrors.InvalidConfig, "version must be >= 1")
	}
	if cfg.K < 1 || cfg.W < 1 || cfg.Bands < 1 || cfg.RowsPerBand < 1 {
		return nil, cferrors.New(stage, cferrors.InvalidConfig, "k, w, bands, rows_per_band must all be >= 1")
	}
	if len(tokens) < cfg.K {
		return nil, cferrors.New(stage, cferrors.NotEnoughTokens, "fewer tokens than shingle size k")
	}

	shingles := Shingle(tokens, cfg.K, cfg.Seed)
	winnowed := Winnow(shingles, cfg.W)
	signature := MinHashSignature(winnowed, cfg.Bands, cfg.RowsPerBand, cfg.Seed, cfg.UseParallel)

	fp := &Fingerprint{
		Signature: signature,
		Metadata: Metadata{
			K:               cfg.K,
			W:               cfg.W,
			Bands:           cfg.Bands,
			RowsPerBand:     cfg.RowsPerBand,
			Seed:            cfg.Seed,
			SignatureLength: len(signature),
			ParallelFlag:    cfg.UseParallel,
			ConfigVersion:   cfg.Version,
		},
	}
	if cfg.IncludeIntermediates {
		fp.Shingles = shingles
		fp.Winnowed = winnowed
	}
	return fp, nil
}
