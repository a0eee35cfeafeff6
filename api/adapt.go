package api

import (
	"strconv"

	"contentfp/canonical"
	"contentfp/config"
	"contentfp/ingest"
	"contentfp/match"
	"contentfp/perceptual"
	"contentfp/semantic"

	"github.com/google/uuid"
)

// pipelineConfig bundles the domain-package config types every handler
// needs, adapted once from the viper-backed config.Config at startup.
// config.Config deliberately has no dependency on the domain packages
// (it's unmarshaled directly by viper), so this is the one place the two
// shapes are reconciled.
type pipelineConfig struct {
	Ingest     ingest.Config
	Canonical  canonical.Config
	Perceptual perceptual.Config
	Semantic   semantic.Config
	Matcher    match.Config
	Quantization float64
}

func adaptConfig(cfg *config.Config) pipelineConfig {
	namespace, err := uuid.Parse(cfg.Ingest.DocIDNamespace)
	if err != nil {
		namespace = uuid.NameSpaceOID
	}

	return pipelineConfig{
		Ingest: ingest.Config{
			Version:                cfg.Ingest.Version,
			DefaultTenantID:        cfg.Ingest.DefaultTenantID,
			DocIDNamespace:         namespace,
			StripControlChars:      cfg.Ingest.StripControlChars,
			RequiredFields:         cfg.Ingest.RequiredFields,
			MaxAttributeBytes:      cfg.Ingest.MaxAttributeBytes,
			RejectFutureTimestamps: cfg.Ingest.RejectFutureTimestamps,
			MaxPayloadBytes:        cfg.Ingest.MaxPayloadBytes,
			MaxNormalizedBytes:     cfg.Ingest.MaxNormalizedBytes,
		},
		Canonical: canonical.Config{
			Version:          cfg.Canonical.Version,
			NormalizeUnicode: cfg.Canonical.NormalizeUnicode,
			StripPunctuation: cfg.Canonical.StripPunctuation,
			Lowercase:        cfg.Canonical.Lowercase,
		},
		Perceptual: perceptual.Config{
			Version:              cfg.Perceptual.Version,
			K:                    cfg.Perceptual.K,
			W:                    cfg.Perceptual.W,
			Bands:                cfg.Perceptual.Bands,
			RowsPerBand:          cfg.Perceptual.RowsPerBand,
			Seed:                 cfg.Perceptual.Seed,
			UseParallel:          cfg.Perceptual.UseParallel,
			IncludeIntermediates: cfg.Perceptual.IncludeIntermediates,
		},
		Semantic: semantic.Config{
			Tier:              cfg.Semantic.Tier,
			Mode:              cfg.Semantic.Mode,
			ModelName:         cfg.Semantic.ModelName,
			ModelPath:         cfg.Semantic.ModelPath,
			TokenizerPath:     cfg.Semantic.TokenizerPath,
			APIURL:            cfg.Semantic.APIURL,
			APIAuthHeader:     cfg.Semantic.APIAuthHeader,
			APIProvider:       cfg.Semantic.APIProvider,
			Normalize:         cfg.Semantic.Normalize,
			EmbeddingDim:      cfg.Semantic.EmbeddingDim,
			MaxSequenceLength: cfg.Semantic.MaxSequenceLength,
			EnableChunking:    cfg.Semantic.EnableChunking,
			ChunkOverlapRatio: cfg.Semantic.ChunkOverlapRatio,
			PoolingStrategy:   cfg.Semantic.PoolingStrategy,
			TokenSoftLimit:    cfg.Semantic.TokenSoftLimit,
			TokenTarget:       cfg.Semantic.TokenTarget,
		},
		Matcher: match.Config{
			Mode:             cfg.Matcher.Mode,
			MaxResults:       cfg.Matcher.MaxResults,
			TenantEnforce:    cfg.Matcher.TenantEnforce,
			OversampleFactor: cfg.Matcher.OversampleFactor,
			Explain:          cfg.Matcher.Explain,
			PolicyID:         cfg.Matcher.PolicyID,
			PolicyVersion:    strconv.Itoa(cfg.Matcher.PolicyVersion),
		},
		Quantization: cfg.Index.QuantizationScale,
	}
}
