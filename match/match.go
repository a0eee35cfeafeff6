package match

import (
	"context"
	"encoding/hex"
	"math"
	"sort"

	"contentfp/canonical"
	cferrors "contentfp/errors"
	"contentfp/index"
	"contentfp/perceptual"
	"contentfp/semantic"
)

// Request is the C6 input.
type Request struct {
	TenantID      string
	QueryText     string
	CanonicalHash []byte // optional: skips C1+C2 when already known
	Config        Config
}

// Config is MatchConfig: coarse mode (for metrics only), the strategy
// expression, result shaping, and tenant/explain policy.
type Config struct {
	Mode            string
	Strategy        *Expr
	MaxResults      int
	TenantEnforce   bool
	OversampleFactor float64
	Explain         bool
	PolicyID        string
	PolicyVersion   string
}

// Explanation is the optional per-hit breakdown.
type Explanation struct {
	SemanticScore   float64
	HasSemantic     bool
	PerceptualScore float64
	HasPerceptual   bool
}

// Hit is one ranked result.
type Hit struct {
	DocID         string
	CanonicalHash []byte
	MetadataJSON  []byte
	Score         float64
	Explain       *Explanation
}

// Deps are the collaborators MatchDocument needs to run C1-C4 when the
// request doesn't supply a precomputed canonical hash.
type Deps struct {
	Backend          index.Backend
	Normalizer       queryNormalizeFunc
	CanonicalConfig  canonical.Config
	PerceptualConfig perceptual.Config
	SemanticConfig   semantic.Config
	SemanticDeps     semantic.Deps
}

// queryNormalizeFunc lets callers plug in their own C1 step (tenant
// resolution, control-char stripping) ahead of C2; MatchDocument only
// needs the resulting normalized text, not a full ingest record.
type queryNormalizeFunc func(text string) (string, error)

// MatchDocument runs the C6 pipeline for one query.
func MatchDocument(ctx context.Context, req Request, deps Deps) ([]Hit, error) {
	if err := Validate(req.Config.Strategy); err != nil {
		return nil, err
	}
	if req.Config.MaxResults <= 0 {
		return nil, cferrors.New(stage, cferrors.InvalidConfig, "max_results must be > 0")
	}
	oversample := req.Config.OversampleFactor
	if oversample < 1.0 {
		oversample = 1.0
	}
	internalTopK := int(math.Ceil(float64(req.Config.MaxResults) * oversample))

	queryHash := req.CanonicalHash
	var queryTokens []perceptual.Token
	normalizedText := req.QueryText
	if deps.Normalizer != nil {
		normalized, err := deps.Normalizer(req.QueryText)
		if err != nil {
			return nil, err
		}
		normalizedText = normalized
	}

	if len(queryHash) == 0 || usesSemantic(req.Config.Strategy) || usesPerceptual(req.Config.Strategy) {
		cfg := deps.CanonicalConfig
		if cfg.Version == 0 {
			cfg.Version = 1
		}
		doc, err := canonical.Canonicalize("query", normalizedText, cfg)
		if err != nil {
			return nil, err
		}
		if len(queryHash) == 0 {
			decoded, err := hex.DecodeString(doc.IdentityHash)
			if err != nil {
				return nil, cferrors.Wrap(stage, cferrors.Decode, "decode canonical identity hash", err)
			}
			queryHash = decoded
		}
		for _, tok := range doc.Tokens {
			queryTokens = append(queryTokens, perceptual.Token{Text: tok.Text})
		}
	}

	var queryVector []float32
	if usesSemantic(req.Config.Strategy) {
		emb, err := semantic.Semanticize(ctx, "query", normalizedText, deps.SemanticConfig, deps.SemanticDeps)
		if err != nil {
			return nil, err
		}
		queryVector = emb.Vector
	}

	var querySignature []uint64
	if usesPerceptual(req.Config.Strategy) {
		pcfg := deps.PerceptualConfig
		if pcfg.Version == 0 {
			pcfg.Version = 1
		}
		fp, err := perceptual.Perceptualize(queryTokens, pcfg)
		if err != nil {
			return nil, err
		}
		querySignature = fp.Signature
	}

	exactMap := make(map[string]signalScore)
	if usesExact(req.Config.Strategy) {
		exactHits, err := fetchExact(ctx, deps.Backend, req.TenantID, queryHash)
		if err != nil {
			return nil, err
		}
		for _, h := range exactHits {
			exactMap[h.docID] = h
		}
	}

	semanticMap := make(map[string]signalScore)
	if usesSemantic(req.Config.Strategy) {
		hits, err := fetchSemantic(ctx, deps.Backend, req.TenantID, queryVector, internalTopK)
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			semanticMap[h.docID] = h
		}
	}

	perceptualMap := make(map[string]signalScore)
	if usesPerceptual(req.Config.Strategy) {
		hits, err := fetchPerceptual(ctx, deps.Backend, req.TenantID, querySignature, internalTopK)
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			perceptualMap[h.docID] = h
		}
	}

	scored := eval(req.Config.Strategy, exactMap, semanticMap, perceptualMap)

	if req.Config.TenantEnforce {
		for id, h := range scored {
			if !metadataTenantMatches(h.metadataJSON, req.TenantID) {
				delete(scored, id)
			}
		}
	}

	hits := make([]Hit, 0, len(scored))
	for id, h := range scored {
		hit := Hit{DocID: id, CanonicalHash: h.canonicalHash, MetadataJSON: h.metadataJSON, Score: h.score}
		if req.Config.Explain {
			hit.Explain = &Explanation{
				SemanticScore: h.semanticScore, HasSemantic: h.hasSemantic,
				PerceptualScore: h.perceptualScore, HasPerceptual: h.hasPerceptual,
			}
		}
		hits = append(hits, hit)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return lexLess(hits[i].CanonicalHash, hits[j].CanonicalHash)
	})

	if len(hits) > req.Config.MaxResults {
		hits = hits[:req.Config.MaxResults]
	}
	return hits, nil
}

func lexLess(a, b []byte) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
