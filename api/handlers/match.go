package handlers

import (
	"encoding/hex"
	"net/http"
	"time"

	"contentfp/api/middleware"
	"contentfp/canonical"
	"contentfp/index"
	"contentfp/match"
	"contentfp/observability"
	"contentfp/perceptual"
	"contentfp/semantic"

	"github.com/gin-gonic/gin"
)

// MatchHandler runs C6 against a query strategy submitted over HTTP.
type MatchHandler struct {
	backend       index.Backend
	defaults      match.Config
	canonicalCfg  canonical.Config
	perceptualCfg perceptual.Config
	semanticCfg   semantic.Config
	sink          observability.Sink
}

// NewMatchHandler wires in the per-request defaults (applied whenever a
// request omits the corresponding field) and the C2-C4 configs needed to
// derive query signals from free-text queries.
func NewMatchHandler(backend index.Backend, defaults match.Config, canonicalCfg canonical.Config, perceptualCfg perceptual.Config, semanticCfg semantic.Config, sink observability.Sink) *MatchHandler {
	return &MatchHandler{
		backend:       backend,
		defaults:      defaults,
		canonicalCfg:  canonicalCfg,
		perceptualCfg: perceptualCfg,
		semanticCfg:   semanticCfg,
		sink:          sink,
	}
}

type strategyBody struct {
	Kind           string        `json:"kind"`
	Metric         string        `json:"metric"`
	MinScore       float64       `json:"min_score"`
	SemanticWeight float64       `json:"semantic_weight"`
	MinOverall     float64       `json:"min_overall"`
	Left           *strategyBody `json:"left"`
	Right          *strategyBody `json:"right"`
}

func (s *strategyBody) toExpr() (*match.Expr, error) {
	if s == nil {
		return nil, nil
	}
	switch s.Kind {
	case "exact":
		return match.Exact(), nil
	case "semantic":
		return match.Semantic(s.Metric, s.MinScore), nil
	case "perceptual":
		return match.Perceptual(s.Metric, s.MinScore), nil
	case "weighted":
		return match.Weighted(s.SemanticWeight, s.MinOverall), nil
	case "and":
		l, err := s.Left.toExpr()
		if err != nil {
			return nil, err
		}
		r, err := s.Right.toExpr()
		if err != nil {
			return nil, err
		}
		return match.And(l, r), nil
	case "or":
		l, err := s.Left.toExpr()
		if err != nil {
			return nil, err
		}
		r, err := s.Right.toExpr()
		if err != nil {
			return nil, err
		}
		return match.Or(l, r), nil
	default:
		return nil, cferrorsInvalidStrategy(s.Kind)
	}
}

type matchBody struct {
	QueryText     string       `json:"query_text"`
	MaxResults    int          `json:"max_results"`
	Explain       *bool        `json:"explain"`
	OversampleFactor float64   `json:"oversample_factor"`
	Strategy      strategyBody `json:"strategy"`
}

type matchHit struct {
	DocID         string  `json:"doc_id"`
	CanonicalHash string  `json:"canonical_hash"`
	Score         float64 `json:"score"`
}

func (h *MatchHandler) Handle(c *gin.Context) {
	start := time.Now()
	tenant := middleware.Tenant(c)

	var body matchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	strategy, err := body.Strategy.toExpr()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	maxResults := body.MaxResults
	if maxResults <= 0 {
		maxResults = h.defaults.MaxResults
	}
	oversample := body.OversampleFactor
	if oversample <= 0 {
		oversample = h.defaults.OversampleFactor
	}
	explain := h.defaults.Explain
	if body.Explain != nil {
		explain = *body.Explain
	}

	req := match.Request{
		TenantID:  tenant,
		QueryText: body.QueryText,
		Config: match.Config{
			Mode:             h.defaults.Mode,
			Strategy:         strategy,
			MaxResults:       maxResults,
			TenantEnforce:    h.defaults.TenantEnforce,
			OversampleFactor: oversample,
			Explain:          explain,
			PolicyID:         h.defaults.PolicyID,
			PolicyVersion:    h.defaults.PolicyVersion,
		},
	}

	deps := match.Deps{
		Backend:          h.backend,
		CanonicalConfig:  h.canonicalCfg,
		PerceptualConfig: h.perceptualCfg,
		SemanticConfig:   h.semanticCfg,
	}

	hits, err := match.MatchDocument(c.Request.Context(), req, deps)
	if err != nil {
		h.sink.Emit(observability.Err("match", tenant, "", time.Since(start), errorKindOf(err)))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out := make([]matchHit, 0, len(hits))
	for _, hit := range hits {
		out = append(out, matchHit{
			DocID:         hit.DocID,
			CanonicalHash: hex.EncodeToString(hit.CanonicalHash),
			Score:         hit.Score,
		})
	}

	h.sink.Emit(observability.Ok("match", tenant, "", "", time.Since(start)))
	c.JSON(http.StatusOK, gin.H{"hits": out})
}
