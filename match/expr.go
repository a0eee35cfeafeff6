// Package match implements C6: the strategy algebra and the
// match_document orchestrator that runs C1-C4 on demand, fetches
// candidates from C5, combines per-signal scores, and ranks hits.
package match

import cferrors "contentfp/errors"

const stage = "match"

// ExprKind tags which variant of the strategy algebra an Expr node is.
type ExprKind int

const (
	ExprExact ExprKind = iota
	ExprSemantic
	ExprPerceptual
	ExprWeighted
	ExprAnd
	ExprOr
)

// Expr is the tagged-variant strategy tree:
//
//	MatchExpr = Exact | Semantic{metric,min_score} | Perceptual{metric,min_score}
//	          | Weighted{alpha,min_overall} | And(L,R) | Or(L,R)
type Expr struct {
	Kind ExprKind

	Metric   string
	MinScore float64

	SemanticWeight float64
	MinOverall     float64

	Left  *Expr
	Right *Expr
}

// Exact builds the Exact primitive.
func Exact() *Expr { return &Expr{Kind: ExprExact} }

// Semantic builds a Semantic primitive.
func Semantic(metric string, minScore float64) *Expr {
	return &Expr{Kind: ExprSemantic, Metric: metric, MinScore: minScore}
}

// Perceptual builds a Perceptual primitive.
func Perceptual(metric string, minScore float64) *Expr {
	return &Expr{Kind: ExprPerceptual, Metric: metric, MinScore: minScore}
}

// Weighted builds a Weighted combinator: score = alpha*semantic + (1-alpha)*perceptual.
func Weighted(alpha, minOverall float64) *Expr {
	return &Expr{Kind: ExprWeighted, SemanticWeight: alpha, MinOverall: minOverall}
}

// And intersects l and r's candidate sets, combined score = min(scoreL, scoreR).
func And(l, r *Expr) *Expr { return &Expr{Kind: ExprAnd, Left: l, Right: r} }

// Or unions l and r's candidate sets, combined score = max(scoreL, scoreR).
func Or(l, r *Expr) *Expr { return &Expr{Kind: ExprOr, Left: l, Right: r} }

// Validate checks the weight/score ranges the algebra requires.
func Validate(e *Expr) error {
	if e == nil {
		return cferrors.New(stage, cferrors.InvalidConfig, "strategy expression is nil")
	}
	switch e.Kind {
	case ExprExact:
		return nil
	case ExprSemantic, ExprPerceptual:
		if e.MinScore < -1 || e.MinScore > 1 {
			return cferrors.New(stage, cferrors.InvalidConfig, "min_score must be in [-1, 1]")
		}
		return nil
	case ExprWeighted:
		if e.SemanticWeight < 0 || e.SemanticWeight > 1 {
			return cferrors.New(stage, cferrors.InvalidConfig, "semantic_weight must be in [0, 1]")
		}
		return nil
	case ExprAnd, ExprOr:
		if err := Validate(e.Left); err != nil {
			return err
		}
		return Validate(e.Right)
	default:
		return cferrors.New(stage, cferrors.InvalidConfig, "unknown strategy expression kind")
	}
}

// usesSemantic reports whether e requires a C4 embedding of the query.
func usesSemantic(e *Expr) bool {
	switch e.Kind {
	case ExprSemantic, ExprWeighted:
		return true
	case ExprAnd, ExprOr:
		return usesSemantic(e.Left) || usesSemantic(e.Right)
	default:
		return false
	}
}

// usesExact reports whether e has an Exact node anywhere in the tree.
func usesExact(e *Expr) bool {
	switch e.Kind {
	case ExprExact:
		return true
	case ExprAnd, ExprOr:
		return usesExact(e.Left) || usesExact(e.Right)
	default:
		return false
	}
}

// usesPerceptual reports whether e requires a C3 fingerprint of the query.
func usesPerceptual(e *Expr) bool {
	switch e.Kind {
	case ExprPerceptual, ExprWeighted:
		return true
	case ExprAnd, ExprOr:
		return usesPerceptual(e.Left) || usesPerceptual(e.Right)
	default:
		return false
	}
}
