package match

// hitScore is one candidate's combined score plus the raw per-signal scores
// that produced it, used to build the explain payload.
type hitScore struct {
	canonicalHash   []byte
	metadataJSON    []byte
	score           float64
	semanticScore   float64
	hasSemantic     bool
	perceptualScore float64
	hasPerceptual   bool
}

// eval recursively evaluates e against the query's precomputed per-signal
// fetches, returning combined scores keyed by doc id. Each primitive's
// fetch runs once regardless of how many times it recurs in the tree,
// since the caller passes the same three maps down through every node.
func eval(e *Expr, exactSignals, semanticSignals, perceptualSignals map[string]signalScore) map[string]*hitScore {
	switch e.Kind {
	case ExprExact:
		out := make(map[string]*hitScore, len(exactSignals))
		for id, s := range exactSignals {
			out[id] = &hitScore{canonicalHash: s.canonicalHash, metadataJSON: s.metadataJSON, score: 1.0}
		}
		return out

	case ExprSemantic:
		out := make(map[string]*hitScore)
		for id, s := range semanticSignals {
			if s.score < e.MinScore {
				continue
			}
			out[id] = &hitScore{canonicalHash: s.canonicalHash, metadataJSON: s.metadataJSON, score: s.score, semanticScore: s.score, hasSemantic: true}
		}
		return out

	case ExprPerceptual:
		out := make(map[string]*hitScore)
		for id, s := range perceptualSignals {
			if s.score < e.MinScore {
				continue
			}
			out[id] = &hitScore{canonicalHash: s.canonicalHash, metadataJSON: s.metadataJSON, score: s.score, perceptualScore: s.score, hasPerceptual: true}
		}
		return out

	case ExprWeighted:
		out := make(map[string]*hitScore)
		seen := make(map[string]struct{}, len(semanticSignals)+len(perceptualSignals))
		for id := range semanticSignals {
			seen[id] = struct{}{}
		}
		for id := range perceptualSignals {
			seen[id] = struct{}{}
		}
		for id := range seen {
			sem, hasSem := semanticSignals[id]
			per, hasPer := perceptualSignals[id]
			var semScore, perScore float64
			if hasSem {
				semScore = sem.score
			}
			if hasPer {
				perScore = per.score
			}
			combined := e.SemanticWeight*semScore + (1-e.SemanticWeight)*perScore
			if combined < e.MinOverall {
				continue
			}
			hash := sem.canonicalHash
			meta := sem.metadataJSON
			if hash == nil {
				hash = per.canonicalHash
				meta = per.metadataJSON
			}
			out[id] = &hitScore{
				canonicalHash: hash, metadataJSON: meta, score: combined,
				semanticScore: semScore, hasSemantic: hasSem,
				perceptualScore: perScore, hasPerceptual: hasPer,
			}
		}
		return out

	case ExprAnd:
		l := eval(e.Left, exactSignals, semanticSignals, perceptualSignals)
		r := eval(e.Right, exactSignals, semanticSignals, perceptualSignals)
		out := make(map[string]*hitScore)
		for id, lh := range l {
			rh, ok := r[id]
			if !ok {
				continue
			}
			score := lh.score
			if rh.score < score {
				score = rh.score
			}
			out[id] = mergeHit(lh, rh, score)
		}
		return out

	case ExprOr:
		l := eval(e.Left, exactSignals, semanticSignals, perceptualSignals)
		r := eval(e.Right, exactSignals, semanticSignals, perceptualSignals)
		out := make(map[string]*hitScore, len(l)+len(r))
		for id, lh := range l {
			out[id] = lh
		}
		for id, rh := range r {
			if lh, ok := out[id]; ok {
				score := lh.score
				if rh.score > score {
					score = rh.score
				}
				out[id] = mergeHit(lh, rh, score)
			} else {
				out[id] = rh
			}
		}
		return out

	default:
		return nil
	}
}

func mergeHit(l, r *hitScore, score float64) *hitScore {
	h := &hitScore{score: score}
	if l.canonicalHash != nil {
		h.canonicalHash, h.metadataJSON = l.canonicalHash, l.metadataJSON
	} else {
		h.canonicalHash, h.metadataJSON = r.canonicalHash, r.metadataJSON
	}
	if l.hasSemantic {
		h.semanticScore, h.hasSemantic = l.semanticScore, true
	} else if r.hasSemantic {
		h.semanticScore, h.hasSemantic = r.semanticScore, true
	}
	if l.hasPerceptual {
		h.perceptualScore, h.hasPerceptual = l.perceptualScore, true
	} else if r.hasPerceptual {
		h.perceptualScore, h.hasPerceptual = r.perceptualScore, true
	}
	return h
}
