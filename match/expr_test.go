package match

import "testing"

func TestValidateRejectsOutOfRangeMinScore(t *testing.T) {
	if err := Validate(Semantic("cosine", 2.0)); err == nil {
		t.Fatalf("expected error for min_score > 1")
	}
}

func TestValidateAcceptsBoundaryWeights(t *testing.T) {
	if err := Validate(Weighted(0, 0)); err != nil {
		t.Fatalf("expected alpha=0 to be valid, got %v", err)
	}
	if err := Validate(Weighted(1, 0)); err != nil {
		t.Fatalf("expected alpha=1 to be valid, got %v", err)
	}
}

func TestValidateRecursesIntoAndOr(t *testing.T) {
	bad := And(Exact(), Weighted(-0.1, 0))
	if err := Validate(bad); err == nil {
		t.Fatalf("expected error from nested invalid weight")
	}
}

func TestUsesSignalHelpers(t *testing.T) {
	expr := And(Semantic("cosine", 0), Perceptual("jaccard", 0))
	if !usesSemantic(expr) {
		t.Fatalf("expected usesSemantic true")
	}
	if !usesPerceptual(expr) {
		t.Fatalf("expected usesPerceptual true")
	}
	if usesExact(expr) {
		t.Fatalf("expected usesExact false")
	}
}
