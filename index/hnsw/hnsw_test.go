package hnsw

import (
	"fmt"
	"math"
	"testing"
)

func unit(dim, hot int) []float32 {
	v := make([]float32, dim)
	v[hot] = 1
	return v
}

func TestLinearFallbackBelowThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinVectorsForANN = 1000
	idx := New(cfg)
	for i := 0; i < 10; i++ {
		if err := idx.Insert(fmt.Sprintf("d%d", i), unit(10, i)); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}
	results := idx.Search(unit(10, 3), 1)
	if len(results) != 1 || results[0].ID != "d3" {
		t.Fatalf("expected exact nearest d3, got %+v", results)
	}
}

func TestSearchReturnsKResults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinVectorsForANN = 5
	idx := New(cfg)
	for i := 0; i < 50; i++ {
		if err := idx.Insert(fmt.Sprintf("d%d", i), unit(50, i)); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}
	results := idx.Search(unit(50, 7), 5)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
}

func TestInsertRejectsEmptyVector(t *testing.T) {
	idx := New(DefaultConfig())
	if err := idx.Insert("d1", nil); err == nil {
		t.Fatalf("expected error inserting empty vector")
	}
}

func TestInsertReplacesExisting(t *testing.T) {
	idx := New(DefaultConfig())
	_ = idx.Insert("d1", unit(4, 0))
	_ = idx.Insert("d1", unit(4, 1))
	if idx.Len() != 1 {
		t.Fatalf("expected a single entry after replace, got %d", idx.Len())
	}
}

func TestCosineDistanceIdenticalVectorsIsZero(t *testing.T) {
	v := []float32{1, 2, 3}
	d := cosineDistance(v, v)
	if math.Abs(d) > 1e-9 {
		t.Fatalf("expected distance 0 for identical vectors, got %v", d)
	}
}

func TestCosineDistanceOrthogonalIsOne(t *testing.T) {
	d := cosineDistance(unit(2, 0), unit(2, 1))
	if math.Abs(d-1) > 1e-9 {
		t.Fatalf("expected distance 1 for orthogonal vectors, got %v", d)
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := New(DefaultConfig())
	if results := idx.Search(unit(4, 0), 3); results != nil {
		t.Fatalf("expected nil results for empty index, got %+v", results)
	}
}
