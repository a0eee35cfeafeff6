package splitmix

import "testing"

func TestDeterministic(t *testing.T) {
	a := New(42).NextN(10)
	b := New(42).NextN(10)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("slot %d differs: %d != %d", i, a[i], b[i])
		}
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := New(1).Next()
	b := New(2).Next()
	if a == b {
		t.Fatalf("expected different seeds to diverge, got %d == %d", a, b)
	}
}

func TestFloat64Range(t *testing.T) {
	s := New(7)
	for i := 0; i < 1000; i++ {
		f := s.Float64()
		if f < 0 || f >= 1 {
			t.Fatalf("float64 out of range: %f", f)
		}
	}
}
