package index

import "testing"

func TestQuantizeClampsRange(t *testing.T) {
	in := []float32{2.0, -2.0, 0.5, -0.5, 0}
	q := Quantize(in, 100)
	want := []int8{127, -128, 50, -50, 0}
	for i := range want {
		if q[i] != want[i] {
			t.Fatalf("index %d: got %d want %d", i, q[i], want[i])
		}
	}
}

func TestDequantizeRoundTripApprox(t *testing.T) {
	in := []float32{0.37, -0.82, 0.01}
	q := Quantize(in, 100)
	out := Dequantize(q, 100)
	for i := range in {
		diff := float64(in[i]) - float64(out[i])
		if diff < 0 {
			diff = -diff
		}
		if diff > 0.01 {
			t.Fatalf("index %d: round trip drifted too far: %v vs %v", i, in[i], out[i])
		}
	}
}

func TestQuantizeDefaultScale(t *testing.T) {
	q := Quantize([]float32{1.0}, 0)
	if q[0] != 100 {
		t.Fatalf("expected default scale 100, got %d", q[0])
	}
}
