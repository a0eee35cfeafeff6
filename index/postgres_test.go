package index

import "testing"

func TestItoaDimension(t *testing.T) {
	cases := map[int]string{0: "384", 5: "5", 384: "384", 1536: "1536"}
	for in, want := range cases {
		if got := itoa(in); got != want {
			t.Fatalf("itoa(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestQuantizedToVectorRoundTrip(t *testing.T) {
	q := Quantize([]float32{0.5, -0.5, 1.0}, 100)
	v := quantizedToVector(q, 100)
	out := v.Slice()
	if len(out) != 3 {
		t.Fatalf("expected 3 components, got %d", len(out))
	}
}
