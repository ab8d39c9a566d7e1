package tensor

import (
	"math"
	"math/rand"
	"testing"
)

func TestRandnSeededIsReproducible(t *testing.T) {
	a := Randn(rand.New(rand.NewSource(7)), 4, 5)
	b := Randn(rand.New(rand.NewSource(7)), 4, 5)
	if !equalShapes(a.Shape(), []int{4, 5}) {
		t.Fatalf("unexpected shape %v", a.Shape())
	}
	if !AlmostEqualSlices(a.Data(), b.Data(), 0) {
		t.Fatalf("same seed produced different samples")
	}
	c := Randn(rand.New(rand.NewSource(8)), 4, 5)
	if AlmostEqualSlices(a.Data(), c.Data(), 0) {
		t.Fatalf("different seeds produced identical samples")
	}
}

func TestRandnMoments(t *testing.T) {
	samples := Randn(rand.New(rand.NewSource(1)), 20000).Data()
	mean, sq := 0.0, 0.0
	for _, v := range samples {
		mean += v
		sq += v * v
	}
	mean /= float64(len(samples))
	variance := sq/float64(len(samples)) - mean*mean
	if math.Abs(mean) > 0.05 || math.Abs(variance-1) > 0.05 {
		t.Fatalf("unexpected moments mean=%v var=%v", mean, variance)
	}
}

func TestUniformRange(t *testing.T) {
	u := Uniform(rand.New(rand.NewSource(3)), -2, 3, 1000)
	for _, v := range u.Data() {
		if v < -2 || v >= 3 {
			t.Fatalf("sample %v outside [-2, 3)", v)
		}
	}
	if Uniform(nil, 0, 1, 3).Numel() != 3 {
		t.Fatalf("nil rng should fall back to the shared source")
	}
}

func TestDropoutModes(t *testing.T) {
	input := Ones(1000)
	out, err := Dropout(rand.New(rand.NewSource(5)), input, 0.5, true)
	if err != nil {
		t.Fatalf("dropout failed: %v", err)
	}
	zeros := 0
	for _, v := range out.Data() {
		switch v {
		case 0:
			zeros++
		case 2:
		default:
			t.Fatalf("unexpected dropout value %v", v)
		}
	}
	if zeros < 400 || zeros > 600 {
		t.Fatalf("unexpected number of dropped units %d", zeros)
	}
	eval, err := Dropout(nil, input, 0.5, false)
	if err != nil {
		t.Fatalf("dropout eval failed: %v", err)
	}
	if !AlmostEqualSlices(eval.Data(), input.Data(), 0) {
		t.Fatalf("eval dropout should be identity")
	}
	if _, err := Dropout(nil, input, 1, true); err == nil {
		t.Fatalf("expected invalid probability error")
	}
}
