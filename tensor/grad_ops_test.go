package tensor

import (
	"math"
	"testing"
)

func TestGradPowSumAndScale(t *testing.T) {
	x := MustNew([]float64{1, 2}, 2)
	x.SetRequiresGrad(true)
	if x.GradPowSum(2) != 0 {
		t.Fatalf("expected zero before backward")
	}
	weights := MustNew([]float64{3, -4}, 2)
	prod, err := Mul(x, weights)
	if err != nil {
		t.Fatalf("mul failed: %v", err)
	}
	if err := Sum(prod).Backward(); err != nil {
		t.Fatalf("backward failed: %v", err)
	}
	if got := x.GradPowSum(2); math.Abs(got-25) > 1e-12 {
		t.Fatalf("unexpected squared norm %v", got)
	}
	x.ScaleGrad(0.5)
	if !AlmostEqualSlices(x.Grad().Data(), []float64{1.5, -2}, 1e-12) {
		t.Fatalf("unexpected scaled grad %v", x.Grad().Data())
	}
}

func TestAllGradsFinite(t *testing.T) {
	a := MustNew([]float64{1}, 1)
	b := MustNew([]float64{0}, 1)
	a.SetRequiresGrad(true)
	b.SetRequiresGrad(true)
	if idx := AllGradsFinite([]*Tensor{a, b}); idx != -1 {
		t.Fatalf("params without grads should be finite, got %d", idx)
	}
	if err := Sum(a).Backward(); err != nil {
		t.Fatalf("backward failed: %v", err)
	}
	// d/db (1/b) at b=0 is -Inf
	if err := Sum(Pow(b, -1)).Backward(); err != nil {
		t.Fatalf("backward failed: %v", err)
	}
	if !a.GradFinite() {
		t.Fatalf("expected finite grad for a")
	}
	if idx := AllGradsFinite([]*Tensor{a, b}); idx != 1 {
		t.Fatalf("expected second param flagged, got %d", idx)
	}
}
