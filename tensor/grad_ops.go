package tensor

import "math"

func (t *Tensor) GradPowSum(norm float64) float64 {
	if t == nil || t.grad == nil {
		return 0
	}
	sum := 0.0
	for _, v := range t.grad.data {
		sum += math.Pow(math.Abs(v), norm)
	}
	return sum
}

func (t *Tensor) ScaleGrad(factor float64) {
	if t == nil || t.grad == nil {
		return
	}
	t.grad.Scale(factor)
}

// GradFinite reports whether the accumulated gradient, if any, is free of
// NaN and Inf values.
func (t *Tensor) GradFinite() bool {
	if t == nil || t.grad == nil {
		return true
	}
	return t.grad.IsFinite()
}

// AllGradsFinite checks every parameter's gradient and returns the index of
// the first offending parameter, or -1.
func AllGradsFinite(params []*Tensor) int {
	for i, p := range params {
		if !p.GradFinite() {
			return i
		}
	}
	return -1
}
