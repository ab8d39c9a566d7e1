package optim

import (
	"math"

	"github.com/fumitoshi0524/ssgan/tensor"
)

// GradNorm is the L2 norm of all gradients in params taken together.
func GradNorm(params []*tensor.Tensor) float64 {
	var sq float64
	for _, p := range params {
		sq += p.GradPowSum(2)
	}
	return math.Sqrt(sq)
}

// ClipGradNorm scales every gradient by maxNorm/norm when the joint L2 norm
// exceeds maxNorm. It returns the norm seen before scaling, or 0 when
// clipping is disabled.
func ClipGradNorm(params []*tensor.Tensor, maxNorm float64) float64 {
	if maxNorm <= 0 {
		return 0
	}
	norm := GradNorm(params)
	if norm <= maxNorm {
		return norm
	}
	for _, p := range params {
		p.ScaleGrad(maxNorm / norm)
	}
	return norm
}
