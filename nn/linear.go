package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/fumitoshi0524/ssgan/tensor"
)

// Linear computes x·Wᵀ + b with W stored as [out, in].
type Linear struct {
	in     int
	weight *tensor.Tensor
	bias   *tensor.Tensor
}

// NewLinear creates a fully connected layer with Glorot-scaled normal
// weights drawn from rng.
func NewLinear(rng *rand.Rand, in, out int, withBias bool) *Linear {
	w := tensor.Randn(rng, out, in)
	w.Scale(math.Sqrt(2.0 / float64(in+out)))
	w.SetRequiresGrad(true)
	l := &Linear{in: in, weight: w}
	if withBias {
		l.bias = tensor.Zeros(out)
		l.bias.SetRequiresGrad(true)
	}
	return l
}

// Forward accepts a single vector, a [batch, in] matrix, or any tensor whose
// trailing axes flatten to in.
func (l *Linear) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	x, err := tensor.Flatten(input)
	if input.Rank() == 1 {
		x, err = input.Reshape(1, -1)
	}
	if err != nil {
		return nil, err
	}
	if x.Dim(1) != l.in {
		return nil, fmt.Errorf("linear: input has %d features, want %d", x.Dim(1), l.in)
	}
	out, err := tensor.MatMulT(x, l.weight)
	if err != nil || l.bias == nil {
		return out, err
	}
	return tensor.AddBias2D(out, l.bias)
}

func (l *Linear) Parameters() []*tensor.Tensor {
	if l.bias == nil {
		return []*tensor.Tensor{l.weight}
	}
	return []*tensor.Tensor{l.weight, l.bias}
}

func (l *Linear) ZeroGrad() {
	zeroGrad(l.Parameters())
}

func (l *Linear) Weight() *tensor.Tensor {
	return l.weight
}

func (l *Linear) Bias() *tensor.Tensor {
	return l.bias
}
