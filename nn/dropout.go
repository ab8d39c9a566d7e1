package nn

import (
	"math"
	"math/rand"

	"github.com/fumitoshi0524/ssgan/tensor"
)

// Dropout zeroes activations with probability p while training and scales
// the survivors by 1/(1-p). It is the identity in eval mode.
type Dropout struct {
	mode
	rng *rand.Rand
	p   float64
}

// NewDropout clamps p into [0, 0.999].
func NewDropout(rng *rand.Rand, p float64) *Dropout {
	return &Dropout{rng: rng, p: math.Min(math.Max(p, 0), 0.999)}
}

func (d *Dropout) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.Dropout(d.rng, input, d.p, d.Training())
}

func (d *Dropout) Parameters() []*tensor.Tensor { return nil }

func (d *Dropout) ZeroGrad() {}
