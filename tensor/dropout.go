package tensor

import (
	"errors"
	"math/rand"
)

// Dropout zeroes each element with probability p during training and scales
// the survivors by 1/(1-p). Outside training it is the identity. The mask is
// drawn from rng (nil uses the shared source).
func Dropout(rng *rand.Rand, input *Tensor, p float64, training bool) (*Tensor, error) {
	if p < 0 || p >= 1 {
		return nil, errors.New("dropout probability must be in [0, 1)")
	}
	if !training || p == 0 {
		return MulScalar(input, 1), nil
	}
	mask := Uniform(rng, 0, 1, input.shape...)
	scale := 1.0 / (1 - p)
	for i, u := range mask.data {
		if u < p {
			mask.data[i] = 0
		} else {
			mask.data[i] = scale
		}
	}
	return Mul(input, mask)
}
