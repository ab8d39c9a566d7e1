package tensor

import (
	"errors"
	"math"

	"github.com/fumitoshi0524/ssgan/internal/parallel"
)

func AddBias2D(a, bias *Tensor) (*Tensor, error) {
	if len(a.shape) != 2 {
		return nil, errors.New("AddBias2D expects rank 2 tensor input")
	}
	if len(bias.shape) != 1 {
		return nil, errors.New("AddBias2D expects rank 1 bias")
	}
	if a.shape[1] != bias.shape[0] {
		return nil, errors.New("AddBias2D dimension mismatch")
	}
	rows, cols := a.shape[0], a.shape[1]
	out := a.Detach()
	parallel.For(rows, func(start, end int) {
		for i := start; i < end; i++ {
			offset := i * cols
			for j := 0; j < cols; j++ {
				out.data[offset+j] += bias.data[j]
			}
		}
	})
	attachBinaryGrad(out, a, bias, func(grad *Tensor, grads map[*Tensor]*Tensor, in, b *Tensor) {
		if in.requiresGrad {
			accumulate(grads, in, grad)
		}
		if b.requiresGrad {
			agg := Zeros(b.shape...)
			for i := 0; i < rows; i++ {
				offset := i * cols
				for j := 0; j < cols; j++ {
					agg.data[j] += grad.data[offset+j]
				}
			}
			accumulate(grads, b, agg)
		}
	})
	return out, nil
}

// SigmoidCrossEntropy computes the element-wise binary cross-entropy between
// sigmoid(logits) and labels without forming the sigmoid explicitly:
//
//	max(x, 0) - x*z + log(1 + exp(-|x|))
//
// The gradient with respect to the logits is sigmoid(x) - z. Labels are
// treated as constants.
func SigmoidCrossEntropy(logits, labels *Tensor) (*Tensor, error) {
	if err := ensureSameShape(logits, labels); err != nil {
		return nil, err
	}
	out := Zeros(logits.shape...)
	parallel.For(len(out.data), func(start, end int) {
		for i := start; i < end; i++ {
			x, z := logits.data[i], labels.data[i]
			out.data[i] = math.Max(x, 0) - x*z + math.Log1p(math.Exp(-math.Abs(x)))
		}
	})
	if logits.requiresGrad {
		out.requiresGrad = true
		out.parents = []*Tensor{logits}
		out.node = &node{
			backward: func(grad *Tensor, grads map[*Tensor]*Tensor) {
				g := Zeros(logits.shape...)
				parallel.For(len(g.data), func(start, end int) {
					for i := start; i < end; i++ {
						sig := 1 / (1 + math.Exp(-logits.data[i]))
						g.data[i] = grad.data[i] * (sig - labels.data[i])
					}
				})
				accumulate(grads, logits, g)
			},
		}
	}
	return out, nil
}
