package tensor

import (
	"errors"

	"github.com/fumitoshi0524/ssgan/internal/parallel"
)

// axisLayout describes a tensor as [outer, axis, inner] around one axis.
type axisLayout struct {
	outer, size, inner int
	outShape           []int
}

func layoutFor(a *Tensor, axis int) (axisLayout, error) {
	rank := len(a.shape)
	if rank == 0 {
		return axisLayout{}, errors.New("reduction requires rank >= 1 tensor")
	}
	if axis < 0 {
		axis += rank
	}
	if axis < 0 || axis >= rank {
		return axisLayout{}, errors.New("axis out of range")
	}
	l := axisLayout{outer: 1, size: a.shape[axis], inner: 1}
	for i := 0; i < axis; i++ {
		l.outer *= a.shape[i]
	}
	for i := axis + 1; i < rank; i++ {
		l.inner *= a.shape[i]
	}
	for i, dim := range a.shape {
		if i != axis {
			l.outShape = append(l.outShape, dim)
		}
	}
	if len(l.outShape) == 0 {
		l.outShape = []int{1}
	}
	return l, nil
}

// SumAxis sums elements along the given axis and returns a tensor with that
// axis removed.
func SumAxis(a *Tensor, axis int) (*Tensor, error) {
	l, err := layoutFor(a, axis)
	if err != nil {
		return nil, err
	}
	out := Zeros(l.outShape...)
	parallel.For(l.outer, func(start, end int) {
		for o := start; o < end; o++ {
			srcBase := o * l.size * l.inner
			for in := 0; in < l.inner; in++ {
				s := 0.0
				for k := 0; k < l.size; k++ {
					s += a.data[srcBase+k*l.inner+in]
				}
				out.data[o*l.inner+in] = s
			}
		}
	})
	if !a.requiresGrad {
		return out, nil
	}
	out.requiresGrad = true
	out.parents = []*Tensor{a}
	out.node = &node{
		backward: func(grad *Tensor, grads map[*Tensor]*Tensor) {
			g := Zeros(a.shape...)
			parallel.For(l.outer, func(start, end int) {
				for o := start; o < end; o++ {
					base := o * l.size * l.inner
					for in := 0; in < l.inner; in++ {
						v := grad.data[o*l.inner+in]
						for k := 0; k < l.size; k++ {
							g.data[base+k*l.inner+in] = v
						}
					}
				}
			})
			accumulate(grads, a, g)
		},
	}
	return out, nil
}

// MeanAxis computes the mean along the given axis and returns a tensor with
// that axis removed.
func MeanAxis(a *Tensor, axis int) (*Tensor, error) {
	s, err := SumAxis(a, axis)
	if err != nil {
		return nil, err
	}
	l, _ := layoutFor(a, axis)
	return MulScalar(s, 1.0/float64(l.size)), nil
}
