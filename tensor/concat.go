package tensor

import (
	"errors"

	"github.com/fumitoshi0524/ssgan/internal/parallel"
)

// Concat joins tensors of equal rank along axis. All other axes must match.
func Concat(axis int, tensors ...*Tensor) (*Tensor, error) {
	if len(tensors) == 0 {
		return nil, errors.New("Concat requires at least one tensor")
	}
	base := tensors[0]
	l, err := layoutFor(base, axis)
	if err != nil {
		return nil, err
	}
	if axis < 0 {
		axis += len(base.shape)
	}
	total := 0
	reqGrad := false
	for _, t := range tensors {
		if len(t.shape) != len(base.shape) {
			return nil, errors.New("rank mismatch")
		}
		for d, dim := range t.shape {
			if d != axis && dim != base.shape[d] {
				return nil, errors.New("shape mismatch")
			}
		}
		total += t.shape[axis]
		reqGrad = reqGrad || t.requiresGrad
	}
	outShape := append([]int(nil), base.shape...)
	outShape[axis] = total
	out := Zeros(outShape...)

	// each input occupies a contiguous block of every outer row
	offsets := make([]int, len(tensors))
	offset := 0
	for i, t := range tensors {
		offsets[i] = offset
		offset += t.shape[axis] * l.inner
	}
	rowWidth := total * l.inner
	for i, t := range tensors {
		width := t.shape[axis] * l.inner
		dst := offsets[i]
		parallel.For(l.outer, func(start, end int) {
			for o := start; o < end; o++ {
				copy(out.data[o*rowWidth+dst:o*rowWidth+dst+width], t.data[o*width:(o+1)*width])
			}
		})
	}
	if !reqGrad {
		return out, nil
	}

	out.requiresGrad = true
	for _, t := range tensors {
		if t.requiresGrad {
			out.parents = append(out.parents, t)
		}
	}
	out.node = &node{
		backward: func(grad *Tensor, grads map[*Tensor]*Tensor) {
			for i, t := range tensors {
				if !t.requiresGrad {
					continue
				}
				width := t.shape[axis] * l.inner
				src := offsets[i]
				g := Zeros(t.shape...)
				parallel.For(l.outer, func(start, end int) {
					for o := start; o < end; o++ {
						copy(g.data[o*width:(o+1)*width], grad.data[o*rowWidth+src:o*rowWidth+src+width])
					}
				})
				accumulate(grads, t, g)
			}
		},
	}
	return out, nil
}
