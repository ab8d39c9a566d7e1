package tensor

import (
	"errors"
	"fmt"
)

// resolveShape fills in at most one -1 entry so that the product of dims
// equals total. dims is not modified.
func resolveShape(total int, dims []int) ([]int, error) {
	if len(dims) == 0 {
		return nil, errors.New("reshape shape required")
	}
	out := append([]int(nil), dims...)
	known, free := 1, -1
	for i, d := range out {
		switch {
		case d == -1 && free == -1:
			free = i
		case d == -1:
			return nil, errors.New("multiple inferred dimensions")
		case d <= 0:
			return nil, fmt.Errorf("invalid reshape dimension %d", d)
		default:
			known *= d
		}
	}
	if free >= 0 {
		if total%known != 0 {
			return nil, fmt.Errorf("cannot infer dimension: %d elements into %v", total, dims)
		}
		out[free] = total / known
		known = total
	}
	if known != total {
		return nil, fmt.Errorf("reshape size mismatch: %d elements into %v", total, dims)
	}
	return out, nil
}

// view shares t's storage under a new shape. The gradient is copied back
// under t's original shape.
func (t *Tensor) view(shape []int) *Tensor {
	out := &Tensor{data: t.data, shape: shape, requiresGrad: t.requiresGrad}
	if !t.requiresGrad {
		return out
	}
	src := append([]int(nil), t.shape...)
	out.parents = []*Tensor{t}
	out.node = &node{
		backward: func(grad *Tensor, grads map[*Tensor]*Tensor) {
			accumulate(grads, t, wrap(grad.data, src))
		},
	}
	return out
}

// Reshape returns a view of t with the given dims; one dim may be -1.
func (t *Tensor) Reshape(shape ...int) (*Tensor, error) {
	dims, err := resolveShape(t.Numel(), shape)
	if err != nil {
		return nil, err
	}
	return t.view(dims), nil
}

// Flatten keeps axis 0 and folds the remaining axes into one.
func Flatten(a *Tensor) (*Tensor, error) {
	if len(a.shape) < 2 {
		return a.Reshape(a.Numel())
	}
	return a.Reshape(a.shape[0], -1)
}
