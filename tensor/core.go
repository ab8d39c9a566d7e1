package tensor

import (
	"errors"
	"fmt"
	"math"
)

// Tensor is a dense row-major float64 array that can record the operations
// producing it so Backward can propagate gradients to its leaves.
type Tensor struct {
	data  []float64
	shape []int

	requiresGrad bool
	grad         *Tensor
	node         *node
	parents      []*Tensor
}

type node struct {
	backward func(grad *Tensor, grads map[*Tensor]*Tensor)
}

func checkShape(shape []int) (int, error) {
	if len(shape) == 0 {
		return 0, errors.New("shape is required")
	}
	n := 1
	for _, dim := range shape {
		if dim <= 0 {
			return 0, fmt.Errorf("invalid shape %v", shape)
		}
		n *= dim
	}
	return n, nil
}

// New copies data into a tensor of the given shape.
func New(data []float64, shape ...int) (*Tensor, error) {
	n, err := checkShape(shape)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("data and shape mismatch: %d values for %v", len(data), shape)
	}
	return wrap(append([]float64(nil), data...), shape), nil
}

func MustNew(data []float64, shape ...int) *Tensor {
	t, err := New(data, shape...)
	if err != nil {
		panic(err)
	}
	return t
}

// wrap takes ownership of data without validation.
func wrap(data []float64, shape []int) *Tensor {
	return &Tensor{data: data, shape: append([]int(nil), shape...)}
}

func Zeros(shape ...int) *Tensor { return Full(0, shape...) }

func Ones(shape ...int) *Tensor { return Full(1, shape...) }

func Full(value float64, shape ...int) *Tensor {
	data := make([]float64, numel(shape))
	if value != 0 {
		for i := range data {
			data[i] = value
		}
	}
	return wrap(data, shape)
}

func (t *Tensor) Clone() *Tensor {
	if t == nil {
		return nil
	}
	return wrap(append([]float64(nil), t.data...), t.shape)
}

func (t *Tensor) Shape() []int {
	return append([]int(nil), t.shape...)
}

// Dim returns the size of axis i; negative i counts from the end.
func (t *Tensor) Dim(i int) int {
	if i < 0 {
		i += len(t.shape)
	}
	if i < 0 || i >= len(t.shape) {
		return 0
	}
	return t.shape[i]
}

func (t *Tensor) Rank() int {
	return len(t.shape)
}

func (t *Tensor) Numel() int {
	return len(t.data)
}

func (t *Tensor) Data() []float64 {
	return append([]float64(nil), t.data...)
}

// Item returns the single value of a one-element tensor.
func (t *Tensor) Item() float64 {
	if len(t.data) != 1 {
		panic("Item requires a single-element tensor")
	}
	return t.data[0]
}

// SetData overwrites the tensor's underlying values. The provided slice must match Numel().
func (t *Tensor) SetData(values []float64) error {
	if len(values) != len(t.data) {
		return errors.New("SetData expects matching element count")
	}
	copy(t.data, values)
	return nil
}

func (t *Tensor) SetRequiresGrad(v bool) {
	t.requiresGrad = v
}

func (t *Tensor) RequiresGrad() bool {
	return t.requiresGrad
}

func (t *Tensor) Grad() *Tensor {
	if t.grad == nil {
		return nil
	}
	return t.grad.Clone()
}

func (t *Tensor) ZeroGrad() {
	t.grad = nil
}

func (t *Tensor) Detach() *Tensor {
	clone := t.Clone()
	clone.requiresGrad = false
	clone.node = nil
	clone.parents = nil
	return clone
}

// IsFinite reports whether every element is neither NaN nor ±Inf.
func (t *Tensor) IsFinite() bool {
	for _, v := range t.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// SameShape reports whether a and b have identical shapes.
func SameShape(a, b *Tensor) bool {
	return ensureSameShape(a, b) == nil
}

func numel(shape []int) int {
	size := 1
	for _, dim := range shape {
		size *= dim
	}
	return size
}
