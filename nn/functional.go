package nn

import "github.com/fumitoshi0524/ssgan/tensor"

// stateless wraps a parameter-free tensor function as a Module.
type stateless func(*tensor.Tensor) (*tensor.Tensor, error)

func (f stateless) Forward(input *tensor.Tensor) (*tensor.Tensor, error) { return f(input) }

func (stateless) Parameters() []*tensor.Tensor { return nil }

func (stateless) ZeroGrad() {}

func pointwise(fn func(*tensor.Tensor) *tensor.Tensor) Module {
	return stateless(func(x *tensor.Tensor) (*tensor.Tensor, error) { return fn(x), nil })
}

func Relu() Module { return pointwise(tensor.Relu) }

func Tanh() Module { return pointwise(tensor.Tanh) }

func LeakyRelu(alpha float64) Module {
	return pointwise(func(x *tensor.Tensor) *tensor.Tensor { return tensor.LeakyRelu(x, alpha) })
}

// Flatten collapses every axis after the batch axis.
func Flatten() Module { return stateless(tensor.Flatten) }

// Reshape keeps the batch axis and reshapes the rest to dims.
func Reshape(dims ...int) Module {
	return stateless(func(x *tensor.Tensor) (*tensor.Tensor, error) {
		return x.Reshape(append([]int{x.Dim(0)}, dims...)...)
	})
}
