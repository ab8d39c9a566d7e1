package nn

import (
	"math"
	"math/rand"

	"github.com/fumitoshi0524/ssgan/tensor"
)

// Conv2d is a square-kernel 2D convolution over [batch, in, H, W] inputs.
type Conv2d struct {
	weight *tensor.Tensor
	bias   *tensor.Tensor
	stride int
	pad    int
}

// NewConv2d draws He-scaled normal weights of shape [out, in, k, k] from rng.
func NewConv2d(rng *rand.Rand, in, out, kernel, stride, pad int) *Conv2d {
	return &Conv2d{
		weight: convWeight(rng, in*kernel*kernel, out, in, kernel),
		bias:   zeroBias(out),
		stride: stride,
		pad:    pad,
	}
}

func (c *Conv2d) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.Conv2D(input, c.weight, c.bias, c.stride, c.pad)
}

func (c *Conv2d) Parameters() []*tensor.Tensor { return []*tensor.Tensor{c.weight, c.bias} }

func (c *Conv2d) ZeroGrad() { zeroGrad(c.Parameters()) }

// ConvTranspose2d upsamples [batch, in, h, w] inputs; with kernel 4, stride 2
// and padding 1 it exactly doubles h and w.
type ConvTranspose2d struct {
	weight *tensor.Tensor
	bias   *tensor.Tensor
	stride int
	pad    int
}

// NewConvTranspose2d draws weights of shape [in, out, k, k] from rng.
func NewConvTranspose2d(rng *rand.Rand, in, out, kernel, stride, pad int) *ConvTranspose2d {
	return &ConvTranspose2d{
		weight: convWeight(rng, in*kernel*kernel, in, out, kernel),
		bias:   zeroBias(out),
		stride: stride,
		pad:    pad,
	}
}

func (c *ConvTranspose2d) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.ConvTranspose2D(input, c.weight, c.bias, c.stride, c.pad)
}

func (c *ConvTranspose2d) Parameters() []*tensor.Tensor {
	return []*tensor.Tensor{c.weight, c.bias}
}

func (c *ConvTranspose2d) ZeroGrad() { zeroGrad(c.Parameters()) }

func convWeight(rng *rand.Rand, fanIn, d0, d1, kernel int) *tensor.Tensor {
	w := tensor.Randn(rng, d0, d1, kernel, kernel)
	w.Scale(math.Sqrt(2.0 / float64(fanIn)))
	w.SetRequiresGrad(true)
	return w
}

func zeroBias(n int) *tensor.Tensor {
	b := tensor.Zeros(n)
	b.SetRequiresGrad(true)
	return b
}
