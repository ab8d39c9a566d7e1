// Package model provides small convolutional generator and discriminator
// networks that satisfy the ssgan interfaces.
package model

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/fumitoshi0524/ssgan/nn"
	"github.com/fumitoshi0524/ssgan/ssgan"
	"github.com/fumitoshi0524/ssgan/tensor"
)

// Spec fixes every layer size up front.
type Spec struct {
	Height    int
	Width     int
	LatentDim int
	Classes   int
	// Channels is the width of the single hidden feature map, which is
	// Height/2 x Width/2 in both networks.
	Channels int
	Features int
	Dropout  float64
	// LeakySlope is the negative slope of the LeakyReLU activations.
	LeakySlope float64
}

// DefaultSpec sizes the networks for H x W inputs and K classes.
func DefaultSpec(height, width, latentDim, classes int) Spec {
	return Spec{
		Height:     height,
		Width:      width,
		LatentDim:  latentDim,
		Classes:    classes,
		Channels:   16,
		Features:   64,
		Dropout:    0.3,
		LeakySlope: 0.2,
	}
}

func (s Spec) Validate() error {
	switch {
	case s.Height <= 0 || s.Width <= 0 || s.Height%2 != 0 || s.Width%2 != 0:
		return errors.Errorf("input shape %dx%d must be positive and even", s.Height, s.Width)
	case s.LatentDim <= 0:
		return errors.Errorf("latent dim %d must be positive", s.LatentDim)
	case s.Classes <= 0:
		return errors.Errorf("class count %d must be positive", s.Classes)
	case s.Channels <= 0 || s.Features <= 0:
		return errors.Errorf("layer widths (%d, %d) must be positive", s.Channels, s.Features)
	case s.Dropout < 0 || s.Dropout >= 1:
		return errors.Errorf("dropout %v outside [0, 1)", s.Dropout)
	}
	return nil
}

// hidden is the [Channels, Height/2, Width/2] map shared by both networks.
func (s Spec) hidden() (c, h, w int) {
	return s.Channels, s.Height / 2, s.Width / 2
}

// Generator maps [B, LatentDim] noise through a dense projection and one
// stride-2 transposed convolution to [B, 1, H, W] samples in [-1, 1].
type Generator struct {
	spec Spec
	net  *nn.Sequential
}

var _ ssgan.Generator = (*Generator)(nil)

func NewGenerator(spec Spec, rng *rand.Rand) (*Generator, error) {
	if err := spec.Validate(); err != nil {
		return nil, errors.Wrap(err, "generator spec")
	}
	c, h, w := spec.hidden()
	net := nn.NewSequential(
		nn.NewLinear(rng, spec.LatentDim, c*h*w, true),
		nn.NewBatchNorm1d(c*h*w, 0.1, 1e-5),
		nn.LeakyRelu(spec.LeakySlope),
		nn.Reshape(c, h, w),
		nn.NewConvTranspose2d(rng, c, 1, 4, 2, 1),
		nn.Tanh(),
	)
	return &Generator{spec: spec, net: net}, nil
}

func (g *Generator) Forward(z *tensor.Tensor, training bool) (*tensor.Tensor, error) {
	if z.Rank() != 2 || z.Dim(1) != g.spec.LatentDim {
		return nil, errors.Errorf("latent batch has shape %v, want [B, %d]", z.Shape(), g.spec.LatentDim)
	}
	nn.SetTraining(training, g.net)
	return g.net.Forward(z)
}

func (g *Generator) Parameters() []*tensor.Tensor {
	return g.net.Parameters()
}

func (g *Generator) ZeroGrad() {
	g.net.ZeroGrad()
}

// Discriminator runs one stride-2 convolution and a dense feature layer, and
// returns features, K+1 logits and their softmax for [B, 1, H, W] or
// [B, H*W] inputs.
type Discriminator struct {
	spec  Spec
	trunk *nn.Sequential
	head  *nn.Linear
}

var _ ssgan.Discriminator = (*Discriminator)(nil)

func NewDiscriminator(spec Spec, rng *rand.Rand) (*Discriminator, error) {
	if err := spec.Validate(); err != nil {
		return nil, errors.Wrap(err, "discriminator spec")
	}
	c, h, w := spec.hidden()
	trunk := nn.NewSequential(
		nn.NewConv2d(rng, 1, c, 4, 2, 1),
		nn.LeakyRelu(spec.LeakySlope),
		nn.NewDropout(rng, spec.Dropout),
		nn.Flatten(),
		nn.NewLinear(rng, c*h*w, spec.Features, true),
		nn.LeakyRelu(spec.LeakySlope),
	)
	return &Discriminator{
		spec:  spec,
		trunk: trunk,
		head:  nn.NewLinear(rng, spec.Features, spec.Classes+1, true),
	}, nil
}

func (d *Discriminator) Forward(x *tensor.Tensor, training bool) (ssgan.Output, error) {
	if x.Numel() != x.Dim(0)*d.spec.Height*d.spec.Width {
		return ssgan.Output{}, errors.Errorf("input has shape %v, want %d values per example", x.Shape(), d.spec.Height*d.spec.Width)
	}
	images, err := x.Reshape(x.Dim(0), 1, d.spec.Height, d.spec.Width)
	if err != nil {
		return ssgan.Output{}, err
	}
	nn.SetTraining(training, d.trunk)
	features, err := d.trunk.Forward(images)
	if err != nil {
		return ssgan.Output{}, err
	}
	logits, err := d.head.Forward(features)
	if err != nil {
		return ssgan.Output{}, err
	}
	probs, err := tensor.Softmax(logits, 1)
	if err != nil {
		return ssgan.Output{}, err
	}
	return ssgan.Output{Features: features, Logits: logits, Probs: probs}, nil
}

func (d *Discriminator) Parameters() []*tensor.Tensor {
	return append(d.trunk.Parameters(), d.head.Parameters()...)
}

func (d *Discriminator) ZeroGrad() {
	d.trunk.ZeroGrad()
	d.head.ZeroGrad()
}

func (d *Discriminator) Classes() int {
	return d.spec.Classes
}
