package ssgan

import (
	"github.com/pkg/errors"

	"github.com/fumitoshi0524/ssgan/loss"
	"github.com/fumitoshi0524/ssgan/tensor"
)

// MaskPolicy decides what the supervised term does when a batch's labeled
// mask selects no examples.
type MaskPolicy int

const (
	// SkipEmptyMask makes the supervised term contribute zero.
	SkipEmptyMask MaskPolicy = iota
	// FailOnEmptyMask rejects the batch with ErrDegenerateMask.
	FailOnEmptyMask
)

func (p MaskPolicy) String() string {
	switch p {
	case SkipEmptyMask:
		return "skip"
	case FailOnEmptyMask:
		return "fail"
	default:
		return "unknown"
	}
}

// ParseMaskPolicy accepts the names printed by MaskPolicy.String.
func ParseMaskPolicy(s string) (MaskPolicy, error) {
	switch s {
	case "skip":
		return SkipEmptyMask, nil
	case "fail":
		return FailOnEmptyMask, nil
	}
	return 0, errors.Wrapf(ErrConfig, "unknown mask policy %q", s)
}

// DiscriminatorLosses holds the terms of the discriminator objective. Each
// is a one-element tensor; Total carries the graph for Backward.
type DiscriminatorLosses struct {
	Supervised       *tensor.Tensor
	RealUnsupervised *tensor.Tensor
	FakeUnsupervised *tensor.Tensor
	Total            *tensor.Tensor
	// Labeled is the number of examples selected by the mask.
	Labeled int
}

// GeneratorLosses holds the terms of the generator objective.
type GeneratorLosses struct {
	Adversarial     *tensor.Tensor
	FeatureMatching *tensor.Tensor
	Total           *tensor.Tensor
}

// DiscriminatorLoss computes
//
//	supervised + real unsupervised + fake unsupervised
//
// for one batch. The generated batch is detached, so Backward on Total only
// reaches discriminator parameters.
func DiscriminatorLoss(g Generator, d Discriminator, z, x *tensor.Tensor, mask []float64, extended *tensor.Tensor, training bool, policy MaskPolicy) (*DiscriminatorLosses, error) {
	batch := x.Dim(0)
	width := d.Classes() + 1
	if len(mask) != batch {
		return nil, errors.Wrapf(ErrShape, "mask has %d entries for a batch of %d", len(mask), batch)
	}
	if extended == nil || extended.Rank() != 2 || extended.Dim(0) != batch || extended.Dim(1) != width {
		return nil, errors.Wrapf(ErrShape, "extended labels must be [%d, %d]", batch, width)
	}

	fake, err := g.Forward(z, training)
	if err != nil {
		return nil, &forwardError{model: "generator", err: err}
	}
	fakeOut, realOut, err := discriminate(d, fake.Detach(), x, training, width)
	if err != nil {
		return nil, err
	}

	perExample, err := loss.SoftmaxCrossEntropy(realOut.Logits, extended)
	if err != nil {
		return nil, errors.Wrap(err, "supervised term")
	}
	supervised, ok, err := loss.MaskedMean(perExample, mask)
	if err != nil {
		return nil, errors.Wrapf(ErrShape, "supervised term: %v", err)
	}
	labeled := 0
	for _, m := range mask {
		if m != 0 {
			labeled++
		}
	}
	if !ok {
		if policy == FailOnEmptyMask {
			return nil, errors.Wrapf(ErrDegenerateMask, "batch of %d", batch)
		}
		supervised = tensor.Zeros(1)
	}

	realUnsup, err := fakeLogitLoss(realOut.Logits, 0)
	if err != nil {
		return nil, errors.Wrap(err, "real unsupervised term")
	}
	fakeUnsup, err := fakeLogitLoss(fakeOut.Logits, 1)
	if err != nil {
		return nil, errors.Wrap(err, "fake unsupervised term")
	}
	total, err := sum(supervised, realUnsup, fakeUnsup)
	if err != nil {
		return nil, err
	}
	losses := &DiscriminatorLosses{
		Supervised:       supervised,
		RealUnsupervised: realUnsup,
		FakeUnsupervised: fakeUnsup,
		Total:            total,
		Labeled:          labeled,
	}
	if err := checkFinite(
		term{"supervised loss", supervised},
		term{"real unsupervised loss", realUnsup},
		term{"fake unsupervised loss", fakeUnsup},
	); err != nil {
		return nil, err
	}
	return losses, nil
}

// GeneratorLoss computes the adversarial term (fake batch judged real) plus
// feature matching between the batch means of real and fake discriminator
// features. Real features are detached. Callers that step only the generator
// should freeze the discriminator's parameters first.
func GeneratorLoss(g Generator, d Discriminator, z, x *tensor.Tensor, training bool) (*GeneratorLosses, error) {
	width := d.Classes() + 1
	fake, err := g.Forward(z, training)
	if err != nil {
		return nil, &forwardError{model: "generator", err: err}
	}
	fakeOut, realOut, err := discriminate(d, fake, x, training, width)
	if err != nil {
		return nil, err
	}
	if fakeOut.Features.Dim(1) != realOut.Features.Dim(1) {
		return nil, errors.Wrapf(ErrShape, "fake features %v and real features %v differ", fakeOut.Features.Shape(), realOut.Features.Shape())
	}

	adversarial, err := fakeLogitLoss(fakeOut.Logits, 0)
	if err != nil {
		return nil, errors.Wrap(err, "adversarial term")
	}
	realMoments, err := tensor.MeanAxis(realOut.Features.Detach(), 0)
	if err != nil {
		return nil, errors.Wrap(err, "feature matching term")
	}
	fakeMoments, err := tensor.MeanAxis(fakeOut.Features, 0)
	if err != nil {
		return nil, errors.Wrap(err, "feature matching term")
	}
	matching, err := loss.MSE(fakeMoments, realMoments)
	if err != nil {
		return nil, errors.Wrap(err, "feature matching term")
	}
	total, err := sum(adversarial, matching)
	if err != nil {
		return nil, err
	}
	if err := checkFinite(
		term{"adversarial loss", adversarial},
		term{"feature matching loss", matching},
	); err != nil {
		return nil, err
	}
	return &GeneratorLosses{Adversarial: adversarial, FeatureMatching: matching, Total: total}, nil
}

func discriminate(d Discriminator, fake, real *tensor.Tensor, training bool, width int) (fakeOut, realOut Output, err error) {
	fakeOut, err = d.Forward(fake, training)
	if err != nil {
		return Output{}, Output{}, &forwardError{model: "discriminator", err: err}
	}
	if err = checkOutput("discriminator (fake)", fakeOut, fake.Dim(0), width); err != nil {
		return Output{}, Output{}, err
	}
	realOut, err = d.Forward(real, training)
	if err != nil {
		return Output{}, Output{}, &forwardError{model: "discriminator", err: err}
	}
	if err = checkOutput("discriminator (real)", realOut, real.Dim(0), width); err != nil {
		return Output{}, Output{}, err
	}
	return fakeOut, realOut, nil
}

// fakeLogitLoss is the mean sigmoid cross-entropy of logit column 0 against
// a constant target.
func fakeLogitLoss(logits *tensor.Tensor, target float64) (*tensor.Tensor, error) {
	col, err := tensor.Column(logits, 0)
	if err != nil {
		return nil, err
	}
	return loss.SigmoidCrossEntropy(col, target)
}

func sum(terms ...*tensor.Tensor) (*tensor.Tensor, error) {
	total := terms[0]
	for _, t := range terms[1:] {
		var err error
		if total, err = tensor.Add(total, t); err != nil {
			return nil, err
		}
	}
	return total, nil
}

type term struct {
	name  string
	value *tensor.Tensor
}

func checkFinite(terms ...term) error {
	for _, t := range terms {
		if !t.value.IsFinite() {
			return &NumericalError{Term: t.name, Value: t.value.Item()}
		}
	}
	return nil
}
