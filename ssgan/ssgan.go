// Package ssgan trains a semi-supervised GAN whose discriminator doubles as a
// K-class classifier with an extra "fake" class at index 0.
package ssgan

import (
	"github.com/pkg/errors"

	"github.com/fumitoshi0524/ssgan/tensor"
)

// Output is what a discriminator returns for one batch.
type Output struct {
	// Features is the [batch, F] intermediate representation used for
	// feature matching.
	Features *tensor.Tensor
	// Logits is [batch, K+1]; column 0 is the "is fake" logit.
	Logits *tensor.Tensor
	// Probs is softmax(Logits) over the K+1 columns.
	Probs *tensor.Tensor
}

// Generator maps latent noise to synthetic inputs for the discriminator.
type Generator interface {
	Forward(z *tensor.Tensor, training bool) (*tensor.Tensor, error)
	Parameters() []*tensor.Tensor
	ZeroGrad()
}

// Discriminator classifies inputs into K real classes plus the fake class.
type Discriminator interface {
	Forward(x *tensor.Tensor, training bool) (Output, error)
	Parameters() []*tensor.Tensor
	ZeroGrad()
	// Classes reports K, the number of real classes.
	Classes() int
}

func checkOutput(name string, out Output, batch, width int) error {
	if out.Features == nil || out.Logits == nil || out.Probs == nil {
		return errors.Wrapf(ErrShape, "%s output is incomplete", name)
	}
	if out.Features.Rank() != 2 || out.Features.Dim(0) != batch {
		return errors.Wrapf(ErrShape, "%s features have shape %v, want [%d, F]", name, out.Features.Shape(), batch)
	}
	for _, t := range []*tensor.Tensor{out.Logits, out.Probs} {
		if t.Rank() != 2 || t.Dim(0) != batch || t.Dim(1) != width {
			return errors.Wrapf(ErrShape, "%s logits/probs have shape %v, want [%d, %d]", name, t.Shape(), batch, width)
		}
	}
	return nil
}
