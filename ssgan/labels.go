package ssgan

import (
	"github.com/pkg/errors"

	"github.com/fumitoshi0524/ssgan/tensor"
)

// ExtendLabels prepends a zero "fake" column to [batch, K] one-hot labels,
// giving [batch, K+1] targets for the discriminator. The input is not
// modified and the result carries no gradient history.
func ExtendLabels(labels *tensor.Tensor) (*tensor.Tensor, error) {
	if labels == nil || labels.Rank() != 2 {
		var shape []int
		if labels != nil {
			shape = labels.Shape()
		}
		return nil, errors.Wrapf(ErrShape, "labels must be [batch, classes], got %v", shape)
	}
	fake := tensor.Zeros(labels.Dim(0), 1)
	extended, err := tensor.Concat(1, fake, labels.Detach())
	if err != nil {
		return nil, errors.Wrap(err, "extending labels")
	}
	return extended, nil
}
