package loss

import (
	"errors"

	"github.com/fumitoshi0524/ssgan/tensor"
)

// SigmoidCrossEntropy is the mean binary cross-entropy between sigmoid(logits)
// and a constant target applied to every element of a rank-1 logit vector.
func SigmoidCrossEntropy(logits *tensor.Tensor, target float64) (*tensor.Tensor, error) {
	if logits.Rank() != 1 {
		return nil, errors.New("SigmoidCrossEntropy expects rank 1 logits")
	}
	labels := tensor.Full(target, logits.Shape()...)
	perExample, err := tensor.SigmoidCrossEntropy(logits, labels)
	if err != nil {
		return nil, err
	}
	return tensor.Mean(perExample), nil
}
