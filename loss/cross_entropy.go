package loss

import (
	"errors"

	"github.com/fumitoshi0524/ssgan/tensor"
)

// SoftmaxCrossEntropy returns the per-example cross-entropy between
// softmax(logits) and a target distribution over the same classes, as a
// [batch] tensor. Targets need not be strictly one-hot; they are treated as
// constants.
func SoftmaxCrossEntropy(logits, targets *tensor.Tensor) (*tensor.Tensor, error) {
	shape := logits.Shape()
	if len(shape) != 2 {
		return nil, errors.New("SoftmaxCrossEntropy expects rank 2 logits")
	}
	if !tensor.SameShape(logits, targets) {
		return nil, errors.New("SoftmaxCrossEntropy target shape mismatch")
	}
	logProb, err := tensor.LogSoftmax(logits, 1)
	if err != nil {
		return nil, err
	}
	weighted, err := tensor.Mul(logProb, targets.Detach())
	if err != nil {
		return nil, err
	}
	perExample, err := tensor.SumAxis(weighted, 1)
	if err != nil {
		return nil, err
	}
	return tensor.MulScalar(perExample, -1), nil
}

// MaskedMean averages per-example losses over the examples whose mask entry
// is non-zero: sum(loss*mask) / sum(mask). ok is false when the mask sums to
// zero, in which case the returned tensor is nil.
func MaskedMean(perExample *tensor.Tensor, mask []float64) (out *tensor.Tensor, ok bool, err error) {
	if perExample.Rank() != 1 || perExample.Dim(0) != len(mask) {
		return nil, false, errors.New("MaskedMean mask length mismatch")
	}
	total := 0.0
	for _, m := range mask {
		total += m
	}
	if total == 0 {
		return nil, false, nil
	}
	maskT, err := tensor.New(mask, len(mask))
	if err != nil {
		return nil, false, err
	}
	masked, err := tensor.Mul(perExample, maskT)
	if err != nil {
		return nil, false, err
	}
	return tensor.MulScalar(tensor.Sum(masked), 1/total), true, nil
}
