package ssgan

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/fumitoshi0524/ssgan/tensor"
)

// Accuracy runs d on x and compares the arg-max of probability columns 1..K
// with the arg-max of the extended labels' columns 1..K. It returns the
// fraction of matches and the predicted class of every example, 0-based over
// the K real classes. Ties resolve to the lowest class.
func Accuracy(d Discriminator, x, extended *tensor.Tensor, training bool) (float64, []int, error) {
	width := d.Classes() + 1
	batch := x.Dim(0)
	if extended == nil || extended.Rank() != 2 || extended.Dim(0) != batch || extended.Dim(1) != width {
		return 0, nil, errors.Wrapf(ErrShape, "extended labels must be [%d, %d]", batch, width)
	}
	out, err := d.Forward(x, training)
	if err != nil {
		return 0, nil, &forwardError{model: "discriminator", err: err}
	}
	if err := checkOutput("discriminator", out, batch, width); err != nil {
		return 0, nil, err
	}
	if !out.Probs.IsFinite() {
		return 0, nil, &NumericalError{Term: "class probabilities", Value: firstNonFinite(out.Probs.Data())}
	}
	probs := out.Probs.Data()
	labels := extended.Data()
	predicted := make([]int, batch)
	correct := 0
	for i := range predicted {
		row := i * width
		predicted[i] = floats.MaxIdx(probs[row+1 : row+width])
		if predicted[i] == floats.MaxIdx(labels[row+1:row+width]) {
			correct++
		}
	}
	return float64(correct) / float64(batch), predicted, nil
}
