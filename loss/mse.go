package loss

import (
	"fmt"

	"github.com/fumitoshi0524/ssgan/tensor"
)

// MSE is the mean of (pred - target)² over every element. Shapes must match.
func MSE(pred, target *tensor.Tensor) (*tensor.Tensor, error) {
	diff, err := tensor.Sub(pred, target)
	if err != nil {
		return nil, fmt.Errorf("mse: %w", err)
	}
	return tensor.Mean(tensor.Pow(diff, 2)), nil
}
