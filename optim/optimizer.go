package optim

import "github.com/fumitoshi0524/ssgan/tensor"

// Optimizer updates a fixed parameter set from the gradients accumulated by
// the last Backward call.
type Optimizer interface {
	Step() error
	ZeroGrad()
}

func zeroGrad(params []*tensor.Tensor) {
	for _, p := range params {
		if p != nil {
			p.ZeroGrad()
		}
	}
}
