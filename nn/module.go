package nn

import "github.com/fumitoshi0524/ssgan/tensor"

type Module interface {
	Forward(input *tensor.Tensor) (*tensor.Tensor, error)
	Parameters() []*tensor.Tensor
	ZeroGrad()
}

// ModeSetter is implemented by modules whose forward pass differs between
// training and inference (batch statistics, dropout).
type ModeSetter interface {
	Train()
	Eval()
}

// mode is embedded by modules that behave differently while training. The
// zero value is training mode.
type mode struct{ eval bool }

func (m *mode) Train()         { m.eval = false }
func (m *mode) Eval()          { m.eval = true }
func (m *mode) Training() bool { return !m.eval }

// SetTraining switches every mode-aware module to training or inference
// mode. Modules without a mode are left alone.
func SetTraining(training bool, mods ...Module) {
	for _, m := range mods {
		ms, ok := m.(ModeSetter)
		if !ok {
			continue
		}
		if training {
			ms.Train()
		} else {
			ms.Eval()
		}
	}
}

// NumParameters counts the scalar parameters of a module.
func NumParameters(m Module) int {
	n := 0
	for _, p := range m.Parameters() {
		n += p.Numel()
	}
	return n
}

func zeroGrad(params []*tensor.Tensor) {
	for _, p := range params {
		if p != nil {
			p.ZeroGrad()
		}
	}
}
