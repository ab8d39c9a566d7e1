package nn

import "github.com/fumitoshi0524/ssgan/tensor"

// BatchNorm1d normalizes [batch, features] activations per feature.
type BatchNorm1d struct {
	mode

	numFeatures int
	momentum    float64
	eps         float64
	weight      *tensor.Tensor
	bias        *tensor.Tensor
	runningMean *tensor.Tensor
	runningVar  *tensor.Tensor
}

func NewBatchNorm1d(numFeatures int, momentum, eps float64) *BatchNorm1d {
	if momentum <= 0 || momentum >= 1 {
		momentum = 0.1
	}
	if eps <= 0 {
		eps = 1e-5
	}
	weight := tensor.Ones(numFeatures)
	weight.SetRequiresGrad(true)
	bias := tensor.Zeros(numFeatures)
	bias.SetRequiresGrad(true)
	return &BatchNorm1d{
		numFeatures: numFeatures,
		momentum:    momentum,
		eps:         eps,
		weight:      weight,
		bias:        bias,
		runningMean: tensor.Zeros(numFeatures),
		runningVar:  tensor.Ones(numFeatures),
	}
}

func (bn *BatchNorm1d) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.BatchNorm1D(input, bn.runningMean, bn.runningVar, bn.weight, bn.bias, bn.momentum, bn.eps, bn.Training())
}

func (bn *BatchNorm1d) Parameters() []*tensor.Tensor {
	return []*tensor.Tensor{bn.weight, bn.bias}
}

func (bn *BatchNorm1d) ZeroGrad() {
	zeroGrad(bn.Parameters())
}

func (bn *BatchNorm1d) RunningMean() *tensor.Tensor {
	return bn.runningMean
}

func (bn *BatchNorm1d) RunningVar() *tensor.Tensor {
	return bn.runningVar
}
