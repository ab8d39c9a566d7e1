package optim

import (
	"math"

	"github.com/fumitoshi0524/ssgan/tensor"
)

type Adam struct {
	params      []*tensor.Tensor
	lr          float64
	beta1       float64
	beta2       float64
	eps         float64
	maxGradNorm float64
	m           map[*tensor.Tensor]*tensor.Tensor
	v           map[*tensor.Tensor]*tensor.Tensor
	step        int
}

type AdamConfig struct {
	LR    float64
	Beta1 float64
	Beta2 float64
	Eps   float64
	// MaxGradNorm rescales the joint L2 gradient norm before each step when
	// positive.
	MaxGradNorm float64
}

func NewAdam(params []*tensor.Tensor, lr, beta1, beta2, eps float64) *Adam {
	return NewAdamWithConfig(params, AdamConfig{LR: lr, Beta1: beta1, Beta2: beta2, Eps: eps})
}

func NewAdamWithConfig(params []*tensor.Tensor, cfg AdamConfig) *Adam {
	return &Adam{
		params:      append([]*tensor.Tensor(nil), params...),
		lr:          cfg.LR,
		beta1:       cfg.Beta1,
		beta2:       cfg.Beta2,
		eps:         cfg.Eps,
		maxGradNorm: cfg.MaxGradNorm,
		m:           map[*tensor.Tensor]*tensor.Tensor{},
		v:           map[*tensor.Tensor]*tensor.Tensor{},
	}
}

func (o *Adam) Step() error {
	if o.maxGradNorm > 0 {
		ClipGradNorm(o.params, o.maxGradNorm)
	}
	o.step++
	biasCorr1 := 1 - math.Pow(o.beta1, float64(o.step))
	biasCorr2 := 1 - math.Pow(o.beta2, float64(o.step))
	if biasCorr1 == 0 {
		biasCorr1 = math.SmallestNonzeroFloat64
	}
	if biasCorr2 == 0 {
		biasCorr2 = math.SmallestNonzeroFloat64
	}
	for _, p := range o.params {
		if p == nil {
			continue
		}
		grad := p.Grad()
		if grad == nil {
			continue
		}
		m := o.m[p]
		if m == nil {
			m = tensor.Zeros(grad.Shape()...)
			o.m[p] = m
		}
		v := o.v[p]
		if v == nil {
			v = tensor.Zeros(grad.Shape()...)
			o.v[p] = v
		}
		m.Scale(o.beta1)
		if err := m.AddScaled(grad, 1-o.beta1); err != nil {
			return err
		}
		gradSquared := grad.Clone()
		if err := gradSquared.MulInPlace(grad); err != nil {
			return err
		}
		v.Scale(o.beta2)
		if err := v.AddScaled(gradSquared, 1-o.beta2); err != nil {
			return err
		}
		mVals := m.Data()
		vVals := v.Data()
		update := make([]float64, len(mVals))
		for i := range update {
			mHat := mVals[i] / biasCorr1
			vHat := vVals[i] / biasCorr2
			update[i] = mHat / (math.Sqrt(vHat) + o.eps)
		}
		if err := p.AddScaled(tensor.MustNew(update, grad.Shape()...), -o.lr); err != nil {
			return err
		}
	}
	return nil
}

func (o *Adam) ZeroGrad() {
	zeroGrad(o.params)
}

// Steps reports how many updates have been applied.
func (o *Adam) Steps() int {
	return o.step
}
