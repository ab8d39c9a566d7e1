package tensor

import "math"

func Relu(a *Tensor) *Tensor {
	return LeakyRelu(a, 0)
}

// LeakyRelu passes positive values through and scales the rest by alpha.
func LeakyRelu(a *Tensor, alpha float64) *Tensor {
	return mapUnary(a,
		func(x float64) float64 {
			if x > 0 {
				return x
			}
			return alpha * x
		},
		func(x, _ float64) float64 {
			if x > 0 {
				return 1
			}
			return alpha
		},
	)
}

func Sigmoid(a *Tensor) *Tensor {
	return mapUnary(a,
		func(x float64) float64 { return 1 / (1 + math.Exp(-x)) },
		func(_, y float64) float64 { return y * (1 - y) },
	)
}

func Tanh(a *Tensor) *Tensor {
	return mapUnary(a, math.Tanh, func(_, y float64) float64 { return 1 - y*y })
}
