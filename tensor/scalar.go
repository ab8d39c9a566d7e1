package tensor

// MulScalar returns a*value.
func MulScalar(a *Tensor, value float64) *Tensor {
	out := a.Clone()
	out.Scale(value)
	if !a.requiresGrad {
		return out
	}
	out.requiresGrad = true
	out.parents = []*Tensor{a}
	out.node = &node{
		backward: func(grad *Tensor, grads map[*Tensor]*Tensor) {
			g := grad.Clone()
			g.Scale(value)
			accumulate(grads, a, g)
		},
	}
	return out
}
