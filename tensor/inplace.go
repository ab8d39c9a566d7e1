package tensor

import "github.com/fumitoshi0524/ssgan/internal/parallel"

// The methods below write into t directly and are not recorded by autograd.
// Optimizers use them on parameters and moment buffers.

func (t *Tensor) Scale(v float64) {
	t.apply(func(i int) { t.data[i] *= v })
}

// AddScaled performs t += alpha*other.
func (t *Tensor) AddScaled(other *Tensor, alpha float64) error {
	if err := ensureSameShape(t, other); err != nil {
		return err
	}
	t.apply(func(i int) { t.data[i] += alpha * other.data[i] })
	return nil
}

// MulInPlace performs t *= other element-wise.
func (t *Tensor) MulInPlace(other *Tensor) error {
	if err := ensureSameShape(t, other); err != nil {
		return err
	}
	t.apply(func(i int) { t.data[i] *= other.data[i] })
	return nil
}

func (t *Tensor) apply(fn func(i int)) {
	parallel.For(len(t.data), func(start, end int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}
