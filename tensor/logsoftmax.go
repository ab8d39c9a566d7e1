package tensor

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/fumitoshi0524/ssgan/internal/parallel"
)

// LogSoftmax normalizes each row of a rank-2 tensor in log space. Only the
// class axis (1) is supported.
func LogSoftmax(a *Tensor, axis int) (*Tensor, error) {
	if len(a.shape) != 2 {
		return nil, errors.New("LogSoftmax expects rank 2 tensor")
	}
	if axis < 0 {
		axis += 2
	}
	if axis != 1 {
		return nil, errors.New("LogSoftmax currently supports axis 1 only")
	}
	cols := a.shape[1]
	out := Zeros(a.shape...)
	eachRow(a.shape[0], cols, func(off int) {
		src, dst := a.data[off:off+cols], out.data[off:off+cols]
		copy(dst, src)
		floats.AddConst(-floats.LogSumExp(src), dst)
	})
	if !a.requiresGrad {
		return out, nil
	}
	out.requiresGrad = true
	out.parents = []*Tensor{a}
	out.node = &node{
		backward: func(grad *Tensor, grads map[*Tensor]*Tensor) {
			// d/dx_j = g_j - softmax_j * sum(g)
			gx := Zeros(a.shape...)
			eachRow(a.shape[0], cols, func(off int) {
				g := grad.data[off : off+cols]
				total := floats.Sum(g)
				for j, lp := range out.data[off : off+cols] {
					gx.data[off+j] = g[j] - math.Exp(lp)*total
				}
			})
			accumulate(grads, a, gx)
		},
	}
	return out, nil
}

// Softmax is exp(LogSoftmax(a)).
func Softmax(a *Tensor, axis int) (*Tensor, error) {
	logsm, err := LogSoftmax(a, axis)
	if err != nil {
		return nil, err
	}
	return Exp(logsm), nil
}

// eachRow calls fn with the offset of every row, splitting rows across
// workers.
func eachRow(rows, cols int, fn func(off int)) {
	parallel.For(rows, func(start, end int) {
		for i := start; i < end; i++ {
			fn(i * cols)
		}
	})
}
