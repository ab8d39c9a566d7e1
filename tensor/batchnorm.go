package tensor

import (
	"errors"
	"math"

	"github.com/fumitoshi0524/ssgan/internal/parallel"
)

// BatchNorm1D normalizes each feature column of a [batch, features] input.
// In training mode batch statistics are used and the running estimates are
// updated with the given momentum; otherwise the running estimates are used.
// A single-row training batch has no variance to measure, so it is
// normalized with the running estimates and leaves them unchanged.
// weight and bias are optional per-feature affine parameters.
func BatchNorm1D(input, runningMean, runningVar, weight, bias *Tensor, momentum, eps float64, training bool) (*Tensor, error) {
	if input == nil {
		return nil, errors.New("BatchNorm requires input tensor")
	}
	if len(input.shape) != 2 {
		return nil, errors.New("BatchNorm1D expects [batch, features] input")
	}
	rows, features := input.shape[0], input.shape[1]
	for _, stat := range []*Tensor{runningMean, runningVar, weight, bias} {
		if stat != nil && (len(stat.shape) != 1 || stat.shape[0] != features) {
			return nil, errors.New("BatchNorm1D parameter shape mismatch")
		}
	}

	mean := make([]float64, features)
	invStd := make([]float64, features)
	batchStats := training && rows > 1
	if batchStats {
		variance := make([]float64, features)
		for i := 0; i < rows; i++ {
			for c := 0; c < features; c++ {
				mean[c] += input.data[i*features+c]
			}
		}
		for c := range mean {
			mean[c] /= float64(rows)
		}
		for i := 0; i < rows; i++ {
			for c := 0; c < features; c++ {
				d := input.data[i*features+c] - mean[c]
				variance[c] += d * d
			}
		}
		for c := range variance {
			variance[c] /= float64(rows)
			invStd[c] = 1 / math.Sqrt(variance[c]+eps)
			if runningMean != nil {
				runningMean.data[c] = (1-momentum)*runningMean.data[c] + momentum*mean[c]
			}
			if runningVar != nil {
				unbiased := variance[c] * float64(rows) / float64(rows-1)
				runningVar.data[c] = (1-momentum)*runningVar.data[c] + momentum*unbiased
			}
		}
	} else {
		if runningMean == nil || runningVar == nil {
			return nil, errors.New("BatchNorm1D needs running statistics in eval mode or for a single-row batch")
		}
		copy(mean, runningMean.data)
		for c := range invStd {
			invStd[c] = 1 / math.Sqrt(runningVar.data[c]+eps)
		}
	}

	gamma := func(c int) float64 {
		if weight == nil {
			return 1
		}
		return weight.data[c]
	}
	xhat := Zeros(rows, features)
	out := Zeros(rows, features)
	parallel.For(rows, func(start, end int) {
		for i := start; i < end; i++ {
			for c := 0; c < features; c++ {
				idx := i*features + c
				xhat.data[idx] = (input.data[idx] - mean[c]) * invStd[c]
				out.data[idx] = gamma(c) * xhat.data[idx]
				if bias != nil {
					out.data[idx] += bias.data[c]
				}
			}
		}
	})

	var parents []*Tensor
	for _, p := range []*Tensor{input, weight, bias} {
		if p != nil && p.requiresGrad {
			parents = append(parents, p)
		}
	}
	if len(parents) == 0 {
		return out, nil
	}
	out.requiresGrad = true
	out.parents = parents
	out.node = &node{
		backward: func(grad *Tensor, grads map[*Tensor]*Tensor) {
			if weight != nil && weight.requiresGrad {
				gw := Zeros(features)
				for idx, g := range grad.data {
					gw.data[idx%features] += g * xhat.data[idx]
				}
				accumulate(grads, weight, gw)
			}
			if bias != nil && bias.requiresGrad {
				gb := Zeros(features)
				for idx, g := range grad.data {
					gb.data[idx%features] += g
				}
				accumulate(grads, bias, gb)
			}
			if !input.requiresGrad {
				return
			}
			gx := Zeros(rows, features)
			if !batchStats {
				for idx, g := range grad.data {
					c := idx % features
					gx.data[idx] = g * gamma(c) * invStd[c]
				}
				accumulate(grads, input, gx)
				return
			}
			n := float64(rows)
			sumDx := make([]float64, features)
			sumDxX := make([]float64, features)
			for idx, g := range grad.data {
				c := idx % features
				dxhat := g * gamma(c)
				sumDx[c] += dxhat
				sumDxX[c] += dxhat * xhat.data[idx]
			}
			for idx, g := range grad.data {
				c := idx % features
				dxhat := g * gamma(c)
				gx.data[idx] = invStd[c] / n * (n*dxhat - sumDx[c] - xhat.data[idx]*sumDxX[c])
			}
			accumulate(grads, input, gx)
		},
	}
	return out, nil
}
