package tensor

import (
	"errors"
	"fmt"

	"github.com/fumitoshi0524/ssgan/internal/parallel"
)

// convPlan relates a wide map [batch, wideC, wideH, wideW] to a narrow map
// [batch, narrowC, narrowH, narrowW] through a kernel stored as
// [narrowC, wideC, kH, kW]. Conv2D reads the wide side and writes the narrow
// side; ConvTranspose2D is its adjoint and runs the same plan the other way.
type convPlan struct {
	batch                     int
	wideC, wideH, wideW       int
	narrowC, narrowH, narrowW int
	kH, kW                    int
	stride, pad               int
}

func (p convPlan) wideSize() int   { return p.wideC * p.wideH * p.wideW }
func (p convPlan) narrowSize() int { return p.narrowC * p.narrowH * p.narrowW }

// pairs calls fn with per-sample offsets into the wide map, the kernel and
// the narrow map for every product the convolution accumulates.
func (p convPlan) pairs(fn func(wi, ki, ni int)) {
	for nc := 0; nc < p.narrowC; nc++ {
		for oh := 0; oh < p.narrowH; oh++ {
			for ow := 0; ow < p.narrowW; ow++ {
				ni := (nc*p.narrowH+oh)*p.narrowW + ow
				for wc := 0; wc < p.wideC; wc++ {
					for kh := 0; kh < p.kH; kh++ {
						ih := oh*p.stride - p.pad + kh
						if ih < 0 || ih >= p.wideH {
							continue
						}
						for kw := 0; kw < p.kW; kw++ {
							iw := ow*p.stride - p.pad + kw
							if iw < 0 || iw >= p.wideW {
								continue
							}
							fn((wc*p.wideH+ih)*p.wideW+iw, ((nc*p.wideC+wc)*p.kH+kh)*p.kW+kw, ni)
						}
					}
				}
			}
		}
	}
}

// samples hands fn the wide and narrow slices of each sample. Samples run
// concurrently, so fn may only write into the slices it is given.
func (p convPlan) samples(wide, narrow []float64, fn func(wide, narrow []float64)) {
	ws, ns := p.wideSize(), p.narrowSize()
	parallel.For(p.batch, func(start, end int) {
		for n := start; n < end; n++ {
			fn(wide[n*ws:(n+1)*ws], narrow[n*ns:(n+1)*ns])
		}
	})
}

func checkConvArgs(op string, x, k, bias *Tensor, stride, pad int) error {
	switch {
	case x == nil || k == nil:
		return fmt.Errorf("%s: input and kernel are required", op)
	case len(x.shape) != 4:
		return fmt.Errorf("%s: input shape %v, want [batch, channels, height, width]", op, x.shape)
	case len(k.shape) != 4:
		return fmt.Errorf("%s: kernel shape %v is not rank 4", op, k.shape)
	case bias != nil && len(bias.shape) != 1:
		return fmt.Errorf("%s: bias must be rank 1", op)
	case stride <= 0 || pad < 0:
		return fmt.Errorf("%s: stride %d must be positive and padding %d non-negative", op, stride, pad)
	}
	return nil
}

// Conv2D cross-correlates x [B, C, H, W] with kernel k [O, C, kH, kW] using
// the same stride and zero padding on both axes, then adds the optional
// bias [O]. The output is [B, O, (H+2pad-kH)/stride+1, (W+2pad-kW)/stride+1].
func Conv2D(x, k, bias *Tensor, stride, pad int) (*Tensor, error) {
	if err := checkConvArgs("Conv2D", x, k, bias, stride, pad); err != nil {
		return nil, err
	}
	if k.shape[1] != x.shape[1] {
		return nil, fmt.Errorf("Conv2D: kernel expects %d input channels, got %d", k.shape[1], x.shape[1])
	}
	p := convPlan{batch: x.shape[0], stride: stride, pad: pad}
	p.wideC, p.wideH, p.wideW = x.shape[1], x.shape[2], x.shape[3]
	p.narrowC, p.kH, p.kW = k.shape[0], k.shape[2], k.shape[3]
	if p.wideH+2*pad < p.kH || p.wideW+2*pad < p.kW {
		return nil, errors.New("Conv2D: kernel larger than padded input")
	}
	p.narrowH = (p.wideH+2*pad-p.kH)/stride + 1
	p.narrowW = (p.wideW+2*pad-p.kW)/stride + 1
	return convolve(p, x, k, bias, false)
}

// ConvTranspose2D is the adjoint of Conv2D: x [B, C, h, w] is spread through
// kernel k [C, O, kH, kW] into [B, O, (h-1)*stride-2pad+kH, (w-1)*stride-2pad+kW].
func ConvTranspose2D(x, k, bias *Tensor, stride, pad int) (*Tensor, error) {
	if err := checkConvArgs("ConvTranspose2D", x, k, bias, stride, pad); err != nil {
		return nil, err
	}
	if k.shape[0] != x.shape[1] {
		return nil, fmt.Errorf("ConvTranspose2D: kernel expects %d input channels, got %d", k.shape[0], x.shape[1])
	}
	p := convPlan{batch: x.shape[0], stride: stride, pad: pad}
	p.narrowC, p.narrowH, p.narrowW = x.shape[1], x.shape[2], x.shape[3]
	p.wideC, p.kH, p.kW = k.shape[1], k.shape[2], k.shape[3]
	p.wideH = (p.narrowH-1)*stride - 2*pad + p.kH
	p.wideW = (p.narrowW-1)*stride - 2*pad + p.kW
	if p.wideH <= 0 || p.wideW <= 0 {
		return nil, errors.New("ConvTranspose2D: padding leaves an empty output")
	}
	return convolve(p, x, k, bias, true)
}

func convolve(p convPlan, x, k, bias *Tensor, transposed bool) (*Tensor, error) {
	outC := p.narrowC
	if transposed {
		outC = p.wideC
	}
	if bias != nil && bias.shape[0] != outC {
		return nil, fmt.Errorf("conv bias has %d channels, output has %d", bias.shape[0], outC)
	}
	var out *Tensor
	if transposed {
		out = Zeros(p.batch, p.wideC, p.wideH, p.wideW)
		p.samples(out.data, x.data, func(wide, narrow []float64) {
			p.pairs(func(wi, ki, ni int) { wide[wi] += narrow[ni] * k.data[ki] })
		})
	} else {
		out = Zeros(p.batch, p.narrowC, p.narrowH, p.narrowW)
		p.samples(x.data, out.data, func(wide, narrow []float64) {
			p.pairs(func(wi, ki, ni int) { narrow[ni] += wide[wi] * k.data[ki] })
		})
	}
	if bias != nil {
		addChannelBias(out, bias)
	}

	var parents []*Tensor
	for _, t := range []*Tensor{x, k, bias} {
		if t != nil && t.requiresGrad {
			parents = append(parents, t)
		}
	}
	if len(parents) == 0 {
		return out, nil
	}
	out.requiresGrad = true
	out.parents = parents
	out.node = &node{
		backward: func(grad *Tensor, grads map[*Tensor]*Tensor) {
			// grad lives on the output side: narrow for Conv2D, wide otherwise.
			wideVals, narrowVals := x.data, grad.data
			if transposed {
				wideVals, narrowVals = grad.data, x.data
			}
			if x.requiresGrad {
				gx := Zeros(x.shape...)
				if transposed {
					p.samples(grad.data, gx.data, func(gw, gn []float64) {
						p.pairs(func(wi, ki, ni int) { gn[ni] += k.data[ki] * gw[wi] })
					})
				} else {
					p.samples(gx.data, grad.data, func(gw, gn []float64) {
						p.pairs(func(wi, ki, ni int) { gw[wi] += k.data[ki] * gn[ni] })
					})
				}
				accumulate(grads, x, gx)
			}
			if k.requiresGrad {
				gk := Zeros(k.shape...)
				ws, ns := p.wideSize(), p.narrowSize()
				for n := 0; n < p.batch; n++ {
					wide, narrow := wideVals[n*ws:(n+1)*ws], narrowVals[n*ns:(n+1)*ns]
					p.pairs(func(wi, ki, ni int) { gk.data[ki] += wide[wi] * narrow[ni] })
				}
				accumulate(grads, k, gk)
			}
			if bias != nil && bias.requiresGrad {
				accumulate(grads, bias, channelSums(grad))
			}
		},
	}
	return out, nil
}

// addChannelBias adds bias[c] to every element of channel c of a
// [batch, channels, ...] tensor.
func addChannelBias(t, bias *Tensor) {
	channels := t.shape[1]
	plane := len(t.data) / (t.shape[0] * channels)
	for i := range t.data {
		t.data[i] += bias.data[(i/plane)%channels]
	}
}

// channelSums reduces a [batch, channels, ...] tensor to [channels].
func channelSums(t *Tensor) *Tensor {
	channels := t.shape[1]
	plane := len(t.data) / (t.shape[0] * channels)
	out := Zeros(channels)
	for i, v := range t.data {
		out.data[(i/plane)%channels] += v
	}
	return out
}
