package ssgan

import (
	"math"

	"github.com/pkg/errors"

	"github.com/fumitoshi0524/ssgan/tensor"
)

// stubGenerator ignores z and returns a fixed batch.
type stubGenerator struct {
	out *tensor.Tensor
	err error
}

func (g *stubGenerator) Forward(z *tensor.Tensor, training bool) (*tensor.Tensor, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.out, nil
}

func (g *stubGenerator) Parameters() []*tensor.Tensor { return nil }

func (g *stubGenerator) ZeroGrad() {}

// stubDiscriminator pins its outputs. Inputs whose first value is negative
// are treated as generated samples.
type stubDiscriminator struct {
	classes      int
	realLogits   *tensor.Tensor
	fakeLogits   *tensor.Tensor
	realFeatures *tensor.Tensor
	fakeFeatures *tensor.Tensor
	err          error
	calls        []bool
}

func (d *stubDiscriminator) Forward(x *tensor.Tensor, training bool) (Output, error) {
	d.calls = append(d.calls, training)
	if d.err != nil {
		return Output{}, d.err
	}
	logits, features := d.realLogits, d.realFeatures
	if x.Data()[0] < 0 {
		logits, features = d.fakeLogits, d.fakeFeatures
	}
	probs, err := tensor.Softmax(logits, 1)
	if err != nil {
		return Output{}, err
	}
	return Output{Features: features, Logits: logits, Probs: probs}, nil
}

func (d *stubDiscriminator) Parameters() []*tensor.Tensor { return nil }

func (d *stubDiscriminator) ZeroGrad() {}

func (d *stubDiscriminator) Classes() int { return d.classes }

func batchOf(value float64, rows, cols int) *tensor.Tensor {
	return tensor.Full(value, rows, cols)
}

// newStubs builds a generator and discriminator for a batch of rows with
// K = classes, logits of width K+1 and features of width 2.
func newStubs(rows int, realLogits, fakeLogits []float64, classes int) (*stubGenerator, *stubDiscriminator) {
	g := &stubGenerator{out: batchOf(-1, rows, 4)}
	d := &stubDiscriminator{
		classes:      classes,
		realLogits:   tensor.MustNew(realLogits, rows, classes+1),
		fakeLogits:   tensor.MustNew(fakeLogits, rows, classes+1),
		realFeatures: tensor.Full(0.5, rows, 2),
		fakeFeatures: tensor.Full(0.5, rows, 2),
	}
	return g, d
}

func softmaxCE(logits, target []float64) float64 {
	maxVal := math.Inf(-1)
	for _, v := range logits {
		maxVal = math.Max(maxVal, v)
	}
	s := 0.0
	for _, v := range logits {
		s += math.Exp(v - maxVal)
	}
	lse := maxVal + math.Log(s)
	out := 0.0
	for i, t := range target {
		out += t * (lse - logits[i])
	}
	return out
}

func sigmoidCE(x, z float64) float64 {
	return math.Max(x, 0) - x*z + math.Log1p(math.Exp(-math.Abs(x)))
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

var errBoom = errors.New("boom")
