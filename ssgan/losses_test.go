package ssgan

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"

	"github.com/fumitoshi0524/ssgan/tensor"
)

func TestDiscriminatorLossMatchesManual(t *testing.T) {
	real := []float64{
		0.5, 2, -1, 0,
		-1, 0, 1, 3,
		2, 1, 1, 1,
		0, 0, 0, 0,
	}
	fake := []float64{
		1, 0, 0, 0,
		-2, 1, 0, 0,
		0.5, 0, 0, 0,
		3, 0, 0, 1,
	}
	g, d := newStubs(4, real, fake, 3)
	labels := tensor.MustNew([]float64{
		1, 0, 0,
		0, 0, 1,
		0, 1, 0,
		1, 0, 0,
	}, 4, 3)
	ext, err := ExtendLabels(labels)
	if err != nil {
		t.Fatalf("ExtendLabels failed: %v", err)
	}
	mask := []float64{1, 0, 1, 0}
	x := batchOf(1, 4, 4)
	losses, err := DiscriminatorLoss(g, d, tensor.Zeros(4, 2), x, mask, ext, true, SkipEmptyMask)
	if err != nil {
		t.Fatalf("DiscriminatorLoss failed: %v", err)
	}

	extData := ext.Data()
	supervised := (softmaxCE(real[0:4], extData[0:4]) + softmaxCE(real[8:12], extData[8:12])) / 2
	realUnsup, fakeUnsup := 0.0, 0.0
	for row := 0; row < 4; row++ {
		realUnsup += sigmoidCE(real[row*4], 0) / 4
		fakeUnsup += sigmoidCE(fake[row*4], 1) / 4
	}
	if !near(losses.Supervised.Item(), supervised, 1e-9) {
		t.Fatalf("supervised %v, want %v", losses.Supervised.Item(), supervised)
	}
	if !near(losses.RealUnsupervised.Item(), realUnsup, 1e-9) {
		t.Fatalf("real unsupervised %v, want %v", losses.RealUnsupervised.Item(), realUnsup)
	}
	if !near(losses.FakeUnsupervised.Item(), fakeUnsup, 1e-9) {
		t.Fatalf("fake unsupervised %v, want %v", losses.FakeUnsupervised.Item(), fakeUnsup)
	}
	if !near(losses.Total.Item(), supervised+realUnsup+fakeUnsup, 1e-9) {
		t.Fatalf("total %v, want %v", losses.Total.Item(), supervised+realUnsup+fakeUnsup)
	}
	if losses.Labeled != 2 {
		t.Fatalf("labeled %d, want 2", losses.Labeled)
	}
	for i, training := range d.calls {
		if !training {
			t.Fatalf("forward %d ran in inference mode", i)
		}
	}
}

func TestDiscriminatorLossDetachesGeneratedBatch(t *testing.T) {
	g, d := newStubs(2, []float64{0, 1, 0, 1, 0, 1}, []float64{0, 1, 0, 1, 0, 1}, 2)
	g.out.SetRequiresGrad(true)
	var seen *tensor.Tensor
	wrapped := &recordingDiscriminator{stubDiscriminator: d, seen: &seen}
	ext, _ := ExtendLabels(tensor.MustNew([]float64{1, 0, 0, 1}, 2, 2))
	if _, err := DiscriminatorLoss(g, wrapped, tensor.Zeros(2, 2), batchOf(1, 2, 4), []float64{1, 1}, ext, true, SkipEmptyMask); err != nil {
		t.Fatalf("DiscriminatorLoss failed: %v", err)
	}
	if seen == nil || seen.RequiresGrad() {
		t.Fatalf("discriminator should receive a detached generated batch")
	}
}

type recordingDiscriminator struct {
	*stubDiscriminator
	seen **tensor.Tensor
}

func (r *recordingDiscriminator) Forward(x *tensor.Tensor, training bool) (Output, error) {
	if x.Data()[0] < 0 {
		*r.seen = x
	}
	return r.stubDiscriminator.Forward(x, training)
}

// permuteClasses reorders columns 1..K of a [rows, K+1] matrix by perm while
// keeping column 0 in place.
func permuteClasses(values []float64, rows int, perm []int) []float64 {
	width := len(perm) + 1
	out := make([]float64, len(values))
	for r := 0; r < rows; r++ {
		out[r*width] = values[r*width]
		for c, p := range perm {
			out[r*width+1+c] = values[r*width+1+p]
		}
	}
	return out
}

func TestSupervisedLossSymmetricUnderRelabeling(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	const rows, classes = 6, 4
	for trial := 0; trial < 5; trial++ {
		real := tensor.Randn(rng, rows, classes+1).Data()
		fake := tensor.Randn(rng, rows, classes+1).Data()
		labels := make([]float64, rows*classes)
		for r := 0; r < rows; r++ {
			labels[r*classes+rng.Intn(classes)] = 1
		}
		ext, err := ExtendLabels(tensor.MustNew(labels, rows, classes))
		if err != nil {
			t.Fatalf("ExtendLabels failed: %v", err)
		}
		mask, err := LabeledMask(rng, 0.5, rows)
		if err != nil {
			t.Fatalf("LabeledMask failed: %v", err)
		}
		perm := rng.Perm(classes)

		g, d := newStubs(rows, real, fake, classes)
		base, err := DiscriminatorLoss(g, d, tensor.Zeros(rows, 2), batchOf(1, rows, 4), mask, ext, true, SkipEmptyMask)
		if err != nil {
			t.Fatalf("DiscriminatorLoss failed: %v", err)
		}
		pg, pd := newStubs(rows, permuteClasses(real, rows, perm), permuteClasses(fake, rows, perm), classes)
		pext := tensor.MustNew(permuteClasses(ext.Data(), rows, perm), rows, classes+1)
		permuted, err := DiscriminatorLoss(pg, pd, tensor.Zeros(rows, 2), batchOf(1, rows, 4), mask, pext, true, SkipEmptyMask)
		if err != nil {
			t.Fatalf("DiscriminatorLoss failed: %v", err)
		}
		if !near(base.Supervised.Item(), permuted.Supervised.Item(), 1e-12) {
			t.Fatalf("trial %d: supervised %v changed to %v under %v", trial, base.Supervised.Item(), permuted.Supervised.Item(), perm)
		}
		if !near(base.Total.Item(), permuted.Total.Item(), 1e-12) {
			t.Fatalf("trial %d: total changed under relabeling", trial)
		}
	}
}

func TestLossesAreNonNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	const rows, classes = 5, 3
	for trial := 0; trial < 20; trial++ {
		scale := math.Pow(10, float64(rng.Intn(4)))
		real := tensor.Randn(rng, rows, classes+1)
		real.Scale(scale)
		fake := tensor.Randn(rng, rows, classes+1)
		fake.Scale(scale)
		g, d := newStubs(rows, real.Data(), fake.Data(), classes)
		d.realFeatures = tensor.Randn(rng, rows, 3)
		d.fakeFeatures = tensor.Randn(rng, rows, 3)
		labels := make([]float64, rows*classes)
		for r := 0; r < rows; r++ {
			labels[r*classes+rng.Intn(classes)] = 1
		}
		ext, _ := ExtendLabels(tensor.MustNew(labels, rows, classes))
		mask, _ := LabeledMask(rng, rng.Float64(), rows)

		dl, err := DiscriminatorLoss(g, d, tensor.Zeros(rows, 2), batchOf(1, rows, 4), mask, ext, true, SkipEmptyMask)
		if err != nil {
			t.Fatalf("DiscriminatorLoss failed: %v", err)
		}
		for name, v := range map[string]float64{
			"supervised": dl.Supervised.Item(),
			"real":       dl.RealUnsupervised.Item(),
			"fake":       dl.FakeUnsupervised.Item(),
			"total":      dl.Total.Item(),
		} {
			if v < 0 || math.IsNaN(v) {
				t.Fatalf("trial %d: discriminator %s loss is %v", trial, name, v)
			}
		}
		gl, err := GeneratorLoss(g, d, tensor.Zeros(rows, 2), batchOf(1, rows, 4), true)
		if err != nil {
			t.Fatalf("GeneratorLoss failed: %v", err)
		}
		if gl.Adversarial.Item() < 0 || gl.FeatureMatching.Item() < 0 || gl.Total.Item() < 0 {
			t.Fatalf("trial %d: negative generator loss %v", trial, gl.Total.Item())
		}
	}
}

func TestFeatureMatchingZeroForIdenticalFeatures(t *testing.T) {
	const rows, classes = 4, 3
	logits := tensor.Randn(rand.New(rand.NewSource(13)), rows, classes+1).Data()
	g, d := newStubs(rows, logits, logits, classes)
	features := tensor.Randn(rand.New(rand.NewSource(14)), rows, 6)
	d.realFeatures = features
	d.fakeFeatures = features.Clone()

	mask, err := LabeledMask(rand.New(rand.NewSource(15)), 0.5, rows)
	if err != nil {
		t.Fatalf("LabeledMask failed: %v", err)
	}
	ones := 0
	for _, m := range mask {
		ones += int(m)
	}
	if ones != 2 {
		t.Fatalf("mask has %d ones, want 2", ones)
	}

	gl, err := GeneratorLoss(g, d, tensor.Zeros(rows, 2), batchOf(1, rows, 4), true)
	if err != nil {
		t.Fatalf("GeneratorLoss failed: %v", err)
	}
	if gl.FeatureMatching.Item() != 0 {
		t.Fatalf("feature matching %v, want 0", gl.FeatureMatching.Item())
	}
	adversarial := 0.0
	for r := 0; r < rows; r++ {
		adversarial += sigmoidCE(logits[r*(classes+1)], 0) / rows
	}
	if !near(gl.Adversarial.Item(), adversarial, 1e-9) || !near(gl.Total.Item(), adversarial, 1e-9) {
		t.Fatalf("adversarial %v total %v, want %v", gl.Adversarial.Item(), gl.Total.Item(), adversarial)
	}
}

func TestFeatureMatchingValue(t *testing.T) {
	g, d := newStubs(2, make([]float64, 6), make([]float64, 6), 2)
	d.realFeatures = tensor.MustNew([]float64{1, 2, 3, 4}, 2, 2)
	d.fakeFeatures = tensor.MustNew([]float64{0, 0, 0, 2}, 2, 2)
	gl, err := GeneratorLoss(g, d, tensor.Zeros(2, 2), batchOf(1, 2, 4), true)
	if err != nil {
		t.Fatalf("GeneratorLoss failed: %v", err)
	}
	// means: real (2, 3), fake (0, 1)
	if !near(gl.FeatureMatching.Item(), 4, 1e-12) {
		t.Fatalf("feature matching %v, want 4", gl.FeatureMatching.Item())
	}
}

func TestFeatureMatchingGradientOnlyReachesFakeFeatures(t *testing.T) {
	g, d := newStubs(2, make([]float64, 6), make([]float64, 6), 2)
	d.realFeatures = tensor.MustNew([]float64{1, 2, 3, 4}, 2, 2)
	d.fakeFeatures = tensor.MustNew([]float64{0, 0, 0, 2}, 2, 2)
	d.realFeatures.SetRequiresGrad(true)
	d.fakeFeatures.SetRequiresGrad(true)
	gl, err := GeneratorLoss(g, d, tensor.Zeros(2, 2), batchOf(1, 2, 4), true)
	if err != nil {
		t.Fatalf("GeneratorLoss failed: %v", err)
	}
	if err := gl.FeatureMatching.Backward(); err != nil {
		t.Fatalf("backward failed: %v", err)
	}
	if d.realFeatures.Grad() != nil {
		t.Fatalf("real features must be treated as constants")
	}
	// d/dfake mean((mf - mr)^2) = (mf - mr) / (features * rows) * 2
	want := []float64{-1, -1, -1, -1}
	got := d.fakeFeatures.Grad().Data()
	for i := range want {
		if !near(got[i], want[i], 1e-12) {
			t.Fatalf("fake feature grad %v, want %v", got, want)
		}
	}
}

func TestEmptyMaskPolicies(t *testing.T) {
	const rows, classes = 4, 2
	logits := tensor.Randn(rand.New(rand.NewSource(16)), rows, classes+1).Data()
	g, d := newStubs(rows, logits, logits, classes)
	ext, _ := ExtendLabels(tensor.MustNew([]float64{1, 0, 0, 1, 1, 0, 0, 1}, rows, classes))
	mask, err := LabeledMask(rand.New(rand.NewSource(1)), 0, rows)
	if err != nil {
		t.Fatalf("LabeledMask failed: %v", err)
	}

	skipped, err := DiscriminatorLoss(g, d, tensor.Zeros(rows, 2), batchOf(1, rows, 4), mask, ext, true, SkipEmptyMask)
	if err != nil {
		t.Fatalf("DiscriminatorLoss failed: %v", err)
	}
	if skipped.Supervised.Item() != 0 || skipped.Labeled != 0 {
		t.Fatalf("empty mask should contribute nothing, got %v", skipped.Supervised.Item())
	}
	if !skipped.Total.IsFinite() {
		t.Fatalf("total is not finite: %v", skipped.Total.Item())
	}
	want := skipped.RealUnsupervised.Item() + skipped.FakeUnsupervised.Item()
	if !near(skipped.Total.Item(), want, 1e-12) {
		t.Fatalf("total %v, want %v", skipped.Total.Item(), want)
	}

	_, err = DiscriminatorLoss(g, d, tensor.Zeros(rows, 2), batchOf(1, rows, 4), mask, ext, true, FailOnEmptyMask)
	if !errors.Is(err, ErrDegenerateMask) {
		t.Fatalf("expected ErrDegenerateMask, got %v", err)
	}
}

func TestFullMaskAveragesEveryExample(t *testing.T) {
	const rows, classes = 3, 2
	real := []float64{
		0, 1, 2,
		0, -1, 1,
		0, 3, 0,
	}
	g, d := newStubs(rows, real, real, classes)
	labels := []float64{1, 0, 0, 1, 1, 0}
	ext, _ := ExtendLabels(tensor.MustNew(labels, rows, classes))
	mask, _ := LabeledMask(rand.New(rand.NewSource(1)), 1, rows)
	losses, err := DiscriminatorLoss(g, d, tensor.Zeros(rows, 2), batchOf(1, rows, 4), mask, ext, true, FailOnEmptyMask)
	if err != nil {
		t.Fatalf("DiscriminatorLoss failed: %v", err)
	}
	extData := ext.Data()
	want := 0.0
	for r := 0; r < rows; r++ {
		want += softmaxCE(real[r*3:r*3+3], extData[r*3:r*3+3]) / rows
	}
	if !near(losses.Supervised.Item(), want, 1e-9) || losses.Labeled != rows {
		t.Fatalf("supervised %v over %d examples, want %v over %d", losses.Supervised.Item(), losses.Labeled, want, rows)
	}
}

func TestLossShapeErrors(t *testing.T) {
	const rows, classes = 2, 2
	g, d := newStubs(rows, make([]float64, 6), make([]float64, 6), classes)
	ext, _ := ExtendLabels(tensor.MustNew([]float64{1, 0, 0, 1}, rows, classes))
	x := batchOf(1, rows, 4)
	z := tensor.Zeros(rows, 2)

	if _, err := DiscriminatorLoss(g, d, z, x, []float64{1}, ext, true, SkipEmptyMask); !errors.Is(err, ErrShape) {
		t.Fatalf("mask length: expected ErrShape, got %v", err)
	}
	badExt := tensor.Zeros(rows, classes)
	if _, err := DiscriminatorLoss(g, d, z, x, []float64{1, 1}, badExt, true, SkipEmptyMask); !errors.Is(err, ErrShape) {
		t.Fatalf("label width: expected ErrShape, got %v", err)
	}
	d.classes = 3
	if _, err := GeneratorLoss(g, d, z, x, true); !errors.Is(err, ErrShape) {
		t.Fatalf("logit width: expected ErrShape, got %v", err)
	}
	d.classes = classes
	d.fakeFeatures = tensor.Zeros(rows, 3)
	if _, err := GeneratorLoss(g, d, z, x, true); !errors.Is(err, ErrShape) {
		t.Fatalf("feature width: expected ErrShape, got %v", err)
	}
	d.err = errBoom
	_, err := GeneratorLoss(g, d, z, x, true)
	if !errors.Is(err, ErrShape) || !errors.Is(err, errBoom) {
		t.Fatalf("forward failure: expected ErrShape wrapping the cause, got %v", err)
	}
	g.err = errBoom
	if _, err := DiscriminatorLoss(g, d, z, x, []float64{1, 1}, ext, true, SkipEmptyMask); !errors.Is(err, errBoom) {
		t.Fatalf("generator failure: expected cause, got %v", err)
	}
}

func TestLossNumericalErrors(t *testing.T) {
	const rows, classes = 2, 2
	real := []float64{math.NaN(), 0, 0, 0, 0, 0}
	g, d := newStubs(rows, real, make([]float64, 6), classes)
	ext, _ := ExtendLabels(tensor.MustNew([]float64{1, 0, 0, 1}, rows, classes))
	_, err := DiscriminatorLoss(g, d, tensor.Zeros(rows, 2), batchOf(1, rows, 4), []float64{1, 1}, ext, true, SkipEmptyMask)
	if !errors.Is(err, ErrNumerical) {
		t.Fatalf("expected ErrNumerical, got %v", err)
	}
	var num *NumericalError
	if !errors.As(err, &num) || num.Term != "supervised loss" {
		t.Fatalf("expected the supervised term to be blamed, got %v", err)
	}

	d.realLogits = tensor.Zeros(rows, classes+1)
	d.fakeFeatures = tensor.MustNew([]float64{math.Inf(1), 0, 0, 0}, rows, 2)
	_, err = GeneratorLoss(g, d, tensor.Zeros(rows, 2), batchOf(1, rows, 4), true)
	if !errors.As(err, &num) || num.Term != "feature matching loss" {
		t.Fatalf("expected feature matching to be blamed, got %v", err)
	}
}
