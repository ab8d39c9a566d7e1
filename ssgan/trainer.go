package ssgan

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/fumitoshi0524/ssgan/dataset"
	"github.com/fumitoshi0524/ssgan/internal/parallel"
	"github.com/fumitoshi0524/ssgan/optim"
	"github.com/fumitoshi0524/ssgan/tensor"
)

// Trainer alternates discriminator and generator updates over a fixed
// training set and tracks per-epoch history.
type Trainer struct {
	cfg      Config
	g        Generator
	d        Discriminator
	gOpt     optim.Optimizer
	dOpt     optim.Optimizer
	rng      *rand.Rand
	reporter Reporter
}

type Option func(*Trainer)

func WithReporter(r Reporter) Option {
	return func(t *Trainer) {
		t.reporter = r
	}
}

// WithRand replaces the Config.Seed source used for latent noise and masks.
func WithRand(rng *rand.Rand) Option {
	return func(t *Trainer) {
		t.rng = rng
	}
}

// WithOptimizers replaces the default Adam optimizers. Each must cover the
// parameters of its model.
func WithOptimizers(gOpt, dOpt optim.Optimizer) Option {
	return func(t *Trainer) {
		t.gOpt = gOpt
		t.dOpt = dOpt
	}
}

func NewTrainer(cfg Config, g Generator, d Discriminator, opts ...Option) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if g == nil || d == nil {
		return nil, errors.Wrap(ErrConfig, "generator and discriminator are required")
	}
	if d.Classes() <= 0 {
		return nil, errors.Wrapf(ErrConfig, "discriminator reports %d classes", d.Classes())
	}
	t := &Trainer{cfg: cfg, g: g, d: d, reporter: NopReporter{}}
	for _, opt := range opts {
		opt(t)
	}
	if t.rng == nil {
		t.rng = rand.New(rand.NewSource(cfg.Seed))
	}
	adam := optim.AdamConfig{
		LR:          cfg.LearningRate,
		Beta1:       cfg.Beta1,
		Beta2:       cfg.Beta2,
		Eps:         cfg.Epsilon,
		MaxGradNorm: cfg.MaxGradNorm,
	}
	if t.gOpt == nil {
		t.gOpt = optim.NewAdamWithConfig(g.Parameters(), adam)
	}
	if t.dOpt == nil {
		t.dOpt = optim.NewAdamWithConfig(d.Parameters(), adam)
	}
	if t.reporter == nil {
		t.reporter = NopReporter{}
	}
	return t, nil
}

func (t *Trainer) Config() Config {
	return t.cfg
}

// Train runs Config.Epochs epochs over data. Each epoch walks the training
// set in order in floor(N/BatchSize) batches; trailing rows are dropped. Any
// failure aborts the run with a *TrainError.
func (t *Trainer) Train(data dataset.Provider) (*History, error) {
	prev := parallel.MaxWorkers()
	parallel.SetMaxWorkers(t.cfg.Workers)
	defer parallel.SetMaxWorkers(prev)

	trainX, trainY := data.TrainInputs(), data.TrainLabels()
	validX, validY := data.ValidInputs(), data.ValidLabels()
	if err := t.checkData(trainX, trainY, validX, validY); err != nil {
		return nil, newTrainError(StageData, err)
	}
	validImages, err := t.images(validX)
	if err != nil {
		return nil, newTrainError(StageData, err)
	}
	validExtended, err := ExtendLabels(validY)
	if err != nil {
		return nil, newTrainError(StageData, err)
	}

	batches := trainX.Dim(0) / t.cfg.BatchSize
	history := &History{Records: make([]EpochRecord, 0, t.cfg.Epochs)}
	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		dLosses := make([]float64, 0, batches)
		gLosses := make([]float64, 0, batches)
		accuracies := make([]float64, 0, batches)
		for b := 1; b <= batches; b++ {
			rec, err := t.trainBatch(trainX, trainY, (b-1)*t.cfg.BatchSize)
			if err == nil {
				rec.Accuracy, _, err = Accuracy(t.d, validImages, validExtended, false)
				if err != nil {
					err = newTrainError(StageAccuracy, err)
				}
			}
			if err != nil {
				var te *TrainError
				if !errors.As(err, &te) {
					te = newTrainError(StageData, err)
				}
				te.Epoch, te.Batch = epoch, b
				return nil, te
			}
			rec.Epoch, rec.Batch = epoch, b
			dLosses = append(dLosses, rec.DLoss)
			gLosses = append(gLosses, rec.GLoss)
			accuracies = append(accuracies, rec.Accuracy)
			t.reporter.Batch(rec, t.cfg.Epochs, batches)
		}
		summary := EpochRecord{
			Epoch:    epoch,
			DLoss:    stat.Mean(dLosses, nil),
			GLoss:    stat.Mean(gLosses, nil),
			Accuracy: stat.Mean(accuracies, nil),
		}
		history.Records = append(history.Records, summary)
		t.reporter.Epoch(summary, t.cfg.Epochs)
	}
	return history, nil
}

// trainBatch performs one discriminator step followed by one generator step
// on rows [start, start+BatchSize). Both steps share the same latent batch.
func (t *Trainer) trainBatch(trainX, trainY *tensor.Tensor, start int) (BatchRecord, error) {
	var rec BatchRecord
	rows, err := tensor.SliceRows2D(trainX, start, t.cfg.BatchSize)
	if err != nil {
		return rec, newTrainError(StageData, err)
	}
	x, err := t.images(rows)
	if err != nil {
		return rec, newTrainError(StageData, err)
	}
	labels, err := tensor.SliceRows2D(trainY, start, t.cfg.BatchSize)
	if err != nil {
		return rec, newTrainError(StageData, err)
	}
	extended, err := ExtendLabels(labels)
	if err != nil {
		return rec, newTrainError(StageData, err)
	}
	z := tensor.Randn(t.rng, t.cfg.BatchSize, t.cfg.LatentDim)
	mask, err := LabeledMask(t.rng, t.cfg.LabeledRate, t.cfg.BatchSize)
	if err != nil {
		return rec, newTrainError(StageDiscriminatorLoss, err)
	}

	t.g.ZeroGrad()
	t.d.ZeroGrad()
	t.dOpt.ZeroGrad()
	dLosses, err := DiscriminatorLoss(t.g, t.d, z, x, mask, extended, true, t.cfg.MaskPolicy)
	if err != nil {
		return rec, newTrainError(StageDiscriminatorLoss, err)
	}
	if err := dLosses.Total.Backward(); err != nil {
		return rec, newTrainError(StageDiscriminatorGradients, err)
	}
	if err := gradientsFinite("discriminator", t.d.Parameters()); err != nil {
		return rec, newTrainError(StageDiscriminatorGradients, err)
	}
	if err := t.dOpt.Step(); err != nil {
		return rec, newTrainError(StageDiscriminatorStep, err)
	}
	t.d.ZeroGrad()

	gLosses, err := t.generatorStep(z, x)
	if err != nil {
		return rec, err
	}
	rec.DLoss = dLosses.Total.Item()
	rec.GLoss = gLosses.Total.Item()
	rec.Labeled = dLosses.Labeled
	return rec, nil
}

// generatorStep freezes the discriminator so the generator loss only
// produces gradients for generator parameters.
func (t *Trainer) generatorStep(z, x *tensor.Tensor) (*GeneratorLosses, error) {
	restore := freeze(t.d.Parameters())
	defer restore()

	t.g.ZeroGrad()
	t.gOpt.ZeroGrad()
	losses, err := GeneratorLoss(t.g, t.d, z, x, true)
	if err != nil {
		return nil, newTrainError(StageGeneratorLoss, err)
	}
	if err := losses.Total.Backward(); err != nil {
		return nil, newTrainError(StageGeneratorGradients, err)
	}
	if err := gradientsFinite("generator", t.g.Parameters()); err != nil {
		return nil, newTrainError(StageGeneratorGradients, err)
	}
	if err := t.gOpt.Step(); err != nil {
		return nil, newTrainError(StageGeneratorStep, err)
	}
	return losses, nil
}

func (t *Trainer) checkData(trainX, trainY, validX, validY *tensor.Tensor) error {
	if trainX == nil || trainY == nil || validX == nil || validY == nil {
		return errors.Wrap(ErrShape, "data provider returned a nil array")
	}
	pixels := t.cfg.Height * t.cfg.Width
	k := t.d.Classes()
	for _, pair := range []struct {
		name   string
		inputs *tensor.Tensor
		labels *tensor.Tensor
	}{
		{"training", trainX, trainY},
		{"validation", validX, validY},
	} {
		if pair.inputs.Rank() != 2 || pair.inputs.Dim(1) != pixels {
			return errors.Wrapf(ErrShape, "%s inputs have shape %v, want [N, %d]", pair.name, pair.inputs.Shape(), pixels)
		}
		if pair.labels.Rank() != 2 || pair.labels.Dim(1) != k {
			return errors.Wrapf(ErrShape, "%s labels have shape %v, want [N, %d]", pair.name, pair.labels.Shape(), k)
		}
		if pair.inputs.Dim(0) != pair.labels.Dim(0) {
			return errors.Wrapf(ErrShape, "%s set has %d inputs but %d labels", pair.name, pair.inputs.Dim(0), pair.labels.Dim(0))
		}
	}
	if n := trainX.Dim(0); n < t.cfg.BatchSize {
		return errors.Wrapf(ErrConfig, "%d training rows cannot fill a batch of %d", n, t.cfg.BatchSize)
	}
	return nil
}

// images reshapes [N, H*W] rows to [N, 1, H, W].
func (t *Trainer) images(rows *tensor.Tensor) (*tensor.Tensor, error) {
	out, err := rows.Reshape(rows.Dim(0), 1, t.cfg.Height, t.cfg.Width)
	if err != nil {
		return nil, errors.Wrapf(ErrShape, "reshaping %v to images: %v", rows.Shape(), err)
	}
	return out, nil
}

func freeze(params []*tensor.Tensor) (restore func()) {
	was := make([]bool, len(params))
	for i, p := range params {
		was[i] = p.RequiresGrad()
		p.SetRequiresGrad(false)
	}
	return func() {
		for i, p := range params {
			p.SetRequiresGrad(was[i])
		}
	}
}

func gradientsFinite(model string, params []*tensor.Tensor) error {
	idx := tensor.AllGradsFinite(params)
	if idx < 0 {
		return nil
	}
	return &NumericalError{
		Term:  fmt.Sprintf("%s parameter %d gradient", model, idx),
		Value: firstNonFinite(params[idx].Grad().Data()),
	}
}

func firstNonFinite(values []float64) float64 {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return v
		}
	}
	return math.NaN()
}
