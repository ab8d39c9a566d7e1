package ssgan

import (
	"math"

	"github.com/pkg/errors"
)

// Config holds the hyperparameters of a training run.
type Config struct {
	BatchSize    int
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64
	LatentDim    int
	Epochs       int
	// LabeledRate is the fraction of each batch whose labels feed the
	// supervised term.
	LabeledRate float64
	Height      int
	Width       int
	Seed        int64
	// Workers caps the goroutines used by tensor kernels; 0 means GOMAXPROCS.
	Workers    int
	MaskPolicy MaskPolicy
	// MaxGradNorm clips the joint gradient norm of each model when positive.
	MaxGradNorm float64
}

// DefaultConfig returns the settings of the reference bearing-fault run.
func DefaultConfig() Config {
	return Config{
		BatchSize:    64,
		LearningRate: 2e-4,
		Beta1:        0.5,
		Beta2:        0.999,
		Epsilon:      1e-7,
		LatentDim:    100,
		Epochs:       100,
		LabeledRate:  0.2,
		Height:       32,
		Width:        32,
		Seed:         1,
		MaskPolicy:   SkipEmptyMask,
	}
}

func (c Config) Validate() error {
	switch {
	case math.IsNaN(c.LabeledRate) || c.LabeledRate < 0 || c.LabeledRate > 1:
		return errors.Wrapf(ErrConfig, "labeled rate %v outside [0, 1]", c.LabeledRate)
	case c.BatchSize <= 0:
		return errors.Wrapf(ErrConfig, "batch size %d must be positive", c.BatchSize)
	case c.Epochs <= 0:
		return errors.Wrapf(ErrConfig, "epochs %d must be positive", c.Epochs)
	case c.LatentDim <= 0:
		return errors.Wrapf(ErrConfig, "latent dim %d must be positive", c.LatentDim)
	case c.Height <= 0 || c.Width <= 0:
		return errors.Wrapf(ErrConfig, "input shape %dx%d must be positive", c.Height, c.Width)
	case !(c.LearningRate > 0):
		return errors.Wrapf(ErrConfig, "learning rate %v must be positive", c.LearningRate)
	case c.Beta1 < 0 || c.Beta1 >= 1 || c.Beta2 < 0 || c.Beta2 >= 1:
		return errors.Wrapf(ErrConfig, "betas (%v, %v) outside [0, 1)", c.Beta1, c.Beta2)
	case c.Epsilon < 0:
		return errors.Wrapf(ErrConfig, "epsilon %v must not be negative", c.Epsilon)
	case c.Workers < 0:
		return errors.Wrapf(ErrConfig, "workers %d must not be negative", c.Workers)
	case c.MaxGradNorm < 0:
		return errors.Wrapf(ErrConfig, "max grad norm %v must not be negative", c.MaxGradNorm)
	case c.MaskPolicy != SkipEmptyMask && c.MaskPolicy != FailOnEmptyMask:
		return errors.Wrapf(ErrConfig, "unknown mask policy %d", int(c.MaskPolicy))
	}
	return nil
}
