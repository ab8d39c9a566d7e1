package ssgan

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds. Use errors.Is to classify an error returned by this package.
var (
	ErrConfig         = errors.New("invalid configuration")
	ErrDegenerateMask = errors.New("labeled mask selects no examples")
	ErrNumerical      = errors.New("non-finite value")
	ErrShape          = errors.New("shape mismatch")
)

// Stage names the step of a training batch that failed.
type Stage string

const (
	StageData                   Stage = "data"
	StageDiscriminatorLoss      Stage = "discriminator loss"
	StageDiscriminatorGradients Stage = "discriminator gradients"
	StageDiscriminatorStep      Stage = "discriminator step"
	StageGeneratorLoss          Stage = "generator loss"
	StageGeneratorGradients     Stage = "generator gradients"
	StageGeneratorStep          Stage = "generator step"
	StageAccuracy               Stage = "accuracy"
)

// NumericalError reports a loss term or gradient that became NaN or Inf.
type NumericalError struct {
	Term  string
	Value float64
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("%s is %v", e.Term, e.Value)
}

func (e *NumericalError) Is(target error) bool {
	return target == ErrNumerical
}

// forwardError marks a failure inside a model's forward pass. The tensor
// library only fails on incompatible operands, so these count as shape errors.
type forwardError struct {
	model string
	err   error
}

func (e *forwardError) Error() string {
	return e.model + " forward: " + e.err.Error()
}

func (e *forwardError) Unwrap() error { return e.err }

func (e *forwardError) Is(target error) bool {
	return target == ErrShape
}

// TrainError aborts a training run. Epoch and Batch are 1-based; both are
// zero when the failure happened before the first batch.
type TrainError struct {
	Epoch int
	Batch int
	Stage Stage
	// Kind is one of the package's Err* values, or nil when the cause is
	// outside the taxonomy (for example an optimizer failure).
	Kind error
	Err  error
}

func newTrainError(stage Stage, err error) *TrainError {
	return &TrainError{Stage: stage, Kind: kindOf(err), Err: err}
}

func (e *TrainError) Error() string {
	where := "before training"
	if e.Epoch > 0 {
		where = fmt.Sprintf("epoch %d batch %d", e.Epoch, e.Batch)
	}
	if e.Kind != nil {
		return fmt.Sprintf("%s: %s (%v): %v", where, e.Stage, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", where, e.Stage, e.Err)
}

func (e *TrainError) Unwrap() error { return e.Err }

// Cause lets errors.Cause see through a TrainError.
func (e *TrainError) Cause() error { return e.Err }

// Term returns the offending loss term or gradient of a numerical failure.
func (e *TrainError) Term() string {
	var num *NumericalError
	if errors.As(e.Err, &num) {
		return num.Term
	}
	return ""
}

func kindOf(err error) error {
	for _, kind := range []error{ErrConfig, ErrDegenerateMask, ErrNumerical, ErrShape} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
