// Package dataset supplies training and validation arrays to the trainer.
package dataset

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/fumitoshi0524/ssgan/tensor"
)

// Provider exposes flattened inputs [N, H*W] and one-hot labels [N, K] for
// a training and a validation split.
type Provider interface {
	TrainInputs() *tensor.Tensor
	TrainLabels() *tensor.Tensor
	ValidInputs() *tensor.Tensor
	ValidLabels() *tensor.Tensor
}

// Arrays is an in-memory Provider.
type Arrays struct {
	trainX *tensor.Tensor
	trainY *tensor.Tensor
	validX *tensor.Tensor
	validY *tensor.Tensor
}

// NewArrays checks that each split pairs inputs and labels row for row, that
// both splits agree on input and label widths and that every value is finite.
func NewArrays(trainX, trainY, validX, validY *tensor.Tensor) (*Arrays, error) {
	named := []struct {
		name string
		t    *tensor.Tensor
	}{
		{"training inputs", trainX},
		{"training labels", trainY},
		{"validation inputs", validX},
		{"validation labels", validY},
	}
	for _, n := range named {
		if n.t == nil {
			return nil, errors.Errorf("%s are missing", n.name)
		}
		if n.t.Rank() != 2 {
			return nil, errors.Errorf("%s must be rank 2, got shape %v", n.name, n.t.Shape())
		}
		if err := checkFinite(n.t.Data()); err != nil {
			return nil, errors.Wrap(err, n.name)
		}
	}
	if trainX.Dim(0) != trainY.Dim(0) {
		return nil, errors.Errorf("training split has %d inputs but %d labels", trainX.Dim(0), trainY.Dim(0))
	}
	if validX.Dim(0) != validY.Dim(0) {
		return nil, errors.Errorf("validation split has %d inputs but %d labels", validX.Dim(0), validY.Dim(0))
	}
	if trainX.Dim(1) != validX.Dim(1) {
		return nil, errors.Errorf("input widths differ: %d vs %d", trainX.Dim(1), validX.Dim(1))
	}
	if trainY.Dim(1) != validY.Dim(1) {
		return nil, errors.Errorf("label widths differ: %d vs %d", trainY.Dim(1), validY.Dim(1))
	}
	return &Arrays{trainX: trainX, trainY: trainY, validX: validX, validY: validY}, nil
}

func (a *Arrays) TrainInputs() *tensor.Tensor { return a.trainX }

func (a *Arrays) TrainLabels() *tensor.Tensor { return a.trainY }

func (a *Arrays) ValidInputs() *tensor.Tensor { return a.validX }

func (a *Arrays) ValidLabels() *tensor.Tensor { return a.validY }

// Classes is the label width K.
func (a *Arrays) Classes() int { return a.trainY.Dim(1) }

func checkFinite(values []float64) error {
	if len(values) == 0 {
		return nil
	}
	if floats.HasNaN(values) {
		return errors.New("contain NaN")
	}
	if math.IsInf(floats.Max(values), 1) || math.IsInf(floats.Min(values), -1) {
		return errors.New("contain Inf")
	}
	return nil
}
