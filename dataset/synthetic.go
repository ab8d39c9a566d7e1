package dataset

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	gtensor "gorgonia.org/tensor"

	"github.com/fumitoshi0524/ssgan/tensor"
)

// SyntheticSpec sizes a generated vibration data set.
type SyntheticSpec struct {
	Classes       int
	TrainPerClass int
	ValidPerClass int
	Height        int
	Width         int
	// Noise is the standard deviation of additive Gaussian noise.
	Noise float64
}

// Synthetic generates vibration-like signals of Height*Width samples. Class
// 0 is a clean shaft rotation; class c > 0 adds decaying impacts repeating
// at a class-specific rate, the signature of a localized bearing fault.
// Every signal is scaled to [-1, 1]. Rows cycle through the classes so any
// contiguous batch mixes them.
func Synthetic(rng *rand.Rand, spec SyntheticSpec) (*Arrays, error) {
	if spec.Classes <= 0 || spec.TrainPerClass <= 0 || spec.ValidPerClass <= 0 {
		return nil, errors.Errorf("synthetic set needs positive class and sample counts, got %+v", spec)
	}
	if spec.Height <= 0 || spec.Width <= 0 {
		return nil, errors.Errorf("synthetic signal shape %dx%d must be positive", spec.Height, spec.Width)
	}
	if spec.Noise < 0 {
		return nil, errors.Errorf("noise %v must not be negative", spec.Noise)
	}
	if rng == nil {
		return nil, errors.New("synthetic data needs a random source")
	}
	trainX, trainY, err := syntheticSplit(rng, spec, spec.TrainPerClass)
	if err != nil {
		return nil, errors.Wrap(err, "training split")
	}
	validX, validY, err := syntheticSplit(rng, spec, spec.ValidPerClass)
	if err != nil {
		return nil, errors.Wrap(err, "validation split")
	}
	return NewArrays(trainX, trainY, validX, validY)
}

func syntheticSplit(rng *rand.Rand, spec SyntheticSpec, perClass int) (*tensor.Tensor, *tensor.Tensor, error) {
	n := spec.Classes * perClass
	length := spec.Height * spec.Width
	backing := make([]float64, n*length)
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		labels[i] = i % spec.Classes
		vibration(rng, backing[i*length:(i+1)*length], labels[i], spec.Noise)
	}
	images := gtensor.New(gtensor.WithShape(n, spec.Height, spec.Width), gtensor.WithBacking(backing))
	x, err := FlattenImages(images)
	if err != nil {
		return nil, nil, err
	}
	oneHot, err := OneHot(labels, spec.Classes)
	if err != nil {
		return nil, nil, err
	}
	y, err := FromDense(oneHot)
	if err != nil {
		return nil, nil, err
	}
	return x, y, nil
}

func vibration(rng *rand.Rand, dst []float64, class int, noise float64) {
	length := float64(len(dst))
	phase := rng.Float64() * 2 * math.Pi
	period := 0
	if class > 0 {
		period = int(length) / (3 * (class + 1))
		if period < 4 {
			period = 4
		}
	}
	offset := rng.Intn(len(dst))
	for i := range dst {
		v := math.Sin(2*math.Pi*4*float64(i)/length + phase)
		if period > 0 {
			k := float64((i + offset) % period)
			v += 1.5 * math.Exp(-k/3) * math.Sin(math.Pi*k/2)
		}
		dst[i] = v + noise*rng.NormFloat64()
	}
	lo, hi := floats.Min(dst), floats.Max(dst)
	if hi == lo {
		floats.Scale(0, dst)
		return
	}
	floats.AddConst(-lo, dst)
	floats.Scale(2/(hi-lo), dst)
	floats.AddConst(-1, dst)
}
