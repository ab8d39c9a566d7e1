package tensor

import (
	"math/rand"
	"sync"
	"time"
)

var (
	defaultRNG  = rand.New(rand.NewSource(time.Now().UnixNano()))
	defaultLock sync.Mutex
)

// Randn draws standard normal samples from rng. A nil rng falls back to a
// shared, time-seeded source; pass an explicit rng for reproducible runs.
func Randn(rng *rand.Rand, shape ...int) *Tensor {
	data := make([]float64, numel(shape))
	if rng == nil {
		defaultLock.Lock()
		defer defaultLock.Unlock()
		rng = defaultRNG
	}
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	return MustNew(data, shape...)
}

// Uniform draws samples from [low, high).
func Uniform(rng *rand.Rand, low, high float64, shape ...int) *Tensor {
	data := make([]float64, numel(shape))
	if rng == nil {
		defaultLock.Lock()
		defer defaultLock.Unlock()
		rng = defaultRNG
	}
	for i := range data {
		data[i] = low + (high-low)*rng.Float64()
	}
	return MustNew(data, shape...)
}
