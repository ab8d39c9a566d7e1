package ssgan

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

// LabeledMask returns a fresh length-batchSize mask holding exactly
// floor(batchSize*labeledRate) ones at positions drawn from rng.
func LabeledMask(rng *rand.Rand, labeledRate float64, batchSize int) ([]float64, error) {
	if math.IsNaN(labeledRate) || labeledRate < 0 || labeledRate > 1 {
		return nil, errors.Wrapf(ErrConfig, "labeled rate %v outside [0, 1]", labeledRate)
	}
	if batchSize <= 0 {
		return nil, errors.Wrapf(ErrConfig, "batch size %d must be positive", batchSize)
	}
	if rng == nil {
		return nil, errors.Wrap(ErrConfig, "labeled mask needs a random source")
	}
	count := int(math.Floor(float64(batchSize) * labeledRate))
	mask := make([]float64, batchSize)
	for i := 0; i < count; i++ {
		mask[i] = 1
	}
	rng.Shuffle(batchSize, func(i, j int) {
		mask[i], mask[j] = mask[j], mask[i]
	})
	return mask, nil
}
