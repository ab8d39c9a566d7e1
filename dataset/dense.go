package dataset

import (
	"github.com/pkg/errors"
	gtensor "gorgonia.org/tensor"

	"github.com/fumitoshi0524/ssgan/tensor"
)

// FromDense copies a float32 or float64 gorgonia array into a tensor of the
// same shape. Views are materialized first.
func FromDense(d gtensor.Tensor) (*tensor.Tensor, error) {
	if d == nil {
		return nil, errors.New("nil dense array")
	}
	if v, ok := d.(gtensor.View); ok && v.IsMaterializable() {
		d = v.Materialize()
	}
	shape := append([]int(nil), d.Shape()...)
	var values []float64
	switch data := d.Data().(type) {
	case []float64:
		values = data
	case []float32:
		values = make([]float64, len(data))
		for i, v := range data {
			values[i] = float64(v)
		}
	case float64:
		values = []float64{data}
	case float32:
		values = []float64{float64(data)}
	default:
		return nil, errors.Errorf("unsupported dtype %v", d.Dtype())
	}
	if len(shape) == 0 {
		shape = []int{1}
	}
	out, err := tensor.New(values, shape...)
	if err != nil {
		return nil, errors.Wrapf(err, "converting %v array", d.Shape())
	}
	return out, nil
}

// FlattenImages reshapes an [N, ...] array to [N, prod(rest)] rows.
func FlattenImages(d gtensor.Tensor) (*tensor.Tensor, error) {
	t, err := FromDense(d)
	if err != nil {
		return nil, err
	}
	if t.Rank() < 2 {
		return nil, errors.Errorf("images need a leading batch axis, got shape %v", t.Shape())
	}
	return tensor.Flatten(t)
}

// OneHot encodes class indices as a [len(labels), classes] float64 array.
func OneHot(labels []int, classes int) (*gtensor.Dense, error) {
	if classes <= 0 {
		return nil, errors.Errorf("class count %d must be positive", classes)
	}
	if len(labels) == 0 {
		return nil, errors.New("no labels to encode")
	}
	backing := make([]float64, len(labels)*classes)
	for i, l := range labels {
		if l < 0 || l >= classes {
			return nil, errors.Errorf("label %d at row %d outside [0, %d)", l, i, classes)
		}
		backing[i*classes+l] = 1
	}
	return gtensor.New(gtensor.WithShape(len(labels), classes), gtensor.WithBacking(backing)), nil
}
