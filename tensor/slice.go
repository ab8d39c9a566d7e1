package tensor

import (
	"errors"

	"github.com/fumitoshi0524/ssgan/internal/parallel"
)

// SliceRows2D returns a view of consecutive rows [rowStart, rowStart+rows) of a rank-2 tensor.
// The returned tensor shares the underlying data slice and supports autograd (accumulates
// gradients back to the source tensor in the corresponding region).
func SliceRows2D(t *Tensor, rowStart, rows int) (*Tensor, error) {
	if t == nil {
		return nil, errors.New("nil tensor")
	}
	if len(t.shape) != 2 {
		return nil, errors.New("SliceRows2D expects rank-2 tensor")
	}
	cols := t.shape[1]
	if rowStart < 0 || rows <= 0 || rowStart+rows > t.shape[0] {
		return nil, errors.New("slice out of range")
	}
	start := rowStart * cols
	end := (rowStart + rows) * cols
	out := &Tensor{
		data:         t.data[start:end:end],
		shape:        []int{rows, cols},
		requiresGrad: t.requiresGrad,
	}
	if t.requiresGrad {
		out.parents = []*Tensor{t}
		out.node = &node{
			backward: func(grad *Tensor, grads map[*Tensor]*Tensor) {
				g := Zeros(t.shape...)
				copy(g.data[start:end], grad.data)
				accumulate(grads, t, g)
			},
		}
	}
	return out, nil
}

// SliceCols2D copies columns [colStart, colStart+cols) of a rank-2 tensor
// into a new [rows, cols] tensor. Gradients scatter back into the source
// columns.
func SliceCols2D(t *Tensor, colStart, cols int) (*Tensor, error) {
	if t == nil {
		return nil, errors.New("nil tensor")
	}
	if len(t.shape) != 2 {
		return nil, errors.New("SliceCols2D expects rank-2 tensor")
	}
	rows, width := t.shape[0], t.shape[1]
	if colStart < 0 || cols <= 0 || colStart+cols > width {
		return nil, errors.New("slice out of range")
	}
	out := Zeros(rows, cols)
	parallel.For(rows, func(startRow, endRow int) {
		for r := startRow; r < endRow; r++ {
			copy(out.data[r*cols:(r+1)*cols], t.data[r*width+colStart:r*width+colStart+cols])
		}
	})
	if t.requiresGrad {
		out.requiresGrad = true
		out.parents = []*Tensor{t}
		out.node = &node{
			backward: func(grad *Tensor, grads map[*Tensor]*Tensor) {
				g := Zeros(t.shape...)
				parallel.For(rows, func(startRow, endRow int) {
					for r := startRow; r < endRow; r++ {
						copy(g.data[r*width+colStart:r*width+colStart+cols], grad.data[r*cols:(r+1)*cols])
					}
				})
				accumulate(grads, t, g)
			},
		}
	}
	return out, nil
}

// Column returns column j of a rank-2 tensor as a rank-1 tensor of length rows.
func Column(t *Tensor, j int) (*Tensor, error) {
	col, err := SliceCols2D(t, j, 1)
	if err != nil {
		return nil, err
	}
	return col.Reshape(col.shape[0])
}
