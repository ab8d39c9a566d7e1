package tensor

import (
	"errors"

	"github.com/fumitoshi0524/ssgan/internal/parallel"
)

// MatMul multiplies rank-2 tensors: [n, k] x [k, m] -> [n, m].
func MatMul(a, b *Tensor) (*Tensor, error) {
	return matmul(a, b, false)
}

// MatMulT multiplies a by the transpose of b: [n, k] x [m, k]^T -> [n, m].
// Linear layers store weights as [out, in] and use this to skip an explicit
// transpose on every forward pass.
func MatMulT(a, b *Tensor) (*Tensor, error) {
	return matmul(a, b, true)
}

func matmul(a, b *Tensor, transB bool) (*Tensor, error) {
	if len(a.shape) != 2 || len(b.shape) != 2 {
		return nil, errors.New("matmul expects rank 2 tensors")
	}
	_, aCols := shape2D(a, false)
	bRows, _ := shape2D(b, transB)
	if aCols != bRows {
		return nil, errors.New("incompatible shapes for matmul")
	}
	out := matmulRaw(a, b, false, transB)
	attachBinaryGrad(out, a, b, func(grad *Tensor, grads map[*Tensor]*Tensor, left, right *Tensor) {
		if left.requiresGrad {
			// dA = G * op(B)^T
			accumulate(grads, left, matmulRaw(grad, right, false, !transB))
		}
		if right.requiresGrad {
			if transB {
				// B is [m, k]: dB = G^T * A
				accumulate(grads, right, matmulRaw(grad, left, true, false))
			} else {
				accumulate(grads, right, matmulRaw(left, grad, true, false))
			}
		}
	})
	return out, nil
}

func matmulRaw(a, b *Tensor, transA, transB bool) *Tensor {
	rows, inner := shape2D(a, transA)
	bRows, cols := shape2D(b, transB)
	if inner != bRows {
		panic("matmulRaw shape mismatch")
	}
	out := Zeros(rows, cols)
	parallel.For(rows, func(start, end int) {
		for i := start; i < end; i++ {
			dst := out.data[i*cols : (i+1)*cols]
			for k := 0; k < inner; k++ {
				aik := at2D(a, i, k, transA)
				if !transB {
					src := b.data[k*cols : (k+1)*cols]
					for j, v := range src {
						dst[j] += aik * v
					}
					continue
				}
				for j := range dst {
					dst[j] += aik * b.data[j*inner+k]
				}
			}
		}
	})
	return out
}

func shape2D(t *Tensor, trans bool) (int, int) {
	if len(t.shape) != 2 {
		panic("shape2D expects rank 2 tensor")
	}
	if trans {
		return t.shape[1], t.shape[0]
	}
	return t.shape[0], t.shape[1]
}

func at2D(t *Tensor, row, col int, trans bool) float64 {
	if trans {
		return t.data[col*t.shape[1]+row]
	}
	return t.data[row*t.shape[1]+col]
}
