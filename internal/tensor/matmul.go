package tensor

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/retrolm/retrolm/internal/fault"
)

// general adapts a Mat to the BLAS descriptor without copying.
func (m *Mat) general() blas32.General {
	return blas32.General{Rows: m.R, Cols: m.C, Stride: m.Stride, Data: m.Data}
}

// MatMul returns the matrix product a x b. The inner dimensions must
// agree. The multiply is delegated to the gonum level-3 kernel, which is
// the dominant hot path of a forward pass.
func MatMul(a, b *Mat) (*Mat, error) {
	if a.C != b.R {
		return nil, fault.Errorf(fault.InvalidInput,
			"matmul inner dimension mismatch: %dx%d x %dx%d", a.R, a.C, b.R, b.C)
	}
	out, err := New(a.R, b.C)
	if err != nil {
		return nil, err
	}
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, a.general(), b.general(), 0, out.general())
	return out, nil
}

// MatMulT returns a x bᵀ without materialising the transpose. Used by the
// linear layer (weights are stored [out, in]) and by the attention score
// computation Q x Kᵀ.
func MatMulT(a, b *Mat) (*Mat, error) {
	if a.C != b.C {
		return nil, fault.Errorf(fault.InvalidInput,
			"transposed matmul dimension mismatch: %dx%d x (%dx%d)T", a.R, a.C, b.R, b.C)
	}
	out, err := New(a.R, b.R)
	if err != nil {
		return nil, err
	}
	blas32.Gemm(blas.NoTrans, blas.Trans, 1, a.general(), b.general(), 0, out.general())
	return out, nil
}

// Dot returns the inner product of two equal-length vectors.
func Dot(x, y []float32) float32 {
	return blas32.Dot(
		blas32.Vector{N: len(x), Inc: 1, Data: x},
		blas32.Vector{N: len(y), Inc: 1, Data: y},
	)
}

// transposeBlock is sized for small L1 caches.
const transposeBlock = 8

// Transpose returns a freshly allocated transposed copy, traversing the
// source in blocks to keep both access patterns cache-resident.
func Transpose(m *Mat) (*Mat, error) {
	out, err := New(m.C, m.R)
	if err != nil {
		return nil, err
	}
	for bi := 0; bi < m.R; bi += transposeBlock {
		iEnd := min(bi+transposeBlock, m.R)
		for bj := 0; bj < m.C; bj += transposeBlock {
			jEnd := min(bj+transposeBlock, m.C)
			for i := bi; i < iEnd; i++ {
				for j := bj; j < jEnd; j++ {
					out.Data[j*out.Stride+i] = m.Data[i*m.Stride+j]
				}
			}
		}
	}
	return out, nil
}
