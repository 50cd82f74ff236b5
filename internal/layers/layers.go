// Package layers implements the projection and activation primitives the
// transformer is assembled from.
package layers

import (
	"math"

	"github.com/retrolm/retrolm/internal/fault"
	"github.com/retrolm/retrolm/internal/tensor"
)

// Linear is an affine projection. W is stored [out, in]; B is a [1, out]
// row added to every output row. Both are immutable after load.
type Linear struct {
	W *tensor.Mat
	B *tensor.Mat
}

// NewLinear validates the weight shapes and wraps them.
func NewLinear(w, b *tensor.Mat) (Linear, error) {
	if b.R != 1 || b.C != w.R {
		return Linear{}, fault.Errorf(fault.InvalidInput,
			"linear bias shape %dx%d does not match weight %dx%d", b.R, b.C, w.R, w.C)
	}
	return Linear{W: w, B: b}, nil
}

// OutFeatures returns the projection's output width.
func (l Linear) OutFeatures() int { return l.W.R }

// InFeatures returns the projection's input width.
func (l Linear) InFeatures() int { return l.W.C }

// Forward computes x·Wᵀ + B for x of shape [n, in], yielding [n, out].
func (l Linear) Forward(x *tensor.Mat) (*tensor.Mat, error) {
	if x.C != l.W.C {
		return nil, fault.Errorf(fault.InvalidInput,
			"linear input width %d does not match weight in-features %d", x.C, l.W.C)
	}
	y, err := tensor.MatMulT(x, l.W)
	if err != nil {
		return nil, err
	}
	return tensor.Add(y, l.B)
}

// Embedding maps token identifiers to rows of a [vocab, embed] matrix.
type Embedding struct {
	W *tensor.Mat
}

// Vocab returns the number of embedded identifiers.
func (e Embedding) Vocab() int { return e.W.R }

// Dim returns the embedding width.
func (e Embedding) Dim() int { return e.W.C }

// Lookup gathers the rows for a 1 x k index vector, yielding [k, embed].
// Identifiers at or past the vocabulary size fail.
func (e Embedding) Lookup(idx *tensor.IntMat) (*tensor.Mat, error) {
	for _, id := range idx.Data {
		if int(id) >= e.W.R {
			return nil, fault.Errorf(fault.InvalidInput,
				"token id %d outside vocabulary of %d", id, e.W.R)
		}
	}
	return tensor.RowSelect(e.W, idx)
}

// ReLU zeroes every negative element in place.
func ReLU(m *tensor.Mat) {
	m.ClampMin(0)
}

// Softmax returns the row-wise softmax of m. Each row has its maximum
// subtracted before exponentiation so the largest exponent is exp(0) = 1
// and arbitrarily large inputs cannot overflow. Rows carrying -Inf
// entries (the masked attention cells) contribute zero probability mass
// at those positions; a row must keep at least one finite entry.
func Softmax(m *tensor.Mat) (*tensor.Mat, error) {
	out, err := tensor.New(m.R, m.C)
	if err != nil {
		return nil, err
	}
	for i := 0; i < m.R; i++ {
		src, dst := m.Row(i), out.Row(i)
		maxv := float32(math.Inf(-1))
		for _, v := range src {
			if v > maxv {
				maxv = v
			}
		}
		if math.IsInf(float64(maxv), -1) {
			return nil, fault.Errorf(fault.InvalidInput,
				"softmax row %d has no finite entry", i)
		}
		var sum float64
		for j, v := range src {
			e := math.Exp(float64(v - maxv))
			dst[j] = float32(e)
			sum += e
		}
		inv := float32(1 / sum)
		for j := range dst {
			dst[j] *= inv
		}
	}
	return out, nil
}
