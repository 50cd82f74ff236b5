package tensor

import (
	"math"

	"github.com/retrolm/retrolm/internal/fault"
)

// broadcastShape classifies the second operand of a binary op against the
// first: full (same shape), row vector [1,c], or column vector [r,1].
type broadcastShape int

const (
	bcFull broadcastShape = iota
	bcRow
	bcCol
)

func classify(a, b *Mat) (broadcastShape, error) {
	switch {
	case b.R == a.R && b.C == a.C:
		return bcFull, nil
	case b.R == 1 && b.C == a.C:
		return bcRow, nil
	case b.R == a.R && b.C == 1:
		return bcCol, nil
	default:
		return 0, fault.Errorf(fault.InvalidInput,
			"cannot broadcast %dx%d against %dx%d", b.R, b.C, a.R, a.C)
	}
}

func binaryOp(a, b *Mat, f func(x, y float32) float32) (*Mat, error) {
	shape, err := classify(a, b)
	if err != nil {
		return nil, err
	}
	out, err := New(a.R, a.C)
	if err != nil {
		return nil, err
	}
	switch shape {
	case bcFull:
		for i := range a.Data {
			out.Data[i] = f(a.Data[i], b.Data[i])
		}
	case bcRow:
		for i := 0; i < a.R; i++ {
			ar, or := a.Row(i), out.Row(i)
			for j := range ar {
				or[j] = f(ar[j], b.Data[j])
			}
		}
	case bcCol:
		for i := 0; i < a.R; i++ {
			ar, or := a.Row(i), out.Row(i)
			bv := b.Data[i]
			for j := range ar {
				or[j] = f(ar[j], bv)
			}
		}
	}
	return out, nil
}

// Add returns a + b. b may be the same shape as a, a [1,c] row vector
// broadcast down the rows, or an [r,1] column vector broadcast across the
// columns.
func Add(a, b *Mat) (*Mat, error) {
	return binaryOp(a, b, func(x, y float32) float32 { return x + y })
}

// Sub returns a - b under the same broadcast rules as Add.
func Sub(a, b *Mat) (*Mat, error) {
	return binaryOp(a, b, func(x, y float32) float32 { return x - y })
}

// Div returns a / b under the same broadcast rules as Add.
func Div(a, b *Mat) (*Mat, error) {
	return binaryOp(a, b, func(x, y float32) float32 { return x / y })
}

// Exp returns e raised to each element.
func Exp(m *Mat) (*Mat, error) {
	out, err := New(m.R, m.C)
	if err != nil {
		return nil, err
	}
	for i, v := range m.Data {
		out.Data[i] = float32(math.Exp(float64(v)))
	}
	return out, nil
}

// Scale multiplies every element by alpha in place.
func (m *Mat) Scale(alpha float32) {
	for i := range m.Data {
		m.Data[i] *= alpha
	}
}

// Shift adds beta to every element in place.
func (m *Mat) Shift(beta float32) {
	for i := range m.Data {
		m.Data[i] += beta
	}
}

// Clamp limits every element to [lo, hi] in place. lo must be below hi.
func (m *Mat) Clamp(lo, hi float32) error {
	if lo >= hi {
		return fault.Errorf(fault.InvalidInput, "clamp bounds inverted: lo=%g hi=%g", lo, hi)
	}
	for i, v := range m.Data {
		if v < lo {
			m.Data[i] = lo
		} else if v > hi {
			m.Data[i] = hi
		}
	}
	return nil
}

// ClampMin raises every element below lo to lo in place.
func (m *Mat) ClampMin(lo float32) {
	for i, v := range m.Data {
		if v < lo {
			m.Data[i] = lo
		}
	}
}

// MaskUpperTriangle sets every element strictly above the diagonal to v.
// The diagonal itself is untouched. Defined only for square matrices.
func MaskUpperTriangle(m *Mat, v float32) error {
	if m.R != m.C {
		return fault.Errorf(fault.InvalidInput, "upper-triangle mask needs a square matrix, got %dx%d", m.R, m.C)
	}
	for i := 0; i < m.R; i++ {
		row := m.Row(i)
		for j := i + 1; j < m.C; j++ {
			row[j] = v
		}
	}
	return nil
}

// Sum reduces over dim: 0 sums each column into a [1,c] row, 1 sums each
// row into an [r,1] column.
func Sum(m *Mat, dim int) (*Mat, error) {
	return reduce(m, dim, func(acc, v float32) float32 { return acc + v }, 0, false)
}

// Max reduces over dim with the same output shapes as Sum.
func Max(m *Mat, dim int) (*Mat, error) {
	return reduce(m, dim, func(acc, v float32) float32 {
		if v > acc {
			return v
		}
		return acc
	}, float32(math.Inf(-1)), true)
}

func reduce(m *Mat, dim int, f func(acc, v float32) float32, init float32, seedFirst bool) (*Mat, error) {
	if m.R == 0 {
		return nil, fault.Errorf(fault.InvalidInput, "cannot reduce an empty matrix")
	}
	switch dim {
	case 0:
		out, err := New(1, m.C)
		if err != nil {
			return nil, err
		}
		if seedFirst {
			copy(out.Data, m.Row(0))
		} else {
			for j := range out.Data {
				out.Data[j] = init
			}
		}
		start := 0
		if seedFirst {
			start = 1
		}
		for i := start; i < m.R; i++ {
			row := m.Row(i)
			for j, v := range row {
				out.Data[j] = f(out.Data[j], v)
			}
		}
		return out, nil
	case 1:
		out, err := New(m.R, 1)
		if err != nil {
			return nil, err
		}
		for i := 0; i < m.R; i++ {
			row := m.Row(i)
			acc := init
			if seedFirst {
				acc = row[0]
				row = row[1:]
			}
			for _, v := range row {
				acc = f(acc, v)
			}
			out.Data[i] = acc
		}
		return out, nil
	default:
		return nil, fault.Errorf(fault.InvalidInput, "reduction dim must be 0 or 1, got %d", dim)
	}
}
