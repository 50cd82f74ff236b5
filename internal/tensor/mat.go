// Package tensor provides the dense row-major matrix type and the small
// fixed operation set the rest of the engine is built on: element-wise
// arithmetic with broadcasting, matrix products, reductions, and the
// in-place transforms used by the attention path.
package tensor

import (
	"fmt"
	"math"
	"strings"

	"github.com/retrolm/retrolm/internal/fault"
)

// Mat is a dense row-major matrix of float32 values. R and C are the row
// and column counts; Stride is the element distance between consecutive
// row starts and always equals C for matrices built by this package.
//
// A Mat with R == 0 and C > 0 is a valid empty matrix with a known column
// width. It is the starting state of the attention cache.
type Mat struct {
	R, C   int
	Stride int
	Data   []float32
}

// IntMat is a matrix of token or position identifiers with the same shape
// semantics as Mat.
type IntMat struct {
	R, C int
	Data []uint32
}

// maxElems caps a single allocation at 2^31-1 elements so r*c arithmetic
// stays valid on 32-bit targets.
const maxElems = math.MaxInt32

func checkDims(r, c int, allowEmpty bool) error {
	if r < 0 || c < 0 {
		return fault.Errorf(fault.InvalidInput, "negative matrix dimension %dx%d", r, c)
	}
	if c == 0 || (r == 0 && !allowEmpty) {
		return fault.Errorf(fault.InvalidInput, "zero matrix dimension %dx%d", r, c)
	}
	if r > 0 && c > maxElems/r {
		return fault.Errorf(fault.MemoryError, "matrix %dx%d exceeds allocation limit", r, c)
	}
	return nil
}

// New allocates a zero-initialised r x c matrix.
func New(r, c int) (*Mat, error) {
	if err := checkDims(r, c, false); err != nil {
		return nil, err
	}
	return &Mat{R: r, C: c, Stride: c, Data: make([]float32, r*c)}, nil
}

// NewEmpty returns a 0 x c matrix. Rows are added with VStack; the
// attention cache starts in this state.
func NewEmpty(c int) *Mat {
	if c <= 0 {
		panic("tensor: empty matrix needs a positive column count")
	}
	return &Mat{R: 0, C: c, Stride: c, Data: nil}
}

// FromData wraps an existing slice as an r x c matrix. The slice is not
// copied; it must hold exactly r*c elements.
func FromData(r, c int, data []float32) (*Mat, error) {
	if err := checkDims(r, c, true); err != nil {
		return nil, err
	}
	if len(data) != r*c {
		return nil, fault.Errorf(fault.InvalidInput, "data length %d does not match %dx%d", len(data), r, c)
	}
	return &Mat{R: r, C: c, Stride: c, Data: data}, nil
}

// NewInt allocates a zero-initialised r x c identifier matrix.
func NewInt(r, c int) (*IntMat, error) {
	if err := checkDims(r, c, false); err != nil {
		return nil, err
	}
	return &IntMat{R: r, C: c, Data: make([]uint32, r*c)}, nil
}

// IntFromData wraps an identifier slice as a 1 x len(data) index vector.
// The slice is not copied.
func IntFromData(data []uint32) (*IntMat, error) {
	if len(data) == 0 {
		return nil, fault.Errorf(fault.InvalidInput, "empty index vector")
	}
	return &IntMat{R: 1, C: len(data), Data: data}, nil
}

// At returns m[i,j].
func (m *Mat) At(i, j int) (float32, error) {
	if i < 0 || i >= m.R || j < 0 || j >= m.C {
		return 0, fault.Errorf(fault.IndexError, "index (%d,%d) out of range for %dx%d matrix", i, j, m.R, m.C)
	}
	return m.Data[i*m.Stride+j], nil
}

// Set stores v at m[i,j].
func (m *Mat) Set(i, j int, v float32) error {
	if i < 0 || i >= m.R || j < 0 || j >= m.C {
		return fault.Errorf(fault.IndexError, "index (%d,%d) out of range for %dx%d matrix", i, j, m.R, m.C)
	}
	m.Data[i*m.Stride+j] = v
	return nil
}

// Row returns the i-th row as a view into the backing slice. Writes
// through the returned slice mutate the matrix. Out-of-range rows panic;
// callers index rows they already validated.
func (m *Mat) Row(i int) []float32 {
	if i < 0 || i >= m.R {
		panic("tensor: row index out of range")
	}
	start := i * m.Stride
	return m.Data[start : start+m.C]
}

// Copy returns a deep copy. Mutating the original afterwards does not
// affect the copy.
func (m *Mat) Copy() *Mat {
	dup := make([]float32, len(m.Data))
	copy(dup, m.Data)
	return &Mat{R: m.R, C: m.C, Stride: m.C, Data: dup}
}

// Equal reports exact equality of shape and contents.
func (m *Mat) Equal(o *Mat) bool {
	if m.R != o.R || m.C != o.C {
		return false
	}
	for i := range m.Data {
		if m.Data[i] != o.Data[i] {
			return false
		}
	}
	return true
}

// Identity returns the n x n identity matrix.
func Identity(n int) (*Mat, error) {
	m, err := New(n, n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		m.Data[i*m.Stride+i] = 1
	}
	return m, nil
}

// RowSelect gathers rows of m by a 1 x k index vector, producing a k x C
// matrix. Any index at or past m.R fails.
func RowSelect(m *Mat, idx *IntMat) (*Mat, error) {
	if idx.R != 1 {
		return nil, fault.Errorf(fault.InvalidInput, "row selection needs a 1xk index vector, got %dx%d", idx.R, idx.C)
	}
	out, err := New(idx.C, m.C)
	if err != nil {
		return nil, err
	}
	for i, id := range idx.Data {
		if int(id) >= m.R {
			return nil, fault.Errorf(fault.IndexError, "row index %d out of range for %d rows", id, m.R)
		}
		copy(out.Row(i), m.Row(int(id)))
	}
	return out, nil
}

// VStack returns a new matrix with the rows of a followed by the rows of
// b. Either argument may be empty (zero rows); column counts must agree.
func VStack(a, b *Mat) (*Mat, error) {
	if a.C != b.C {
		return nil, fault.Errorf(fault.InvalidInput, "vstack column mismatch: %d vs %d", a.C, b.C)
	}
	if err := checkDims(a.R+b.R, a.C, true); err != nil {
		return nil, err
	}
	data := make([]float32, (a.R+b.R)*a.C)
	copy(data, a.Data[:a.R*a.C])
	copy(data[a.R*a.C:], b.Data[:b.R*b.C])
	return &Mat{R: a.R + b.R, C: a.C, Stride: a.C, Data: data}, nil
}

// String formats the matrix for debug output, eliding long rows.
func (m *Mat) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Mat %dx%d", m.R, m.C)
	const maxShow = 8
	for i := 0; i < m.R && i < maxShow; i++ {
		sb.WriteString("\n  [")
		for j, v := range m.Row(i) {
			if j >= maxShow {
				sb.WriteString(" ...")
				break
			}
			if j > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%.4g", v)
		}
		sb.WriteByte(']')
	}
	if m.R > maxShow {
		sb.WriteString("\n  ...")
	}
	return sb.String()
}
