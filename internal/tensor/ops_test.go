package tensor

import (
	"math"
	"testing"

	"github.com/retrolm/retrolm/internal/fault"
)

func TestAddBroadcast(t *testing.T) {
	base := []float32{1, 2, 3, 4, 5, 6}

	cases := []struct {
		name string
		bR   int
		bC   int
		b    []float32
		want []float32
	}{
		{"full", 2, 3, []float32{1, 1, 1, 1, 1, 1}, []float32{2, 3, 4, 5, 6, 7}},
		{"row", 1, 3, []float32{10, 20, 30}, []float32{11, 22, 33, 14, 25, 36}},
		{"col", 2, 1, []float32{10, 20}, []float32{11, 12, 13, 24, 25, 26}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := mustNew(t, 2, 3, append([]float32(nil), base...))
			b := mustNew(t, tc.bR, tc.bC, tc.b)
			got, err := Add(a, b)
			if err != nil {
				t.Fatalf("Add: %v", err)
			}
			compareMat(t, got, 2, 3, tc.want, 0)
		})
	}
}

func TestAddShapeMismatch(t *testing.T) {
	a := mustNew(t, 2, 3, make([]float32, 6))
	b := mustNew(t, 3, 2, make([]float32, 6))
	if _, err := Add(a, b); !fault.IsKind(err, fault.InvalidInput) {
		t.Fatalf("want invalid input, got %v", err)
	}
}

func TestSubDiv(t *testing.T) {
	a := mustNew(t, 1, 3, []float32{10, 20, 30})
	b := mustNew(t, 1, 3, []float32{2, 4, 5})
	sub, err := Sub(a, b)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	compareMat(t, sub, 1, 3, []float32{8, 16, 25}, 0)
	div, err := Div(a, b)
	if err != nil {
		t.Fatalf("Div: %v", err)
	}
	compareMat(t, div, 1, 3, []float32{5, 5, 6}, 0)
}

func TestExp(t *testing.T) {
	m := mustNew(t, 1, 3, []float32{0, 1, -1})
	got, err := Exp(m)
	if err != nil {
		t.Fatalf("Exp: %v", err)
	}
	compareMat(t, got, 1, 3, []float32{1, float32(math.E), float32(1 / math.E)}, 1e-6)
}

func TestInPlaceOps(t *testing.T) {
	m := mustNew(t, 1, 4, []float32{-2, -1, 1, 2})
	m.Scale(2)
	compareMat(t, m, 1, 4, []float32{-4, -2, 2, 4}, 0)
	m.Shift(1)
	compareMat(t, m, 1, 4, []float32{-3, -1, 3, 5}, 0)
	if err := m.Clamp(-2, 4); err != nil {
		t.Fatalf("Clamp: %v", err)
	}
	compareMat(t, m, 1, 4, []float32{-2, -1, 3, 4}, 0)
	m.ClampMin(0)
	compareMat(t, m, 1, 4, []float32{0, 0, 3, 4}, 0)
}

func TestClampRejectsInvertedBounds(t *testing.T) {
	m := mustNew(t, 1, 1, []float32{0})
	if err := m.Clamp(1, 1); !fault.IsKind(err, fault.InvalidInput) {
		t.Fatalf("want invalid input, got %v", err)
	}
}

func TestMaskUpperTriangle(t *testing.T) {
	m := mustNew(t, 3, 3, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9})
	negInf := float32(math.Inf(-1))
	if err := MaskUpperTriangle(m, negInf); err != nil {
		t.Fatalf("mask: %v", err)
	}
	want := []float32{1, negInf, negInf, 4, 5, negInf, 7, 8, 9}
	compareMat(t, m, 3, 3, want, 0)
}

func TestMaskRequiresSquare(t *testing.T) {
	m := mustNew(t, 2, 3, make([]float32, 6))
	if err := MaskUpperTriangle(m, 0); !fault.IsKind(err, fault.InvalidInput) {
		t.Fatalf("want invalid input, got %v", err)
	}
}

func TestReductions(t *testing.T) {
	m := mustNew(t, 2, 3, []float32{1, 5, 3, 4, 2, 6})

	sum0, err := Sum(m, 0)
	if err != nil {
		t.Fatalf("Sum dim 0: %v", err)
	}
	compareMat(t, sum0, 1, 3, []float32{5, 7, 9}, 0)

	sum1, err := Sum(m, 1)
	if err != nil {
		t.Fatalf("Sum dim 1: %v", err)
	}
	compareMat(t, sum1, 2, 1, []float32{9, 12}, 0)

	max0, err := Max(m, 0)
	if err != nil {
		t.Fatalf("Max dim 0: %v", err)
	}
	compareMat(t, max0, 1, 3, []float32{4, 5, 6}, 0)

	max1, err := Max(m, 1)
	if err != nil {
		t.Fatalf("Max dim 1: %v", err)
	}
	compareMat(t, max1, 2, 1, []float32{5, 6}, 0)

	if _, err := Sum(m, 2); !fault.IsKind(err, fault.InvalidInput) {
		t.Fatalf("dim 2: want invalid input, got %v", err)
	}
}
