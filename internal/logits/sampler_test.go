package logits

import (
	"testing"

	"github.com/retrolm/retrolm/internal/fault"
)

func TestSampleDeterministicForSeed(t *testing.T) {
	row := []float32{0.1, 2.5, -1, 0.7, 1.9}

	draw := func() []int {
		s := NewSampler(SamplerConfig{Seed: 42, Temperature: 1})
		out := make([]int, 10)
		for i := range out {
			tok, err := s.Sample(row)
			if err != nil {
				t.Fatalf("Sample: %v", err)
			}
			out[i] = tok
		}
		return out
	}

	first, second := draw(), draw()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("draw %d diverged: %d vs %d", i, first[i], second[i])
		}
	}
}

func TestSampleLeavesLogitsUntouched(t *testing.T) {
	row := []float32{3, 1, 4, 1, 5}
	orig := append([]float32(nil), row...)
	s := NewSampler(SamplerConfig{Seed: 7, Temperature: 0.5})
	if _, err := s.Sample(row); err != nil {
		t.Fatalf("Sample: %v", err)
	}
	for i := range row {
		if row[i] != orig[i] {
			t.Fatalf("logit %d mutated: %v vs %v", i, row[i], orig[i])
		}
	}
}

func TestNonPositiveTemperatureDefaults(t *testing.T) {
	// A non-positive temperature behaves as 1.0 rather than failing.
	a := NewSampler(SamplerConfig{Seed: 9, Temperature: -2})
	b := NewSampler(SamplerConfig{Seed: 9, Temperature: 1})
	row := []float32{0.3, 0.1, 0.9, 0.2}
	for i := 0; i < 20; i++ {
		ta, err := a.Sample(row)
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		tb, err := b.Sample(row)
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		if ta != tb {
			t.Fatalf("draw %d: temperature -2 sampled %d, temperature 1 sampled %d", i, ta, tb)
		}
	}
}

func TestGreedyPicksArgmax(t *testing.T) {
	s := NewSampler(SamplerConfig{Seed: 1, Greedy: true})
	row := []float32{0.5, 9, -3, 8.9}
	for i := 0; i < 5; i++ {
		tok, err := s.Sample(row)
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		if tok != 1 {
			t.Fatalf("greedy sampled %d, want 1", tok)
		}
	}
}

func TestLowTemperatureConcentrates(t *testing.T) {
	s := NewSampler(SamplerConfig{Seed: 3, Temperature: 0.05})
	row := []float32{0, 10, 0}
	for i := 0; i < 50; i++ {
		tok, err := s.Sample(row)
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		if tok != 1 {
			t.Fatalf("draw %d escaped the dominant token: %d", i, tok)
		}
	}
}

func TestSampleEmptyRow(t *testing.T) {
	s := NewSampler(SamplerConfig{Seed: 1, Temperature: 1})
	if _, err := s.Sample(nil); !fault.IsKind(err, fault.InvalidInput) {
		t.Fatalf("want invalid input, got %v", err)
	}
}
