// Package logits draws tokens from raw model outputs.
package logits

import (
	"math"
	"math/rand"

	"github.com/retrolm/retrolm/internal/fault"
)

// SamplerConfig configures a Sampler.
type SamplerConfig struct {
	// Seed initialises the PRNG. Callers seed from the wall clock for
	// interactive use and pin a value in tests.
	Seed int64

	// Temperature divides the logits before the softmax. Values at or
	// below zero are substituted with 1.0 at sample time rather than
	// rejected.
	Temperature float32

	// Greedy selects argmax decoding and ignores Temperature and the PRNG.
	Greedy bool
}

// Sampler draws token ids from logits rows via temperature-scaled
// softmax and an inverse-CDF walk. Sampling is non-destructive: the
// caller's logits row is left untouched and may be inspected afterwards.
// Draws are deterministic for a given PRNG state.
type Sampler struct {
	rng     *rand.Rand
	temp    float32
	greedy  bool
	scratch []float64
}

// NewSampler returns a sampler with its own PRNG stream.
func NewSampler(cfg SamplerConfig) *Sampler {
	temp := cfg.Temperature
	if temp <= 0 {
		temp = 1
	}
	return &Sampler{
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		temp:   temp,
		greedy: cfg.Greedy,
	}
}

// Sample draws one token id from a logits row.
func (s *Sampler) Sample(row []float32) (int, error) {
	if len(row) == 0 {
		return 0, fault.Errorf(fault.InvalidInput, "cannot sample from an empty logits row")
	}
	if s.greedy {
		return argmax(row), nil
	}

	maxv := row[0]
	for _, v := range row[1:] {
		if v > maxv {
			maxv = v
		}
	}

	if cap(s.scratch) < len(row) {
		s.scratch = make([]float64, len(row))
	}
	probs := s.scratch[:len(row)]

	invTemp := 1 / float64(s.temp)
	var sum float64
	for i, v := range row {
		e := math.Exp(float64(v-maxv) * invTemp)
		probs[i] = e
		sum += e
	}
	inv := 1 / sum
	for i := range probs {
		probs[i] *= inv
	}

	u := s.rng.Float64()
	var cum float64
	for i, p := range probs {
		cum += p
		if cum > u {
			return i, nil
		}
	}
	// The walk can only fall through when accumulated rounding leaves the
	// final cumulative sum fractionally below u.
	return len(row) - 1, nil
}

func argmax(row []float32) int {
	best := 0
	for i, v := range row {
		if v > row[best] {
			best = i
		}
	}
	return best
}
