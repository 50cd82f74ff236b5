// Package inference drives the autoregressive generation loop: one
// prefill pass over the prompt, then single-token decode steps until the
// stop rule fires or the token budget runs out.
package inference

import (
	"time"

	"github.com/retrolm/retrolm/internal/fault"
	"github.com/retrolm/retrolm/internal/logits"
	"github.com/retrolm/retrolm/internal/model"
	"github.com/retrolm/retrolm/internal/tensor"
)

// StreamFunc receives each printable generated character before the next
// decode step begins. Implementations must flush per call.
type StreamFunc func(b byte)

// Stats summarises one generation run.
type Stats struct {
	PromptTokens    int
	TokensGenerated int
	Duration        time.Duration
	TPS             float64
}

// Generator runs generation sessions against a loaded model. Each Run
// owns a fresh attention cache. The per-step index vector is reused
// across decode steps and the cache grows its storage geometrically, so
// the loop's steady-state allocations are limited to the forward pass
// intermediates.
//
// A Generator is single-threaded; callers wanting parallel sessions
// create one Generator per session over the shared read-only Parameters.
type Generator struct {
	Model   *model.Parameters
	Sampler *logits.Sampler

	// StopOnNonPrintable terminates decoding on any token below 32 other
	// than newline. When false such tokens are suppressed from the stream
	// but generation continues. Newline and tokens at or above 127 always
	// terminate.
	StopOnNonPrintable bool

	stepIdx [1]uint32
}

// Run generates up to maxTokens continuation bytes for prompt. Printable
// output bytes are handed to stream as they are sampled. The generated
// text (printable bytes only) is returned along with run statistics.
func (g *Generator) Run(prompt []byte, maxTokens int, stream StreamFunc) (string, Stats, error) {
	var stats Stats
	if maxTokens < 0 {
		return "", stats, fault.Errorf(fault.InvalidInput, "negative token budget %d", maxTokens)
	}
	if len(prompt) == 0 {
		return "", stats, fault.Errorf(fault.InvalidInput, "empty prompt")
	}
	if len(prompt) > g.Model.MaxSeqLen() {
		return "", stats, fault.Errorf(fault.InvalidInput,
			"prompt of %d tokens exceeds maximum sequence length %d", len(prompt), g.Model.MaxSeqLen())
	}

	start := time.Now()
	cache := model.NewCache(g.Model.Embed())

	// Prefill: one pass over the whole prompt. The logits are discarded;
	// the pass exists to seed the cache with the prompt's keys and values.
	promptIDs := make([]uint32, len(prompt))
	for i, b := range prompt {
		promptIDs[i] = uint32(b)
	}
	promptIdx, err := tensor.IntFromData(promptIDs)
	if err != nil {
		return "", stats, err
	}
	if _, err := g.Model.Forward(promptIdx, 0, cache); err != nil {
		return "", stats, err
	}
	stats.PromptTokens = len(prompt)

	out := make([]byte, 0, maxTokens)
	last := promptIDs[len(promptIDs)-1]

	for t := 0; t < maxTokens; t++ {
		pos := cache.Len()
		if pos >= g.Model.MaxSeqLen() {
			break
		}

		g.stepIdx[0] = last
		stepVec := tensor.IntMat{R: 1, C: 1, Data: g.stepIdx[:]}
		logitsMat, err := g.Model.Forward(&stepVec, pos, cache)
		if err != nil {
			return string(out), stats, err
		}

		next, err := g.Sampler.Sample(logitsMat.Row(0))
		if err != nil {
			return string(out), stats, err
		}
		stats.TokensGenerated++

		if next == '\n' || next >= 127 {
			break
		}
		if next < 32 {
			if g.StopOnNonPrintable {
				break
			}
			last = uint32(next)
			continue
		}

		out = append(out, byte(next))
		if stream != nil {
			stream(byte(next))
		}
		last = uint32(next)
	}

	stats.Duration = time.Since(start)
	if secs := stats.Duration.Seconds(); secs > 0 {
		stats.TPS = float64(stats.TokensGenerated) / secs
	}
	return string(out), stats, nil
}
