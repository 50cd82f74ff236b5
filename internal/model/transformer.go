// Package model assembles the single-layer causal transformer: token and
// positional embeddings, the cached attention block, the feed-forward
// sub-block, and the vocabulary head.
package model

import (
	"github.com/retrolm/retrolm/internal/fault"
	"github.com/retrolm/retrolm/internal/layers"
	"github.com/retrolm/retrolm/internal/tensor"
)

// Parameters owns every weight of the model. All matrices are immutable
// after construction; the vocabulary head shares the token-embedding
// matrix by reference (weight tying), so the head stores only its bias.
type Parameters struct {
	TokenEmbed layers.Embedding
	PosEmbed   *tensor.Mat
	Attn       Attention
	FF1        layers.Linear
	FF2        layers.Linear
	LMHead     layers.Linear
}

// New wires a parameter set, ties the vocabulary head to the token
// embeddings, and validates every cross-shape constraint once so the
// forward path can trust them.
func New(tokenEmbed, posEmbed *tensor.Mat, attn Attention, ff1, ff2 layers.Linear, lmHeadBias *tensor.Mat) (*Parameters, error) {
	embed := tokenEmbed.C
	if posEmbed.C != embed {
		return nil, fault.Errorf(fault.InvalidInput,
			"positional embedding width %d does not match token embedding %d", posEmbed.C, embed)
	}
	if attn.Embed() != embed {
		return nil, fault.Errorf(fault.InvalidInput,
			"attention width %d does not match embedding %d", attn.Embed(), embed)
	}
	if ff1.InFeatures() != embed || ff2.OutFeatures() != embed || ff1.OutFeatures() != ff2.InFeatures() {
		return nil, fault.Errorf(fault.InvalidInput,
			"feed-forward shapes [%d,%d] x [%d,%d] do not chain through embedding %d",
			ff1.OutFeatures(), ff1.InFeatures(), ff2.OutFeatures(), ff2.InFeatures(), embed)
	}
	lmHead, err := layers.NewLinear(tokenEmbed, lmHeadBias)
	if err != nil {
		return nil, err
	}
	return &Parameters{
		TokenEmbed: layers.Embedding{W: tokenEmbed},
		PosEmbed:   posEmbed,
		Attn:       attn,
		FF1:        ff1,
		FF2:        ff2,
		LMHead:     lmHead,
	}, nil
}

// Embed returns the hidden width.
func (p *Parameters) Embed() int { return p.TokenEmbed.Dim() }

// Vocab returns the vocabulary size.
func (p *Parameters) Vocab() int { return p.TokenEmbed.Vocab() }

// MaxSeqLen returns the number of absolute positions the model can
// encode; valid positions are 0..MaxSeqLen()-1.
func (p *Parameters) MaxSeqLen() int { return p.PosEmbed.R }

// FFDim returns the feed-forward inner width.
func (p *Parameters) FFDim() int { return p.FF1.OutFeatures() }

// Forward runs one decoder pass over a 1 x n index vector whose first
// token sits at absolute position pos, threading keys and values through
// cache. It returns the [n, vocab] logits.
func (p *Parameters) Forward(tokens *tensor.IntMat, pos int, cache *Cache) (*tensor.Mat, error) {
	if tokens.R != 1 {
		return nil, fault.Errorf(fault.InvalidInput,
			"forward accepts a single sequence, got batch of %d", tokens.R)
	}
	n := tokens.C
	if pos < 0 || pos+n > p.MaxSeqLen() {
		return nil, fault.Errorf(fault.InvalidInput,
			"positions %d..%d exceed maximum sequence length %d", pos, pos+n, p.MaxSeqLen())
	}

	x, err := p.TokenEmbed.Lookup(tokens)
	if err != nil {
		return nil, err
	}

	posIdx := make([]uint32, n)
	for i := range posIdx {
		posIdx[i] = uint32(pos + i)
	}
	posVec, err := tensor.IntFromData(posIdx)
	if err != nil {
		return nil, err
	}
	posRows, err := tensor.RowSelect(p.PosEmbed, posVec)
	if err != nil {
		return nil, err
	}
	x, err = tensor.Add(x, posRows)
	if err != nil {
		return nil, err
	}

	x, err = p.Attn.Forward(x, cache)
	if err != nil {
		return nil, err
	}

	h, err := p.FF1.Forward(x)
	if err != nil {
		return nil, err
	}
	layers.ReLU(h)
	h, err = p.FF2.Forward(h)
	if err != nil {
		return nil, err
	}
	x, err = tensor.Add(x, h)
	if err != nil {
		return nil, err
	}

	return p.LMHead.Forward(x)
}
