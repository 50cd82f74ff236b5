package model

import (
	"math"

	"github.com/retrolm/retrolm/internal/fault"
	"github.com/retrolm/retrolm/internal/layers"
	"github.com/retrolm/retrolm/internal/tensor"
)

// Attention is the single-head scaled dot-product self-attention block:
// four [embed, embed] projections, a causal mask, and a residual
// connection. Keys and values stream into the session cache.
type Attention struct {
	Wq, Wk, Wv, Wo layers.Linear
}

// Embed returns the block's embedding width.
func (a *Attention) Embed() int { return a.Wq.OutFeatures() }

// Forward runs attention over x of shape [n, embed] against cache, which
// already holds t previous tokens, and returns x + output projection.
//
// The new tokens occupy absolute positions t..t+n-1. Query i may attend
// to absolute positions 0..t+i inclusive; every later score cell is set
// to -Inf before the softmax. During single-step decode (n = 1) nothing
// is masked: the one query row sees every cached key plus its own.
// After the call the cache has grown by exactly n rows.
func (a *Attention) Forward(x *tensor.Mat, cache *Cache) (*tensor.Mat, error) {
	embed := a.Embed()
	if x.C != embed {
		return nil, fault.Errorf(fault.InvalidInput,
			"attention input width %d does not match embedding %d", x.C, embed)
	}

	q, err := a.Wq.Forward(x)
	if err != nil {
		return nil, err
	}
	kNew, err := a.Wk.Forward(x)
	if err != nil {
		return nil, err
	}
	vNew, err := a.Wv.Forward(x)
	if err != nil {
		return nil, err
	}

	prev := cache.Len()
	if err := cache.Append(kNew, vNew); err != nil {
		return nil, err
	}

	scores, err := tensor.MatMulT(q, cache.K())
	if err != nil {
		return nil, err
	}
	scores.Scale(float32(1 / math.Sqrt(float64(embed))))

	negInf := float32(math.Inf(-1))
	for i := 0; i < scores.R; i++ {
		row := scores.Row(i)
		for j := prev + i + 1; j < len(row); j++ {
			row[j] = negInf
		}
	}

	weights, err := layers.Softmax(scores)
	if err != nil {
		return nil, err
	}
	ctxVec, err := tensor.MatMul(weights, cache.V())
	if err != nil {
		return nil, err
	}
	out, err := a.Wo.Forward(ctxVec)
	if err != nil {
		return nil, err
	}
	return tensor.Add(x, out)
}
