package model

import (
	"github.com/retrolm/retrolm/internal/fault"
	"github.com/retrolm/retrolm/internal/tensor"
)

// Cache accumulates the keys and values of every token processed in the
// current generation session. It is an append-only log: the only mutation
// is concatenating freshly projected rows, and rows already stored are
// never rewritten. A cache belongs to exactly one session and is not
// safe for concurrent use.
type Cache struct {
	embed int
	rows  int
	k     []float32
	v     []float32
}

// NewCache returns an empty cache for keys and values of width embed.
func NewCache(embed int) *Cache {
	return &Cache{embed: embed}
}

// Len returns the number of tokens cached so far.
func (c *Cache) Len() int { return c.rows }

// K returns the cached keys as a [len, embed] matrix view. The view
// aliases the cache's storage and is invalidated by the next Append.
func (c *Cache) K() *tensor.Mat {
	return &tensor.Mat{R: c.rows, C: c.embed, Stride: c.embed, Data: c.k[:c.rows*c.embed]}
}

// V returns the cached values as a [len, embed] matrix view with the same
// aliasing rules as K.
func (c *Cache) V() *tensor.Mat {
	return &tensor.Mat{R: c.rows, C: c.embed, Stride: c.embed, Data: c.v[:c.rows*c.embed]}
}

// Append extends the log with newly projected key and value rows. Both
// must be [n, embed] with the same n. Storage grows geometrically so a
// long decode does not reallocate per step.
func (c *Cache) Append(kNew, vNew *tensor.Mat) error {
	if kNew.C != c.embed || vNew.C != c.embed {
		return fault.Errorf(fault.InvalidInput,
			"cache width %d cannot take rows of width %d/%d", c.embed, kNew.C, vNew.C)
	}
	if kNew.R != vNew.R {
		return fault.Errorf(fault.InvalidInput,
			"key/value row count mismatch: %d vs %d", kNew.R, vNew.R)
	}
	need := (c.rows + kNew.R) * c.embed
	if cap(c.k) < need {
		grown := cap(c.k) * 2
		if grown < need {
			grown = need
		}
		k := make([]float32, len(c.k), grown)
		copy(k, c.k)
		c.k = k
		v := make([]float32, len(c.v), grown)
		copy(v, c.v)
		c.v = v
	}
	c.k = append(c.k, kNew.Data[:kNew.R*kNew.C]...)
	c.v = append(c.v, vNew.Data[:vNew.R*vNew.C]...)
	c.rows += kNew.R
	return nil
}
