package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"LeadScout/internal/domain"
	"LeadScout/internal/ports"
)

// Cached wraps an embedder with a dimension check and an LRU keyed by the text digest,
// so the detector and the commit coordinator share one generation per lead text.
type Cached struct {
	inner     ports.Embedder
	dimension int
	cache     *lru.Cache[string, []float32]
}

var _ ports.Embedder = (*Cached)(nil)

// NewCached wraps inner. size <= 0 disables caching but keeps the dimension check.
func NewCached(inner ports.Embedder, dimension, size int) (*Cached, error) {
	c := &Cached{inner: inner, dimension: dimension}
	if size > 0 {
		cache, err := lru.New[string, []float32](size)
		if err != nil {
			return nil, fmt.Errorf("embedding cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// Embed returns a vector of exactly the configured dimension or an error.
func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	key := digest(text)
	if c.cache != nil {
		if vec, ok := c.cache.Get(key); ok {
			return clone(vec), nil
		}
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckDimension(vec, c.dimension); err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Add(key, clone(vec))
	}
	return vec, nil
}

func digest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func clone(v []float32) []float32 {
	return append([]float32(nil), v...)
}
