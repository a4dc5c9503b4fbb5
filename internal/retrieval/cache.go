package retrieval

import (
	"context"
	"time"

	"github.com/harborlend/underwriteai/internal/infra"
)

// CachingEmbedder wraps an Embedder with an in-memory vector cache and a
// rate limiter. The fixed metric queries are embedded on every policy
// lookup, so caching them saves an API round trip per request.
type CachingEmbedder struct {
	inner   Embedder
	cache   *infra.Cache[[]float64]
	limiter *infra.RateLimiter
}

// NewCachingEmbedder wraps inner. Vectors are cached for an hour and
// upstream calls are limited to 60 per minute.
func NewCachingEmbedder(inner Embedder) *CachingEmbedder {
	return &CachingEmbedder{
		inner:   inner,
		cache:   infra.NewCache[[]float64](time.Hour),
		limiter: infra.NewRateLimiter(60, time.Minute),
	}
}

// Embed returns one vector per input, serving repeats from the cache and
// batching only the misses to the wrapped embedder.
func (c *CachingEmbedder) Embed(ctx context.Context, inputs []string) ([][]float64, error) {
	out := make([][]float64, len(inputs))
	var misses []string
	var missIdx []int

	for i, input := range inputs {
		if vec, ok := c.cache.Get(input); ok {
			out[i] = vec
			continue
		}
		misses = append(misses, input)
		missIdx = append(missIdx, i)
	}
	if len(misses) == 0 {
		return out, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	vectors, err := c.inner.Embed(ctx, misses)
	if err != nil {
		return nil, err
	}
	for j, vec := range vectors {
		out[missIdx[j]] = vec
		c.cache.Set(misses[j], vec)
	}
	return out, nil
}
