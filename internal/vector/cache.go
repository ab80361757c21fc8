package vector

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fmarques/imago/internal/metrics"
)

// CachedEmbedder memoizes embeddings in an LRU keyed by model and input text.
// Query vectors are ephemeral and never persisted; repeated searches for the
// same text skip the round trip to the embedding model.
type CachedEmbedder struct {
	inner TextEmbedder
	model string
	cache *lru.Cache[string, []float32]
}

func NewCachedEmbedder(inner TextEmbedder, model string, size int) (*CachedEmbedder, error) {
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &CachedEmbedder{inner: inner, model: model, cache: cache}, nil
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.model + "\x00" + text
	if vec, ok := c.cache.Get(key); ok {
		metrics.EmbeddingCacheHits.Inc()
		return vec, nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, vec)
	return vec, nil
}
