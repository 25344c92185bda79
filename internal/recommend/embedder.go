package recommend

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Bultut-yegon/Vocalearn-lms/internal/content"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/llm"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/metrics"
)

// QueryEmbedder turns free-text queries into normalized vectors.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
}

// CachedEmbedder embeds queries through an llm.Embedder and keeps recent
// results in an LRU cache. Cached vectors are already normalized.
type CachedEmbedder struct {
	embedder llm.Embedder
	cache    *lru.Cache[string, []float64]
}

// NewCachedEmbedder wraps e with a cache of the given size.
func NewCachedEmbedder(e llm.Embedder, size int) (*CachedEmbedder, error) {
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, []float64](size)
	if err != nil {
		return nil, fmt.Errorf("creating query cache: %w", err)
	}
	return &CachedEmbedder{embedder: e, cache: cache}, nil
}

// EmbedQuery returns the normalized embedding of text.
func (c *CachedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	key := strings.TrimSpace(text)
	if v, ok := c.cache.Get(key); ok {
		metrics.RecordCacheLookup(true)
		return v, nil
	}
	metrics.RecordCacheLookup(false)

	vecs, err := c.embedder.Embed(ctx, []string{key})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(vecs))
	}
	v := content.Normalize(vecs[0])
	c.cache.Add(key, v)
	return v, nil
}

// Len reports the number of cached queries.
func (c *CachedEmbedder) Len() int { return c.cache.Len() }
