// Package retrieval embeds chunks and questions and ranks chunks by similarity.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"

	"github.com/markdave123-py/docsense/internal/core"
	"github.com/markdave123-py/docsense/internal/models"
)

const DefaultCacheSize = 1000

// CachedEmbedder memoizes an EmbeddingProvider by exact text with LRU eviction.
// Failed embeddings are never cached. Two concurrent misses for the same text
// may both reach the provider; the last result wins.
//
// Returned vectors are shared with the cache and must not be modified.
type CachedEmbedder struct {
	provider core.EmbeddingProvider
	cache    *lru.Cache
	hits     atomic.Int64
	misses   atomic.Int64
}

var _ core.EmbeddingProvider = (*CachedEmbedder)(nil)

func NewCachedEmbedder(provider core.EmbeddingProvider, size int) (*CachedEmbedder, error) {
	if provider == nil {
		return nil, errors.New("embedding provider is nil")
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &CachedEmbedder{provider: provider, cache: c}, nil
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		c.hits.Add(1)
		return v.(models.Embedding).Vector, nil
	}
	c.misses.Add(1)

	vec, err := c.provider.Embed(ctx, text)
	if err == nil && len(vec) == 0 {
		err = errors.New("empty vector")
	}
	if err == nil {
		if want := c.provider.Dimensions(); want > 0 && len(vec) != want {
			err = fmt.Errorf("dimension mismatch: got %d, want %d", len(vec), want)
		}
	}
	if err != nil {
		return nil, core.NewError(core.ErrEmbeddingFailure, "embed", preview(text), err)
	}
	c.cache.Add(text, models.Embedding{Text: text, Vector: vec})
	return vec, nil
}

func (c *CachedEmbedder) Dimensions() int { return c.provider.Dimensions() }

func (c *CachedEmbedder) ModelName() string { return c.provider.ModelName() }

// Stats reports cache hits and misses since construction.
func (c *CachedEmbedder) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *CachedEmbedder) Len() int { return c.cache.Len() }

func (c *CachedEmbedder) Purge() { c.cache.Purge() }

func preview(s string) string {
	r := []rune(s)
	if len(r) <= 40 {
		return s
	}
	return string(r[:40]) + "..."
}
