package openai

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
)

// DefaultEmbeddingCacheEntries bounds CachingEmbedder when no size is given.
const DefaultEmbeddingCacheEntries = 4096

// Embedder is the embedding half of Client.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// CachingEmbedder memoizes embeddings by exact text. Repeated questions
// and the lookup-then-store pattern of the suggestion cache hit it.
type CachingEmbedder struct {
	inner Embedder
	cache *ristretto.Cache[string, []float32]
}

// NewCachingEmbedder wraps inner with a cache holding about maxEntries
// vectors.
func NewCachingEmbedder(inner Embedder, maxEntries int64) (*CachingEmbedder, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultEmbeddingCacheEntries
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, []float32]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}
	return &CachingEmbedder{inner: inner, cache: cache}, nil
}

// GenerateEmbedding returns the cached vector or computes and stores it.
func (e *CachingEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.cache.Get(text); ok {
		return v, nil
	}
	v, err := e.inner.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Set(text, v, 1)
	return v, nil
}

// Wait blocks until pending writes are visible to Get.
func (e *CachingEmbedder) Wait() {
	e.cache.Wait()
}

// Close releases the cache goroutines.
func (e *CachingEmbedder) Close() {
	e.cache.Close()
}
