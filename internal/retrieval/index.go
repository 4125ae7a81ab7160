// Package retrieval implements hybrid dense/sparse search over ingested
// chunks and grounded answer generation.
package retrieval

import (
	"context"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/openai"
)

// SearchRequest carries both halves of a hybrid query. Alpha weighs the
// dense score: 1 is pure vector search, 0 is pure keyword search.
type SearchRequest struct {
	Query     string
	Embedding []float32
	Alpha     float32
	Limit     int
}

// VectorIndex stores embedded chunks and answers hybrid queries.
type VectorIndex interface {
	Insert(ctx context.Context, chunks []*domain.Chunk) error
	DeleteByParent(ctx context.Context, parentID string) error
	Search(ctx context.Context, req SearchRequest) ([]domain.ScoredChunk, error)
}

// Embedder turns text into a dense vector.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Completer runs a single-shot chat completion.
type Completer interface {
	Complete(ctx context.Context, messages []openai.Message, opts ...openai.CompletionOption) (string, error)
}
