package retrieval

import (
	"context"
	"strings"

	"github.com/stretchr/testify/mock"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/openai"
)

type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type MockVectorIndex struct {
	mock.Mock
}

func (m *MockVectorIndex) Insert(ctx context.Context, chunks []*domain.Chunk) error {
	args := m.Called(ctx, chunks)
	return args.Error(0)
}

func (m *MockVectorIndex) DeleteByParent(ctx context.Context, parentID string) error {
	args := m.Called(ctx, parentID)
	return args.Error(0)
}

func (m *MockVectorIndex) Search(ctx context.Context, req SearchRequest) ([]domain.ScoredChunk, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScoredChunk), args.Error(1)
}

type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, messages []openai.Message, opts ...openai.CompletionOption) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

// wordCounter counts whitespace-separated words so budgets are easy to
// reason about in tests.
type wordCounter struct{}

func (wordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

func hit(id string, seq int64, score float32) domain.ScoredChunk {
	return domain.ScoredChunk{Chunk: domain.Chunk{ID: id, Seq: seq, Text: "chunk " + id}, Score: score}
}

func ids(hits []domain.ScoredChunk) []string {
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.Chunk.ID)
	}
	return out
}
