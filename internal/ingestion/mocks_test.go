package ingestion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/openai"
	"github.com/cloo-solutions/admitbot/internal/retrieval"
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

func (m *MockVectorIndex) Search(ctx context.Context, req retrieval.SearchRequest) ([]domain.ScoredChunk, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScoredChunk), args.Error(1)
}

type MockDocStore struct {
	mock.Mock
}

func (m *MockDocStore) Insert(ctx context.Context, chunks []*domain.Chunk) error {
	args := m.Called(ctx, chunks)
	return args.Error(0)
}

func (m *MockDocStore) DeleteByParent(ctx context.Context, parentID string) error {
	args := m.Called(ctx, parentID)
	return args.Error(0)
}

func (m *MockDocStore) FindByPublicID(ctx context.Context, publicID string) ([]*domain.Chunk, error) {
	args := m.Called(ctx, publicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Chunk), args.Error(1)
}

func (m *MockDocStore) Get(ctx context.Context, id string) (*domain.Chunk, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Chunk), args.Error(1)
}

type MockFileStore struct {
	mock.Mock
}

func (m *MockFileStore) Upsert(ctx context.Context, rec *domain.FileRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockFileStore) Delete(ctx context.Context, publicID string) error {
	args := m.Called(ctx, publicID)
	return args.Error(0)
}

type MockCleanupJobStore struct {
	mock.Mock
}

func (m *MockCleanupJobStore) Create(ctx context.Context, job *domain.CleanupJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

type MockSplitter struct {
	mock.Mock
}

func (m *MockSplitter) Split(ctx context.Context, text string) ([]Session, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Session), args.Error(1)
}

type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, messages []openai.Message, opts ...openai.CompletionOption) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

// seqUUID hands out predictable ids.
type seqUUID struct {
	mu sync.Mutex
	n  int
}

func (g *seqUUID) NewString() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

func now() time.Time {
	return time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)
}
