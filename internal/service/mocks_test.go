package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/ingestion"
	"github.com/cloo-solutions/admitbot/internal/loader"
	"github.com/cloo-solutions/admitbot/internal/pagination"
	"github.com/cloo-solutions/admitbot/internal/router"
)

type MockSuggestionRepository struct {
	mock.Mock
}

func (m *MockSuggestionRepository) Create(ctx context.Context, s *domain.Suggestion) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSuggestionRepository) FindNearest(ctx context.Context, embedding []float32, minScore float32) (*domain.Suggestion, error) {
	args := m.Called(ctx, embedding, minScore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Suggestion), args.Error(1)
}

func (m *MockSuggestionRepository) List(ctx context.Context, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.Suggestion], error) {
	args := m.Called(ctx, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pagination.PageResult[*domain.Suggestion]), args.Error(1)
}

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

type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) ListByRoom(ctx context.Context, roomID string, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.ConversationTurn], error) {
	args := m.Called(ctx, roomID, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pagination.PageResult[*domain.ConversationTurn]), args.Error(1)
}

func (m *MockHistoryRepository) DeleteRoom(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

type MockTurnRouter struct {
	mock.Mock
}

func (m *MockTurnRouter) Handle(ctx context.Context, raw domain.RawQuery) (*router.Reply, error) {
	args := m.Called(ctx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*router.Reply), args.Error(1)
}

// WithRoom runs fn directly unless an error is configured.
func (m *MockTurnRouter) WithRoom(ctx context.Context, roomID string, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, roomID)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}

type MockFileRepository struct {
	mock.Mock
}

func (m *MockFileRepository) GetByPublicID(ctx context.Context, publicID string) (*domain.FileRecord, error) {
	args := m.Called(ctx, publicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FileRecord), args.Error(1)
}

func (m *MockFileRepository) List(ctx context.Context, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.FileRecord], error) {
	args := m.Called(ctx, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pagination.PageResult[*domain.FileRecord]), args.Error(1)
}

type MockDocumentLoader struct {
	mock.Mock
}

func (m *MockDocumentLoader) Load(ctx context.Context, src loader.Source) (*loader.Loaded, error) {
	args := m.Called(ctx, src)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loader.Loaded), args.Error(1)
}

type MockKnowledgeManager struct {
	mock.Mock
}

func (m *MockKnowledgeManager) Ingest(ctx context.Context, req ingestion.IngestRequest) (*domain.FileRecord, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FileRecord), args.Error(1)
}

func (m *MockKnowledgeManager) Delete(ctx context.Context, publicID string) (*ingestion.DeleteReport, error) {
	args := m.Called(ctx, publicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ingestion.DeleteReport), args.Error(1)
}

type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) PutObject(ctx context.Context, key string, body []byte, contentType string) error {
	args := m.Called(ctx, key, body, contentType)
	return args.Error(0)
}

func (m *MockObjectStorage) DeleteObject(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockObjectStorage) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}
