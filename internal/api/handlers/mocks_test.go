package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/ingestion"
	"github.com/cloo-solutions/admitbot/internal/pagination"
	"github.com/cloo-solutions/admitbot/internal/router"
	"github.com/cloo-solutions/admitbot/internal/service"
)

type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Chat(ctx context.Context, roomID, query string) (*router.Reply, error) {
	args := m.Called(ctx, roomID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*router.Reply), args.Error(1)
}

func (m *MockChatService) History(ctx context.Context, roomID string, input service.ListInput) (*pagination.PageResult[*domain.ConversationTurn], error) {
	args := m.Called(ctx, roomID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pagination.PageResult[*domain.ConversationTurn]), args.Error(1)
}

func (m *MockChatService) DeleteRoom(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) IngestFiles(ctx context.Context, inputs []service.IngestFileInput) []service.IngestResult {
	args := m.Called(ctx, inputs)
	return args.Get(0).([]service.IngestResult)
}

func (m *MockFileService) Delete(ctx context.Context, publicID string) (*ingestion.DeleteReport, error) {
	args := m.Called(ctx, publicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ingestion.DeleteReport), args.Error(1)
}

func (m *MockFileService) List(ctx context.Context, input service.ListInput) (*pagination.PageResult[service.FileView], error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pagination.PageResult[service.FileView]), args.Error(1)
}

type MockSuggestionService struct {
	mock.Mock
}

func (m *MockSuggestionService) List(ctx context.Context, input service.ListInput) (*pagination.PageResult[*domain.Suggestion], error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pagination.PageResult[*domain.Suggestion]), args.Error(1)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
