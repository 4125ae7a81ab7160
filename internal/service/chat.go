package service

import (
	"context"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/pagination"
	"github.com/cloo-solutions/admitbot/internal/router"
)

// HistoryRepositoryInterface defines the repository interface for chat history
type HistoryRepositoryInterface interface {
	ListByRoom(ctx context.Context, roomID string, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.ConversationTurn], error)
	DeleteRoom(ctx context.Context, roomID string) error
}

// TurnRouter answers one query and serializes other work on a room.
type TurnRouter interface {
	Handle(ctx context.Context, raw domain.RawQuery) (*router.Reply, error)
	WithRoom(ctx context.Context, roomID string, fn func(ctx context.Context) error) error
}

// ChatService answers queries and manages room histories.
type ChatService struct {
	router  TurnRouter
	history HistoryRepositoryInterface
}

// NewChatService creates a new ChatService instance
func NewChatService(r TurnRouter, history HistoryRepositoryInterface) *ChatService {
	return &ChatService{router: r, history: history}
}

// Chat answers query in room.
func (s *ChatService) Chat(ctx context.Context, roomID, query string) (*router.Reply, error) {
	return s.router.Handle(ctx, domain.RawQuery{RoomID: roomID, Text: query})
}

// History pages through a room's turns, newest first.
func (s *ChatService) History(ctx context.Context, roomID string, input ListInput) (*pagination.PageResult[*domain.ConversationTurn], error) {
	if roomID == "" {
		return nil, domain.ErrMissingRoomID
	}
	cursor, err := decodeCursor(input.Cursor)
	if err != nil {
		return nil, err
	}
	return s.history.ListByRoom(ctx, roomID, cursor, pagination.ClampLimit(input.Limit, defaultPageSize, maxPageSize))
}

// DeleteRoom removes a room's history once any turn in flight there has
// been stored.
func (s *ChatService) DeleteRoom(ctx context.Context, roomID string) error {
	if roomID == "" {
		return domain.ErrMissingRoomID
	}
	return s.router.WithRoom(ctx, roomID, func(ctx context.Context) error {
		return s.history.DeleteRoom(ctx, roomID)
	})
}
