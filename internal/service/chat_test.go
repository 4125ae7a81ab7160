package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/pagination"
	"github.com/cloo-solutions/admitbot/internal/router"
)

func TestChatService_Chat(t *testing.T) {
	r := new(MockTurnRouter)
	svc := NewChatService(r, new(MockHistoryRepository))

	r.On("Handle", mock.Anything, domain.RawQuery{RoomID: "r1", Text: "học phí"}).
		Return(&router.Reply{Response: "35 triệu", Route: domain.RouteRetrieval}, nil)

	reply, err := svc.Chat(context.Background(), "r1", "học phí")

	require.NoError(t, err)
	assert.Equal(t, "35 triệu", reply.Response)
	r.AssertExpectations(t)
}

func TestChatService_History(t *testing.T) {
	history := new(MockHistoryRepository)
	svc := NewChatService(new(MockTurnRouter), history)

	ts := mustCursor(t)
	page := &pagination.PageResult[*domain.ConversationTurn]{Items: []*domain.ConversationTurn{{ID: "t1"}}}
	history.On("ListByRoom", mock.Anything, "r1", mock.MatchedBy(func(c *pagination.Cursor) bool {
		return c != nil && c.LastID == "t9"
	}), 10).Return(page, nil)

	got, err := svc.History(context.Background(), "r1", ListInput{Cursor: ts, Limit: 10})

	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
	history.AssertExpectations(t)

	_, err = svc.History(context.Background(), "", ListInput{})
	assert.ErrorIs(t, err, domain.ErrMissingRoomID)
}

func TestChatService_DeleteRoom(t *testing.T) {
	history := new(MockHistoryRepository)
	turns := new(MockTurnRouter)
	svc := NewChatService(turns, history)

	turns.On("WithRoom", mock.Anything, mock.Anything).Return(nil)
	history.On("DeleteRoom", mock.Anything, "r1").Return(nil)
	history.On("DeleteRoom", mock.Anything, "missing").Return(domain.ErrRoomNotFound)

	assert.NoError(t, svc.DeleteRoom(context.Background(), "r1"))
	assert.ErrorIs(t, svc.DeleteRoom(context.Background(), "missing"), domain.ErrRoomNotFound)
	assert.ErrorIs(t, svc.DeleteRoom(context.Background(), ""), domain.ErrMissingRoomID)
	turns.AssertCalled(t, "WithRoom", mock.Anything, "r1")
}

func TestChatService_DeleteRoom_WaitCancelled(t *testing.T) {
	history := new(MockHistoryRepository)
	turns := new(MockTurnRouter)
	turns.On("WithRoom", mock.Anything, "r1").Return(context.DeadlineExceeded)

	err := NewChatService(turns, history).DeleteRoom(context.Background(), "r1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	history.AssertNotCalled(t, "DeleteRoom", mock.Anything, mock.Anything)
}

func mustCursor(t *testing.T) string {
	t.Helper()
	c := pagination.EncodeCursor("t9", testTime)
	require.NotEmpty(t, c)
	return c
}
