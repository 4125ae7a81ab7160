package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cloo-solutions/admitbot/internal/api"
	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/pagination"
	"github.com/cloo-solutions/admitbot/internal/router"
	"github.com/cloo-solutions/admitbot/internal/service"
)

type ChatService interface {
	Chat(ctx context.Context, roomID, query string) (*router.Reply, error)
	History(ctx context.Context, roomID string, input service.ListInput) (*pagination.PageResult[*domain.ConversationTurn], error)
	DeleteRoom(ctx context.Context, roomID string) error
}

type ChatHandler struct {
	svc ChatService
}

func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type ChatRequest struct {
	RoomID string `json:"room_id" validate:"required,max=128"`
	Query  string `json:"query" validate:"required,max=4000"`
}

// ChatResponse is returned unwrapped; chat widgets read both fields
// directly.
type ChatResponse struct {
	Response    string `json:"response"`
	IsOutDomain bool   `json:"is_outdomain"`
}

type TurnResponse struct {
	ID          string `json:"id"`
	Query       string `json:"query"`
	Answer      string `json:"answer"`
	IsOutDomain bool   `json:"is_outdomain"`
	Route       string `json:"route"`
	CreatedAt   string `json:"created_at"`
}

type HistoryResponse struct {
	RoomID  string          `json:"room_id"`
	Turns   []*TurnResponse `json:"turns"`
	Cursor  string          `json:"cursor,omitempty"`
	HasMore bool            `json:"has_more"`
}

func turnToResponse(t *domain.ConversationTurn) *TurnResponse {
	return &TurnResponse{
		ID:          t.ID,
		Query:       t.Query,
		Answer:      t.Answer,
		IsOutDomain: t.IsOutOfDomain,
		Route:       string(t.Route),
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		api.Error(w, http.StatusBadRequest, msg)
		return
	}

	reply, err := h.svc.Chat(r.Context(), req.RoomID, req.Query)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, ChatResponse{Response: reply.Response, IsOutDomain: reply.IsOutOfDomain})
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "room_id")

	page, err := h.svc.History(r.Context(), roomID, listInput(r))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := HistoryResponse{
		RoomID:  roomID,
		Turns:   make([]*TurnResponse, 0, len(page.Items)),
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
	}
	for _, t := range page.Items {
		resp.Turns = append(resp.Turns, turnToResponse(t))
	}
	api.Success(w, http.StatusOK, resp)
}

func (h *ChatHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteRoom(r.Context(), chi.URLParam(r, "room_id")); err != nil {
		api.HandleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
