package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/cloo-solutions/admitbot/internal/api"
	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/pagination"
	"github.com/cloo-solutions/admitbot/internal/service"
)

type SuggestionService interface {
	List(ctx context.Context, input service.ListInput) (*pagination.PageResult[*domain.Suggestion], error)
}

type SuggestionHandler struct {
	svc SuggestionService
}

func NewSuggestionHandler(svc SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{svc: svc}
}

type SuggestionResponse struct {
	ID        string `json:"id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	CreatedAt string `json:"created_at"`
}

type ListSuggestionsResponse struct {
	Suggestions []*SuggestionResponse `json:"suggestions"`
	Cursor      string                `json:"cursor,omitempty"`
	HasMore     bool                  `json:"has_more"`
}

func (h *SuggestionHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.List(r.Context(), listInput(r))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := ListSuggestionsResponse{
		Suggestions: make([]*SuggestionResponse, 0, len(page.Items)),
		Cursor:      page.Cursor,
		HasMore:     page.HasMore,
	}
	for _, s := range page.Items {
		resp.Suggestions = append(resp.Suggestions, &SuggestionResponse{
			ID:        s.ID,
			Question:  s.Question,
			Answer:    s.Answer,
			CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	api.Success(w, http.StatusOK, resp)
}
