package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/pagination"
	"github.com/cloo-solutions/admitbot/internal/service"
)

func TestSuggestionHandler_List(t *testing.T) {
	mockSvc := new(MockSuggestionService)
	handler := NewSuggestionHandler(mockSvc)

	mockSvc.On("List", mock.Anything, service.ListInput{}).Return(&pagination.PageResult[*domain.Suggestion]{
		Items: []*domain.Suggestion{
			{ID: "s1", Question: "bạn tên gì", Answer: "Mình là trợ lý tuyển sinh.", Embedding: []float32{0.1}, CreatedAt: time.Now()},
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/suggestions", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data ListSuggestionsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Suggestions, 1)
	assert.Equal(t, "bạn tên gì", resp.Data.Suggestions[0].Question)
	assert.NotContains(t, w.Body.String(), "embedding")
}

func TestSuggestionHandler_List_Error(t *testing.T) {
	mockSvc := new(MockSuggestionService)
	handler := NewSuggestionHandler(mockSvc)

	mockSvc.On("List", mock.Anything, service.ListInput{Cursor: "bad"}).Return(nil, domain.ErrInvalidCursor)

	req := httptest.NewRequest(http.MethodGet, "/suggestions?cursor=bad", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
