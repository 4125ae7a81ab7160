package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/pagination"
)

func TestSuggestionService_Lookup(t *testing.T) {
	repo := new(MockSuggestionRepository)
	embedder := new(MockEmbedder)
	svc := NewSuggestionService(repo, embedder, 0.85)

	emb := []float32{0.1, 0.2, 0.3}
	embedder.On("GenerateEmbedding", mock.Anything, "trời đẹp quá").Return(emb, nil)
	repo.On("FindNearest", mock.Anything, emb, float32(0.85)).
		Return(&domain.Suggestion{ID: "s1", Answer: "Đúng vậy!", Score: 0.93}, nil)

	got, err := svc.Lookup(context.Background(), "  trời đẹp quá ")

	require.NoError(t, err)
	assert.Equal(t, "Đúng vậy!", got.Answer)
	repo.AssertExpectations(t)
	embedder.AssertExpectations(t)
}

func TestSuggestionService_LookupMiss(t *testing.T) {
	repo := new(MockSuggestionRepository)
	embedder := new(MockEmbedder)
	svc := NewSuggestionService(repo, embedder, 0)

	embedder.On("GenerateEmbedding", mock.Anything, "xin chào").Return([]float32{1}, nil)
	repo.On("FindNearest", mock.Anything, []float32{1}, float32(DefaultSuggestionThreshold)).Return(nil, nil)

	got, err := svc.Lookup(context.Background(), "xin chào")

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSuggestionService_LookupEmbeddingError(t *testing.T) {
	repo := new(MockSuggestionRepository)
	embedder := new(MockEmbedder)
	svc := NewSuggestionService(repo, embedder, 0.9)

	embedder.On("GenerateEmbedding", mock.Anything, "x").Return(nil, domain.ErrUpstreamUnavailable)

	_, err := svc.Lookup(context.Background(), "x")

	assert.True(t, domain.IsUpstream(err))
	repo.AssertNotCalled(t, "FindNearest", mock.Anything, mock.Anything, mock.Anything)
}

func TestSuggestionService_Add(t *testing.T) {
	repo := new(MockSuggestionRepository)
	embedder := new(MockEmbedder)
	svc := NewSuggestionService(repo, embedder, 0.9)

	emb := []float32{0.5}
	embedder.On("GenerateEmbedding", mock.Anything, "bạn tên gì").Return(emb, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(s *domain.Suggestion) bool {
		return s.ID != "" && s.Question == "bạn tên gì" && s.Answer == "Mình là UITchatbot." &&
			len(s.Embedding) == 1 && !s.CreatedAt.IsZero()
	})).Return(nil)

	require.NoError(t, svc.Add(context.Background(), "bạn tên gì", "Mình là UITchatbot."))
	repo.AssertExpectations(t)
}

func TestSuggestionService_AddValidation(t *testing.T) {
	svc := NewSuggestionService(new(MockSuggestionRepository), new(MockEmbedder), 0.9)

	assert.ErrorIs(t, svc.Add(context.Background(), "", "a"), domain.ErrMissingRequiredField)
	assert.ErrorIs(t, svc.Add(context.Background(), "q", " "), domain.ErrMissingRequiredField)
}

func TestSuggestionService_AddStoreError(t *testing.T) {
	repo := new(MockSuggestionRepository)
	embedder := new(MockEmbedder)
	svc := NewSuggestionService(repo, embedder, 0.9)

	embedder.On("GenerateEmbedding", mock.Anything, "q").Return([]float32{1}, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("duplicate"))

	err := svc.Add(context.Background(), "q", "a")
	assert.ErrorContains(t, err, "failed to store suggestion")
}

func TestSuggestionService_List(t *testing.T) {
	repo := new(MockSuggestionRepository)
	svc := NewSuggestionService(repo, new(MockEmbedder), 0.9)

	page := &pagination.PageResult[*domain.Suggestion]{Items: []*domain.Suggestion{{ID: "s1"}}}
	repo.On("List", mock.Anything, (*pagination.Cursor)(nil), 100).Return(page, nil)

	got, err := svc.List(context.Background(), ListInput{Limit: 1000})

	require.NoError(t, err)
	assert.Len(t, got.Items, 1)

	_, err = svc.List(context.Background(), ListInput{Cursor: "%%%"})
	assert.ErrorIs(t, err, domain.ErrInvalidCursor)
	repo.AssertExpectations(t)
}
