package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/pagination"
	"github.com/cloo-solutions/admitbot/internal/retrieval"
	"github.com/cloo-solutions/admitbot/internal/telemetry"
)

// DefaultSuggestionThreshold is the minimum cosine similarity for a
// cached answer to be reused.
const DefaultSuggestionThreshold = 0.9

// SuggestionRepositoryInterface defines the repository interface for suggestion persistence
type SuggestionRepositoryInterface interface {
	Create(ctx context.Context, s *domain.Suggestion) error
	FindNearest(ctx context.Context, embedding []float32, minScore float32) (*domain.Suggestion, error)
	List(ctx context.Context, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.Suggestion], error)
}

// SuggestionService is the semantic cache of off-topic answers.
type SuggestionService struct {
	repo      SuggestionRepositoryInterface
	embedder  retrieval.Embedder
	threshold float32
	now       func() time.Time
}

// NewSuggestionService creates a new SuggestionService instance
func NewSuggestionService(repo SuggestionRepositoryInterface, embedder retrieval.Embedder, threshold float32) *SuggestionService {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSuggestionThreshold
	}
	return &SuggestionService{repo: repo, embedder: embedder, threshold: threshold, now: time.Now}
}

// Lookup returns the closest cached suggestion at or above the threshold,
// or nil.
func (s *SuggestionService) Lookup(ctx context.Context, query string) (*domain.Suggestion, error) {
	ctx, span := telemetry.StartSpan(ctx, "SuggestionService.Lookup", telemetry.SpanAttributes{Operation: "suggestion_lookup"})
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	embedding, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	sug, err := s.repo.FindNearest(ctx, embedding, s.threshold)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to search suggestions: %w", err)
	}
	return sug, nil
}

// Add caches a question/answer pair.
func (s *SuggestionService) Add(ctx context.Context, question, answer string) error {
	ctx, span := telemetry.StartSpan(ctx, "SuggestionService.Add", telemetry.SpanAttributes{Operation: "suggestion_add"})
	defer span.End()

	question = strings.TrimSpace(question)
	if question == "" || strings.TrimSpace(answer) == "" {
		return domain.ErrMissingRequiredField
	}
	embedding, err := s.embedder.GenerateEmbedding(ctx, question)
	if err != nil {
		span.SetError(err)
		return err
	}
	sug := &domain.Suggestion{
		ID:        uuid.NewString(),
		Question:  question,
		Answer:    answer,
		Embedding: embedding,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, sug); err != nil {
		span.SetError(err)
		return fmt.Errorf("failed to store suggestion: %w", err)
	}
	return nil
}

type ListInput struct {
	Cursor string
	Limit  int
}

// List pages through cached suggestions, newest first.
func (s *SuggestionService) List(ctx context.Context, input ListInput) (*pagination.PageResult[*domain.Suggestion], error) {
	cursor, err := decodeCursor(input.Cursor)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, cursor, pagination.ClampLimit(input.Limit, defaultPageSize, maxPageSize))
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func decodeCursor(raw string) (*pagination.Cursor, error) {
	cursor, err := pagination.DecodeCursor(raw)
	if err != nil {
		return nil, domain.ErrInvalidCursor
	}
	return cursor, nil
}
