package router

import (
	"context"
	"strings"

	"github.com/stretchr/testify/mock"

	"github.com/cloo-solutions/admitbot/internal/agent"
	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/openai"
	"github.com/cloo-solutions/admitbot/internal/retrieval"
)

type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, raw domain.RawQuery) (*domain.ProcessedQuery, error) {
	args := m.Called(ctx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProcessedQuery), args.Error(1)
}

type MockHistoryStore struct {
	mock.Mock
}

func (m *MockHistoryStore) GetLastTurns(ctx context.Context, roomID string, limit int) ([]*domain.ConversationTurn, error) {
	args := m.Called(ctx, roomID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ConversationTurn), args.Error(1)
}

func (m *MockHistoryStore) AppendTurn(ctx context.Context, turn *domain.ConversationTurn) error {
	args := m.Called(ctx, turn)
	return args.Error(0)
}

type MockSuggestionCache struct {
	mock.Mock
}

func (m *MockSuggestionCache) Lookup(ctx context.Context, query string) (*domain.Suggestion, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Suggestion), args.Error(1)
}

func (m *MockSuggestionCache) Add(ctx context.Context, question, answer string) error {
	args := m.Called(ctx, question, answer)
	return args.Error(0)
}

type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, messages []openai.Message, opts ...openai.CompletionOption) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

type MockAnswerer struct {
	mock.Mock
}

func (m *MockAnswerer) Answer(ctx context.Context, query, history string) (*retrieval.Answer, error) {
	args := m.Called(ctx, query, history)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*retrieval.Answer), args.Error(1)
}

type MockReasoner struct {
	mock.Mock
}

func (m *MockReasoner) Run(ctx context.Context, query, history string) (*agent.Result, error) {
	args := m.Called(ctx, query, history)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*agent.Result), args.Error(1)
}

// promptContaining matches a single-message prompt that includes marker.
func promptContaining(marker string) interface{} {
	return mock.MatchedBy(func(msgs []openai.Message) bool {
		return len(msgs) == 1 && strings.Contains(msgs[0].Content, marker)
	})
}

// wordCounter counts whitespace-separated words.
type wordCounter struct{}

func (wordCounter) Count(text string) int {
	return len(strings.Fields(text))
}
