package ingestion

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/cloo-solutions/admitbot/internal/metrics"
	"github.com/cloo-solutions/admitbot/internal/openai"
	"github.com/cloo-solutions/admitbot/internal/retrieval"
)

// Window sizes are in runes.
const (
	DefaultWindowSize      = 6000
	DefaultFallbackSize    = 1000
	DefaultFallbackOverlap = 100
)

var markdownSeparators = []string{"\n## ", "\n### ", "\n\n", "\n", ". ", " ", ""}

// Session is one self-contained section of a document.
type Session struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type sessionPayload struct {
	Sessions []Session `json:"sessions"`
}

// Splitter breaks document text into sessions.
type Splitter interface {
	Split(ctx context.Context, text string) ([]Session, error)
}

// SessionSplitter asks the model to split text into titled sessions.
// Long text is first cut into windows so each request fits the model;
// a window whose reply cannot be parsed is split mechanically instead.
type SessionSplitter struct {
	llm      retrieval.Completer
	window   textsplitter.RecursiveCharacter
	fallback textsplitter.RecursiveCharacter
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// NewSessionSplitter creates a splitter. A nil llm always uses the
// mechanical split.
func NewSessionSplitter(llm retrieval.Completer, logger zerolog.Logger, m *metrics.Metrics) *SessionSplitter {
	return &SessionSplitter{
		llm: llm,
		window: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(DefaultWindowSize),
			textsplitter.WithChunkOverlap(0),
			textsplitter.WithSeparators(markdownSeparators),
		),
		fallback: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(DefaultFallbackSize),
			textsplitter.WithChunkOverlap(DefaultFallbackOverlap),
			textsplitter.WithSeparators(markdownSeparators),
		),
		logger:  logger,
		metrics: m,
	}
}

// Split returns the sessions of text in document order.
func (s *SessionSplitter) Split(ctx context.Context, text string) ([]Session, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	windows, err := s.window.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to window text: %w", err)
	}

	var out []Session
	for _, w := range windows {
		sessions, err := s.splitWindow(ctx, w)
		if err != nil {
			return nil, err
		}
		out = append(out, sessions...)
	}
	return out, nil
}

func (s *SessionSplitter) splitWindow(ctx context.Context, window string) ([]Session, error) {
	if s.llm == nil {
		return s.mechanical(window)
	}

	raw, err := s.llm.Complete(ctx,
		[]openai.Message{openai.System(splitterPrompt), openai.User(window)},
		openai.WithJSON(), openai.WithOperation("split_sessions"))
	if err != nil {
		return nil, err
	}

	res := openai.ParseJSON[sessionPayload](raw)
	sessions := nonEmpty(res.Value.Sessions)
	if !res.OK() || len(sessions) == 0 {
		s.logger.Warn().Err(res.Err).Int("window_runes", len([]rune(window))).Msg("session split unparsable, using recursive splitter")
		if s.metrics != nil {
			s.metrics.ParseFailures.WithLabelValues("split_sessions").Inc()
		}
		return s.mechanical(window)
	}
	return sessions, nil
}

func (s *SessionSplitter) mechanical(window string) ([]Session, error) {
	parts, err := s.fallback.SplitText(window)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}
	sessions := make([]Session, 0, len(parts))
	for _, p := range parts {
		sessions = append(sessions, Session{Content: p})
	}
	return nonEmpty(sessions), nil
}

func nonEmpty(sessions []Session) []Session {
	out := sessions[:0:0]
	for _, s := range sessions {
		s.Title = strings.TrimSpace(s.Title)
		s.Content = strings.TrimSpace(s.Content)
		if s.Content == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
