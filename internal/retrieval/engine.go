package retrieval

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/openai"
	"github.com/cloo-solutions/admitbot/internal/telemetry"
)

// Defaults for the engine configuration.
const (
	DefaultAlpha            float32 = 0.5
	DefaultTopK                     = 5
	DefaultMaxContextTokens         = 3000
	DefaultStoreTimeout             = 10 * time.Second
)

// Config tunes retrieval.
type Config struct {
	Alpha            float32
	TopK             int
	MaxContextTokens int
	StoreTimeout     time.Duration
	// AppendSources adds the attribution section to grounded answers.
	AppendSources bool
}

func (c *Config) applyDefaults() {
	if c.Alpha < 0 || c.Alpha > 1 {
		c.Alpha = DefaultAlpha
	}
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.MaxContextTokens <= 0 {
		c.MaxContextTokens = DefaultMaxContextTokens
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = DefaultStoreTimeout
	}
}

// Engine retrieves context for a query and generates grounded answers.
type Engine struct {
	embedder Embedder
	index    VectorIndex
	llm      Completer
	counter  TokenCounter
	cfg      Config
	logger   zerolog.Logger
}

// NewEngine creates an engine. A nil counter falls back to cl100k_base,
// or to ApproxCounter if the encoding cannot be loaded.
func NewEngine(embedder Embedder, index VectorIndex, llm Completer, counter TokenCounter, cfg Config, logger zerolog.Logger) *Engine {
	cfg.applyDefaults()
	if counter == nil {
		tc, err := NewTiktokenCounter()
		if err != nil {
			logger.Warn().Err(err).Msg("tiktoken encoding unavailable, using approximate token counts")
			counter = ApproxCounter{}
		} else {
			counter = tc
		}
	}
	return &Engine{
		embedder: embedder,
		index:    index,
		llm:      llm,
		counter:  counter,
		cfg:      cfg,
		logger:   logger,
	}
}

// Retrieve runs the hybrid search and assembles the budgeted context.
// RankedChunks holds only the chunks that made it into the context.
func (e *Engine) Retrieve(ctx context.Context, query string) (*domain.RetrievalResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "retrieval.retrieve", telemetry.SpanAttributes{Operation: "retrieve"})
	defer span.End()

	embedding, err := e.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	searchCtx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()
	hits, err := e.index.Search(searchCtx, SearchRequest{
		Query:     query,
		Embedding: embedding,
		Alpha:     e.cfg.Alpha,
		Limit:     e.cfg.TopK,
	})
	if err != nil {
		span.SetError(err)
		return nil, storeError("vector search", err)
	}
	SortRanked(hits)
	if len(hits) > e.cfg.TopK {
		hits = hits[:e.cfg.TopK]
	}

	combined, n := AssembleContext(hits, e.counter, e.cfg.MaxContextTokens)
	e.logger.Debug().Int("hits", len(hits)).Int("in_context", n).Msg("context assembled")
	return &domain.RetrievalResult{CombinedContext: combined, RankedChunks: hits[:n]}, nil
}

// Answer is a generated reply with its grounding.
type Answer struct {
	Text        string
	OutOfDomain bool
	Result      *domain.RetrievalResult
}

// Answer retrieves context for query and generates a reply. When the
// model reports that the context does not cover the question, the reply
// becomes the fallback contact message and OutOfDomain is set.
func (e *Engine) Answer(ctx context.Context, query, history string) (*Answer, error) {
	result, err := e.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	raw, err := e.llm.Complete(ctx,
		[]openai.Message{openai.User(renderAnswerPrompt(history, result.CombinedContext, query))},
		openai.WithOperation("answer"))
	if err != nil {
		return nil, err
	}

	if IsFallbackAnswer(raw) {
		return &Answer{Text: domain.FallbackContactMessage, OutOfDomain: true, Result: result}, nil
	}
	text := raw
	if e.cfg.AppendSources {
		if sources := FormatSources(result.RankedChunks); sources != "" {
			text = raw + "\n\n" + sources
		}
	}
	return &Answer{Text: text, Result: result}, nil
}

// IsFallbackAnswer reports whether a model reply carries no grounded
// answer: empty, a literal "None", or the out-of-scope phrase.
func IsFallbackAnswer(answer string) bool {
	a := strings.TrimSpace(answer)
	if a == "" || strings.EqualFold(a, "none") {
		return true
	}
	return strings.Contains(a, domain.OutOfScopeSentinel)
}

func storeError(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}
	return domain.Upstream(op, err)
}
