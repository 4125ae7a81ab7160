// Package router runs one conversation turn: it classifies the query,
// picks the answering branch, and records the turn in the room history.
package router

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/cloo-solutions/admitbot/internal/agent"
	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/metrics"
	"github.com/cloo-solutions/admitbot/internal/openai"
	"github.com/cloo-solutions/admitbot/internal/retrieval"
	"github.com/cloo-solutions/admitbot/internal/telemetry"
)

// Defaults for the router configuration.
const (
	DefaultHistoryTurns     = 5
	DefaultHistoryMaxTokens = 1500
	DefaultStoreTimeout     = 10 * time.Second

	funnyChatMaxTokens = 300
)

// QueryClassifier produces the verdict for a raw query.
type QueryClassifier interface {
	Classify(ctx context.Context, raw domain.RawQuery) (*domain.ProcessedQuery, error)
}

// HistoryStore reads and appends conversation turns.
type HistoryStore interface {
	GetLastTurns(ctx context.Context, roomID string, limit int) ([]*domain.ConversationTurn, error)
	AppendTurn(ctx context.Context, turn *domain.ConversationTurn) error
}

// SuggestionCache holds answers to earlier off-topic questions.
// Lookup returns nil when nothing is similar enough.
type SuggestionCache interface {
	Lookup(ctx context.Context, query string) (*domain.Suggestion, error)
	Add(ctx context.Context, question, answer string) error
}

// Answerer answers from retrieved documents.
type Answerer interface {
	Answer(ctx context.Context, query, history string) (*retrieval.Answer, error)
}

// Reasoner answers score questions with tools.
type Reasoner interface {
	Run(ctx context.Context, query, history string) (*agent.Result, error)
}

// Config tunes the router.
type Config struct {
	HistoryTurns     int
	HistoryMaxTokens int
	StoreTimeout     time.Duration
}

func (c *Config) applyDefaults() {
	if c.HistoryTurns <= 0 {
		c.HistoryTurns = DefaultHistoryTurns
	}
	if c.HistoryMaxTokens <= 0 {
		c.HistoryMaxTokens = DefaultHistoryMaxTokens
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = DefaultStoreTimeout
	}
}

// Deps are the collaborators of a Router. Suggestions and Reasoner may
// be nil: off-topic answers are then never cached, and score questions
// go to retrieval.
type Deps struct {
	Classifier  QueryClassifier
	History     HistoryStore
	Suggestions SuggestionCache
	LLM         retrieval.Completer
	Answerer    Answerer
	Reasoner    Reasoner
	Counter     retrieval.TokenCounter
	Config      Config
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics
}

// Router is the per-turn state machine.
type Router struct {
	classifier  QueryClassifier
	history     HistoryStore
	suggestions SuggestionCache
	llm         retrieval.Completer
	answerer    Answerer
	reasoner    Reasoner
	counter     retrieval.TokenCounter
	cfg         Config
	logger      zerolog.Logger
	metrics     *metrics.Metrics

	locks *roomLocks
	funny singleflight.Group
}

// New creates a router. A nil Counter uses cl100k_base when available.
func New(d Deps) *Router {
	d.Config.applyDefaults()
	counter := d.Counter
	if counter == nil {
		tc, err := retrieval.NewTiktokenCounter()
		if err != nil {
			d.Logger.Warn().Err(err).Msg("tiktoken encoding unavailable, using approximate token counts")
			counter = retrieval.ApproxCounter{}
		} else {
			counter = tc
		}
	}
	return &Router{
		classifier:  d.Classifier,
		history:     d.History,
		suggestions: d.Suggestions,
		llm:         d.LLM,
		answerer:    d.Answerer,
		reasoner:    d.Reasoner,
		counter:     counter,
		cfg:         d.Config,
		logger:      d.Logger,
		metrics:     d.Metrics,
		locks:       newRoomLocks(),
	}
}

// Reply is what the caller shows the user.
type Reply struct {
	TurnID        string
	Response      string
	IsOutOfDomain bool
	Route         domain.Route
}

// outcome is the result of routing before it is persisted.
type outcome struct {
	query       string
	answer      string
	route       domain.Route
	outOfDomain bool
	retrieved   []string
}

// Handle answers one query. Only an invalid query or a cancelled wait
// for the room returns an error; upstream failures become the fallback
// contact message. Exactly one turn is appended per answered query.
func (r *Router) Handle(ctx context.Context, raw domain.RawQuery) (*Reply, error) {
	if err := raw.Validate(); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "router.handle", telemetry.SpanAttributes{RoomID: raw.RoomID, Operation: "chat"})
	defer span.End()

	unlock, err := r.locks.Lock(ctx, raw.RoomID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	defer unlock()

	start := time.Now()
	out := r.route(ctx, raw)
	span.SetTag("route", string(out.route))

	turn := &domain.ConversationTurn{
		ID:                  uuid.New().String(),
		RoomID:              raw.RoomID,
		Query:               out.query,
		Answer:              out.answer,
		RetrievedChunkTexts: out.retrieved,
		IsOutOfDomain:       out.outOfDomain,
		Route:               out.route,
		CreatedAt:           time.Now().UTC(),
	}
	r.persist(ctx, turn)

	if r.metrics != nil {
		r.metrics.TurnsTotal.WithLabelValues(string(out.route)).Inc()
		r.metrics.TurnDuration.WithLabelValues(string(out.route)).Observe(time.Since(start).Seconds())
	}
	r.logger.Info().
		Str("room_id", raw.RoomID).
		Str("route", string(out.route)).
		Bool("out_of_domain", out.outOfDomain).
		Dur("duration", time.Since(start)).
		Msg("turn answered")

	return &Reply{
		TurnID:        turn.ID,
		Response:      out.answer,
		IsOutOfDomain: out.outOfDomain,
		Route:         out.route,
	}, nil
}

// WithRoom runs fn while holding the room, so it never interleaves with a
// turn being answered there.
func (r *Router) WithRoom(ctx context.Context, roomID string, fn func(ctx context.Context) error) error {
	unlock, err := r.locks.Lock(ctx, roomID)
	if err != nil {
		return err
	}
	defer unlock()
	return fn(ctx)
}

func (r *Router) route(ctx context.Context, raw domain.RawQuery) outcome {
	pq, err := r.classifier.Classify(ctx, raw)
	if err != nil {
		return r.fallback(ctx, raw.Text, "classify", err)
	}

	verdict := pq.Verdict()
	if verdict.IsShortCircuit() {
		return outcome{
			query:       raw.Text,
			answer:      pq.Query,
			route:       domain.RouteShortCircuit,
			outOfDomain: verdict == domain.VerdictPromptInjection,
		}
	}

	turns, err := r.lastTurns(ctx, raw.RoomID)
	if err != nil {
		return r.fallback(ctx, pq.Query, "history", err)
	}

	if verdict == domain.VerdictOutOfDomain {
		inDomain, err := r.recheckDomain(ctx, turns, pq.Query)
		if err != nil {
			return r.fallback(ctx, pq.Query, "domain_recheck", err)
		}
		if !inDomain {
			return r.offTopic(ctx, pq.Query)
		}
		r.logger.Debug().Str("room_id", raw.RoomID).Msg("follow-up reclassified as in-domain")
	}
	return r.inDomain(ctx, pq.Query, turns)
}

func (r *Router) lastTurns(ctx context.Context, roomID string) ([]*domain.ConversationTurn, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.StoreTimeout)
	defer cancel()
	return r.history.GetLastTurns(ctx, roomID, r.cfg.HistoryTurns)
}

type domainVerdict struct {
	IsInDomain *bool `json:"is_in_domain"`
}

// recheckDomain reads the query together with the previous one so
// elliptical follow-ups are not mistaken for small talk. An unreadable
// verdict counts as in-domain.
func (r *Router) recheckDomain(ctx context.Context, turns []*domain.ConversationTurn, query string) (bool, error) {
	if len(turns) == 0 {
		return false, nil
	}
	previous := turns[len(turns)-1].Query

	raw, err := r.llm.Complete(ctx,
		[]openai.Message{openai.User(renderDomainRecheck(previous, query))},
		openai.WithJSON(), openai.WithOperation("domain_recheck"))
	if err != nil {
		return false, err
	}

	res := openai.ParseJSON[domainVerdict](raw)
	if res.OK() && res.Value.IsInDomain == nil {
		res.Err = missingField("is_in_domain")
	}
	if !res.OK() {
		r.parseFailure("domain_recheck", res.Raw, res.Err)
		return true, nil
	}
	return *res.Value.IsInDomain, nil
}

func (r *Router) offTopic(ctx context.Context, query string) outcome {
	if r.suggestions != nil {
		s, err := r.suggestions.Lookup(ctx, query)
		switch {
		case err != nil:
			r.countSuggestion("error")
			r.logger.Warn().Err(err).Msg("suggestion lookup failed")
		case s != nil:
			r.countSuggestion("hit")
			return outcome{query: query, answer: s.Answer, route: domain.RouteSuggestion, outOfDomain: true}
		default:
			r.countSuggestion("miss")
		}
	}

	key := strings.ToLower(strings.TrimSpace(query))
	v, err, shared := r.funny.Do(key, func() (any, error) {
		return r.funnyChat(context.WithoutCancel(ctx), query)
	})
	if err != nil {
		return r.fallback(ctx, query, "funny_chat", err)
	}
	if shared {
		r.logger.Debug().Msg("off-topic answer shared with a concurrent request")
	}
	return outcome{query: query, answer: v.(string), route: domain.RouteFunnyChat, outOfDomain: true}
}

// funnyChat generates a short redirecting reply and caches it.
func (r *Router) funnyChat(ctx context.Context, query string) (string, error) {
	answer, err := r.llm.Complete(ctx,
		[]openai.Message{openai.User(renderFunnyChat(query))},
		openai.WithMaxTokens(funnyChatMaxTokens), openai.WithOperation("funny_chat"))
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", errEmptyReply
	}

	if r.suggestions != nil {
		if err := r.suggestions.Add(ctx, query, answer); err != nil {
			r.logger.Warn().Err(err).Msg("failed to cache suggestion")
		}
	}
	return answer, nil
}

type turnAnalysis struct {
	IsAnswer  bool      `json:"is_answer"`
	Query     string    `json:"query"`
	Direction Direction `json:"direction"`
}

func (a turnAnalysis) validate() error {
	if strings.TrimSpace(a.Query) == "" {
		return missingField("query")
	}
	if a.IsAnswer {
		return nil
	}
	switch a.Direction {
	case DirectionRetrieval, DirectionReasoning:
		return nil
	}
	return missingField("direction")
}

// plan is the decided in-domain action.
type plan struct {
	query       string
	direction   Direction
	fromHistory string
}

func (r *Router) inDomain(ctx context.Context, query string, turns []*domain.ConversationTurn) outcome {
	history := FormatHistory(turns, r.counter, r.cfg.HistoryMaxTokens)

	p, err := r.analyze(ctx, history, query)
	if err != nil {
		return r.fallback(ctx, query, "turn_analysis", err)
	}

	if p.fromHistory != "" {
		return outcome{query: query, answer: p.fromHistory, route: domain.RouteHistory}
	}

	if p.direction == DirectionReasoning && r.reasoner != nil {
		res, err := r.reasoner.Run(ctx, p.query, history)
		if err != nil {
			return r.fallback(ctx, query, "reasoning", err)
		}
		return outcome{query: query, answer: res.Answer, route: domain.RouteReasoning, retrieved: res.Retrieved}
	}

	ans, err := r.answerer.Answer(ctx, p.query, history)
	if err != nil {
		return r.fallback(ctx, query, "retrieval", err)
	}
	return outcome{
		query:       query,
		answer:      ans.Text,
		route:       domain.RouteRetrieval,
		outOfDomain: ans.OutOfDomain,
		retrieved:   ans.Result.Texts(),
	}
}

// analyze asks the model whether history already answers the query,
// how to rewrite it, and which branch should answer. An unreadable reply
// sends the original query to retrieval. Score questions naming a
// combination code always go to reasoning.
func (r *Router) analyze(ctx context.Context, history, query string) (plan, error) {
	p := plan{query: query, direction: DirectionRetrieval}

	raw, err := r.llm.Complete(ctx,
		[]openai.Message{openai.User(renderTurnAnalysis(history, query))},
		openai.WithJSON(), openai.WithOperation("turn_analysis"))
	if err != nil {
		return p, err
	}

	res := openai.ParseJSON[turnAnalysis](raw)
	if res.OK() {
		res.Err = res.Value.validate()
	}
	if res.OK() {
		a := res.Value
		if a.IsAnswer {
			p.fromHistory = strings.TrimSpace(a.Query)
		} else {
			p.query = strings.TrimSpace(a.Query)
			p.direction = a.Direction
		}
	} else {
		r.parseFailure("turn_analysis", res.Raw, res.Err)
	}

	if IsScoreQuestion(query) {
		p.direction = DirectionReasoning
		p.fromHistory = ""
	}
	return p, nil
}

func (r *Router) fallback(ctx context.Context, query, stage string, err error) outcome {
	ev := r.logger.Error()
	if errors.Is(err, context.Canceled) {
		ev = r.logger.Warn()
	} else {
		telemetry.CaptureError(ctx, err)
	}
	ev.Err(err).Str("stage", stage).Msg("turn failed, answering with contact message")
	return outcome{query: query, answer: domain.FallbackContactMessage, route: domain.RouteFallback}
}

// persist appends the turn even when the request context is already
// cancelled. A failed write is logged; the user still gets the reply.
func (r *Router) persist(ctx context.Context, turn *domain.ConversationTurn) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.StoreTimeout)
	defer cancel()
	if err := r.history.AppendTurn(pctx, turn); err != nil {
		r.logger.Error().Err(err).Str("room_id", turn.RoomID).Str("turn_id", turn.ID).Msg("failed to persist turn")
		telemetry.CaptureError(ctx, err)
	}
}

func (r *Router) parseFailure(operation, raw string, err error) {
	if r.metrics != nil {
		r.metrics.ParseFailures.WithLabelValues(operation).Inc()
	}
	r.logger.Warn().Err(err).Str("operation", operation).Int("raw_len", len(raw)).Msg("unreadable model output, using retrieval")
}

func (r *Router) countSuggestion(outcome string) {
	if r.metrics != nil {
		r.metrics.SuggestionLookup.WithLabelValues(outcome).Inc()
	}
}

var errEmptyReply = errors.New("model returned an empty reply")

func missingField(name string) error {
	return domain.NewDomainErrorWithCause(domain.ErrMalformedLLMOutput.Code, domain.ErrMalformedLLMOutput.Message,
		errors.New("missing "+name))
}
