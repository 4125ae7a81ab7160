// Package classifier turns a raw utterance into a single routing verdict.
package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/metrics"
	"github.com/cloo-solutions/admitbot/internal/telemetry"
	"github.com/cloo-solutions/admitbot/internal/textnorm"
)

// Canned responses for short-circuit verdicts.
const (
	ResponseIconOnly = "Bạn cần mình hỗ trợ thông tin gì về tuyển sinh của Trường Đại học Công nghệ Thông tin không? 😊"

	ResponseUnsupportedLanguage = "Xin lỗi, hiện tại mình chỉ hỗ trợ tiếng Việt và tiếng Anh. Bạn vui lòng đặt câu hỏi bằng tiếng Việt nhé!"

	ResponsePromptInjection = "Yêu cầu của bạn vi phạm chính sách sử dụng của hệ thống. Mình chỉ có thể hỗ trợ các câu hỏi liên quan đến tuyển sinh của trường."
)

// Config holds classifier thresholds and the optional model directory.
type Config struct {
	ShortChatThreshold float64
	InjectionThreshold float64
	DomainMinChars     int
	ModelDir           string
}

// Classifier runs the staged pipeline. Each stage may end the turn.
type Classifier struct {
	normalizer *textnorm.Normalizer
	shortChat  *ShortChatMatcher
	language   LanguageIdentifier
	tone       ToneRestorer
	translator Translator
	injection  *InjectionDetector
	domain     *DomainClassifier
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// Deps are the collaborators of a Classifier. Tone and Translator may be
// nil, in which case the text goes downstream as is. Mixed untoned text
// falls back to tone restoration when there is no translator.
type Deps struct {
	Normalizer *textnorm.Normalizer
	ShortChat  *ShortChatMatcher
	Language   LanguageIdentifier
	Tone       ToneRestorer
	Translator Translator
	Injection  *InjectionDetector
	Domain     *DomainClassifier
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
}

// New assembles a classifier from explicit collaborators.
func New(d Deps) *Classifier {
	return &Classifier{
		normalizer: d.Normalizer,
		shortChat:  d.ShortChat,
		language:   d.Language,
		tone:       d.Tone,
		translator: d.Translator,
		injection:  d.Injection,
		domain:     d.Domain,
		logger:     d.Logger,
		metrics:    d.Metrics,
	}
}

// NewDefault builds a classifier from the embedded dictionaries and
// models, overridden by files in cfg.ModelDir.
func NewDefault(cfg Config, tone ToneRestorer, translator Translator, logger zerolog.Logger, m *metrics.Metrics) (*Classifier, error) {
	normalizer := textnorm.NewDefault()

	r, err := openResource(cfg.ModelDir, "shortchat.yaml")
	if err != nil {
		return nil, err
	}
	shortChat, err := NewShortChatMatcher(r, normalizer, cfg.ShortChatThreshold)
	if err != nil {
		return nil, err
	}

	r, err = openResource(cfg.ModelDir, "languages.yaml")
	if err != nil {
		return nil, err
	}
	language, err := NewLexiconIdentifier(r)
	if err != nil {
		return nil, err
	}

	injectionModel, err := loadModel(cfg.ModelDir, injectionModelFile)
	if err != nil {
		return nil, err
	}
	domainModel, err := loadModel(cfg.ModelDir, domainModelFile)
	if err != nil {
		return nil, err
	}

	for name, model := range map[string]*LinearModel{injectionModelFile: injectionModel, domainModelFile: domainModel} {
		if model.IsSeed() {
			logger.Warn().Str("model", name).Msg("using built-in seed weights; set the classifier model path to a trained export")
		}
	}

	return New(Deps{
		Normalizer: normalizer,
		ShortChat:  shortChat,
		Language:   language,
		Tone:       tone,
		Translator: translator,
		Injection:  NewInjectionDetector(injectionModel, cfg.InjectionThreshold),
		Domain:     NewDomainClassifier(domainModel, cfg.DomainMinChars),
		Logger:     logger,
		Metrics:    m,
	}), nil
}

// Classify runs icon check, normalization, injection blocklist, short
// chat, language identification, translation or tone restoration, full injection
// detection and domain classification, stopping at the first verdict.
func (c *Classifier) Classify(ctx context.Context, raw domain.RawQuery) (*domain.ProcessedQuery, error) {
	ctx, span := telemetry.StartSpan(ctx, "classifier.classify", telemetry.SpanAttributes{RoomID: raw.RoomID, Operation: "classify"})
	defer span.End()

	pq, err := c.classify(ctx, raw)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	verdict := pq.Verdict()
	span.SetTag("verdict", string(verdict))
	if c.metrics != nil {
		c.metrics.ClassifierVerdicts.WithLabelValues(string(verdict)).Inc()
	}
	c.logger.Debug().
		Str("room_id", raw.RoomID).
		Str("verdict", string(verdict)).
		Str("language", string(pq.Language)).
		Msg("query classified")
	return pq, nil
}

func (c *Classifier) classify(ctx context.Context, raw domain.RawQuery) (*domain.ProcessedQuery, error) {
	if err := raw.Validate(); err != nil {
		return nil, err
	}
	pq := &domain.ProcessedQuery{
		Original:          raw.Text,
		Language:          domain.LanguageVietnamese,
		LanguageSupported: true,
	}

	if IsIconOnly(raw.Text) {
		pq.IsIconOnly = true
		pq.Query = ResponseIconOnly
		return pq, nil
	}

	text := c.normalizer.Normalize(raw.Text)
	if strings.TrimSpace(text) == "" {
		pq.IsIconOnly = true
		pq.Query = ResponseIconOnly
		return pq, nil
	}

	// The blocklist runs before short chat so a greeting that carries an
	// injection never gets a friendly canned reply.
	if c.injection.MatchBlocklist(text) {
		pq.IsPromptInjection = true
		pq.Query = ResponsePromptInjection
		return pq, nil
	}

	if response, ok := c.shortChat.Match(text); ok {
		pq.IsShortChat = true
		pq.Query = response
		return pq, nil
	}

	lang, err := c.language.Identify(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to identify language: %w", err)
	}
	pq.Language = lang
	if !lang.IsSupported() {
		pq.LanguageSupported = false
		pq.Query = ResponseUnsupportedLanguage
		return pq, nil
	}

	switch {
	case lang.NeedsTranslation() && c.translator != nil:
		text, err = c.rewrite(ctx, "translation", text, func(ctx context.Context) (string, error) {
			out, err := c.translator.Translate(ctx, text, lang)
			return c.normalizer.Normalize(out), err
		})
	case lang.NeedsToneRestoration() && c.tone != nil:
		text, err = c.rewrite(ctx, "tone restoration", text, func(ctx context.Context) (string, error) {
			return c.tone.Restore(ctx, text)
		})
	}
	if err != nil {
		return nil, err
	}

	if injected, p := c.injection.Detect(text); injected {
		c.logger.Info().Float64("probability", p).Msg("prompt injection detected")
		pq.IsPromptInjection = true
		pq.Query = ResponsePromptInjection
		return pq, nil
	}

	pq.Query = text
	pq.IsOutOfDomain = !c.domain.IsInDomain(text)
	return pq, nil
}

// rewrite replaces text with the output of fn. A failed or empty rewrite
// keeps the original text; only cancellation aborts the turn.
func (c *Classifier) rewrite(ctx context.Context, stage, text string, fn func(ctx context.Context) (string, error)) (string, error) {
	out, err := fn(ctx)
	switch {
	case err != nil && ctx.Err() != nil:
		return "", ctx.Err()
	case err != nil:
		c.logger.Warn().Err(err).Str("stage", stage).Msg("rewrite failed, continuing with original text")
		return text, nil
	case strings.TrimSpace(out) == "":
		return text, nil
	}
	return out, nil
}
