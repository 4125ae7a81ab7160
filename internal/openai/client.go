package openai

import (
	"context"
	"errors"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/cloo-solutions/admitbot/internal/metrics"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultEmbeddingDimensions is the expected dimension of embeddings
	DefaultEmbeddingDimensions = 1536
	// DefaultChatModel answers, classifies and drives the reasoning agent
	DefaultChatModel = openai.GPT4oMini
	// DefaultTimeout bounds every upstream call
	DefaultTimeout = 30 * time.Second
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when embedding has wrong dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
	// ErrNoAPIKey is returned when OpenAI API key is not set
	ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")
	// ErrNoChoices is returned when a completion has no choices
	ErrNoChoices = errors.New("completion returned no choices")
)

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
}

// ChatAPI is the subset of the go-openai client used for chat completions.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client wraps the OpenAI API with per-call timeouts and a shared rate limit.
type Client struct {
	api        EmbeddingAPI
	chat       ChatAPI
	chatModel  string
	dimensions int
	timeout    time.Duration
	limiter    *rate.Limiter
	metrics    *metrics.Metrics
}

type OpenAIAdapter struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

func NewOpenAIAdapter(client *openai.Client, model openai.EmbeddingModel, dimensions int) *OpenAIAdapter {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &OpenAIAdapter{
		client:     client,
		model:      model,
		dimensions: dimensions,
	}
}

// CreateEmbeddings calls the OpenAI API to create embeddings
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      a.model,
		Dimensions: a.dimensions,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	return resp.Data[0].Embedding, nil
}

type Config struct {
	APIKey              string
	BaseURL             string
	ChatModel           string
	EmbeddingModel      openai.EmbeddingModel
	EmbeddingDimensions int
	Timeout             time.Duration
	RatePerSecond       float64
	Burst               int
	Metrics             *metrics.Metrics
}

// NewClient creates a new OpenAI client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new OpenAI client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	raw := openai.NewClientWithConfig(apiCfg)

	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	return newClient(NewOpenAIAdapter(raw, cfg.EmbeddingModel, dimensions), raw, cfg, dimensions)
}

func newClient(embed EmbeddingAPI, chat ChatAPI, cfg Config, dimensions int) *Client {
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		api:        embed,
		chat:       chat,
		chatModel:  chatModel,
		dimensions: dimensions,
		timeout:    timeout,
		limiter:    rate.NewLimiter(limit, burst),
		metrics:    cfg.Metrics,
	}
}

// NewClientFromEnv creates a new OpenAI client using OPENAI_API_KEY environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// Dimensions returns the expected embedding size.
func (c *Client) Dimensions() int {
	if c.dimensions <= 0 {
		return DefaultEmbeddingDimensions
	}
	return c.dimensions
}

// call runs fn under the rate limit and per-call timeout and records the
// outcome. Failures come back as domain upstream errors.
func (c *Client) call(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return upstream(operation, err)
		}
	}

	timeout := c.timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := fn(callCtx)
	if c.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		c.metrics.LLMCallsTotal.WithLabelValues(operation, status).Inc()
		c.metrics.LLMCallDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return upstream(operation, err)
	}
	return nil
}
