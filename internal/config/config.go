package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Debug       bool   `envconfig:"DEBUG" default:"false"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty   bool   `envconfig:"LOG_PRETTY" default:"false"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"admitbot-documents"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	OpenAIAPIKey         string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL        string `envconfig:"OPENAI_BASE_URL"`
	OpenAIChatModel      string `envconfig:"OPENAI_CHAT_MODEL" default:"gpt-4o-mini"`
	OpenAIEmbeddingModel string `envconfig:"OPENAI_EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions  int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`

	LLMTimeout       time.Duration `envconfig:"LLM_TIMEOUT" default:"30s"`
	StoreTimeout     time.Duration `envconfig:"STORE_TIMEOUT" default:"10s"`
	LLMRatePerSecond float64       `envconfig:"LLM_RATE_PER_SECOND" default:"5"`
	LLMBurst         int           `envconfig:"LLM_BURST" default:"10"`

	// pgvector, weaviate or chromem
	VectorBackend string `envconfig:"VECTOR_BACKEND" default:"pgvector"`
	WeaviateURL   string `envconfig:"WEAVIATE_URL" default:"http://localhost:8081"`
	WeaviateClass string `envconfig:"WEAVIATE_CLASS" default:"AdmissionChunk"`
	ChromemPath   string `envconfig:"CHROMEM_PATH"`
	// alpha or rrf; only the pgvector backend fuses client-side
	VectorFusion string `envconfig:"VECTOR_FUSION" default:"alpha"`

	// postgres or mongo
	DocStoreBackend string `envconfig:"DOCSTORE_BACKEND" default:"postgres"`
	MongoURL        string `envconfig:"MONGO_URL" default:"mongodb://localhost:27017"`
	MongoDatabase   string `envconfig:"MONGO_DATABASE" default:"admitbot"`

	HybridAlpha      float32 `envconfig:"HYBRID_ALPHA" default:"0.5"`
	TopK             int     `envconfig:"TOP_K" default:"5"`
	ContextMaxTokens int     `envconfig:"CONTEXT_MAX_TOKENS" default:"3000"`
	HistoryMaxTokens int     `envconfig:"HISTORY_MAX_TOKENS" default:"1500"`
	HistoryTurns     int     `envconfig:"HISTORY_TURNS" default:"5"`

	ShortChatThreshold  float64 `envconfig:"SHORT_CHAT_THRESHOLD" default:"0.85"`
	InjectionThreshold  float64 `envconfig:"INJECTION_THRESHOLD" default:"0.5"`
	DomainMinChars      int     `envconfig:"DOMAIN_MIN_CHARS" default:"30"`
	SuggestionThreshold float32 `envconfig:"SUGGESTION_THRESHOLD" default:"0.9"`
	ToneModelURL        string  `envconfig:"TONE_MODEL_URL"`
	ClassifierModelPath string  `envconfig:"CLASSIFIER_MODEL_PATH"`

	AgentMaxIterations int    `envconfig:"AGENT_MAX_ITERATIONS" default:"5"`
	ScoreTablesPath    string `envconfig:"SCORE_TABLES_PATH"`

	AdminToken string `envconfig:"ADMIN_TOKEN"`

	CleanupPollInterval time.Duration `envconfig:"CLEANUP_POLL_INTERVAL" default:"30s"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("ADMIT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) validate() error {
	switch c.VectorBackend {
	case "pgvector", "weaviate", "chromem":
	default:
		return fmt.Errorf("invalid VECTOR_BACKEND %q", c.VectorBackend)
	}
	switch c.DocStoreBackend {
	case "postgres", "mongo":
	default:
		return fmt.Errorf("invalid DOCSTORE_BACKEND %q", c.DocStoreBackend)
	}
	switch c.VectorFusion {
	case "alpha", "rrf":
	default:
		return fmt.Errorf("invalid VECTOR_FUSION %q", c.VectorFusion)
	}
	if c.HybridAlpha < 0 || c.HybridAlpha > 1 {
		return fmt.Errorf("HYBRID_ALPHA must be within [0, 1]")
	}
	if c.ShortChatThreshold < 0.85 || c.ShortChatThreshold > 0.9 {
		return fmt.Errorf("SHORT_CHAT_THRESHOLD must be within [0.85, 0.9]")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("TOP_K must be positive")
	}
	return nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasToneModel() bool {
	return c.ToneModelURL != ""
}

func (c *Config) HasAdminToken() bool {
	return c.AdminToken != ""
}
