package admin

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/cloo-solutions/admitbot/internal/agent"
	"github.com/cloo-solutions/admitbot/internal/api/handlers"
	"github.com/cloo-solutions/admitbot/internal/api/middleware"
	"github.com/cloo-solutions/admitbot/internal/classifier"
	"github.com/cloo-solutions/admitbot/internal/config"
	"github.com/cloo-solutions/admitbot/internal/database"
	"github.com/cloo-solutions/admitbot/internal/docstore"
	"github.com/cloo-solutions/admitbot/internal/ingestion"
	"github.com/cloo-solutions/admitbot/internal/jobs"
	"github.com/cloo-solutions/admitbot/internal/loader"
	"github.com/cloo-solutions/admitbot/internal/logger"
	"github.com/cloo-solutions/admitbot/internal/metrics"
	"github.com/cloo-solutions/admitbot/internal/openai"
	"github.com/cloo-solutions/admitbot/internal/repository"
	"github.com/cloo-solutions/admitbot/internal/retrieval"
	"github.com/cloo-solutions/admitbot/internal/router"
	"github.com/cloo-solutions/admitbot/internal/server"
	"github.com/cloo-solutions/admitbot/internal/service"
	"github.com/cloo-solutions/admitbot/internal/storage"
	"github.com/cloo-solutions/admitbot/internal/vectorindex"
)

const (
	embeddingCacheEntries = 10000
	chromemCollection     = "admission_chunks"
	mongoCollection       = "chunks"
)

// App holds the wired object graph shared by the daemon commands.
type App struct {
	cfg      *config.Config
	logger   zerolog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	pool     *pgxpool.Pool

	manager       *ingestion.Manager
	files         *service.FileService
	chat          *service.ChatService
	suggestions   *service.SuggestionService
	cleanupWorker *jobs.CleanupWorker

	closers []func()
}

// Close releases connections in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// BuildApp wires every component from cfg. The caller must Close it.
func BuildApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (_ *App, err error) {
	if !cfg.HasOpenAI() {
		return nil, fmt.Errorf("ADMIT_OPENAI_API_KEY is required")
	}

	a := &App{cfg: cfg, logger: log, registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(a.registry)

	a.pool, err = database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.pool.Close)
	log.Info().Msg("connected to database")

	llm := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		BaseURL:             cfg.OpenAIBaseURL,
		ChatModel:           cfg.OpenAIChatModel,
		EmbeddingModel:      goopenai.EmbeddingModel(cfg.OpenAIEmbeddingModel),
		EmbeddingDimensions: cfg.EmbeddingDimensions,
		Timeout:             cfg.LLMTimeout,
		RatePerSecond:       cfg.LLMRatePerSecond,
		Burst:               cfg.LLMBurst,
		Metrics:             a.metrics,
	})

	embedder, err := openai.NewCachingEmbedder(llm, embeddingCacheEntries)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, embedder.Close)

	index, err := a.vectorIndex(ctx)
	if err != nil {
		return nil, err
	}
	docs, err := a.docStore(ctx)
	if err != nil {
		return nil, err
	}

	fileRepo := repository.NewFileRepository(a.pool)
	historyRepo := repository.NewHistoryRepository(a.pool)
	suggestionRepo := repository.NewSuggestionRepository(a.pool)
	cleanupRepo := repository.NewCleanupJobRepository(a.pool)

	componentLog := func(name string) zerolog.Logger { return logger.Component(log, name) }

	a.manager = ingestion.NewManager(
		embedder,
		ingestion.NewSessionSplitter(llm, componentLog("splitter"), a.metrics),
		ingestion.Stores{Index: index, Docs: docs, Files: fileRepo, Jobs: cleanupRepo},
		ingestion.Config{StoreTimeout: cfg.StoreTimeout},
		componentLog("ingestion"),
		a.metrics,
	)

	engine := retrieval.NewEngine(embedder, index, llm, nil, retrieval.Config{
		Alpha:            cfg.HybridAlpha,
		TopK:             cfg.TopK,
		MaxContextTokens: cfg.ContextMaxTokens,
		StoreTimeout:     cfg.StoreTimeout,
		AppendSources:    true,
	}, componentLog("retrieval"))

	tables := agent.DefaultScoreTables()
	if cfg.ScoreTablesPath != "" {
		if tables, err = agent.LoadScoreTablesFile(cfg.ScoreTablesPath); err != nil {
			return nil, err
		}
	}
	reasoner := agent.New(llm, tables, engine, cfg.AgentMaxIterations, componentLog("agent"), a.metrics)

	var tone classifier.ToneRestorer = classifier.NewLLMRestorer(llm)
	if cfg.HasToneModel() {
		tone = classifier.NewTaggerRestorer(classifier.NewHTTPToneTagger(cfg.ToneModelURL, cfg.LLMTimeout))
	}
	queryClassifier, err := classifier.NewDefault(classifier.Config{
		ShortChatThreshold: cfg.ShortChatThreshold,
		InjectionThreshold: cfg.InjectionThreshold,
		DomainMinChars:     cfg.DomainMinChars,
		ModelDir:           cfg.ClassifierModelPath,
	}, tone, classifier.NewLLMTranslator(llm), componentLog("classifier"), a.metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to load classifier: %w", err)
	}

	a.suggestions = service.NewSuggestionService(suggestionRepo, embedder, cfg.SuggestionThreshold)

	turnRouter := router.New(router.Deps{
		Classifier:  queryClassifier,
		History:     historyRepo,
		Suggestions: a.suggestions,
		LLM:         llm,
		Answerer:    engine,
		Reasoner:    reasoner,
		Config: router.Config{
			HistoryTurns:     cfg.HistoryTurns,
			HistoryMaxTokens: cfg.HistoryMaxTokens,
			StoreTimeout:     cfg.StoreTimeout,
		},
		Logger:  componentLog("router"),
		Metrics: a.metrics,
	})
	a.chat = service.NewChatService(turnRouter, historyRepo)

	objects, err := a.objectStorage(ctx)
	if err != nil {
		return nil, err
	}
	a.files = service.NewFileService(loader.New(&http.Client{Timeout: 30 * time.Second}), a.manager, fileRepo, objects, componentLog("files"))

	a.cleanupWorker = jobs.NewCleanupWorker(cleanupRepo, repository.NewTxRunner(a.pool), a.manager, componentLog("cleanup"), a.metrics)

	return a, nil
}

// Handler builds the HTTP API. File routes are mounted only when an
// admin token is configured.
func (a *App) Handler() http.Handler {
	routerCfg := server.RouterConfig{
		ChatHandler:       handlers.NewChatHandler(a.chat),
		FileHandler:       handlers.NewFileHandler(a.files),
		SuggestionHandler: handlers.NewSuggestionHandler(a.suggestions),
		Health:            a.pool,
		Gatherer:          a.registry,
		Metrics:           a.metrics,
		Logger:            logger.Component(a.logger, "http"),
	}
	if a.cfg.HasAdminToken() {
		routerCfg.AdminAuth = middleware.StaticToken(a.cfg.AdminToken)
	} else {
		a.logger.Warn().Msg("ADMIT_ADMIN_TOKEN not set, file routes are disabled")
	}
	return server.NewRouter(routerCfg)
}

// CleanupLoop returns the poller that retries pending store deletions.
func (a *App) CleanupLoop() *jobs.Worker {
	return jobs.NewWorker(a.cleanupWorker, a.cfg.CleanupPollInterval, logger.Component(a.logger, "cleanup_worker"))
}

func (a *App) vectorIndex(ctx context.Context) (retrieval.VectorIndex, error) {
	switch a.cfg.VectorBackend {
	case "weaviate":
		client, err := vectorindex.NewWeaviateClient(a.cfg.WeaviateURL)
		if err != nil {
			return nil, err
		}
		idx := vectorindex.NewWeaviateIndex(client, a.cfg.WeaviateClass, logger.Component(a.logger, "weaviate"))
		if err := idx.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure weaviate schema: %w", err)
		}
		a.logger.Info().Str("url", a.cfg.WeaviateURL).Str("class", a.cfg.WeaviateClass).Msg("using weaviate index")
		return idx, nil
	case "chromem":
		idx, err := vectorindex.NewChromemIndex(a.cfg.ChromemPath, chromemCollection)
		if err != nil {
			return nil, err
		}
		a.logger.Info().Str("path", a.cfg.ChromemPath).Msg("using chromem index")
		return idx, nil
	default:
		a.logger.Info().Str("fusion", a.cfg.VectorFusion).Msg("using pgvector index")
		return repository.NewChunkIndexRepository(a.pool, a.cfg.VectorFusion), nil
	}
}

func (a *App) docStore(ctx context.Context) (ingestion.DocStore, error) {
	if a.cfg.DocStoreBackend != "mongo" {
		return repository.NewChunkDocumentRepository(a.pool), nil
	}

	client, err := docstore.Connect(ctx, a.cfg.MongoURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	})

	store := docstore.NewMongoStore(client.Database(a.cfg.MongoDatabase), mongoCollection)
	if err := store.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure mongo indexes: %w", err)
	}
	a.logger.Info().Str("database", a.cfg.MongoDatabase).Msg("using mongo document store")
	return store, nil
}

// objectStorage returns a nil interface when S3 is not configured.
func (a *App) objectStorage(ctx context.Context) (service.ObjectStorage, error) {
	if !a.cfg.HasS3() {
		return nil, nil
	}
	client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        a.cfg.S3Endpoint,
		Region:          a.cfg.S3Region,
		AccessKeyID:     a.cfg.S3AccessKey,
		SecretAccessKey: a.cfg.S3SecretKey,
		Bucket:          a.cfg.S3Bucket,
		UsePathStyle:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	if err := client.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
	}
	a.logger.Info().Str("bucket", a.cfg.S3Bucket).Msg("S3 bucket ready")
	return client, nil
}
