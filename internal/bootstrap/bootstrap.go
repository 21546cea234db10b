package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kirillkom/rag-chat/internal/config"
	"github.com/kirillkom/rag-chat/internal/core/usecase"
	"github.com/kirillkom/rag-chat/internal/infrastructure/chunking"
	"github.com/kirillkom/rag-chat/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/rag-chat/internal/infrastructure/llm/gemini"
	"github.com/kirillkom/rag-chat/internal/infrastructure/queue/nats"
	"github.com/kirillkom/rag-chat/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/rag-chat/internal/infrastructure/resilience"
	"github.com/kirillkom/rag-chat/internal/infrastructure/storage/localfs"
)

// Observers lets each entry point feed its own metrics registry.
type Observers struct {
	OnRetry resilience.RetryObserver
	OnUsage gemini.UsageObserver
}

type App struct {
	Config config.Config

	DB      *sql.DB
	Storage *localfs.Storage
	Chat    *usecase.ChatUseCase
	Ingest  *usecase.ProcessDocumentUseCase

	closeFn func()
}

// New opens the database, applies the schema and builds the chat and
// ingestion use cases. It does not connect to NATS.
func New(ctx context.Context, cfg config.Config, obs Observers) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	client := newGeminiClient(cfg, obs)
	embedder := gemini.NewEmbedder(client)
	generator := gemini.NewGenerator(client)

	messages := postgres.NewMessageRepository(db)
	chunks := postgres.NewChunkRepository(db)
	router := usecase.NewIntentRouter(generator)

	chatUC := usecase.NewChatUseCase(messages, router, embedder, chunks, generator, cfg.RAGTopK)
	ingestUC := usecase.NewProcessDocumentUseCase(
		plaintext.NewExtractor(storage),
		chunking.NewSplitter(cfg.ChunkSizeChars),
		embedder,
		chunks,
		cfg.ChunkSizeChars,
	)

	return &App{
		Config:  cfg,
		DB:      db,
		Storage: storage,
		Chat:    chatUC,
		Ingest:  ingestUC,
		closeFn: func() {
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func newGeminiClient(cfg config.Config, obs Observers) *gemini.Client {
	embedPolicy := resilience.EmbeddingConfig()
	embedPolicy.RetryMaxAttempts = cfg.EmbedRetryMaxAttempts
	embedPolicy.RetryInitialBackoff = cfg.EmbedRetryInitialBackoff
	embedPolicy.RetryMaxBackoff = cfg.EmbedRetryMaxBackoff

	var execOpts []resilience.Option
	if obs.OnRetry != nil {
		execOpts = append(execOpts, resilience.WithRetryObserver(obs.OnRetry))
	}

	return gemini.New(gemini.Options{
		BaseURL:          cfg.LLMBaseURL,
		APIKey:           cfg.LLMAPIKey,
		EmbedModel:       cfg.EmbeddingModel,
		ChatModel:        cfg.ChatModel,
		EmbedTimeout:     cfg.EmbedTimeout,
		GenerateTimeout:  cfg.GenerateTimeout,
		EmbedExecutor:    resilience.NewExecutor(embedPolicy, execOpts...),
		GenerateExecutor: resilience.NewExecutor(resilience.SingleAttemptConfig(), execOpts...),
		OnUsage:          obs.OnUsage,
	})
}

// Scheduler stores documents and publishes ingestion jobs. It needs neither
// the database nor the model API.
type Scheduler struct {
	*usecase.IngestDocumentUseCase
	Queue *nats.Queue
}

func NewScheduler(cfg config.Config) (*Scheduler, error) {
	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	queue, err := NewQueue(cfg)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		IngestDocumentUseCase: usecase.NewIngestDocumentUseCase(storage, queue),
		Queue:                 queue,
	}, nil
}

func (s *Scheduler) Close() {
	s.Queue.Close()
}

// NewQueue connects to NATS with publish retries behind a circuit breaker.
func NewQueue(cfg config.Config) (*nats.Queue, error) {
	policy := resilience.DefaultConfig()
	policy.RetryMaxBackoff = 2 * time.Second
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(policy),
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	return queue, nil
}
