package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/rag-chat/internal/core/domain"
)

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// TextGenerator runs a single-turn prompt with an out-of-band system instruction.
type TextGenerator interface {
	Generate(ctx context.Context, prompt, systemInstruction string) (string, error)
}

// IntentClassifier decides whether a user turn needs retrieval.
type IntentClassifier interface {
	Classify(ctx context.Context, text string) domain.Classification
}

// ChunkStore persists document chunks and enumerates them for scoring.
type ChunkStore interface {
	InsertChunk(ctx context.Context, chunk domain.DocumentChunk) error
	ScanChunks(ctx context.Context) ([]domain.StoredChunk, error)
	DeleteAllChunks(ctx context.Context) (int64, error)
}

// MessageLog persists per-session transcripts.
type MessageLog interface {
	Append(ctx context.Context, msg domain.NewMessage) (*domain.Message, error)
	FindByID(ctx context.Context, id string) (*domain.Message, error)
	ListBySession(ctx context.Context, sessionID string) ([]domain.Message, error)
	UpdateText(ctx context.Context, id, text string) (*domain.Message, error)
	DeleteAfter(ctx context.Context, sessionID string, createdAt time.Time) (int64, error)
}

// TransactionalMessageLog runs a group of message log mutations atomically.
type TransactionalMessageLog interface {
	MessageLog
	WithinTx(ctx context.Context, fn func(log MessageLog) error) error
}

// Chunker splits text into fixed-size windows.
type Chunker interface {
	Split(text string, size int) []string
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// TextExtractor reads a stored document as UTF-8 text.
type TextExtractor interface {
	Extract(ctx context.Context, key string) (string, error)
}

// JobQueue publishes and consumes ingestion jobs.
type JobQueue interface {
	PublishIngestionJob(ctx context.Context, job domain.IngestionJob) error
	SubscribeIngestionJobs(ctx context.Context, handler func(context.Context, domain.IngestionJob) error) error
}
