package ports

import (
	"context"
	"io"

	"github.com/kirillkom/rag-chat/internal/core/domain"
)

// ChatService is the inbound contract for submitting and editing user turns.
type ChatService interface {
	Handle(ctx context.Context, req domain.ChatRequest) (*domain.ChatResult, error)
}

// HistoryReader is the inbound read model for session transcripts.
type HistoryReader interface {
	History(ctx context.Context, sessionID string) ([]domain.Message, error)
}

// DocumentIngestor is the inbound contract for building the chunk store.
type DocumentIngestor interface {
	Ingest(ctx context.Context, req domain.IngestionRequest) (*domain.IngestionReport, error)
}

// IngestionScheduler is the inbound contract for queueing an ingestion run.
type IngestionScheduler interface {
	Enqueue(ctx context.Context, filename string, body io.Reader, chunkSize int, reset bool) (*domain.IngestionJob, error)
}
