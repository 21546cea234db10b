package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/rag-chat/internal/core/domain"
	"github.com/kirillkom/rag-chat/internal/core/ports"
)

// ProcessDocumentUseCase turns one document into the chunk store. The run is
// a batch: the first failure aborts it, and a rerun should reset the store.
type ProcessDocumentUseCase struct {
	extractor        ports.TextExtractor
	chunker          ports.Chunker
	embedder         ports.Embedder
	chunks           ports.ChunkStore
	defaultChunkSize int
	now              func() time.Time
}

func NewProcessDocumentUseCase(
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	chunks ports.ChunkStore,
	defaultChunkSize int,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		extractor:        extractor,
		chunker:          chunker,
		embedder:         embedder,
		chunks:           chunks,
		defaultChunkSize: defaultChunkSize,
		now:              time.Now,
	}
}

// ProcessJob runs a queued ingestion job.
func (uc *ProcessDocumentUseCase) ProcessJob(ctx context.Context, job domain.IngestionJob) (*domain.IngestionReport, error) {
	report, err := uc.Ingest(ctx, domain.IngestionRequest{
		SourceKey: job.SourceKey,
		ChunkSize: job.ChunkSize,
		Reset:     job.Reset,
	})
	if err != nil {
		return nil, fmt.Errorf("ingestion job %s: %w", job.ID, err)
	}
	return report, nil
}

func (uc *ProcessDocumentUseCase) Ingest(ctx context.Context, req domain.IngestionRequest) (*domain.IngestionReport, error) {
	startedAt := uc.now()
	report := &domain.IngestionReport{StartedAt: startedAt}

	text, err := uc.extractText(ctx, req.SourceKey)
	if err != nil {
		return nil, err
	}

	if req.Reset {
		removed, err := uc.chunks.DeleteAllChunks(ctx)
		if err != nil {
			return nil, fmt.Errorf("reset chunk store: %w", err)
		}
		report.Removed = removed
	}

	size := req.ChunkSize
	if size <= 0 {
		size = uc.defaultChunkSize
	}
	windows := uc.chunker.Split(text, size)
	slog.Info("ingestion_started",
		"component", "ingestion",
		"source", req.SourceKey,
		"chunk_size", size,
		"chunks", len(windows),
	)

	report.ChunkIDs = make([]string, 0, len(windows))
	for i, window := range windows {
		chunk, err := uc.embedWindow(ctx, startedAt, i, window, report.Dimensions)
		if err != nil {
			return report, err
		}
		if err := uc.chunks.InsertChunk(ctx, chunk); err != nil {
			return report, fmt.Errorf("insert chunk %d: %w", i, err)
		}

		if report.Dimensions == 0 {
			report.Dimensions = len(chunk.Embedding)
		}
		report.ChunkIDs = append(report.ChunkIDs, chunk.ID)
		slog.Info("ingestion_chunk_stored",
			"component", "ingestion",
			"chunk_id", chunk.ID,
			"index", i+1,
			"total", len(windows),
		)
	}

	report.CompletedAt = uc.now()
	return report, nil
}

func (uc *ProcessDocumentUseCase) extractText(ctx context.Context, sourceKey string) (string, error) {
	text, err := uc.extractor.Extract(ctx, sourceKey)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	if len(text) == 0 {
		return "", domain.NewError(domain.ErrEmptyDocument, "extract text", "source="+sourceKey)
	}
	return text, nil
}

func (uc *ProcessDocumentUseCase) embedWindow(ctx context.Context, startedAt time.Time, index int, window string, dimensions int) (domain.DocumentChunk, error) {
	vector, err := uc.embedder.Embed(ctx, window)
	if err != nil {
		return domain.DocumentChunk{}, fmt.Errorf("embed chunk %d: %w", index, err)
	}
	if dimensions > 0 && len(vector) != dimensions {
		return domain.DocumentChunk{}, domain.NewError(
			domain.ErrLengthMismatch,
			"embed chunk",
			fmt.Sprintf("chunk %d has %d dimensions, expected %d", index, len(vector), dimensions),
		)
	}
	return domain.DocumentChunk{
		ID:        ChunkID(startedAt, index),
		Content:   window,
		Embedding: vector,
	}, nil
}

// ChunkID names a chunk by the ingestion start time and its position.
func ChunkID(startedAt time.Time, index int) string {
	return fmt.Sprintf("chunk_%d_%d", startedAt.UnixMilli(), index)
}
