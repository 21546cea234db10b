package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/rag-chat/internal/core/domain"
	"github.com/kirillkom/rag-chat/internal/core/ports"
)

// IngestDocumentUseCase stores a source document and queues it for a worker.
type IngestDocumentUseCase struct {
	storage ports.ObjectStorage
	queue   ports.JobQueue
	now     func() time.Time
}

func NewIngestDocumentUseCase(storage ports.ObjectStorage, queue ports.JobQueue) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{
		storage: storage,
		queue:   queue,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (uc *IngestDocumentUseCase) Enqueue(
	ctx context.Context,
	filename string,
	body io.Reader,
	chunkSize int,
	reset bool,
) (*domain.IngestionJob, error) {
	id := uuid.NewString()
	storageKey := StorageKey(id, filename)

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	job := &domain.IngestionJob{
		ID:          id,
		SourceKey:   storageKey,
		ChunkSize:   chunkSize,
		Reset:       reset,
		RequestedAt: uc.now(),
	}
	if err := uc.queue.PublishIngestionJob(ctx, *job); err != nil {
		return nil, fmt.Errorf("publish ingestion job: %w", err)
	}
	return job, nil
}

// StorageKey names a stored document by a unique id and its sanitized
// filename.
func StorageKey(id, filename string) string {
	return fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.txt"
	}
	return base
}
