package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/rag-chat/internal/core/domain"
)

type storageFake struct {
	saved   map[string][]byte
	saveErr error
}

func (s *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if s.saved == nil {
		s.saved = map[string][]byte{}
	}
	s.saved[key] = raw
	return nil
}

func (s *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := s.saved[key]
	if !ok {
		return nil, errors.New("missing")
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

type queueFake struct {
	published []domain.IngestionJob
	err       error
}

func (q *queueFake) PublishIngestionJob(_ context.Context, job domain.IngestionJob) error {
	if q.err != nil {
		return q.err
	}
	q.published = append(q.published, job)
	return nil
}

func (q *queueFake) SubscribeIngestionJobs(context.Context, func(context.Context, domain.IngestionJob) error) error {
	return nil
}

func TestEnqueueStoresDocumentAndPublishesJob(t *testing.T) {
	storage := &storageFake{}
	queue := &queueFake{}
	uc := NewIngestDocumentUseCase(storage, queue)
	uc.now = func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) }

	job, err := uc.Enqueue(context.Background(), "/tmp/HR Policy (v2).txt", strings.NewReader("leave policy"), 500, true)
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	if !strings.HasPrefix(job.SourceKey, job.ID+"_") || !strings.HasSuffix(job.SourceKey, "HR_Policy__v2_.txt") {
		t.Fatalf("unexpected storage key %q", job.SourceKey)
	}
	if string(storage.saved[job.SourceKey]) != "leave policy" {
		t.Fatalf("document not stored under %q", job.SourceKey)
	}
	if len(queue.published) != 1 || queue.published[0] != *job {
		t.Fatalf("unexpected published jobs %+v", queue.published)
	}
	if job.ChunkSize != 500 || !job.Reset || !job.RequestedAt.Equal(uc.now()) {
		t.Fatalf("unexpected job %+v", job)
	}
}

func TestEnqueueStopsWhenStorageFails(t *testing.T) {
	queue := &queueFake{}
	uc := NewIngestDocumentUseCase(&storageFake{saveErr: errors.New("disk full")}, queue)

	if _, err := uc.Enqueue(context.Background(), "a.txt", strings.NewReader("x"), 0, false); err == nil {
		t.Fatalf("expected storage error")
	}
	if len(queue.published) != 0 {
		t.Fatalf("job must not be published when storage fails")
	}
}

func TestEnqueueReturnsPublishError(t *testing.T) {
	publishErr := domain.WrapError(domain.ErrTemporary, "publish", errors.New("nats down"))
	uc := NewIngestDocumentUseCase(&storageFake{}, &queueFake{err: publishErr})

	_, err := uc.Enqueue(context.Background(), "a.txt", strings.NewReader("x"), 0, false)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"report.txt":       "report.txt",
		"../../etc/passwd": "passwd",
		"my notes.md":      "my_notes.md",
		"файл.txt":         "____.txt",
		"":                 "document.txt",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
