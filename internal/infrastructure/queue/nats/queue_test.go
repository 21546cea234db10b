package nats

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/rag-chat/internal/core/domain"
)

func TestJobPayloadRoundTrip(t *testing.T) {
	job := domain.IngestionJob{
		ID:          "job-1",
		SourceKey:   "job-1_handbook.txt",
		ChunkSize:   800,
		Reset:       true,
		RequestedAt: time.Date(2026, 10, 15, 8, 30, 0, 0, time.UTC),
	}

	payload, err := encodeJob(job)
	if err != nil {
		t.Fatalf("encodeJob() error = %v", err)
	}
	got, err := decodeJob(payload)
	if err != nil {
		t.Fatalf("decodeJob() error = %v", err)
	}
	if got != job {
		t.Fatalf("decoded %+v, want %+v", got, job)
	}
}

func TestEncodeJobRequiresSourceKey(t *testing.T) {
	_, err := encodeJob(domain.IngestionJob{ID: "job-1"})
	if !domain.IsKind(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}

func TestDecodeJobRejectsMalformedPayload(t *testing.T) {
	for _, payload := range []string{"job-1", `{"id":"job-1"}`, `[]`} {
		if _, err := decodeJob([]byte(payload)); err == nil {
			t.Fatalf("expected error for payload %q", payload)
		}
	}
}

func TestPublishFailureMarksConnectionErrorsTemporary(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantTemporary bool
	}{
		{name: "no servers", err: fmt.Errorf("nats publish: %w", nats.ErrNoServers), wantTemporary: true},
		{name: "disconnected", err: nats.ErrDisconnected, wantTemporary: true},
		{name: "reconnecting", err: nats.ErrConnectionReconnecting, wantTemporary: true},
		{name: "circuit open", err: gobreaker.ErrOpenState, wantTemporary: true},
		{name: "bad subject", err: nats.ErrBadSubject, wantTemporary: false},
		{name: "canceled", err: context.Canceled, wantTemporary: false},
		{name: "already temporary", err: domain.WrapError(domain.ErrTemporary, "x", errors.New("y")), wantTemporary: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := publishFailure(tt.err)
			if domain.IsKind(got, domain.ErrTemporary) != tt.wantTemporary {
				t.Fatalf("temporary = %v, want %v (err=%v)", !tt.wantTemporary, tt.wantTemporary, got)
			}
			if !errors.Is(got, tt.err) {
				t.Fatalf("wrapped error lost its cause: %v", got)
			}
		})
	}
}

func TestClassifyPublishError(t *testing.T) {
	if class := classifyPublishError(context.DeadlineExceeded); class.Retryable || class.RecordFailure {
		t.Fatalf("deadline must neither retry nor trip the breaker: %+v", class)
	}
	if class := classifyPublishError(nats.ErrTimeout); !class.Retryable || !class.RecordFailure {
		t.Fatalf("timeout must retry and count: %+v", class)
	}
	if class := classifyPublishError(nats.ErrMaxPayload); class.Retryable || !class.RecordFailure {
		t.Fatalf("oversized payload must fail without retry: %+v", class)
	}
	if publishFailure(nil) != nil {
		t.Fatalf("nil error must stay nil")
	}
}
