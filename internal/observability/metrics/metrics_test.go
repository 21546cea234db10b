package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	res := httptest.NewRecorder()
	h.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("scrape returned %d", res.Code)
	}
	return res.Body.String()
}

func TestHTTPMiddlewareNormalizesUnknownPaths(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware("api", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	for _, path := range []string{"/history", "/random/1", "/random/2"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(m.requestTotal.WithLabelValues("api", http.MethodGet, "other", "404")); got != 2 {
		t.Fatalf("expected 2 requests under path=other, got %v", got)
	}
	if got := testutil.ToFloat64(m.requestTotal.WithLabelValues("api", http.MethodGet, "/history", "404")); got != 1 {
		t.Fatalf("expected 1 request under /history, got %v", got)
	}
}

func TestRecordChatTurnSkipsChunkHistogramForGreetings(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	m.RecordChatTurn("api", "GREETING", false, 0, 10*time.Millisecond)
	m.RecordChatTurn("api", "QUERY", true, 3, time.Second)

	if got := testutil.ToFloat64(m.chatTurnsTotal.WithLabelValues("api", "QUERY", "edit")); got != 1 {
		t.Fatalf("expected one edit turn, got %v", got)
	}
	body := scrape(t, m.Handler())
	if !strings.Contains(body, `rag_chat_retrieved_chunks_count{service="api"} 1`) {
		t.Fatalf("expected a single retrieved_chunks observation:\n%s", body)
	}
}

func TestRecordTokenUsage(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	m.RecordTokenUsage("api", "", 12, 0)

	if got := testutil.ToFloat64(m.llmTokensTotal.WithLabelValues("api", "in", "unknown")); got != 12 {
		t.Fatalf("expected 12 prompt tokens, got %v", got)
	}
}

func TestWorkerMetricsFinishJob(t *testing.T) {
	m := NewWorkerMetrics("worker")
	m.StartJob()
	m.FinishJob("worker", time.Second, 4, nil)
	m.StartJob()
	m.FinishJob("worker", time.Second, 0, errors.New("boom"))

	if got := testutil.ToFloat64(m.jobTotal.WithLabelValues("worker", "error")); got != 1 {
		t.Fatalf("expected one failed job, got %v", got)
	}
	if got := testutil.ToFloat64(m.chunksTotal.WithLabelValues("worker")); got != 4 {
		t.Fatalf("expected 4 chunks, got %v", got)
	}
	if got := testutil.ToFloat64(m.jobInFlight); got != 0 {
		t.Fatalf("expected no in-flight jobs, got %v", got)
	}
}
