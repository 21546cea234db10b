package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/routers"
	"github.com/go-playground/validator/v10"

	"github.com/kirillkom/rag-chat/internal/config"
	"github.com/kirillkom/rag-chat/internal/core/ports"
	"github.com/kirillkom/rag-chat/internal/observability/metrics"
)

const serviceName = "rag-chat-api"

type Router struct {
	cfg      config.Config
	chat     ports.ChatService
	history  ports.HistoryReader
	metrics  *metrics.HTTPServerMetrics
	validate *validator.Validate
	openapi  routers.Router
}

// NewRouter wires the chat API. metrics may be nil.
func NewRouter(
	cfg config.Config,
	chat ports.ChatService,
	history ports.HistoryReader,
	httpMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:      cfg,
		chat:     chat,
		history:  history,
		metrics:  httpMetrics,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		openapi:  mustLoadOpenAPIRouter(),
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /history", rt.getHistory)
	mux.HandleFunc("POST /message", rt.postMessage)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = openAPIValidationMiddleware(rt.openapi, handler)
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, rt.cfg.APIQueueWait, rt.onReject)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, rt.onReject)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) onReject(reason string) {
	if rt.metrics != nil {
		rt.metrics.RecordRejected(serviceName, reason)
	}
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) recordChatTurn(intent string, edit bool, sources int, started time.Time) {
	if rt.metrics != nil {
		rt.metrics.RecordChatTurn(serviceName, intent, edit, sources, time.Since(started))
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
