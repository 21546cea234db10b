package httpadapter

import (
	"log/slog"
	"net/http"

	"github.com/kirillkom/rag-chat/internal/core/domain"
	"github.com/kirillkom/rag-chat/internal/observability/telemetry"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrBadRequest):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the mapped status. Server-side failures get a
// generic body; the cause goes to the log and Sentry.
func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status < http.StatusInternalServerError {
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	requestID := requestIDFromContext(r.Context())
	slog.Error("request_failed",
		"request_id", requestID,
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)
	telemetry.CaptureError(r.Context(), err, map[string]string{
		"request_id": requestID,
		"route":      r.URL.Path,
	})
	writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
}
