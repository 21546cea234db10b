package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/kirillkom/rag-chat/internal/core/domain"
	"github.com/kirillkom/rag-chat/internal/core/ports"
)

// IntentRouter classifies a user turn with the LLM and fails open to QUERY.
type IntentRouter struct {
	generator ports.TextGenerator
}

func NewIntentRouter(generator ports.TextGenerator) *IntentRouter {
	return &IntentRouter{generator: generator}
}

type intentPayload struct {
	Intent   string `json:"intent"`
	Response any    `json:"response"`
}

func (r *IntentRouter) Classify(ctx context.Context, text string) domain.Classification {
	query := domain.Classification{Intent: domain.IntentQuery}

	raw, err := r.generator.Generate(ctx, text, intentSystemInstruction)
	if err != nil {
		slog.Warn("intent_classification_failed", "component", "intent_router", "error", err)
		return query
	}

	payload, ok := decodeFirstJSONObject(raw)
	if !ok {
		slog.Warn("intent_classification_unparsable", "component", "intent_router", "response_bytes", len(raw))
		return query
	}

	if !strings.EqualFold(strings.TrimSpace(payload.Intent), string(domain.IntentGreeting)) {
		return query
	}
	reply, _ := payload.Response.(string)
	if reply == "" {
		return query
	}
	return domain.Classification{Intent: domain.IntentGreeting, Reply: reply}
}

// decodeFirstJSONObject decodes the first JSON object in raw, ignoring any
// prose or code fences around it.
func decodeFirstJSONObject(raw string) (intentPayload, bool) {
	for offset := 0; offset < len(raw); {
		start := strings.IndexByte(raw[offset:], '{')
		if start < 0 {
			break
		}
		start += offset

		var payload intentPayload
		if err := json.NewDecoder(strings.NewReader(raw[start:])).Decode(&payload); err == nil {
			return payload, true
		}
		offset = start + 1
	}
	return intentPayload{}, false
}
