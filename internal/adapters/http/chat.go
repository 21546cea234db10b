package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kirillkom/rag-chat/internal/core/domain"
)

type messagePayload struct {
	Text      string `json:"text" validate:"required"`
	SessionID string `json:"sessionId" validate:"required"`
	IsEdit    bool   `json:"isEdit"`
	MessageID string `json:"messageId" validate:"required_if=IsEdit true"`
}

type newMessageResponse struct {
	UserMessage *domain.Message `json:"userMessage"`
	AIMessage   *domain.Message `json:"aiMessage"`
}

type editResponse struct {
	Success bool `json:"success"`
}

func (rt *Router) getHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("sessionId"))
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sessionId is required"})
		return
	}

	messages, err := rt.history.History(r.Context(), sessionID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

func (rt *Router) postMessage(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var payload messagePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if err := rt.validate.Struct(payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": describeValidationError(err)})
		return
	}

	result, err := rt.chat.Handle(r.Context(), domain.ChatRequest{
		SessionID: payload.SessionID,
		Text:      payload.Text,
		IsEdit:    payload.IsEdit,
		MessageID: payload.MessageID,
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	rt.recordChatTurn(string(result.Intent), payload.IsEdit, result.Sources, started)

	if payload.IsEdit {
		writeJSON(w, http.StatusOK, editResponse{Success: result.Success})
		return
	}
	writeJSON(w, http.StatusOK, newMessageResponse{
		UserMessage: result.UserMessage,
		AIMessage:   result.AIMessage,
	})
}

func describeValidationError(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid request"
	}
	names := map[string]string{
		"Text":      "text",
		"SessionID": "sessionId",
		"MessageID": "messageId",
	}
	first := fieldErrs[0]
	field := names[first.Field()]
	if field == "" {
		field = first.Field()
	}
	if first.Tag() == "required_if" {
		return field + " is required when isEdit is true"
	}
	return field + " is required"
}
