package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/rag-chat/internal/core/domain"
	"github.com/kirillkom/rag-chat/internal/core/ports"
	"github.com/kirillkom/rag-chat/internal/core/similarity"
)

// ChatUseCase records user turns, produces the model reply and keeps each
// session a linear history.
type ChatUseCase struct {
	messages  ports.TransactionalMessageLog
	router    ports.IntentClassifier
	embedder  ports.Embedder
	chunks    ports.ChunkStore
	generator ports.TextGenerator
	topK      int
}

func NewChatUseCase(
	messages ports.TransactionalMessageLog,
	router ports.IntentClassifier,
	embedder ports.Embedder,
	chunks ports.ChunkStore,
	generator ports.TextGenerator,
	topK int,
) *ChatUseCase {
	if topK <= 0 {
		topK = similarity.DefaultTopK
	}
	return &ChatUseCase{
		messages:  messages,
		router:    router,
		embedder:  embedder,
		chunks:    chunks,
		generator: generator,
		topK:      topK,
	}
}

func (uc *ChatUseCase) History(ctx context.Context, sessionID string) ([]domain.Message, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, domain.WrapError(domain.ErrBadRequest, "history", errors.New("sessionId is required"))
	}
	return uc.messages.ListBySession(ctx, sessionID)
}

// Handle stores the user turn (or applies an edit), then appends the model
// reply. A failure after the user turn is stored leaves it in place.
func (uc *ChatUseCase) Handle(ctx context.Context, req domain.ChatRequest) (*domain.ChatResult, error) {
	if err := validateChatRequest(req); err != nil {
		return nil, err
	}

	var userMsg *domain.Message
	if req.IsEdit {
		if err := uc.editUserTurn(ctx, req); err != nil {
			return nil, err
		}
	} else {
		appended, err := uc.messages.Append(ctx, domain.NewMessage{
			SessionID: req.SessionID,
			Role:      domain.RoleUser,
			Text:      req.Text,
		})
		if err != nil {
			return nil, fmt.Errorf("append user message: %w", err)
		}
		userMsg = appended
	}

	classification := uc.router.Classify(ctx, req.Text)

	aiText, sources, err := uc.reply(ctx, req.Text, classification)
	if err != nil {
		slog.Error("chat_reply_failed",
			"component", "chat",
			"session_id", req.SessionID,
			"intent", string(classification.Intent),
			"error", err,
		)
		return nil, err
	}

	aiMsg, err := uc.messages.Append(ctx, domain.NewMessage{
		SessionID: req.SessionID,
		Role:      domain.RoleModel,
		Text:      aiText,
	})
	if err != nil {
		return nil, fmt.Errorf("append model message: %w", err)
	}

	slog.Info("chat_turn_completed",
		"component", "chat",
		"session_id", req.SessionID,
		"edit", req.IsEdit,
		"intent", string(classification.Intent),
		"sources", sources,
	)

	result := &domain.ChatResult{
		AIMessage: aiMsg,
		Intent:    classification.Intent,
		Sources:   sources,
	}
	if req.IsEdit {
		result.Success = true
		return result, nil
	}
	result.UserMessage = userMsg
	return result, nil
}

// editUserTurn rewrites the target message and drops every later message in
// the session, atomically.
func (uc *ChatUseCase) editUserTurn(ctx context.Context, req domain.ChatRequest) error {
	target, err := uc.messages.FindByID(ctx, req.MessageID)
	if err != nil {
		return fmt.Errorf("load edit target: %w", err)
	}
	if target == nil || target.SessionID != req.SessionID {
		// A foreign message is reported exactly like a missing one.
		return domain.NewError(domain.ErrNotFound, "edit message", "id="+req.MessageID)
	}

	err = uc.messages.WithinTx(ctx, func(log ports.MessageLog) error {
		removed, err := log.DeleteAfter(ctx, target.SessionID, target.CreatedAt)
		if err != nil {
			return err
		}
		if _, err := log.UpdateText(ctx, target.ID, req.Text); err != nil {
			return err
		}
		slog.Info("chat_history_truncated",
			"component", "chat",
			"session_id", target.SessionID,
			"message_id", target.ID,
			"removed", removed,
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("edit and truncate: %w", err)
	}
	return nil
}

func (uc *ChatUseCase) reply(ctx context.Context, text string, classification domain.Classification) (string, int, error) {
	if classification.IsGreeting() {
		return classification.Reply, 0, nil
	}

	queryVec, err := uc.embedder.Embed(ctx, text)
	if err != nil {
		return "", 0, fmt.Errorf("embed query: %w", err)
	}

	chunks, err := uc.chunks.ScanChunks(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("scan chunks: %w", err)
	}

	top := similarity.TopK(queryVec, chunks, uc.topK)
	answer, err := uc.generator.Generate(ctx, BuildAugmentedPrompt(top, text), AnswerSystemInstruction)
	if err != nil {
		return "", len(top), fmt.Errorf("generate answer: %w", err)
	}
	return answer, len(top), nil
}

func validateChatRequest(req domain.ChatRequest) error {
	const op = "chat request"
	switch {
	case strings.TrimSpace(req.Text) == "":
		return domain.NewError(domain.ErrBadRequest, op, "text is required")
	case strings.TrimSpace(req.SessionID) == "":
		return domain.NewError(domain.ErrBadRequest, op, "sessionId is required")
	case req.IsEdit && strings.TrimSpace(req.MessageID) == "":
		return domain.NewError(domain.ErrBadRequest, op, "messageId is required when isEdit is true")
	default:
		return nil
	}
}
