package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/rag-chat/internal/core/domain"
)

type sendMessageOutput struct {
	UserMessage *domain.Message `json:"userMessage,omitempty"`
	AIMessage   *domain.Message `json:"aiMessage,omitempty"`
	Success     bool            `json:"success,omitempty"`
}

func (s *Server) registerTools() {
	s.server.AddTool(mcp.NewTool("get_history",
		mcp.WithDescription("Return the transcript of a chat session in creation order"),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("session identifier")),
	), s.handleGetHistory)

	s.server.AddTool(mcp.NewTool("send_message",
		mcp.WithDescription("Ask a question about the ingested document, or edit an earlier user message"),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("session identifier")),
		mcp.WithString("text", mcp.Required(), mcp.Description("message text")),
		mcp.WithBoolean("is_edit", mcp.Description("replace message_id and drop every later message")),
		mcp.WithString("message_id", mcp.Description("user message to edit; required when is_edit is true")),
	), s.handleSendMessage)
}

func (s *Server) handleGetHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	messages, err := s.history.History(ctx, sessionID)
	if err != nil {
		return toolError(err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return jsonResult(messages)
}

func (s *Server) handleSendMessage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.chat.Handle(ctx, domain.ChatRequest{
		SessionID: sessionID,
		Text:      text,
		IsEdit:    req.GetBool("is_edit", false),
		MessageID: req.GetString("message_id", ""),
	})
	if err != nil {
		return toolError(err)
	}

	if result.Success {
		return jsonResult(sendMessageOutput{Success: true})
	}
	return jsonResult(sendMessageOutput{
		UserMessage: result.UserMessage,
		AIMessage:   result.AIMessage,
	})
}

// toolError reports caller mistakes to the model and fails the call for
// everything else.
func toolError(err error) (*mcp.CallToolResult, error) {
	if domain.IsKind(err, domain.ErrBadRequest) || domain.IsKind(err, domain.ErrNotFound) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return nil, err
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(raw)), nil
}
