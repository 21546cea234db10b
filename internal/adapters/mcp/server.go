// Package mcp exposes the chat session over the Model Context Protocol.
package mcp

import (
	"errors"

	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/rag-chat/internal/core/ports"
)

const (
	serverName = "rag-chat"
	Version    = "0.1.0"
)

type Server struct {
	chat    ports.ChatService
	history ports.HistoryReader
	server  *server.MCPServer
}

func NewServer(chat ports.ChatService, history ports.HistoryReader) (*Server, error) {
	if chat == nil || history == nil {
		return nil, errors.New("mcp server requires chat and history services")
	}

	s := &Server{
		chat:    chat,
		history: history,
		server:  server.NewMCPServer(serverName, Version, server.WithToolCapabilities(false)),
	}
	s.registerTools()
	return s, nil
}

// ServeStdio blocks serving requests on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.server)
}
