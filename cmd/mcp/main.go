package main

import (
	"context"
	"log/slog"
	"os"

	mcpadapter "github.com/kirillkom/rag-chat/internal/adapters/mcp"
	"github.com/kirillkom/rag-chat/internal/bootstrap"
	"github.com/kirillkom/rag-chat/internal/config"
	"github.com/kirillkom/rag-chat/internal/observability/logging"
)

const service = "rag-chat-mcp"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	// stdout carries the protocol.
	slog.SetDefault(logging.New(os.Stderr, service, cfg.LogLevel))

	app, err := bootstrap.New(context.Background(), cfg, bootstrap.Observers{})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	server, err := mcpadapter.NewServer(app.Chat, app.Chat)
	if err != nil {
		slog.Error("mcp_server_init_failed", "error", err)
		os.Exit(1)
	}
	if err := server.ServeStdio(); err != nil {
		slog.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
