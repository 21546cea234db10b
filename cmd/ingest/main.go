package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kirillkom/rag-chat/internal/bootstrap"
	"github.com/kirillkom/rag-chat/internal/config"
	"github.com/kirillkom/rag-chat/internal/core/domain"
	"github.com/kirillkom/rag-chat/internal/core/usecase"
	"github.com/kirillkom/rag-chat/internal/observability/logging"
)

const service = "rag-chat-ingest"

func main() {
	rootCmd := &cobra.Command{
		Use:           "ingest",
		Short:         "Build the document chunk store",
		Long:          "Split a UTF-8 document into fixed-size windows, embed each window and store it for retrieval",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(enqueueCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Ingest a document in this process",
		Long:  "Ingest a document in this process. The first failure aborts the run; rerun with --reset.",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}
	cmd.Flags().Bool("reset", false, "Delete every stored chunk before ingesting")
	cmd.Flags().Int("chunk-size", 0, "Window size in characters (default CHUNK_SIZE_CHARS)")
	return cmd
}

func enqueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enqueue <file>",
		Short: "Queue a document for the ingestion worker",
		Args:  cobra.ExactArgs(1),
		RunE:  runEnqueue,
	}
	cmd.Flags().Bool("reset", false, "Delete every stored chunk before ingesting")
	cmd.Flags().Int("chunk-size", 0, "Window size in characters (default CHUNK_SIZE_CHARS)")
	return cmd
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	slog.SetDefault(logging.New(os.Stderr, service, cfg.LogLevel))
	return cfg, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	reset, _ := cmd.Flags().GetBool("reset")
	chunkSize, _ := cmd.Flags().GetInt("chunk-size")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Observers{})
	if err != nil {
		return err
	}
	defer app.Close()

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	defer file.Close()

	key := usecase.StorageKey(uuid.NewString(), args[0])
	if err := app.Storage.Save(ctx, key, file); err != nil {
		return fmt.Errorf("store document: %w", err)
	}

	report, err := app.Ingest.Ingest(ctx, domain.IngestionRequest{
		SourceKey: key,
		ChunkSize: chunkSize,
		Reset:     reset,
	})
	if err != nil {
		stored := 0
		if report != nil {
			stored = len(report.ChunkIDs)
		}
		return fmt.Errorf("ingestion aborted after %d chunks (rerun with --reset): %w", stored, err)
	}

	return printJSON(map[string]any{
		"source":      key,
		"chunks":      len(report.ChunkIDs),
		"dimensions":  report.Dimensions,
		"removed":     report.Removed,
		"duration_ms": report.CompletedAt.Sub(report.StartedAt).Milliseconds(),
	})
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	reset, _ := cmd.Flags().GetBool("reset")
	chunkSize, _ := cmd.Flags().GetInt("chunk-size")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	scheduler, err := bootstrap.NewScheduler(cfg)
	if err != nil {
		return err
	}
	defer scheduler.Close()

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	defer file.Close()

	job, err := scheduler.Enqueue(cmd.Context(), args[0], file, chunkSize, reset)
	if domain.IsKind(err, domain.ErrTemporary) {
		return fmt.Errorf("queue unavailable, retry once NATS is reachable: %w", err)
	}
	if err != nil {
		return err
	}
	return printJSON(job)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
