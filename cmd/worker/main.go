package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/rag-chat/internal/bootstrap"
	"github.com/kirillkom/rag-chat/internal/config"
	"github.com/kirillkom/rag-chat/internal/core/domain"
	"github.com/kirillkom/rag-chat/internal/observability/logging"
	"github.com/kirillkom/rag-chat/internal/observability/metrics"
	"github.com/kirillkom/rag-chat/internal/observability/telemetry"
)

const service = "rag-chat-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewJSONLogger(service, cfg.LogLevel))

	flushSentry, _ := telemetry.Init(telemetry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		ServerName:  service,
	})
	defer flushSentry()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(service)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Observers{
		OnRetry: func(operation string, _ int, _ time.Duration) {
			workerMetrics.RecordUpstreamRetry(service, operation)
		},
	})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	queue, err := bootstrap.NewQueue(cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer queue.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = queue.SubscribeIngestionJobs(ctx, func(handlerCtx context.Context, job domain.IngestionJob) error {
		started := time.Now()
		if !job.RequestedAt.IsZero() {
			workerMetrics.ObserveQueueLag(service, started.Sub(job.RequestedAt))
		}
		workerMetrics.StartJob()

		processCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Minute)
		defer cancel()
		report, err := app.Ingest.ProcessJob(processCtx, job)

		chunks := 0
		if report != nil {
			chunks = len(report.ChunkIDs)
		}
		workerMetrics.FinishJob(service, time.Since(started), chunks, err)
		if err != nil {
			telemetry.CaptureError(handlerCtx, err, map[string]string{"job_id": job.ID})
			return err
		}
		slog.Info("ingestion_job_completed",
			"job_id", job.ID,
			"chunks", chunks,
			"removed", report.Removed,
			"duration_ms", time.Since(started).Milliseconds(),
		)
		return nil
	})
	if err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
