package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/treeline-ai/treeline/internal/api"
	"github.com/treeline-ai/treeline/internal/config"
	"github.com/treeline-ai/treeline/internal/oracle"
	"github.com/treeline-ai/treeline/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	client := oracle.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)

	// Initialize pipeline.
	runner := pipeline.NewRunner(client, log, pipeline.Config{
		MaxTokensPerChunk: cfg.MaxTokensPerChunk,
		EnrichRunbooks:    cfg.EnrichRunbooks,
	})
	orch := pipeline.NewOrchestrator(runner, log, cfg.WorkerCount, cfg.MaxQueueSize, cfg.RunTTL)
	orch.Start(ctx)

	// Initialize HTTP server. WriteTimeout is generous because /api/graphs/
	// generate streams for the lifetime of a run.
	srv := api.NewServer(orch, runner, client, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		client.Close()
	}()

	log.Info("starting treeline", "port", cfg.Port, "model", cfg.AnthropicModel)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
