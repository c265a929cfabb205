// Command graflowd runs the workflow-execution HTTP server, grounded on
// the teacher's cmd/server/main.go (flag parsing, graceful shutdown via
// signal.Notify) rewired onto the orchestrator/registry/journal stack.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/graflow/graflow/internal/executors"
	"github.com/graflow/graflow/internal/infrastructure/api/rest"
	"github.com/graflow/graflow/internal/infrastructure/config"
	"github.com/graflow/graflow/internal/infrastructure/logger"
	"github.com/graflow/graflow/internal/infrastructure/monitoring"
	"github.com/graflow/graflow/internal/infrastructure/storage"
	"github.com/graflow/graflow/internal/journal"
	"github.com/graflow/graflow/internal/orchestrator"
	"github.com/graflow/graflow/internal/registry"
)

func main() {
	port := flag.String("port", "", "server port (overrides config)")
	flag.Parse()

	cfg := config.Load()
	if *port != "" {
		cfg.Port = *port
	}

	log := logger.New(cfg.LogLevel, false)
	log.Info().Str("port", cfg.Port).Msg("starting graflowd")

	var j journal.Journal
	if cfg.DatabaseDSN != "" {
		pg := storage.NewPostgresJournal(cfg.DatabaseDSN)
		if err := pg.InitSchema(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to initialize database schema")
			os.Exit(1)
		}
		j = pg
		log.Info().Msg("using PostgresJournal")
	} else {
		j = storage.NewMemoryJournal()
		log.Info().Msg("using MemoryJournal (DATABASE_DSN unset)")
	}

	workflows := storage.NewWorkflowStore()

	reg := registry.New()
	reg.RegisterBuiltin(executors.NewHTTPExecutor())
	reg.RegisterBuiltin(executors.NewTransformExecutor())
	if cfg.OpenAIAPIKey != "" {
		reg.RegisterBuiltin(executors.NewLLMExecutor(cfg.OpenAIAPIKey))
	}

	orch := orchestrator.New(j, reg, workflows, log, cfg.GetMaxIterationsDefault())
	reg.SetCustomExecutorFactory(orch.CustomExecutorFactory())

	metrics := monitoring.NewMetricsCollector()
	orch.AddObserver(metrics)

	srv := rest.NewServer(workflows, orch, j, reg, log)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // SSE/websocket connections are long-lived
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("address", httpServer.Addr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}
	log.Info().Msg("server exited gracefully")
}
