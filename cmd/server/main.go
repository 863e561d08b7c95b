// Package main implements the entry point for the plan-generation API
// server, which turns exam-preparation surveys into AI-assisted study
// plans through an asynchronous task pipeline.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/medtitle/plangen-api/internal/config"
	"github.com/medtitle/plangen-api/internal/generation"
	"github.com/medtitle/plangen-api/internal/platform/boltstore"
	"github.com/medtitle/plangen-api/internal/platform/gemini"
	"github.com/medtitle/plangen-api/internal/platform/logger"
	"github.com/medtitle/plangen-api/internal/platform/postgres"
	"github.com/medtitle/plangen-api/internal/service"
	"github.com/medtitle/plangen-api/internal/task"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

// run wires every component together and blocks until shutdown.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"worker_count", cfg.Task.WorkerCount)

	// Relational database: plan persistence and the owner directory.
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelPing()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(db, appLogger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Durable task-record store.
	records, err := boltstore.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open task record store: %w", err)
	}
	defer func() {
		_ = records.Close()
	}()

	// Synthesis engine: Gemini generator when an API key is configured,
	// fallback-only otherwise.
	var generator generation.Generator
	if cfg.LLM.GeminiAPIKey != "" {
		g, err := gemini.NewGenerator(context.Background(), appLogger, cfg.LLM)
		if err != nil {
			return fmt.Errorf("failed to create gemini generator: %w", err)
		}
		generator = g
	} else {
		appLogger.Warn("no Gemini API key configured, plans will use fallback synthesis only")
	}
	engine := generation.NewEngine(generator, appLogger)

	plans := postgres.NewPostgresPlanStore(db)
	owners := postgres.NewPostgresOwnerDirectory(db)

	executor, err := task.NewPlanGenerationJob(
		records,
		engine,
		plans,
		cfg.Task.EstimatedDuration,
		cfg.Task.HeartbeatInterval,
		appLogger,
	)
	if err != nil {
		return fmt.Errorf("failed to create generation executor: %w", err)
	}

	runner := task.NewRunner(records, executor, task.RunnerConfig{
		WorkerCount:     cfg.Task.WorkerCount,
		QueueSize:       cfg.Task.QueueSize,
		MaxPerOwner:     cfg.Task.MaxPerOwner,
		RetentionWindow: cfg.Task.RetentionWindow,
		CleanupInterval: cfg.Task.CleanupInterval,
	}, appLogger)

	if err := runner.Start(); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}

	planService := service.NewPlanService(owners, records, plans, runner, cfg.Task.EstimatedDuration, appLogger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           newRouter(planService, appLogger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		appLogger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "error", err)
	}

	// Stop the runner after the HTTP server so no submissions arrive for
	// a stopped queue. In-flight jobs are cancelled; their pending
	// records are recovered on the next start.
	runner.Stop()

	appLogger.Info("shutdown complete")
	return nil
}
