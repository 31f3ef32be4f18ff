// Package main is the entry point for the taxonomy service.
// It loads configuration, connects to PostgreSQL, sets up routing, and
// starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taxonomy/internal/config"
	"taxonomy/internal/database"
	"taxonomy/internal/handlers"
	"taxonomy/internal/router"
	"taxonomy/internal/store"
)

func main() {
	// Structured logger for everything downstream.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"default_locale", cfg.DefaultLocale,
	)

	if cfg.IsDev() && cfg.APIToken == "" {
		slog.Warn("API_TOKEN not set — API authentication disabled")
	}

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Initialize data stores.
	categoryStore := store.NewCategoryStore(db, cfg.DefaultLocale)
	relationStore := store.NewRelationStore(db, cfg.DefaultLocale)

	// Create handler groups with their dependencies.
	categoryHandlers := handlers.NewCategories(categoryStore)
	relationHandlers := handlers.NewRelations(relationStore)

	// Set up the Chi router with all middleware and routes.
	r := router.New(cfg.APIToken, categoryHandlers, relationHandlers)

	// Create the HTTP server with sensible timeouts. Every operation is a
	// bounded query or a short write, so tight limits are fine.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
