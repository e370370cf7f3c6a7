// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/homebase-app/homebase/internal/api"
	"github.com/homebase-app/homebase/internal/index"
	"github.com/homebase-app/homebase/internal/mcpserver"
	"github.com/homebase-app/homebase/internal/project"
	"github.com/homebase-app/homebase/internal/sse"
	"github.com/homebase-app/homebase/internal/store"
	"github.com/homebase-app/homebase/internal/vault"
	"github.com/homebase-app/homebase/internal/watch"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure the vault directory tree exists.
	if err := vault.EnsureLayout(cfg.Vault.Path); err != nil {
		return fmt.Errorf("ensure vault layout: %w", err)
	}

	fs, err := vault.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init vault: %w", err)
	}

	// Initialize SQLite index.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Note store: authoritative in-memory state plus the debounced write path.
	st := store.New(store.Options{
		Provider:    fs,
		Index:       db,
		Logger:      logger,
		Debounce:    cfg.Store.Debounce(),
		TitleMaxLen: cfg.Store.TitleMaxLen,
		Notify:      broker.PublishStoreEvent,
	})
	if err := st.Load(); err != nil {
		return fmt.Errorf("load vault: %w", err)
	}
	defer st.Close()

	// Drop index entries for files deleted while the app was closed.
	watch.Reconcile(db, fs, logger, nil)

	projects := project.NewService(fs)

	apiRouter := api.NewRouter(st, projects, db, fs,
		cfg.Auth.AuthEnabled(), cfg.Auth.Token, http.HandlerFunc(broker.ServeHTTP))

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback. It keeps the index in step with
	// files edited outside the app; the in-memory store stays authoritative.
	g.Go(func() error {
		return watch.Run(gCtx, db, fs, cfg.Vault.Path, logger, func(kind, path string) {
			broker.Publish(sse.Event{Type: "file." + kind, Data: map[string]string{"path": path}})
		})
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the MCP server on stdio. Logs go to stderr so stdout stays
// clean for the protocol stream.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	if err := vault.EnsureLayout(cfg.Vault.Path); err != nil {
		return fmt.Errorf("ensure vault layout: %w", err)
	}
	fs, err := vault.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init vault: %w", err)
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	st := store.New(store.Options{
		Provider:    fs,
		Index:       db,
		Logger:      logger,
		Debounce:    cfg.Store.Debounce(),
		TitleMaxLen: cfg.Store.TitleMaxLen,
	})
	if err := st.Load(); err != nil {
		return fmt.Errorf("load vault: %w", err)
	}
	defer st.Close()

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(st, db).ServeStdio()
}
