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

	"github.com/starford/morphclean/internal/actions"
	"github.com/starford/morphclean/internal/api"
	"github.com/starford/morphclean/internal/mcpserver"
	"github.com/starford/morphclean/internal/seed"
	"github.com/starford/morphclean/internal/sse"
	"github.com/starford/morphclean/internal/trigger"
)

// Run starts the HTTP server, and the marker watcher when configured, until
// ctx is cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.newLogger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.HTTP.Address()),
		slog.String("collection_path", cfg.Collection.Path),
		slog.String("diagnostics_path", cfg.Diagnostics.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	c, err := app.open(logger, broker)
	if err != nil {
		return err
	}
	defer c.Close()

	apiRouter := api.NewRouter(c.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := c.db.Stats(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Trigger.MarkerPath != "" {
		g.Go(func() error {
			return trigger.Watch(gCtx, cfg.Trigger.MarkerPath, cfg.Trigger.Debounce, logger,
				func(ctx context.Context) error {
					_, err := c.svc.JustCleanUp(ctx)
					return err
				})
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunAction runs one menu action ("run" or "just_clean_up") and prints the
// summary line.
func RunAction(ctx context.Context, action string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.newLogger()

	c, err := app.open(logger, actions.WriterNotifier{W: app.stdout})
	if err != nil {
		return err
	}
	defer c.Close()

	switch action {
	case actions.ActionRun:
		_, err = c.svc.Run(ctx)
	case actions.ActionJustCleanUp:
		_, err = c.svc.JustCleanUp(ctx)
	default:
		return fmt.Errorf("unknown action %q", action)
	}
	return err
}

// ServeMCP exposes the actions over the MCP stdio transport.
func ServeMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	logger := app.newLogger()

	c, err := app.open(logger, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(c.svc, c.media, app.version).ServeStdio()
}

// Seed loads a YAML fixture into the configured collection.
func Seed(ctx context.Context, fixturePath string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.newLogger()

	f, err := seed.LoadFile(fixturePath)
	if err != nil {
		return err
	}
	c, err := app.open(logger, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	sum, err := seed.Apply(ctx, c.db, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "Seeded %d note types, %d notes, %d cards\n", sum.NoteTypes, sum.Notes, sum.Cards) //nolint:errcheck
	return nil
}
