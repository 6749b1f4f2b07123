package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/morphclean/internal/actions"
	"github.com/starford/morphclean/internal/cleanup"
	"github.com/starford/morphclean/internal/collection"
	"github.com/starford/morphclean/internal/diaglog"
	"github.com/starford/morphclean/internal/media"
	"github.com/starford/morphclean/internal/recalc"
)

// components are the long-lived objects shared by every entry point.
type components struct {
	logger *slog.Logger
	db     *collection.DB
	diag   *diaglog.Sink
	media  media.Provider
	svc    *actions.Service
}

func newApplication(opts []Option) (*application, error) {
	app := &application{
		version:   "dev",
		logOutput: os.Stdout,
		stdout:    os.Stdout,
	}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func (a *application) newLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// open wires the collection, diagnostic sink, media directory and action
// service. notifier receives the action summaries.
func (a *application) open(logger *slog.Logger, notifier actions.Notifier) (*components, error) {
	cfg := a.config

	db, err := collection.Open(cfg.Collection.Path)
	if err != nil {
		return nil, fmt.Errorf("init collection: %w", err)
	}

	diag, err := diaglog.Open(cfg.Diagnostics.Options())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init diagnostics: %w", err)
	}

	c := &components{logger: logger, db: db, diag: diag}

	cleanerOpts := []cleanup.Option{
		cleanup.WithLogger(logger),
		cleanup.WithDiagnostics(diag.Logger),
	}
	if cfg.Collection.MediaDir != "" {
		fs, err := media.NewFS(cfg.Collection.MediaDir)
		if err != nil {
			logger.Warn("media directory unavailable; missing-file checks disabled",
				slog.String("media_dir", cfg.Collection.MediaDir),
				slog.String("error", err.Error()))
		} else {
			c.media = fs
			cleanerOpts = append(cleanerOpts, cleanup.WithMedia(fs))
		}
	}

	cleaner := cleanup.New(db, cfg.Cleanup.Options(), cleanerOpts...)
	rc := recalc.New(cfg.Recalc.Command, diag.Writer(), cfg.Recalc.Timeout, logger)
	c.svc = actions.NewService(db, cleaner, rc, notifier, logger)
	return c, nil
}

func (c *components) Close() error {
	return errors.Join(c.diag.Close(), c.db.Close())
}
