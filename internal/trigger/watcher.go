// Package trigger runs a cleanup when an external recalculation signals it
// has finished by touching a marker file.
package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Watch is given a non-positive debounce.
const DefaultDebounce = 200 * time.Millisecond

// Func is invoked once per burst of marker file changes.
type Func func(ctx context.Context) error

// Watch watches markerPath until ctx is cancelled. Each create or write of
// the marker restarts a debounce timer; when it fires, fn runs. Failures of
// fn are logged and watching continues.
//
// The marker's parent directory is watched rather than the file itself, so
// the marker does not need to exist when watching starts and survives being
// replaced by an atomic rename.
func Watch(ctx context.Context, markerPath string, debounce time.Duration, logger *slog.Logger, fn Func) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	marker, err := filepath.Abs(markerPath)
	if err != nil {
		return fmt.Errorf("trigger: resolve marker: %w", err)
	}
	dir := filepath.Dir(marker)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("trigger: create marker dir: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("trigger: watch %s: %w", dir, err)
	}

	logger.Info("trigger: started", slog.String("marker", marker))

	var timer *time.Timer
	var fire <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("trigger: stopped")
			return nil

		case <-fire:
			logger.Info("trigger: marker changed, running cleanup")
			if err := fn(ctx); err != nil {
				logger.Error("trigger: cleanup failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != marker {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				logger.Debug("trigger: marker event", slog.String("op", ev.Op.String()))
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("trigger: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}
