// Package diaglog provides the rotated diagnostic log that records what each
// cleanup pass removed, repaired or buried.
package diaglog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the diagnostic sink.
type Options struct {
	// Path of the active log file. Empty disables the sink.
	Path string
	// MaxSizeMB is the size at which the file rolls over.
	MaxSizeMB int
	// MaxBackups is the number of rolled files kept.
	MaxBackups int
}

// Sink owns the rotated log file. It is created by Open and must be closed
// by the caller.
type Sink struct {
	Logger *slog.Logger
	w      io.Writer
	closer io.Closer
}

// Open creates the log directory if needed and returns a sink logging at
// debug level. An empty path yields a sink that discards everything.
func Open(opts Options) (*Sink, error) {
	if opts.Path == "" {
		return Discard(), nil
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, fmt.Errorf("diaglog: create dir: %w", err)
	}
	w := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
	}
	return New(w, w), nil
}

// New wraps an arbitrary writer. closer may be nil.
func New(w io.Writer, closer io.Closer) *Sink {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return &Sink{Logger: logger, w: w, closer: closer}
}

// Writer returns the raw destination, used to capture the output of the
// recalculation command next to the pass records.
func (s *Sink) Writer() io.Writer {
	return s.w
}

// Discard returns a sink that drops all records.
func Discard() *Sink {
	return New(io.Discard, nil)
}

// Close flushes and closes the underlying file.
func (s *Sink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
