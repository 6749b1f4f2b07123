// Package recalc triggers the morpheme recalculation that precedes a cleanup.
package recalc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"
)

// Recalculator refreshes the morpheme analysis of the collection.
type Recalculator interface {
	Recalculate(ctx context.Context) error
}

// Nop is used when no recalculation command is configured.
type Nop struct {
	Logger *slog.Logger
}

// Recalculate logs that the step was skipped.
func (n Nop) Recalculate(context.Context) error {
	if n.Logger != nil {
		n.Logger.Info("recalculation skipped: no command configured")
	}
	return nil
}

// Command runs an external recalculation program and waits for it to exit.
type Command struct {
	Args    []string
	Dir     string
	Output  io.Writer
	Timeout time.Duration
	Logger  *slog.Logger
}

// ErrNoCommand is returned by Command.Recalculate when Args is empty.
var ErrNoCommand = errors.New("recalc: empty command")

// Recalculate runs the command. The context (or Timeout, when set) bounds
// its lifetime.
func (c Command) Recalculate(ctx context.Context) error {
	if len(c.Args) == 0 {
		return ErrNoCommand
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	cmd.Dir = c.Dir
	if c.Output != nil {
		cmd.Stdout = c.Output
		cmd.Stderr = c.Output
	}

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("recalc: %s: %w", c.Args[0], err)
	}
	if c.Logger != nil {
		c.Logger.Info("recalculation finished",
			slog.String("command", c.Args[0]),
			slog.Duration("took", time.Since(start)))
	}
	return nil
}

// New returns a Command for args, or Nop when args is empty.
func New(args []string, out io.Writer, timeout time.Duration, logger *slog.Logger) Recalculator {
	if len(args) == 0 {
		return Nop{Logger: logger}
	}
	return Command{Args: args, Output: out, Timeout: timeout, Logger: logger}
}
