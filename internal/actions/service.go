// Package actions implements the two user-facing actions, "Run" and
// "Just clean up", shared by the CLI, HTTP and MCP surfaces.
package actions

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/starford/morphclean/internal/cleanup"
	"github.com/starford/morphclean/internal/collection"
	"github.com/starford/morphclean/internal/models"
	"github.com/starford/morphclean/internal/recalc"
)

// Action names used in notifications and logs.
const (
	ActionRun         = "run"
	ActionJustCleanUp = "just_clean_up"
)

// Notifier shows the transient summary of a finished action.
type Notifier interface {
	Notify(ctx context.Context, action string, rep cleanup.Report)
}

// Message formats the user-visible summary of a report.
func Message(rep cleanup.Report) string {
	return fmt.Sprintf("Deleted %d notes", rep.Deleted())
}

// WriterNotifier prints the summary line to W.
type WriterNotifier struct {
	W io.Writer
}

// Notify writes Message(rep).
func (n WriterNotifier) Notify(_ context.Context, _ string, rep cleanup.Report) {
	fmt.Fprintln(n.W, Message(rep)) //nolint:errcheck
}

// Notifiers fans a notification out to several notifiers.
type Notifiers []Notifier

// Notify calls every notifier in order.
func (ns Notifiers) Notify(ctx context.Context, action string, rep cleanup.Report) {
	for _, n := range ns {
		n.Notify(ctx, action, rep)
	}
}

// Service coordinates recalculation, cleanup and the collection reads the
// surfaces expose.
type Service struct {
	store    collection.Store
	cleaner  *cleanup.Cleaner
	recalc   recalc.Recalculator
	notifier Notifier
	logger   *slog.Logger
}

// NewService creates a new action service. A nil notifier discards
// notifications.
func NewService(store collection.Store, cleaner *cleanup.Cleaner, rc recalc.Recalculator, notifier Notifier, logger *slog.Logger) *Service {
	if rc == nil {
		rc = recalc.Nop{Logger: logger}
	}
	if notifier == nil {
		notifier = Notifiers(nil)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, cleaner: cleaner, recalc: rc, notifier: notifier, logger: logger}
}

// Run recalculates morphemes, then runs every cleanup pass.
func (s *Service) Run(ctx context.Context) (cleanup.Report, error) {
	if err := s.recalc.Recalculate(ctx); err != nil {
		return cleanup.Report{}, fmt.Errorf("actions: run: %w", err)
	}
	return s.cleanUp(ctx, ActionRun)
}

// JustCleanUp runs every cleanup pass without recalculating.
func (s *Service) JustCleanUp(ctx context.Context) (cleanup.Report, error) {
	return s.cleanUp(ctx, ActionJustCleanUp)
}

func (s *Service) cleanUp(ctx context.Context, action string) (cleanup.Report, error) {
	rep, err := s.cleaner.Run(ctx)
	if err != nil {
		return rep, fmt.Errorf("actions: %s: %w", action, err)
	}
	s.notifier.Notify(ctx, action, rep)
	s.refresh(ctx)
	return rep, nil
}

// refresh re-reads the collection totals after an action.
func (s *Service) refresh(ctx context.Context) {
	st, err := s.store.Stats(ctx)
	if err != nil {
		s.logger.Warn("state refresh failed", slog.String("error", err.Error()))
		return
	}
	s.logger.Info("collection state",
		slog.Int("notes", st.Notes),
		slog.Int("cards", st.Cards),
		slog.Int("new", st.New),
		slog.Int("suspended", st.Suspended),
		slog.Int("buried", st.Buried))
}

// FindNotes returns the ids of notes matching search.
func (s *Service) FindNotes(ctx context.Context, search string) ([]int64, error) {
	return s.store.FindNotes(ctx, search)
}

// GetNote loads a single note.
func (s *Service) GetNote(ctx context.Context, id int64) (*models.Note, error) {
	return s.store.GetNote(ctx, id)
}

// Search runs a full-text search over note fields.
func (s *Service) Search(ctx context.Context, text string, limit int) ([]collection.SearchResult, error) {
	return s.store.Search(ctx, text, limit)
}

// Stats returns the collection totals.
func (s *Service) Stats(ctx context.Context) (collection.Stats, error) {
	return s.store.Stats(ctx)
}
