// Package cleanup implements the post-recalculation cleanup passes: tag-query
// deletion, morph-duplicate removal, movies2anki filename repair and
// name-morph burial.
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/starford/morphclean/internal/collection"
	"github.com/starford/morphclean/internal/media"
	"github.com/starford/morphclean/internal/query"
)

// FieldPair names a wrapped sound reference field and the field that
// receives the bare filename.
type FieldPair struct {
	Source string `yaml:"source"`
	Dest   string `yaml:"dest"`
}

// Options holds the tunables shared by the passes.
type Options struct {
	// Queries are the deletion predicates of the tag-query pass.
	Queries []string
	// CandidateWindow bounds how many due-soonest new notes the morph passes
	// look at. Zero or less scans every eligible note.
	CandidateWindow int
	// TargetField holds the target morpheme.
	TargetField string
	// FrontField is the text searched by the name heuristic.
	FrontField string
	// KnownTag is added to notes whose morpheme looks like a name.
	KnownTag string
	// MediaNoteTypeID selects the movies2anki notes to repair.
	MediaNoteTypeID int64
	// MediaTag further restricts the repair when non-empty.
	MediaTag string
	// MediaFields lists the source/destination field pairs to repair.
	MediaFields []FieldPair
}

// Report lists what a run changed.
type Report struct {
	RunID             string  `json:"run_id"`
	TagQueryDeleted   []int64 `json:"tag_query_deleted"`
	DuplicatesDeleted []int64 `json:"duplicates_deleted"`
	MediaRepaired     []int64 `json:"media_repaired"`
	NamesBuried       []int64 `json:"names_buried"`
}

// Deleted returns the number of notes removed by the run.
func (r Report) Deleted() int {
	return len(r.TagQueryDeleted) + len(r.DuplicatesDeleted)
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithLogger sets the application logger used for pass summaries and warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cleaner) { c.logger = l }
}

// WithDiagnostics sets the logger receiving per-note records of what was
// removed or flagged.
func WithDiagnostics(l *slog.Logger) Option {
	return func(c *Cleaner) { c.diag = l }
}

// WithNameDetector replaces the name heuristic.
func WithNameDetector(d NameDetector) Option {
	return func(c *Cleaner) { c.detect = d }
}

// WithMedia enables the missing-file check of the filename repair.
func WithMedia(p media.Provider) Option {
	return func(c *Cleaner) { c.media = p }
}

// Cleaner runs the cleanup passes against a collection. Runs and direct pass
// calls are serialised.
type Cleaner struct {
	store  collection.Store
	opts   Options
	logger *slog.Logger
	diag   *slog.Logger
	detect NameDetector
	media  media.Provider

	mu sync.Mutex
}

// New creates a Cleaner. Without options it logs nowhere and uses
// MidSentenceCapitalized as the name heuristic.
func New(store collection.Store, opts Options, options ...Option) *Cleaner {
	discard := slog.New(slog.DiscardHandler)
	c := &Cleaner{
		store:  store,
		opts:   opts,
		logger: discard,
		diag:   discard,
		detect: MidSentenceCapitalized,
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// Run applies the four passes in order and stops at the first failure.
// Changes made by earlier passes are kept when a later one fails.
func (c *Cleaner) Run(ctx context.Context) (Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rep := Report{RunID: uuid.NewString()}
	diag := c.diag.With(slog.String("run", rep.RunID))

	var err error
	if rep.TagQueryDeleted, err = c.deleteByQueries(ctx, diag); err != nil {
		return rep, fmt.Errorf("cleanup: tag queries: %w", err)
	}
	if rep.DuplicatesDeleted, err = c.removeDuplicateMorphs(ctx, diag); err != nil {
		return rep, fmt.Errorf("cleanup: duplicate morphs: %w", err)
	}
	if rep.MediaRepaired, err = c.repairMediaFilenames(ctx, diag); err != nil {
		return rep, fmt.Errorf("cleanup: media filenames: %w", err)
	}
	if rep.NamesBuried, err = c.buryNameMorphs(ctx, diag); err != nil {
		return rep, fmt.Errorf("cleanup: name morphs: %w", err)
	}

	c.logger.Info("cleanup finished",
		slog.String("run", rep.RunID),
		slog.Int("tag_query_deleted", len(rep.TagQueryDeleted)),
		slog.Int("duplicates_deleted", len(rep.DuplicatesDeleted)),
		slog.Int("media_repaired", len(rep.MediaRepaired)),
		slog.Int("names_buried", len(rep.NamesBuried)))
	return rep, nil
}

// candidates returns the due-soonest new notes carrying a target morpheme,
// bounded by the candidate window. Each pass computes its own set.
func (c *Cleaner) candidates(ctx context.Context) ([]int64, error) {
	search := query.And("is:new", query.NonEmptyField(c.opts.TargetField))
	return c.store.DueNoteIDs(ctx, search, c.opts.CandidateWindow)
}
