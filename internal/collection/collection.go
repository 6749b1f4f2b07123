package collection

import (
	"context"

	"github.com/starford/morphclean/internal/models"
)

// Order is the due-rank direction for card searches.
type Order int

const (
	DueAscending Order = iota
	DueDescending
)

// CardRef identifies a card matched by a search together with its due rank.
type CardRef struct {
	ID     int64 `json:"id"`
	NoteID int64 `json:"nid"`
	Due    int64 `json:"due"`
}

// SearchResult is one full-text hit.
type SearchResult struct {
	NoteID  int64  `json:"nid"`
	Snippet string `json:"snippet"`
}

// Stats summarises the collection after a run.
type Stats struct {
	Notes     int `json:"notes"`
	Cards     int `json:"cards"`
	New       int `json:"new"`
	Suspended int `json:"suspended"`
	Buried    int `json:"buried"`
}

// Store is the note store the cleanup passes consume. Consumers should
// depend on this interface rather than the concrete *DB type.
type Store interface {
	FindNotes(ctx context.Context, search string) ([]int64, error)
	FindCards(ctx context.Context, search string, order Order) ([]CardRef, error)
	DueNoteIDs(ctx context.Context, search string, limit int) ([]int64, error)
	GetNote(ctx context.Context, id int64) (*models.Note, error)
	FlushNote(ctx context.Context, n *models.Note) error
	RemoveNotes(ctx context.Context, ids []int64) error
	BuryNotes(ctx context.Context, ids []int64) error
	Search(ctx context.Context, text string, limit int) ([]SearchResult, error)
	Stats(ctx context.Context) (Stats, error)
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
