// Package seed loads YAML fixtures of note types, notes and cards into a
// collection.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/morphclean/internal/models"
)

// Fixture is the document read by Load.
type Fixture struct {
	NoteTypes []models.NoteType `yaml:"note_types"`
	Notes     []Note            `yaml:"notes"`
}

// Note is a fixture note with its cards.
type Note struct {
	ID         int64             `yaml:"id"`
	NoteTypeID int64             `yaml:"mid"`
	Tags       []string          `yaml:"tags"`
	Fields     map[string]string `yaml:"fields"`
	Cards      []Card            `yaml:"cards"`
}

// Card is a fixture card. Type and Queue use the collection's numeric codes.
type Card struct {
	Ord   int              `yaml:"ord"`
	Type  models.CardType  `yaml:"type"`
	Queue models.CardQueue `yaml:"queue"`
	Due   int64            `yaml:"due"`
}

// Validate checks the fixture before anything is written.
func (f *Fixture) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.NoteTypes, validation.Each(validation.By(validateNoteType))),
		validation.Field(&f.Notes),
	)
}

func validateNoteType(v any) error {
	nt, _ := v.(models.NoteType)
	return validation.ValidateStruct(&nt,
		validation.Field(&nt.ID, validation.Required),
		validation.Field(&nt.Name, validation.Required),
		validation.Field(&nt.Fields, validation.Required),
	)
}

// Validate checks a single fixture note.
func (n Note) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.NoteTypeID, validation.Required),
		validation.Field(&n.Cards),
	)
}

// Validate checks a single fixture card.
func (c Card) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Type, validation.Min(models.CardTypeNew), validation.Max(models.CardTypeReview)),
		validation.Field(&c.Queue, validation.Min(models.QueueManuallyBuried), validation.Max(models.QueueReview)),
	)
}

// Load decodes and validates a fixture. Unknown keys are rejected.
func Load(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f Fixture
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("seed: decode: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("seed: invalid fixture: %w", err)
	}
	return &f, nil
}

// LoadFile reads a fixture from path.
func LoadFile(path string) (*Fixture, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	defer fh.Close()
	return Load(fh)
}

// Target is the part of the collection a fixture is written to.
type Target interface {
	UpsertNoteType(ctx context.Context, nt models.NoteType) error
	AddNote(ctx context.Context, n *models.Note) error
	AddCard(ctx context.Context, c *models.Card) error
}

// Summary counts what Apply wrote.
type Summary struct {
	NoteTypes int `json:"note_types"`
	Notes     int `json:"notes"`
	Cards     int `json:"cards"`
}

// Apply writes the fixture in order: note types, then each note followed by
// its cards. A note without cards gets one new card.
func Apply(ctx context.Context, t Target, f *Fixture) (Summary, error) {
	var sum Summary
	for _, nt := range f.NoteTypes {
		if err := t.UpsertNoteType(ctx, nt); err != nil {
			return sum, err
		}
		sum.NoteTypes++
	}
	for i, fn := range f.Notes {
		n := &models.Note{ID: fn.ID, NoteTypeID: fn.NoteTypeID, Tags: fn.Tags, Fields: fn.Fields}
		if err := t.AddNote(ctx, n); err != nil {
			return sum, fmt.Errorf("seed: note %d: %w", i, err)
		}
		sum.Notes++

		cards := fn.Cards
		if len(cards) == 0 {
			cards = []Card{{}}
		}
		for _, fc := range cards {
			c := &models.Card{NoteID: n.ID, Ord: fc.Ord, Type: fc.Type, Queue: fc.Queue, Due: fc.Due}
			if err := t.AddCard(ctx, c); err != nil {
				return sum, fmt.Errorf("seed: note %d card: %w", i, err)
			}
			sum.Cards++
		}
	}
	return sum, nil
}
