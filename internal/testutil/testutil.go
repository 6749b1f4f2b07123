// Package testutil provides shared test helpers for setting up collections.
package testutil

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/starford/morphclean/internal/collection"
	"github.com/starford/morphclean/internal/models"
)

// Note type ids registered by TestCollection.
const (
	VocabType int64 = 1001
	MediaType int64 = 1598115874278
)

// TestCollection creates a temporary collection database that is
// automatically cleaned up. It registers a vocabulary note type
// (Front, Back, TargetMorph) and a movies2anki note type.
func TestCollection(t *testing.T) *collection.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "morphclean-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := collection.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	for _, nt := range []models.NoteType{
		{ID: VocabType, Name: "MorphMan Vocab", Fields: []string{"Front", "Back", "TargetMorph"}},
		{ID: MediaType, Name: "movies2anki (add-on)", Fields: []string{"Expression", "Audio Sound", "Audio", "Video Sound", "Video", "TargetMorph"}},
	} {
		if err := db.UpsertNoteType(ctx, nt); err != nil {
			t.Fatal(err)
		}
	}
	return db
}

// NoteSpec describes a note with one card for AddNote.
type NoteSpec struct {
	NoteTypeID int64
	Fields     map[string]string
	Tags       []string
	Type       models.CardType
	Queue      models.CardQueue
	Due        int64
}

// AddNote inserts a note with a single card and returns its id.
// A zero NoteTypeID means VocabType.
func AddNote(t *testing.T, db *collection.DB, spec NoteSpec) int64 {
	t.Helper()
	ctx := context.Background()
	if spec.NoteTypeID == 0 {
		spec.NoteTypeID = VocabType
	}
	n := &models.Note{NoteTypeID: spec.NoteTypeID, Tags: spec.Tags, Fields: spec.Fields}
	if err := db.AddNote(ctx, n); err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	c := &models.Card{NoteID: n.ID, Type: spec.Type, Queue: spec.Queue, Due: spec.Due}
	if err := db.AddCard(ctx, c); err != nil {
		t.Fatalf("AddCard: %v", err)
	}
	return n.ID
}

// Morph is a NoteSpec for a new vocabulary note drilling morph.
func Morph(morph, front string, due int64, tags ...string) NoteSpec {
	return NoteSpec{
		Fields: map[string]string{"TargetMorph": morph, "Front": front},
		Tags:   tags,
		Due:    due,
	}
}

// Exists reports whether the note is still in the collection.
func Exists(t *testing.T, db *collection.DB, id int64) bool {
	t.Helper()
	ids, err := db.FindNotes(context.Background(), "nid:"+strconv.FormatInt(id, 10))
	if err != nil {
		t.Fatalf("FindNotes: %v", err)
	}
	return len(ids) == 1
}
