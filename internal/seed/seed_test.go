package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/morphclean/internal/apperr"
	"github.com/starford/morphclean/internal/collection"
)

const fixture = `
note_types:
  - id: 1001
    name: Vocab
    fields: [Front, Back, TargetMorph]
notes:
  - mid: 1001
    tags: [morphman, mm_fresh]
    fields:
      Front: 食べる
      TargetMorph: taberu
    cards:
      - due: 3
  - mid: 1001
    fields:
      TargetMorph: nomu
    cards:
      - type: 2
        queue: 2
        due: 10
      - ord: 1
        queue: -1
  - mid: 1001
    fields:
      TargetMorph: miru
`

func openDB(t *testing.T) *collection.DB {
	t.Helper()
	db, err := collection.Open(filepath.Join(t.TempDir(), "seed.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadAndApply(t *testing.T) {
	f, err := Load(strings.NewReader(fixture))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	db := openDB(t)
	ctx := context.Background()

	sum, err := Apply(ctx, db, f)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if diff := cmp.Diff(Summary{NoteTypes: 1, Notes: 3, Cards: 4}, sum); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	ids, _ := db.FindNotes(ctx, "tag:mm_fresh is:new")
	if len(ids) != 1 {
		t.Fatalf("fresh notes = %v", ids)
	}
	n, _ := db.GetNote(ctx, ids[0])
	if n.Fields["Front"] != "食べる" || n.Fields["Back"] != "" {
		t.Errorf("fields = %+v", n.Fields)
	}
	suspended, _ := db.FindNotes(ctx, "is:suspended")
	if len(suspended) != 1 {
		t.Errorf("suspended = %v", suspended)
	}
	// The card-less note got a default new card.
	miru, _ := db.FindNotes(ctx, "TargetMorph:miru is:new")
	if len(miru) != 1 {
		t.Errorf("miru = %v", miru)
	}
}

func TestLoad_UnknownKey(t *testing.T) {
	if _, err := Load(strings.NewReader("notez: []\n")); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"missing mid":    "notes:\n  - fields: {A: b}\n",
		"bad queue":      "notes:\n  - mid: 1\n    cards:\n      - queue: 7\n",
		"unnamed type":   "note_types:\n  - id: 5\n    fields: [A]\n",
		"type no fields": "note_types:\n  - id: 5\n    name: X\n",
	}
	for name, doc := range cases {
		if _, err := Load(strings.NewReader(doc)); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestLoad_Empty(t *testing.T) {
	f, err := Load(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(f.Notes) != 0 || len(f.NoteTypes) != 0 {
		t.Errorf("fixture = %+v", f)
	}
}

func TestApply_UnknownField(t *testing.T) {
	f, err := Load(strings.NewReader(`
note_types:
  - {id: 1, name: V, fields: [Front]}
notes:
  - mid: 1
    fields: {Back: x}
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := Apply(context.Background(), openDB(t), f); !errors.Is(err, apperr.ErrFieldNotFound) {
		t.Fatalf("err = %v, want ErrFieldNotFound", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	if err := os.WriteFile(path, []byte(fixture), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(f.Notes) != 3 {
		t.Errorf("notes = %d", len(f.Notes))
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
