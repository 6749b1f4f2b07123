package collection

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/starford/morphclean/internal/apperr"
	"github.com/starford/morphclean/internal/models"
)

// UpsertNoteType inserts or replaces a note type and its field layout.
func (db *DB) UpsertNoteType(ctx context.Context, nt models.NoteType) error {
	fieldsJSON, _ := json.Marshal(nt.Fields)
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO note_types (id, name, fields)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name   = excluded.name,
			fields = excluded.fields
	`, nt.ID, nt.Name, string(fieldsJSON))
	if err != nil {
		return fmt.Errorf("collection: upsert note type: %w", err)
	}
	return nil
}

// AddNote inserts a note. Fields missing from n are stored empty; fields not
// part of the note type are rejected.
func (db *DB) AddNote(ctx context.Context, n *models.Note) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("collection: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	layout, err := noteTypeFields(ctx, tx, n.NoteTypeID)
	if err != nil {
		return err
	}
	fields := make(map[string]string, len(layout))
	for _, name := range layout {
		fields[name] = n.Fields[name]
	}
	for name := range n.Fields {
		if _, ok := fields[name]; !ok {
			return fmt.Errorf("collection: note type %d: %q: %w", n.NoteTypeID, name, apperr.ErrFieldNotFound)
		}
	}
	n.Fields = fields
	if n.Modified.IsZero() {
		n.Modified = time.Now()
	}

	fieldsJSON, _ := json.Marshal(n.Fields)
	tagsJSON, _ := json.Marshal(nonNilSlice(n.Tags))
	res, err := tx.ExecContext(ctx, `
		INSERT INTO notes (id, mid, tags, fields, mod) VALUES (NULLIF(?, 0), ?, ?, ?, ?)
	`, n.ID, n.NoteTypeID, string(tagsJSON), string(fieldsJSON), n.Modified.Unix())
	if err != nil {
		return fmt.Errorf("collection: add note: %w", err)
	}
	if n.ID == 0 {
		if n.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("collection: add note id: %w", err)
		}
	}
	if err := ftsUpsert(ctx, tx, n.ID, n.Fields); err != nil {
		return err
	}
	return tx.Commit()
}

// AddCard inserts a card for an existing note.
func (db *DB) AddCard(ctx context.Context, c *models.Card) error {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO cards (id, nid, ord, type, queue, due) VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?)
	`, c.ID, c.NoteID, c.Ord, c.Type, c.Queue, c.Due)
	if err != nil {
		return fmt.Errorf("collection: add card: %w", err)
	}
	if c.ID == 0 {
		if c.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("collection: add card id: %w", err)
		}
	}
	return nil
}

// GetNote loads a note with every field of its type populated.
func (db *DB) GetNote(ctx context.Context, id int64) (*models.Note, error) {
	var (
		n          models.Note
		tagsJSON   string
		fieldsJSON string
		layoutJSON string
		mod        int64
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT n.id, n.mid, n.tags, n.fields, n.mod, t.fields
		FROM notes n JOIN note_types t ON t.id = n.mid
		WHERE n.id = ?
	`, id).Scan(&n.ID, &n.NoteTypeID, &tagsJSON, &fieldsJSON, &mod, &layoutJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("collection: note %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("collection: get note: %w", err)
	}

	var layout []string
	if err := json.Unmarshal([]byte(layoutJSON), &layout); err != nil {
		return nil, fmt.Errorf("collection: decode note type fields: %w", err)
	}
	stored := map[string]string{}
	if err := json.Unmarshal([]byte(fieldsJSON), &stored); err != nil {
		return nil, fmt.Errorf("collection: decode note fields: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &n.Tags); err != nil {
		return nil, fmt.Errorf("collection: decode note tags: %w", err)
	}

	n.Fields = make(map[string]string, len(layout))
	for _, name := range layout {
		n.Fields[name] = stored[name]
	}
	n.Modified = time.Unix(mod, 0)
	return &n, nil
}

// FlushNote commits a note's fields and tags and bumps its modification time.
func (db *DB) FlushNote(ctx context.Context, n *models.Note) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("collection: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	n.Modified = time.Now()
	fieldsJSON, _ := json.Marshal(n.Fields)
	tagsJSON, _ := json.Marshal(nonNilSlice(n.Tags))
	res, err := tx.ExecContext(ctx, `
		UPDATE notes SET tags = ?, fields = ?, mod = ? WHERE id = ?
	`, string(tagsJSON), string(fieldsJSON), n.Modified.Unix(), n.ID)
	if err != nil {
		return fmt.Errorf("collection: flush note: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("collection: flush note %d: %w", n.ID, apperr.ErrNotFound)
	}
	if err := ftsUpsert(ctx, tx, n.ID, n.Fields); err != nil {
		return err
	}
	return tx.Commit()
}

// RemoveNotes deletes the notes and all their cards in one transaction.
func (db *DB) RemoveNotes(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("collection: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for batch := range slices.Chunk(ids, maxBatchVars) {
		in, args := inClause(batch)
		if _, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE nid IN (`+in+`)`, args...); err != nil {
			return fmt.Errorf("collection: remove cards: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE id IN (`+in+`)`, args...); err != nil {
			return fmt.Errorf("collection: remove notes: %w", err)
		}
		ftsDelete(ctx, tx, in, args)
	}
	return tx.Commit()
}

// BuryNotes moves every card of the notes into the manually-buried queue.
func (db *DB) BuryNotes(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("collection: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for batch := range slices.Chunk(ids, maxBatchVars) {
		in, args := inClause(batch)
		args = append([]any{models.QueueManuallyBuried}, args...)
		if _, err := tx.ExecContext(ctx, `UPDATE cards SET queue = ? WHERE nid IN (`+in+`)`, args...); err != nil {
			return fmt.Errorf("collection: bury notes: %w", err)
		}
	}
	return tx.Commit()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func noteTypeFields(ctx context.Context, q queryer, mid int64) ([]string, error) {
	var layoutJSON string
	err := q.QueryRowContext(ctx, `SELECT fields FROM note_types WHERE id = ?`, mid).Scan(&layoutJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("collection: note type %d: %w", mid, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("collection: get note type: %w", err)
	}
	var layout []string
	if err := json.Unmarshal([]byte(layoutJSON), &layout); err != nil {
		return nil, fmt.Errorf("collection: decode note type fields: %w", err)
	}
	return layout, nil
}

// maxBatchVars bounds the ids bound into one IN clause, well below
// SQLite's host parameter limit.
const maxBatchVars = 500

func inClause(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
