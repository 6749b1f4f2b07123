//go:build sqlite_fts5

package collection

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(ctx context.Context, tx *sql.Tx, id int64, fields map[string]string) error {
	_, _ = tx.ExecContext(ctx, `DELETE FROM notes_fts WHERE rowid = ?`, id)
	_, err := tx.ExecContext(ctx, `INSERT INTO notes_fts (rowid, body) VALUES (?, ?)`, id, joinFields(fields))
	if err != nil {
		return fmt.Errorf("collection: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(ctx context.Context, tx *sql.Tx, in string, args []any) {
	_, _ = tx.ExecContext(ctx, `DELETE FROM notes_fts WHERE rowid IN (`+in+`)`, args...)
}

// Search performs an FTS5 full-text search over note fields.
func (db *DB) Search(ctx context.Context, text string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT rowid, snippet(notes_fts, 0, '<b>', '</b>', '...', 32)
		FROM notes_fts
		WHERE notes_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, text, limit)
	if err != nil {
		return nil, fmt.Errorf("collection: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.NoteID, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func joinFields(fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)
	values := make([]string, len(names))
	for i, name := range names {
		values[i] = fields[name]
	}
	return strings.Join(values, " ")
}
