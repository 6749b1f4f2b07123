//go:build !sqlite_fts5

package collection

import (
	"context"
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; Search scans the notes.fields column with LIKE.
	return nil
}

func ftsUpsert(_ context.Context, _ *sql.Tx, _ int64, _ map[string]string) error {
	return nil
}

func ftsDelete(_ context.Context, _ *sql.Tx, _ string, _ []any) {}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(ctx context.Context, text string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + text + "%"
	rows, err := db.conn.QueryContext(ctx, `
		SELECT n.id, substr(group_concat(f.value, ' '), 1, 200)
		FROM notes n, json_each(n.fields) f
		GROUP BY n.id
		HAVING group_concat(f.value, ' ') LIKE ?
		ORDER BY n.id
		LIMIT ?
	`, like, limit)
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
