package collection

import (
	"context"
	"fmt"

	"github.com/starford/morphclean/internal/query"
)

// FindNotes returns the ids of notes matching search, ascending.
func (db *DB) FindNotes(ctx context.Context, search string) ([]int64, error) {
	q, err := query.Parse(search)
	if err != nil {
		return nil, err
	}
	where, args := q.SQL(query.NoteMode)
	rows, err := db.conn.QueryContext(ctx, `SELECT n.id FROM notes n WHERE `+where+` ORDER BY n.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("collection: find notes %q: %w", search, err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// FindCards returns the cards matching search sorted by due rank. Ties are
// broken by card id so the order is stable.
func (db *DB) FindCards(ctx context.Context, search string, order Order) ([]CardRef, error) {
	q, err := query.Parse(search)
	if err != nil {
		return nil, err
	}
	where, args := q.SQL(query.CardMode)
	rows, err := db.conn.QueryContext(ctx, `
		SELECT c.id, c.nid, c.due
		FROM cards c JOIN notes n ON n.id = c.nid
		WHERE `+where+`
		ORDER BY `+orderBy(order), args...)
	if err != nil {
		return nil, fmt.Errorf("collection: find cards %q: %w", search, err)
	}
	defer rows.Close()

	var out []CardRef
	for rows.Next() {
		var c CardRef
		if err := rows.Scan(&c.ID, &c.NoteID, &c.Due); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DueNoteIDs walks the cards matching search in ascending due order and
// returns the first limit distinct notes reached. limit <= 0 means no bound.
func (db *DB) DueNoteIDs(ctx context.Context, search string, limit int) ([]int64, error) {
	q, err := query.Parse(search)
	if err != nil {
		return nil, err
	}
	where, args := q.SQL(query.CardMode)
	rows, err := db.conn.QueryContext(ctx, `
		SELECT c.nid
		FROM cards c JOIN notes n ON n.id = c.nid
		WHERE `+where+`
		ORDER BY `+orderBy(DueAscending), args...)
	if err != nil {
		return nil, fmt.Errorf("collection: due notes %q: %w", search, err)
	}
	defer rows.Close()

	seen := make(map[int64]struct{})
	var out []int64
	for rows.Next() {
		if limit > 0 && len(out) >= limit {
			break
		}
		var nid int64
		if err := rows.Scan(&nid); err != nil {
			return nil, err
		}
		if _, dup := seen[nid]; dup {
			continue
		}
		seen[nid] = struct{}{}
		out = append(out, nid)
	}
	return out, rows.Err()
}

// Stats counts notes and cards by state.
func (db *DB) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT count(*) FROM notes),
			count(*),
			coalesce(sum(type = 0), 0),
			coalesce(sum(queue = -1), 0),
			coalesce(sum(queue IN (-2, -3)), 0)
		FROM cards
	`).Scan(&s.Notes, &s.Cards, &s.New, &s.Suspended, &s.Buried)
	if err != nil {
		return Stats{}, fmt.Errorf("collection: stats: %w", err)
	}
	return s, nil
}

func orderBy(o Order) string {
	if o == DueDescending {
		return "c.due DESC, c.id DESC"
	}
	return "c.due ASC, c.id ASC"
}
