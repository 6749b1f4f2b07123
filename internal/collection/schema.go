// Package collection provides the SQLite-backed note and card store the
// cleanup passes operate on.
package collection

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS note_types (
	id     INTEGER PRIMARY KEY,
	name   TEXT NOT NULL DEFAULT '',
	fields TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS notes (
	id     INTEGER PRIMARY KEY,
	mid    INTEGER NOT NULL REFERENCES note_types(id),
	tags   TEXT NOT NULL DEFAULT '[]',
	fields TEXT NOT NULL DEFAULT '{}',
	mod    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS cards (
	id    INTEGER PRIMARY KEY,
	nid   INTEGER NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
	ord   INTEGER NOT NULL DEFAULT 0,
	type  INTEGER NOT NULL DEFAULT 0,
	queue INTEGER NOT NULL DEFAULT 0,
	due   INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_notes_mid ON notes(mid);
CREATE INDEX IF NOT EXISTS idx_cards_nid ON cards(nid);
CREATE INDEX IF NOT EXISTS idx_cards_due ON cards(due);
`

// DB wraps a sql.DB with collection-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the collection database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("collection: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("collection: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("collection: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("collection: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
