// Package sqlite persists the clipboard history, the custom ignore list and
// runtime settings in a single SQLite database.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"go.klb.dev/clipkeep/internal/crypto"
)

// DB wraps the connection pool. Content columns are sealed with box when it
// is non-nil.
type DB struct {
	conn *sql.DB
	box  *crypto.Box
}

// New opens (creating if needed) the database at path and runs migrations.
// ":memory:" gives a private in-memory database.
func New(path string, box *crypto.Box) (*DB, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("sqlite: creating database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	// One writer at a time; also keeps a ":memory:" database on one connection.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn, box: box}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS items (
			id           TEXT PRIMARY KEY,
			position     INTEGER NOT NULL,
			kind         TEXT NOT NULL,
			primary_text BLOB,
			payload      BLOB,
			source_path  BLOB,
			rich_text    BLOB,
			pinned       INTEGER NOT NULL DEFAULT 0,
			sealed       INTEGER NOT NULL DEFAULT 0,
			created_at   INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_items_position ON items(position);
	`)
	if err != nil {
		return fmt.Errorf("creating items table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS ignored_apps (
			application_id TEXT PRIMARY KEY,
			display_name   TEXT NOT NULL DEFAULT ''
		);
	`)
	if err != nil {
		return fmt.Errorf("creating ignored_apps table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating settings table: %w", err)
	}
	return nil
}
