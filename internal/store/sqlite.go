package store

// sqlite.go implements the substitutable database backend. Unlike the file
// store, rows are durable as soon as they are written, so a crash mid-run
// loses nothing that was already generated. Uses the pure-Go driver, no
// cgo required.

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS images (
	intent_key TEXT PRIMARY KEY,
	src        TEXT NOT NULL,
	created_at TEXT NOT NULL,
	uses       INTEGER NOT NULL,
	prompt     TEXT NOT NULL
);`

// SQLiteStore is a Store backed by a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image cache database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load applies pragmas and the schema. Per the Store contract this never
// reports a corrupt cache; only a genuinely unusable database errors.
func (s *SQLiteStore) Load(ctx context.Context) error {
	for _, pragma := range []string{`PRAGMA journal_mode = WAL`, `PRAGMA busy_timeout = 10000`} {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to configure image cache database: %w", err)
		}
	}
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to migrate image cache database: %w", err)
	}
	return nil
}

// Get returns the entry for key, if present.
func (s *SQLiteStore) Get(key string) (Entry, bool) {
	var e Entry
	err := s.db.QueryRow(
		`SELECT src, created_at, uses, prompt FROM images WHERE intent_key = ?`, key,
	).Scan(&e.Src, &e.CreatedAt, &e.Uses, &e.Prompt)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Warn().Err(err).Msg("Image cache read failed, treating as miss")
		}
		return Entry{}, false
	}
	return e, true
}

// Put inserts a new entry. An existing row for the key wins.
func (s *SQLiteStore) Put(key string, e Entry) {
	_, err := s.db.Exec(
		`INSERT INTO images (intent_key, src, created_at, uses, prompt) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(intent_key) DO NOTHING`,
		key, e.Src, e.CreatedAt, e.Uses, e.Prompt,
	)
	if err != nil {
		log.Warn().Err(err).Msg("Image cache write failed, entry not persisted")
	}
}

// Touch increments the use counter for key.
func (s *SQLiteStore) Touch(key string) int {
	var uses int
	err := s.db.QueryRow(
		`UPDATE images SET uses = uses + 1 WHERE intent_key = ? RETURNING uses`, key,
	).Scan(&uses)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Warn().Err(err).Msg("Image cache touch failed")
		}
		return 0
	}
	return uses
}

// Flush is a no-op: every write is already durable.
func (s *SQLiteStore) Flush(ctx context.Context) error {
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
