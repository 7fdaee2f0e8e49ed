// Package storage persists chat transcripts and attachment blobs in a local
// SQLite/libsql database.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/tursodatabase/go-libsql"
)

// TranscriptStore is a per-user key-value store for serialized chat-session
// lists.
type TranscriptStore interface {
	Get(ctx context.Context, userID string) ([]byte, bool, error)
	Set(ctx context.Context, userID string, doc []byte) error
	Remove(ctx context.Context, userID string) error
	Close() error
}

// SQLiteStore implements TranscriptStore and the attachment blob store on
// one libsql database.
type SQLiteStore struct {
	db *sql.DB
}

// NewDefaultStore opens the store at the default user directory.
func NewDefaultStore() (*SQLiteStore, error) {
	dbPath, err := NewPathManager().DatabasePath()
	if err != nil {
		return nil, fmt.Errorf("failed to get default database path: %w", err)
	}
	return NewStore(dbPath)
}

// NewStore opens (and if needed creates) the database at dbPath.
func NewStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("libsql", "file:"+dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Get returns the serialized session list for a user. The second return
// value is false when the user has no saved transcripts.
func (s *SQLiteStore) Get(ctx context.Context, userID string) ([]byte, bool, error) {
	query := `SELECT doc FROM transcripts WHERE user_id = ?`

	var doc []byte
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get transcripts: %w", err)
	}
	return doc, true, nil
}

// Set replaces the serialized session list for a user.
func (s *SQLiteStore) Set(ctx context.Context, userID string, doc []byte) error {
	query := `INSERT INTO transcripts (user_id, doc, updated_at) VALUES (?, ?, ?)
	          ON CONFLICT(user_id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`

	if _, err := s.db.ExecContext(ctx, query, userID, doc, time.Now()); err != nil {
		return fmt.Errorf("failed to save transcripts: %w", err)
	}
	return nil
}

// Remove deletes a user's saved transcripts.
func (s *SQLiteStore) Remove(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM transcripts WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to remove transcripts: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS transcripts (
    user_id TEXT PRIMARY KEY,
    doc BLOB NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS blobs (
    id TEXT PRIMARY KEY,
    chat_id TEXT NOT NULL,
    mime_type TEXT NOT NULL,
    data BLOB NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_blobs_chat ON blobs(chat_id);
`
