package storage

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"

	"github.com/kotonoha-app/kotonoha/internal/attachments"
)

// BlobStore exposes the attachments durable-store contract over the shared
// database handle.
type BlobStore struct {
	db *sql.DB
}

var _ attachments.DurableStore = (*BlobStore)(nil)

// Blobs returns the attachment blob store backed by this database.
func (s *SQLiteStore) Blobs() *BlobStore {
	return &BlobStore{db: s.db}
}

// Store persists attachment bytes under a fresh storage id.
func (b *BlobStore) Store(ctx context.Context, data []byte, mimeType, chatID string) (string, error) {
	id := uuid.NewString()
	query := `INSERT INTO blobs (id, chat_id, mime_type, data) VALUES (?, ?, ?, ?)`

	if _, err := b.db.ExecContext(ctx, query, id, chatID, mimeType, data); err != nil {
		return "", fmt.Errorf("failed to store blob: %w", err)
	}
	return id, nil
}

// Resolve returns a self-contained data: URI for a stored blob.
func (b *BlobStore) Resolve(ctx context.Context, storageID string) (string, error) {
	query := `SELECT mime_type, data FROM blobs WHERE id = ?`

	var mimeType string
	var data []byte
	err := b.db.QueryRowContext(ctx, query, storageID).Scan(&mimeType, &data)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("blob not found: %s", storageID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve blob: %w", err)
	}
	return attachments.DataURI(mimeType, base64.StdEncoding.EncodeToString(data)), nil
}

// DeleteByChat removes every blob belonging to a chat, for prune.
func (b *BlobStore) DeleteByChat(ctx context.Context, chatID string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM blobs WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("failed to delete chat blobs: %w", err)
	}
	return nil
}
