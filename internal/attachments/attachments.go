// Package attachments encodes user file attachments into provider-ready
// payloads and persists them through a durable blob store.
package attachments

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrFilesUnsupported signals that files were supplied for a model that
// cannot accept them. The whole send fails fast.
var ErrFilesUnsupported = errors.New("selected model does not support file attachments")

// ContentRef locates an attachment's bytes for the current session.
type ContentRef interface {
	ref()
}

// BlobRef is an ephemeral binary-backed reference. Valid only for the
// process lifetime; survives restarts via the durable store instead.
type BlobRef struct {
	Bytes []byte
}

func (BlobRef) ref() {}

// DataRef is a self-contained data: URI carrying its own base64 payload.
type DataRef struct {
	URI string
}

func (DataRef) ref() {}

// Attachment is one user-supplied file on a message. Ref is the in-memory
// content reference; StorageID is set once the bytes are persisted.
type Attachment struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	MimeType  string     `json:"mimeType"`
	Size      int64      `json:"size"`
	StorageID string     `json:"storageId,omitempty"`
	Ref       ContentRef `json:"-"`
}

// Persistent reports whether the bytes survive in the durable store. Once
// true, the storage id must stay resolvable for the owning chat's lifetime.
func (a Attachment) Persistent() bool {
	return a.StorageID != ""
}

// DurableStore persists attachment bytes across sessions, keyed by chat.
type DurableStore interface {
	Store(ctx context.Context, data []byte, mimeType, chatID string) (string, error)
	Resolve(ctx context.Context, storageID string) (string, error)
	DeleteByChat(ctx context.Context, chatID string) error
}

// DataURI builds a self-contained data: URI for raw bytes.
func DataURI(mimeType string, encoded string) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, encoded)
}

// payloadFromURI extracts the base64 payload from a data: URI.
func payloadFromURI(uri string) (string, bool) {
	_, payload, ok := strings.Cut(uri, ";base64,")
	if !ok || payload == "" {
		return "", false
	}
	return payload, true
}
