// Package llm defines the provider-neutral types shared by all AI backends:
// the conversation history format, the streaming callbacks, and the Service
// contract the chat controller consumes.
package llm

import "errors"

// Sentinel errors surfaced by provider services.
var (
	// ErrAPIKeyMissing signals that the provider was invoked without
	// credentials. The controller reports it as non-retryable.
	ErrAPIKeyMissing = errors.New("llm: api key missing")

	// ErrEmptyHistory signals that no usable messages remained after
	// filtering empty content.
	ErrEmptyHistory = errors.New("llm: no valid messages to send")
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one history element sent to a provider.
type ChatMessage struct {
	Role    Role          `json:"role"`
	Content string        `json:"content"`
	Files   []FilePayload `json:"files,omitempty"`
}

// FilePayload is a transport-ready encoded attachment: base64 data plus the
// metadata providers need to reconstruct the file.
type FilePayload struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
	Name     string `json:"name,omitempty"`
}
