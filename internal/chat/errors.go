package chat

import "fmt"

// ErrorCategory sorts send failures by how they are handled.
type ErrorCategory string

const (
	// CategoryValidation rejects the send before any state mutation.
	CategoryValidation ErrorCategory = "validation"
	// CategoryEncoding marks a single-file conversion failure. Recovered
	// per file; never fails the send on its own.
	CategoryEncoding ErrorCategory = "encoding"
	// CategoryTransport covers provider/network failures. Surfaced with a
	// retry affordance and the user message rolled back.
	CategoryTransport ErrorCategory = "transport"
	// CategoryState marks an internal consistency guard firing.
	CategoryState ErrorCategory = "state"
)

// ChatError carries a send failure and its handling category.
type ChatError struct {
	Category ErrorCategory
	Err      error
}

func (e *ChatError) Error() string {
	return fmt.Sprintf("%s: %v", e.Category, e.Err)
}

func (e *ChatError) Unwrap() error { return e.Err }

// Retryable reports whether replaying the original send could succeed.
func (e *ChatError) Retryable() bool {
	return e.Category == CategoryTransport
}

// Notification is what the controller publishes to the error reporter.
// Retry, when non-nil, replays the exact original content and attachments.
type Notification struct {
	Err      *ChatError
	Retry    func()
	ChatID   string
	Provider string
}

// Reporter receives user-facing failure notifications.
type Reporter interface {
	Report(n Notification)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(n Notification)

// Report calls f(n).
func (f ReporterFunc) Report(n Notification) { f(n) }
