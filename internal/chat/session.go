// Package chat implements the streaming chat transcript core: the
// authoritative session store, the stream demultiplexer, the redraw-aligned
// update coalescer, and the message lifecycle controller that ties them to
// the provider services.
package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/kotonoha-app/kotonoha/internal/attachments"
	"github.com/kotonoha-app/kotonoha/internal/llm"
)

// Status is a message's lifecycle state.
type Status string

const (
	StatusSending Status = "sending"
	StatusSent    Status = "sent"
	StatusError   Status = "error"
)

// Thinking is the reasoning sub-record of an assistant message. It is only
// present once reasoning content has arrived; ThinkingComplete latches true
// with the first answer-channel content and never reverts.
type Thinking struct {
	ThoughtSummary   string `json:"thoughtSummary"`
	ThinkingTime     int    `json:"thinkingTimeSeconds"`
	ThinkingComplete bool   `json:"isThinkingComplete"`
}

// Message is one transcript entry. The ID is immutable and is the sole
// correlation key for incremental updates; positions shift under concurrent
// edits and must never be used.
type Message struct {
	ID          string                   `json:"id"`
	Role        llm.Role                 `json:"role"`
	Content     string                   `json:"content"`
	Status      Status                   `json:"status"`
	Timestamp   time.Time                `json:"timestamp"`
	Attachments []attachments.Attachment `json:"files,omitempty"`
	Thinking    *Thinking                `json:"thinking,omitempty"`
}

// NewMessage creates a message with a fresh id in the sending state.
func NewMessage(content string, role llm.Role, atts []attachments.Attachment) Message {
	return Message{
		ID:          uuid.NewString(),
		Role:        role,
		Content:     content,
		Status:      StatusSending,
		Timestamp:   time.Now(),
		Attachments: atts,
	}
}

// Session is one chat conversation. LastMessage is a denormalized preview of
// the most recent content for list rendering.
type Session struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Messages    []Message `json:"messages"`
	LastMessage string    `json:"lastMessage"`
	UpdatedAt   time.Time `json:"timestamp"`
}

// NewSession creates a session seeded with its first message. The title is a
// truncated placeholder until background title generation replaces it.
func NewSession(first Message) Session {
	return Session{
		ID:          uuid.NewString(),
		Title:       TruncatedTitle(first.Content),
		Messages:    []Message{first},
		LastMessage: first.Content,
		UpdatedAt:   time.Now(),
	}
}
