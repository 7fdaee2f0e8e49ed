package chat

import (
	"context"
	"strings"
)

const truncatedTitleRunes = 30

// TitleGenerator produces a short chat title from the first user message.
// Best effort: callers fall back to TruncatedTitle on any error.
type TitleGenerator interface {
	GenerateTitle(ctx context.Context, firstMessage string) (string, error)
}

// TruncatedTitle is the placeholder title shown while generation runs: the
// first 30 runes of the message.
func TruncatedTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= truncatedTitleRunes {
		return content
	}
	return string(runes[:truncatedTitleRunes]) + "..."
}

// FallbackTitle is used when title generation fails: the first four words of
// the message, or "New Chat" when nothing usable remains.
func FallbackTitle(content string) string {
	words := strings.Fields(content)
	if len(words) > 4 {
		words = words[:4]
	}
	if title := strings.Join(words, " "); title != "" {
		return title
	}
	return "New Chat"
}
