// Package markdown renders assistant answers as styled terminal output.
package markdown

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Renderer wraps glamour for transcript display.
type Renderer struct {
	term *glamour.TermRenderer
}

// NewRenderer creates a renderer wrapped at width columns.
func NewRenderer(width int) (*Renderer, error) {
	if width <= 0 {
		width = 100
	}
	term, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create glamour renderer: %w", err)
	}
	return &Renderer{term: term}, nil
}

// Render renders markdown to styled terminal output. Plain text passes
// through unchanged so short answers stay compact.
func (r *Renderer) Render(content string) (string, error) {
	if content == "" {
		return "", nil
	}
	if !ContainsMarkdown(content) {
		return content, nil
	}
	rendered, err := r.term.Render(content)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return strings.TrimRight(rendered, "\n") + "\n", nil
}

// markdownMarkers are cheap signals that styling is worth the render cost.
var markdownMarkers = []string{"```", "**", "# ", "## ", "### ", "- ", "* ", "](", "> ", "`"}

// ContainsMarkdown reports whether content carries markdown syntax.
func ContainsMarkdown(content string) bool {
	for _, marker := range markdownMarkers {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return false
}
