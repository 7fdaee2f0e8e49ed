package providers

import "fmt"

const maxTitleLength = 50

// truncateTitle caps a generated title. Cuts on runes: the prompt asks for
// the user's language, so multi-byte titles are the norm, not the edge case.
func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= maxTitleLength {
		return title
	}
	return string(runes[:maxTitleLength-3]) + "..."
}

// titlePrompt builds the instruction both providers use for background chat
// title generation.
func titlePrompt(firstMessage string) string {
	return fmt.Sprintf(
		"Generate a very short title (at most 5 words) for a conversation that starts with the following message. "+
			"Reply with the title only, in the same language as the message, no quotes.\n\nMessage: %s",
		firstMessage,
	)
}
