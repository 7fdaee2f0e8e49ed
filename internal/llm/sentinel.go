package llm

// In-band control sentinels for providers that multiplex reasoning onto the
// single text channel. The Groq service is the producer; the chat package's
// sentinel parser is the only consumer. The literals are part of the wire
// protocol with persisted transcripts, so they must not change.
const (
	ThinkingStart         = "__GROQ_THINKING_START__"
	ThinkingContentPrefix = "__GROQ_THINKING_CONTENT__"
	ThinkingEnd           = "__GROQ_THINKING_END__"
)
