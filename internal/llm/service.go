package llm

import "context"

// Provider identifies a backend family.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderGroq   Provider = "groq"
)

// RequestOptions is the per-request option set, discriminated by Provider.
// Exactly one of the provider branches is populated; the capability resolver
// in internal/models is the only producer.
type RequestOptions struct {
	Provider Provider
	Model    string

	Gemini *GeminiOptions
	Groq   *GroqOptions
}

// GeminiOptions are the feature toggles legal for Gemini models. Each Enable*
// field is only set when the capability table approves it for the model.
type GeminiOptions struct {
	Temperature         float64
	MaxTokens           int
	EnableThinking      bool
	EnableGoogleSearch  bool
	EnableCodeExecution bool
	EnableURLContext    bool
	EnableTools         bool
}

// Reasoning effort levels accepted by Groq's GPT-OSS models.
const (
	ReasoningEffortLow  = "low"
	ReasoningEffortHigh = "high"
)

// GroqOptions are the sampling parameters for Groq's OpenAI-compatible API.
// ReasoningEffort is empty for models without the effort knob.
type GroqOptions struct {
	Temperature     float64
	MaxTokens       int
	TopP            float64
	ReasoningEffort string
}

// Service is the contract every provider backend implements. Callbacks are
// invoked zero or more times with string fragments, strictly in arrival
// order; each call returns once after the stream ends or errors.
//
// StreamMessage delivers everything on a single channel. A provider without a
// native reasoning channel may multiplex thinking content into it using the
// sentinel protocol parsed by internal/chat.
type Service interface {
	StreamMessage(ctx context.Context, history []ChatMessage, onChunk ChunkFunc, opts RequestOptions) error

	// StreamMessageWithThinking splits reasoning and answer content onto two
	// native callbacks. Only meaningful for providers reporting thinking
	// support; others return an error.
	StreamMessageWithThinking(ctx context.Context, history []ChatMessage, onThought, onAnswer ChunkFunc, opts RequestOptions) error

	StreamMessageWithFiles(ctx context.Context, history []ChatMessage, files []FilePayload, onChunk ChunkFunc, opts RequestOptions) error

	StreamMessageWithFilesAndThinking(ctx context.Context, history []ChatMessage, files []FilePayload, onThought, onAnswer ChunkFunc, opts RequestOptions) error

	// GenerateTitle produces a short chat title from the first user message.
	// Best effort; failures fall back to truncation in the caller.
	GenerateTitle(ctx context.Context, firstMessage string) (string, error)
}
