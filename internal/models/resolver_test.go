package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kotonoha-app/kotonoha/internal/llm"
)

func TestResolveGeminiCapabilityGating(t *testing.T) {
	r := NewRegistry()

	t.Run("thinking requires both table and toggle", func(t *testing.T) {
		sess := ProviderSession{Provider: llm.ProviderGemini, Model: "gemini-2.5-flash"}

		res := r.Resolve(sess, ResolveInput{WantThinking: true})
		require.NotNil(t, res.Options.Gemini)
		assert.True(t, res.Options.Gemini.EnableThinking)

		res = r.Resolve(sess, ResolveInput{WantThinking: false})
		assert.False(t, res.Options.Gemini.EnableThinking)
	})

	t.Run("thinking denied for non-thinking model even when requested", func(t *testing.T) {
		sess := ProviderSession{Provider: llm.ProviderGemini, Model: "gemini-2.0-flash"}
		res := r.Resolve(sess, ResolveInput{WantThinking: true})
		assert.False(t, res.Options.Gemini.EnableThinking)
	})

	t.Run("code execution gated on keyword detection", func(t *testing.T) {
		sess := ProviderSession{Provider: llm.ProviderGemini, Model: "gemini-2.5-pro"}

		res := r.Resolve(sess, ResolveInput{HasCodeKeywords: true})
		assert.True(t, res.Options.Gemini.EnableCodeExecution)

		res = r.Resolve(sess, ResolveInput{HasCodeKeywords: false})
		assert.False(t, res.Options.Gemini.EnableCodeExecution)
	})

	t.Run("url context gated on link detection", func(t *testing.T) {
		sess := ProviderSession{Provider: llm.ProviderGemini, Model: "gemini-2.5-pro"}
		res := r.Resolve(sess, ResolveInput{HasURL: true})
		assert.True(t, res.Options.Gemini.EnableURLContext)
	})
}

func TestResolveModelSubstitution(t *testing.T) {
	r := NewRegistry()

	t.Run("foreign model substituted with provider default", func(t *testing.T) {
		sess := ProviderSession{Provider: llm.ProviderGroq, Model: "gemini-2.5-flash"}
		res := r.Resolve(sess, ResolveInput{})

		assert.True(t, res.Substituted)
		first, ok := r.DefaultModel(llm.ProviderGroq)
		require.True(t, ok)
		assert.Equal(t, first, res.Options.Model)
		require.NotNil(t, res.Options.Groq)
		assert.Nil(t, res.Options.Gemini)
	})

	t.Run("matching model passes through unreported", func(t *testing.T) {
		sess := ProviderSession{Provider: llm.ProviderGemini, Model: "gemini-2.0-flash"}
		res := r.Resolve(sess, ResolveInput{})

		assert.False(t, res.Substituted)
		assert.Equal(t, "gemini-2.0-flash", res.Options.Model)
	})

	t.Run("unknown model for gemini substituted", func(t *testing.T) {
		sess := ProviderSession{Provider: llm.ProviderGemini, Model: "no-such-model"}
		res := r.Resolve(sess, ResolveInput{})
		assert.True(t, res.Substituted)
		assert.Equal(t, "gemini-2.5-pro", res.Options.Model)
	})
}

func TestGroqOptionsShape(t *testing.T) {
	r := NewRegistry()
	sess := ProviderSession{Provider: llm.ProviderGroq, Model: "llama-3.3-70b-versatile"}

	// Thinking and tool toggles do not exist on the Groq branch regardless
	// of input.
	res := r.Resolve(sess, ResolveInput{WantThinking: true, HasCodeKeywords: true})
	require.NotNil(t, res.Options.Groq)
	assert.Equal(t, groqMaxTokens, res.Options.Groq.MaxTokens)
	assert.Equal(t, groqTopP, res.Options.Groq.TopP)
	assert.Empty(t, res.Options.Groq.ReasoningEffort)
}

func TestGroqReasoningEffort(t *testing.T) {
	r := NewRegistry()
	sess := ProviderSession{Provider: llm.ProviderGroq, Model: "openai/gpt-oss-20b"}

	res := r.Resolve(sess, ResolveInput{WantThinking: true})
	require.NotNil(t, res.Options.Groq)
	assert.Equal(t, llm.ReasoningEffortHigh, res.Options.Groq.ReasoningEffort)

	res = r.Resolve(sess, ResolveInput{WantThinking: false})
	assert.Equal(t, llm.ReasoningEffortLow, res.Options.Groq.ReasoningEffort)
}

func TestDetectCodeKeywords(t *testing.T) {
	assert.True(t, DetectCodeKeywords("Write a Python function for me", nil))
	assert.True(t, DetectCodeKeywords("compute the FACTORIAL of 10", nil))
	assert.False(t, DetectCodeKeywords("how do I conjugate this verb", nil))
	assert.True(t, DetectCodeKeywords("この関数を説明して", []string{"関数"}))
}

func TestDetectURL(t *testing.T) {
	assert.True(t, DetectURL("summarize https://example.com/article please"))
	assert.False(t, DetectURL("no links here"))
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()

	info, ok := r.Lookup("openai/gpt-oss-20b")
	require.True(t, ok)
	assert.Equal(t, llm.ProviderGroq, info.Provider)
	assert.True(t, info.Capabilities.Thinking)
	assert.False(t, info.Capabilities.Files)

	assert.Equal(t, Capabilities{}, r.Capabilities("nope"))
	assert.False(t, r.Belongs(llm.ProviderGemini, "llama3-70b-8192"))
}
