package models

import (
	"regexp"
	"strings"

	"github.com/kotonoha-app/kotonoha/internal/llm"
)

// ProviderSession is the explicit provider/model selection injected into the
// message controller. It replaces the process-wide provider manager the
// product once carried: one value, one active provider, no hidden globals.
type ProviderSession struct {
	Provider llm.Provider
	Model    string
}

// ResolveInput carries the per-send signals the resolver consults in
// addition to the static capability table.
type ResolveInput struct {
	// WantThinking is the user's reasoning toggle.
	WantThinking bool
	// HasCodeKeywords is true when the latest user message mentions a
	// programming task; gates code execution for Gemini.
	HasCodeKeywords bool
	// HasURL is true when the latest user message contains a link; gates
	// URL context for Gemini.
	HasURL bool
}

// Resolution is the resolver output: ready-to-send options plus whether the
// selected model had to be substituted for one the active provider offers.
type Resolution struct {
	Options     llm.RequestOptions
	Substituted bool
}

const (
	defaultTemperature = 0.8
	groqMaxTokens      = 8192
	groqTopP           = 1.0
)

// Resolve builds request options for the session. Pure function of its
// inputs and the registry: a feature toggle is set only when the capability
// table approves it for the model AND the caller asked for it. When the
// selected model does not belong to the active provider, the provider's
// first catalog model is used instead and Substituted is set so the caller
// can repair its persisted selection.
func (r *Registry) Resolve(sess ProviderSession, in ResolveInput) Resolution {
	model := sess.Model
	substituted := false
	if !r.Belongs(sess.Provider, model) {
		if fallback, ok := r.DefaultModel(sess.Provider); ok {
			model = fallback
			substituted = model != sess.Model
		}
	}

	caps := r.Capabilities(model)
	opts := llm.RequestOptions{Provider: sess.Provider, Model: model}

	switch sess.Provider {
	case llm.ProviderGemini:
		info, _ := r.Lookup(model)
		opts.Gemini = &llm.GeminiOptions{
			Temperature:         defaultTemperature,
			MaxTokens:           info.MaxTokens,
			EnableThinking:      in.WantThinking && caps.Thinking,
			EnableGoogleSearch:  caps.GoogleSearch,
			EnableCodeExecution: in.HasCodeKeywords && caps.CodeExecution,
			EnableURLContext:    in.HasURL && caps.URLContext,
			EnableTools:         caps.Tools,
		}
	case llm.ProviderGroq:
		opts.Groq = &llm.GroqOptions{
			Temperature: defaultTemperature,
			MaxTokens:   groqMaxTokens,
			TopP:        groqTopP,
		}
		// GPT-OSS models take an effort knob instead of a thinking toggle:
		// high when the user wants reasoning, low to suppress it.
		if caps.ReasoningEffort {
			if in.WantThinking && caps.Thinking {
				opts.Groq.ReasoningEffort = llm.ReasoningEffortHigh
			} else {
				opts.Groq.ReasoningEffort = llm.ReasoningEffortLow
			}
		}
	}

	return Resolution{Options: opts, Substituted: substituted}
}

// baseCodeKeywords is the built-in keyword list; callers append localized
// keywords on top.
var baseCodeKeywords = []string{
	"code", "python", "javascript", "java", "c++", "c#", "golang", "rust", "php",
	"calculate", "compute", "algorithm", "function", "script", "program",
	"sum of", "factorial", "fibonacci", "prime numbers", "sort", "search",
	"data analysis", "plot", "graph", "chart", "visualization",
	"math", "mathematics", "equation", "formula", "solve",
}

// DetectCodeKeywords reports whether the text mentions a programming task.
// localized holds extra keywords for the active UI language.
func DetectCodeKeywords(text string, localized []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range baseCodeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, kw := range localized {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

var urlPattern = regexp.MustCompile(`https?://\S+`)

// DetectURL reports whether the text contains a web link.
func DetectURL(text string) bool {
	return urlPattern.MatchString(text)
}
