// Package models holds the static model catalog for every supported provider
// and the capability resolver that turns a provider/model selection into a
// fully-populated request option set.
package models

import "github.com/kotonoha-app/kotonoha/internal/llm"

// Capabilities are the feature flags legal to request for one model. A flag
// being true means the backend accepts the feature, not that a given request
// will use it.
type Capabilities struct {
	Thinking        bool
	Files           bool
	GoogleSearch    bool
	CodeExecution   bool
	URLContext      bool
	Tools           bool
	Streaming       bool
	Vision          bool
	ReasoningEffort bool
}

// ModelInfo describes one catalog entry.
type ModelInfo struct {
	ID            string
	Name          string
	Provider      llm.Provider
	ContextWindow int
	MaxTokens     int
	Capabilities  Capabilities
}

// geminiModels mirrors the Gemini catalog the product ships. Thinking and
// code execution are 2.5-series features; search and URL context arrived
// with the 2.0 series.
var geminiModels = []ModelInfo{
	{
		ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", Provider: llm.ProviderGemini,
		ContextWindow: 2000000, MaxTokens: 8192,
		Capabilities: Capabilities{Thinking: true, Files: true, GoogleSearch: true, CodeExecution: true, URLContext: true, Tools: true, Streaming: true, Vision: true},
	},
	{
		ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Provider: llm.ProviderGemini,
		ContextWindow: 2000000, MaxTokens: 8192,
		Capabilities: Capabilities{Thinking: true, Files: true, GoogleSearch: true, CodeExecution: true, URLContext: true, Tools: true, Streaming: true, Vision: true},
	},
	{
		ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash", Provider: llm.ProviderGemini,
		ContextWindow: 1000000, MaxTokens: 8192,
		Capabilities: Capabilities{Files: true, GoogleSearch: true, URLContext: true, Tools: true, Streaming: true, Vision: true},
	},
	{
		ID: "gemini-2.0-flash-lite", Name: "Gemini 2.0 Flash Lite", Provider: llm.ProviderGemini,
		ContextWindow: 1000000, MaxTokens: 8192,
		Capabilities: Capabilities{Files: true, Streaming: true},
	},
	{
		ID: "gemini-1.5-flash", Name: "Gemini 1.5 Flash", Provider: llm.ProviderGemini,
		ContextWindow: 128000, MaxTokens: 2048,
		Capabilities: Capabilities{Files: true, Streaming: true, Vision: true},
	},
}

// groqModels mirrors the Groq catalog. None of them accept file input; only
// the GPT-OSS pair reports native reasoning. DeepSeek R1 emits inline
// <think> blocks which the Groq service converts at the stream boundary, so
// its catalog flag stays false.
var groqModels = []ModelInfo{
	{
		ID: "openai/gpt-oss-120b", Name: "GPT-OSS 120B", Provider: llm.ProviderGroq,
		ContextWindow: 131072, MaxTokens: 8192,
		Capabilities: Capabilities{Thinking: true, Streaming: true, ReasoningEffort: true},
	},
	{
		ID: "openai/gpt-oss-20b", Name: "GPT-OSS 20B", Provider: llm.ProviderGroq,
		ContextWindow: 131072, MaxTokens: 8192,
		Capabilities: Capabilities{Thinking: true, Streaming: true, ReasoningEffort: true},
	},
	{
		ID: "meta-llama/llama-4-maverick-17b-128e-instruct", Name: "Llama 4 Maverick", Provider: llm.ProviderGroq,
		ContextWindow: 131072, MaxTokens: 8192,
		Capabilities: Capabilities{Streaming: true},
	},
	{
		ID: "meta-llama/llama-4-scout-17b-16e-instruct", Name: "Llama 4 Scout", Provider: llm.ProviderGroq,
		ContextWindow: 131072, MaxTokens: 8192,
		Capabilities: Capabilities{Streaming: true},
	},
	{
		ID: "llama-3.3-70b-versatile", Name: "Llama 3.3 70B", Provider: llm.ProviderGroq,
		ContextWindow: 131072, MaxTokens: 8192,
		Capabilities: Capabilities{Streaming: true},
	},
	{
		ID: "llama3-70b-8192", Name: "Llama 3 70B", Provider: llm.ProviderGroq,
		ContextWindow: 8192, MaxTokens: 8192,
		Capabilities: Capabilities{Streaming: true},
	},
	{
		ID: "moonshotai/kimi-k2-instruct", Name: "Kimi K2", Provider: llm.ProviderGroq,
		ContextWindow: 131072, MaxTokens: 8192,
		Capabilities: Capabilities{Streaming: true},
	},
	{
		ID: "deepseek-r1-distill-llama-70b", Name: "DeepSeek R1", Provider: llm.ProviderGroq,
		ContextWindow: 131072, MaxTokens: 8192,
		Capabilities: Capabilities{Streaming: true},
	},
	{
		ID: "qwen/qwen3-32b", Name: "Qwen 3 32B", Provider: llm.ProviderGroq,
		ContextWindow: 131072, MaxTokens: 8192,
		Capabilities: Capabilities{Streaming: true},
	},
	{
		ID: "mistral-saba-24b", Name: "Mistral Saba", Provider: llm.ProviderGroq,
		ContextWindow: 32768, MaxTokens: 8192,
		Capabilities: Capabilities{Streaming: true},
	},
}

// TitleModel is the cheap model used for background title generation.
const TitleModel = "gemini-2.0-flash-lite"

// Registry is a read-only view over the static catalog.
type Registry struct {
	byID       map[string]ModelInfo
	byProvider map[llm.Provider][]ModelInfo
}

// NewRegistry builds the catalog index. The catalog is static, so the
// registry is safe for concurrent readers.
func NewRegistry() *Registry {
	r := &Registry{
		byID:       make(map[string]ModelInfo),
		byProvider: make(map[llm.Provider][]ModelInfo),
	}
	for _, set := range [][]ModelInfo{geminiModels, groqModels} {
		for _, m := range set {
			r.byID[m.ID] = m
			r.byProvider[m.Provider] = append(r.byProvider[m.Provider], m)
		}
	}
	return r
}

// Lookup returns the catalog entry for a model id.
func (r *Registry) Lookup(modelID string) (ModelInfo, bool) {
	m, ok := r.byID[modelID]
	return m, ok
}

// Capabilities returns the feature flags for a model. Unknown models get the
// zero value, which denies every feature.
func (r *Registry) Capabilities(modelID string) Capabilities {
	return r.byID[modelID].Capabilities
}

// ModelsFor lists the catalog entries offered by one provider, in catalog
// order.
func (r *Registry) ModelsFor(p llm.Provider) []ModelInfo {
	return r.byProvider[p]
}

// DefaultModel returns the first model a provider offers.
func (r *Registry) DefaultModel(p llm.Provider) (string, bool) {
	list := r.byProvider[p]
	if len(list) == 0 {
		return "", false
	}
	return list[0].ID, true
}

// Belongs reports whether a model id is offered by the given provider.
func (r *Registry) Belongs(p llm.Provider, modelID string) bool {
	m, ok := r.byID[modelID]
	return ok && m.Provider == p
}
