package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kotonoha-app/kotonoha/internal/llm"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// GroqService talks to Groq's OpenAI-compatible chat completion API over SSE.
// Groq has no native reasoning callback, so reasoning content (either the
// delta reasoning field of GPT-OSS models or inline <think> blocks from
// R1-style models) is re-emitted on the single text channel using the
// sentinel protocol; the chat layer demultiplexes it.
type GroqService struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewGroqService creates a Groq service. Groq inference is fast, so the
// default timeout is short.
func NewGroqService(apiKey string) *GroqService {
	return &GroqService{
		apiKey:  apiKey,
		baseURL: groqBaseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqRequest struct {
	Model           string        `json:"model"`
	Messages        []groqMessage `json:"messages"`
	Stream          bool          `json:"stream"`
	Temperature     *float64      `json:"temperature,omitempty"`
	MaxTokens       *int          `json:"max_tokens,omitempty"`
	TopP            *float64      `json:"top_p,omitempty"`
	ReasoningFormat string        `json:"reasoning_format,omitempty"`
	ReasoningEffort string        `json:"reasoning_effort,omitempty"`
}

type groqStreamEvent struct {
	Choices []struct {
		Delta struct {
			Content   string `json:"content,omitempty"`
			Reasoning string `json:"reasoning,omitempty"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

type groqCompletion struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// StreamMessage streams a chat completion, multiplexing any reasoning
// content into the chunk stream as sentinels.
func (s *GroqService) StreamMessage(ctx context.Context, history []llm.ChatMessage, onChunk llm.ChunkFunc, opts llm.RequestOptions) error {
	req, err := s.buildRequest(history, opts, true)
	if err != nil {
		return err
	}

	body, err := s.post(ctx, "/chat/completions", req)
	if err != nil {
		return err
	}
	defer body.Close()

	return s.processStream(body, onChunk)
}

// StreamMessageWithThinking is unsupported: Groq exposes no native reasoning
// callback. Thinking content arrives through StreamMessage as sentinels.
func (s *GroqService) StreamMessageWithThinking(ctx context.Context, history []llm.ChatMessage, onThought, onAnswer llm.ChunkFunc, opts llm.RequestOptions) error {
	return fmt.Errorf("groq: native thinking channel not supported, use StreamMessage")
}

// StreamMessageWithFiles is unsupported: no Groq model accepts file input.
// The attachment pipeline validates before invocation, so reaching this is a
// programming error.
func (s *GroqService) StreamMessageWithFiles(ctx context.Context, history []llm.ChatMessage, files []llm.FilePayload, onChunk llm.ChunkFunc, opts llm.RequestOptions) error {
	return fmt.Errorf("groq: model %s does not support file input", opts.Model)
}

func (s *GroqService) StreamMessageWithFilesAndThinking(ctx context.Context, history []llm.ChatMessage, files []llm.FilePayload, onThought, onAnswer llm.ChunkFunc, opts llm.RequestOptions) error {
	return fmt.Errorf("groq: model %s does not support file input", opts.Model)
}

// GenerateTitle asks the default Groq model for a short chat title.
func (s *GroqService) GenerateTitle(ctx context.Context, firstMessage string) (string, error) {
	if s.apiKey == "" {
		return "", llm.ErrAPIKeyMissing
	}

	req := groqRequest{
		Model: "llama-3.3-70b-versatile",
		Messages: []groqMessage{{
			Role:    "user",
			Content: titlePrompt(firstMessage),
		}},
		Temperature: ptr(0.8),
		MaxTokens:   ptr(30),
	}

	body, err := s.post(ctx, "/chat/completions", req)
	if err != nil {
		return "", err
	}
	defer body.Close()

	var completion groqCompletion
	if err := json.NewDecoder(body).Decode(&completion); err != nil {
		return "", fmt.Errorf("failed to decode title response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("title response had no choices")
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

func (s *GroqService) buildRequest(history []llm.ChatMessage, opts llm.RequestOptions, stream bool) (groqRequest, error) {
	if s.apiKey == "" {
		return groqRequest{}, llm.ErrAPIKeyMissing
	}

	var messages []groqMessage
	for _, msg := range history {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		messages = append(messages, groqMessage{Role: string(msg.Role), Content: msg.Content})
	}
	if len(messages) == 0 {
		return groqRequest{}, llm.ErrEmptyHistory
	}

	req := groqRequest{
		Model:    opts.Model,
		Messages: messages,
		Stream:   stream,
	}
	if g := opts.Groq; g != nil {
		req.Temperature = ptr(g.Temperature)
		if g.MaxTokens > 0 {
			req.MaxTokens = ptr(g.MaxTokens)
		}
		if g.TopP > 0 {
			req.TopP = ptr(g.TopP)
		}
		req.ReasoningEffort = g.ReasoningEffort
	}
	// GPT-OSS models deliver reasoning as a separate delta field when asked
	// for the raw format; other models reject the parameter.
	if strings.Contains(opts.Model, "openai/gpt-oss") {
		req.ReasoningFormat = "raw"
	}
	return req, nil
}

func (s *GroqService) post(ctx context.Context, path string, payload any) (io.ReadCloser, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("groq request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("groq API error %d: %s", resp.StatusCode, string(body))
	}
	return resp.Body, nil
}

// processStream parses the SSE body and forwards fragments, converting
// reasoning content to sentinels. Answer content is withheld while a
// reasoning segment is open so the two channels never share a fragment.
func (s *GroqService) processStream(r io.Reader, onChunk llm.ChunkFunc) error {
	var (
		thinkingStarted   bool
		thinkingCompleted bool
		hasThinking       bool
		inThinkTag        bool
	)

	startThinking := func() {
		if !thinkingStarted {
			onChunk(llm.ThinkingStart)
			thinkingStarted = true
			hasThinking = true
		}
	}
	endThinking := func() {
		if thinkingStarted && !thinkingCompleted {
			onChunk(llm.ThinkingEnd)
			thinkingCompleted = true
		}
	}

	scanner := NewSSEScanner(r)
	for scanner.Scan() {
		event := scanner.Event()
		if event.Type != "data" {
			continue
		}
		if strings.TrimSpace(event.Data) == "[DONE]" {
			break
		}

		var streamEvent groqStreamEvent
		if err := json.Unmarshal([]byte(event.Data), &streamEvent); err != nil {
			continue // skip malformed events
		}

		for _, choice := range streamEvent.Choices {
			if reasoning := choice.Delta.Reasoning; reasoning != "" {
				startThinking()
				onChunk(llm.ThinkingContentPrefix + reasoning)
			}

			content := choice.Delta.Content
			if content == "" {
				continue
			}

			switch {
			case strings.Contains(content, "<think>"):
				inThinkTag = true
				startThinking()
				if rest := strings.Replace(content, "<think>", "", 1); strings.TrimSpace(rest) != "" {
					onChunk(llm.ThinkingContentPrefix + rest)
				}
			case strings.Contains(content, "</think>"):
				inThinkTag = false
				if rest := strings.Replace(content, "</think>", "", 1); strings.TrimSpace(rest) != "" {
					onChunk(llm.ThinkingContentPrefix + rest)
				}
				endThinking()
			case inThinkTag:
				onChunk(llm.ThinkingContentPrefix + content)
			default:
				// First answer content after GPT-OSS reasoning closes the
				// thinking segment.
				if hasThinking && !thinkingCompleted && choice.Delta.Reasoning == "" {
					endThinking()
				}
				if thinkingCompleted || !hasThinking {
					onChunk(content)
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("groq stream interrupted: %w", err)
	}
	return nil
}

func ptr[T any](v T) *T { return &v }
