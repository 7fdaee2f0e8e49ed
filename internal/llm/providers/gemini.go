package providers

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/kotonoha-app/kotonoha/internal/llm"
)

// GeminiService implements the provider contract on the official Google
// GenAI SDK. Gemini is the dual-channel provider: thinking parts arrive
// natively flagged, so no sentinel multiplexing is involved.
type GeminiService struct {
	apiKey     string
	titleModel string
	client     *genai.Client
}

// NewGeminiService creates a Gemini service. The SDK client is created
// lazily on first use because construction needs a context.
func NewGeminiService(apiKey, titleModel string) *GeminiService {
	return &GeminiService{apiKey: apiKey, titleModel: titleModel}
}

func (s *GeminiService) ensureClient(ctx context.Context) error {
	if s.client != nil {
		return nil
	}
	if s.apiKey == "" {
		return llm.ErrAPIKeyMissing
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("failed to create gemini client: %w", err)
	}
	s.client = client
	return nil
}

// StreamMessage streams answer content on a single callback. Thought parts
// are dropped; callers wanting them use StreamMessageWithThinking.
func (s *GeminiService) StreamMessage(ctx context.Context, history []llm.ChatMessage, onChunk llm.ChunkFunc, opts llm.RequestOptions) error {
	return s.stream(ctx, history, nil, nil, onChunk, opts)
}

// StreamMessageWithThinking splits thought and answer parts onto two
// callbacks using the SDK's native thought flag.
func (s *GeminiService) StreamMessageWithThinking(ctx context.Context, history []llm.ChatMessage, onThought, onAnswer llm.ChunkFunc, opts llm.RequestOptions) error {
	return s.stream(ctx, history, nil, onThought, onAnswer, opts)
}

// StreamMessageWithFiles attaches encoded files to the final user turn and
// streams the answer.
func (s *GeminiService) StreamMessageWithFiles(ctx context.Context, history []llm.ChatMessage, files []llm.FilePayload, onChunk llm.ChunkFunc, opts llm.RequestOptions) error {
	return s.stream(ctx, history, files, nil, onChunk, opts)
}

func (s *GeminiService) StreamMessageWithFilesAndThinking(ctx context.Context, history []llm.ChatMessage, files []llm.FilePayload, onThought, onAnswer llm.ChunkFunc, opts llm.RequestOptions) error {
	return s.stream(ctx, history, files, onThought, onAnswer, opts)
}

func (s *GeminiService) stream(ctx context.Context, history []llm.ChatMessage, files []llm.FilePayload, onThought, onAnswer llm.ChunkFunc, opts llm.RequestOptions) error {
	if err := s.ensureClient(ctx); err != nil {
		return err
	}

	contents, err := convertHistory(history, files)
	if err != nil {
		return err
	}

	config := buildGenerateConfig(opts, onThought != nil)

	for resp, err := range s.client.Models.GenerateContentStream(ctx, opts.Model, contents, config) {
		if err != nil {
			return fmt.Errorf("gemini stream failed: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			continue
		}
		for _, part := range resp.Candidates[0].Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			if part.Thought {
				if onThought != nil {
					onThought(part.Text)
				}
				continue
			}
			onAnswer(part.Text)
		}
	}
	return nil
}

// GenerateTitle asks the cheap title model for a short chat title.
func (s *GeminiService) GenerateTitle(ctx context.Context, firstMessage string) (string, error) {
	if err := s.ensureClient(ctx); err != nil {
		return "", err
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: titlePrompt(firstMessage)}},
	}}
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(0.8)),
		MaxOutputTokens: 30,
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.titleModel, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini title generation failed: %w", err)
	}

	title := strings.TrimSpace(resp.Text())
	if title == "" {
		return "", fmt.Errorf("gemini returned empty title")
	}
	return truncateTitle(title), nil
}

func convertHistory(history []llm.ChatMessage, files []llm.FilePayload) ([]*genai.Content, error) {
	var contents []*genai.Content
	for _, msg := range history {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		role := genai.RoleUser
		if msg.Role == llm.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}
	if len(contents) == 0 {
		return nil, llm.ErrEmptyHistory
	}

	// Encoded attachments ride along with the final user turn.
	if len(files) > 0 {
		last := contents[len(contents)-1]
		for _, f := range files {
			data, err := base64.StdEncoding.DecodeString(f.Data)
			if err != nil {
				return nil, fmt.Errorf("invalid base64 payload for %q: %w", f.Name, err)
			}
			last.Parts = append(last.Parts, &genai.Part{
				InlineData: &genai.Blob{MIMEType: f.MimeType, Data: data},
			})
		}
	}
	return contents, nil
}

func buildGenerateConfig(opts llm.RequestOptions, wantThoughts bool) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	g := opts.Gemini
	if g == nil {
		return config
	}

	config.Temperature = genai.Ptr(float32(g.Temperature))
	if g.MaxTokens > 0 {
		config.MaxOutputTokens = int32(g.MaxTokens)
	}
	if g.EnableThinking {
		config.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: wantThoughts,
		}
	}

	var tools []*genai.Tool
	if g.EnableGoogleSearch {
		tools = append(tools, &genai.Tool{GoogleSearch: &genai.GoogleSearch{}})
	}
	if g.EnableCodeExecution {
		tools = append(tools, &genai.Tool{CodeExecution: &genai.ToolCodeExecution{}})
	}
	if g.EnableURLContext {
		tools = append(tools, &genai.Tool{URLContext: &genai.URLContext{}})
	}
	if g.EnableTools && len(tools) > 0 {
		config.Tools = tools
	}
	return config
}
