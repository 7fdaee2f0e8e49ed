package providers

import (
	"fmt"

	"github.com/kotonoha-app/kotonoha/internal/llm"
	"github.com/kotonoha-app/kotonoha/internal/models"
)

// Config carries the credentials needed to construct provider services.
type Config struct {
	GeminiAPIKey string
	GroqAPIKey   string
}

// NewService builds the service for one provider family.
func NewService(provider llm.Provider, cfg Config) (llm.Service, error) {
	switch provider {
	case llm.ProviderGemini:
		return NewGeminiService(cfg.GeminiAPIKey, models.TitleModel), nil
	case llm.ProviderGroq:
		return NewGroqService(cfg.GroqAPIKey), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// NewServices builds every known provider service keyed by family.
func NewServices(cfg Config) map[llm.Provider]llm.Service {
	return map[llm.Provider]llm.Service{
		llm.ProviderGemini: NewGeminiService(cfg.GeminiAPIKey, models.TitleModel),
		llm.ProviderGroq:   NewGroqService(cfg.GroqAPIKey),
	}
}
