// Package config loads application configuration from config files and
// environment variables, and persists the user's provider/model selection.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const appName = "kotonoha"

// Config is the process-wide configuration.
type Config struct {
	GeminiAPIKey   string        `mapstructure:"gemini_api_key"`
	GroqAPIKey     string        `mapstructure:"groq_api_key"`
	UserID         string        `mapstructure:"user_id"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	TitleTimeout   time.Duration `mapstructure:"title_timeout"`
	Debug          bool          `mapstructure:"debug"`
}

// Load reads configuration from ~/.kotonoha.json (or XDG equivalents) and
// KOTONOHA_* environment variables. Missing files are fine; API keys also
// resolve from the conventional GEMINI_API_KEY / GROQ_API_KEY variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(fmt.Sprintf(".%s", appName))
	v.SetConfigType("json")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(fmt.Sprintf("$XDG_CONFIG_HOME/%s", appName))
	v.AddConfigPath(fmt.Sprintf("$HOME/.config/%s", appName))
	v.SetEnvPrefix(strings.ToUpper(appName))
	v.AutomaticEnv()

	v.SetDefault("user_id", "local")
	v.SetDefault("request_timeout", 2*time.Minute)
	v.SetDefault("title_timeout", 15*time.Second)
	v.SetDefault("debug", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Conventional env names take effect when the config carries no key.
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.GroqAPIKey == "" {
		cfg.GroqAPIKey = os.Getenv("GROQ_API_KEY")
	}
	return &cfg, nil
}
