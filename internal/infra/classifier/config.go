// Package classifier provides LLM-backed emotion classification for article
// text. Two providers are supported, selected by CLASSIFIER_TYPE: an
// OpenAI-compatible chat completion API (including Deepseek-style endpoints
// via a custom base URL) and Anthropic's Claude.
package classifier

import (
	"fmt"
	"strings"
	"time"

	"newsmood/internal/domain/entity"
	pkgconfig "newsmood/internal/pkg/config"
)

// Config holds provider-independent classification settings.
type Config struct {
	// Provider selects the implementation: "openai", "claude", or "noop".
	Provider string

	// APIKey authenticates against the selected provider.
	APIKey string

	// BaseURL overrides the OpenAI-compatible endpoint. Empty means the
	// provider default. Deepseek-compatible services are reached this way.
	BaseURL string

	// Model is the provider's model identifier.
	Model string

	// MaxTokens caps the response size. Verdicts are one line; a small cap
	// keeps a rambling model cheap.
	MaxTokens int

	// Timeout bounds one classification call.
	Timeout time.Duration

	// MaxInputChars truncates article text before it is sent.
	MaxInputChars int
}

// LoadConfig reads classifier settings from the environment.
//
// Environment variables:
//   - CLASSIFIER_TYPE: "openai" (default), "claude", or "noop"
//   - CLASSIFIER_API_KEY: provider API key (required except for noop)
//   - CLASSIFIER_BASE_URL: OpenAI-compatible endpoint override
//   - CLASSIFIER_MODEL: model identifier (provider-specific default)
//   - CLASSIFIER_TIMEOUT: per-call timeout (default 60s)
func LoadConfig() (*Config, error) {
	provider := strings.ToLower(pkgconfig.LoadEnvString("CLASSIFIER_TYPE", "openai"))

	cfg := &Config{
		Provider:      provider,
		APIKey:        pkgconfig.LoadEnvString("CLASSIFIER_API_KEY", ""),
		BaseURL:       pkgconfig.LoadEnvString("CLASSIFIER_BASE_URL", ""),
		MaxTokens:     256,
		MaxInputChars: 10000,
	}

	switch provider {
	case "openai":
		cfg.Model = pkgconfig.LoadEnvString("CLASSIFIER_MODEL", "gpt-4o-mini")
	case "claude":
		cfg.Model = pkgconfig.LoadEnvString("CLASSIFIER_MODEL", "claude-sonnet-4-5")
	case "noop":
	default:
		return nil, fmt.Errorf("unknown CLASSIFIER_TYPE %q (want openai, claude, or noop)", provider)
	}

	result := pkgconfig.LoadEnvDuration("CLASSIFIER_TIMEOUT", 60*time.Second, pkgconfig.ValidatePositiveDuration)
	cfg.Timeout = result.Value.(time.Duration)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for the selected provider.
func (c *Config) Validate() error {
	if c.Provider == "noop" {
		return nil
	}
	if c.APIKey == "" {
		return fmt.Errorf("CLASSIFIER_API_KEY is required for provider %q", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	return nil
}

// buildPrompt asks for a one-line Vietnamese verdict naming one category.
func buildPrompt(text string) string {
	return fmt.Sprintf(
		"Hãy phân tích cảm xúc chủ đạo của bài báo sau và trả lời bằng đúng một dòng tiếng Việt, "+
			"nêu rõ một trong các cảm xúc: %s.\n\n%s",
		strings.Join(entity.EmotionCategories, ", "), text)
}

// truncate caps article text before sending it to the provider.
func truncate(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}
	return text[:maxChars] + "...\n(nội dung đã được rút gọn)"
}
