package classifier

import (
	"context"
	"fmt"

	"newsmood/internal/usecase/analyze"
)

// Noop is a classifier that labels everything neutral. Used when analysis is
// run without an LLM provider, and in tests.
type Noop struct{}

// Classify always returns the neutral category.
func (Noop) Classify(_ context.Context, _ string) (string, error) {
	return "Trung lập", nil
}

// New builds the classifier selected by the configuration.
func New(cfg *Config) (analyze.Classifier, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(*cfg), nil
	case "claude":
		return NewClaude(*cfg), nil
	case "noop":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown classifier provider %q", cfg.Provider)
	}
}
