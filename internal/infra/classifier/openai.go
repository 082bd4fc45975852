package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"newsmood/internal/observability/metrics"
	"newsmood/internal/resilience/circuitbreaker"
	"newsmood/internal/resilience/retry"
	"newsmood/internal/usecase/analyze"
)

// OpenAI implements analyze.Classifier against any OpenAI-compatible chat
// completion endpoint. With a custom BaseURL this covers Deepseek-style
// services as well.
type OpenAI struct {
	client         *openai.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	config         Config
}

// NewOpenAI creates an OpenAI-compatible classifier from the configuration.
func NewOpenAI(cfg Config) *OpenAI {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	slog.Info("initialized openai classifier",
		slog.String("model", cfg.Model),
		slog.String("base_url", cfg.BaseURL))

	return &OpenAI{
		client:         openai.NewClientWithConfig(clientConfig),
		circuitBreaker: circuitbreaker.New(circuitbreaker.ClassifierConfig("openai")),
		retryConfig:    retry.ClassifierConfig(),
		config:         cfg,
	}
}

// Classify returns the model's emotion verdict for the given article text.
func (o *OpenAI) Classify(ctx context.Context, text string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	var result string

	retryErr := retry.WithBackoff(callCtx, o.retryConfig, func() error {
		cbResult, err := o.circuitBreaker.Execute(func() (interface{}, error) {
			return o.doClassify(callCtx, text)
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("openai classifier circuit breaker open, request rejected",
					slog.String("state", o.circuitBreaker.State().String()))
				return fmt.Errorf("openai api unavailable: circuit breaker open")
			}
			return err
		}

		result = cbResult.(string)
		return nil
	})

	if retryErr != nil {
		// The per-call deadline must not masquerade as a context error, the
		// caller would mistake it for its own cancellation.
		if callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return "", fmt.Errorf("%w: openai call exceeded %v", analyze.ErrTimeout, o.config.Timeout)
		}
		return "", fmt.Errorf("openai classify failed after retries: %w", retryErr)
	}

	return result, nil
}

func (o *OpenAI) doClassify(ctx context.Context, inputText string) (string, error) {
	prompt := buildPrompt(truncate(inputText, o.config.MaxInputChars))

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.config.Model,
		MaxTokens: o.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
	})
	duration := time.Since(start)
	metrics.ClassificationDuration.Observe(duration.Seconds())

	if err != nil {
		slog.ErrorContext(ctx, "classification failed",
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", analyze.ErrEmptyVerdict)
	}

	verdict := strings.TrimSpace(resp.Choices[0].Message.Content)
	if verdict == "" {
		return "", fmt.Errorf("%w: blank message content", analyze.ErrEmptyVerdict)
	}

	slog.InfoContext(ctx, "classification completed",
		slog.Int("verdict_length", len(verdict)),
		slog.Duration("duration", duration))

	return verdict, nil
}
