package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sony/gobreaker"

	"newsmood/internal/observability/metrics"
	"newsmood/internal/resilience/circuitbreaker"
	"newsmood/internal/resilience/retry"
	"newsmood/internal/usecase/analyze"
)

// Claude implements analyze.Classifier using Anthropic's Claude API.
type Claude struct {
	client         anthropic.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	config         Config
}

// NewClaude creates a Claude classifier from the configuration.
func NewClaude(cfg Config) *Claude {
	slog.Info("initialized claude classifier",
		slog.String("model", cfg.Model))

	return &Claude{
		client:         anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		circuitBreaker: circuitbreaker.New(circuitbreaker.ClassifierConfig("claude")),
		retryConfig:    retry.ClassifierConfig(),
		config:         cfg,
	}
}

// Classify returns the model's emotion verdict for the given article text.
func (c *Claude) Classify(ctx context.Context, text string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var result string

	retryErr := retry.WithBackoff(callCtx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doClassify(callCtx, text)
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("claude classifier circuit breaker open, request rejected",
					slog.String("state", c.circuitBreaker.State().String()))
				return fmt.Errorf("claude api unavailable: circuit breaker open")
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
			return "", fmt.Errorf("%w: claude call exceeded %v", analyze.ErrTimeout, c.config.Timeout)
		}
		return "", fmt.Errorf("claude classify failed after retries: %w", retryErr)
	}

	return result, nil
}

func (c *Claude) doClassify(ctx context.Context, inputText string) (string, error) {
	prompt := buildPrompt(truncate(inputText, c.config.MaxInputChars))

	start := time.Now()
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: int64(c.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
	})
	duration := time.Since(start)
	metrics.ClassificationDuration.Observe(duration.Seconds())

	if err != nil {
		slog.ErrorContext(ctx, "classification failed",
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("claude api error: %w", err)
	}

	if len(message.Content) == 0 {
		return "", fmt.Errorf("%w: no content blocks in response", analyze.ErrEmptyVerdict)
	}

	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return "", fmt.Errorf("%w: unexpected response block type", analyze.ErrEmptyVerdict)
	}

	verdict := strings.TrimSpace(textBlock.Text)
	if verdict == "" {
		return "", fmt.Errorf("%w: blank text block", analyze.ErrEmptyVerdict)
	}

	slog.InfoContext(ctx, "classification completed",
		slog.Int("verdict_length", len(verdict)),
		slog.Duration("duration", duration))

	return verdict, nil
}
