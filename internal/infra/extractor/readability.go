package extractor

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"newsmood/internal/observability/metrics"
	"newsmood/internal/resilience/circuitbreaker"
	"newsmood/internal/resilience/retry"
	"newsmood/internal/usecase/analyze"

	"github.com/go-shiori/go-readability"
)

// Readability implements analyze.ContentExtractor. One instance is safe for
// concurrent use; the analysis job runs extractions in parallel against it.
type Readability struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	config         Config
}

type extracted struct {
	content string
	title   string
}

// NewReadability creates a content extractor with the given configuration.
// All fetches share one circuit breaker: when the network or a dominant site
// is down, extraction backs off as a whole instead of timing out per URL.
func NewReadability(config Config) *Readability {
	e := &Readability{
		circuitBreaker: circuitbreaker.New(circuitbreaker.ExtractorConfig()),
		retryConfig:    retry.ExtractConfig(),
		config:         config,
	}

	e.client = &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= e.config.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", analyze.ErrTooManyRedirects, len(via))
			}
			// Redirect targets get the same SSRF check as the original URL.
			if err := validateURL(req.URL.String(), e.config.DenyPrivateIPs); err != nil {
				return fmt.Errorf("redirect target validation failed: %w", err)
			}
			return nil
		},
	}

	return e
}

// Extract fetches the URL and returns the readable article text and title.
// Pages extracting below the configured word count return ErrNotArticle.
func (e *Readability) Extract(ctx context.Context, urlStr string) (string, string, error) {
	if err := validateURL(urlStr, e.config.DenyPrivateIPs); err != nil {
		return "", "", err
	}

	start := time.Now()
	var ex extracted
	retryErr := retry.WithBackoff(ctx, e.retryConfig, func() error {
		result, err := e.circuitBreaker.Execute(func() (interface{}, error) {
			return e.doExtract(ctx, urlStr)
		})
		if err != nil {
			return err
		}
		ex = result.(extracted)
		return nil
	})
	metrics.ExtractionDuration.Observe(time.Since(start).Seconds())

	if retryErr != nil {
		return "", "", retryErr
	}
	return ex.content, ex.title, nil
}

func (e *Readability) doExtract(ctx context.Context, urlStr string) (interface{}, error) {
	reqCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", analyze.ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", e.config.UserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		if reqCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: request exceeded %v", analyze.ErrTimeout, e.config.Timeout)
		}
		// Unwrap redirect validation errors so callers see the sentinel.
		if urlErr, ok := err.(*url.Error); ok && urlErr.Err != nil {
			return nil, urlErr.Err
		}
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// HTTPError lets the retry layer tell 5xx from 4xx.
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	limitedReader := io.LimitReader(resp.Body, e.config.MaxBodySize+1)
	htmlBytes, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(htmlBytes)) > e.config.MaxBodySize {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", analyze.ErrBodyTooLarge, e.config.MaxBodySize)
	}

	// Readability resolves relative links against the final URL after
	// redirects, not the one we started from.
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		parsedURL = nil
	}
	if resp.Request != nil && resp.Request.URL != nil {
		parsedURL = resp.Request.URL
	}

	article, err := readability.FromReader(bytes.NewReader(htmlBytes), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", analyze.ErrExtractFailed, err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return nil, fmt.Errorf("%w: no readable content found", analyze.ErrExtractFailed)
	}
	if len(strings.Fields(text)) < e.config.MinWordCount {
		return nil, fmt.Errorf("%w: fewer than %d words", analyze.ErrNotArticle, e.config.MinWordCount)
	}

	return extracted{content: text, title: strings.TrimSpace(article.Title)}, nil
}
