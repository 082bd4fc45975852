package extractor

import (
	"fmt"
	"time"
)

// Config holds the configuration for article content extraction.
//
// Security settings:
//   - DenyPrivateIPs: blocks URLs resolving to private addresses (SSRF)
//   - MaxBodySize: rejects oversized responses during reading
//   - MaxRedirects: caps redirect chains, each target re-validated
//   - Timeout: bounds one HTTP request
//
// Quality settings:
//   - MinWordCount: pages extracting to fewer words are treated as
//     non-article pages (navigation hubs, paywalls, error pages)
type Config struct {
	// Timeout is the maximum duration for a single HTTP request.
	// Default: 10s
	Timeout time.Duration

	// MaxBodySize is the maximum HTTP response body size in bytes.
	// Enforced while reading, not trusted from Content-Length.
	// Default: 10485760 (10MB)
	MaxBodySize int64

	// MaxRedirects is the maximum number of HTTP redirects to follow.
	// Default: 5
	MaxRedirects int

	// DenyPrivateIPs blocks URLs resolving to private/loopback/link-local
	// addresses. Should always be true in production.
	// Default: true
	DenyPrivateIPs bool

	// MinWordCount is the minimum number of whitespace-separated words the
	// extracted text must contain to count as an article.
	// Default: 50
	MinWordCount int

	// UserAgent identifies the crawler to the sites it fetches.
	UserAgent string
}

// DefaultConfig returns production-ready extraction defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:        10 * time.Second,
		MaxBodySize:    10 * 1024 * 1024,
		MaxRedirects:   5,
		DenyPrivateIPs: true,
		MinWordCount:   50,
		UserAgent:      "NewsMoodBot/1.0",
	}
}

// Validate checks the configuration for values that would break extraction
// or open it up to resource exhaustion.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.MaxBodySize < 1024 || c.MaxBodySize > 100*1024*1024 {
		return fmt.Errorf("max body size must be between 1KB and 100MB, got %d", c.MaxBodySize)
	}
	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}
	if c.MinWordCount < 0 {
		return fmt.Errorf("min word count must be non-negative, got %d", c.MinWordCount)
	}
	return nil
}
