package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"newsmood/internal/config"
	"newsmood/internal/resilience/circuitbreaker"
	"newsmood/internal/resilience/retry"
)

// Config holds crawler settings.
type Config struct {
	// Timeout bounds one listing-page or feed request.
	Timeout time.Duration

	// MaxPerSite caps the candidate URLs returned for one site per run.
	MaxPerSite int

	// RequestsPerSecond throttles outbound fetches across all sites.
	RequestsPerSecond float64

	UserAgent string
}

// DefaultConfig returns production crawler defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:           10 * time.Second,
		MaxPerSite:        288,
		RequestsPerSecond: 2,
		UserAgent:         "NewsMoodBot/1.0",
	}
}

// Crawler finds candidate article URLs for one site. Sites with a feed URL
// are read through their RSS/Atom feed; the rest get a front-page link scan.
// Safe for concurrent use.
type Crawler struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	limiter        *rate.Limiter
	config         Config
}

// New creates a crawler with a shared HTTP client, circuit breaker, and
// rate limiter.
func New(cfg Config) *Crawler {
	return &Crawler{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		circuitBreaker: circuitbreaker.New(circuitbreaker.CrawlerConfig()),
		retryConfig:    retry.CrawlConfig(),
		limiter:        rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		config:         cfg,
	}
}

// ArticleURLs returns normalized candidate article URLs for the site,
// deduplicated and capped at MaxPerSite.
func (c *Crawler) ArticleURLs(ctx context.Context, site config.Site) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("ArticleURLs: rate limit wait: %w", err)
	}

	var raw []string

	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			if site.FeedURL != "" {
				return c.fromFeed(ctx, site.FeedURL)
			}
			return c.fromFrontPage(ctx, site.BaseURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("site crawl circuit breaker open, request rejected",
					slog.String("site", site.Name),
					slog.String("state", c.circuitBreaker.State().String()))
			}
			return err
		}
		raw = cbResult.([]string)
		return nil
	})
	if retryErr != nil {
		return nil, fmt.Errorf("ArticleURLs: %s: %w", site.Name, retryErr)
	}

	return c.normalize(raw), nil
}

// normalize strips fragments, dedups, and caps the candidate list while
// preserving discovery order.
func (c *Crawler) normalize(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, u := range raw {
		u = StripFragment(u)
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
		if len(out) >= c.config.MaxPerSite {
			break
		}
	}
	return out
}

// fromFrontPage fetches the site's front page and collects same-host links
// that look like articles.
func (c *Crawler) fromFrontPage(ctx context.Context, baseURL string) (interface{}, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch front page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse front page: %w", err)
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		if !sameHost(base, resolved) {
			return
		}
		full := resolved.String()
		if IsArticleURL(full) {
			links = append(links, full)
		}
	})

	return links, nil
}
