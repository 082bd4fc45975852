// Package discover crawls configured news sites and records newly found
// article URLs as pending work for the analysis pipeline.
package discover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"newsmood/internal/config"
	"newsmood/internal/domain/entity"
	"newsmood/internal/observability/metrics"
	"newsmood/internal/repository"
)

// SiteCrawler lists candidate article URLs for one configured site.
type SiteCrawler interface {
	ArticleURLs(ctx context.Context, site config.Site) ([]string, error)
}

// Service provides the discovery use case.
type Service struct {
	Repo    repository.ArticleRepository
	Crawler SiteCrawler
	Sites   []config.Site
}

// NewService creates a discovery Service over the given sites.
func NewService(repo repository.ArticleRepository, crawler SiteCrawler, sites []config.Site) Service {
	return Service{
		Repo:    repo,
		Crawler: crawler,
		Sites:   sites,
	}
}

// Stats contains statistics about one discovery run.
type Stats struct {
	Sites      int
	Candidates int
	Inserted   int
	Duplicated int
	SiteErrors int
}

// Run crawls every configured site once. A failing site is logged and
// counted; the remaining sites are still crawled. Store faults inside a
// site abort that site only.
func (s Service) Run(ctx context.Context) (Stats, error) {
	stats := Stats{Sites: len(s.Sites)}
	start := time.Now()

	for _, site := range s.Sites {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("Run: %w", err)
		}
		if err := s.discoverSite(ctx, site, &stats); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return stats, fmt.Errorf("Run: %w", err)
			}
			stats.SiteErrors++
			slog.Warn("site discovery failed, continuing with remaining sites",
				slog.String("site", site.Name),
				slog.Any("error", err))
		}
	}

	if n, err := s.Repo.CountAll(ctx); err == nil {
		metrics.ArticlesTotal.Set(float64(n))
	}

	slog.Info("discovery run completed",
		slog.Int("sites", stats.Sites),
		slog.Int("candidates", stats.Candidates),
		slog.Int("inserted", stats.Inserted),
		slog.Int("duplicated", stats.Duplicated),
		slog.Int("site_errors", stats.SiteErrors),
		slog.Duration("duration", time.Since(start)))

	return stats, nil
}

func (s Service) discoverSite(ctx context.Context, site config.Site, stats *Stats) error {
	siteStart := time.Now()

	urls, err := s.Crawler.ArticleURLs(ctx, site)
	if err != nil {
		metrics.SiteCrawlErrors.WithLabelValues(site.Name, "fetch_failed").Inc()
		return fmt.Errorf("discoverSite: list article urls: %w", err)
	}

	inserted, duplicated := 0, 0
	for _, u := range urls {
		stats.Candidates++

		existing, err := s.Repo.FindByURL(ctx, u)
		if err != nil {
			metrics.SiteCrawlErrors.WithLabelValues(site.Name, "store_failed").Inc()
			return fmt.Errorf("discoverSite: lookup %s: %w", u, err)
		}
		if existing != nil {
			duplicated++
			metrics.ArticlesDiscoveredTotal.WithLabelValues(site.Name, "duplicated").Inc()
			continue
		}

		if _, err := s.Repo.InsertPending(ctx, u, time.Now()); err != nil {
			// A concurrent run may have inserted the same URL between the
			// lookup and the insert. That is a duplicate, not a fault.
			if errors.Is(err, entity.ErrDuplicateURL) {
				duplicated++
				metrics.ArticlesDiscoveredTotal.WithLabelValues(site.Name, "duplicated").Inc()
				continue
			}
			metrics.SiteCrawlErrors.WithLabelValues(site.Name, "store_failed").Inc()
			return fmt.Errorf("discoverSite: insert %s: %w", u, err)
		}
		inserted++
		metrics.ArticlesDiscoveredTotal.WithLabelValues(site.Name, "inserted").Inc()
	}

	stats.Inserted += inserted
	stats.Duplicated += duplicated
	metrics.SiteCrawlDuration.WithLabelValues(site.Name).Observe(time.Since(siteStart).Seconds())

	slog.Info("site discovery completed",
		slog.String("site", site.Name),
		slog.Int("candidates", len(urls)),
		slog.Int("inserted", inserted),
		slog.Int("duplicated", duplicated),
		slog.Duration("duration", time.Since(siteStart)))

	return nil
}
