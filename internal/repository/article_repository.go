// Package repository defines the persistence contracts used by the pipeline
// use cases. The Article Store is the single source of truth for lifecycle
// state; jobs interact with it only through this interface and never hold
// private copies across runs.
package repository

import (
	"context"
	"time"

	"newsmood/internal/domain/entity"
)

type ArticleRepository interface {
	// FindByURL looks up an article by its normalized URL.
	// Returns (nil, nil) if no record exists.
	FindByURL(ctx context.Context, url string) (*entity.Article, error)

	// InsertPending creates a new Pending record for the given URL.
	// Returns entity.ErrDuplicateURL when the URL uniqueness constraint is
	// violated; the insert, not the pre-check, is the dedup authority.
	InsertPending(ctx context.Context, url string, crawledAt time.Time) (*entity.Article, error)

	// ListPending returns a snapshot of all Pending records. The snapshot may
	// be stale by the time an individual record is updated; MarkTerminal's
	// conditional update makes that safe.
	ListPending(ctx context.Context) ([]*entity.Article, error)

	// MarkTerminal transitions a Pending record to a terminal state, setting
	// content, analysis text and the analysis timestamp in one write.
	// The update is conditional on the record still being Pending: if it
	// already reached a terminal state the call is a no-op and returns false.
	MarkTerminal(ctx context.Context, id int64, state entity.ArticleState, content, analysis string, analyzedAt time.Time) (bool, error)

	// QueryByWindow returns records in the given state whose AnalyzedAt falls
	// within [start, end], ordered by AnalyzedAt.
	QueryByWindow(ctx context.Context, start, end time.Time, state entity.ArticleState) ([]*entity.Article, error)

	// CountAll returns the total number of records.
	CountAll(ctx context.Context) (int64, error)

	// CountCrawledSince returns the number of records crawled at or after t.
	CountCrawledSince(ctx context.Context, t time.Time) (int64, error)

	// CountPending returns the size of the unprocessed backlog.
	CountPending(ctx context.Context) (int64, error)

	// Ping probes store reachability. Used by the scheduler's startup
	// backoff loop.
	Ping(ctx context.Context) error
}
