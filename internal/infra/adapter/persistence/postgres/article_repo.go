// Package postgres implements the article repository on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"newsmood/internal/domain/entity"
	"newsmood/internal/observability/metrics"
	"newsmood/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
)

// observe records the query duration under the operation label.
func observe(op string, start time.Time) {
	metrics.DBQueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

const articleColumns = `id, url, content, analysis, state, crawled_at, analyzed_at`

type ArticleRepo struct {
	db *sql.DB
}

func NewArticleRepo(db *sql.DB) repository.ArticleRepository {
	return &ArticleRepo{db: db}
}

// scanArticle reads one row into an entity, mapping NULL content/analysis to
// empty strings and NULL analyzed_at to nil.
func scanArticle(scan func(dest ...any) error) (*entity.Article, error) {
	var (
		article    entity.Article
		content    sql.NullString
		analysis   sql.NullString
		analyzedAt sql.NullTime
	)
	if err := scan(&article.ID, &article.URL, &content, &analysis,
		&article.State, &article.CrawledAt, &analyzedAt); err != nil {
		return nil, err
	}
	article.Content = content.String
	article.Analysis = analysis.String
	if analyzedAt.Valid {
		t := analyzedAt.Time
		article.AnalyzedAt = &t
	}
	return &article, nil
}

func (repo *ArticleRepo) FindByURL(ctx context.Context, url string) (*entity.Article, error) {
	defer observe("find_by_url", time.Now())

	const query = `
SELECT ` + articleColumns + `
FROM articles
WHERE url = $1
LIMIT 1`
	row := repo.db.QueryRowContext(ctx, query, url)
	article, err := scanArticle(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindByURL: %w", err)
	}
	return article, nil
}

// InsertPending relies on the unique constraint, not the caller's pre-check:
// two racing discovery runs both reach the INSERT, and exactly one wins.
func (repo *ArticleRepo) InsertPending(ctx context.Context, url string, crawledAt time.Time) (*entity.Article, error) {
	defer observe("insert_pending", time.Now())

	const query = `
INSERT INTO articles (url, state, crawled_at)
VALUES ($1, 'pending', $2)
ON CONFLICT (url) DO NOTHING
RETURNING id`
	var id int64
	err := repo.db.QueryRowContext(ctx, query, url, crawledAt).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		// ON CONFLICT DO NOTHING returns no row when the URL already exists.
		return nil, entity.ErrDuplicateURL
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, entity.ErrDuplicateURL
		}
		return nil, fmt.Errorf("InsertPending: %w", err)
	}
	return &entity.Article{
		ID:        id,
		URL:       url,
		State:     entity.StatePending,
		CrawledAt: crawledAt,
	}, nil
}

func (repo *ArticleRepo) ListPending(ctx context.Context) ([]*entity.Article, error) {
	defer observe("list_pending", time.Now())

	const query = `
SELECT ` + articleColumns + `
FROM articles
WHERE state = 'pending'
ORDER BY crawled_at`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListPending: %w", err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, 100)
	for rows.Next() {
		article, err := scanArticle(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("ListPending: Scan: %w", err)
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

// MarkTerminal is conditional on the record still being pending so that an
// overlapping analysis run cannot overwrite a terminal record. A zero-row
// update means the transition was already made elsewhere and is not an error.
func (repo *ArticleRepo) MarkTerminal(ctx context.Context, id int64, state entity.ArticleState, content, analysis string, analyzedAt time.Time) (bool, error) {
	if !state.Terminal() {
		return false, fmt.Errorf("MarkTerminal: %w: %q", entity.ErrInvalidState, state)
	}
	defer observe("mark_terminal", time.Now())

	const query = `
UPDATE articles SET
       state       = $2,
       content     = $3,
       analysis    = $4,
       analyzed_at = $5
WHERE id = $1 AND state = 'pending'`
	res, err := repo.db.ExecContext(ctx, query,
		id, state, nullString(content), nullString(analysis), analyzedAt)
	if err != nil {
		return false, fmt.Errorf("MarkTerminal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("MarkTerminal: RowsAffected: %w", err)
	}
	return n == 1, nil
}

func (repo *ArticleRepo) QueryByWindow(ctx context.Context, start, end time.Time, state entity.ArticleState) ([]*entity.Article, error) {
	defer observe("query_by_window", time.Now())

	const query = `
SELECT ` + articleColumns + `
FROM articles
WHERE state = $1
  AND analyzed_at >= $2
  AND analyzed_at <= $3
ORDER BY analyzed_at`
	rows, err := repo.db.QueryContext(ctx, query, state, start, end)
	if err != nil {
		return nil, fmt.Errorf("QueryByWindow: %w", err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, 100)
	for rows.Next() {
		article, err := scanArticle(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("QueryByWindow: Scan: %w", err)
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

func (repo *ArticleRepo) CountAll(ctx context.Context) (int64, error) {
	defer observe("count_all", time.Now())

	const query = `SELECT COUNT(*) FROM articles`
	var count int64
	if err := repo.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("CountAll: %w", err)
	}
	return count, nil
}

func (repo *ArticleRepo) CountCrawledSince(ctx context.Context, t time.Time) (int64, error) {
	defer observe("count_crawled_since", time.Now())

	const query = `SELECT COUNT(*) FROM articles WHERE crawled_at >= $1`
	var count int64
	if err := repo.db.QueryRowContext(ctx, query, t).Scan(&count); err != nil {
		return 0, fmt.Errorf("CountCrawledSince: %w", err)
	}
	return count, nil
}

func (repo *ArticleRepo) CountPending(ctx context.Context) (int64, error) {
	defer observe("count_pending", time.Now())

	const query = `SELECT COUNT(*) FROM articles WHERE state = 'pending'`
	var count int64
	if err := repo.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("CountPending: %w", err)
	}
	return count, nil
}

func (repo *ArticleRepo) Ping(ctx context.Context) error {
	return repo.db.PingContext(ctx)
}

// nullString maps an empty string to SQL NULL so failed extractions leave
// content unset rather than storing an empty value.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
