package db

import "database/sql"

// MigrateUp creates the articles table and its indexes.
// The CHECK constraints encode the lifecycle invariants: state is one of the
// three known values, and analyzed_at is set exactly when state is terminal.
func MigrateUp(database *sql.DB) error {
	if _, err := database.Exec(`
CREATE TABLE IF NOT EXISTS articles (
    id          SERIAL PRIMARY KEY,
    url         TEXT NOT NULL UNIQUE,
    content     TEXT,
    analysis    TEXT,
    state       VARCHAR(10) NOT NULL DEFAULT 'pending',
    crawled_at  TIMESTAMPTZ NOT NULL,
    analyzed_at TIMESTAMPTZ,
    CONSTRAINT chk_article_state CHECK (state IN ('pending', 'success', 'failed')),
    CONSTRAINT chk_analyzed_at CHECK ((state = 'pending') = (analyzed_at IS NULL))
)`); err != nil {
		return err
	}

	indexes := []string{
		// Analysis job scans for the pending backlog.
		`CREATE INDEX IF NOT EXISTS idx_articles_state ON articles(state) WHERE state = 'pending'`,
		// Report aggregation filters on analyzed_at windows.
		`CREATE INDEX IF NOT EXISTS idx_articles_analyzed_at ON articles(analyzed_at)`,
		// Status endpoint counts articles crawled today.
		`CREATE INDEX IF NOT EXISTS idx_articles_crawled_at ON articles(crawled_at)`,
	}
	for _, idx := range indexes {
		if _, err := database.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown drops the articles table.
// Use with caution: this deletes the whole analysis audit log.
func MigrateDown(database *sql.DB) error {
	_, err := database.Exec(`DROP TABLE IF EXISTS articles`)
	return err
}
