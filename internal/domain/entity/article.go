// Package entity defines the core domain entities and validation logic for the application.
// It contains the article lifecycle model that every pipeline component operates on,
// along with domain-specific errors.
package entity

import "time"

// ArticleState is the lifecycle state of an article record.
type ArticleState string

const (
	// StatePending marks a discovered article that has not been analyzed yet.
	// Pending is the only non-terminal state.
	StatePending ArticleState = "pending"

	// StateSuccess marks an article whose content was extracted and classified.
	StateSuccess ArticleState = "success"

	// StateFailed marks an article whose extraction or classification failed.
	// Failed is terminal: a failed article is never re-analyzed.
	StateFailed ArticleState = "failed"
)

// Terminal reports whether the state is final (Success or Failed).
func (s ArticleState) Terminal() bool {
	return s == StateSuccess || s == StateFailed
}

// Valid reports whether the state is one of the three known lifecycle states.
func (s ArticleState) Valid() bool {
	return s == StatePending || s == StateSuccess || s == StateFailed
}

// Article represents one discovered URL tracked through extraction and
// classification. The URL is the deduplication key; the store enforces its
// uniqueness. AnalyzedAt is set exactly when State leaves Pending and never
// changes afterwards.
type Article struct {
	ID         int64
	URL        string
	Content    string
	Analysis   string
	State      ArticleState
	CrawledAt  time.Time
	AnalyzedAt *time.Time
}

// Analyzed reports whether the article has reached a terminal state.
func (a *Article) Analyzed() bool {
	return a.State.Terminal()
}
