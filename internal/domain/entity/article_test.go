package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestArticleState_Terminal(t *testing.T) {
	assert.False(t, StatePending.Terminal())
	assert.True(t, StateSuccess.Terminal())
	assert.True(t, StateFailed.Terminal())
}

func TestArticleState_Valid(t *testing.T) {
	for _, s := range []ArticleState{StatePending, StateSuccess, StateFailed} {
		assert.True(t, s.Valid(), "state %q should be valid", s)
	}
	assert.False(t, ArticleState("retrying").Valid())
	assert.False(t, ArticleState("").Valid())
}

func TestArticle_Analyzed(t *testing.T) {
	now := time.Now()

	pending := Article{URL: "https://example.com/a", State: StatePending, CrawledAt: now}
	assert.False(t, pending.Analyzed())

	done := Article{URL: "https://example.com/b", State: StateFailed, CrawledAt: now, AnalyzedAt: &now}
	assert.True(t, done.Analyzed())
}
