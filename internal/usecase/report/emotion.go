package report

import (
	"strings"

	"newsmood/internal/domain/entity"
)

// EmotionExtractor maps a free-text classifier verdict to one emotion label.
// The policy is a case-insensitive substring scan over the fixed category
// list in order, first match winning. It is deliberately a separate type:
// the scan is fragile against verdicts that mention several categories, and
// isolating it keeps a future policy change out of the aggregation code.
type EmotionExtractor struct {
	categories []string
	fallback   string
}

// NewEmotionExtractor returns an extractor over the canonical category list.
func NewEmotionExtractor() *EmotionExtractor {
	return &EmotionExtractor{
		categories: entity.EmotionCategories,
		fallback:   entity.EmotionUndetermined,
	}
}

// Extract returns the first category named in the verdict, or the
// undetermined fallback when none is.
func (e *EmotionExtractor) Extract(verdict string) string {
	lowered := strings.ToLower(verdict)
	for _, category := range e.categories {
		if strings.Contains(lowered, strings.ToLower(category)) {
			return category
		}
	}
	return e.fallback
}

// Categories returns the label order used for tallies and report rendering.
func (e *EmotionExtractor) Categories() []string {
	return e.categories
}

// Fallback returns the undetermined label.
func (e *EmotionExtractor) Fallback() string {
	return e.fallback
}
