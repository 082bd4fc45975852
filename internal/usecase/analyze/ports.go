// Package analyze implements the analysis pass: take every pending article,
// fetch and extract its content, classify the emotional tone with an LLM,
// and persist exactly one terminal state per record.
package analyze

import "context"

// ContentExtractor fetches an article page and extracts readable text.
type ContentExtractor interface {
	// Extract returns the article body text and title for the URL.
	// An empty or non-article page is an error, not an empty result.
	Extract(ctx context.Context, url string) (content, title string, err error)
}

// Classifier produces an emotional-tone verdict for article text.
type Classifier interface {
	// Classify returns the model's verdict, one line of Vietnamese naming
	// an emotion category. An empty verdict is an error.
	Classify(ctx context.Context, text string) (string, error)
}
