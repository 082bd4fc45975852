// Package pipeline provides the HTTP control surface for the analysis
// pipeline: triggering crawls and analysis runs, reporting backlog
// status and streaming live classification results.
package pipeline

// StatusDTO represents the JSON structure for the pipeline status
// endpoint.
type StatusDTO struct {
	TotalArticles   int64  `json:"total_articles"`
	ArticlesToday   int64  `json:"articles_today"`
	PendingArticles int64  `json:"pending_articles"`
	LastCheck       string `json:"last_check,omitempty"`
}

// ResultDTO represents one classified article in an analysis response.
type ResultDTO struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Sentiment string `json:"sentiment"`
}

// AnalyzeDTO represents the JSON summary of one analysis run. URLs lists
// every record the run moved to a terminal state, failures included.
type AnalyzeDTO struct {
	Processed int64       `json:"processed"`
	Succeeded int64       `json:"succeeded"`
	Failed    int64       `json:"failed"`
	Skipped   int64       `json:"skipped"`
	URLs      []string    `json:"urls"`
	Results   []ResultDTO `json:"results"`
}

// AcceptedDTO acknowledges a background job trigger.
type AcceptedDTO struct {
	Status string `json:"status"`
}
