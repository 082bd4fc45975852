package pipeline

import (
	"context"
	"net/http"

	"newsmood/internal/handler/http/respond"
	"newsmood/internal/usecase/analyze"
)

// Analyzer runs one analysis pass over the pending backlog.
type Analyzer interface {
	Run(ctx context.Context) (analyze.Stats, error)
}

// AnalyzeHandler drains the pending backlog synchronously and returns
// the run summary with one result per classified article.
type AnalyzeHandler struct {
	Svc Analyzer
}

func (h AnalyzeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Svc.Run(r.Context())
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	urls := stats.URLs
	if urls == nil {
		urls = []string{}
	}
	out := AnalyzeDTO{
		Processed: stats.Processed,
		Succeeded: stats.Succeeded,
		Failed:    stats.Failed,
		Skipped:   stats.Skipped,
		URLs:      urls,
		Results:   make([]ResultDTO, 0, len(stats.Results)),
	}
	for _, ev := range stats.Results {
		out.Results = append(out.Results, ResultDTO{
			URL:       ev.URL,
			Title:     ev.Title,
			Sentiment: ev.Sentiment,
		})
	}

	respond.JSON(w, http.StatusOK, out)
}
