package pipeline

import (
	"net/http"
	"time"

	"newsmood/internal/repository"
	"newsmood/internal/usecase/analyze"
)

// Register registers the pipeline control endpoints with the given mux.
func Register(
	mux *http.ServeMux,
	repo repository.ArticleRepository,
	discoverSvc Discoverer,
	analyzeSvc Analyzer,
	broker *analyze.Broker,
	tracker *Tracker,
	location *time.Location,
) {
	mux.Handle("GET  /api/status", StatusHandler{Repo: repo, Tracker: tracker, Location: location})
	mux.Handle("POST /api/crawl", CrawlHandler{Svc: discoverSvc, Tracker: tracker})
	mux.Handle("POST /api/analyze", AnalyzeHandler{Svc: analyzeSvc})
	mux.Handle("GET  /api/analyze/stream", StreamHandler{Broker: broker})
}
