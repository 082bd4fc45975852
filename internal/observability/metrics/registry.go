// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// SSESubscribers tracks the number of connected event stream clients
	SSESubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_subscribers",
			Help: "Number of connected analysis event stream clients",
		},
	)
)

// Pipeline metrics track discovery, analysis, and reporting
var (
	// ArticlesTotal tracks total number of articles in the database
	ArticlesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "articles_total",
			Help: "Total number of articles in the database",
		},
	)

	// ArticlesPending tracks the pending analysis backlog
	ArticlesPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "articles_pending",
			Help: "Number of articles awaiting analysis",
		},
	)

	// ArticlesDiscoveredTotal counts discovered article URLs by site and outcome
	ArticlesDiscoveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "articles_discovered_total",
			Help: "Total number of article URLs discovered per site",
		},
		[]string{"site", "result"}, // result: inserted, duplicate
	)

	// SiteCrawlDuration measures time to crawl one site's listing pages
	SiteCrawlDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "site_crawl_duration_seconds",
			Help:    "Time taken to crawl a site for new article URLs",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"site"},
	)

	// SiteCrawlErrors counts crawl errors per site
	SiteCrawlErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_crawl_errors_total",
			Help: "Total number of site crawl errors",
		},
		[]string{"site", "error_type"},
	)

	// ArticlesAnalyzedTotal counts analyzed articles by result
	ArticlesAnalyzedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "articles_analyzed_total",
			Help: "Total number of articles taken through analysis",
		},
		[]string{"result"}, // result: success, extract_failed, classify_failed, skipped
	)

	// ClassificationDuration measures time for one LLM classification call
	ClassificationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "classification_duration_seconds",
			Help:    "Time taken to classify one article",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	// ExtractionDuration measures time to fetch and extract article content
	ExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "extraction_duration_seconds",
			Help:    "Time taken to fetch and extract article content",
			Buckets: []float64{0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4, 12.8},
		},
	)

	// ReportsSentTotal counts emailed reports by period and outcome
	ReportsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reports_sent_total",
			Help: "Total number of emailed summary reports",
		},
		[]string{"period", "status"}, // period: day, week
	)

	// JobRunsTotal counts scheduled job executions by outcome
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_runs_total",
			Help: "Total number of scheduled job runs",
		},
		[]string{"job", "status"},
	)

	// JobDuration measures scheduled job duration
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "job_duration_seconds",
			Help:    "Scheduled job duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		},
		[]string{"job"},
	)
)

// Database metrics track database performance
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionsActive tracks active database connections
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordJobRun records one scheduled job execution
func RecordJobRun(job, status string, duration time.Duration) {
	JobRunsTotal.WithLabelValues(job, status).Inc()
	JobDuration.WithLabelValues(job).Observe(duration.Seconds())
}
