package analyze

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"newsmood/internal/domain/entity"
	"newsmood/internal/observability/metrics"
	"newsmood/internal/repository"
)

// Parallelism holds the two-tier concurrency limits for one analysis run.
// Extraction is I/O-bound and runs wide; classification talks to a
// rate-limited model API and runs narrow.
type Parallelism struct {
	Extract  int
	Classify int
}

// Service provides the analysis use case: drain the pending backlog,
// extract each article's text, classify its dominant emotion and write
// the terminal outcome back to the store.
type Service struct {
	Repo       repository.ArticleRepository
	Extractor  ContentExtractor
	Classifier Classifier
	Broker     *Broker
	Limits     Parallelism
}

// NewService creates an analysis Service. A nil broker disables event
// publication.
func NewService(
	repo repository.ArticleRepository,
	extractor ContentExtractor,
	classifier Classifier,
	broker *Broker,
	limits Parallelism,
) Service {
	if limits.Extract < 1 {
		limits.Extract = 1
	}
	if limits.Classify < 1 {
		limits.Classify = 1
	}
	return Service{
		Repo:       repo,
		Extractor:  extractor,
		Classifier: classifier,
		Broker:     broker,
		Limits:     limits,
	}
}

// Stats contains statistics about one analysis run. Results holds one
// event per successfully classified article and URLs every record this
// run moved to a terminal state, failures included, in completion order.
type Stats struct {
	Processed int64
	Succeeded int64
	Failed    int64
	Skipped   int64
	URLs      []string
	Results   []Event
}

// Run processes a snapshot of the pending backlog. Every record reaches a
// terminal state through exactly one conditional store update; a record
// another worker already finished is counted as skipped. Store faults
// abort the batch, per-article extraction and classification failures do
// not.
func (s Service) Run(ctx context.Context) (Stats, error) {
	start := time.Now()

	pending, err := s.Repo.ListPending(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("Run: list pending: %w", err)
	}
	if len(pending) == 0 {
		s.refreshBacklogGauge(ctx)
		return Stats{}, nil
	}

	var stats Stats
	var resultsMu sync.Mutex

	extractSem := make(chan struct{}, s.Limits.Extract)
	classifySem := make(chan struct{}, s.Limits.Classify)
	eg, egCtx := errgroup.WithContext(ctx)

	for _, art := range pending {
		art := art

		eg.Go(func() error {
			ev, outcome, err := s.processArticle(egCtx, art, extractSem, classifySem)
			if err != nil {
				return err
			}

			atomic.AddInt64(&stats.Processed, 1)
			switch outcome {
			case outcomeSuccess:
				atomic.AddInt64(&stats.Succeeded, 1)
				resultsMu.Lock()
				stats.URLs = append(stats.URLs, art.URL)
				stats.Results = append(stats.Results, ev)
				resultsMu.Unlock()
			case outcomeSkipped:
				atomic.AddInt64(&stats.Skipped, 1)
			default:
				atomic.AddInt64(&stats.Failed, 1)
				resultsMu.Lock()
				stats.URLs = append(stats.URLs, art.URL)
				resultsMu.Unlock()
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return stats, fmt.Errorf("Run: %w", err)
	}

	s.refreshBacklogGauge(ctx)

	slog.Info("analysis run completed",
		slog.Int("pending", len(pending)),
		slog.Int64("succeeded", atomic.LoadInt64(&stats.Succeeded)),
		slog.Int64("failed", atomic.LoadInt64(&stats.Failed)),
		slog.Int64("skipped", atomic.LoadInt64(&stats.Skipped)),
		slog.Duration("duration", time.Since(start)))

	return stats, nil
}

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeFailed
	outcomeSkipped
)

func (s Service) processArticle(
	ctx context.Context,
	art *entity.Article,
	extractSem, classifySem chan struct{},
) (Event, outcome, error) {
	select {
	case extractSem <- struct{}{}:
	case <-ctx.Done():
		return Event{}, outcomeFailed, ctx.Err()
	}
	content, title, extractErr := s.Extractor.Extract(ctx, art.URL)
	<-extractSem

	if extractErr != nil {
		// Only the run context dying aborts the batch. A per-call deadline
		// inside the extractor also surfaces as a context error, but the run
		// is still live and the record takes a terminal failure.
		if ctx.Err() != nil {
			return Event{}, outcomeFailed, ctx.Err()
		}
		slog.Warn("content extraction failed",
			slog.Int64("article_id", art.ID),
			slog.String("url", art.URL),
			slog.Any("error", extractErr))
		return s.finishFailed(ctx, art, "", "", extractFailure(extractErr), "extract_failed")
	}

	select {
	case classifySem <- struct{}{}:
	case <-ctx.Done():
		return Event{}, outcomeFailed, ctx.Err()
	}
	verdict, classifyErr := s.Classifier.Classify(ctx, content)
	<-classifySem

	if classifyErr != nil {
		if ctx.Err() != nil {
			return Event{}, outcomeFailed, ctx.Err()
		}
		note := classifyFailure(classifyErr)
		if errors.Is(classifyErr, ErrEmptyVerdict) {
			note = emptyVerdictFailure()
		}
		slog.Warn("classification failed",
			slog.Int64("article_id", art.ID),
			slog.String("url", art.URL),
			slog.Any("error", classifyErr))
		return s.finishFailed(ctx, art, content, title, note, "classify_failed")
	}

	updated, err := s.Repo.MarkTerminal(ctx, art.ID, entity.StateSuccess, content, verdict, time.Now())
	if err != nil {
		return Event{}, outcomeFailed, fmt.Errorf("mark success %d: %w", art.ID, err)
	}
	if !updated {
		metrics.ArticlesAnalyzedTotal.WithLabelValues("skipped").Inc()
		return Event{}, outcomeSkipped, nil
	}

	metrics.ArticlesAnalyzedTotal.WithLabelValues("success").Inc()

	ev := Event{URL: art.URL, Title: title, Sentiment: verdict}
	if s.Broker != nil {
		s.Broker.Publish(ev)
	}
	return ev, outcomeSuccess, nil
}

func (s Service) finishFailed(
	ctx context.Context,
	art *entity.Article,
	content, title, note, result string,
) (Event, outcome, error) {
	updated, err := s.Repo.MarkTerminal(ctx, art.ID, entity.StateFailed, content, note, time.Now())
	if err != nil {
		return Event{}, outcomeFailed, fmt.Errorf("mark failed %d: %w", art.ID, err)
	}
	if !updated {
		metrics.ArticlesAnalyzedTotal.WithLabelValues("skipped").Inc()
		return Event{}, outcomeSkipped, nil
	}
	metrics.ArticlesAnalyzedTotal.WithLabelValues(result).Inc()

	// Failures reach the stream too, the note stands in for a verdict.
	if s.Broker != nil {
		s.Broker.Publish(Event{URL: art.URL, Title: title, Sentiment: note})
	}
	return Event{}, outcomeFailed, nil
}

func (s Service) refreshBacklogGauge(ctx context.Context) {
	n, err := s.Repo.CountPending(ctx)
	if err != nil {
		slog.Warn("could not refresh pending backlog gauge", slog.Any("error", err))
		return
	}
	metrics.ArticlesPending.Set(float64(n))
}
