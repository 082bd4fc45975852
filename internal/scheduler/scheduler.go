// Package scheduler runs the pipeline's periodic jobs: site discovery,
// backlog analysis and the daily and weekly report emails.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"newsmood/internal/config"
	"newsmood/internal/observability/metrics"
	"newsmood/internal/repository"
	"newsmood/internal/usecase/report"
)

const (
	storeProbeInterval = 10 * time.Second
	jobTimeout         = 25 * time.Minute
)

// Jobs holds the job entry points the scheduler drives. Each runs to
// completion inside its own timeout; overlapping runs of the same job
// are skipped.
type Jobs struct {
	Discover func(ctx context.Context) error
	Analyze  func(ctx context.Context) error
	Report   func(ctx context.Context, period report.Period) error
}

// Scheduler wires the pipeline jobs onto a cron runner in the configured
// timezone.
type Scheduler struct {
	cfg  *config.Config
	repo repository.ArticleRepository
	jobs Jobs
	cron *cron.Cron
}

// New creates a Scheduler. Call Start to register and begin the schedule.
func New(cfg *config.Config, repo repository.ArticleRepository, jobs Jobs) *Scheduler {
	return &Scheduler{
		cfg:  cfg,
		repo: repo,
		jobs: jobs,
		cron: cron.New(
			cron.WithLocation(cfg.Location()),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
	}
}

// Start registers all entries and starts the cron runner. It also kicks
// off the startup sequence: once the store is reachable, one discovery
// run followed by one analysis run, so a fresh deployment produces data
// before the first interval elapses.
func (s *Scheduler) Start(ctx context.Context) error {
	type entry struct {
		name string
		spec string
		run  func()
	}
	entries := []entry{
		{"discovery", "@every " + s.cfg.DiscoveryInterval.String(), func() { s.runJob("discovery", s.jobs.Discover) }},
		{"analysis", "@every " + s.cfg.AnalysisInterval.String(), func() { s.runJob("analysis", s.jobs.Analyze) }},
	}
	if s.cfg.Report.Configured() {
		entries = append(entries,
			entry{"report_daily", s.cfg.Report.DailySchedule, func() { s.runReport("report_daily", report.PeriodDay) }},
			entry{"report_weekly", s.cfg.Report.WeeklySchedule, func() { s.runReport("report_weekly", report.PeriodWeek) }},
		)
	} else {
		slog.Warn("report delivery not configured, report jobs disabled")
	}

	for _, e := range entries {
		if _, err := s.cron.AddFunc(e.spec, e.run); err != nil {
			return fmt.Errorf("Start: add %s entry %q: %w", e.name, e.spec, err)
		}
		slog.Info("job scheduled", slog.String("job", e.name), slog.String("spec", e.spec))
	}

	s.cron.Start()

	go s.runStartupSequence(ctx)

	slog.Info("scheduler started",
		slog.String("timezone", s.cfg.Timezone),
		slog.Duration("discovery_interval", s.cfg.DiscoveryInterval),
		slog.Duration("analysis_interval", s.cfg.AnalysisInterval))
	return nil
}

// Stop halts the schedule and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	slog.Info("scheduler stopped")
}

// runStartupSequence waits for the store to come up, then runs discovery
// and analysis once so the pipeline does not idle until the first tick.
func (s *Scheduler) runStartupSequence(ctx context.Context) {
	for {
		if err := s.repo.Ping(ctx); err == nil {
			break
		} else {
			slog.Info("store not ready, retrying",
				slog.Duration("retry_in", storeProbeInterval),
				slog.Any("error", err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(storeProbeInterval):
		}
	}

	s.runJob("discovery", s.jobs.Discover)
	if ctx.Err() != nil {
		return
	}
	s.runJob("analysis", s.jobs.Analyze)
}

func (s *Scheduler) runJob(name string, fn func(context.Context) error) {
	if fn == nil {
		return
	}
	start := time.Now()
	slog.Info("job started", slog.String("job", name))

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	err := fn(ctx)
	duration := time.Since(start)
	if err != nil {
		metrics.RecordJobRun(name, "failure", duration)
		slog.Error("job failed",
			slog.String("job", name),
			slog.Duration("duration", duration),
			slog.Any("error", err))
		return
	}
	metrics.RecordJobRun(name, "success", duration)
	slog.Info("job completed", slog.String("job", name), slog.Duration("duration", duration))
}

func (s *Scheduler) runReport(name string, period report.Period) {
	s.runJob(name, func(ctx context.Context) error {
		return s.jobs.Report(ctx, period)
	})
}
