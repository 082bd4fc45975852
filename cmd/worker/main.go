// The worker runs the scheduled pipeline: periodic site discovery,
// backlog analysis and the daily and weekly report emails. It exposes
// health probes and Prometheus metrics on side ports.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	appconfig "newsmood/internal/config"
	pgRepo "newsmood/internal/infra/adapter/persistence/postgres"
	"newsmood/internal/infra/classifier"
	"newsmood/internal/infra/crawler"
	"newsmood/internal/infra/db"
	"newsmood/internal/infra/extractor"
	"newsmood/internal/infra/mailer"
	"newsmood/internal/observability/logging"
	"newsmood/internal/repository"
	"newsmood/internal/scheduler"
	"newsmood/internal/usecase/analyze"
	"newsmood/internal/usecase/discover"
	"newsmood/internal/usecase/report"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	cfg, err := appconfig.Load(logger)
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	repo := pgRepo.NewArticleRepo(database)

	discoverSvc := setupDiscovery(repo, cfg)
	analyzeSvc := setupAnalysis(logger, repo, cfg)
	reportSvc := report.NewService(repo, mailer.NewSMTP(cfg.Report), cfg.Location())

	sched := scheduler.New(cfg, repo, scheduler.Jobs{
		Discover: func(ctx context.Context) error {
			_, err := discoverSvc.Run(ctx)
			return err
		},
		Analyze: func(ctx context.Context) error {
			_, err := analyzeSvc.Run(ctx)
			return err
		},
		Report: reportSvc.Send,
	})

	startMetricsServer(ctx, logger, cfg.MetricsPort)
	startHealthServer(ctx, logger, database, cfg.HealthPort)
	go sampleDBPool(ctx, database)

	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", slog.Any("error", err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("shutting down worker...")
	sched.Stop()
	logger.Info("worker stopped")
}

// initDatabase opens the store connection and applies migrations,
// waiting for the store to come up first.
func initDatabase(logger *slog.Logger) *sql.DB {
	database, err := db.Open()
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}

	waitCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := db.WaitReady(waitCtx, database, 3*time.Second); err != nil {
		logger.Error("database did not become ready", slog.Any("error", err))
		os.Exit(1)
	}

	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

func setupDiscovery(repo repository.ArticleRepository, cfg *appconfig.Config) discover.Service {
	crawlCfg := crawler.DefaultConfig()
	crawlCfg.MaxPerSite = cfg.MaxArticlesPerSite
	return discover.NewService(repo, crawler.New(crawlCfg), cfg.ActiveSites())
}

func setupAnalysis(logger *slog.Logger, repo repository.ArticleRepository, cfg *appconfig.Config) analyze.Service {
	extractCfg := extractor.DefaultConfig()
	extractCfg.Timeout = cfg.ExtractTimeout
	if err := extractCfg.Validate(); err != nil {
		logger.Error("invalid extractor configuration", slog.Any("error", err))
		os.Exit(1)
	}

	clsCfg, err := classifier.LoadConfig()
	if err != nil {
		logger.Error("failed to load classifier configuration", slog.Any("error", err))
		os.Exit(1)
	}
	clsCfg.Timeout = cfg.ClassifyTimeout

	cls, err := classifier.New(clsCfg)
	if err != nil {
		logger.Error("failed to create classifier", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("classifier initialized",
		slog.String("provider", clsCfg.Provider),
		slog.String("model", clsCfg.Model))

	// The worker has no stream subscribers, events go nowhere.
	return analyze.NewService(repo, extractor.NewReadability(extractCfg), cls, nil, analyze.Parallelism{
		Extract:  cfg.ExtractParallelism,
		Classify: cfg.ClassifyParallelism,
	})
}
