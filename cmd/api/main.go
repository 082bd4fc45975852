// The api serves the pipeline control endpoints: status, manual crawl
// and analysis triggers, and the live classification event stream.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appconfig "newsmood/internal/config"
	hhttp "newsmood/internal/handler/http"
	"newsmood/internal/handler/http/pipeline"
	"newsmood/internal/handler/http/requestid"
	pgRepo "newsmood/internal/infra/adapter/persistence/postgres"
	"newsmood/internal/infra/classifier"
	"newsmood/internal/infra/crawler"
	"newsmood/internal/infra/db"
	"newsmood/internal/infra/extractor"
	"newsmood/internal/observability/logging"
	"newsmood/internal/repository"
	"newsmood/internal/usecase/analyze"
	"newsmood/internal/usecase/discover"
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

	handler := setupHandler(logger, database, cfg)
	runServer(logger, handler, cfg.HTTPPort)
}

// initDatabase opens the store connection and waits for it to accept
// queries. Migrations are the worker's job; the api only reads and
// triggers.
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
	return database
}

func setupHandler(logger *slog.Logger, database *sql.DB, cfg *appconfig.Config) http.Handler {
	repo := pgRepo.NewArticleRepo(database)
	broker := analyze.NewBroker()
	tracker := pipeline.NewTracker()

	discoverSvc := setupDiscovery(repo, cfg)
	analyzeSvc := setupAnalysis(logger, repo, cfg, broker)

	mux := http.NewServeMux()
	pipeline.Register(mux, repo, discoverSvc, analyzeSvc, broker, tracker, cfg.Location())
	mux.Handle("GET  /health", &hhttp.HealthHandler{DB: database, Version: version()})
	mux.Handle("GET  /health/ready", &hhttp.ReadyHandler{DB: database})
	mux.Handle("GET  /health/live", hhttp.LiveHandler{})
	mux.Handle("GET  /metrics", promhttp.Handler())

	return hhttp.Chain(mux,
		requestid.Middleware,
		hhttp.Recover(logger),
		hhttp.Logging(logger),
	)
}

func setupDiscovery(repo repository.ArticleRepository, cfg *appconfig.Config) discover.Service {
	crawlCfg := crawler.DefaultConfig()
	crawlCfg.MaxPerSite = cfg.MaxArticlesPerSite
	return discover.NewService(repo, crawler.New(crawlCfg), cfg.ActiveSites())
}

func setupAnalysis(logger *slog.Logger, repo repository.ArticleRepository, cfg *appconfig.Config, broker *analyze.Broker) analyze.Service {
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

	return analyze.NewService(repo, extractor.NewReadability(extractCfg), cls, broker, analyze.Parallelism{
		Extract:  cfg.ExtractParallelism,
		Classify: cfg.ClassifyParallelism,
	})
}

func version() string {
	if v := os.Getenv("APP_VERSION"); v != "" {
		return v
	}
	return "dev"
}

func runServer(logger *slog.Logger, handler http.Handler, port int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.Int("port", port),
			slog.String("version", version()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
