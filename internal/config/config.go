// Package config loads the application configuration: the sites file (YAML)
// naming which news sites to watch and where reports go, plus operational
// knobs from environment variables. Env loading is fail-open: invalid values
// log a warning and fall back to defaults.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	pkgconfig "newsmood/internal/pkg/config"

	"gopkg.in/yaml.v3"
)

// Site is one news site watched by the discovery job.
type Site struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
	// FeedURL, when set, switches discovery to the site's RSS/Atom feed
	// instead of scanning the front page for links.
	FeedURL string `yaml:"feed_url,omitempty"`
	Active  bool   `yaml:"active"`
}

// SMTP holds the mail relay settings for report delivery.
type SMTP struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	UseTLS   bool   `yaml:"use_tls"`
}

// Report holds report recipients and delivery schedule.
type Report struct {
	Recipients []string `yaml:"recipients"`
	SMTP       SMTP     `yaml:"smtp"`
	// DailySchedule and WeeklySchedule are five-field cron expressions in
	// the configured timezone.
	DailySchedule  string `yaml:"daily_schedule"`
	WeeklySchedule string `yaml:"weekly_schedule"`
}

// Configured reports whether enough SMTP settings are present to send mail.
// An unconfigured report block turns report delivery into a logged no-op.
func (r Report) Configured() bool {
	return len(r.Recipients) > 0 && r.SMTP.Host != "" && r.SMTP.Port > 0
}

// File is the on-disk shape of the sites configuration file.
type File struct {
	Sites  []Site `yaml:"sites"`
	Report Report `yaml:"report"`
}

// Config is the assembled application configuration.
type Config struct {
	Sites  []Site
	Report Report

	// DiscoveryInterval and AnalysisInterval drive the periodic jobs.
	DiscoveryInterval time.Duration
	AnalysisInterval  time.Duration

	// ExtractParallelism bounds concurrent content fetches per analysis run;
	// ClassifyParallelism bounds concurrent LLM calls within them.
	ExtractParallelism  int
	ClassifyParallelism int

	// ExtractTimeout bounds one content fetch; ClassifyTimeout one LLM call.
	ExtractTimeout  time.Duration
	ClassifyTimeout time.Duration

	// MaxArticlesPerSite caps candidate links taken from one site per run.
	MaxArticlesPerSite int

	// Timezone is the IANA name used for report windows and cron schedules.
	Timezone string

	HTTPPort    int
	MetricsPort int
	HealthPort  int
}

// Defaults mirrors a small deployment watching a handful of sites: half-hour
// discovery, ten-minute analysis sweeps, evening reports.
func Defaults() Config {
	return Config{
		Report: Report{
			DailySchedule:  "0 20 * * *",
			WeeklySchedule: "0 20 * * 0",
		},
		DiscoveryInterval:   30 * time.Minute,
		AnalysisInterval:    10 * time.Minute,
		ExtractParallelism:  8,
		ClassifyParallelism: 4,
		ExtractTimeout:      30 * time.Second,
		ClassifyTimeout:     2 * time.Minute,
		MaxArticlesPerSite:  288,
		Timezone:            "Asia/Ho_Chi_Minh",
		HTTPPort:            8080,
		MetricsPort:         9090,
		HealthPort:          9091,
	}
}

// Load reads the sites file at path (SITES_CONFIG env, default
// config/sites.yaml) and applies environment overrides. A missing or broken
// sites file is an error: without it discovery has nothing to crawl.
func Load(logger *slog.Logger) (*Config, error) {
	path := pkgconfig.LoadEnvString("SITES_CONFIG", "config/sites.yaml")

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("Load: read sites config: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("Load: parse sites config: %w", err)
	}

	cfg := Defaults()
	cfg.Sites = file.Sites
	cfg.Report = mergeReport(cfg.Report, file.Report)

	applyEnv(&cfg, logger)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	return &cfg, nil
}

// mergeReport overlays file values on defaults, keeping default schedules
// when the file leaves them out.
func mergeReport(base, file Report) Report {
	if file.DailySchedule == "" {
		file.DailySchedule = base.DailySchedule
	}
	if file.WeeklySchedule == "" {
		file.WeeklySchedule = base.WeeklySchedule
	}
	return file
}

func applyEnv(cfg *Config, logger *slog.Logger) {
	loadDuration(logger, "DISCOVERY_INTERVAL", &cfg.DiscoveryInterval, func(d time.Duration) error {
		return pkgconfig.ValidateDuration(d, time.Minute, 24*time.Hour)
	})
	loadDuration(logger, "ANALYSIS_INTERVAL", &cfg.AnalysisInterval, func(d time.Duration) error {
		return pkgconfig.ValidateDuration(d, time.Minute, 24*time.Hour)
	})
	loadDuration(logger, "EXTRACT_TIMEOUT", &cfg.ExtractTimeout, pkgconfig.ValidatePositiveDuration)
	loadDuration(logger, "CLASSIFY_TIMEOUT", &cfg.ClassifyTimeout, pkgconfig.ValidatePositiveDuration)

	loadInt(logger, "EXTRACT_PARALLELISM", &cfg.ExtractParallelism, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 50)
	})
	loadInt(logger, "CLASSIFY_PARALLELISM", &cfg.ClassifyParallelism, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 50)
	})
	loadInt(logger, "MAX_ARTICLES_PER_SITE", &cfg.MaxArticlesPerSite, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 5000)
	})
	loadInt(logger, "HTTP_PORT", &cfg.HTTPPort, portValidator)
	loadInt(logger, "METRICS_PORT", &cfg.MetricsPort, portValidator)
	loadInt(logger, "HEALTH_PORT", &cfg.HealthPort, portValidator)

	loadString(logger, "APP_TIMEZONE", &cfg.Timezone, pkgconfig.ValidateTimezone)
	loadString(logger, "REPORT_DAILY_SCHEDULE", &cfg.Report.DailySchedule, pkgconfig.ValidateCronSchedule)
	loadString(logger, "REPORT_WEEKLY_SCHEDULE", &cfg.Report.WeeklySchedule, pkgconfig.ValidateCronSchedule)
}

func portValidator(v int) error {
	return pkgconfig.ValidateIntRange(v, 1024, 65535)
}

func loadString(logger *slog.Logger, key string, dst *string, validator func(string) error) {
	result := pkgconfig.LoadEnvWithFallback(key, *dst, validator)
	*dst = result.Value.(string)
	logFallback(logger, key, result)
}

func loadInt(logger *slog.Logger, key string, dst *int, validator func(int) error) {
	result := pkgconfig.LoadEnvInt(key, *dst, validator)
	*dst = result.Value.(int)
	logFallback(logger, key, result)
}

func loadDuration(logger *slog.Logger, key string, dst *time.Duration, validator func(time.Duration) error) {
	result := pkgconfig.LoadEnvDuration(key, *dst, validator)
	*dst = result.Value.(time.Duration)
	logFallback(logger, key, result)
}

func logFallback(logger *slog.Logger, key string, result pkgconfig.ConfigLoadResult) {
	if !result.FallbackApplied {
		return
	}
	for _, warning := range result.Warnings {
		logger.Warn("configuration fallback applied",
			slog.String("env_key", key),
			slog.String("warning", warning))
	}
}

// Validate checks the assembled configuration. Env values were already
// validated fail-open; this catches bad file values and broken combinations.
func (c *Config) Validate() error {
	var errs []error

	if len(c.ActiveSites()) == 0 {
		errs = append(errs, fmt.Errorf("no active sites configured"))
	}
	for _, site := range c.Sites {
		if site.BaseURL == "" {
			errs = append(errs, fmt.Errorf("site %q: base_url is required", site.Name))
		}
	}
	if err := pkgconfig.ValidateCronSchedule(c.Report.DailySchedule); err != nil {
		errs = append(errs, fmt.Errorf("daily schedule: %w", err))
	}
	if err := pkgconfig.ValidateCronSchedule(c.Report.WeeklySchedule); err != nil {
		errs = append(errs, fmt.Errorf("weekly schedule: %w", err))
	}
	if err := pkgconfig.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// ActiveSites returns the sites discovery should crawl.
func (c *Config) ActiveSites() []Site {
	active := make([]Site, 0, len(c.Sites))
	for _, site := range c.Sites {
		if site.Active {
			active = append(active, site)
		}
	}
	return active
}

// Location resolves the configured timezone. Validate has already checked
// it; should tzdata still fail to resolve, UTC is used.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		slog.Warn("could not load configured timezone, using UTC",
			slog.String("timezone", c.Timezone),
			slog.Any("error", err))
		return time.UTC
	}
	return loc
}
