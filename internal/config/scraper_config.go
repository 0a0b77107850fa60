package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type ScraperConfig struct {
	// MinRunInterval is the minimum elapsed time between completed runs
	// of the same source, and between batch runs.
	MinRunInterval time.Duration `mapstructure:"min_run_interval"`

	// PageDelay is the politeness pause between successive page requests
	// within one source's crawl.
	PageDelay time.Duration `mapstructure:"page_delay"`

	MaxRequestsPerSecond float32 `mapstructure:"max_requests_per_second"`

	// CronSpec triggers the full batch; the default fires at the top of
	// every hour.
	CronSpec   string `mapstructure:"cron_spec"`
	RunOnStart bool   `mapstructure:"run_on_start"`

	RunRetentionInDays int `mapstructure:"run_retention_days"`
}

func (config ScraperConfig) validate() error {
	var errs []error

	if config.MinRunInterval <= 0 {
		errs = append(errs, fmt.Errorf("min_run_interval must be greater than zero"))
	}
	if config.PageDelay < 0 {
		errs = append(errs, fmt.Errorf("page_delay must be non-negative"))
	}
	if config.MaxRequestsPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("max_requests_per_second must be greater than zero"))
	}
	if config.CronSpec == "" {
		errs = append(errs, fmt.Errorf("missing variable: cron_spec"))
	}
	if config.RunRetentionInDays <= 0 {
		errs = append(errs, fmt.Errorf("run_retention_days must be greater than zero"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func (config ScraperConfig) bindEnvironmentVariables() error {

	err := viper.BindEnv("scraper.min_run_interval", "MIN_RUN_INTERVAL")
	if err != nil {
		return err
	}

	err = viper.BindEnv("scraper.page_delay", "PAGE_DELAY")
	if err != nil {
		return err
	}

	err = viper.BindEnv("scraper.max_requests_per_second", "MAX_REQUESTS_PER_SECOND")
	if err != nil {
		return err
	}

	err = viper.BindEnv("scraper.run_on_start", "RUN_ON_START")
	if err != nil {
		return err
	}

	return viper.BindEnv("scraper.run_retention_days", "RUN_RETENTION_DAYS")
}
