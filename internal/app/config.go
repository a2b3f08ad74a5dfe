package app

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
// Zero values for Workers and RunTimeout keep the sweep file's values.
type Config struct {
	SweepPath string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	Workers         int
	RunTimeout      time.Duration
}

// NewConfig validates cfg and returns a copy.
func NewConfig(cfg Config) (*Config, error) {
	var errs []error
	if cfg.SweepPath == "" {
		errs = append(errs, errors.New("SweepPath is a required configuration field and cannot be empty"))
	}
	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat))
	}
	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel))
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid healthcheck port %d", cfg.HealthcheckPort))
	}
	if cfg.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", cfg.Workers))
	}
	if cfg.RunTimeout < 0 {
		errs = append(errs, fmt.Errorf("run timeout must not be negative, got %s", cfg.RunTimeout))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &cfg, nil
}
