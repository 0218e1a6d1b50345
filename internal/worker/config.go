// Package worker provides background snapshot refresh processing for AirLens.
package worker

import (
	"os"
	"strconv"
	"time"
)

// RefreshConfig holds configuration for the snapshot refresh job.
type RefreshConfig struct {
	// Concurrency is the number of cities refreshed in parallel.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for refreshing a single city.
	// Default: 30 seconds
	Timeout time.Duration

	// Interval is how often the ticker-driven refresh runs.
	// Default: 15 minutes
	Interval time.Duration

	// ForceAll refreshes every tracked city regardless of staleness.
	// Default: false, only stale snapshots are refreshed.
	ForceAll bool
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Concurrency: 3,
		Timeout:     30 * time.Second,
		Interval:    15 * time.Minute,
	}
}

// RefreshConfigFromEnv builds a refresh configuration from environment
// variables, falling back to defaults for anything unset or unparseable.
func RefreshConfigFromEnv() RefreshConfig {
	cfg := DefaultRefreshConfig()

	if v := os.Getenv("WORKER_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Concurrency = n
		}
	}
	if v := os.Getenv("WORKER_REFRESH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if v := os.Getenv("WORKER_REFRESH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Interval = d
		}
	}
	if os.Getenv("WORKER_FORCE_ALL") == "true" {
		cfg.ForceAll = true
	}

	return cfg
}

func (c RefreshConfig) withDefaults() RefreshConfig {
	def := DefaultRefreshConfig()
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.Interval <= 0 {
		c.Interval = def.Interval
	}
	return c
}
