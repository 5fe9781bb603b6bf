package worker

import (
	"fmt"
	"log/slog"
	"time"

	"newslook/internal/pkg/config"
)

// ManagerConfig holds the concurrency and failure-handling parameters
// the Manager applies uniformly to every per-source Worker. Schedule
// entries (cron expressions, enabled flags) belong to the Scheduler, not
// here — a Worker only knows how to run one cycle when told to.
//
// Configuration sources:
//   - Environment variables (loaded via LoadConfigFromEnv)
//   - Default values (provided by DefaultConfig)
type ManagerConfig struct {
	// MaxConcurrentFetches bounds the number of article fetches one
	// Worker runs at once.
	// Default: 5
	MaxConcurrentFetches int

	// MaxConsecutiveFailures is the number of consecutive hard fetch
	// failures that transitions a Worker to the error state.
	// Default: 10
	MaxConsecutiveFailures int

	// CooldownBase is the starting duration of the exponential cooldown
	// a Worker waits after tripping MaxConsecutiveFailures, doubling on
	// each subsequent trip up to CooldownMax.
	// Default: 30s
	CooldownBase time.Duration

	// CooldownMax caps the exponential cooldown.
	// Default: 30m
	CooldownMax time.Duration

	// StopGracePeriod bounds how long a Worker is given to honor a stop
	// request before the Manager considers it detached.
	// Default: 30s
	StopGracePeriod time.Duration

	// HealthPort is the port number for the health check HTTP server.
	// Range: 1024-65535 (avoid privileged ports)
	// Default: 9091
	HealthPort int
}

// DefaultConfig returns a ManagerConfig with the defaults spec §4.6
// names: 5 concurrent fetches per Worker, an error state after 10
// consecutive failures, and a 30s health port.
func DefaultConfig() ManagerConfig {
	return ManagerConfig{
		MaxConcurrentFetches:   5,
		MaxConsecutiveFailures: 10,
		CooldownBase:           30 * time.Second,
		CooldownMax:            30 * time.Minute,
		StopGracePeriod:        30 * time.Second,
		HealthPort:             9091,
	}
}

// Validate checks that every field is within its documented range,
// aggregating every violation into one error.
func (c *ManagerConfig) Validate() error {
	var errs []error

	if err := config.ValidateIntRange(c.MaxConcurrentFetches, 1, 50); err != nil {
		errs = append(errs, fmt.Errorf("max concurrent fetches: %w", err))
	}
	if err := config.ValidateIntRange(c.MaxConsecutiveFailures, 1, 1000); err != nil {
		errs = append(errs, fmt.Errorf("max consecutive failures: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.CooldownBase); err != nil {
		errs = append(errs, fmt.Errorf("cooldown base: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.CooldownMax); err != nil {
		errs = append(errs, fmt.Errorf("cooldown max: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.StopGracePeriod); err != nil {
		errs = append(errs, fmt.Errorf("stop grace period: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv loads ManagerConfig from environment variables,
// falling back to defaults and logging a warning for any value that
// fails validation. It never returns an error: an unparseable or
// out-of-range env var degrades to the default rather than blocking
// startup.
//
// Environment variables:
//   - CRAWLER_MAX_CONCURRENT_FETCHES: integer 1-50 (default 5)
//   - CRAWLER_MAX_CONSECUTIVE_FAILURES: integer 1-1000 (default 10)
//   - CRAWLER_COOLDOWN_BASE: duration string, e.g. "30s" (default 30s)
//   - CRAWLER_COOLDOWN_MAX: duration string, e.g. "30m" (default 30m)
//   - CRAWLER_STOP_GRACE_PERIOD: duration string (default 30s)
//   - CRAWLER_HEALTH_PORT: integer 1024-65535 (default 9091)
func LoadConfigFromEnv(logger *slog.Logger, metrics *ManagerMetrics) *ManagerConfig {
	cfg := DefaultConfig()
	fallbackApplied := false

	apply := func(field string, result config.ConfigLoadResult) {
		if !result.FallbackApplied {
			return
		}
		fallbackApplied = true
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field, "default")
		for _, warning := range result.Warnings {
			logger.Warn("configuration fallback applied", slog.String("field", field), slog.String("warning", warning))
		}
	}

	result := config.LoadEnvInt("CRAWLER_MAX_CONCURRENT_FETCHES", cfg.MaxConcurrentFetches, func(v int) error {
		return config.ValidateIntRange(v, 1, 50)
	})
	cfg.MaxConcurrentFetches = result.Value.(int)
	apply("max_concurrent_fetches", result)

	result = config.LoadEnvInt("CRAWLER_MAX_CONSECUTIVE_FAILURES", cfg.MaxConsecutiveFailures, func(v int) error {
		return config.ValidateIntRange(v, 1, 1000)
	})
	cfg.MaxConsecutiveFailures = result.Value.(int)
	apply("max_consecutive_failures", result)

	result = config.LoadEnvDuration("CRAWLER_COOLDOWN_BASE", cfg.CooldownBase, config.ValidatePositiveDuration)
	cfg.CooldownBase = result.Value.(time.Duration)
	apply("cooldown_base", result)

	result = config.LoadEnvDuration("CRAWLER_COOLDOWN_MAX", cfg.CooldownMax, config.ValidatePositiveDuration)
	cfg.CooldownMax = result.Value.(time.Duration)
	apply("cooldown_max", result)

	result = config.LoadEnvDuration("CRAWLER_STOP_GRACE_PERIOD", cfg.StopGracePeriod, config.ValidatePositiveDuration)
	cfg.StopGracePeriod = result.Value.(time.Duration)
	apply("stop_grace_period", result)

	result = config.LoadEnvInt("CRAWLER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = result.Value.(int)
	apply("health_port", result)

	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg
}
