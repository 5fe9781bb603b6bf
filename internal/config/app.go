// Package config loads NewsLook's application-wide configuration:
// database path, logging, per-source crawl settings, the shared rate
// limiter, and schedule entries. Layering follows spec §6's precedence
// (defaults < file < environment < flags): LoadAppConfig applies
// defaults, then an optional YAML file, then environment variables;
// cmd/crawler applies flag overrides on top of the returned struct.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceConfig is one source's crawl-time settings, distinct from the
// domain layer's entity.SourceConfig (extractor wiring) — this is the
// operator-facing subset: whether to crawl it at all and its per-source
// concurrency cap.
type SourceConfig struct {
	Enabled     bool `yaml:"enabled"`
	Concurrency int  `yaml:"concurrency"`
}

// ScheduleConfig mirrors scheduler.Entry in a YAML-friendly shape so
// schedule files can be loaded without importing the scheduler package
// here.
type ScheduleConfig struct {
	Name     string `yaml:"name"`
	CronExpr string `yaml:"cron_expr"`
	Source   string `yaml:"source"`
	Enabled  bool   `yaml:"enabled"`
}

// AppConfig is the full layered configuration for cmd/crawler.
type AppConfig struct {
	DatabasePath string `yaml:"database_path"`
	LogDir       string `yaml:"log_dir"`
	LogLevel     string `yaml:"log_level"`

	Sources map[string]SourceConfig `yaml:"sources"`

	GlobalQPS float64  `yaml:"global_qps"`
	UAPool    []string `yaml:"ua_pool"`
	ProxyURL  string   `yaml:"proxy_url"`

	Schedules []ScheduleConfig `yaml:"schedules"`

	RetentionDays int `yaml:"retention_days"`

	HealthPort int `yaml:"health_port"`

	// AllowedOrigins whitelists cross-origin callers of the control API
	// (spec §6). Empty means no cross-origin browser access is granted;
	// same-origin and non-browser clients (curl, the scheduler's own
	// goroutines) are unaffected either way.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DefaultAppConfig returns the configuration NewsLook runs with when no
// file or environment overrides are present.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		DatabasePath:  "data/db/finance_news.db",
		LogDir:        "logs",
		LogLevel:      "info",
		Sources:       map[string]SourceConfig{},
		GlobalQPS:     5.0,
		UAPool:        nil,
		RetentionDays: 0, // 0 means retain indefinitely
		HealthPort:    9091,
	}
}

// LoadAppConfig builds an AppConfig from defaults, then filePath (if
// non-empty and present; a missing file is not an error, matching spec
// §6's "database file... may be absent at startup"), then environment
// variables. Malformed file content fails startup; unknown YAML keys
// are ignored by gopkg.in/yaml.v3's default decode behavior, matching
// spec §6's "unknown keys are ignored with a warning."
func LoadAppConfig(filePath string) (AppConfig, error) {
	cfg := DefaultAppConfig()

	if filePath != "" {
		data, err := os.ReadFile(filePath) // #nosec G304 -- path is an operator-supplied CLI flag, not user input
		if err != nil {
			if !os.IsNotExist(err) {
				return AppConfig{}, fmt.Errorf("read config file %q: %w", filePath, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("parse config file %q: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *AppConfig) {
	cfg.DatabasePath = getEnvOrDefault("NEWSLOOK_DB_PATH", cfg.DatabasePath)
	cfg.LogDir = getEnvOrDefault("NEWSLOOK_LOG_DIR", cfg.LogDir)
	cfg.LogLevel = getEnvOrDefault("NEWSLOOK_LOG_LEVEL", cfg.LogLevel)
	cfg.GlobalQPS = getEnvFloat("NEWSLOOK_GLOBAL_QPS", cfg.GlobalQPS)
	cfg.ProxyURL = getEnvOrDefault("NEWSLOOK_PROXY_URL", cfg.ProxyURL)
	cfg.RetentionDays = getEnvInt("NEWSLOOK_RETENTION_DAYS", cfg.RetentionDays)
	cfg.HealthPort = getEnvInt("NEWSLOOK_HEALTH_PORT", cfg.HealthPort)

	if pool := os.Getenv("NEWSLOOK_UA_POOL"); pool != "" {
		cfg.UAPool = strings.Split(pool, ",")
	}
	if origins := os.Getenv("NEWSLOOK_ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = strings.Split(origins, ",")
	}
}

// Validate checks the loaded configuration for values that would make
// startup unsafe to proceed with.
func (c *AppConfig) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path cannot be empty")
	}
	if c.GlobalQPS <= 0 {
		return fmt.Errorf("global_qps must be positive")
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("retention_days must be >= 0")
	}
	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("health_port must be between 1 and 65535")
	}
	for name, sc := range c.Sources {
		if sc.Enabled && sc.Concurrency < 0 {
			return fmt.Errorf("source %q: concurrency must be >= 0", name)
		}
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
