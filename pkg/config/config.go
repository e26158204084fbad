// Package config loads watcher configuration from defaults, an
// optional YAML file, and environment variables — in that order, later
// sources winning. All stream tuning values are static; nothing is
// negotiated with the event source at runtime.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the umbrella configuration for the watcher and replayer.
type Config struct {
	// BaseURL is the event source root; the stream endpoint is
	// {BaseURL}/events/{sessionID}.
	BaseURL string `yaml:"base_url"`

	// Reconnect backoff: delay = min(base * attempt, cap).
	BackoffBase time.Duration `yaml:"backoff_base"`
	BackoffCap  time.Duration `yaml:"backoff_cap"`

	// Retention bounds for the reconciliation stores.
	TimelineMax int `yaml:"timeline_max"`
	ConsoleMax  int `yaml:"console_max"`
	MessagesMax int `yaml:"messages_max"`

	// Observability.
	LogLevel  string `yaml:"log_level"`
	SentryDSN string `yaml:"sentry_dsn"`
	Env       string `yaml:"env"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		BaseURL:     "http://localhost:8080/api/v1",
		BackoffBase: 3 * time.Second,
		BackoffCap:  15 * time.Second,
		TimelineMax: 1000,
		ConsoleMax:  500,
		MessagesMax: 200,
		LogLevel:    "info",
		Env:         "development",
	}
}

// Load builds the effective configuration. path may be empty (no file);
// a missing file at an explicitly given path is an error.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *Config) {
	if v := os.Getenv("STREAM_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if d, ok := envDuration("STREAM_BACKOFF_BASE"); ok {
		cfg.BackoffBase = d
	}
	if d, ok := envDuration("STREAM_BACKOFF_CAP"); ok {
		cfg.BackoffCap = d
	}
	if n, ok := envInt("TIMELINE_MAX_EVENTS"); ok {
		cfg.TimelineMax = n
	}
	if n, ok := envInt("CONSOLE_MAX_LINES"); ok {
		cfg.ConsoleMax = n
	}
	if n, ok := envInt("MESSAGES_MAX"); ok {
		cfg.MessagesMax = n
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SENTRY_DSN"); v != "" {
		cfg.SentryDSN = v
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}
}

func (c Config) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url must not be empty")
	}
	if c.BackoffBase <= 0 || c.BackoffCap < c.BackoffBase {
		return fmt.Errorf("invalid backoff config: base=%s cap=%s", c.BackoffBase, c.BackoffCap)
	}
	if c.TimelineMax <= 0 || c.ConsoleMax <= 0 || c.MessagesMax <= 0 {
		return fmt.Errorf("retention bounds must be positive")
	}
	return nil
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}
