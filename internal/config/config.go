// Package config loads and validates docnav configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	ferrors "github.com/KRR-Oxford/docnav/internal/foundation/errors"
)

// Config represents the application configuration.
type Config struct {
	Site         SiteConfig         `yaml:"site"`
	Docs         DocsConfig         `yaml:"docs"`
	Verification VerificationConfig `yaml:"verification"`
	Serve        ServeConfig        `yaml:"serve"`
	Storage      StorageConfig      `yaml:"storage"`
}

// SiteConfig describes the rendered site.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
	Output      string `yaml:"output"`
}

// DocsConfig locates the navigation file and the documentation pages.
type DocsConfig struct {
	Dir     string     `yaml:"dir"`
	NavFile string     `yaml:"nav_file"`
	Git     *GitConfig `yaml:"git,omitempty"`
}

// GitConfig configures an optional remote docs source.
type GitConfig struct {
	URL    string `yaml:"url"`
	Branch string `yaml:"branch,omitempty"`
	Token  string `yaml:"token,omitempty"`
}

// VerificationConfig controls external target verification.
type VerificationConfig struct {
	Enabled         bool   `yaml:"enabled"`
	NATSURL         string `yaml:"nats_url,omitempty"`
	Subject         string `yaml:"subject,omitempty"`
	KVBucket        string `yaml:"kv_bucket,omitempty"`
	RequestTimeout  string `yaml:"request_timeout,omitempty"`
	RateLimitDelay  string `yaml:"rate_limit_delay,omitempty"`
	MaxConcurrent   int    `yaml:"max_concurrent,omitempty"`
	FollowRedirects bool   `yaml:"follow_redirects,omitempty"`
	MaxRedirects    int    `yaml:"max_redirects,omitempty"`
	CacheTTL        string `yaml:"cache_ttl,omitempty"`
	Retries         int    `yaml:"retries,omitempty"`
	RetryBackoff    string `yaml:"retry_backoff,omitempty"`
}

// ServeConfig controls the preview daemon.
type ServeConfig struct {
	Listen           string `yaml:"listen,omitempty"`
	Debounce         string `yaml:"debounce,omitempty"`
	ScheduleInterval string `yaml:"schedule_interval,omitempty"`
	Metrics          bool   `yaml:"metrics,omitempty"`
}

// StorageConfig controls run history persistence.
type StorageConfig struct {
	EventDB string `yaml:"event_db,omitempty"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env if present; the process environment always wins.
	if err := godotenv.Load(); err == nil {
		fmt.Fprintln(os.Stderr, "Loaded environment variables from .env")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, ferrors.ConfigError("configuration file not found").
			WithContext("path", configPath).Build()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).Build()
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to unmarshal config").
			WithContext("path", configPath).Build()
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Site.Title == "" {
		c.Site.Title = "Documentation Site"
	}
	if c.Site.Output == "" {
		c.Site.Output = "./site"
	}
	if c.Docs.Dir == "" {
		c.Docs.Dir = "docs"
	}
	if c.Docs.NavFile == "" {
		c.Docs.NavFile = "docs/nav.md"
	}
	if c.Docs.Git != nil && c.Docs.Git.Branch == "" {
		c.Docs.Git.Branch = "main"
	}

	if c.Verification.Subject == "" {
		c.Verification.Subject = "docnav.links.broken"
	}
	if c.Verification.KVBucket == "" {
		c.Verification.KVBucket = "docnav-link-cache"
	}
	if c.Verification.RequestTimeout == "" {
		c.Verification.RequestTimeout = "10s"
	}
	if c.Verification.RateLimitDelay == "" {
		c.Verification.RateLimitDelay = "100ms"
	}
	if c.Verification.MaxConcurrent <= 0 {
		c.Verification.MaxConcurrent = 10
	}
	if c.Verification.MaxRedirects <= 0 {
		c.Verification.MaxRedirects = 5
	}
	if c.Verification.CacheTTL == "" {
		c.Verification.CacheTTL = "1h"
	}
	if c.Verification.Retries <= 0 {
		c.Verification.Retries = 2
	}
	if c.Verification.RetryBackoff == "" {
		c.Verification.RetryBackoff = "linear"
	}

	if c.Serve.Listen == "" {
		c.Serve.Listen = ":8080"
	}
	if c.Serve.Debounce == "" {
		c.Serve.Debounce = "500ms"
	}
	if c.Serve.ScheduleInterval == "" {
		c.Serve.ScheduleInterval = "1h"
	}

	if c.Storage.EventDB == "" {
		c.Storage.EventDB = ".docnav/events.db"
	}
}

// Validate checks cross-field constraints after defaulting.
func (c *Config) Validate() error {
	if c.Verification.Enabled && c.Verification.NATSURL == "" {
		return ferrors.ConfigError("verification.nats_url is required when verification is enabled").Build()
	}
	for name, value := range map[string]string{
		"verification.request_timeout":  c.Verification.RequestTimeout,
		"verification.rate_limit_delay": c.Verification.RateLimitDelay,
		"verification.cache_ttl":        c.Verification.CacheTTL,
		"serve.debounce":                c.Serve.Debounce,
		"serve.schedule_interval":       c.Serve.ScheduleInterval,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return ferrors.ConfigError("invalid duration").
				WithContext("field", name).
				WithContext("value", value).Build()
		}
	}
	return nil
}

// Duration parses a duration field that Validate has already vetted.
func Duration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
