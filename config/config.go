// Package config manages application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ytscript/retry"
)

// Config holds all application configuration for transcript fetching.
type Config struct {
	// Timeout is the maximum time for one fetch operation, including the
	// language fallback attempt.
	Timeout time.Duration `json:"timeout"`
	// Languages is the default language preference order.
	Languages []string `json:"languages"`
	// UserAgent is the user agent for YouTube requests ("" = built-in default).
	UserAgent string `json:"user_agent"`

	// MaxRetries is the maximum number of retries for transient HTTP failures.
	MaxRetries int `json:"max_retries"`
	// InitialBackoff is the initial backoff duration for retries.
	InitialBackoff time.Duration `json:"initial_backoff"`
	// MaxBackoff is the maximum backoff duration for retries.
	MaxBackoff time.Duration `json:"max_backoff"`
	// BackoffMultiplier is the multiplier for exponential backoff (must be > 1).
	BackoffMultiplier float64 `json:"backoff_multiplier"`

	// CachePath is the transcript cache file used with `fetch -cache`.
	CachePath string `json:"cache_path"`
	// APIKey is a YouTube Data API key, used only by `list -api`.
	APIKey string `json:"api_key"`
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	return &Config{
		Timeout:           2 * time.Minute,
		Languages:         []string{"en"},
		MaxRetries:        3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		CachePath:         filepath.Join(os.Getenv("HOME"), ".cache", "ytscript", "transcripts.json"),
	}
}

// Load loads configuration from environment variables, config file, and applies defaults.
// Priority: env vars > config file > defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// Config file is optional.
	if err := cfg.loadFromFile(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile attempts to load config from ytscript.json in the current
// directory or the user config directory.
func (c *Config) loadFromFile() error {
	paths := []string{
		"ytscript.json",
		filepath.Join(os.Getenv("HOME"), ".config", "ytscript", "ytscript.json"),
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}

	return os.ErrNotExist
}

// loadFromEnv overrides config with environment variables.
func (c *Config) loadFromEnv() {
	if v := os.Getenv("YTSCRIPT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = d
		}
	}
	if v := os.Getenv("YTSCRIPT_LANGUAGES"); v != "" {
		c.Languages = splitLanguages(v)
	}
	if v := os.Getenv("YTSCRIPT_USER_AGENT"); v != "" {
		c.UserAgent = v
	}
	if v := os.Getenv("YTSCRIPT_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}
	if v := os.Getenv("YTSCRIPT_INITIAL_BACKOFF"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.InitialBackoff = d
		}
	}
	if v := os.Getenv("YTSCRIPT_MAX_BACKOFF"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.MaxBackoff = d
		}
	}
	if v := os.Getenv("YTSCRIPT_CACHE_PATH"); v != "" {
		c.CachePath = v
	}
	if v := os.Getenv("YTSCRIPT_API_KEY"); v != "" {
		c.APIKey = v
	}
}

// RetryConfig converts the retry-related settings into a retry.Config.
func (c *Config) RetryConfig() retry.Config {
	rc := retry.DefaultConfig()
	rc.MaxRetries = c.MaxRetries
	rc.InitialBackoff = c.InitialBackoff
	rc.MaxBackoff = c.MaxBackoff
	rc.Multiplier = c.BackoffMultiplier
	return rc
}

// Validate checks that configuration values are valid and consistent.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if len(c.Languages) == 0 {
		return fmt.Errorf("languages must not be empty")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.InitialBackoff <= 0 {
		return fmt.Errorf("initial_backoff must be positive")
	}
	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("max_backoff must be >= initial_backoff")
	}
	if c.BackoffMultiplier <= 1 {
		return fmt.Errorf("backoff_multiplier must be > 1")
	}
	return nil
}

// splitLanguages parses a comma-separated language list, trimming whitespace
// and dropping empty items.
func splitLanguages(s string) []string {
	var langs []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			langs = append(langs, part)
		}
	}
	return langs
}
