package api

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

// Config holds backend connection settings.
type Config struct {
	// BaseURL is the root of the learning platform API,
	// e.g. "http://localhost:8000".
	BaseURL string

	// Timeout is the maximum duration for a single request.
	// Requests exceeding it fail with TIMEOUT_ERROR. Default: 15s.
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8000",
		Timeout: 15 * time.Second,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
//
//	TERMTUTOR_API_URL      — backend base URL
//	TERMTUTOR_API_TIMEOUT  — request timeout (Go duration, e.g. "10s")
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if u := os.Getenv("TERMTUTOR_API_URL"); u != "" {
		cfg.BaseURL = u
	}
	if t := os.Getenv("TERMTUTOR_API_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	return cfg
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("API base URL is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid API base URL: %q", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
