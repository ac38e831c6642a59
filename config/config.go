// Package config loads process configuration from the environment. The
// cookie encryption key may be supplied inline or through a *_FILE
// indirection so it can come from a secrets mount.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	envAPIURL      = "RISKPAD_API_URL"
	envCookieKey   = "RISKPAD_COOKIE_KEY"
	envCookieDB    = "RISKPAD_COOKIE_DB"
	envHTTPTimeout = "RISKPAD_HTTP_TIMEOUT"

	defaultAPIURL      = "http://localhost:8080"
	defaultCookieDB    = "./data/cookies.db"
	defaultHTTPTimeout = 30 * time.Second
)

// ErrMissingCookieKey means neither RISKPAD_COOKIE_KEY nor
// RISKPAD_COOKIE_KEY_FILE was set. The process must not start without it.
var ErrMissingCookieKey = errors.New("config: cookie encryption key not set")

// Config is the process configuration.
type Config struct {
	// APIURL is the base URL of the auth API.
	APIURL string
	// CookieKey is the base64-encoded 256-bit payload encryption key.
	CookieKey string
	// CookieDB is the path of the persistent cookie jar database.
	CookieDB string
	// HTTPTimeout bounds each API request.
	HTTPTimeout time.Duration
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		APIURL:      envOr(envAPIURL, defaultAPIURL),
		CookieDB:    envOr(envCookieDB, defaultCookieDB),
		HTTPTimeout: defaultHTTPTimeout,
	}

	key, err := secretFromEnv(envCookieKey)
	if err != nil {
		return nil, err
	}
	cfg.CookieKey = key

	if raw := os.Getenv(envHTTPTimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", envHTTPTimeout, err)
		}
		cfg.HTTPTimeout = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the required fields.
func (c *Config) Validate() error {
	if c.CookieKey == "" {
		return ErrMissingCookieKey
	}
	if c.APIURL == "" {
		return errors.New("config: API URL is empty")
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("config: HTTP timeout must be positive")
	}
	return nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// secretFromEnv reads NAME, or the contents of the file named by
// NAME_FILE. The inline variable wins when both are set.
func secretFromEnv(name string) (string, error) {
	if v := os.Getenv(name); v != "" {
		return v, nil
	}
	path := os.Getenv(name + "_FILE")
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("config: reading %s_FILE: %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}
