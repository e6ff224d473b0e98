// Package config loads seotrack configuration from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// API server
	ListenAddr     string `envconfig:"LISTEN_ADDR" default:":8080"`
	APIKey         string `envconfig:"API_KEY"`
	AuthMode       string `envconfig:"AUTH_MODE" default:"api-key"` // "api-key" or "none"
	RateLimitRPS   int    `envconfig:"RATE_LIMIT_RPS" default:"100"`
	RateLimitBurst int    `envconfig:"RATE_LIMIT_BURST" default:"200"`
	CORSOrigins    string `envconfig:"CORS_ORIGINS"`

	// Storage
	DBPath string `envconfig:"DB_PATH" default:"seotrack.db"`

	// Search metrics provider. Optional: without one the refresh endpoint
	// is disabled and measurements arrive only through the API.
	ProviderURL       string        `envconfig:"PROVIDER_URL"`
	ProviderAPIKey    string        `envconfig:"PROVIDER_API_KEY"`
	ProviderTimeout   time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"15s"`
	ProviderCacheTTL  time.Duration `envconfig:"PROVIDER_CACHE_TTL" default:"15m"`
	ProviderCacheSize int           `envconfig:"PROVIDER_CACHE_SIZE" default:"512"`
}

// ProviderEnabled returns true if a search metrics provider is configured.
func (c *Config) ProviderEnabled() bool {
	return c.ProviderURL != ""
}

// Validate checks config consistency beyond what envconfig enforces.
func (c *Config) Validate() error {
	switch strings.ToLower(c.AuthMode) {
	case "api-key":
		if c.APIKey == "" {
			return fmt.Errorf("AUTH_MODE=api-key requires API_KEY")
		}
	case "none":
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit values must be positive")
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}
