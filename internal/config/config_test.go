package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_MODE", "none")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "seotrack.db", cfg.DBPath)
	assert.Equal(t, 100, cfg.RateLimitRPS)
	assert.Equal(t, 200, cfg.RateLimitBurst)
	assert.Equal(t, 15*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 15*time.Minute, cfg.ProviderCacheTTL)
	assert.Equal(t, 512, cfg.ProviderCacheSize)
	assert.False(t, cfg.ProviderEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AUTH_MODE", "api-key")
	t.Setenv("API_KEY", "secret")
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("PROVIDER_URL", "https://metrics.example.com")
	t.Setenv("PROVIDER_CACHE_TTL", "5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.True(t, cfg.ProviderEnabled())
	assert.Equal(t, 5*time.Minute, cfg.ProviderCacheTTL)
}

func TestValidate_APIKeyRequired(t *testing.T) {
	t.Setenv("AUTH_MODE", "api-key")
	t.Setenv("API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_KEY")
}

func TestValidate_UnknownAuthMode(t *testing.T) {
	t.Setenv("AUTH_MODE", "mtls")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_MODE")
}

func TestValidate_RateLimits(t *testing.T) {
	t.Setenv("AUTH_MODE", "none")
	t.Setenv("RATE_LIMIT_RPS", "0")

	_, err := Load()
	require.Error(t, err)
}
