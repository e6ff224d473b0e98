package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rankwise/seotrack/internal/api"
	"github.com/rankwise/seotrack/internal/config"
	"github.com/rankwise/seotrack/internal/dashboard"
	"github.com/rankwise/seotrack/internal/health"
	"github.com/rankwise/seotrack/internal/metrics"
	"github.com/rankwise/seotrack/internal/searchmetrics"
	"github.com/rankwise/seotrack/internal/store"
	"github.com/rankwise/seotrack/internal/tracker"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("listen_addr", cfg.ListenAddr).
		Str("db_path", cfg.DBPath).
		Bool("provider_enabled", cfg.ProviderEnabled()).
		Msg("starting seotrack")

	// Durable store
	db, err := store.New(cfg.DBPath, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer db.Close()

	// Health checker
	checker := health.NewChecker(logger)
	checker.Register("store", func(ctx context.Context) health.Status {
		if err := db.Ping(); err != nil {
			return health.StatusDown
		}
		return health.StatusOK
	})

	// Metrics
	m := metrics.New()

	// Domain components
	recorder := tracker.NewRecorder(db, logger)
	lifecycle := tracker.NewLifecycle(db, logger)
	dash := dashboard.New(db, logger)

	// Search metrics provider (optional)
	var provider searchmetrics.Provider
	if cfg.ProviderEnabled() {
		httpProvider := searchmetrics.NewHTTPProvider(cfg.ProviderURL, cfg.ProviderAPIKey, cfg.ProviderTimeout)
		provider = searchmetrics.NewCached(httpProvider, cfg.ProviderCacheSize, cfg.ProviderCacheTTL, logger)
		logger.Info().Str("provider_url", cfg.ProviderURL).Msg("search metrics provider initialized")
	} else {
		logger.Info().Msg("no search metrics provider configured, refresh endpoint disabled")
	}

	handlers := api.NewHandlers(db, recorder, lifecycle, dash, provider, checker, m, logger)

	server := api.NewServer(api.ServerConfig{
		ListenAddr: cfg.ListenAddr,
		AuthConfig: api.AuthConfig{
			Mode:   cfg.AuthMode,
			APIKey: cfg.APIKey,
		},
		RateLimit: api.RateLimitConfig{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		},
		CORSOrigins: cfg.CORSOrigins,
	}, handlers, m, logger)

	// Graceful shutdown on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("API server error")
		}
	}

	shutdownDone := make(chan struct{})
	go func() {
		if err := server.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("API server shutdown error")
		}
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
	case <-time.After(10 * time.Second):
		logger.Warn().Msg("forced shutdown after timeout")
	}

	logger.Info().Msg("seotrack stopped")
}
