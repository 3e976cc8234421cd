// Package main provides the entrypoint for the species dashboard API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/speciesdash/speciesdash/internal/api"
	"github.com/speciesdash/speciesdash/internal/api/middleware"
	"github.com/speciesdash/speciesdash/internal/config"
	"github.com/speciesdash/speciesdash/internal/provider/resilience"
	"github.com/speciesdash/speciesdash/internal/species"
	"github.com/speciesdash/speciesdash/internal/species/gbif"
	"github.com/speciesdash/speciesdash/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "speciesdash-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	log = log.Level(cfg.LogLevel())

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting species dashboard API")

	// Initialize OpenTelemetry
	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Telemetry.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.Telemetry.Enabled {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	upstreamMetrics, err := telemetry.NewUpstreamMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize upstream metrics")
		os.Exit(1)
	}

	// One breaker per GBIF host, all reporting to the status registry
	registry := resilience.NewRegistry()
	newUpstreamClient := func(name string) *resilience.Client {
		return resilience.NewClient(resilience.ClientConfig{
			Name:    name,
			Timeout: cfg.GBIF.Timeout,
			Breaker: &resilience.BreakerConfig{
				Name:         name,
				MinRequests:  cfg.GBIF.BreakerMinRequests,
				FailureRatio: cfg.GBIF.BreakerFailureRatio,
				OpenTimeout:  cfg.GBIF.BreakerOpenTimeout,
				MaxRequests:  cfg.GBIF.BreakerHalfOpenRequests,
				OnStateChange: func(name string, from, to gobreaker.State) {
					log.Warn().
						Str("upstream", name).
						Str("from", from.String()).
						Str("to", to.String()).
						Msg("circuit breaker state changed")
				},
			},
			Registry: registry,
		})
	}

	gbifClient := gbif.NewClient(gbif.ClientConfig{
		APIBaseURL:  cfg.GBIF.APIBaseURL,
		MapBaseURL:  cfg.GBIF.MapBaseURL,
		TileBaseURL: cfg.GBIF.TileBaseURL,
		UserAgent:   cfg.GBIF.UserAgent,
		APIClient:   newUpstreamClient(gbif.UpstreamAPI),
		MapClient:   newUpstreamClient(gbif.UpstreamMaps),
		TileClient:  newUpstreamClient(gbif.UpstreamTiles),
		Metrics:     upstreamMetrics,
		Logger:      log,
	})

	density := cfg.Species.DensityOptions()
	speciesService := species.NewService(species.ServiceConfig{
		Provider:      gbifClient,
		Logger:        log,
		Country:       cfg.Species.DefaultCountry,
		PopularKeys:   cfg.Species.PopularKeys,
		Density:       &density,
		BaseTileStyle: cfg.Species.BaseTileStyle,
	})
	log.Info().
		Str("provider", gbifClient.Name()).
		Str("country", speciesService.DefaultCountry()).
		Int("popular_species", len(cfg.Species.PopularKeys)).
		Msg("species service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:           Version,
		BuildTime:         BuildTime,
		Logger:            log,
		Metrics:           metrics,
		SpeciesService:    speciesService,
		Registry:          registry,
		AllowedOrigins:    cfg.CORS.AllowedOrigins,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		RequireTLS:        cfg.Server.RequireTLS,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
