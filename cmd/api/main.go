// Package main provides the entrypoint for the AirLens API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/airlens/airlens/internal/aggregate"
	airqualityom "github.com/airlens/airlens/internal/airquality/openmeteo"
	"github.com/airlens/airlens/internal/airquality/waqi"
	"github.com/airlens/airlens/internal/api"
	"github.com/airlens/airlens/internal/api/middleware"
	"github.com/airlens/airlens/internal/auth"
	"github.com/airlens/airlens/internal/cache"
	"github.com/airlens/airlens/internal/database"
	geocodingom "github.com/airlens/airlens/internal/geocoding/openmeteo"
	"github.com/airlens/airlens/internal/provider/resilience"
	"github.com/airlens/airlens/internal/snapshot"
	"github.com/airlens/airlens/internal/telemetry"
	"github.com/airlens/airlens/internal/weather/metno"
	weatherom "github.com/airlens/airlens/internal/weather/openmeteo"
	"github.com/airlens/airlens/internal/weather/openweathermap"
	"github.com/airlens/airlens/internal/weather/visualcrossing"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "airlens-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting AirLens API")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryCfg := telemetry.ConfigFromEnv(serviceName, Version)

	tp, err := telemetry.Init(ctx, telemetryCfg)
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

	if telemetryCfg.Enabled {
		log.Info().
			Str("otlp_endpoint", telemetryCfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Provider clients share one registry so ops endpoints can report
	// per-source circuit health.
	registry := resilience.NewRegistry()

	forecastClient := weatherom.NewClient(weatherom.ClientConfig{
		HTTPClient: registry.Client(weatherom.ProviderName),
	})

	owmClient := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     os.Getenv("OPENWEATHER_API_KEY"),
		HTTPClient: registry.Client("openweathermap"),
	})
	if os.Getenv("OPENWEATHER_API_KEY") == "" {
		log.Warn().Msg("OPENWEATHER_API_KEY not set - snapshot weather refreshes will fail")
	}

	metnoClient := metno.NewClient(metno.ClientConfig{
		HTTPClient: registry.Client(metno.ProviderName),
	})

	vcClient := visualcrossing.NewClient(visualcrossing.ClientConfig{
		APIKey:     os.Getenv("VISUAL_CROSSING_API_KEY"),
		HTTPClient: registry.Client(visualcrossing.ProviderName),
	})
	if os.Getenv("VISUAL_CROSSING_API_KEY") == "" {
		log.Warn().Msg("VISUAL_CROSSING_API_KEY not set - historical comparison data will be partial")
	}

	aqClient := airqualityom.NewClient(airqualityom.ClientConfig{
		HTTPClient: registry.Client("open-meteo-aq"),
	})

	waqiClient := waqi.NewClient(waqi.ClientConfig{
		Token:      os.Getenv("WAQI_API_TOKEN"),
		HTTPClient: registry.Client("waqi"),
	})
	if os.Getenv("WAQI_API_TOKEN") == "" {
		log.Warn().Msg("WAQI_API_TOKEN not set - station feed requests will fail")
	}

	geocoder := geocodingom.NewClient(geocodingom.ClientConfig{
		CountryCode:     os.Getenv("GEOCODING_COUNTRY"),
		NoCountryFilter: os.Getenv("GEOCODING_NO_COUNTRY_FILTER") == "true",
		HTTPClient:      registry.Client(geocodingom.ProviderName),
	})

	// Shared TTL cache across all aggregated reads
	ttlCache := cache.New(cache.DefaultTTL)

	aggregateService := aggregate.NewService(aggregate.ServiceConfig{
		Forecast:   forecastClient,
		Archive:    forecastClient,
		Timeline:   vcClient,
		AirQuality: aqClient,
		Spot:       metnoClient,
		Feed:       waqiClient,
		Geocoder:   geocoder,
		Cache:      ttlCache,
		Logger:     log,
	})
	log.Info().Msg("aggregation service initialized")

	// Snapshot persistence: Postgres when configured, in-memory otherwise
	routerCfg := api.RouterConfig{
		Version:          Version,
		Logger:           log,
		Metrics:          metrics,
		AggregateService: aggregateService,
		Registry:         registry,
	}

	var snapshotRepo snapshot.Repository
	if os.Getenv("DB_ENABLED") == "true" {
		dbConfig := database.ConfigFromEnv()
		pool, connErr := database.Connect(ctx, dbConfig)
		if connErr != nil {
			log.Fatal().Err(connErr).Msg("failed to connect to database")
		}
		defer pool.Close()
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")

		snapshotRepo = snapshot.NewPostgresRepository(pool)
		routerCfg.DB = pool
	} else {
		log.Warn().Msg("DB_ENABLED not set - tracked cities will not survive restarts")
		snapshotRepo = snapshot.NewMemoryRepository()
	}

	snapshotService := snapshot.NewService(snapshot.ServiceConfig{
		Repo:       snapshotRepo,
		Weather:    owmClient,
		AirQuality: aqClient,
		Logger:     log,
	})
	log.Info().Msg("snapshot service initialized")
	routerCfg.SnapshotService = snapshotService

	// JWT verifier for admin endpoints
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "airlens"
	}
	jwtAudience := os.Getenv("JWT_AUDIENCE")
	if jwtAudience == "" {
		jwtAudience = serviceName
	}

	routerCfg.Verifier = auth.NewVerifier(auth.VerifierConfig{
		SigningKey: jwtSigningKey,
		Issuer:     jwtIssuer,
		Audience:   jwtAudience,
	})

	router := api.NewRouter(routerCfg)

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
