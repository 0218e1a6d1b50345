// Package main provides the entrypoint for the AirLens snapshot refresh worker.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	airqualityom "github.com/airlens/airlens/internal/airquality/openmeteo"
	"github.com/airlens/airlens/internal/database"
	"github.com/airlens/airlens/internal/provider/resilience"
	"github.com/airlens/airlens/internal/snapshot"
	"github.com/airlens/airlens/internal/weather/openweathermap"
	"github.com/airlens/airlens/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "airlens-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting AirLens worker")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Snapshot persistence: the worker is pointless without it, but an
	// in-memory repository still lets it run locally.
	var snapshotRepo snapshot.Repository
	if os.Getenv("DB_ENABLED") == "true" {
		dbConfig := database.ConfigFromEnv()
		pool, err := database.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		log.Info().
			Str("host", dbConfig.Host).
			Str("database", dbConfig.Database).
			Msg("database connected")
		snapshotRepo = snapshot.NewPostgresRepository(pool)
	} else {
		log.Warn().Msg("DB_ENABLED not set - refreshing in-memory snapshots only")
		snapshotRepo = snapshot.NewMemoryRepository()
	}

	// Same providers the API refreshes snapshots from, so windows stay
	// source-consistent no matter which process refreshed last.
	registry := resilience.NewRegistry()
	owmClient := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     os.Getenv("OPENWEATHER_API_KEY"),
		HTTPClient: registry.Client("openweathermap"),
	})
	if os.Getenv("OPENWEATHER_API_KEY") == "" {
		log.Warn().Msg("OPENWEATHER_API_KEY not set - snapshot weather refreshes will fail")
	}
	aqClient := airqualityom.NewClient(airqualityom.ClientConfig{
		HTTPClient: registry.Client("open-meteo-aq"),
	})

	snapshotService := snapshot.NewService(snapshot.ServiceConfig{
		Repo:       snapshotRepo,
		Weather:    owmClient,
		AirQuality: aqClient,
		Logger:     log,
	})

	refreshJob := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:    worker.RefreshConfigFromEnv(),
		Snapshots: snapshotService,
		Logger:    log,
	})

	// HTTP server for Cloud Run health checks and refresh metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"version": Version,
		})
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(refreshJob.MetricsSnapshot())
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("health server error")
		}
	}()

	// Ticker-driven refresh runs regardless; Pub/Sub triggers are optional
	// and layered on top for on-demand refreshes.
	go refreshJob.RunPeriodic(ctx)

	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")
	var pubsubHandler *worker.PubSubHandler
	if projectID != "" && subscription != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			RefreshJob:       refreshJob,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		pubsubHandler = handler

		go func() {
			if err := pubsubHandler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	} else {
		log.Info().Msg("pubsub not configured, ticker-driven refresh only")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	if pubsubHandler != nil {
		if err := pubsubHandler.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close pubsub client")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
