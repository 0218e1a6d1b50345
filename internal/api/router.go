// Package api provides the HTTP API for AirLens.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/airlens/airlens/internal/aggregate"
	"github.com/airlens/airlens/internal/api/handler"
	"github.com/airlens/airlens/internal/api/middleware"
	"github.com/airlens/airlens/internal/auth"
	"github.com/airlens/airlens/internal/provider/resilience"
	"github.com/airlens/airlens/internal/snapshot"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version          string
	Logger           zerolog.Logger
	Metrics          *middleware.Metrics
	Verifier         *auth.Verifier
	AggregateService *aggregate.Service
	SnapshotService  *snapshot.Service
	Registry         *resilience.Registry
	DB               handler.Pinger
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing())
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)

	weatherHandler := handler.NewWeatherHandler(cfg.AggregateService, cfg.Metrics, cfg.Logger)
	cityHandler := handler.NewCityHandler(cfg.SnapshotService, cfg.Logger)
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.Registry, cfg.DB, cfg.AggregateService)

	authMiddleware := middleware.Auth(cfg.Verifier)
	adminOnly := middleware.RequireRole(auth.RoleAdmin)

	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)     // 100 req/min
	historicalRateLimit := middleware.RateLimitByIP(middleware.HistoricalRateLimit) // 20 req/min

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.Health)
			r.Get("/ready", opsHandler.Ready)
			r.Get("/status", opsHandler.Status)
		})

		// Weather and air quality endpoints (public)
		r.Route("/weather", func(r chi.Router) {
			r.With(standardRateLimit).Group(func(r chi.Router) {
				r.Get("/current", weatherHandler.Current)
				r.Get("/aqi", weatherHandler.AQI)
				r.Get("/hourly", weatherHandler.Hourly)
				r.Get("/daily", weatherHandler.Daily)
				r.Get("/aqi-forecast", weatherHandler.AQIForecast)
				r.Get("/met-norway", weatherHandler.MetNorway)
				r.Get("/waqi", weatherHandler.WAQI)
				r.Get("/search-cities", weatherHandler.Search)
			})

			// Historical fans out to three upstreams per cache miss
			r.With(historicalRateLimit).Get("/historical", weatherHandler.Historical)

			// Cache administration requires an admin token
			r.With(authMiddleware, adminOnly).Post("/clear-cache", weatherHandler.ClearCache)
		})

		// Tracked city endpoints (public)
		r.Route("/cities", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", cityHandler.List)
			r.Post("/", cityHandler.Track)
			r.Get("/search", cityHandler.Search)
			r.Post("/compare", cityHandler.Compare)
			r.Get("/compare/{cityIds}", cityHandler.CompareByPath)
			r.Get("/{cityId}", cityHandler.Get)
		})
	})

	return r
}
