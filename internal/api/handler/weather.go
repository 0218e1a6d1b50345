// Package handler provides HTTP handlers for the AirLens API.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/airlens/airlens/internal/aggregate"
	"github.com/airlens/airlens/internal/api/middleware"
	"github.com/airlens/airlens/internal/api/response"
	"github.com/airlens/airlens/internal/weather"
)

// defaultForecastDays is the AQI outlook window when the client does not
// ask for one.
const defaultForecastDays = 7

// WeatherHandler handles the weather and air quality endpoints.
type WeatherHandler struct {
	service *aggregate.Service
	metrics *middleware.Metrics
	logger  zerolog.Logger
}

// NewWeatherHandler creates a new WeatherHandler.
func NewWeatherHandler(service *aggregate.Service, metrics *middleware.Metrics, logger zerolog.Logger) *WeatherHandler {
	return &WeatherHandler{
		service: service,
		metrics: metrics,
		logger:  logger,
	}
}

// parseCoords extracts lat/lon query parameters. On failure it writes
// the error response and reports false.
func parseCoords(w http.ResponseWriter, r *http.Request) (float64, float64, bool) {
	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")
	if latStr == "" || lonStr == "" {
		response.BadRequest(w, r, "Latitude and longitude required")
		return 0, 0, false
	}

	lat, errLat := strconv.ParseFloat(latStr, 64)
	lon, errLon := strconv.ParseFloat(lonStr, 64)
	if errLat != nil || errLon != nil {
		response.BadRequest(w, r, "Invalid coordinates")
		return 0, 0, false
	}

	return lat, lon, true
}

func (h *WeatherHandler) writeResult(w http.ResponseWriter, r *http.Request, endpoint string, data any, cached bool, err error) {
	if err != nil {
		if errors.Is(err, weather.ErrInvalidCoordinates) {
			response.BadRequest(w, r, "Invalid coordinates")
			return
		}
		h.logger.Error().Err(err).Str("endpoint", endpoint).Msg("request failed")
		response.InternalError(w, r, err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.RecordCacheOutcome(r, endpoint, cached)
	}
	response.OKCached(w, r, data, cached)
}

// writeSupplementary is writeResult for the best-effort sources, whose
// failures are logged as warnings instead of errors.
func (h *WeatherHandler) writeSupplementary(w http.ResponseWriter, r *http.Request, endpoint string, data any, cached bool, err error) {
	if err != nil {
		if errors.Is(err, weather.ErrInvalidCoordinates) {
			response.BadRequest(w, r, "Invalid coordinates")
			return
		}
		h.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("supplementary source failed")
		response.InternalError(w, r, err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.RecordCacheOutcome(r, endpoint, cached)
	}
	response.OKCached(w, r, data, cached)
}

// Current handles GET /v1/weather/current.
func (h *WeatherHandler) Current(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := parseCoords(w, r)
	if !ok {
		return
	}

	rec, cached, err := h.service.CurrentWeather(r.Context(), lat, lon)
	h.writeResult(w, r, "weather-current", rec, cached, err)
}

// AQI handles GET /v1/weather/aqi.
func (h *WeatherHandler) AQI(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := parseCoords(w, r)
	if !ok {
		return
	}

	rec, cached, err := h.service.CurrentAQI(r.Context(), lat, lon)
	h.writeResult(w, r, "aqi-current", rec, cached, err)
}

// Hourly handles GET /v1/weather/hourly.
func (h *WeatherHandler) Hourly(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := parseCoords(w, r)
	if !ok {
		return
	}

	block, cached, err := h.service.HourlyForecast(r.Context(), lat, lon)
	h.writeResult(w, r, "weather-hourly", block, cached, err)
}

// Daily handles GET /v1/weather/daily.
func (h *WeatherHandler) Daily(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := parseCoords(w, r)
	if !ok {
		return
	}

	block, cached, err := h.service.DailyForecast(r.Context(), lat, lon)
	h.writeResult(w, r, "weather-daily", block, cached, err)
}

// AQIForecast handles GET /v1/weather/aqi-forecast.
func (h *WeatherHandler) AQIForecast(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := parseCoords(w, r)
	if !ok {
		return
	}

	days := defaultForecastDays
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil || parsed < 1 {
			response.BadRequest(w, r, "Invalid days parameter")
			return
		}
		days = parsed
	}

	outlook, cached, err := h.service.AQIForecast(r.Context(), lat, lon, days)
	h.writeResult(w, r, "aqi-forecast", outlook, cached, err)
}

// Historical handles GET /v1/weather/historical.
func (h *WeatherHandler) Historical(w http.ResponseWriter, r *http.Request) {
	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")
	start := r.URL.Query().Get("startDate")
	end := r.URL.Query().Get("endDate")
	if latStr == "" || lonStr == "" || start == "" || end == "" {
		response.BadRequest(w, r, "Latitude, longitude, startDate, and endDate required")
		return
	}

	lat, errLat := strconv.ParseFloat(latStr, 64)
	lon, errLon := strconv.ParseFloat(lonStr, 64)
	if errLat != nil || errLon != nil {
		response.BadRequest(w, r, "Invalid coordinates")
		return
	}

	days, cached, err := h.service.Historical(r.Context(), lat, lon, start, end)
	h.writeResult(w, r, "weather-history", days, cached, err)
}

// MetNorway handles GET /v1/weather/met-norway.
func (h *WeatherHandler) MetNorway(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := parseCoords(w, r)
	if !ok {
		return
	}

	rec, cached, err := h.service.MetNorway(r.Context(), lat, lon)
	h.writeSupplementary(w, r, "weather-metno", rec, cached, err)
}

// WAQI handles GET /v1/weather/waqi.
func (h *WeatherHandler) WAQI(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := parseCoords(w, r)
	if !ok {
		return
	}

	obs, cached, err := h.service.WAQIFeed(r.Context(), lat, lon)
	h.writeSupplementary(w, r, "aqi-waqi", obs, cached, err)
}

// Search handles GET /v1/weather/search (city geocoding).
func (h *WeatherHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if len(query) < 2 {
		response.BadRequest(w, r, "Query must be at least 2 characters")
		return
	}

	cities, cached, err := h.service.SearchCities(r.Context(), query)
	h.writeResult(w, r, "geocoding", cities, cached, err)
}

// ClearCache handles POST /v1/weather/clear-cache. Admin only.
func (h *WeatherHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.service.FlushCache()
	h.logger.Info().Str("user_id", middleware.GetUserID(r.Context())).Msg("cache cleared")
	response.OKMessage(w, r, "Cache cleared")
}
