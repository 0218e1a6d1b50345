// Package aggregate combines the weather and air quality providers behind
// a single cached read-through service consumed by the API handlers.
package aggregate

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/airlens/airlens/internal/airquality"
	"github.com/airlens/airlens/internal/cache"
	"github.com/airlens/airlens/internal/geocoding"
	"github.com/airlens/airlens/internal/weather"
	"github.com/airlens/airlens/pkg/geo"
)

// ForecastProvider supplies current conditions and forecast blocks.
type ForecastProvider interface {
	Current(ctx context.Context, lat, lon float64) (*weather.Record, error)
	Hourly(ctx context.Context, lat, lon float64) (*weather.HourlyBlock, error)
	Daily(ctx context.Context, lat, lon float64) (*weather.DailyBlock, error)
}

// ArchiveProvider supplies the archival daily weather series.
type ArchiveProvider interface {
	DailyHistory(ctx context.Context, lat, lon float64, start, end string) ([]weather.ArchiveDay, error)
}

// TimelineProvider supplies the secondary commercial historical series.
type TimelineProvider interface {
	Timeline(ctx context.Context, lat, lon float64, start, end string) ([]weather.TimelineDay, error)
}

// AirQualityProvider supplies pollutant concentrations and AQI series.
type AirQualityProvider interface {
	Current(ctx context.Context, lat, lon float64) (*airquality.Record, error)
	HourlyPM25(ctx context.Context, lat, lon float64, start, end string) (*airquality.HourlySeries, error)
	Forecast(ctx context.Context, lat, lon float64, days int) (*airquality.ForecastSeries, error)
}

// SpotProvider supplies a supplementary current weather reading.
type SpotProvider interface {
	Current(ctx context.Context, lat, lon float64) (*weather.Record, error)
}

// FeedProvider supplies station-anchored AQI observations.
type FeedProvider interface {
	NearestFeed(ctx context.Context, lat, lon float64) (*airquality.FeedObservation, error)
}

// Geocoder supplies city search.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]geocoding.City, error)
}

// ServiceConfig holds the dependencies of the aggregation service.
type ServiceConfig struct {
	Forecast   ForecastProvider
	Archive    ArchiveProvider
	Timeline   TimelineProvider
	AirQuality AirQualityProvider
	Spot       SpotProvider
	Feed       FeedProvider
	Geocoder   Geocoder

	// Cache is the shared TTL cache. If nil, one is created with the
	// default TTL.
	Cache *cache.Cache

	// Logger for degraded-path warnings.
	Logger zerolog.Logger

	// Now is the clock used for date clamping. Defaults to time.Now.
	Now func() time.Time
}

// Service is the cached provider aggregation layer. All read operations
// report whether the result was served from cache.
type Service struct {
	forecast   ForecastProvider
	archive    ArchiveProvider
	timeline   TimelineProvider
	airQuality AirQualityProvider
	spot       SpotProvider
	feed       FeedProvider
	geocoder   Geocoder

	cache  *cache.Cache
	logger zerolog.Logger
	now    func() time.Time
}

// NewService creates a new aggregation service.
func NewService(cfg ServiceConfig) *Service {
	c := cfg.Cache
	if c == nil {
		c = cache.New(cache.DefaultTTL)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		forecast:   cfg.Forecast,
		archive:    cfg.Archive,
		timeline:   cfg.Timeline,
		airQuality: cfg.AirQuality,
		spot:       cfg.Spot,
		feed:       cfg.Feed,
		geocoder:   cfg.Geocoder,
		cache:      c,
		logger:     cfg.Logger,
		now:        now,
	}
}

// CurrentWeather returns current conditions from the primary forecast
// provider.
func (s *Service) CurrentWeather(ctx context.Context, lat, lon float64) (*weather.Record, bool, error) {
	if !geo.ValidCoordinates(lat, lon) {
		return nil, false, weather.ErrInvalidCoordinates
	}

	key := cache.Key("weather-current", lat, lon)
	if v, ok := s.cache.Get(key); ok {
		return v.(*weather.Record), true, nil
	}

	rec, err := s.forecast.Current(ctx, lat, lon)
	if err != nil {
		return nil, false, err
	}

	s.cache.Set(key, rec)
	return rec, false, nil
}

// CurrentAQI returns the current air quality record.
func (s *Service) CurrentAQI(ctx context.Context, lat, lon float64) (*airquality.Record, bool, error) {
	if !geo.ValidCoordinates(lat, lon) {
		return nil, false, weather.ErrInvalidCoordinates
	}

	key := cache.Key("aqi-current", lat, lon)
	if v, ok := s.cache.Get(key); ok {
		return v.(*airquality.Record), true, nil
	}

	rec, err := s.airQuality.Current(ctx, lat, lon)
	if err != nil {
		return nil, false, err
	}

	s.cache.Set(key, rec)
	return rec, false, nil
}

// HourlyForecast returns the raw 24-hour forecast block.
func (s *Service) HourlyForecast(ctx context.Context, lat, lon float64) (*weather.HourlyBlock, bool, error) {
	if !geo.ValidCoordinates(lat, lon) {
		return nil, false, weather.ErrInvalidCoordinates
	}

	key := cache.Key("weather-hourly", lat, lon)
	if v, ok := s.cache.Get(key); ok {
		return v.(*weather.HourlyBlock), true, nil
	}

	block, err := s.forecast.Hourly(ctx, lat, lon)
	if err != nil {
		return nil, false, err
	}

	s.cache.Set(key, block)
	return block, false, nil
}

// DailyForecast returns the raw 7-day forecast block.
func (s *Service) DailyForecast(ctx context.Context, lat, lon float64) (*weather.DailyBlock, bool, error) {
	if !geo.ValidCoordinates(lat, lon) {
		return nil, false, weather.ErrInvalidCoordinates
	}

	key := cache.Key("weather-daily", lat, lon)
	if v, ok := s.cache.Get(key); ok {
		return v.(*weather.DailyBlock), true, nil
	}

	block, err := s.forecast.Daily(ctx, lat, lon)
	if err != nil {
		return nil, false, err
	}

	s.cache.Set(key, block)
	return block, false, nil
}

// DailyAQI is one day of the AQI forecast, aggregated from hourly
// european_aqi samples. AQI is nil for days with no usable samples.
type DailyAQI struct {
	Date string `json:"date"`
	AQI  *int   `json:"aqi"`
}

// AQIForecast returns a per-day AQI outlook built from hourly samples.
// Only complete 24-hour buckets are reported; a trailing partial day is
// dropped.
func (s *Service) AQIForecast(ctx context.Context, lat, lon float64, days int) ([]DailyAQI, bool, error) {
	if !geo.ValidCoordinates(lat, lon) {
		return nil, false, weather.ErrInvalidCoordinates
	}

	key := cache.Key("aqi-forecast", lat, lon, strconv.Itoa(days))
	if v, ok := s.cache.Get(key); ok {
		return v.([]DailyAQI), true, nil
	}

	series, err := s.airQuality.Forecast(ctx, lat, lon, days)
	if err != nil {
		return nil, false, err
	}

	out := bucketDailyAQI(series)
	s.cache.Set(key, out)
	return out, false, nil
}

func bucketDailyAQI(series *airquality.ForecastSeries) []DailyAQI {
	numDays := len(series.Time) / 24
	out := make([]DailyAQI, 0, numDays)

	for d := 0; d < numDays; d++ {
		date := series.Time[d*24]
		if i := strings.IndexByte(date, 'T'); i > 0 {
			date = date[:i]
		}

		var sum float64
		var count int
		for h := d * 24; h < (d+1)*24 && h < len(series.EuropeanAQI); h++ {
			if series.EuropeanAQI[h] != nil {
				sum += *series.EuropeanAQI[h]
				count++
			}
		}

		day := DailyAQI{Date: date}
		if count > 0 {
			v := int(sum/float64(count) + 0.5)
			day.AQI = &v
		}
		out = append(out, day)
	}

	return out
}

// MetNorway returns the supplementary MET Norway spot reading.
func (s *Service) MetNorway(ctx context.Context, lat, lon float64) (*weather.Record, bool, error) {
	if !geo.ValidCoordinates(lat, lon) {
		return nil, false, weather.ErrInvalidCoordinates
	}

	key := cache.Key("weather-metno", lat, lon)
	if v, ok := s.cache.Get(key); ok {
		return v.(*weather.Record), true, nil
	}

	rec, err := s.spot.Current(ctx, lat, lon)
	if err != nil {
		return nil, false, err
	}

	s.cache.Set(key, rec)
	return rec, false, nil
}

// WAQIFeed returns the nearest monitoring station observation.
func (s *Service) WAQIFeed(ctx context.Context, lat, lon float64) (*airquality.FeedObservation, bool, error) {
	if !geo.ValidCoordinates(lat, lon) {
		return nil, false, weather.ErrInvalidCoordinates
	}

	key := cache.Key("aqi-waqi", lat, lon)
	if v, ok := s.cache.Get(key); ok {
		return v.(*airquality.FeedObservation), true, nil
	}

	obs, err := s.feed.NearestFeed(ctx, lat, lon)
	if err != nil {
		return nil, false, err
	}

	s.cache.Set(key, obs)
	return obs, false, nil
}

// SearchCities looks up cities by name.
func (s *Service) SearchCities(ctx context.Context, query string) ([]geocoding.City, bool, error) {
	key := cache.QueryKey("geocoding", strings.ToLower(query))
	if v, ok := s.cache.Get(key); ok {
		return v.([]geocoding.City), true, nil
	}

	cities, err := s.geocoder.Search(ctx, query)
	if err != nil {
		return nil, false, err
	}

	s.cache.Set(key, cities)
	return cities, false, nil
}

// FlushCache drops every cached entry.
func (s *Service) FlushCache() {
	s.cache.Flush()
}

// CacheStats reports cache occupancy for the ops endpoints.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}
