package snapshot

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/airlens/airlens/internal/airquality"
	"github.com/airlens/airlens/internal/geocoding"
	"github.com/airlens/airlens/internal/weather"
)

// ErrCitiesMissing indicates a comparison referenced untracked cities.
var ErrCitiesMissing = errors.New("some cities not found")

// DefaultStaleAfter is how old a snapshot may get before a read triggers
// a refresh.
const DefaultStaleAfter = time.Hour

// WeatherProvider supplies the current weather reading for refreshes.
type WeatherProvider interface {
	Current(ctx context.Context, lat, lon float64) (*weather.Record, error)
}

// AirQualityProvider supplies the current air quality reading for
// refreshes.
type AirQualityProvider interface {
	Current(ctx context.Context, lat, lon float64) (*airquality.Record, error)
}

// ServiceConfig holds the dependencies of the snapshot service.
type ServiceConfig struct {
	Repo       Repository
	Weather    WeatherProvider
	AirQuality AirQualityProvider

	// StaleAfter overrides the refresh threshold. Defaults to
	// DefaultStaleAfter.
	StaleAfter time.Duration

	Logger zerolog.Logger

	// Now is the clock, injectable for tests. Defaults to time.Now.
	Now func() time.Time
}

// Service manages tracked city snapshots: read-through staleness
// refresh, bounded history, and cross-city comparison.
type Service struct {
	repo       Repository
	weather    WeatherProvider
	airQuality AirQualityProvider
	staleAfter time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

// NewService creates a new snapshot service.
func NewService(cfg ServiceConfig) *Service {
	staleAfter := cfg.StaleAfter
	if staleAfter == 0 {
		staleAfter = DefaultStaleAfter
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		repo:       cfg.Repo,
		weather:    cfg.Weather,
		airQuality: cfg.AirQuality,
		staleAfter: staleAfter,
		logger:     cfg.Logger,
		now:        now,
	}
}

// GetCity returns a tracked city, refreshing its observation windows
// first when the snapshot has gone stale. A failed refresh degrades to
// the stale data rather than an error.
func (s *Service) GetCity(ctx context.Context, cityID int64) (*CitySnapshot, error) {
	snap, err := s.repo.Get(ctx, cityID)
	if err != nil {
		return nil, err
	}

	if !s.isStale(snap) {
		return snap, nil
	}

	refreshed, err := s.refresh(ctx, snap)
	if err != nil {
		s.logger.Warn().Err(err).Int64("city_id", cityID).Msg("snapshot refresh failed, serving stale data")
		return snap, nil
	}
	return refreshed, nil
}

// ListCities returns every tracked city.
func (s *Service) ListCities(ctx context.Context) ([]CitySnapshot, error) {
	return s.repo.List(ctx)
}

// SearchCities returns tracked cities matching the query.
func (s *Service) SearchCities(ctx context.Context, query string) ([]CitySnapshot, error) {
	return s.repo.Search(ctx, query)
}

// Track starts tracking a city. The first refresh is attempted
// immediately but tolerated to fail; the next read retries.
func (s *Service) Track(ctx context.Context, city geocoding.City) (*CitySnapshot, error) {
	now := s.now()
	snap := &CitySnapshot{
		CityID:    city.ID,
		Name:      city.Name,
		Lat:       city.Lat,
		Lon:       city.Lon,
		Country:   city.Country,
		Weather:   []weather.Record{},
		AQI:       []airquality.Record{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	refreshed, err := s.refresh(ctx, snap)
	if err != nil {
		s.logger.Warn().Err(err).Int64("city_id", city.ID).Msg("initial snapshot refresh failed")
		if saveErr := s.repo.Save(ctx, snap); saveErr != nil {
			return nil, saveErr
		}
		return snap, nil
	}
	return refreshed, nil
}

// RefreshCity forces a refresh regardless of staleness. Used by the
// background refresher.
func (s *Service) RefreshCity(ctx context.Context, cityID int64) error {
	snap, err := s.repo.Get(ctx, cityID)
	if err != nil {
		return err
	}
	_, err = s.refresh(ctx, snap)
	return err
}

// IsStale reports whether a snapshot is due for a refresh.
func (s *Service) IsStale(snap *CitySnapshot) bool {
	return s.isStale(snap)
}

func (s *Service) isStale(snap *CitySnapshot) bool {
	return s.now().Sub(snap.LastSyncedAt) >= s.staleAfter
}

// refresh fetches fresh readings from both providers, appends them to
// the rolling windows, and persists. Both providers must succeed; a
// partial refresh would skew the windows against each other.
func (s *Service) refresh(ctx context.Context, snap *CitySnapshot) (*CitySnapshot, error) {
	var (
		wg sync.WaitGroup

		weatherRec *weather.Record
		weatherErr error

		aqiRec *airquality.Record
		aqiErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		weatherRec, weatherErr = s.weather.Current(ctx, snap.Lat, snap.Lon)
	}()
	go func() {
		defer wg.Done()
		aqiRec, aqiErr = s.airQuality.Current(ctx, snap.Lat, snap.Lon)
	}()
	wg.Wait()

	if weatherErr != nil {
		return nil, weatherErr
	}
	if aqiErr != nil {
		return nil, aqiErr
	}

	updated := *snap
	updated.Weather = appendBounded(snap.Weather, *weatherRec)
	updated.AQI = appendBounded(snap.AQI, *aqiRec)

	now := s.now()
	updated.LastSyncedAt = now
	updated.UpdatedAt = now

	if err := s.repo.Save(ctx, &updated); err != nil {
		// The fresh readings are still good; losing one persist only
		// costs the next request a refresh.
		s.logger.Error().Err(err).Int64("city_id", snap.CityID).Msg("persisting snapshot failed")
	}

	return &updated, nil
}

func appendBounded[T any](window []T, v T) []T {
	out := make([]T, 0, len(window)+1)
	out = append(out, window...)
	out = append(out, v)
	if len(out) > HistoryLimit {
		out = out[len(out)-HistoryLimit:]
	}
	return out
}

// Compare summarizes several tracked cities side by side. Every
// requested city must be tracked.
func (s *Service) Compare(ctx context.Context, cityIDs []int64) (*Comparison, error) {
	snaps, err := s.repo.GetMany(ctx, cityIDs)
	if err != nil {
		return nil, err
	}
	if len(snaps) != len(cityIDs) {
		return nil, ErrCitiesMissing
	}

	entries := make([]ComparisonEntry, 0, len(snaps))
	for _, snap := range snaps {
		entries = append(entries, ComparisonEntry{
			CityID:  snap.CityID,
			Name:    snap.Name,
			AvgTemp: avgTemp(snap.Weather),
			AvgAQI:  avgAQI(snap.AQI),
		})
	}

	return &Comparison{Cities: entries}, nil
}

// avgTemp averages the non-nil temperatures in a window, rounded to one
// decimal place.
func avgTemp(window []weather.Record) *float64 {
	var sum float64
	var count int
	for _, rec := range window {
		if rec.Temp != nil {
			sum += *rec.Temp
			count++
		}
	}
	if count == 0 {
		return nil
	}
	v := math.Round(sum/float64(count)*10) / 10
	return &v
}

// avgAQI averages the AQI values in a window, rounded to the nearest
// integer.
func avgAQI(window []airquality.Record) *int {
	var sum int
	for _, rec := range window {
		sum += rec.AQI
	}
	if len(window) == 0 {
		return nil
	}
	v := int(math.Round(float64(sum) / float64(len(window))))
	return &v
}
