package aggregate

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/airlens/airlens/internal/airquality"
	"github.com/airlens/airlens/internal/aqi"
	"github.com/airlens/airlens/internal/cache"
	"github.com/airlens/airlens/internal/weather"
	"github.com/airlens/airlens/pkg/geo"
)

const dateLayout = "2006-01-02"

// archiveLagDays is how far the archival provider trails realtime.
const archiveLagDays = 5

// HistoricalDay is one merged day of the historical comparison series.
// Fields from the secondary provider are nil when it had no matching day
// or was unavailable.
type HistoricalDay struct {
	Date   string   `json:"date"`
	TempOM float64  `json:"temp_om"`
	TempVC *float64 `json:"temp_vc"`
	RainOM float64  `json:"rain_om"`
	RainVC *float64 `json:"rain_vc"`
	AQIOM  int      `json:"aqi_om"`
	AQIVC  *float64 `json:"aqi_vc"`
}

// ClampEndDate caps end at the archive provider's retention horizon,
// today minus archiveLagDays. Unparseable dates pass through untouched
// and fail at the provider instead.
func (s *Service) ClampEndDate(end string) string {
	parsed, err := time.Parse(dateLayout, end)
	if err != nil {
		return end
	}

	horizon := s.now().AddDate(0, 0, -archiveLagDays)
	horizon = time.Date(horizon.Year(), horizon.Month(), horizon.Day(), 0, 0, 0, 0, time.UTC)

	if parsed.After(horizon) {
		return horizon.Format(dateLayout)
	}
	return end
}

// Historical returns the merged per-day series from the archive, the
// secondary timeline provider, and hourly PM2.5 samples. The archive is
// the source of truth: its failure fails the request, while the other
// two degrade to nil fields. The timeline provider is queried with the
// caller's original range since it has no retention lag.
func (s *Service) Historical(ctx context.Context, lat, lon float64, start, end string) ([]HistoricalDay, bool, error) {
	if !geo.ValidCoordinates(lat, lon) {
		return nil, false, weather.ErrInvalidCoordinates
	}

	key := cache.Key("weather-history", lat, lon, start, end)
	if v, ok := s.cache.Get(key); ok {
		return v.([]HistoricalDay), true, nil
	}

	clampedEnd := s.ClampEndDate(end)

	var (
		wg sync.WaitGroup

		archiveDays []weather.ArchiveDay
		archiveErr  error

		timelineDays []weather.TimelineDay
		timelineErr  error

		pm25  *airquality.HourlySeries
		pmErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		archiveDays, archiveErr = s.archive.DailyHistory(ctx, lat, lon, start, clampedEnd)
	}()
	go func() {
		defer wg.Done()
		timelineDays, timelineErr = s.timeline.Timeline(ctx, lat, lon, start, end)
	}()
	go func() {
		defer wg.Done()
		pm25, pmErr = s.airQuality.HourlyPM25(ctx, lat, lon, start, clampedEnd)
	}()
	wg.Wait()

	if archiveErr != nil {
		return nil, false, archiveErr
	}
	if timelineErr != nil {
		s.logger.Warn().Err(timelineErr).Msg("historical: timeline provider degraded")
		timelineDays = nil
	}
	if pmErr != nil {
		s.logger.Warn().Err(pmErr).Msg("historical: hourly pm2.5 unavailable")
		pm25 = nil
	}

	byDate := make(map[string]weather.TimelineDay, len(timelineDays))
	for _, d := range timelineDays {
		byDate[d.Date] = d
	}

	merged := make([]HistoricalDay, 0, len(archiveDays))
	for _, d := range archiveDays {
		day := HistoricalDay{
			Date:   d.Date,
			TempOM: d.TempMean,
			RainOM: d.RainSum,
			AQIOM:  dayAQI(pm25, d.Date),
		}
		if vc, ok := byDate[d.Date]; ok {
			day.TempVC = vc.Temp
			day.RainVC = vc.Precip
			day.AQIVC = vc.AQI
		}
		merged = append(merged, day)
	}

	s.cache.Set(key, merged)
	return merged, false, nil
}

// dayAQI derives one day's AQI by averaging that day's hourly PM2.5
// samples and applying the linear estimate. Null samples count as zero
// in the average, and days without samples report zero rather than a
// gap.
func dayAQI(series *airquality.HourlySeries, date string) int {
	if series == nil {
		return 0
	}

	var sum float64
	var count int
	for i, ts := range series.Time {
		if !strings.HasPrefix(ts, date) {
			continue
		}
		count++
		if i < len(series.Values) && series.Values[i] != nil {
			sum += *series.Values[i]
		}
	}

	if count == 0 {
		return 0
	}
	return aqi.EstimateLinear(sum / float64(count))
}
