package aggregate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airlens/airlens/internal/airquality"
	"github.com/airlens/airlens/internal/weather"
)

type fakeArchive struct {
	days     []weather.ArchiveDay
	err      error
	gotStart string
	gotEnd   string
}

func (f *fakeArchive) DailyHistory(ctx context.Context, lat, lon float64, start, end string) ([]weather.ArchiveDay, error) {
	f.gotStart, f.gotEnd = start, end
	return f.days, f.err
}

type fakeTimeline struct {
	days   []weather.TimelineDay
	err    error
	gotEnd string
}

func (f *fakeTimeline) Timeline(ctx context.Context, lat, lon float64, start, end string) ([]weather.TimelineDay, error) {
	f.gotEnd = end
	return f.days, f.err
}

func fixedNow() time.Time {
	return time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
}

func TestClampEndDate(t *testing.T) {
	svc := newTestService(t, ServiceConfig{Now: fixedNow})

	// 2026-08-31 minus five days is 2026-08-26.
	assert.Equal(t, "2026-08-26", svc.ClampEndDate("2026-08-30"))
	assert.Equal(t, "2026-08-26", svc.ClampEndDate("2026-08-26"))
	assert.Equal(t, "2026-08-20", svc.ClampEndDate("2026-08-20"))
	assert.Equal(t, "not-a-date", svc.ClampEndDate("not-a-date"))
}

func TestHistoricalMerges(t *testing.T) {
	archive := &fakeArchive{days: []weather.ArchiveDay{
		{Date: "2026-08-01", TempMean: 29.0, RainSum: 0.0},
		{Date: "2026-08-02", TempMean: 28.5, RainSum: 4.2},
	}}
	timeline := &fakeTimeline{days: []weather.TimelineDay{
		{Date: "2026-08-01", Temp: weather.Float(29.4), Precip: weather.Float(0.1), AQI: weather.Float(110)},
		// no entry for 2026-08-02
	}}
	aq := &fakeAirQuality{hourly: &airquality.HourlySeries{
		Time:   []string{"2026-08-01T00:00", "2026-08-01T01:00", "2026-08-02T00:00"},
		Values: []*float64{airquality.Float(20), airquality.Float(30), nil},
	}}

	svc := newTestService(t, ServiceConfig{Archive: archive, Timeline: timeline, AirQuality: aq, Now: fixedNow})

	days, cached, err := svc.Historical(context.Background(), 28.6139, 77.209, "2026-08-01", "2026-08-02")
	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, days, 2)

	first := days[0]
	assert.Equal(t, 29.0, first.TempOM)
	require.NotNil(t, first.TempVC)
	assert.Equal(t, 29.4, *first.TempVC)
	assert.Equal(t, 100, first.AQIOM) // round(avg(20,30) * 4)
	require.NotNil(t, first.AQIVC)
	assert.Equal(t, 110.0, *first.AQIVC)

	second := days[1]
	assert.Nil(t, second.TempVC)
	assert.Nil(t, second.RainVC)
	assert.Nil(t, second.AQIVC)
	assert.Equal(t, 0, second.AQIOM) // the lone null sample averages to zero
}

func TestHistoricalNullSamplesCountAsZero(t *testing.T) {
	archive := &fakeArchive{days: []weather.ArchiveDay{{Date: "2026-08-01", TempMean: 29.0}}}
	aq := &fakeAirQuality{hourly: &airquality.HourlySeries{
		Time: []string{
			"2026-08-01T00:00", "2026-08-01T01:00",
			"2026-08-01T02:00", "2026-08-01T03:00",
		},
		Values: []*float64{airquality.Float(40), airquality.Float(40), nil, nil},
	}}
	svc := newTestService(t, ServiceConfig{
		Archive:    archive,
		Timeline:   &fakeTimeline{},
		AirQuality: aq,
		Now:        fixedNow,
	})

	days, _, err := svc.Historical(context.Background(), 28.6139, 77.209, "2026-08-01", "2026-08-01")
	require.NoError(t, err)
	require.Len(t, days, 1)

	// Nulls dilute the average: (40+40+0+0)/4 = 20, times 4 = 80.
	// Excluding them would report 160.
	assert.Equal(t, 80, days[0].AQIOM)
}

func TestHistoricalArchiveFailureFails(t *testing.T) {
	archive := &fakeArchive{err: errors.New("archive down")}
	svc := newTestService(t, ServiceConfig{
		Archive:    archive,
		Timeline:   &fakeTimeline{},
		AirQuality: &fakeAirQuality{hourly: &airquality.HourlySeries{}},
		Now:        fixedNow,
	})

	_, _, err := svc.Historical(context.Background(), 28.6139, 77.209, "2026-08-01", "2026-08-02")
	require.Error(t, err)
}

func TestHistoricalSecondaryFailuresDegrade(t *testing.T) {
	archive := &fakeArchive{days: []weather.ArchiveDay{{Date: "2026-08-01", TempMean: 29.0}}}
	svc := newTestService(t, ServiceConfig{
		Archive:    archive,
		Timeline:   &fakeTimeline{err: errors.New("quota")},
		AirQuality: &fakeAirQuality{err: errors.New("down")},
		Now:        fixedNow,
	})

	days, _, err := svc.Historical(context.Background(), 28.6139, 77.209, "2026-08-01", "2026-08-02")
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Nil(t, days[0].TempVC)
	assert.Equal(t, 0, days[0].AQIOM)
}

func TestHistoricalClampsArchiveNotTimeline(t *testing.T) {
	archive := &fakeArchive{days: []weather.ArchiveDay{{Date: "2026-08-01"}}}
	timeline := &fakeTimeline{}
	svc := newTestService(t, ServiceConfig{
		Archive:    archive,
		Timeline:   timeline,
		AirQuality: &fakeAirQuality{hourly: &airquality.HourlySeries{}},
		Now:        fixedNow,
	})

	_, _, err := svc.Historical(context.Background(), 28.6139, 77.209, "2026-08-01", "2026-08-30")
	require.NoError(t, err)

	assert.Equal(t, "2026-08-26", archive.gotEnd)
	assert.Equal(t, "2026-08-30", timeline.gotEnd)
}

func TestHistoricalCached(t *testing.T) {
	archive := &fakeArchive{days: []weather.ArchiveDay{{Date: "2026-08-01"}}}
	svc := newTestService(t, ServiceConfig{
		Archive:    archive,
		Timeline:   &fakeTimeline{},
		AirQuality: &fakeAirQuality{hourly: &airquality.HourlySeries{}},
		Now:        fixedNow,
	})

	_, cached, err := svc.Historical(context.Background(), 28.6139, 77.209, "2026-08-01", "2026-08-02")
	require.NoError(t, err)
	assert.False(t, cached)

	_, cached, err = svc.Historical(context.Background(), 28.6139, 77.209, "2026-08-01", "2026-08-02")
	require.NoError(t, err)
	assert.True(t, cached)
}
