// Package snapshot manages persisted per-city weather and air quality
// snapshots with a bounded observation history.
package snapshot

import (
	"time"

	"github.com/airlens/airlens/internal/airquality"
	"github.com/airlens/airlens/internal/weather"
)

// HistoryLimit bounds how many observations a city keeps. Older entries
// drop off as new refreshes append.
const HistoryLimit = 10

// CitySnapshot is a tracked city with its rolling observation windows.
// Weather and AQI are ordered oldest first; the last element is the
// freshest reading.
type CitySnapshot struct {
	CityID  int64   `json:"cityId"`
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country,omitempty"`

	Weather []weather.Record    `json:"weather"`
	AQI     []airquality.Record `json:"aqi"`

	LastSyncedAt time.Time `json:"lastSyncedAt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Latest returns the freshest weather and AQI readings, nil when the
// corresponding window is empty.
func (c *CitySnapshot) Latest() (*weather.Record, *airquality.Record) {
	var w *weather.Record
	var a *airquality.Record
	if n := len(c.Weather); n > 0 {
		w = &c.Weather[n-1]
	}
	if n := len(c.AQI); n > 0 {
		a = &c.AQI[n-1]
	}
	return w, a
}

// Comparison is the side-by-side summary of several tracked cities.
type Comparison struct {
	Cities []ComparisonEntry `json:"cities"`
}

// ComparisonEntry is one city's averaged readings in a comparison.
// Averages are nil when the relevant window is empty.
type ComparisonEntry struct {
	CityID  int64    `json:"cityId"`
	Name    string   `json:"name"`
	AvgTemp *float64 `json:"avgTemp"`
	AvgAQI  *int     `json:"avgAqi"`
}
