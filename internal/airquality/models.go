// Package airquality defines the canonical air quality record shared by
// all air quality providers.
package airquality

import (
	"errors"
	"time"
)

var (
	// ErrProviderUnavailable indicates no air quality provider could serve
	// the request.
	ErrProviderUnavailable = errors.New("air quality provider unavailable")

	// ErrNoData indicates the provider responded but carried no usable
	// observation.
	ErrNoData = errors.New("no air quality data available")
)

// DataQualityReliable marks a record sourced directly from a provider.
const DataQualityReliable = "reliable"

// Record is the canonical air quality observation returned to clients.
// Pollutant concentrations are optional; providers differ in coverage.
type Record struct {
	Source         string     `json:"source"`
	AQI            int        `json:"aqi"`
	PM25           *float64   `json:"pm25,omitempty"`
	PM10           *float64   `json:"pm10,omitempty"`
	O3             *float64   `json:"o3,omitempty"`
	NO2            *float64   `json:"no2,omitempty"`
	SO2            *float64   `json:"so2,omitempty"`
	CO             *float64   `json:"co,omitempty"`
	HealthAdvisory string     `json:"healthAdvisory,omitempty"`
	DataQuality    string     `json:"dataQuality"`
	LastUpdated    time.Time  `json:"lastUpdated"`
}

// HourlySeries is a raw aligned hourly series of one pollutant. Values
// may carry nulls where the model has gaps.
type HourlySeries struct {
	Time   []string   `json:"time"`
	Values []*float64 `json:"values"`
}

// ForecastSeries is the raw multi-pollutant hourly forecast block.
type ForecastSeries struct {
	Time        []string   `json:"time"`
	PM25        []*float64 `json:"pm2_5"`
	PM10        []*float64 `json:"pm10"`
	EuropeanAQI []*float64 `json:"european_aqi"`
}

// FeedObservation is a station-anchored AQI reading from a monitoring
// network feed.
type FeedObservation struct {
	AQI         int    `json:"aqi"`
	Station     string `json:"station"`
	LastUpdated string `json:"lastUpdated"`
	Source      string `json:"source"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
