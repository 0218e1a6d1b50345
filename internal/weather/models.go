// Package weather defines the canonical weather record every provider
// adapter normalizes into, plus the raw forecast blocks passed through to
// the dashboard charts.
package weather

import (
	"errors"
	"time"
)

// Weather errors.
var (
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
	ErrNoData              = errors.New("no weather data returned from API")
)

// DataQualityReliable tags records coming straight from a provider.
const DataQualityReliable = "reliable"

// Record is the canonical weather observation produced by every adapter.
// Optional fields are nil when the provider does not supply them; adapters
// never fabricate values.
type Record struct {
	Source      string    `json:"source"`
	Temp        *float64  `json:"temp"`
	FeelsLike   *float64  `json:"feelsLike"`
	Humidity    *float64  `json:"humidity"`
	WindSpeed   *float64  `json:"windSpeed"`
	RainProb    *float64  `json:"rainProb"`
	Pressure    *float64  `json:"pressure"`
	Visibility  *float64  `json:"visibility"` // km
	CloudCover  *float64  `json:"cloudCover"`
	UVIndex     *float64  `json:"uvIndex"`
	WeatherCode *int      `json:"weatherCode,omitempty"`
	Sunrise     *string   `json:"sunrise"`
	Sunset      *string   `json:"sunset"`
	LastUpdated time.Time `json:"lastUpdated"`
	DataQuality string    `json:"dataQuality,omitempty"`
}

// HourlyBlock is the raw hourly forecast block, passed through untouched so
// the frontend chart contract stays stable.
type HourlyBlock struct {
	Time                     []string   `json:"time"`
	Temperature2m            []*float64 `json:"temperature_2m"`
	PrecipitationProbability []*float64 `json:"precipitation_probability"`
	WeatherCode              []*int     `json:"weather_code"`
}

// DailyBlock is the raw 7-day forecast block, passed through untouched.
type DailyBlock struct {
	Time             []string   `json:"time"`
	Temperature2mMax []*float64 `json:"temperature_2m_max"`
	Temperature2mMin []*float64 `json:"temperature_2m_min"`
	PrecipitationSum []*float64 `json:"precipitation_sum"`
	WeatherCode      []*int     `json:"weather_code"`
	UVIndexMax       []*float64 `json:"uv_index_max"`
	Sunrise          []string   `json:"sunrise"`
	Sunset           []string   `json:"sunset"`
}

// ArchiveDay is one day of the archival provider's daily series.
// Missing upstream values are carried as zero, matching the historical
// endpoint's established output.
type ArchiveDay struct {
	Date     string
	TempMean float64
	RainSum  float64
}

// TimelineDay is one day from the commercial historical provider.
// All values are optional; the provider frequently omits aqi.
type TimelineDay struct {
	Date   string
	Temp   *float64
	Precip *float64
	AQI    *float64
}

// Float returns a pointer to v. Adapters use it when mapping provider
// payloads into Record fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Str returns a pointer to v.
func Str(v string) *string { return &v }
