// Package openmeteo provides clients for the Open-Meteo forecast and
// archive APIs.
package openmeteo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/airlens/airlens/internal/provider"
	"github.com/airlens/airlens/internal/provider/resilience"
	"github.com/airlens/airlens/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "open-meteo"

	// DefaultForecastURL is the Open-Meteo forecast API base URL.
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"

	// DefaultArchiveURL is the Open-Meteo historical archive base URL.
	// The archive only serves data up to roughly five days behind realtime;
	// callers clamp end dates accordingly before calling.
	DefaultArchiveURL = "https://archive-api.open-meteo.com/v1/archive"
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Open-Meteo client.
type ClientConfig struct {
	// ForecastURL overrides the forecast API base URL (tests).
	ForecastURL string

	// ArchiveURL overrides the archive API base URL (tests).
	ArchiveURL string

	// HTTPClient is the HTTP client to use. If nil, a default resilient
	// client is created.
	HTTPClient HTTPDoer
}

// Client is an Open-Meteo weather API client.
type Client struct {
	forecastURL string
	archiveURL  string
	httpClient  HTTPDoer
}

// NewClient creates a new Open-Meteo weather client.
func NewClient(cfg ClientConfig) *Client {
	forecastURL := cfg.ForecastURL
	if forecastURL == "" {
		forecastURL = DefaultForecastURL
	}

	archiveURL := cfg.ArchiveURL
	if archiveURL == "" {
		archiveURL = DefaultArchiveURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		forecastURL: forecastURL,
		archiveURL:  archiveURL,
		httpClient:  httpClient,
	}
}

// Current fetches the current conditions plus today's sunrise/sunset and
// maps them into the canonical record.
func (c *Client) Current(ctx context.Context, lat, lon float64) (*weather.Record, error) {
	params := url.Values{}
	params.Set("latitude", formatCoord(lat))
	params.Set("longitude", formatCoord(lon))
	params.Set("current", "temperature_2m,relative_humidity_2m,wind_speed_10m,precipitation,apparent_temperature,surface_pressure,visibility,cloud_cover,uv_index,weather_code")
	params.Set("daily", "sunrise,sunset")
	params.Set("forecast_days", "1")
	params.Set("timezone", "auto")

	var payload currentResponse
	if err := c.getJSON(ctx, c.forecastURL, params, &payload); err != nil {
		return nil, err
	}

	return payload.toRecord(), nil
}

// Hourly fetches the raw 24-hour forecast block.
func (c *Client) Hourly(ctx context.Context, lat, lon float64) (*weather.HourlyBlock, error) {
	params := url.Values{}
	params.Set("latitude", formatCoord(lat))
	params.Set("longitude", formatCoord(lon))
	params.Set("hourly", "temperature_2m,precipitation_probability,weather_code")
	params.Set("forecast_hours", "24")
	params.Set("timezone", "auto")

	var payload struct {
		Hourly weather.HourlyBlock `json:"hourly"`
	}
	if err := c.getJSON(ctx, c.forecastURL, params, &payload); err != nil {
		return nil, err
	}

	return &payload.Hourly, nil
}

// Daily fetches the raw 7-day forecast block.
func (c *Client) Daily(ctx context.Context, lat, lon float64) (*weather.DailyBlock, error) {
	params := url.Values{}
	params.Set("latitude", formatCoord(lat))
	params.Set("longitude", formatCoord(lon))
	params.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum,weather_code,uv_index_max,sunrise,sunset")
	params.Set("forecast_days", "7")
	params.Set("timezone", "auto")

	var payload struct {
		Daily weather.DailyBlock `json:"daily"`
	}
	if err := c.getJSON(ctx, c.forecastURL, params, &payload); err != nil {
		return nil, err
	}

	return &payload.Daily, nil
}

// DailyHistory fetches the archival daily series for an inclusive date
// range. The caller is responsible for clamping end to the archive's
// retention horizon.
func (c *Client) DailyHistory(ctx context.Context, lat, lon float64, start, end string) ([]weather.ArchiveDay, error) {
	params := url.Values{}
	params.Set("latitude", formatCoord(lat))
	params.Set("longitude", formatCoord(lon))
	params.Set("start_date", start)
	params.Set("end_date", end)
	params.Set("daily", "temperature_2m_mean,rain_sum")
	params.Set("models", "era5_seamless")
	params.Set("timezone", "UTC")

	var payload archiveResponse
	if err := c.getJSON(ctx, c.archiveURL, params, &payload); err != nil {
		return nil, err
	}

	if len(payload.Daily.Time) == 0 {
		return nil, provider.NewError(ProviderName, "empty archive response", weather.ErrNoData)
	}

	days := make([]weather.ArchiveDay, 0, len(payload.Daily.Time))
	for i, date := range payload.Daily.Time {
		day := weather.ArchiveDay{Date: date}
		if i < len(payload.Daily.TempMean) && payload.Daily.TempMean[i] != nil {
			day.TempMean = *payload.Daily.TempMean[i]
		}
		if i < len(payload.Daily.RainSum) && payload.Daily.RainSum[i] != nil {
			day.RainSum = *payload.Daily.RainSum[i]
		}
		days = append(days, day)
	}

	return days, nil
}

func (c *Client) getJSON(ctx context.Context, baseURL string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return provider.NewError(ProviderName, "creating request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return provider.NewError(ProviderName, "executing request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return provider.NewError(ProviderName, "unexpected status "+strconv.Itoa(resp.StatusCode), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return provider.NewError(ProviderName, "decoding response", err)
	}

	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// Open-Meteo API response structures.

type currentResponse struct {
	Current struct {
		Temperature2m       *float64 `json:"temperature_2m"`
		RelativeHumidity2m  *float64 `json:"relative_humidity_2m"`
		WindSpeed10m        *float64 `json:"wind_speed_10m"`
		Precipitation       *float64 `json:"precipitation"`
		ApparentTemperature *float64 `json:"apparent_temperature"`
		SurfacePressure     *float64 `json:"surface_pressure"`
		Visibility          *float64 `json:"visibility"` // meters
		CloudCover          *float64 `json:"cloud_cover"`
		UVIndex             *float64 `json:"uv_index"`
		WeatherCode         *int     `json:"weather_code"`
	} `json:"current"`
	Daily struct {
		Sunrise []string `json:"sunrise"`
		Sunset  []string `json:"sunset"`
	} `json:"daily"`
}

func (r *currentResponse) toRecord() *weather.Record {
	cur := r.Current
	rec := &weather.Record{
		Source:      ProviderName,
		Temp:        cur.Temperature2m,
		FeelsLike:   cur.ApparentTemperature,
		Humidity:    cur.RelativeHumidity2m,
		WindSpeed:   cur.WindSpeed10m,
		Pressure:    cur.SurfacePressure,
		CloudCover:  cur.CloudCover,
		UVIndex:     cur.UVIndex,
		WeatherCode: cur.WeatherCode,
		LastUpdated: time.Now(),
		DataQuality: weather.DataQualityReliable,
	}

	// The forecast API reports instantaneous precipitation, not a
	// probability; collapse it to 100/0 as the dashboard expects.
	if cur.Precipitation != nil {
		if *cur.Precipitation > 0 {
			rec.RainProb = weather.Float(100)
		} else {
			rec.RainProb = weather.Float(0)
		}
	}

	if cur.Visibility != nil {
		rec.Visibility = weather.Float(*cur.Visibility / 1000)
	}

	if len(r.Daily.Sunrise) > 0 {
		rec.Sunrise = weather.Str(r.Daily.Sunrise[0])
	}
	if len(r.Daily.Sunset) > 0 {
		rec.Sunset = weather.Str(r.Daily.Sunset[0])
	}

	return rec
}

type archiveResponse struct {
	Daily struct {
		Time     []string   `json:"time"`
		TempMean []*float64 `json:"temperature_2m_mean"`
		RainSum  []*float64 `json:"rain_sum"`
	} `json:"daily"`
}
