// Package openmeteo provides a client for the Open-Meteo air quality API.
package openmeteo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/airlens/airlens/internal/airquality"
	"github.com/airlens/airlens/internal/aqi"
	"github.com/airlens/airlens/internal/provider"
	"github.com/airlens/airlens/internal/provider/resilience"
)

const (
	// ProviderName identifies this air quality provider.
	ProviderName = "open-meteo"

	// DefaultBaseURL is the Open-Meteo air quality API base URL.
	DefaultBaseURL = "https://air-quality-api.open-meteo.com/v1/air-quality"
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Open-Meteo air quality client.
type ClientConfig struct {
	// BaseURL overrides the API base URL (tests).
	BaseURL string

	// HTTPClient is the HTTP client to use. If nil, a default resilient
	// client is created.
	HTTPClient HTTPDoer
}

// Client is an Open-Meteo air quality API client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a new Open-Meteo air quality client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig("open-meteo-aq"))
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// Current fetches current pollutant concentrations and derives the AQI
// from PM2.5 using the dashboard's linear estimate.
func (c *Client) Current(ctx context.Context, lat, lon float64) (*airquality.Record, error) {
	params := url.Values{}
	params.Set("latitude", formatCoord(lat))
	params.Set("longitude", formatCoord(lon))
	params.Set("current", "pm2_5,pm10,ozone,nitrogen_dioxide,sulphur_dioxide,carbon_monoxide")
	params.Set("timezone", "auto")

	var payload currentResponse
	if err := c.getJSON(ctx, params, &payload); err != nil {
		return nil, err
	}

	return payload.toRecord(), nil
}

// HourlyPM25 fetches the hourly PM2.5 series for an inclusive date range.
func (c *Client) HourlyPM25(ctx context.Context, lat, lon float64, start, end string) (*airquality.HourlySeries, error) {
	params := url.Values{}
	params.Set("latitude", formatCoord(lat))
	params.Set("longitude", formatCoord(lon))
	params.Set("start_date", start)
	params.Set("end_date", end)
	params.Set("hourly", "pm2_5")
	params.Set("timezone", "UTC")

	var payload struct {
		Hourly struct {
			Time []string   `json:"time"`
			PM25 []*float64 `json:"pm2_5"`
		} `json:"hourly"`
	}
	if err := c.getJSON(ctx, params, &payload); err != nil {
		return nil, err
	}

	return &airquality.HourlySeries{
		Time:   payload.Hourly.Time,
		Values: payload.Hourly.PM25,
	}, nil
}

// Forecast fetches the multi-pollutant hourly forecast for the next
// days days.
func (c *Client) Forecast(ctx context.Context, lat, lon float64, days int) (*airquality.ForecastSeries, error) {
	params := url.Values{}
	params.Set("latitude", formatCoord(lat))
	params.Set("longitude", formatCoord(lon))
	params.Set("hourly", "pm2_5,pm10,european_aqi")
	params.Set("forecast_days", strconv.Itoa(days))
	params.Set("timezone", "auto")

	var payload struct {
		Hourly airquality.ForecastSeries `json:"hourly"`
	}
	if err := c.getJSON(ctx, params, &payload); err != nil {
		return nil, err
	}

	return &payload.Hourly, nil
}

func (c *Client) getJSON(ctx context.Context, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), http.NoBody)
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

// Open-Meteo air quality API response structures.

type currentResponse struct {
	Current struct {
		PM25           *float64 `json:"pm2_5"`
		PM10           *float64 `json:"pm10"`
		Ozone          *float64 `json:"ozone"`
		NitrogenDiox   *float64 `json:"nitrogen_dioxide"`
		SulphurDiox    *float64 `json:"sulphur_dioxide"`
		CarbonMonoxide *float64 `json:"carbon_monoxide"`
	} `json:"current"`
}

func (r *currentResponse) toRecord() *airquality.Record {
	cur := r.Current

	rec := &airquality.Record{
		Source:      ProviderName,
		PM25:        cur.PM25,
		PM10:        cur.PM10,
		O3:          cur.Ozone,
		NO2:         cur.NitrogenDiox,
		SO2:         cur.SulphurDiox,
		CO:          cur.CarbonMonoxide,
		DataQuality: airquality.DataQualityReliable,
		LastUpdated: time.Now(),
	}

	// Open-Meteo reports concentrations only. The dashboard derives a
	// headline index from PM2.5 with the linear estimate rather than the
	// EPA interpolation, and the two deliberately stay separate.
	if cur.PM25 != nil {
		rec.AQI = aqi.EstimateLinear(*cur.PM25)
	}
	rec.HealthAdvisory = aqi.CategoryFor(rec.AQI).Advisory

	return rec
}
