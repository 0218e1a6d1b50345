// Package metno provides a client for the MET Norway Locationforecast
// API, used as a supplementary spot-check source.
package metno

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/airlens/airlens/internal/provider"
	"github.com/airlens/airlens/internal/provider/resilience"
	"github.com/airlens/airlens/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "met-norway"

	// DefaultBaseURL is the MET Norway API base URL.
	DefaultBaseURL = "https://api.met.no/weatherapi/locationforecast/2.0"

	// defaultUserAgent satisfies MET Norway's terms of service, which
	// reject anonymous clients.
	defaultUserAgent = "airlens/1.0 github.com/airlens/airlens"
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the MET Norway client.
type ClientConfig struct {
	// BaseURL overrides the API base URL (tests).
	BaseURL string

	// UserAgent overrides the identifying User-Agent header.
	UserAgent string

	// HTTPClient is the HTTP client to use. If nil, a default resilient
	// client is created.
	HTTPClient HTTPDoer
}

// Client is a MET Norway Locationforecast client.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient HTTPDoer
}

// NewClient creates a new MET Norway client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: httpClient,
	}
}

// Current fetches the nearest-hour conditions from the compact forecast.
func (c *Client) Current(ctx context.Context, lat, lon float64) (*weather.Record, error) {
	reqURL := fmt.Sprintf("%s/compact?lat=%f&lon=%f", c.baseURL, lat, lon)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, provider.NewError(ProviderName, "creating request", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, provider.NewError(ProviderName, "executing request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, provider.NewError(ProviderName, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var payload compactResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, provider.NewError(ProviderName, "decoding response", err)
	}

	if len(payload.Properties.Timeseries) == 0 {
		return nil, provider.NewError(ProviderName, "empty timeseries", weather.ErrNoData)
	}

	return payload.toRecord(), nil
}

// MET Norway API response structures.

type compactResponse struct {
	Properties struct {
		Timeseries []struct {
			Time time.Time `json:"time"`
			Data struct {
				Instant struct {
					Details struct {
						AirTemperature        *float64 `json:"air_temperature"`
						WindSpeed             *float64 `json:"wind_speed"`
						RelativeHumidity      *float64 `json:"relative_humidity"`
						AirPressureAtSeaLevel *float64 `json:"air_pressure_at_sea_level"`
						CloudAreaFraction     *float64 `json:"cloud_area_fraction"`
					} `json:"details"`
				} `json:"instant"`
			} `json:"data"`
		} `json:"timeseries"`
	} `json:"properties"`
}

func (r *compactResponse) toRecord() *weather.Record {
	entry := r.Properties.Timeseries[0]
	details := entry.Data.Instant.Details

	return &weather.Record{
		Source:      ProviderName,
		Temp:        details.AirTemperature,
		WindSpeed:   details.WindSpeed,
		Humidity:    details.RelativeHumidity,
		Pressure:    details.AirPressureAtSeaLevel,
		CloudCover:  details.CloudAreaFraction,
		LastUpdated: entry.Time,
		DataQuality: weather.DataQualityReliable,
	}
}
