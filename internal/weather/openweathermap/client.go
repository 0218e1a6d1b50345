// Package openweathermap provides a client for the OpenWeatherMap
// current weather API, used for city snapshot refreshes.
package openweathermap

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
	// ProviderName identifies this weather provider. The upstream brands
	// itself OpenWeather in API responses and dashboards.
	ProviderName = "OpenWeather"

	// DefaultBaseURL is the OpenWeatherMap API base URL.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OpenWeatherMap client.
type ClientConfig struct {
	// APIKey is the OpenWeatherMap API key. Required.
	APIKey string

	// BaseURL overrides the API base URL (tests).
	BaseURL string

	// HTTPClient is the HTTP client to use. If nil, a default resilient
	// client is created.
	HTTPClient HTTPDoer
}

// Client is an OpenWeatherMap API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a new OpenWeatherMap client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig("openweathermap"))
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// Current fetches the current conditions for a coordinate.
func (c *Client) Current(ctx context.Context, lat, lon float64) (*weather.Record, error) {
	reqURL := fmt.Sprintf("%s/weather?lat=%f&lon=%f&appid=%s&units=metric", c.baseURL, lat, lon, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, provider.NewError(ProviderName, "creating request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, provider.NewError(ProviderName, "executing request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, provider.NewError(ProviderName, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var payload currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, provider.NewError(ProviderName, "decoding response", err)
	}

	return payload.toRecord(), nil
}

// OpenWeatherMap API response structures.

type currentResponse struct {
	Main struct {
		Temp      *float64 `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		Humidity  *float64 `json:"humidity"`
		Pressure  *float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
	Clouds struct {
		All *float64 `json:"all"`
	} `json:"clouds"`
	Visibility *float64 `json:"visibility"` // meters
}

func (r *currentResponse) toRecord() *weather.Record {
	rec := &weather.Record{
		Source:      ProviderName,
		Temp:        r.Main.Temp,
		FeelsLike:   r.Main.FeelsLike,
		Humidity:    r.Main.Humidity,
		Pressure:    r.Main.Pressure,
		WindSpeed:   r.Wind.Speed,
		CloudCover:  r.Clouds.All,
		LastUpdated: time.Now(),
		DataQuality: weather.DataQualityReliable,
	}

	// Cloud cover doubles as a crude rain likelihood on the free tier,
	// which exposes no precipitation probability.
	rec.RainProb = r.Clouds.All

	if r.Visibility != nil {
		rec.Visibility = weather.Float(*r.Visibility / 1000)
	}

	return rec
}
