// Package visualcrossing provides a client for the Visual Crossing
// Timeline API, the secondary historical data source.
package visualcrossing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/airlens/airlens/internal/provider"
	"github.com/airlens/airlens/internal/provider/resilience"
	"github.com/airlens/airlens/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "visual-crossing"

	// DefaultBaseURL is the Visual Crossing Timeline API base URL.
	DefaultBaseURL = "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline"
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Visual Crossing client.
type ClientConfig struct {
	// APIKey is the Visual Crossing API key. Required.
	APIKey string

	// BaseURL overrides the API base URL (tests).
	BaseURL string

	// HTTPClient is the HTTP client to use. If nil, a default resilient
	// client is created.
	HTTPClient HTTPDoer
}

// Client is a Visual Crossing Timeline API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a new Visual Crossing client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// Timeline fetches the daily series for an inclusive date range. Unlike
// the archive provider, Visual Crossing serves data right up to the
// current day, so the range is passed through unclamped.
func (c *Client) Timeline(ctx context.Context, lat, lon float64, start, end string) ([]weather.TimelineDay, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("unitGroup", "metric")
	params.Set("include", "days")
	params.Set("elements", "datetime,temp,precip,aqi")

	reqURL := fmt.Sprintf("%s/%f,%f/%s/%s?%s", c.baseURL, lat, lon, start, end, params.Encode())

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

	var payload timelineResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, provider.NewError(ProviderName, "decoding response", err)
	}

	days := make([]weather.TimelineDay, 0, len(payload.Days))
	for _, d := range payload.Days {
		days = append(days, weather.TimelineDay{
			Date:   d.Datetime,
			Temp:   d.Temp,
			Precip: d.Precip,
			AQI:    d.AQI,
		})
	}

	return days, nil
}

// Visual Crossing API response structures.

type timelineResponse struct {
	Days []struct {
		Datetime string   `json:"datetime"`
		Temp     *float64 `json:"temp"`
		Precip   *float64 `json:"precip"`
		AQI      *float64 `json:"aqi"`
	} `json:"days"`
}
