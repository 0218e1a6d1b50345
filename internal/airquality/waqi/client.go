// Package waqi provides a client for the World Air Quality Index
// project's station feed API.
package waqi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/airlens/airlens/internal/airquality"
	"github.com/airlens/airlens/internal/provider"
	"github.com/airlens/airlens/internal/provider/resilience"
)

const (
	// ProviderName identifies this air quality provider.
	ProviderName = "WAQI"

	// DefaultBaseURL is the WAQI API base URL.
	DefaultBaseURL = "https://api.waqi.info"
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the WAQI client.
type ClientConfig struct {
	// Token is the WAQI API token. Required.
	Token string

	// BaseURL overrides the API base URL (tests).
	BaseURL string

	// HTTPClient is the HTTP client to use. If nil, a default resilient
	// client is created.
	HTTPClient HTTPDoer
}

// Client is a WAQI feed API client.
type Client struct {
	token      string
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a new WAQI client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig("waqi"))
	}

	return &Client{
		token:      cfg.Token,
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// NearestFeed fetches the observation from the monitoring station nearest
// to a coordinate. WAQI signals failures with HTTP 200 and a non-ok
// status field, which is surfaced as a provider error.
func (c *Client) NearestFeed(ctx context.Context, lat, lon float64) (*airquality.FeedObservation, error) {
	reqURL := fmt.Sprintf("%s/feed/geo:%f;%f/?token=%s", c.baseURL, lat, lon, c.token)

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

	var payload feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, provider.NewError(ProviderName, "decoding response", err)
	}

	// On failure the data field degrades to a bare error string, so it
	// is only unmarshalled once the status is known good.
	if payload.Status != "ok" {
		return nil, provider.NewError(ProviderName, "feed status "+payload.Status, airquality.ErrNoData)
	}

	var data feedData
	if err := json.Unmarshal(payload.Data, &data); err != nil {
		return nil, provider.NewError(ProviderName, "decoding feed data", err)
	}

	return data.toObservation(), nil
}

// WAQI API response structures.

type feedResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type feedData struct {
	AQI  int `json:"aqi"`
	City struct {
		Name string `json:"name"`
	} `json:"city"`
	Time struct {
		S string `json:"s"`
	} `json:"time"`
	Attributions []struct {
		Name string `json:"name"`
	} `json:"attributions"`
}

func (d *feedData) toObservation() *airquality.FeedObservation {
	source := ProviderName
	if len(d.Attributions) > 0 && d.Attributions[0].Name != "" {
		source = d.Attributions[0].Name
	}

	return &airquality.FeedObservation{
		AQI:         d.AQI,
		Station:     d.City.Name,
		LastUpdated: d.Time.S,
		Source:      source,
	}
}
