// Package openmeteo provides a client for the Open-Meteo geocoding API.
package openmeteo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/airlens/airlens/internal/geocoding"
	"github.com/airlens/airlens/internal/provider"
	"github.com/airlens/airlens/internal/provider/resilience"
)

const (
	// ProviderName identifies this geocoding provider.
	ProviderName = "open-meteo-geocoding"

	// DefaultBaseURL is the Open-Meteo geocoding API base URL.
	DefaultBaseURL = "https://geocoding-api.open-meteo.com/v1/search"

	// DefaultCountryCode restricts results to the dashboard's home
	// market.
	DefaultCountryCode = "IN"
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the geocoding client.
type ClientConfig struct {
	// BaseURL overrides the API base URL (tests).
	BaseURL string

	// CountryCode filters search results to one country. Empty disables
	// the filter. Defaults to DefaultCountryCode.
	CountryCode string

	// NoCountryFilter disables the country filter entirely.
	NoCountryFilter bool

	// HTTPClient is the HTTP client to use. If nil, a default resilient
	// client is created.
	HTTPClient HTTPDoer
}

// Client is an Open-Meteo geocoding API client.
type Client struct {
	baseURL     string
	countryCode string
	httpClient  HTTPDoer
}

// NewClient creates a new geocoding client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	countryCode := cfg.CountryCode
	if countryCode == "" && !cfg.NoCountryFilter {
		countryCode = DefaultCountryCode
	}
	if cfg.NoCountryFilter {
		countryCode = ""
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		baseURL:     baseURL,
		countryCode: countryCode,
		httpClient:  httpClient,
	}
}

// Search looks up cities by name prefix, filtered to the configured
// country.
func (c *Client) Search(ctx context.Context, query string) ([]geocoding.City, error) {
	params := url.Values{}
	params.Set("name", query)
	params.Set("count", "10")
	params.Set("language", "en")
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, provider.NewError(ProviderName, "creating request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, provider.NewError(ProviderName, "executing request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, provider.NewError(ProviderName, "unexpected status "+strconv.Itoa(resp.StatusCode), nil)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, provider.NewError(ProviderName, "decoding response", err)
	}

	cities := make([]geocoding.City, 0, len(payload.Results))
	for _, r := range payload.Results {
		if c.countryCode != "" && r.CountryCode != c.countryCode {
			continue
		}
		cities = append(cities, geocoding.City{
			ID:      r.ID,
			Name:    r.Name,
			Lat:     r.Latitude,
			Lon:     r.Longitude,
			State:   r.Admin1,
			Country: r.Country,
		})
	}

	return cities, nil
}

// Open-Meteo geocoding API response structures.

type searchResponse struct {
	Results []struct {
		ID          int64   `json:"id"`
		Name        string  `json:"name"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		CountryCode string  `json:"country_code"`
		Country     string  `json:"country"`
		Admin1      string  `json:"admin1"`
	} `json:"results"`
}
