package metno

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airlens/airlens/internal/aggregate"
	"github.com/airlens/airlens/internal/weather"
)

// The client backs the met-norway endpoint through the aggregation layer.
var _ aggregate.SpotProvider = (*Client)(nil)

func TestCurrent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(`{
			"properties": {
				"timeseries": [
					{
						"time": "2026-08-31T12:00:00Z",
						"data": {
							"instant": {
								"details": {
									"air_temperature": 27.8,
									"wind_speed": 3.4,
									"relative_humidity": 68.5,
									"air_pressure_at_sea_level": 1008.2,
									"cloud_area_fraction": 55.0
								}
							}
						}
					},
					{
						"time": "2026-08-31T13:00:00Z",
						"data": {"instant": {"details": {"air_temperature": 28.9}}}
					}
				]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, HTTPClient: http.DefaultClient})

	rec, err := client.Current(context.Background(), 28.6139, 77.209)
	require.NoError(t, err)

	assert.Equal(t, ProviderName, rec.Source)
	require.NotNil(t, rec.Temp)
	assert.Equal(t, 27.8, *rec.Temp) // first timeseries entry only
	require.NotNil(t, rec.Pressure)
	assert.Equal(t, 1008.2, *rec.Pressure)
	assert.Equal(t, time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC), rec.LastUpdated)
}

func TestCurrentEmptyTimeseries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"properties": {"timeseries": []}}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, HTTPClient: http.DefaultClient})

	_, err := client.Current(context.Background(), 28.6139, 77.209)
	require.ErrorIs(t, err, weather.ErrNoData)
}

func TestCurrentForbidden(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, HTTPClient: http.DefaultClient})

	_, err := client.Current(context.Background(), 28.6139, 77.209)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
