package openweathermap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airlens/airlens/internal/snapshot"
)

// The client is the weather side of snapshot refreshes.
var _ snapshot.WeatherProvider = (*Client)(nil)

func TestCurrent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "appid=test-key")
		assert.Contains(t, r.URL.RawQuery, "units=metric")
		w.Write([]byte(`{
			"main": {"temp": 30.2, "feels_like": 34.0, "humidity": 70, "pressure": 1004},
			"wind": {"speed": 4.6},
			"clouds": {"all": 75},
			"visibility": 6000
		}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{APIKey: "test-key", BaseURL: server.URL, HTTPClient: http.DefaultClient})

	rec, err := client.Current(context.Background(), 19.076, 72.8777)
	require.NoError(t, err)

	assert.Equal(t, ProviderName, rec.Source)
	require.NotNil(t, rec.Temp)
	assert.Equal(t, 30.2, *rec.Temp)
	require.NotNil(t, rec.FeelsLike)
	assert.Equal(t, 34.0, *rec.FeelsLike)
	require.NotNil(t, rec.RainProb)
	assert.Equal(t, 75.0, *rec.RainProb)
	require.NotNil(t, rec.CloudCover)
	assert.Equal(t, 75.0, *rec.CloudCover)
	require.NotNil(t, rec.Visibility)
	assert.Equal(t, 6.0, *rec.Visibility)
}

func TestCurrentUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{APIKey: "bad", BaseURL: server.URL, HTTPClient: http.DefaultClient})

	_, err := client.Current(context.Background(), 19.076, 72.8777)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestCurrentPartialPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"main": {"temp": 21.0}}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{APIKey: "test-key", BaseURL: server.URL, HTTPClient: http.DefaultClient})

	rec, err := client.Current(context.Background(), 19.076, 72.8777)
	require.NoError(t, err)
	require.NotNil(t, rec.Temp)
	assert.Nil(t, rec.WindSpeed)
	assert.Nil(t, rec.Visibility)
	assert.Nil(t, rec.RainProb)
}
