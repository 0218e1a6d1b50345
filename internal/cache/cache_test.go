package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airlens/airlens/internal/cache"
)

func TestCache_RoundTrip(t *testing.T) {
	c := cache.New(time.Hour)

	c.Set("k", "v")
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestCache_MissOnUnknownKey(t *testing.T) {
	c := cache.New(time.Hour)

	_, ok := c.Get("absent")
	assert.False(t, ok)
}

func TestCache_ExpiredEntryNeverReturned(t *testing.T) {
	c := cache.New(time.Hour)

	c.SetTTL("k", 42, 15*time.Millisecond)
	_, ok := c.Get("k")
	require.True(t, ok)

	time.Sleep(30 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok, "expired entries must be treated as absent")
}

func TestCache_SetRenewsExpiry(t *testing.T) {
	c := cache.New(time.Hour)

	c.SetTTL("k", "old", 15*time.Millisecond)
	c.Set("k", "new")

	time.Sleep(30 * time.Millisecond)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", got)
}

func TestCache_Flush(t *testing.T) {
	c := cache.New(time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Flush()

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestCache_Stats(t *testing.T) {
	c := cache.New(time.Hour)
	c.Set("a", 1)
	c.SetTTL("b", 2, 10*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	stats := c.Stats()
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, 1, stats.Live)
}

func TestKey_Deterministic(t *testing.T) {
	k1 := cache.Key("weather-current", 28.6139, 77.209)
	k2 := cache.Key("weather-current", 28.6139, 77.209)
	assert.Equal(t, k1, k2)

	assert.NotEqual(t, k1, cache.Key("weather-current", 28.6139, 77.21))
	assert.NotEqual(t, k1, cache.Key("aqi-current", 28.6139, 77.209))
	assert.NotEqual(t,
		cache.Key("historical", 28.6139, 77.209, "2024-01-01", "2024-01-31"),
		cache.Key("historical", 28.6139, 77.209, "2024-01-01", "2024-02-01"))
}

func TestQueryKey(t *testing.T) {
	assert.Equal(t, "search-delhi", cache.QueryKey("search", "delhi"))
	assert.NotEqual(t, cache.QueryKey("search", "delhi"), cache.QueryKey("search", "mumbai"))
}
