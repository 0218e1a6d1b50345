package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airlens/airlens/internal/airquality"
	"github.com/airlens/airlens/internal/snapshot"
	"github.com/airlens/airlens/internal/weather"
)

type stubSnapWeather struct{}

func (stubSnapWeather) Current(ctx context.Context, lat, lon float64) (*weather.Record, error) {
	return &weather.Record{Source: "OpenWeather", Temp: weather.Float(30.0)}, nil
}

type stubSnapAQ struct{}

func (stubSnapAQ) Current(ctx context.Context, lat, lon float64) (*airquality.Record, error) {
	return &airquality.Record{Source: "open-meteo", AQI: 120}, nil
}

func newCityHandler(t *testing.T) (*CityHandler, *snapshot.MemoryRepository) {
	t.Helper()
	repo := snapshot.NewMemoryRepository()
	svc := snapshot.NewService(snapshot.ServiceConfig{
		Repo:       repo,
		Weather:    stubSnapWeather{},
		AirQuality: stubSnapAQ{},
		Logger:     zerolog.Nop(),
	})
	return NewCityHandler(svc, zerolog.Nop()), repo
}

func seedSnapshot(t *testing.T, repo *snapshot.MemoryRepository, id int64, name string) {
	t.Helper()
	require.NoError(t, repo.Save(context.Background(), &snapshot.CitySnapshot{
		CityID:       id,
		Name:         name,
		Weather:      []weather.Record{{Temp: weather.Float(25.0)}},
		AQI:          []airquality.Record{{AQI: 90}},
		LastSyncedAt: time.Now(),
	}))
}

func TestCityList(t *testing.T) {
	h, repo := newCityHandler(t)
	seedSnapshot(t, repo, 1, "Delhi")
	seedSnapshot(t, repo, 2, "Mumbai")

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/v1/cities", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, float64(2), body["count"])
}

func TestCitySearchMissingQuery(t *testing.T) {
	h, _ := newCityHandler(t)

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/v1/cities/search", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Search query required", decodeEnvelope(t, rec)["message"])
}

func TestCitySearch(t *testing.T) {
	h, repo := newCityHandler(t)
	seedSnapshot(t, repo, 1, "Delhi")
	seedSnapshot(t, repo, 2, "New Delhi")
	seedSnapshot(t, repo, 3, "Mumbai")

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/v1/cities/search?q=delhi", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), decodeEnvelope(t, rec)["count"])
}

func TestCitySearchLimit(t *testing.T) {
	h, repo := newCityHandler(t)
	seedSnapshot(t, repo, 1, "Delhi")
	seedSnapshot(t, repo, 2, "New Delhi")

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/v1/cities/search?q=delhi&limit=1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeEnvelope(t, rec)["count"])
}

func TestCityGetNotFound(t *testing.T) {
	h, _ := newCityHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/cities/42", nil)
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("cityId", "42")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))

	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "City not found", decodeEnvelope(t, rec)["message"])
}

func TestCityGet(t *testing.T) {
	h, repo := newCityHandler(t)
	seedSnapshot(t, repo, 1273294, "Delhi")

	req := httptest.NewRequest(http.MethodGet, "/v1/cities/1273294", nil)
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("cityId", "1273294")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))

	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.Equal(t, "Delhi", data["name"])
}

func TestCityCompareTooFew(t *testing.T) {
	h, _ := newCityHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/cities/compare", strings.NewReader(`{"cityIds": [1]}`))
	rec := httptest.NewRecorder()
	h.Compare(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "At least 2 cities required for comparison", decodeEnvelope(t, rec)["message"])
}

func TestCityCompareMissing(t *testing.T) {
	h, repo := newCityHandler(t)
	seedSnapshot(t, repo, 1, "Delhi")

	req := httptest.NewRequest(http.MethodPost, "/v1/cities/compare", strings.NewReader(`{"cityIds": [1, 999]}`))
	rec := httptest.NewRecorder()
	h.Compare(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Some cities not found", decodeEnvelope(t, rec)["message"])
}

func TestCityCompare(t *testing.T) {
	h, repo := newCityHandler(t)
	seedSnapshot(t, repo, 1, "Delhi")
	seedSnapshot(t, repo, 2, "Mumbai")

	req := httptest.NewRequest(http.MethodPost, "/v1/cities/compare", strings.NewReader(`{"cityIds": [1, 2]}`))
	rec := httptest.NewRecorder()
	h.Compare(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	cities := data["cities"].([]any)
	assert.Len(t, cities, 2)
}

func TestCityCompareByPath(t *testing.T) {
	h, repo := newCityHandler(t)
	seedSnapshot(t, repo, 1, "Delhi")
	seedSnapshot(t, repo, 2, "Mumbai")

	req := httptest.NewRequest(http.MethodGet, "/v1/cities/compare/1,2", nil)
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("cityIds", "1,2")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))

	rec := httptest.NewRecorder()
	h.CompareByPath(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.Len(t, data["cities"].([]any), 2)
}

func TestCityCompareByPathInvalidID(t *testing.T) {
	h, _ := newCityHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/cities/compare/1,abc", nil)
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("cityIds", "1,abc")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))

	rec := httptest.NewRecorder()
	h.CompareByPath(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid city id", decodeEnvelope(t, rec)["message"])
}

func TestCityTrack(t *testing.T) {
	h, repo := newCityHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/cities",
		strings.NewReader(`{"id": 1275339, "name": "Mumbai", "lat": 19.07283, "lon": 72.88261, "country": "India"}`))
	rec := httptest.NewRecorder()
	h.Track(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	stored, err := repo.Get(context.Background(), 1275339)
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", stored.Name)
	assert.Len(t, stored.Weather, 1)
}

func TestCityTrackInvalidBody(t *testing.T) {
	h, _ := newCityHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/cities", strings.NewReader(`{"name": ""}`))
	rec := httptest.NewRecorder()
	h.Track(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
