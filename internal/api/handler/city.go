package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/airlens/airlens/internal/api/response"
	"github.com/airlens/airlens/internal/geocoding"
	"github.com/airlens/airlens/internal/snapshot"
)

// CityHandler handles the tracked city endpoints.
type CityHandler struct {
	service *snapshot.Service
	logger  zerolog.Logger
}

// NewCityHandler creates a new CityHandler.
func NewCityHandler(service *snapshot.Service, logger zerolog.Logger) *CityHandler {
	return &CityHandler{
		service: service,
		logger:  logger,
	}
}

// List handles GET /v1/cities.
func (h *CityHandler) List(w http.ResponseWriter, r *http.Request) {
	cities, err := h.service.ListCities(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("listing cities failed")
		response.InternalError(w, r, err.Error())
		return
	}
	response.OKCount(w, r, cities, len(cities))
}

// Search handles GET /v1/cities/search?q&limit. The query parameter is
// accepted as q or query.
func (h *CityHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		query = r.URL.Query().Get("query")
	}
	if query == "" {
		response.BadRequest(w, r, "Search query required")
		return
	}

	cities, err := h.service.SearchCities(r.Context(), query)
	if err != nil {
		h.logger.Error().Err(err).Msg("searching cities failed")
		response.InternalError(w, r, err.Error())
		return
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, convErr := strconv.Atoi(limitStr); convErr == nil && limit > 0 && limit < len(cities) {
			cities = cities[:limit]
		}
	}
	response.OKCount(w, r, cities, len(cities))
}

// Get handles GET /v1/cities/{cityId}.
func (h *CityHandler) Get(w http.ResponseWriter, r *http.Request) {
	cityID, err := strconv.ParseInt(chi.URLParam(r, "cityId"), 10, 64)
	if err != nil {
		response.BadRequest(w, r, "Invalid city id")
		return
	}

	snap, err := h.service.GetCity(r.Context(), cityID)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			response.NotFound(w, r, "City not found")
			return
		}
		h.logger.Error().Err(err).Int64("city_id", cityID).Msg("fetching city failed")
		response.InternalError(w, r, err.Error())
		return
	}
	response.OK(w, r, snap)
}

// Track handles POST /v1/cities - start tracking a city.
func (h *CityHandler) Track(w http.ResponseWriter, r *http.Request) {
	var input geocoding.City
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "Invalid JSON body")
		return
	}
	if input.ID == 0 || input.Name == "" {
		response.BadRequest(w, r, "City id and name required")
		return
	}

	snap, err := h.service.Track(r.Context(), input)
	if err != nil {
		h.logger.Error().Err(err).Int64("city_id", input.ID).Msg("tracking city failed")
		response.InternalError(w, r, err.Error())
		return
	}
	response.OK(w, r, snap)
}

type compareRequest struct {
	CityIDs []int64 `json:"cityIds"`
}

// Compare handles POST /v1/cities/compare.
func (h *CityHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var input compareRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "Invalid JSON body")
		return
	}
	h.compare(w, r, input.CityIDs)
}

// CompareByPath handles GET /v1/cities/compare/{cityIds} with a
// comma-separated id list.
func (h *CityHandler) CompareByPath(w http.ResponseWriter, r *http.Request) {
	var cityIDs []int64
	for _, part := range strings.Split(chi.URLParam(r, "cityIds"), ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			response.BadRequest(w, r, "Invalid city id")
			return
		}
		cityIDs = append(cityIDs, id)
	}
	h.compare(w, r, cityIDs)
}

func (h *CityHandler) compare(w http.ResponseWriter, r *http.Request, cityIDs []int64) {
	if len(cityIDs) < 2 {
		response.BadRequest(w, r, "At least 2 cities required for comparison")
		return
	}

	cmp, err := h.service.Compare(r.Context(), cityIDs)
	if err != nil {
		if errors.Is(err, snapshot.ErrCitiesMissing) {
			response.NotFound(w, r, "Some cities not found")
			return
		}
		h.logger.Error().Err(err).Msg("comparing cities failed")
		response.InternalError(w, r, err.Error())
		return
	}
	response.OK(w, r, cmp)
}
