// Package geocoding defines the city search result type shared by
// geocoding providers.
package geocoding

// City is a geocoded place returned by city search.
type City struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	State   string  `json:"state,omitempty"`
	Country string  `json:"country,omitempty"`
}
