package geo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/airlens/airlens/pkg/geo"
)

func TestHaversine(t *testing.T) {
	// New Delhi to Mumbai, roughly 1150 km.
	d := geo.Haversine(28.6139, 77.2090, 19.0760, 72.8777)
	assert.InDelta(t, 1150, d, 20)

	// Zero distance for identical points.
	assert.InDelta(t, 0, geo.Haversine(12.97, 77.59, 12.97, 77.59), 1e-9)

	// Symmetry.
	assert.InDelta(t,
		geo.Haversine(28.6139, 77.2090, 19.0760, 72.8777),
		geo.Haversine(19.0760, 72.8777, 28.6139, 77.2090),
		1e-9)
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, geo.ValidCoordinates(28.6, 77.2))
	assert.True(t, geo.ValidCoordinates(-90, 180))
	assert.False(t, geo.ValidCoordinates(91, 0))
	assert.False(t, geo.ValidCoordinates(0, -181))
}
