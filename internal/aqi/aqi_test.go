package aqi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airlens/airlens/internal/aqi"
)

func TestSubIndex_PM25Anchors(t *testing.T) {
	assert.Equal(t, 0, aqi.SubIndex(0, aqi.PM25))
	assert.Equal(t, 50, aqi.SubIndex(12, aqi.PM25))
	assert.Equal(t, 100, aqi.SubIndex(35.4, aqi.PM25))
	assert.Equal(t, 150, aqi.SubIndex(55.4, aqi.PM25))
	assert.Equal(t, 200, aqi.SubIndex(150.4, aqi.PM25))
	assert.Equal(t, 300, aqi.SubIndex(250.4, aqi.PM25))
	assert.Equal(t, 500, aqi.SubIndex(500, aqi.PM25))
}

func TestSubIndex_AboveTopBand(t *testing.T) {
	assert.Equal(t, 500, aqi.SubIndex(1200, aqi.PM25))
	assert.Equal(t, 500, aqi.SubIndex(700, aqi.PM10))
}

func TestSubIndex_Monotonic(t *testing.T) {
	prev := -1
	for v := 0.0; v <= 520; v += 0.5 {
		cur := aqi.SubIndex(v, aqi.PM25)
		assert.GreaterOrEqual(t, cur, prev, "sub-index must not decrease at %v", v)
		prev = cur
	}
}

func TestSubIndex_UnknownPollutant(t *testing.T) {
	assert.Equal(t, 0, aqi.SubIndex(100, aqi.O3))
	assert.Equal(t, 0, aqi.SubIndex(100, aqi.CO))
}

func TestOverall_WorstPollutantGoverns(t *testing.T) {
	got, err := aqi.Overall(map[aqi.Pollutant]float64{
		aqi.PM25: 40,  // band 101-150
		aqi.PM10: 100, // band 51-100
	})
	require.NoError(t, err)
	assert.Equal(t, aqi.SubIndex(40, aqi.PM25), got)

	// Order independence: same map, worst still wins.
	got2, err := aqi.Overall(map[aqi.Pollutant]float64{
		aqi.PM10: 100,
		aqi.PM25: 40,
	})
	require.NoError(t, err)
	assert.Equal(t, got, got2)
}

func TestOverall_NoPollutants(t *testing.T) {
	_, err := aqi.Overall(nil)
	assert.ErrorIs(t, err, aqi.ErrNoPollutants)
}

func TestEstimateLinear(t *testing.T) {
	tests := []struct {
		pm25 float64
		want int
	}{
		{0, 0},
		{12.5, 50},
		{25, 100},
		{125, 500},
		{150, 500}, // clamped
		{1000, 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, aqi.EstimateLinear(tt.pm25), "pm25=%v", tt.pm25)
	}
}

func TestEstimateLinear_DivergesFromBreakpoints(t *testing.T) {
	// The two formulas intentionally disagree; make sure nobody "fixes" that.
	assert.NotEqual(t, aqi.EstimateLinear(35.4), aqi.SubIndex(35.4, aqi.PM25))
}

func TestCategoryFor_Boundaries(t *testing.T) {
	assert.Equal(t, "Good", aqi.CategoryFor(50).Label)
	assert.Equal(t, "Moderate", aqi.CategoryFor(51).Label)
	assert.Equal(t, "Unhealthy for Sensitive Groups", aqi.CategoryFor(150).Label)
	assert.Equal(t, "Unhealthy", aqi.CategoryFor(200).Label)
	assert.Equal(t, "Very Unhealthy", aqi.CategoryFor(300).Label)
	assert.Equal(t, "Hazardous", aqi.CategoryFor(301).Label)
	assert.Equal(t, "maroon", aqi.CategoryFor(999).Color)
}
