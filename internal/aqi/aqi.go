// Package aqi converts pollutant concentrations into Air Quality Index
// values. Two formulas coexist on purpose: the EPA piecewise-linear
// breakpoint method used by the city comparison path, and a crude linear
// approximation used by the live proxy endpoints. They produce different
// numbers for the same PM2.5 reading and both are part of the API contract,
// so neither may be substituted for the other.
package aqi

import (
	"errors"
	"math"
)

// ErrNoPollutants is returned by Overall when no pollutant is present.
var ErrNoPollutants = errors.New("no pollutant concentrations provided")

// Pollutant identifies a pollutant species.
type Pollutant string

const (
	PM25 Pollutant = "PM25"
	PM10 Pollutant = "PM10"
	O3   Pollutant = "O3"
	NO2  Pollutant = "NO2"
	SO2  Pollutant = "SO2"
	CO   Pollutant = "CO"
)

// MaxIndex is the ceiling of the AQI scale.
const MaxIndex = 500

// breakpoint maps a concentration band onto an index band.
type breakpoint struct {
	cLo, cHi float64
	iLo, iHi int
}

// EPA breakpoint tables, six bands from Good to Hazardous.
// Concentrations in µg/m³.
var breakpoints = map[Pollutant][]breakpoint{
	PM25: {
		{0, 12, 0, 50},
		{12.1, 35.4, 51, 100},
		{35.5, 55.4, 101, 150},
		{55.5, 150.4, 151, 200},
		{150.5, 250.4, 201, 300},
		{250.5, 500, 301, 500},
	},
	PM10: {
		{0, 54, 0, 50},
		{55, 154, 51, 100},
		{155, 254, 101, 150},
		{255, 354, 151, 200},
		{355, 424, 201, 300},
		{425, 604, 301, 500},
	},
}

// SubIndex computes the EPA sub-index for a single pollutant concentration.
// Concentrations above the top band return MaxIndex. Pollutants without a
// breakpoint table return 0; callers must not let that dominate an aggregate.
func SubIndex(value float64, pollutant Pollutant) int {
	table, ok := breakpoints[pollutant]
	if !ok {
		return 0
	}

	for _, bp := range table {
		if value >= bp.cLo && value <= bp.cHi {
			index := float64(bp.iHi-bp.iLo)/(bp.cHi-bp.cLo)*(value-bp.cLo) + float64(bp.iLo)
			return int(math.Round(index))
		}
	}

	return MaxIndex
}

// Overall computes the combined AQI as the maximum sub-index over the
// pollutants present, per EPA convention: the worst pollutant governs.
func Overall(concentrations map[Pollutant]float64) (int, error) {
	if len(concentrations) == 0 {
		return 0, ErrNoPollutants
	}

	worst := 0
	for pollutant, value := range concentrations {
		if sub := SubIndex(value, pollutant); sub > worst {
			worst = sub
		}
	}
	return worst, nil
}

// EstimateLinear approximates AQI from PM2.5 alone as round(min(pm25*4, 500)).
// This is the fast formula used by the live proxy endpoints when only PM2.5
// is available; it is deliberately cruder than SubIndex and kept separate
// for response compatibility.
func EstimateLinear(pm25 float64) int {
	index := pm25 * 4
	if index > MaxIndex {
		index = MaxIndex
	}
	return int(math.Round(index))
}

// Category describes an AQI band with its display color and health advisory.
type Category struct {
	Label    string `json:"label"`
	Color    string `json:"color"`
	Advisory string `json:"advice"`
}

// CategoryFor maps an AQI value onto its EPA category. Total over [0, ∞).
func CategoryFor(index int) Category {
	switch {
	case index <= 50:
		return Category{Label: "Good", Color: "green", Advisory: "Air quality is satisfactory"}
	case index <= 100:
		return Category{Label: "Moderate", Color: "yellow", Advisory: "Members of sensitive groups may be affected"}
	case index <= 150:
		return Category{Label: "Unhealthy for Sensitive Groups", Color: "orange", Advisory: "Sensitive groups should take precautions"}
	case index <= 200:
		return Category{Label: "Unhealthy", Color: "red", Advisory: "Everyone may begin to experience health effects"}
	case index <= 300:
		return Category{Label: "Very Unhealthy", Color: "purple", Advisory: "Health alert: The entire population is more likely to be affected"}
	default:
		return Category{Label: "Hazardous", Color: "maroon", Advisory: "Health warning of emergency conditions: everyone is more likely to be affected"}
	}
}
