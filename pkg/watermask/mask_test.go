package watermask

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudscreen/pkg/raster"
)

func TestFromPercent(t *testing.T) {
	assert.Equal(t, Land, FromPercent(0))
	assert.Equal(t, Water, FromPercent(100))
	assert.Equal(t, Fraction(43), FromPercent(42.6))
	assert.Equal(t, Invalid, FromPercent(101))
	assert.Equal(t, Invalid, FromPercent(-1))
	assert.Equal(t, Invalid, FromPercent(math.NaN()))
	assert.False(t, Fraction(101).Valid())
	assert.True(t, Fraction(100).Valid())
}

func TestGridAndBinary(t *testing.T) {
	r, err := raster.FromSlice([]float64{0, 50, 100, 200}, 2, 2)
	require.NoError(t, err)
	g := NewGrid(r)
	assert.Equal(t, Land, g.FractionAt(0, 0))
	assert.Equal(t, Fraction(50), g.FractionAt(1, 0))
	assert.Equal(t, Water, g.FractionAt(0, 1))
	assert.Equal(t, Invalid, g.FractionAt(1, 1))
	assert.Equal(t, Invalid, g.FractionAt(2, 0))
	assert.Equal(t, Invalid, g.FractionAt(-1, 0))

	b := &Binary{Water: []bool{true, false}, Width: 2, Height: 1}
	assert.Equal(t, Water, b.FractionAt(0, 0))
	assert.Equal(t, Land, b.FractionAt(1, 0))
	assert.Equal(t, Invalid, b.FractionAt(0, 1))

	_, err = GridFromFractions([]Fraction{1, 2, 3}, 2, 2)
	assert.Error(t, err)
}

func TestPointsNearest(t *testing.T) {
	samples := []Sample{
		{Position: orb.Point{10, 50}, Fraction: Water},
		{Position: orb.Point{11, 50}, Fraction: Land},
		{Position: orb.Point{10.5, 51}, Fraction: 30},
	}
	p, err := NewPoints(samples, 0.4)
	require.NoError(t, err)

	assert.Equal(t, Water, p.FractionAtPosition(orb.Point{10.1, 50.1}))
	assert.Equal(t, Land, p.FractionAtPosition(orb.Point{10.9, 49.9}))
	assert.Equal(t, Fraction(30), p.FractionAtPosition(orb.Point{10.5, 50.8}))
	// between samples but farther than the max distance from each
	assert.Equal(t, Invalid, p.FractionAtPosition(orb.Point{10.5, 50.45}))
	// outside the padded bound
	assert.Equal(t, Invalid, p.FractionAtPosition(orb.Point{20, 20}))
}

func TestNewPointsRejectsBadInput(t *testing.T) {
	_, err := NewPoints(nil, 1)
	assert.Error(t, err)
	_, err = NewPoints([]Sample{{Position: orb.Point{0, 0}}}, 0)
	assert.Error(t, err)
}

func TestGeocoded(t *testing.T) {
	lat, err := raster.FromSlice([]float64{50, 50}, 2, 1)
	require.NoError(t, err)
	lon, err := raster.FromSlice([]float64{10, 11}, 2, 1)
	require.NoError(t, err)

	p, err := NewPoints([]Sample{
		{Position: orb.Point{10, 50}, Fraction: Water},
		{Position: orb.Point{11, 50}, Fraction: Land},
	}, 0.1)
	require.NoError(t, err)

	src := Geocoded{Points: p, Geocoding: RasterGeocoding{Lat: lat, Lon: lon}}
	assert.Equal(t, Water, src.FractionAt(0, 0))
	assert.Equal(t, Land, src.FractionAt(1, 0))
	assert.Equal(t, Invalid, src.FractionAt(2, 0))
}
