// Package watermask provides the a-priori land/water information consumed by the
// classifier and the coastline refinement.
package watermask

import (
	"fmt"
	"image"
	"math"

	"cloudscreen/pkg/raster"
)

// Fraction is the water percentage of a pixel: 0 is land, 100 is water. Values
// above 100 mean no data.
type Fraction uint8

const (
	Land    Fraction = 0
	Water   Fraction = 100
	Invalid Fraction = 255
)

// Valid reports whether f carries data.
func (f Fraction) Valid() bool { return f <= Water }

// FromPercent rounds a percentage to a Fraction. NaN and values outside [0, 100]
// give Invalid.
func FromPercent(v float64) Fraction {
	if math.IsNaN(v) || v < 0 || v > 100 {
		return Invalid
	}
	return Fraction(math.Round(v))
}

// Source answers water fractions by raster coordinate. Coordinates outside the
// source extent return Invalid.
type Source interface {
	FractionAt(x, y int) Fraction
}

// Sized is implemented by sources that cover a fixed raster extent.
type Sized interface {
	Source
	Bounds() image.Rectangle
}

// Grid is a raster of water fractions.
type Grid struct {
	Data   []Fraction
	Width  int
	Height int
}

// NewGrid converts a raster of percentages.
func NewGrid(r *raster.Raster) *Grid {
	g := &Grid{Data: make([]Fraction, len(r.Data)), Width: r.Width, Height: r.Height}
	for i, v := range r.Data {
		g.Data[i] = FromPercent(v)
	}
	return g
}

// GridFromFractions wraps fractions laid out row-major.
func GridFromFractions(data []Fraction, width, height int) (*Grid, error) {
	if len(data) != width*height {
		return nil, fmt.Errorf("water fraction length %d does not match %dx%d", len(data), width, height)
	}
	return &Grid{Data: data, Width: width, Height: height}, nil
}

// Bounds implements Sized.
func (g *Grid) Bounds() image.Rectangle { return image.Rect(0, 0, g.Width, g.Height) }

// FractionAt implements Source.
func (g *Grid) FractionAt(x, y int) Fraction {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return Invalid
	}
	return g.Data[y*g.Width+x]
}

// Binary is a land/water classification without fractions. Water pixels report
// 100, land pixels 0.
type Binary struct {
	Water  []bool
	Width  int
	Height int
}

// Bounds implements Sized.
func (b *Binary) Bounds() image.Rectangle { return image.Rect(0, 0, b.Width, b.Height) }

// FractionAt implements Source.
func (b *Binary) FractionAt(x, y int) Fraction {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return Invalid
	}
	if b.Water[y*b.Width+x] {
		return Water
	}
	return Land
}

// Constant reports the same fraction everywhere.
type Constant Fraction

// FractionAt implements Source.
func (c Constant) FractionAt(int, int) Fraction { return Fraction(c) }
