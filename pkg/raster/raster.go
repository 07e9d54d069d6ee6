// Package raster provides the float sample grids and tile geometry shared by every
// processing stage. Rasters are row-major and addressed by (column, row).
package raster

import (
	"fmt"
	"image"
)

// Raster is a rectangular grid of float64 samples.
type Raster struct {
	// Data holds Width*Height samples in row-major order
	Data []float64

	// Width is the number of columns
	Width int

	// Height is the number of rows
	Height int
}

// New allocates a zero-filled raster.
func New(width, height int) *Raster {
	return &Raster{
		Data:   make([]float64, width*height),
		Width:  width,
		Height: height,
	}
}

// NewFilled allocates a raster with every sample set to v.
func NewFilled(width, height int, v float64) *Raster {
	r := New(width, height)
	for i := range r.Data {
		r.Data[i] = v
	}
	return r
}

// FromSlice wraps data as a raster. The slice length must equal width*height.
func FromSlice(data []float64, width, height int) (*Raster, error) {
	if len(data) != width*height {
		return nil, fmt.Errorf("raster data length %d does not match %dx%d", len(data), width, height)
	}
	return &Raster{Data: data, Width: width, Height: height}, nil
}

// Bounds returns the raster extent.
func (r *Raster) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.Width, r.Height)
}

// At returns the sample at (x, y).
func (r *Raster) At(x, y int) float64 {
	return r.Data[y*r.Width+x]
}

// Set stores v at (x, y).
func (r *Raster) Set(x, y int, v float64) {
	r.Data[y*r.Width+x] = v
}

// SameSize reports whether o has the same dimensions as r.
func (r *Raster) SameSize(o *Raster) bool {
	return o != nil && r.Width == o.Width && r.Height == o.Height
}

// Values copies the samples inside rect (clipped to the raster) into a new slice.
func (r *Raster) Values(rect image.Rectangle) []float64 {
	rect = rect.Intersect(r.Bounds())
	out := make([]float64, 0, rect.Dx()*rect.Dy())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		out = append(out, r.Data[y*r.Width+rect.Min.X:y*r.Width+rect.Max.X]...)
	}
	return out
}
