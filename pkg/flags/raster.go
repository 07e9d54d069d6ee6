package flags

import (
	"image"
)

// Raster is a width x height grid of masks. Downstream consumers such as a
// cloud-shadow projector query it through the bit accessors.
type Raster struct {
	Data   []Mask
	Width  int
	Height int
}

// NewRaster allocates an all-clear flag raster.
func NewRaster(width, height int) *Raster {
	return &Raster{
		Data:   make([]Mask, width*height),
		Width:  width,
		Height: height,
	}
}

// Bounds returns the raster extent.
func (r *Raster) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.Width, r.Height)
}

// At returns the mask at (x, y).
func (r *Raster) At(x, y int) Mask {
	return r.Data[y*r.Width+x]
}

// Set stores m at (x, y).
func (r *Raster) Set(x, y int, m Mask) {
	r.Data[y*r.Width+x] = m
}

// Has reports whether the pixel at (x, y) carries all bits of b.
func (r *Raster) Has(x, y int, b Mask) bool {
	return r.Data[y*r.Width+x]&b == b
}

// IsCloud reports whether the pixel at (x, y) is flagged CLOUD.
func (r *Raster) IsCloud(x, y int) bool { return r.Has(x, y, Cloud) }

// IsInvalid reports whether the pixel at (x, y) is flagged INVALID.
func (r *Raster) IsInvalid(x, y int) bool { return r.Has(x, y, Invalid) }

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	c := NewRaster(r.Width, r.Height)
	copy(c.Data, r.Data)
	return c
}

// CopyRect copies the masks inside rect from src into r. Both rasters must share
// dimensions.
func (r *Raster) CopyRect(src *Raster, rect image.Rectangle) {
	rect = rect.Intersect(r.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := y * r.Width
		copy(r.Data[row+rect.Min.X:row+rect.Max.X], src.Data[row+rect.Min.X:row+rect.Max.X])
	}
}

// Count returns how many pixels carry all bits of b.
func (r *Raster) Count(b Mask) int {
	n := 0
	for _, m := range r.Data {
		if m&b == b {
			n++
		}
	}
	return n
}

// Equal reports whether two rasters are bit-identical.
func (r *Raster) Equal(o *Raster) bool {
	if r.Width != o.Width || r.Height != o.Height {
		return false
	}
	for i := range r.Data {
		if r.Data[i] != o.Data[i] {
			return false
		}
	}
	return true
}

// Bit extracts one bit plane as a bool grid.
func (r *Raster) Bit(b Mask) []bool {
	out := make([]bool, len(r.Data))
	for i, m := range r.Data {
		out[i] = m&b == b
	}
	return out
}
