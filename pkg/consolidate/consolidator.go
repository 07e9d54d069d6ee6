// Package consolidate spatially refines a classified flag raster: coastline
// artifact suppression followed by cloud-buffer growth. Results are independent of
// how the raster is tiled as long as every tile carries a halo of Halo() pixels.
package consolidate

import (
	"errors"
	"fmt"

	"cloudscreen/pkg/flags"
	"cloudscreen/pkg/raster"
	"cloudscreen/pkg/watermask"
)

// ErrHaloTooSmall is returned when a tile's halo cannot guarantee tile invariance.
var ErrHaloTooSmall = errors.New("tile halo too small")

// Consolidator applies the optional coastline refinement and the buffer policy.
type Consolidator struct {
	// Coastline refinement, nil to skip
	Coastline *Coastline

	// Policy grows CLOUD_BUFFER, nil to skip
	Policy Policy
}

// Halo returns the halo width tiles need.
func (c Consolidator) Halo() int {
	h := 0
	if c.Policy != nil {
		h += c.Policy.Reach()
	}
	if c.Coastline != nil {
		h += c.Coastline.Reach()
	}
	return h
}

// Consolidate reads in over tile.Window and writes the consolidated masks of
// tile.Rect into out. CLOUD_BUFFER is never set on INVALID pixels. water may be nil
// when coastline refinement is disabled.
func (c Consolidator) Consolidate(in *flags.Raster, water watermask.Source, tile raster.Tile, out *flags.Raster) error {
	if in.Bounds() != tile.Bounds || out.Bounds() != tile.Bounds {
		return fmt.Errorf("tile bounds %v do not match rasters %v/%v", tile.Bounds, in.Bounds(), out.Bounds())
	}
	if got := tile.Halo(); got < c.Halo() {
		return fmt.Errorf("tile %d has halo %d, need %d: %w", tile.Index, got, c.Halo(), ErrHaloTooSmall)
	}
	if c.Coastline != nil && water == nil {
		return fmt.Errorf("coastline refinement needs a water mask")
	}

	win := tile.Window
	w := win.Dx()
	masks := make([]flags.Mask, w*win.Dy())
	for y := win.Min.Y; y < win.Max.Y; y++ {
		copy(masks[(y-win.Min.Y)*w:(y-win.Min.Y+1)*w], in.Data[y*in.Width+win.Min.X:y*in.Width+win.Max.X])
	}

	if c.Coastline != nil {
		masks = c.Coastline.Refine(masks, water, win)
	}

	var mark []bool
	if c.Policy != nil {
		cloud := make([]bool, len(masks))
		for i, m := range masks {
			cloud[i] = m.Has(flags.Cloud)
		}
		mark = make([]bool, len(masks))
		c.Policy.Mark(cloud, win, mark)
	}

	for y := tile.Rect.Min.Y; y < tile.Rect.Max.Y; y++ {
		for x := tile.Rect.Min.X; x < tile.Rect.Max.X; x++ {
			i := (y-win.Min.Y)*w + x - win.Min.X
			m := masks[i]
			if mark != nil && mark[i] && !m.Has(flags.Invalid) {
				m |= flags.CloudBuffer
			}
			out.Set(x, y, m.Sanitize())
		}
	}
	return nil
}

// Raster consolidates the whole raster tile by tile and returns a new raster.
func (c Consolidator) Raster(in *flags.Raster, water watermask.Source, tileWidth, tileHeight int) (*flags.Raster, error) {
	tiles, err := raster.Partition(in.Width, in.Height, tileWidth, tileHeight, c.Halo())
	if err != nil {
		return nil, err
	}
	out := flags.NewRaster(in.Width, in.Height)
	for _, t := range tiles {
		if err := c.Consolidate(in, water, t, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}
