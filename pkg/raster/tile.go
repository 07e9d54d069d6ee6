package raster

import (
	"fmt"
	"image"
)

// Tile is the unit of bounded-memory processing. Rect is the region a stage writes;
// Window is Rect grown by the halo and clipped to Bounds, and is read-only.
type Tile struct {
	// Index is the tile's position in the partition order
	Index int

	// Rect is the output region
	Rect image.Rectangle

	// Window is the readable region, Rect plus halo clipped to Bounds
	Window image.Rectangle

	// Bounds is the extent of the whole raster
	Bounds image.Rectangle
}

// WholeTile returns a single tile covering bounds with no halo.
func WholeTile(bounds image.Rectangle) Tile {
	return Tile{Rect: bounds, Window: bounds, Bounds: bounds}
}

// NewTile builds a tile for rect with the given halo inside bounds.
func NewTile(index int, rect, bounds image.Rectangle, halo int) Tile {
	return Tile{
		Index:  index,
		Rect:   rect.Intersect(bounds),
		Window: rect.Inset(-halo).Intersect(bounds),
		Bounds: bounds,
	}
}

// Halo returns the smallest halo width actually available around Rect, ignoring
// sides where Window already reaches the raster bounds.
func (t Tile) Halo() int {
	halo := -1
	side := func(avail int, atEdge bool) {
		if atEdge {
			return
		}
		if halo < 0 || avail < halo {
			halo = avail
		}
	}
	side(t.Rect.Min.X-t.Window.Min.X, t.Window.Min.X == t.Bounds.Min.X)
	side(t.Rect.Min.Y-t.Window.Min.Y, t.Window.Min.Y == t.Bounds.Min.Y)
	side(t.Window.Max.X-t.Rect.Max.X, t.Window.Max.X == t.Bounds.Max.X)
	side(t.Window.Max.Y-t.Rect.Max.Y, t.Window.Max.Y == t.Bounds.Max.Y)
	if halo < 0 {
		// every side is a raster edge
		return int(^uint(0) >> 1)
	}
	return halo
}

// Partition splits a width x height raster into tiles of at most tileWidth x
// tileHeight, each carrying the given halo. Every pixel belongs to exactly one Rect.
func Partition(width, height, tileWidth, tileHeight, halo int) ([]Tile, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid raster size %dx%d", width, height)
	}
	if tileWidth <= 0 || tileHeight <= 0 {
		return nil, fmt.Errorf("invalid tile size %dx%d", tileWidth, tileHeight)
	}
	if halo < 0 {
		return nil, fmt.Errorf("negative halo %d", halo)
	}

	bounds := image.Rect(0, 0, width, height)
	tiles := make([]Tile, 0, ((width+tileWidth-1)/tileWidth)*((height+tileHeight-1)/tileHeight))
	for y := 0; y < height; y += tileHeight {
		for x := 0; x < width; x += tileWidth {
			rect := image.Rect(x, y, x+tileWidth, y+tileHeight)
			tiles = append(tiles, NewTile(len(tiles), rect, bounds, halo))
		}
	}
	return tiles, nil
}
