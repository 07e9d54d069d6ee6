package consolidate

import (
	"image"

	"cloudscreen/pkg/flags"
	"cloudscreen/pkg/watermask"
)

// Coastline suppresses snow and cloud detections that are artifacts of mixed
// land/water pixels.
type Coastline struct {
	// Radius of the (2*Radius+1)^2 neighbourhood window
	Radius int
}

// Reach implements the halo contract: refining a pixel reads the near-coastline
// state of its window, which in turn reads another Radius pixels. The surrounded
// test always reads the direct neighbours.
func (c Coastline) Reach() int { return max(2*c.Radius, 1) }

// nearCoastline computes, for every pixel of win, whether another valid water
// fraction in its window differs from its own. Invalid centres are never near
// the coastline.
func (c Coastline) nearCoastline(water watermask.Source, win image.Rectangle) []bool {
	w := win.Dx()
	frac := make([]watermask.Fraction, w*win.Dy())
	for y := win.Min.Y; y < win.Max.Y; y++ {
		for x := win.Min.X; x < win.Max.X; x++ {
			frac[(y-win.Min.Y)*w+x-win.Min.X] = water.FractionAt(x, y)
		}
	}

	near := make([]bool, len(frac))
	for y := win.Min.Y; y < win.Max.Y; y++ {
		for x := win.Min.X; x < win.Max.X; x++ {
			center := frac[(y-win.Min.Y)*w+x-win.Min.X]
			if !center.Valid() {
				continue
			}
			near[(y-win.Min.Y)*w+x-win.Min.X] = c.differs(frac, win, x, y, center)
		}
	}
	return near
}

func (c Coastline) differs(frac []watermask.Fraction, win image.Rectangle, x, y int, center watermask.Fraction) bool {
	w := win.Dx()
	for j := max(y-c.Radius, win.Min.Y); j <= min(y+c.Radius, win.Max.Y-1); j++ {
		for i := max(x-c.Radius, win.Min.X); i <= min(x+c.Radius, win.Max.X-1); i++ {
			if i == x && j == y {
				continue
			}
			f := frac[(j-win.Min.Y)*w+i-win.Min.X]
			if f.Valid() && f != center {
				return true
			}
		}
	}
	return false
}

// Refine returns the refined masks of win. Near-coastline pixels lose SNOW_ICE, and
// lose their cloud bits unless all eight neighbours are cloud or a cloud pixel in
// their window is not itself near the coastline.
func (c Coastline) Refine(masks []flags.Mask, water watermask.Source, win image.Rectangle) []flags.Mask {
	out := make([]flags.Mask, len(masks))
	copy(out, masks)
	near := c.nearCoastline(water, win)
	w := win.Dx()

	for y := win.Min.Y; y < win.Max.Y; y++ {
		for x := win.Min.X; x < win.Max.X; x++ {
			i := (y-win.Min.Y)*w + x - win.Min.X
			m := masks[i]
			if !near[i] || m.Has(flags.Invalid) {
				continue
			}
			m &^= flags.SnowIce
			if m.Has(flags.Cloud) && !c.surrounded(masks, win, x, y) && !c.inlandCloudNearby(masks, near, win, x, y) {
				m &^= flags.CloudAny
			}
			out[i] = m
		}
	}
	return out
}

// surrounded reports whether all eight neighbours exist and are cloud.
func (c Coastline) surrounded(masks []flags.Mask, win image.Rectangle, x, y int) bool {
	w := win.Dx()
	for j := y - 1; j <= y+1; j++ {
		for i := x - 1; i <= x+1; i++ {
			if i == x && j == y {
				continue
			}
			if !(image.Point{X: i, Y: j}).In(win) {
				return false
			}
			if !masks[(j-win.Min.Y)*w+i-win.Min.X].Has(flags.Cloud) {
				return false
			}
		}
	}
	return true
}

// inlandCloudNearby reports whether a cloud pixel in the window of (x, y) is not
// near the coastline.
func (c Coastline) inlandCloudNearby(masks []flags.Mask, near []bool, win image.Rectangle, x, y int) bool {
	w := win.Dx()
	for j := max(y-c.Radius, win.Min.Y); j <= min(y+c.Radius, win.Max.Y-1); j++ {
		for i := max(x-c.Radius, win.Min.X); i <= min(x+c.Radius, win.Max.X-1); i++ {
			k := (j-win.Min.Y)*w + i - win.Min.X
			if masks[k].Has(flags.Cloud) && !near[k] {
				return true
			}
		}
	}
	return false
}
