package watermask

import (
	"fmt"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/kdtree"

	"cloudscreen/pkg/raster"
)

// Sample is a water fraction observed at a geographic position (lon, lat degrees).
type Sample struct {
	Position orb.Point
	Fraction Fraction
}

// Compare implements the kdtree.Comparable interface
func (s Sample) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(Sample)
	switch d {
	case 0:
		return s.Position.Lon() - q.Position.Lon()
	case 1:
		return s.Position.Lat() - q.Position.Lat()
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (s Sample) Dims() int { return 2 }

// Distance returns the squared planar distance in degrees
func (s Sample) Distance(c kdtree.Comparable) float64 {
	q := c.(Sample)
	dx := s.Position.Lon() - q.Position.Lon()
	dy := s.Position.Lat() - q.Position.Lat()
	return dx*dx + dy*dy
}

// Samples is a collection of Sample that satisfies kdtree.Interface
type Samples []Sample

func (p Samples) Index(i int) kdtree.Comparable         { return p[i] }
func (p Samples) Len() int                              { return len(p) }
func (p Samples) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements the kdtree.Interface method
func (p Samples) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(samplePlane{Samples: p, Dim: d}, kdtree.MedianOfRandoms(samplePlane{Samples: p, Dim: d}, 100))
}

// samplePlane implements sort.Interface and kdtree.SortSlicer for Samples
type samplePlane struct {
	Samples
	kdtree.Dim
}

func (p samplePlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.Samples[i].Position.Lon() < p.Samples[j].Position.Lon()
	case 1:
		return p.Samples[i].Position.Lat() < p.Samples[j].Position.Lat()
	default:
		panic("illegal dimension")
	}
}

func (p samplePlane) Slice(start, end int) kdtree.SortSlicer {
	return samplePlane{Samples: p.Samples[start:end], Dim: p.Dim}
}

func (p samplePlane) Swap(i, j int) {
	p.Samples[i], p.Samples[j] = p.Samples[j], p.Samples[i]
}

// Points answers water fractions by geographic position from scattered samples,
// using the nearest sample within maxDistance degrees.
type Points struct {
	tree        *kdtree.Tree
	bound       orb.Bound
	maxDistance float64
}

// NewPoints builds the lookup tree. The samples slice is reordered.
func NewPoints(samples []Sample, maxDistance float64) (*Points, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no water fraction samples")
	}
	if !(maxDistance > 0) {
		return nil, fmt.Errorf("max distance must be positive, got %v", maxDistance)
	}
	mp := make(orb.MultiPoint, len(samples))
	for i, s := range samples {
		mp[i] = s.Position
	}
	return &Points{
		tree:        kdtree.New(Samples(samples), false),
		bound:       mp.Bound().Pad(maxDistance),
		maxDistance: maxDistance,
	}, nil
}

// FractionAtPosition returns the fraction of the nearest sample, or Invalid when
// no sample lies within the max distance.
func (p *Points) FractionAtPosition(pos orb.Point) Fraction {
	if !p.bound.Contains(pos) {
		return Invalid
	}
	nearest, dist := p.tree.Nearest(Sample{Position: pos})
	if nearest == nil || dist > p.maxDistance*p.maxDistance {
		return Invalid
	}
	return nearest.(Sample).Fraction
}

// Geocoding maps raster coordinates to geographic positions.
type Geocoding interface {
	Position(x, y int) (orb.Point, bool)
}

// RasterGeocoding reads positions from co-registered latitude and longitude
// rasters in degrees.
type RasterGeocoding struct {
	Lat *raster.Raster
	Lon *raster.Raster
}

// Position implements Geocoding.
func (g RasterGeocoding) Position(x, y int) (orb.Point, bool) {
	if x < 0 || y < 0 || x >= g.Lat.Width || y >= g.Lat.Height {
		return orb.Point{}, false
	}
	return orb.Point{g.Lon.At(x, y), g.Lat.At(x, y)}, true
}

// Geocoded adapts a geographic lookup to a raster-coordinate Source.
type Geocoded struct {
	Points    *Points
	Geocoding Geocoding
}

// FractionAt implements Source.
func (g Geocoded) FractionAt(x, y int) Fraction {
	pos, ok := g.Geocoding.Position(x, y)
	if !ok {
		return Invalid
	}
	return g.Points.FractionAtPosition(pos)
}
