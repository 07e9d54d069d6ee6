// Package features turns raw top-of-atmosphere measurements and geometry into the
// normalized feature vectors consumed by the neural-network evaluator and the
// indicator computation.
package features

import (
	"errors"
	"fmt"
	"math"
)

// ErrMissingAcquisitionTime is returned when a scene lacks its start or end time.
// It is fatal for the whole scene.
var ErrMissingAcquisitionTime = errors.New("missing acquisition time")

// ErrBandCount is returned when a measurement vector does not match the solar flux
// table the assembler was built with.
var ErrBandCount = errors.New("band count mismatch")

const (
	// ExtraFeatures counts sinTime, cosTime, cos(lat), sin(lon), cos(lon)
	ExtraFeatures = 5
	deg2rad       = math.Pi / 180
)

// Assembler builds feature vectors for one scene. It is immutable after
// construction and safe for concurrent use.
type Assembler struct {
	inverseSolarFlux []float64
	sinTime          float64
	cosTime          float64
}

// NewAssembler precomputes the inverse solar flux per band and the scene-constant
// seasonal encoding.
func NewAssembler(solarFlux []float64, dayOfYearFraction float64) (*Assembler, error) {
	if len(solarFlux) == 0 {
		return nil, fmt.Errorf("no solar flux values: %w", ErrBandCount)
	}
	inv := make([]float64, len(solarFlux))
	for i, f := range solarFlux {
		if !(f > 0) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("solar flux of band %d must be positive and finite, got %v", i, f)
		}
		inv[i] = 1 / f
	}
	angle := 2 * math.Pi * dayOfYearFraction
	return &Assembler{
		inverseSolarFlux: inv,
		sinTime:          math.Sin(angle),
		cosTime:          math.Cos(angle),
	}, nil
}

// Bands returns the number of spectral bands.
func (a *Assembler) Bands() int { return len(a.inverseSolarFlux) }

// Len returns the feature vector length.
func (a *Assembler) Len() int { return len(a.inverseSolarFlux) + ExtraFeatures }

// SeasonalEncoding returns the scene-constant sin/cos time terms.
func (a *Assembler) SeasonalEncoding() (sinTime, cosTime float64) {
	return a.sinTime, a.cosTime
}

// Reflectances writes raw*pi/flux/cos(sza) per band into dst and returns it. A
// non-positive measurement or a sun at or below the horizon yields NaN for that band.
func (a *Assembler) Reflectances(raw []float64, solarZenithDeg float64, dst []float64) ([]float64, error) {
	if len(raw) != len(a.inverseSolarFlux) {
		return nil, fmt.Errorf("got %d measurements for %d bands: %w", len(raw), len(a.inverseSolarFlux), ErrBandCount)
	}
	if cap(dst) < len(raw) {
		dst = make([]float64, len(raw))
	}
	dst = dst[:len(raw)]

	cosSza := math.Cos(solarZenithDeg * deg2rad)
	if !(solarZenithDeg < 90) || !(cosSza > 0) {
		for i := range dst {
			dst[i] = math.NaN()
		}
		return dst, nil
	}
	inverseCos := 1 / cosSza
	for i, v := range raw {
		if !(v > 0) || math.IsInf(v, 0) {
			dst[i] = math.NaN()
			continue
		}
		dst[i] = v * math.Pi * a.inverseSolarFlux[i] * inverseCos
	}
	return dst, nil
}

// Assemble writes the feature vector for one pixel into dst and returns it. Layout:
// sqrt-normalized bands, sinTime, cosTime, cos(lat), sin(lon), cos(lon).
func (a *Assembler) Assemble(raw []float64, solarZenithDeg, latDeg, lonDeg float64, dst []float64) ([]float64, error) {
	n := len(a.inverseSolarFlux)
	if cap(dst) < a.Len() {
		dst = make([]float64, a.Len())
	}
	dst = dst[:a.Len()]

	if _, err := a.Reflectances(raw, solarZenithDeg, dst[:n]); err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		dst[i] = math.Sqrt(dst[i])
	}

	latRad := latDeg * deg2rad
	lonRad := lonDeg * deg2rad
	dst[n] = a.sinTime
	dst[n+1] = a.cosTime
	dst[n+2] = math.Cos(latRad)
	dst[n+3] = math.Sin(lonRad)
	dst[n+4] = math.Cos(lonRad)
	return dst, nil
}

// Finite reports whether every feature is a finite number.
func Finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
