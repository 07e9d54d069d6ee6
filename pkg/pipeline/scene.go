package pipeline

import (
	"errors"
	"fmt"
	"time"

	"cloudscreen/pkg/features"
	"cloudscreen/pkg/raster"
	"cloudscreen/pkg/watermask"
)

var (
	// ErrMissingChannel is returned when a required raster is absent.
	ErrMissingChannel = errors.New("missing channel")

	// ErrDimensionMismatch is returned when co-registered rasters differ in size.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// Scene is one co-registered acquisition. Bands hold the raw measurements in the
// order the classifier settings and the solar flux expect.
type Scene struct {
	Width  int
	Height int

	Bands     []*raster.Raster
	BandNames []string
	SolarFlux []float64

	SolarZenith      *raster.Raster
	Latitude         *raster.Raster
	Longitude        *raster.Raster
	SurfacePressure  *raster.Raster
	CloudTopPressure *raster.Raster

	// Temperature and Glint are optional
	Temperature *raster.Raster
	Glint       *raster.Raster

	// Water is the a-priori water mask, nil when unknown
	Water watermask.Source

	Start time.Time
	End   time.Time
}

// Validate checks that every required channel is present with the scene size and
// that the acquisition time is known. It returns the day-of-year fraction.
func (s *Scene) Validate() (float64, error) {
	if s.Width <= 0 || s.Height <= 0 {
		return 0, fmt.Errorf("scene size %dx%d: %w", s.Width, s.Height, ErrDimensionMismatch)
	}
	if len(s.Bands) == 0 {
		return 0, fmt.Errorf("no bands: %w", ErrMissingChannel)
	}
	if len(s.SolarFlux) != len(s.Bands) {
		return 0, fmt.Errorf("%d solar flux values for %d bands: %w", len(s.SolarFlux), len(s.Bands), features.ErrBandCount)
	}

	check := func(name string, r *raster.Raster, required bool) error {
		if r == nil {
			if required {
				return fmt.Errorf("%s: %w", name, ErrMissingChannel)
			}
			return nil
		}
		if r.Width != s.Width || r.Height != s.Height {
			return fmt.Errorf("%s is %dx%d, scene is %dx%d: %w", name, r.Width, r.Height, s.Width, s.Height, ErrDimensionMismatch)
		}
		return nil
	}
	for i, b := range s.Bands {
		if err := check(s.bandName(i), b, true); err != nil {
			return 0, err
		}
	}
	for _, c := range []struct {
		name     string
		r        *raster.Raster
		required bool
	}{
		{"solar_zenith", s.SolarZenith, true},
		{"latitude", s.Latitude, true},
		{"longitude", s.Longitude, true},
		{"surface_pressure", s.SurfacePressure, true},
		{"cloud_top_pressure", s.CloudTopPressure, true},
		{"temperature", s.Temperature, false},
		{"glint", s.Glint, false},
	} {
		if err := check(c.name, c.r, c.required); err != nil {
			return 0, err
		}
	}

	if sized, ok := s.Water.(watermask.Sized); ok {
		if b := sized.Bounds(); b.Dx() != s.Width || b.Dy() != s.Height {
			return 0, fmt.Errorf("water mask is %dx%d, scene is %dx%d: %w", b.Dx(), b.Dy(), s.Width, s.Height, ErrDimensionMismatch)
		}
	}

	return features.DayOfYearFraction(s.Start, s.End)
}

func (s *Scene) bandName(i int) string {
	if i < len(s.BandNames) && s.BandNames[i] != "" {
		return s.BandNames[i]
	}
	return fmt.Sprintf("band_%d", i+1)
}

// water returns the scene water mask, or a source without data.
func (s *Scene) water() watermask.Source {
	if s.Water == nil {
		return watermask.Constant(watermask.Invalid)
	}
	return s.Water
}
