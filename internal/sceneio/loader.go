// Package sceneio loads scenes described by a YAML manifest with one TIFF file per
// channel.
package sceneio

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"golang.org/x/image/tiff"
	"gopkg.in/yaml.v3"

	"cloudscreen/internal/models"
	"cloudscreen/pkg/pipeline"
	"cloudscreen/pkg/raster"
	"cloudscreen/pkg/watermask"
)

// LoadManifest reads a scene manifest
func LoadManifest(path string) (*models.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}
	var m models.Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("error parsing manifest: %w", err)
	}
	return &m, nil
}

// Load reads the manifest at path and every channel it references. Relative file
// names are resolved against the manifest's directory.
func Load(path string) (*pipeline.Scene, *models.Manifest, error) {
	m, err := LoadManifest(path)
	if err != nil {
		return nil, nil, err
	}
	l := &loader{dir: filepath.Dir(path)}
	scene, err := l.scene(m)
	if err != nil {
		return nil, nil, err
	}
	return scene, m, nil
}

type loader struct {
	dir    string
	width  int
	height int
}

func (l *loader) scene(m *models.Manifest) (*pipeline.Scene, error) {
	if len(m.Bands) == 0 {
		return nil, fmt.Errorf("manifest has no bands: %w", pipeline.ErrMissingChannel)
	}

	// the first band fixes the scene size, constants take it over
	first, err := l.read(m.Bands[0])
	if err != nil {
		return nil, err
	}
	l.width, l.height = first.Width, first.Height

	s := &pipeline.Scene{
		Width:  l.width,
		Height: l.height,
		Start:  m.Start,
		End:    m.End,
	}
	for i, b := range m.Bands {
		r := first
		if i > 0 {
			if r, err = l.read(b); err != nil {
				return nil, err
			}
		}
		s.Bands = append(s.Bands, r)
		s.BandNames = append(s.BandNames, b.Name)
		s.SolarFlux = append(s.SolarFlux, b.SolarFlux)
	}

	for _, c := range []struct {
		ch  models.Channel
		dst **raster.Raster
	}{
		{m.SolarZenith, &s.SolarZenith},
		{m.Latitude, &s.Latitude},
		{m.Longitude, &s.Longitude},
		{m.SurfacePressure, &s.SurfacePressure},
		{m.CloudTopPressure, &s.CloudTopPressure},
	} {
		if *c.dst, err = l.read(c.ch); err != nil {
			return nil, err
		}
	}
	if m.Temperature != nil {
		if s.Temperature, err = l.read(*m.Temperature); err != nil {
			return nil, err
		}
	}
	if m.Glint != nil {
		if s.Glint, err = l.read(*m.Glint); err != nil {
			return nil, err
		}
	}

	if m.Water != nil {
		if s.Water, err = l.water(m.Water, s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// read decodes one channel, or fills a constant one
func (l *loader) read(ch models.Channel) (*raster.Raster, error) {
	if ch.File == "" {
		if ch.Constant == nil {
			return nil, fmt.Errorf("channel %q: no file and no constant: %w", ch.Name, pipeline.ErrMissingChannel)
		}
		if l.width == 0 {
			return nil, fmt.Errorf("channel %q: the first band needs a file", ch.Name)
		}
		return raster.NewFilled(l.width, l.height, *ch.Constant), nil
	}

	path := ch.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.dir, path)
	}
	img, err := ReadTIFF(path)
	if err != nil {
		return nil, fmt.Errorf("channel %q: %w", ch.Name, err)
	}
	scale := ch.Scale
	if scale == 0 {
		scale = 1
	}
	r := Decode(img, scale, ch.Offset)
	if l.width != 0 && (r.Width != l.width || r.Height != l.height) {
		return nil, fmt.Errorf("channel %q is %dx%d, scene is %dx%d: %w",
			ch.Name, r.Width, r.Height, l.width, l.height, pipeline.ErrDimensionMismatch)
	}
	return r, nil
}

func (l *loader) water(w *models.WaterMask, s *pipeline.Scene) (watermask.Source, error) {
	switch w.Kind {
	case models.WaterFraction, "":
		r, err := l.read(w.Channel)
		if err != nil {
			return nil, err
		}
		return watermask.NewGrid(r), nil

	case models.WaterBinary:
		r, err := l.read(w.Channel)
		if err != nil {
			return nil, err
		}
		b := &watermask.Binary{Water: make([]bool, len(r.Data)), Width: r.Width, Height: r.Height}
		for i, v := range r.Data {
			b.Water[i] = v != 0
		}
		return b, nil

	case models.WaterPoints:
		samples := make([]watermask.Sample, len(w.Samples))
		for i, p := range w.Samples {
			samples[i] = watermask.Sample{Position: orb.Point{p.Lon, p.Lat}, Fraction: watermask.FromPercent(p.Fraction)}
		}
		points, err := watermask.NewPoints(samples, w.MaxDistance)
		if err != nil {
			return nil, err
		}
		geo := watermask.Geocoded{
			Points:    points,
			Geocoding: watermask.RasterGeocoding{Lat: s.Latitude, Lon: s.Longitude},
		}
		// resolve every pixel once, consolidation reads the mask repeatedly
		frac := make([]watermask.Fraction, s.Width*s.Height)
		for y := 0; y < s.Height; y++ {
			for x := 0; x < s.Width; x++ {
				frac[y*s.Width+x] = geo.FractionAt(x, y)
			}
		}
		return watermask.GridFromFractions(frac, s.Width, s.Height)
	}
	return nil, fmt.Errorf("unknown water mask kind %q", w.Kind)
}

// ReadTIFF decodes a TIFF file
func ReadTIFF(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, err := tiff.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", path, err)
	}
	return img, nil
}

// Decode converts a grey image to physical values, stored*scale + offset. Other
// colour models are converted to 16-bit grey first.
func Decode(img image.Image, scale, offset float64) *raster.Raster {
	b := img.Bounds()
	r := raster.New(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			var v float64
			switch g := img.(type) {
			case *image.Gray16:
				v = float64(g.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			case *image.Gray:
				v = float64(g.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			default:
				v = float64(color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16).Y)
			}
			r.Set(x, y, v*scale+offset)
		}
	}
	return r
}

// Encode converts physical values back to a 16-bit grey image, clamping to the
// representable range. NaN becomes 0.
func Encode(r *raster.Raster, scale, offset float64) *image.Gray16 {
	img := image.NewGray16(r.Bounds())
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			v := (r.At(x, y) - offset) / scale
			if math.IsNaN(v) {
				continue
			}
			v = max(0, min(65535, v+0.5))
			img.SetGray16(x, y, color.Gray16{Y: uint16(v)})
		}
	}
	return img
}
