// Package visualization renders flag rasters and indicator rasters as images and
// writes them as TIFF files.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"

	"cloudscreen/pkg/classifier"
	"cloudscreen/pkg/flags"
	"cloudscreen/pkg/raster"
)

// Quick-look palette. The first matching class wins.
var (
	ColorInvalid   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	ColorCloudSure = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	ColorCloud     = color.RGBA{R: 190, G: 190, B: 190, A: 255}
	ColorBuffer    = color.RGBA{R: 255, G: 200, B: 0, A: 255}
	ColorShadow    = color.RGBA{R: 90, G: 60, B: 120, A: 255}
	ColorSnow      = color.RGBA{R: 0, G: 230, B: 255, A: 255}
	ColorWater     = color.RGBA{R: 20, G: 60, B: 200, A: 255}
	ColorLand      = color.RGBA{R: 40, G: 160, B: 40, A: 255}
	ColorOther     = color.RGBA{R: 110, G: 110, B: 110, A: 255}
)

var palette = []struct {
	bit flags.Mask
	c   color.RGBA
}{
	{flags.Invalid, ColorInvalid},
	{flags.CloudSure, ColorCloudSure},
	{flags.Cloud, ColorCloud},
	{flags.CloudBuffer, ColorBuffer},
	{flags.CloudShadow, ColorShadow},
	{flags.SnowIce, ColorSnow},
	{flags.Water, ColorWater},
	{flags.Land, ColorLand},
}

// Viewer renders one flag raster.
type Viewer struct {
	flags *flags.Raster
}

// NewViewer creates a viewer for f
func NewViewer(f *flags.Raster) *Viewer {
	return &Viewer{flags: f}
}

// Classify returns the quick-look colour of one mask
func Classify(m flags.Mask) color.RGBA {
	for _, p := range palette {
		if m.Has(p.bit) {
			return p.c
		}
	}
	return ColorOther
}

// Quicklook renders the classes in colour
func (v *Viewer) Quicklook() *image.RGBA {
	img := image.NewRGBA(v.flags.Bounds())
	for y := 0; y < v.flags.Height; y++ {
		for x := 0; x < v.flags.Width; x++ {
			img.SetRGBA(x, y, Classify(v.flags.At(x, y)))
		}
	}
	return img
}

// FlagImage renders one flag as white on black
func (v *Viewer) FlagImage(bit flags.Mask) *image.Gray {
	img := image.NewGray(v.flags.Bounds())
	for i, m := range v.flags.Data {
		if m.Has(bit) {
			img.Pix[i] = 255
		}
	}
	return img
}

// IndicatorImage scales r linearly from [lo, hi] onto 16 bits. NoData and NaN
// become 0.
func IndicatorImage(r *raster.Raster, lo, hi float64) (*image.Gray16, error) {
	if !(hi > lo) {
		return nil, fmt.Errorf("invalid range [%v, %v]", lo, hi)
	}
	img := image.NewGray16(r.Bounds())
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			v := r.At(x, y)
			if v == classifier.NoData || math.IsNaN(v) {
				continue
			}
			value := uint16(math.Max(0, math.Min(65535, (v-lo)/(hi-lo)*65535)))
			img.SetGray16(x, y, color.Gray16{Y: value})
		}
	}
	return img, nil
}

// SaveTIFF writes img as a deflate-compressed TIFF
func SaveTIFF(img image.Image, filename string) error {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := tiff.Encode(file, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		return fmt.Errorf("error encoding %s: %w", filename, err)
	}
	return file.Close()
}

// SaveQuicklook renders and writes the quick-look
func (v *Viewer) SaveQuicklook(filename string) error {
	return SaveTIFF(v.Quicklook(), filename)
}

// SaveFlagSequence writes one image per named flag into outputDir. An empty list
// writes every flag.
func (v *Viewer) SaveFlagSequence(outputDir string, names []string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}
	if len(names) == 0 {
		names = flags.Names()
	}

	for _, name := range names {
		bit, ok := flags.ByName(name)
		if !ok {
			return fmt.Errorf("unknown flag %q", name)
		}
		filename := filepath.Join(outputDir, fmt.Sprintf("flag_%s.tif", strings.ToLower(name)))
		if err := SaveTIFF(v.FlagImage(bit), filename); err != nil {
			return err
		}
	}
	return nil
}
