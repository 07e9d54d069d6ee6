package pipeline

import (
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"cloudscreen/pkg/breakpoint"
	"cloudscreen/pkg/classifier"
	"cloudscreen/pkg/flags"
	"cloudscreen/pkg/raster"
)

// Summary describes a processed scene. Fractions are relative to all pixels except
// for Cloud, Buffer, Snow and Water, which are relative to the valid ones.
type Summary struct {
	Pixels  int
	Valid   int
	Invalid float64
	Cloud   float64
	Buffer  float64
	Snow    float64
	Water   float64

	// BrightnessMean and BrightnessStdDev cover valid pixels with a brightness
	BrightnessMean   float64
	BrightnessStdDev float64

	// Variants counts the pixels per category label of each breakpoint variant
	Variants map[string]map[string]int
}

// Summarize computes the scene summary from the final flags and the brightness
// indicator.
func Summarize(f *flags.Raster, brightness *raster.Raster) Summary {
	s := Summary{Pixels: len(f.Data)}
	if s.Pixels == 0 {
		return s
	}

	var cloud, buffer, snow, water int
	values := make([]float64, 0, len(f.Data))
	for i, m := range f.Data {
		if m.Has(flags.Invalid) {
			continue
		}
		s.Valid++
		if m.Has(flags.Cloud) {
			cloud++
		}
		if m.Has(flags.CloudBuffer) && !m.Has(flags.Cloud) {
			buffer++
		}
		if m.Has(flags.SnowIce) {
			snow++
		}
		if m.Has(flags.ClearWater) {
			water++
		}
		if b := brightness.Data[i]; b != classifier.NoData {
			values = append(values, b)
		}
	}

	s.Invalid = float64(s.Pixels-s.Valid) / float64(s.Pixels)
	if s.Valid > 0 {
		n := float64(s.Valid)
		s.Cloud = float64(cloud) / n
		s.Buffer = float64(buffer) / n
		s.Snow = float64(snow) / n
		s.Water = float64(water) / n
	}
	switch len(values) {
	case 0:
	case 1:
		s.BrightnessMean = values[0]
	default:
		s.BrightnessMean, s.BrightnessStdDev = stat.MeanStdDev(values, nil)
	}
	return s
}

// countVariants tallies the category grid of every variant.
func countVariants(variants breakpoint.VariantSet, categories map[string][]breakpoint.Category) map[string]map[string]int {
	if len(variants) == 0 {
		return nil
	}
	out := make(map[string]map[string]int, len(variants))
	for _, v := range variants {
		out[v.Name] = v.Breakpoints.Count(categories[v.Name])
	}
	return out
}

// Fields renders the summary for structured logging.
func (s Summary) Fields() logrus.Fields {
	return logrus.Fields{
		"pixels":            s.Pixels,
		"invalid":           s.Invalid,
		"cloud":             s.Cloud,
		"buffer":            s.Buffer,
		"snow":              s.Snow,
		"water":             s.Water,
		"brightness_mean":   s.BrightnessMean,
		"brightness_stddev": s.BrightnessStdDev,
	}
}
