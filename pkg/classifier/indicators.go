package classifier

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"cloudscreen/pkg/watermask"
)

// NoData marks a continuous indicator that could not be computed for a pixel.
const NoData = -999.0

// Uncertain is the land value carrying no land/water evidence.
const Uncertain = 0.5

// Measurements are the per-pixel physical inputs the indicators are derived from.
type Measurements struct {
	// Reflectances are the normalized band values (see features.Assembler.Reflectances)
	Reflectances []float64

	// SurfacePressure is the barometric pressure at the surface in hPa
	SurfacePressure float64

	// CloudTopPressure is the retrieved cloud-top pressure in hPa
	CloudTopPressure float64

	// Temperature is a brightness temperature in K, NaN when the sensor has none
	Temperature float64

	// Glint is a sun-glint reflectance proxy, NaN when not available
	Glint float64

	// WaterFraction is the a-priori water percentage from the water mask
	WaterFraction watermask.Fraction

	// NNScore is the cloud score of the external evaluator, NaN when not evaluated
	NNScore float64
}

// Indicators are the continuous per-pixel values the composite decision combines.
type Indicators struct {
	Valid               bool
	Brightness          float64
	Whiteness           float64
	NDSI                float64
	NDVI                float64
	PressureHeightDelta float64
	Temperature         float64
	HasTemperature      bool
	NNScore             float64
	HasNNScore          bool
	Blue                float64
	Glint               float64
	HasGlint            bool

	// LandValue is the radiometric land value: 1 land, 0 water, Uncertain otherwise
	LandValue float64

	// APrioriLandValue comes from the water mask: 1 land, 0 water, Uncertain unknown
	APrioriLandValue float64

	// Coastline is set when the water mask reports a mixed land/water pixel
	Coastline bool
}

// Clamp01 limits v to [0, 1]. NaN becomes 0.
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// Valid reports whether at least one reflectance is finite and positive.
func Valid(reflectances []float64) bool {
	for _, r := range reflectances {
		if positive(r) {
			return true
		}
	}
	return false
}

// Brightness is the mean of two reflectances, NoData when either is non-positive.
func Brightness(a, b float64) float64 {
	if !positive(a) || !positive(b) {
		return NoData
	}
	return (a + b) / 2
}

// Whiteness measures spectral flatness as min/max over the given reflectances,
// clamped to [0, 1]. Any non-positive input gives 0.
func Whiteness(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	for _, v := range values {
		if !positive(v) {
			return 0
		}
	}
	return Clamp01(floats.Min(values) / floats.Max(values))
}

// NormalizedDifference returns (a-b)/(a+b), NoData when either input is not finite
// or the sum is not positive.
func NormalizedDifference(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return NoData
	}
	sum := a + b
	if !(sum > 0) {
		return NoData
	}
	return (a - b) / sum
}

// PressureHeightDelta scales the surface to cloud-top pressure difference by scale
// and clamps it to [0, 1]. Non-finite inputs give 0.
func PressureHeightDelta(surface, cloudTop, scale float64) float64 {
	if !(scale > 0) {
		return 0
	}
	return Clamp01((surface - cloudTop) / scale)
}

// TemperatureTerm maps a brightness temperature onto [0, 1], colder is higher.
func TemperatureTerm(t, reference, scale float64) float64 {
	if !(scale > 0) {
		return 0
	}
	return Clamp01((reference - t) / scale)
}

// APrioriLandValue converts a water fraction into 1 (land), 0 (water) or Uncertain.
func APrioriLandValue(f watermask.Fraction) float64 {
	switch {
	case !f.Valid() || f == 50:
		return Uncertain
	case f < 50:
		return 1
	default:
		return 0
	}
}

func band(values []float64, i int) float64 {
	if i < 0 || i >= len(values) {
		return math.NaN()
	}
	return values[i]
}

// Indicators derives the continuous indicators for one pixel.
func (c *Classifier) Indicators(m Measurements) Indicators {
	s := &c.settings
	ind := Indicators{
		Valid:            Valid(m.Reflectances),
		Brightness:       NoData,
		NDSI:             NoData,
		NDVI:             NoData,
		LandValue:        Uncertain,
		APrioriLandValue: APrioriLandValue(m.WaterFraction),
		Coastline:        m.WaterFraction.Valid() && m.WaterFraction > 0 && m.WaterFraction < 100,
	}
	if !ind.Valid {
		return ind
	}
	r := m.Reflectances

	ind.Brightness = Brightness(band(r, s.Bands.Brightness[0]), band(r, s.Bands.Brightness[1]))

	white := make([]float64, len(s.Bands.Whiteness))
	for i, b := range s.Bands.Whiteness {
		white[i] = band(r, b)
	}
	ind.Whiteness = Whiteness(white)

	ind.NDSI = NormalizedDifference(band(r, s.Bands.NDSIVis), band(r, s.Bands.NDSISwir))
	ind.NDVI = NormalizedDifference(band(r, s.Bands.NDVINir), band(r, s.Bands.NDVIRed))
	ind.PressureHeightDelta = PressureHeightDelta(m.SurfacePressure, m.CloudTopPressure, s.Pressure.Scale)

	if !math.IsNaN(m.Temperature) && s.Temperature.Scale > 0 {
		ind.Temperature = TemperatureTerm(m.Temperature, s.Temperature.Reference, s.Temperature.Scale)
		ind.HasTemperature = true
	}
	if !math.IsNaN(m.NNScore) {
		ind.NNScore = m.NNScore
		ind.HasNNScore = true
	}
	if !math.IsNaN(m.Glint) {
		ind.Glint = m.Glint
		ind.HasGlint = true
	}
	ind.Blue = band(r, s.Bands.Blue)

	switch {
	case ind.NDVI == NoData:
	case ind.NDVI >= s.Radiometric.NDVILand:
		ind.LandValue = 1
	case ind.NDVI <= s.Radiometric.NDVIWater:
		ind.LandValue = 0
	}
	return ind
}
