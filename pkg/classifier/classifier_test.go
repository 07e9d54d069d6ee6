package classifier

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudscreen/pkg/flags"
	"cloudscreen/pkg/watermask"
)

func testClassifier(t *testing.T, mode NNMode) *Classifier {
	t.Helper()
	s, err := Preset(MERIS)
	require.NoError(t, err)
	s.NNMode = mode
	c, err := New(s)
	require.NoError(t, err)
	return c
}

// clearIndicators returns a valid, dark, radiometrically uncertain pixel
func clearIndicators() Indicators {
	return Indicators{
		Valid:            true,
		Brightness:       0.05,
		Whiteness:        0.2,
		NDSI:             0,
		NDVI:             0,
		LandValue:        Uncertain,
		APrioriLandValue: Uncertain,
	}
}

func TestClampAndHelpers(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-3))
	assert.Equal(t, 1.0, Clamp01(7))
	assert.Equal(t, 0.0, Clamp01(math.NaN()))
	assert.Equal(t, 0.4, Clamp01(0.4))

	assert.Equal(t, NoData, Brightness(0, 0.5))
	assert.Equal(t, NoData, Brightness(0.5, -1))
	assert.Equal(t, NoData, Brightness(math.NaN(), 0.5))
	assert.InDelta(t, 0.3, Brightness(0.2, 0.4), 1e-12)

	assert.Equal(t, 0.0, Whiteness([]float64{0.5, 0}))
	assert.InDelta(t, 0.5, Whiteness([]float64{0.4, 0.8, 0.6}), 1e-12)
	assert.Equal(t, 1.0, Whiteness([]float64{0.3, 0.3}))

	assert.Equal(t, NoData, NormalizedDifference(0, 0))
	assert.Equal(t, NoData, NormalizedDifference(math.NaN(), 1))
	assert.InDelta(t, 0.5, NormalizedDifference(0.3, 0.1), 1e-12)

	assert.Equal(t, 1.0, PressureHeightDelta(1000, 100, 700))
	assert.Equal(t, 0.0, PressureHeightDelta(1000, 1100, 700))
	assert.Equal(t, 0.0, PressureHeightDelta(math.NaN(), 500, 700))
	assert.InDelta(t, 0.5, PressureHeightDelta(1000, 650, 700), 1e-12)

	assert.InDelta(t, 0.5, TemperatureTerm(260, 290, 60), 1e-12)
	assert.Equal(t, 0.0, TemperatureTerm(300, 290, 60))

	assert.Equal(t, Uncertain, APrioriLandValue(watermask.Invalid))
	assert.Equal(t, Uncertain, APrioriLandValue(50))
	assert.Equal(t, 1.0, APrioriLandValue(10))
	assert.Equal(t, 0.0, APrioriLandValue(90))
}

func TestInvalidPixelCarriesOnlyInvalid(t *testing.T) {
	c := testClassifier(t, ModePure)
	ind := clearIndicators()
	ind.Valid = false
	ind.Brightness = 5
	ind.HasNNScore = true
	ind.NNScore = 3.9
	ind.LandValue = 1
	assert.Equal(t, flags.Invalid, c.Classify(ind))

	refl := make([]float64, 15)
	for i := range refl {
		refl[i] = math.NaN()
	}
	refl[3] = -1
	computed := c.Indicators(Measurements{Reflectances: refl, NNScore: math.NaN(), Temperature: math.NaN(), Glint: math.NaN()})
	assert.False(t, computed.Valid)
	assert.Equal(t, flags.Invalid, c.Classify(computed))
}

// TestInvalidPropagationInvariant checks random indicator sets never produce INVALID
// together with another bit
func TestInvalidPropagationInvariant(t *testing.T) {
	c := testClassifier(t, ModeRefine)
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 2000; i++ {
		ind := Indicators{
			Valid:               rng.Intn(4) != 0,
			Brightness:          rng.Float64() * 1.2,
			Whiteness:           rng.Float64()*1.4 - 0.2,
			NDSI:                rng.Float64()*2 - 1,
			NDVI:                rng.Float64()*2 - 1,
			PressureHeightDelta: rng.Float64()*1.4 - 0.2,
			NNScore:             rng.Float64() * 5,
			HasNNScore:          rng.Intn(2) == 0,
			Blue:                rng.Float64(),
			LandValue:           []float64{0, Uncertain, 1}[rng.Intn(3)],
			APrioriLandValue:    []float64{0, Uncertain, 1}[rng.Intn(3)],
		}
		m := c.Classify(ind)
		if m.Has(flags.Invalid) && m != flags.Invalid {
			t.Fatalf("invalid pixel with extra bits: %s", m)
		}
		if !ind.Valid && m != flags.Invalid {
			t.Fatalf("invalid input produced %s", m)
		}
		if m.Has(flags.Cloud) != m.Any(flags.CloudSure|flags.CloudAmbiguous) {
			t.Fatalf("CLOUD inconsistent with sure/ambiguous: %s", m)
		}
		if m.Has(flags.CloudSure) && m.Has(flags.CloudAmbiguous) {
			t.Fatalf("sure and ambiguous together: %s", m)
		}
	}
}

func TestThresholdSum(t *testing.T) {
	c := testClassifier(t, ModeOff)

	ind := clearIndicators()
	assert.False(t, c.Classify(ind).Has(flags.Cloud))

	// 0.95 + 0.6 + 0.3 = 1.85 > 1.65
	ind.Whiteness, ind.Brightness, ind.PressureHeightDelta = 0.95, 0.6, 0.3
	m := c.Classify(ind)
	assert.True(t, m.Has(flags.Cloud|flags.CloudSure))
	assert.False(t, m.Has(flags.CloudAmbiguous))
	assert.True(t, m.Has(flags.BrightWhite))
	assert.True(t, m.Has(flags.Bright))

	// 0.8 + 0.6 = 1.4 lies between ambiguous and cloud thresholds
	ind.Whiteness, ind.PressureHeightDelta = 0.8, 0
	m = c.Classify(ind)
	assert.True(t, m.Has(flags.Cloud|flags.CloudAmbiguous))
	assert.False(t, m.Has(flags.CloudSure))
}

func TestClampingPreventsOutOfRangeIndicators(t *testing.T) {
	c := testClassifier(t, ModeOff)
	ind := clearIndicators()
	// an unclamped pressure delta of 5 would push the sum past the cloud threshold
	ind.PressureHeightDelta = 5
	ind.Whiteness = -3
	ind.Brightness = 0.2
	m := c.Classify(ind)
	assert.False(t, m.Has(flags.CloudSure), m.String())
	assert.True(t, m.Has(flags.High))
}

func TestNoDataBrightnessDisablesSum(t *testing.T) {
	c := testClassifier(t, ModeOff)
	ind := clearIndicators()
	ind.Brightness = NoData
	ind.Whiteness = 1
	ind.PressureHeightDelta = 1
	m := c.Classify(ind)
	assert.False(t, m.Any(flags.CloudAny|flags.Bright|flags.BrightWhite), m.String())
}

func TestSnowSuppressesCloudSure(t *testing.T) {
	c := testClassifier(t, ModeOff)
	ind := clearIndicators()
	ind.Whiteness, ind.Brightness, ind.PressureHeightDelta = 0.95, 0.8, 0.2
	ind.NDSI = 0.8
	m := c.Classify(ind)
	assert.True(t, m.Has(flags.ClearSnow))
	assert.False(t, m.Any(flags.CloudAny), m.String())
}

func TestDenseCloudOverride(t *testing.T) {
	c := testClassifier(t, ModeOff)
	ind := clearIndicators()
	// sum 0.85 + 0.3 = 1.15 below every threshold
	ind.Whiteness, ind.Brightness = 0.85, 0.3
	ind.Blue = 0.5
	m := c.Classify(ind)
	assert.True(t, m.Has(flags.Cloud|flags.CloudSure), m.String())

	ind.NDSI = 0.5
	m = c.Classify(ind)
	assert.False(t, m.Has(flags.Cloud), "snow-like spectra must not trigger the dense cloud test")

	s := c.Settings()
	s.DenseCloud.Enabled = false
	plain, err := New(s)
	require.NoError(t, err)
	ind.NDSI = 0
	assert.False(t, plain.Classify(ind).Has(flags.Cloud))
}

func TestLandWaterPrecedence(t *testing.T) {
	c := testClassifier(t, ModeOff)
	testCases := []struct {
		name       string
		radiometic float64
		apriori    float64
		want       flags.Mask
	}{
		{"radiometric land overrides a-priori water", 1, 0, flags.Land | flags.ClearLand},
		{"radiometric water overrides a-priori land", 0, 1, flags.Water | flags.ClearWater},
		{"uncertain radiometric falls back to a-priori land", Uncertain, 1, flags.Land | flags.ClearLand},
		{"uncertain radiometric falls back to a-priori water", Uncertain, 0, flags.Water | flags.ClearWater},
		{"no evidence on either side", Uncertain, Uncertain, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ind := clearIndicators()
			ind.LandValue = tc.radiometic
			ind.APrioriLandValue = tc.apriori
			m := c.Classify(ind)
			got := m & (flags.Land | flags.Water | flags.ClearLand | flags.ClearWater)
			assert.Equal(t, tc.want, got, m.String())
		})
	}
}

func TestCloudBlocksClearLand(t *testing.T) {
	c := testClassifier(t, ModeOff)
	ind := clearIndicators()
	ind.LandValue = 1
	ind.Whiteness, ind.Brightness, ind.PressureHeightDelta = 0.9, 0.6, 0.3
	m := c.Classify(ind)
	assert.True(t, m.Has(flags.Land|flags.Cloud))
	assert.False(t, m.Has(flags.ClearLand))
}

func TestNNPureMode(t *testing.T) {
	c := testClassifier(t, ModePure)
	testCases := []struct {
		score float64
		want  flags.Mask
	}{
		{1.0, 0},
		{2.0, 0},
		{2.5, flags.Cloud | flags.CloudAmbiguous},
		{3.7, flags.Cloud | flags.CloudAmbiguous},
		{3.8, flags.Cloud | flags.CloudSure},
		{4.05, flags.Cloud | flags.CloudSure},
		{4.2, flags.SnowIce},
	}

	for _, tc := range testCases {
		// threshold test alone would say cloud sure
		ind := clearIndicators()
		ind.Whiteness, ind.Brightness, ind.PressureHeightDelta = 0.9, 0.6, 0.3
		ind.HasNNScore = true
		ind.NNScore = tc.score
		m := c.Classify(ind)
		got := m & (flags.CloudAny | flags.SnowIce)
		assert.Equal(t, tc.want, got, "score %v: %s", tc.score, m)
	}
}

func TestNNRefineMode(t *testing.T) {
	c := testClassifier(t, ModeRefine)

	// prior cloud sure is never downgraded
	ind := clearIndicators()
	ind.Whiteness, ind.Brightness, ind.PressureHeightDelta = 0.9, 0.6, 0.3
	ind.HasNNScore = true
	ind.NNScore = 0.5
	m := c.Classify(ind)
	assert.True(t, m.Has(flags.Cloud|flags.CloudSure))

	// prior ambiguous stays as is
	ind.PressureHeightDelta = 0
	ind.Whiteness = 0.8
	ind.NNScore = 3.9
	m = c.Classify(ind)
	assert.True(t, m.Has(flags.CloudAmbiguous))
	assert.False(t, m.Has(flags.CloudSure))

	// clear pixels are refined
	clear := clearIndicators()
	clear.LandValue = 1
	clear.HasNNScore = true
	clear.NNScore = 3.9
	m = c.Classify(clear)
	assert.True(t, m.Has(flags.Cloud|flags.CloudSure))
	assert.False(t, m.Has(flags.ClearLand), "cloud from the NN must clear CLEAR_LAND")

	clear.NNScore = 2.5
	m = c.Classify(clear)
	assert.True(t, m.Has(flags.Cloud|flags.CloudAmbiguous))

	clear.NNScore = 5
	m = c.Classify(clear)
	assert.True(t, m.Has(flags.SnowIce))
	assert.False(t, m.Has(flags.Cloud))

	clear.NNScore = 1
	m = c.Classify(clear)
	assert.True(t, m.Has(flags.ClearLand))
}

func TestIndicatorsFromMeasurements(t *testing.T) {
	c := testClassifier(t, ModeOff)
	refl := make([]float64, 15)
	for i := range refl {
		refl[i] = 0.1
	}
	refl[6] = 0.05  // red
	refl[12] = 0.3  // nir
	refl[13] = 0.28 // ndsi pair
	refl[4] = 0.1
	refl[0] = 0.12

	ind := c.Indicators(Measurements{
		Reflectances:     refl,
		SurfacePressure:  1000,
		CloudTopPressure: 860,
		Temperature:      math.NaN(),
		Glint:            math.NaN(),
		NNScore:          math.NaN(),
		WaterFraction:    30,
	})
	require.True(t, ind.Valid)
	assert.InDelta(t, 0.2, ind.Brightness, 1e-12)
	assert.InDelta(t, 0.05/0.3, ind.Whiteness, 1e-12)
	assert.InDelta(t, (0.3-0.05)/(0.3+0.05), ind.NDVI, 1e-12)
	assert.InDelta(t, (0.3-0.28)/(0.3+0.28), ind.NDSI, 1e-12)
	assert.InDelta(t, 0.2, ind.PressureHeightDelta, 1e-12)
	assert.Equal(t, 1.0, ind.LandValue)
	assert.Equal(t, 1.0, ind.APrioriLandValue)
	assert.True(t, ind.Coastline)
	assert.False(t, ind.HasTemperature)
	assert.False(t, ind.HasNNScore)
	assert.InDelta(t, 0.12, ind.Blue, 1e-12)

	m := c.Classify(ind)
	assert.True(t, m.Has(flags.Land|flags.ClearLand|flags.Coastline|flags.VegRisk), m.String())
}

func TestSettingsValidate(t *testing.T) {
	for _, sensor := range Sensors() {
		s, err := Preset(sensor)
		require.NoError(t, err)
		assert.NoError(t, s.Validate(), sensor)
	}

	_, err := Preset("goes")
	assert.True(t, errors.Is(err, ErrUnknownSensor))

	s, _ := Preset(MERIS)
	s.Bands.NDSISwir = 15
	assert.Error(t, s.Validate())

	s, _ = Preset(MERIS)
	s.NN = NNBands{AmbiguousLower: 3, SureSeparation: 2, SnowSeparation: 4}
	assert.Error(t, s.Validate())

	s, _ = Preset(MERIS)
	s.NNMode = "maybe"
	assert.Error(t, s.Validate())

	s, _ = Preset(MERIS)
	s.Thresholds.Ambiguous = 2
	assert.Error(t, s.Validate())

	s, _ = Preset(Landsat8)
	s.Variants[0].Breakpoints = []float64{2, 1}
	assert.Error(t, s.Validate())

	sensor, err := ParseSensor(" Landsat8 ")
	require.NoError(t, err)
	assert.Equal(t, Landsat8, sensor)
}
