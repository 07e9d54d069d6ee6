// Package classifier fuses continuous per-pixel indicators into the flag bitmask.
// One generic classifier serves every sensor; the differences live in Settings.
package classifier

import (
	"fmt"

	"cloudscreen/pkg/flags"
)

// Classifier evaluates the composite decision for single pixels. It holds no
// mutable state and is safe for concurrent use.
type Classifier struct {
	settings Settings
}

// New validates settings and returns a classifier.
func New(settings Settings) (*Classifier, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid classifier settings: %w", err)
	}
	return &Classifier{settings: settings}, nil
}

// Settings returns the configuration the classifier was built with.
func (c *Classifier) Settings() Settings { return c.settings }

// sum adds the indicators of the threshold test. ok is false when brightness is
// undefined, in which case the test cannot fire.
func (ind Indicators) sum() (float64, bool) {
	if ind.Brightness == NoData {
		return 0, false
	}
	s := Clamp01(ind.Whiteness) + ind.Brightness + Clamp01(ind.PressureHeightDelta)
	if ind.HasTemperature {
		s += Clamp01(ind.Temperature)
	}
	return s, true
}

// landValue applies the land/water precedence: the radiometric value wins when it
// is informative, the a-priori value is used otherwise.
func (ind Indicators) landValue() float64 {
	if ind.LandValue != Uncertain {
		return ind.LandValue
	}
	return ind.APrioriLandValue
}

func (c *Classifier) denseCloud(ind Indicators) bool {
	d := c.settings.DenseCloud
	if !d.Enabled || !positive(ind.Blue) {
		return false
	}
	if ind.NDSI != NoData && ind.NDSI >= d.NDSIMax {
		return false
	}
	return ind.Blue > d.BlueMin && Clamp01(ind.Whiteness) > d.WhitenessMin
}

// Classify returns the flag bitmask for one pixel.
func (c *Classifier) Classify(ind Indicators) flags.Mask {
	if !ind.Valid {
		return flags.Invalid
	}
	t := c.settings.Thresholds
	whiteness := Clamp01(ind.Whiteness)
	pressure := Clamp01(ind.PressureHeightDelta)
	hasBrightness := ind.Brightness != NoData

	brightWhite := hasBrightness && whiteness+ind.Brightness > t.BrightWhite
	clearSnow := brightWhite && ind.NDSI != NoData && ind.NDSI > t.NDSI

	var sure, ambiguous bool
	if sum, ok := ind.sum(); ok && !clearSnow {
		sure = sum > t.Cloud
		ambiguous = !sure && sum > t.Ambiguous
	}
	if c.denseCloud(ind) {
		sure, ambiguous, clearSnow = true, false, false
	}

	var m flags.Mask
	m = m.With(flags.CloudSure, sure).
		With(flags.CloudAmbiguous, ambiguous).
		With(flags.Cloud, sure || ambiguous).
		With(flags.SnowIce, clearSnow)

	if ind.HasNNScore {
		m = c.applyNN(m, ind.NNScore)
	}

	cloud := m.Has(flags.Cloud)
	lv := ind.landValue()
	isLand := lv > Uncertain
	isWater := lv < Uncertain

	m = m.With(flags.Land, isLand).
		With(flags.Water, isWater).
		With(flags.ClearLand, isLand && !cloud && lv > t.Land).
		With(flags.ClearWater, isWater && !cloud && 1-lv > t.Water).
		With(flags.Bright, hasBrightness && ind.Brightness > t.Bright).
		With(flags.White, whiteness > t.White).
		With(flags.BrightWhite, brightWhite).
		With(flags.High, pressure > t.High).
		With(flags.VegRisk, ind.NDVI != NoData && ind.NDVI > t.VegRisk).
		With(flags.GlintRisk, isWater && ind.HasGlint && ind.Glint > t.GlintRisk).
		With(flags.Coastline, ind.Coastline)

	return m.Sanitize()
}

// applyNN refines the cloud and snow bits with the external score.
func (c *Classifier) applyNN(m flags.Mask, score float64) flags.Mask {
	b := c.settings.NN
	switch c.settings.NNMode {
	case ModePure:
		m &^= flags.CloudAny | flags.SnowIce
	case ModeRefine:
		if m.Any(flags.Cloud | flags.CloudSure) {
			return m
		}
	default:
		return m
	}

	switch {
	case score > b.SnowSeparation:
		m |= flags.SnowIce
	case score > b.SureSeparation:
		m = m&^(flags.CloudAmbiguous|flags.SnowIce) | flags.CloudSure | flags.Cloud
	case score > b.AmbiguousLower:
		m = m&^flags.SnowIce | flags.CloudAmbiguous | flags.Cloud
	}
	return m
}
