// Package flags defines the per-pixel classification bitmask and the flag raster
// exchanged between the classification and consolidation stages.
package flags

import (
	"strings"
)

// Mask is a per-pixel bitmask of named boolean properties.
type Mask uint32

const (
	Invalid Mask = 1 << iota
	Cloud
	CloudAmbiguous
	CloudSure
	CloudBuffer
	CloudShadow
	ClearLand
	ClearWater
	ClearSnow
	Land
	Water
	Bright
	White
	BrightWhite
	High
	VegRisk
	GlintRisk
	Coastline
)

// SnowIce is the name the NN refinement and coastline steps use for ClearSnow.
const SnowIce = ClearSnow

// CloudAny covers every bit that marks a pixel as cloudy.
const CloudAny = Cloud | CloudAmbiguous | CloudSure

var names = []struct {
	bit  Mask
	name string
}{
	{Invalid, "INVALID"},
	{Cloud, "CLOUD"},
	{CloudAmbiguous, "CLOUD_AMBIGUOUS"},
	{CloudSure, "CLOUD_SURE"},
	{CloudBuffer, "CLOUD_BUFFER"},
	{CloudShadow, "CLOUD_SHADOW"},
	{ClearLand, "CLEAR_LAND"},
	{ClearWater, "CLEAR_WATER"},
	{ClearSnow, "CLEAR_SNOW"},
	{Land, "LAND"},
	{Water, "WATER"},
	{Bright, "BRIGHT"},
	{White, "WHITE"},
	{BrightWhite, "BRIGHTWHITE"},
	{High, "HIGH"},
	{VegRisk, "VEG_RISK"},
	{GlintRisk, "GLINT_RISK"},
	{Coastline, "COASTLINE"},
}

// Has reports whether every bit of b is set.
func (m Mask) Has(b Mask) bool { return m&b == b }

// Any reports whether at least one bit of b is set.
func (m Mask) Any(b Mask) bool { return m&b != 0 }

// With returns m with b set to on.
func (m Mask) With(b Mask, on bool) Mask {
	if on {
		return m | b
	}
	return m &^ b
}

// Sanitize enforces the INVALID invariant: an invalid pixel carries no other bit.
func (m Mask) Sanitize() Mask {
	if m&Invalid != 0 {
		return Invalid
	}
	return m
}

// String lists the set bits by name, joined with '|'.
func (m Mask) String() string {
	if m == 0 {
		return "NONE"
	}
	var parts []string
	for _, n := range names {
		if m&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// ByName resolves a flag name such as "CLOUD_SURE". SNOW_ICE is accepted as an alias.
func ByName(name string) (Mask, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "SNOW_ICE" {
		return SnowIce, true
	}
	for _, n := range names {
		if n.name == name {
			return n.bit, true
		}
	}
	return 0, false
}

// Names returns all flag names in bit order.
func Names() []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n.name
	}
	return out
}
