package models

import (
	"time"
)

// Manifest describes a scene on disk: one 16-bit TIFF per channel plus metadata
type Manifest struct {
	// Sensor selects the classifier preset
	Sensor string `yaml:"sensor"`

	// Start and End bound the acquisition
	Start time.Time `yaml:"start"`
	End   time.Time `yaml:"end"`

	// Bands are the measurement channels in preset order
	Bands []Channel `yaml:"bands"`

	// Geometry and auxiliary channels
	SolarZenith      Channel `yaml:"solarZenith"`
	Latitude         Channel `yaml:"latitude"`
	Longitude        Channel `yaml:"longitude"`
	SurfacePressure  Channel `yaml:"surfacePressure"`
	CloudTopPressure Channel `yaml:"cloudTopPressure"`

	// Temperature and Glint are optional
	Temperature *Channel `yaml:"temperature,omitempty"`
	Glint       *Channel `yaml:"glint,omitempty"`

	// Water is the optional a-priori water mask
	Water *WaterMask `yaml:"water,omitempty"`
}

// Channel is one raster. Pixel values are decoded as stored*Scale + Offset.
// A channel without a file is filled with Constant.
type Channel struct {
	// Name identifies the channel in messages
	Name string `yaml:"name"`

	// File is the TIFF path, relative to the manifest
	File string `yaml:"file,omitempty"`

	// Scale and Offset convert stored integers to physical values
	Scale  float64 `yaml:"scale,omitempty"`
	Offset float64 `yaml:"offset,omitempty"`

	// Constant fills the channel when File is empty
	Constant *float64 `yaml:"constant,omitempty"`

	// SolarFlux is the band's solar irradiance, bands only
	SolarFlux float64 `yaml:"solarFlux,omitempty"`
}

// WaterMaskKind tells how a water mask is stored
type WaterMaskKind string

const (
	// WaterFraction is a raster of water percentages
	WaterFraction WaterMaskKind = "fraction"

	// WaterBinary is a raster where non-zero means water
	WaterBinary WaterMaskKind = "binary"

	// WaterPoints are geographic samples matched to the nearest pixel position
	WaterPoints WaterMaskKind = "points"
)

// WaterMask is the on-disk water mask description
type WaterMask struct {
	Kind WaterMaskKind `yaml:"kind"`

	// Channel holds the raster for the fraction and binary kinds
	Channel Channel `yaml:"channel,omitempty"`

	// Samples and MaxDistance (degrees) describe the points kind
	Samples     []WaterSample `yaml:"samples,omitempty"`
	MaxDistance float64       `yaml:"maxDistance,omitempty"`
}

// WaterSample is one geographic water fraction sample
type WaterSample struct {
	Lat      float64 `yaml:"lat"`
	Lon      float64 `yaml:"lon"`
	Fraction float64 `yaml:"fraction"`
}
