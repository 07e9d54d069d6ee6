package classifier

import (
	"fmt"

	"cloudscreen/pkg/breakpoint"
)

// baseThresholds are shared by the presets unless a sensor overrides them.
var baseThresholds = Thresholds{
	BrightWhite: 1.5,
	Cloud:       1.65,
	Ambiguous:   1.35,
	NDSI:        0.68,
	Land:        0.9,
	Water:       0.9,
	Bright:      0.3,
	White:       0.9,
	High:        0.5,
	VegRisk:     0.4,
	GlintRisk:   0.2,
}

var basePressure = Scaling{Reference: 1013.25, Scale: 700}

var presets = map[Sensor]func() Settings{
	// 15 bands, 412..900 nm, no SWIR: the snow index uses the 865/885 pair
	MERIS: func() Settings {
		return Settings{
			Sensor:      MERIS,
			NumBands:    15,
			Thresholds:  baseThresholds,
			Bands:       Bands{Brightness: [2]int{4, 12}, Whiteness: []int{2, 4, 6, 12}, NDSIVis: 12, NDSISwir: 13, NDVIRed: 6, NDVINir: 12, Blue: 0},
			DenseCloud:  DenseCloud{Enabled: true, BlueMin: 0.45, WhitenessMin: 0.8, NDSIMax: 0.1},
			Pressure:    basePressure,
			Radiometric: Radiometric{NDVILand: 0.2, NDVIWater: -0.05},
			NN:          NNBands{AmbiguousLower: 2.0, SureSeparation: 3.7, SnowSeparation: 4.05},
			NNMode:      ModeRefine,
		}
	},
	// 550, 670, 870, 1600 nm plus 11/12 um brightness temperatures
	AATSR: func() Settings {
		t := baseThresholds
		t.NDSI = 0.6
		return Settings{
			Sensor:      AATSR,
			NumBands:    4,
			Thresholds:  t,
			Bands:       Bands{Brightness: [2]int{0, 1}, Whiteness: []int{0, 1, 2}, NDSIVis: 0, NDSISwir: 3, NDVIRed: 1, NDVINir: 2, Blue: 0},
			Pressure:    basePressure,
			Temperature: Scaling{Reference: 290, Scale: 60},
			Radiometric: Radiometric{NDVILand: 0.2, NDVIWater: -0.05},
			NN:          NNBands{AmbiguousLower: 1.95, SureSeparation: 3.45, SnowSeparation: 4.5},
			NNMode:      ModeRefine,
		}
	},
	// B0 450, B2 645, B3 835, MIR 1665 nm
	VGT: func() Settings {
		t := baseThresholds
		t.Cloud = 1.6
		return Settings{
			Sensor:      VGT,
			NumBands:    4,
			Thresholds:  t,
			Bands:       Bands{Brightness: [2]int{0, 1}, Whiteness: []int{0, 1, 2}, NDSIVis: 1, NDSISwir: 3, NDVIRed: 1, NDVINir: 2, Blue: 0},
			DenseCloud:  DenseCloud{Enabled: true, BlueMin: 0.4, WhitenessMin: 0.8, NDSIMax: 0.1},
			Pressure:    basePressure,
			Radiometric: Radiometric{NDVILand: 0.2, NDVIWater: -0.05},
			NN:          NNBands{AmbiguousLower: 1.1, SureSeparation: 2.7, SnowSeparation: 3.5},
			NNMode:      ModePure,
		}
	},
	// coastal, blue, green, red, nir, swir1, swir2, pan, cirrus
	Landsat8: func() Settings {
		return Settings{
			Sensor:      Landsat8,
			NumBands:    9,
			Thresholds:  baseThresholds,
			Bands:       Bands{Brightness: [2]int{3, 4}, Whiteness: []int{1, 2, 3, 4}, NDSIVis: 2, NDSISwir: 5, NDVIRed: 3, NDVINir: 4, Blue: 1},
			Pressure:    basePressure,
			Temperature: Scaling{Reference: 290, Scale: 60},
			Radiometric: Radiometric{NDVILand: 0.2, NDVIWater: -0.05},
			NN:          NNBands{AmbiguousLower: 1.65, SureSeparation: 2.4, SnowSeparation: 3.2},
			NNMode:      ModeRefine,
			Variants:    landsat8Variants(),
		}
	},
	// 645, 858, 469, 555, 1240, 1640, 2130 nm
	MODIS: func() Settings {
		return Settings{
			Sensor:      MODIS,
			NumBands:    7,
			Thresholds:  baseThresholds,
			Bands:       Bands{Brightness: [2]int{0, 1}, Whiteness: []int{2, 3, 0, 1}, NDSIVis: 3, NDSISwir: 5, NDVIRed: 0, NDVINir: 1, Blue: 2},
			DenseCloud:  DenseCloud{Enabled: true, BlueMin: 0.45, WhitenessMin: 0.8, NDSIMax: 0.1},
			Pressure:    basePressure,
			Radiometric: Radiometric{NDVILand: 0.2, NDVIWater: -0.05},
			NN:          NNBands{AmbiguousLower: 2.0, SureSeparation: 3.7, SnowSeparation: 4.05},
			NNMode:      ModeRefine,
		}
	},
	// 412, 443, 490, 510, 555, 670, 765, 865 nm
	SeaWiFS: func() Settings {
		return Settings{
			Sensor:      SeaWiFS,
			NumBands:    8,
			Thresholds:  baseThresholds,
			Bands:       Bands{Brightness: [2]int{4, 7}, Whiteness: []int{1, 4, 5, 7}, NDSIVis: 6, NDSISwir: 7, NDVIRed: 5, NDVINir: 7, Blue: 0},
			DenseCloud:  DenseCloud{Enabled: true, BlueMin: 0.45, WhitenessMin: 0.8, NDSIMax: 0.1},
			Pressure:    basePressure,
			Radiometric: Radiometric{NDVILand: 0.2, NDVIWater: -0.05},
			NN:          NNBands{AmbiguousLower: 2.0, SureSeparation: 3.7, SnowSeparation: 4.05},
			NNMode:      ModeRefine,
		}
	},
}

// landsat8Variants are the eight NN-score channels of the Landsat-8 mode.
func landsat8Variants() breakpoint.VariantSet {
	return breakpoint.VariantSet{
		{Name: "all_bands", Output: 0, Breakpoints: breakpoint.Table{1.65, 2.4, 3.2}},
		{Name: "all_bands_land", Output: 1, Breakpoints: breakpoint.Table{1.6, 2.2, 3.1}},
		{Name: "all_bands_water", Output: 2, Breakpoints: breakpoint.Table{1.7, 2.5}},
		{Name: "no_thermal", Output: 3, Breakpoints: breakpoint.Table{1.55, 2.35, 3.25}},
		{Name: "no_thermal_land", Output: 4, Breakpoints: breakpoint.Table{1.5, 2.3}},
		{Name: "no_thermal_water", Output: 5, Breakpoints: breakpoint.Table{1.7, 2.6}},
		{Name: "visible_only", Output: 6, Breakpoints: breakpoint.Table{1.6, 2.45, 3.3}},
		{Name: "cirrus", Output: 7, Breakpoints: breakpoint.Table{1.8, 2.9}},
	}
}

// Preset returns a fresh copy of the default settings for sensor.
func Preset(sensor Sensor) (Settings, error) {
	build, ok := presets[sensor]
	if !ok {
		return Settings{}, fmt.Errorf("%w: %q", ErrUnknownSensor, sensor)
	}
	return build(), nil
}

// Sensors lists the sensors with presets.
func Sensors() []Sensor {
	return []Sensor{MERIS, AATSR, VGT, Landsat8, MODIS, SeaWiFS}
}
