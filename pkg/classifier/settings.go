package classifier

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"cloudscreen/pkg/breakpoint"
)

// Sensor tags a classifier preset.
type Sensor string

const (
	MERIS    Sensor = "meris"
	AATSR    Sensor = "aatsr"
	VGT      Sensor = "vgt"
	Landsat8 Sensor = "landsat8"
	MODIS    Sensor = "modis"
	SeaWiFS  Sensor = "seawifs"
)

// NNMode selects how an external NN score combines with the threshold test.
type NNMode string

const (
	// ModeOff ignores NN scores
	ModeOff NNMode = ""
	// ModePure replaces the prior cloud and snow bits of valid pixels
	ModePure NNMode = "pure"
	// ModeRefine only touches pixels the threshold test left cloud free
	ModeRefine NNMode = "refine"
)

// ErrUnknownSensor is returned for a sensor tag without a preset.
var ErrUnknownSensor = errors.New("unknown sensor")

// Thresholds used by the composite decision.
type Thresholds struct {
	BrightWhite float64 `yaml:"brightWhite"`
	Cloud       float64 `yaml:"cloud"`
	Ambiguous   float64 `yaml:"ambiguous"`
	NDSI        float64 `yaml:"ndsi"`
	Land        float64 `yaml:"land"`
	Water       float64 `yaml:"water"`
	Bright      float64 `yaml:"bright"`
	White       float64 `yaml:"white"`
	High        float64 `yaml:"high"`
	VegRisk     float64 `yaml:"vegRisk"`
	GlintRisk   float64 `yaml:"glintRisk"`
}

// Bands maps indicator inputs to indices in the reflectance vector.
type Bands struct {
	Brightness [2]int `yaml:"brightness"`
	Whiteness  []int  `yaml:"whiteness"`
	NDSIVis    int    `yaml:"ndsiVis"`
	NDSISwir   int    `yaml:"ndsiSwir"`
	NDVIRed    int    `yaml:"ndviRed"`
	NDVINir    int    `yaml:"ndviNir"`
	Blue       int    `yaml:"blue"`
}

// DenseCloud configures the blue dense cloud override. Its thresholds are
// defaults to be validated against reference products.
type DenseCloud struct {
	Enabled      bool    `yaml:"enabled"`
	BlueMin      float64 `yaml:"blueMin"`
	WhitenessMin float64 `yaml:"whitenessMin"`
	NDSIMax      float64 `yaml:"ndsiMax"`
}

// NNBands are the score boundaries of the NN refinement.
type NNBands struct {
	AmbiguousLower float64 `yaml:"ambiguousLower"`
	SureSeparation float64 `yaml:"sureSeparation"`
	SnowSeparation float64 `yaml:"snowSeparation"`
}

// Validate requires strictly increasing boundaries.
func (b NNBands) Validate() error {
	if !(b.AmbiguousLower < b.SureSeparation && b.SureSeparation < b.SnowSeparation) {
		return fmt.Errorf("nn boundaries must increase: ambiguousLower %v, sureSeparation %v, snowSeparation %v",
			b.AmbiguousLower, b.SureSeparation, b.SnowSeparation)
	}
	return nil
}

// Scaling normalizes a physical quantity onto [0, 1].
type Scaling struct {
	Reference float64 `yaml:"reference"`
	Scale     float64 `yaml:"scale"`
}

// Radiometric holds the NDVI limits of the radiometric land value.
type Radiometric struct {
	NDVILand  float64 `yaml:"ndviLand"`
	NDVIWater float64 `yaml:"ndviWater"`
}

// Settings parameterize the generic classifier for one sensor.
type Settings struct {
	Sensor      Sensor                `yaml:"sensor"`
	NumBands    int                   `yaml:"numBands"`
	Thresholds  Thresholds            `yaml:"thresholds"`
	Bands       Bands                 `yaml:"bands"`
	DenseCloud  DenseCloud            `yaml:"denseCloud"`
	Pressure    Scaling               `yaml:"pressure"`
	Temperature Scaling               `yaml:"temperature"`
	Radiometric Radiometric           `yaml:"radiometric"`
	NN          NNBands               `yaml:"nn"`
	NNMode      NNMode                `yaml:"nnMode"`
	Variants    breakpoint.VariantSet `yaml:"variants,omitempty"`
}

// Validate rejects settings that would corrupt the decision table.
func (s Settings) Validate() error {
	if s.NumBands <= 0 {
		return fmt.Errorf("numBands must be positive, got %d", s.NumBands)
	}
	t := s.Thresholds
	for name, v := range map[string]float64{
		"brightWhite": t.BrightWhite, "cloud": t.Cloud, "ambiguous": t.Ambiguous,
		"ndsi": t.NDSI, "land": t.Land, "water": t.Water, "bright": t.Bright,
		"white": t.White, "high": t.High, "vegRisk": t.VegRisk, "glintRisk": t.GlintRisk,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("threshold %s is not finite", name)
		}
	}
	if t.Ambiguous > t.Cloud {
		return fmt.Errorf("ambiguous threshold %v exceeds cloud threshold %v", t.Ambiguous, t.Cloud)
	}

	indices := append([]int{
		s.Bands.Brightness[0], s.Bands.Brightness[1],
		s.Bands.NDSIVis, s.Bands.NDSISwir, s.Bands.NDVIRed, s.Bands.NDVINir, s.Bands.Blue,
	}, s.Bands.Whiteness...)
	for _, i := range indices {
		if i < 0 || i >= s.NumBands {
			return fmt.Errorf("band index %d out of range [0,%d)", i, s.NumBands)
		}
	}
	if len(s.Bands.Whiteness) < 2 {
		return fmt.Errorf("whiteness needs at least two bands, got %d", len(s.Bands.Whiteness))
	}

	switch s.NNMode {
	case ModeOff:
	case ModePure, ModeRefine:
		if err := s.NN.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown nn mode %q", s.NNMode)
	}
	return s.Variants.Validate()
}

// ParseSensor resolves a sensor tag case-insensitively.
func ParseSensor(name string) (Sensor, error) {
	s := Sensor(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := presets[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSensor, name)
	}
	return s, nil
}
