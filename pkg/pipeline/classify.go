package pipeline

import (
	"fmt"
	"math"

	"cloudscreen/pkg/breakpoint"
	"cloudscreen/pkg/classifier"
	"cloudscreen/pkg/features"
	"cloudscreen/pkg/nn"
	"cloudscreen/pkg/raster"
)

// classifyStage is the per-pixel stage. Tiles write disjoint regions of the shared
// output rasters.
type classifyStage struct {
	p          *Pipeline
	scene      *Scene
	assembler  *features.Assembler
	out        *Result
	brightness *raster.Raster
	variants   breakpoint.VariantSet
}

// pixelScratch is reused by one worker across the pixels of a tile.
type pixelScratch struct {
	raw     []float64
	refl    []float64
	feature []float64
	cats    []breakpoint.Category
}

func (s *classifyStage) tile(worker int, t raster.Tile) error {
	var eval nn.Evaluator
	if s.p.opts.NN != nil {
		var err error
		if eval, err = s.p.opts.NN.Get(worker); err != nil {
			return err
		}
	}

	scene := s.scene
	water := scene.water()
	cls := s.p.opts.Classifier
	scratch := pixelScratch{raw: make([]float64, len(scene.Bands))}

	for y := t.Rect.Min.Y; y < t.Rect.Max.Y; y++ {
		for x := t.Rect.Min.X; x < t.Rect.Max.X; x++ {
			for b, band := range scene.Bands {
				scratch.raw[b] = band.At(x, y)
			}
			sza := scene.SolarZenith.At(x, y)

			var err error
			scratch.refl, err = s.assembler.Reflectances(scratch.raw, sza, scratch.refl)
			if err != nil {
				return err
			}

			var scores []float64
			if eval != nil && classifier.Valid(scratch.refl) {
				scratch.feature, err = s.assembler.Assemble(scratch.raw, sza, scene.Latitude.At(x, y), scene.Longitude.At(x, y), scratch.feature)
				if err != nil {
					return err
				}
				if features.Finite(scratch.feature) {
					if scores, err = eval.Evaluate(scratch.feature); err != nil {
						return fmt.Errorf("pixel (%d,%d): %w", x, y, err)
					}
				}
			}

			m := classifier.Measurements{
				Reflectances:     scratch.refl,
				SurfacePressure:  scene.SurfacePressure.At(x, y),
				CloudTopPressure: scene.CloudTopPressure.At(x, y),
				Temperature:      optional(scene.Temperature, x, y),
				Glint:            optional(scene.Glint, x, y),
				WaterFraction:    water.FractionAt(x, y),
				NNScore:          math.NaN(),
			}
			if idx := s.p.opts.ScoreIndex; idx < len(scores) {
				m.NNScore = scores[idx]
			}

			ind := cls.Indicators(m)
			s.out.Classified.Set(x, y, cls.Classify(ind))
			s.record(x, y, ind)

			if len(s.variants) > 0 {
				scratch.cats = s.variants.Classify(scores, scratch.cats)
				i := y*scene.Width + x
				for k, v := range s.variants {
					s.out.Categories[v.Name][i] = scratch.cats[k]
				}
			}
		}
	}
	return nil
}

// record stores the indicators of valid pixels.
func (s *classifyStage) record(x, y int, ind classifier.Indicators) {
	if !ind.Valid {
		return
	}
	s.brightness.Set(x, y, ind.Brightness)
	d := s.out.Diagnostics
	if d == nil {
		return
	}
	d.Whiteness.Set(x, y, ind.Whiteness)
	d.NDSI.Set(x, y, ind.NDSI)
	d.NDVI.Set(x, y, ind.NDVI)
	d.PressureHeightDelta.Set(x, y, ind.PressureHeightDelta)
	if ind.HasNNScore {
		d.NNScore.Set(x, y, ind.NNScore)
	}
}

func optional(r *raster.Raster, x, y int) float64 {
	if r == nil {
		return math.NaN()
	}
	return r.At(x, y)
}
