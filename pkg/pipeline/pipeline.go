// Package pipeline runs the two-stage scene processing: per-pixel classification of
// every tile, then spatial consolidation of the materialized flag raster. Both stages
// fan tiles out to a fixed pool of workers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"cloudscreen/pkg/breakpoint"
	"cloudscreen/pkg/classifier"
	"cloudscreen/pkg/config"
	"cloudscreen/pkg/consolidate"
	"cloudscreen/pkg/features"
	"cloudscreen/pkg/flags"
	"cloudscreen/pkg/nn"
	"cloudscreen/pkg/raster"
)

// Options configure a Pipeline.
type Options struct {
	Classifier   *classifier.Classifier
	Consolidator consolidate.Consolidator

	// NN hands out one evaluator per worker, nil to classify without scores
	NN *nn.Cache

	// ScoreIndex selects the cloud score from the evaluator output
	ScoreIndex int

	Workers    int
	TileWidth  int
	TileHeight int

	// Halo of the consolidation tiles, zero for the minimum
	Halo int

	// Diagnostics keeps the indicator rasters in the result
	Diagnostics bool

	Logger logrus.FieldLogger
}

// Pipeline processes scenes. It is safe for sequential reuse.
type Pipeline struct {
	opts Options
	log  logrus.FieldLogger
}

// Diagnostics are the continuous indicators behind the flags, NoData where they
// could not be computed.
type Diagnostics struct {
	Brightness          *raster.Raster
	Whiteness           *raster.Raster
	NDSI                *raster.Raster
	NDVI                *raster.Raster
	PressureHeightDelta *raster.Raster
	NNScore             *raster.Raster
}

// Result of processing one scene.
type Result struct {
	// Flags is the consolidated flag raster
	Flags *flags.Raster

	// Classified is the flag raster before consolidation
	Classified *flags.Raster

	// Categories holds one row-major category grid per breakpoint variant
	Categories map[string][]breakpoint.Category

	// Diagnostics is nil unless requested
	Diagnostics *Diagnostics

	Summary Summary
}

// New checks opts and returns a pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.Classifier == nil {
		return nil, errors.New("pipeline needs a classifier")
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.TileWidth < 1 || opts.TileHeight < 1 {
		return nil, fmt.Errorf("invalid tile size %dx%d", opts.TileWidth, opts.TileHeight)
	}
	if opts.Halo == 0 {
		opts.Halo = opts.Consolidator.Halo()
	}
	if opts.Halo < opts.Consolidator.Halo() {
		return nil, fmt.Errorf("halo %d, need %d: %w", opts.Halo, opts.Consolidator.Halo(), consolidate.ErrHaloTooSmall)
	}
	if opts.ScoreIndex < 0 {
		return nil, fmt.Errorf("negative score index %d", opts.ScoreIndex)
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pipeline{opts: opts, log: log}, nil
}

// NewFromConfig builds the classifier, the consolidator and, when enabled, the NN
// model described by cfg.
func NewFromConfig(cfg *config.Config, log logrus.FieldLogger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cls, err := classifier.New(cfg.Classifier)
	if err != nil {
		return nil, err
	}
	cons, err := cfg.Consolidator()
	if err != nil {
		return nil, err
	}
	halo, err := cfg.Halo()
	if err != nil {
		return nil, err
	}

	opts := Options{
		Classifier:   cls,
		Consolidator: cons,
		ScoreIndex:   cfg.NN.ScoreIndex,
		Workers:      cfg.Processing.NumWorkers,
		TileWidth:    cfg.Processing.TileWidth,
		TileHeight:   cfg.Processing.TileHeight,
		Halo:         halo,
		Diagnostics:  cfg.Output.Diagnostics,
		Logger:       log,
	}

	if cfg.NN.Enabled {
		model, err := nn.LoadModel(cfg.NN.Model)
		if err != nil {
			return nil, err
		}
		if want := cfg.Classifier.NumBands + features.ExtraFeatures; model.Inputs() != want {
			return nil, fmt.Errorf("model %s expects %d features, sensor %s provides %d",
				cfg.NN.Model, model.Inputs(), cfg.Sensor, want)
		}
		if cfg.NN.ScoreIndex >= model.Outputs() {
			return nil, fmt.Errorf("scoreIndex %d out of range for %d model outputs", cfg.NN.ScoreIndex, model.Outputs())
		}
		opts.NN = nn.NewCache(model.Factory())
	}
	return New(opts)
}

// Process classifies and consolidates scene. Cancelling ctx stops both stages at
// tile granularity.
func (p *Pipeline) Process(ctx context.Context, scene *Scene) (*Result, error) {
	doy, err := scene.Validate()
	if err != nil {
		return nil, err
	}
	assembler, err := features.NewAssembler(scene.SolarFlux, doy)
	if err != nil {
		return nil, err
	}
	if n := p.opts.Classifier.Settings().NumBands; n != assembler.Bands() {
		return nil, fmt.Errorf("scene has %d bands, classifier expects %d: %w", assembler.Bands(), n, features.ErrBandCount)
	}

	res := &Result{
		Classified: flags.NewRaster(scene.Width, scene.Height),
		Flags:      flags.NewRaster(scene.Width, scene.Height),
		Categories: make(map[string][]breakpoint.Category),
	}
	brightness := raster.NewFilled(scene.Width, scene.Height, classifier.NoData)
	if p.opts.Diagnostics {
		res.Diagnostics = &Diagnostics{
			Brightness:          brightness,
			Whiteness:           raster.NewFilled(scene.Width, scene.Height, classifier.NoData),
			NDSI:                raster.NewFilled(scene.Width, scene.Height, classifier.NoData),
			NDVI:                raster.NewFilled(scene.Width, scene.Height, classifier.NoData),
			PressureHeightDelta: raster.NewFilled(scene.Width, scene.Height, classifier.NoData),
			NNScore:             raster.NewFilled(scene.Width, scene.Height, math.NaN()),
		}
	}
	variants := p.opts.Classifier.Settings().Variants
	for _, v := range variants {
		res.Categories[v.Name] = make([]breakpoint.Category, scene.Width*scene.Height)
	}

	p.log.WithFields(logrus.Fields{
		"width":  scene.Width,
		"height": scene.Height,
		"bands":  len(scene.Bands),
		"nn":     p.opts.NN != nil,
	}).Info("processing scene")

	tiles, err := raster.Partition(scene.Width, scene.Height, p.opts.TileWidth, p.opts.TileHeight, 0)
	if err != nil {
		return nil, err
	}
	stage1 := &classifyStage{
		p:          p,
		scene:      scene,
		assembler:  assembler,
		out:        res,
		brightness: brightness,
		variants:   variants,
	}
	if err := p.runTiles(ctx, "classify", tiles, stage1.tile); err != nil {
		return nil, err
	}

	// Consolidation reads halos from the fully materialized classification
	tiles, err = raster.Partition(scene.Width, scene.Height, p.opts.TileWidth, p.opts.TileHeight, p.opts.Halo)
	if err != nil {
		return nil, err
	}
	water := scene.water()
	err = p.runTiles(ctx, "consolidate", tiles, func(_ int, t raster.Tile) error {
		return p.opts.Consolidator.Consolidate(res.Classified, water, t, res.Flags)
	})
	if err != nil {
		return nil, err
	}

	res.Summary = Summarize(res.Flags, brightness)
	res.Summary.Variants = countVariants(variants, res.Categories)
	p.log.WithFields(res.Summary.Fields()).Info("scene processed")
	for name, counts := range res.Summary.Variants {
		fields := logrus.Fields{"variant": name}
		for label, n := range counts {
			fields[strings.ToLower(label)] = n
		}
		p.log.WithFields(fields).Debug("variant categories")
	}
	return res, nil
}

// runTiles feeds tiles to a fixed pool of workers. The first error cancels the rest.
func (p *Pipeline) runTiles(ctx context.Context, stage string, tiles []raster.Tile, work func(worker int, t raster.Tile) error) error {
	start := time.Now()
	workers := min(p.opts.Workers, len(tiles))
	log := p.log.WithFields(logrus.Fields{"stage": stage, "tiles": len(tiles), "workers": workers})
	log.Debug("stage started")

	g, ctx := errgroup.WithContext(ctx)
	queue := make(chan raster.Tile)

	g.Go(func() error {
		defer close(queue)
		for _, t := range tiles {
			select {
			case queue <- t:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			for t := range queue {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := work(w, t); err != nil {
					return fmt.Errorf("%s tile %d: %w", stage, t.Index, err)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.WithField("elapsed", time.Since(start)).Info("stage finished")
	return nil
}
