package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"cloudscreen/internal/sceneio"
	"cloudscreen/pkg/classifier"
	"cloudscreen/pkg/config"
	"cloudscreen/pkg/pipeline"
	"cloudscreen/pkg/raster"
	"cloudscreen/pkg/visualization"
)

func main() {
	// Parse command line arguments
	scenePath := flag.String("scene", "", "Scene manifest (YAML)")
	configPath := flag.String("config", "cloudscreen.yaml", "Configuration file")
	initConfig := flag.String("init-config", "", "Write a default configuration for the given sensor to -config and exit")
	outputDir := flag.String("output", "cloudscreen_output", "Directory for the output images")
	workers := flag.Int("workers", 0, "Number of workers (default: from configuration)")
	flagList := flag.String("flags", "", "Comma separated flags to export as masks (default: all)")
	diagnostics := flag.Bool("diagnostics", false, "Export the indicator rasters")
	flag.Parse()

	log := logrus.New()

	if *initConfig != "" {
		sensor, err := classifier.ParseSensor(*initConfig)
		if err != nil {
			log.Fatalf("Invalid sensor: %v", err)
		}
		if err := config.CreateDefaultConfigFile(*configPath, sensor); err != nil {
			log.Fatalf("Failed to write configuration: %v", err)
		}
		log.WithField("path", *configPath).Info("default configuration written")
		return
	}

	// Validate inputs
	if *scenePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	scene, manifest, err := sceneio.Load(*scenePath)
	if err != nil {
		log.Fatalf("Failed to load scene: %v", err)
	}

	cfg, err := loadConfig(*configPath, manifest.Sensor)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *workers > 0 {
		cfg.Processing.NumWorkers = *workers
	}
	if *diagnostics {
		cfg.Output.Diagnostics = true
	}
	configureLogger(log, cfg)

	if manifest.Sensor != "" && !strings.EqualFold(manifest.Sensor, string(cfg.Sensor)) {
		log.WithFields(logrus.Fields{"scene": manifest.Sensor, "config": cfg.Sensor}).Warn("scene and configuration name different sensors")
	}

	p, err := pipeline.NewFromConfig(cfg, log)
	if err != nil {
		log.Fatalf("Failed to set up processing: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	startTime := time.Now()
	res, err := p.Process(ctx, scene)
	if err != nil {
		log.Fatalf("Processing failed: %v", err)
	}
	log.WithField("elapsed", time.Since(startTime).Round(time.Millisecond)).Info("processing completed")

	viewer := visualization.NewViewer(res.Flags)
	var names []string
	if *flagList != "" {
		names = strings.Split(*flagList, ",")
	}
	flagsDir := filepath.Join(*outputDir, "flags")
	if err := viewer.SaveFlagSequence(flagsDir, names); err != nil {
		log.Fatalf("Failed to save flag masks: %v", err)
	}
	log.WithField("dir", flagsDir).Info("flag masks saved")

	quicklook := cfg.Output.Quicklook
	if quicklook == "" {
		quicklook = filepath.Join(*outputDir, "quicklook.tif")
	}
	if err := viewer.SaveQuicklook(quicklook); err != nil {
		log.Warnf("Failed to save quick-look: %v", err)
	}

	if res.Diagnostics != nil {
		saveDiagnostics(log, res.Diagnostics, filepath.Join(*outputDir, "diagnostics"))
	}
}

// loadConfig reads the configuration file, or falls back to the defaults of the
// scene's sensor when there is none
func loadConfig(path, sensorName string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && sensorName != "" {
		sensor, err := classifier.ParseSensor(sensorName)
		if err != nil {
			return nil, err
		}
		return config.DefaultConfig(sensor)
	}
	return config.LoadConfig(path)
}

func configureLogger(log *logrus.Logger, cfg *config.Config) {
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(logrus.InfoLevel)
	if cfg.Output.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	if cfg.Output.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.Output.LogLevel)
		if err != nil {
			log.Warnf("Ignoring log level: %v", err)
			return
		}
		log.SetLevel(level)
	}
}

func saveDiagnostics(log logrus.FieldLogger, d *pipeline.Diagnostics, dir string) {
	for _, ind := range []struct {
		name   string
		r      *raster.Raster
		lo, hi float64
	}{
		{"brightness", d.Brightness, 0, 1.5},
		{"whiteness", d.Whiteness, 0, 1},
		{"ndsi", d.NDSI, -1, 1},
		{"ndvi", d.NDVI, -1, 1},
		{"pressure_delta", d.PressureHeightDelta, 0, 1},
		{"nn_score", d.NNScore, 0, 5},
	} {
		img, err := visualization.IndicatorImage(ind.r, ind.lo, ind.hi)
		if err != nil {
			log.Warnf("Failed to render %s: %v", ind.name, err)
			continue
		}
		if err := visualization.SaveTIFF(img, filepath.Join(dir, ind.name+".tif")); err != nil {
			log.Warnf("Failed to save %s: %v", ind.name, err)
		}
	}
	log.WithField("dir", dir).Info("diagnostics saved")
}
