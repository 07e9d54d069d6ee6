// Package config provides configuration loading and management for cloudscreen.
// It handles loading configuration from YAML files and provides per-sensor default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"cloudscreen/pkg/classifier"
	"cloudscreen/pkg/consolidate"
)

// DefaultSensor is used when neither the caller nor the file names a sensor
const DefaultSensor = classifier.MERIS

// Config represents the application configuration loaded from YAML
type Config struct {
	// Sensor selects the classifier preset the remaining sections override
	Sensor classifier.Sensor `yaml:"sensor"`

	// Processing parameters
	Processing struct {
		// NumWorkers specifies how many tiles are processed concurrently
		NumWorkers int `yaml:"numWorkers"`

		// TileWidth and TileHeight bound the pixels a worker holds at once
		TileWidth  int `yaml:"tileWidth"`
		TileHeight int `yaml:"tileHeight"`

		// Halo is the number of context pixels read around each tile.
		// Zero means the minimum the consolidation needs.
		Halo int `yaml:"halo"`
	} `yaml:"processing"`

	// Classifier holds thresholds, band mapping, NN mode and breakpoint variants
	Classifier classifier.Settings `yaml:"classifier"`

	// NN model parameters
	NN struct {
		// Enabled turns on NN scoring with the model below
		Enabled bool `yaml:"enabled"`

		// Model is the path of the YAML model description
		Model string `yaml:"model"`

		// ScoreIndex is the model output used as the cloud score
		ScoreIndex int `yaml:"scoreIndex"`
	} `yaml:"nn"`

	// Buffer parameters
	Buffer struct {
		// Policy is "adaptive" or "fixed"
		Policy string `yaml:"policy"`

		// Width is the buffer width in pixels
		Width int `yaml:"width"`
	} `yaml:"buffer"`

	// Coastline refinement parameters
	Coastline struct {
		Enabled bool `yaml:"enabled"`

		// Radius of the neighbourhood window
		Radius int `yaml:"radius"`
	} `yaml:"coastline"`

	// Output parameters
	Output struct {
		// Diagnostics keeps the intermediate indicator rasters
		Diagnostics bool `yaml:"diagnostics"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`

		// LogLevel overrides Verbose when set (trace, debug, info, warn, error)
		LogLevel string `yaml:"logLevel"`

		// Quicklook is the path of the colour quick-look TIFF, empty to skip
		Quicklook string `yaml:"quicklook"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values for the sensor
func DefaultConfig(sensor classifier.Sensor) (*Config, error) {
	settings, err := classifier.Preset(sensor)
	if err != nil {
		return nil, err
	}

	cfg := &Config{Sensor: sensor, Classifier: settings}

	cfg.Processing.NumWorkers = runtime.NumCPU()
	cfg.Processing.TileWidth = 512
	cfg.Processing.TileHeight = 512

	cfg.NN.ScoreIndex = 0

	cfg.Buffer.Policy = "adaptive"
	cfg.Buffer.Width = 1

	cfg.Coastline.Enabled = true
	cfg.Coastline.Radius = 1

	cfg.Output.Diagnostics = false
	cfg.Output.Verbose = true

	return cfg, nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(DefaultSensor)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// The sensor picks the defaults the rest of the file overrides
	var head struct {
		Sensor string `yaml:"sensor"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	sensor := DefaultSensor
	if head.Sensor != "" {
		if sensor, err = classifier.ParseSensor(head.Sensor); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	cfg, err := DefaultConfig(sensor)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	cfg.Sensor = sensor

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string, sensor classifier.Sensor) error {
	cfg, err := DefaultConfig(sensor)
	if err != nil {
		return err
	}
	return SaveConfig(cfg, configPath)
}

// Consolidator builds the spatial consolidation stage described by the buffer and
// coastline sections
func (c *Config) Consolidator() (consolidate.Consolidator, error) {
	policy, err := consolidate.NewPolicy(c.Buffer.Policy, c.Buffer.Width)
	if err != nil {
		return consolidate.Consolidator{}, err
	}
	cons := consolidate.Consolidator{Policy: policy}
	if c.Coastline.Enabled {
		if c.Coastline.Radius < 1 {
			return consolidate.Consolidator{}, fmt.Errorf("coastline radius must be at least 1, got %d", c.Coastline.Radius)
		}
		cons.Coastline = &consolidate.Coastline{Radius: c.Coastline.Radius}
	}
	return cons, nil
}

// Halo returns the configured halo, or the required one when unset
func (c *Config) Halo() (int, error) {
	cons, err := c.Consolidator()
	if err != nil {
		return 0, err
	}
	if c.Processing.Halo == 0 {
		return cons.Halo(), nil
	}
	return c.Processing.Halo, nil
}

// Validate rejects configurations that cannot be processed
func (c *Config) Validate() error {
	if c.Processing.NumWorkers < 1 {
		return fmt.Errorf("numWorkers must be positive, got %d", c.Processing.NumWorkers)
	}
	if c.Processing.TileWidth < 1 || c.Processing.TileHeight < 1 {
		return fmt.Errorf("invalid tile size %dx%d", c.Processing.TileWidth, c.Processing.TileHeight)
	}
	if err := c.Classifier.Validate(); err != nil {
		return fmt.Errorf("classifier: %w", err)
	}

	if c.NN.Enabled {
		if c.NN.Model == "" {
			return errors.New("nn enabled without a model")
		}
		if c.NN.ScoreIndex < 0 {
			return fmt.Errorf("negative nn scoreIndex %d", c.NN.ScoreIndex)
		}
		if c.Classifier.NNMode == classifier.ModeOff {
			return errors.New("nn enabled but classifier nnMode is off")
		}
	}

	cons, err := c.Consolidator()
	if err != nil {
		return err
	}
	if c.Processing.Halo < 0 {
		return fmt.Errorf("negative halo %d", c.Processing.Halo)
	}
	if c.Processing.Halo != 0 && c.Processing.Halo < cons.Halo() {
		return fmt.Errorf("halo %d, need %d: %w", c.Processing.Halo, cons.Halo(), consolidate.ErrHaloTooSmall)
	}
	return nil
}
