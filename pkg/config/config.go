// Package config provides configuration loading and management for fitsview.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"fitsview/pkg/colormap"
	"fitsview/pkg/histogram"
	"fitsview/pkg/scaling"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the application configuration loaded from YAML
type Config struct {
	// Display parameters applied when a data unit is selected
	Display struct {
		// ScalingMode is one of linear, log, sqrt, asinh
		ScalingMode string `yaml:"scalingMode"`

		// ColorMap names the map used for single-channel images
		ColorMap string `yaml:"colorMap"`

		// Invert selects the reversed color map
		Invert bool `yaml:"invert"`
	} `yaml:"display"`

	// AutoScale percentiles used for the default display range
	AutoScale struct {
		// PercentileLow is the lower clipping percentile (0-100)
		PercentileLow float64 `yaml:"percentileLow"`

		// PercentileHigh is the upper clipping percentile (0-100)
		PercentileHigh float64 `yaml:"percentileHigh"`
	} `yaml:"autoScale"`

	// Histogram parameters
	Histogram struct {
		// Bins is the number of uniform bins
		Bins int `yaml:"bins"`

		// Width and Height size the rendered histogram plot in pixels
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
	} `yaml:"histogram"`

	// Render parameters for exported images
	Render struct {
		// Format is the default output format when the file name has no extension
		Format string `yaml:"format"`

		// JPEGQuality is used for .jpg output
		JPEGQuality int `yaml:"jpegQuality"`
	} `yaml:"render"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default display parameters
	cfg.Display.ScalingMode = string(scaling.Linear)
	cfg.Display.ColorMap = colormap.Default
	cfg.Display.Invert = false

	// Set default auto-scale parameters
	cfg.AutoScale.PercentileLow = scaling.DefaultLowPercentile
	cfg.AutoScale.PercentileHigh = scaling.DefaultHighPercentile

	// Set default histogram parameters
	cfg.Histogram.Bins = histogram.DefaultBinCount
	cfg.Histogram.Width = 480
	cfg.Histogram.Height = 240

	// Set default render parameters
	cfg.Render.Format = "png"
	cfg.Render.JPEGQuality = 90

	cfg.Output.Verbose = false

	return cfg
}

// Validate checks that every value is usable by the display engine
func (c *Config) Validate() error {
	if _, err := scaling.ParseMode(c.Display.ScalingMode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := colormap.Lookup(c.Display.ColorMap); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	low, high := c.AutoScale.PercentileLow, c.AutoScale.PercentileHigh
	if low < 0 || high > 100 || low >= high {
		return fmt.Errorf("%w: percentiles must satisfy 0 <= low < high <= 100, got %v and %v",
			ErrInvalidConfig, low, high)
	}

	if c.Histogram.Bins < 1 {
		return fmt.Errorf("%w: histogram bins must be positive, got %d", ErrInvalidConfig, c.Histogram.Bins)
	}
	if c.Histogram.Width < 1 || c.Histogram.Height < 1 {
		return fmt.Errorf("%w: histogram size must be positive, got %dx%d",
			ErrInvalidConfig, c.Histogram.Width, c.Histogram.Height)
	}

	if c.Render.JPEGQuality < 1 || c.Render.JPEGQuality > 100 {
		return fmt.Errorf("%w: jpeg quality must be in 1..100, got %d", ErrInvalidConfig, c.Render.JPEGQuality)
	}

	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
