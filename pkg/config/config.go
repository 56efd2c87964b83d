// Package config provides configuration loading and management for neuromorph.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Export parameters for skeleton files
	Export struct {
		// Species is the subject species written to SWC headers
		Species string `yaml:"species" validate:"required"`

		// DefaultRegion is used when a volume name is not covered by
		// the fixed lookup or the Regions overrides
		DefaultRegion string `yaml:"defaultRegion" validate:"required"`
	} `yaml:"export"`

	// Regions maps volume names to anatomical regions, overriding the
	// built-in volume lookup
	Regions map[string]string `yaml:"regions"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`

		// SaveTables determines whether parsed connectivity tables are
		// written out as CSV alongside the primary outputs
		SaveTables bool `yaml:"saveTables"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Export.Species = "rabbit"
	cfg.Export.DefaultRegion = "unknown"

	cfg.Regions = map[string]string{}

	cfg.Output.Verbose = true
	cfg.Output.SaveTables = true

	return cfg
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

	// Validate the merged configuration
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
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

// Region resolves the anatomical region for a volume name using the
// configured overrides, falling back to the configured default
func (c *Config) Region(source string) (string, bool) {
	if region, ok := c.Regions[source]; ok {
		return region, true
	}
	return c.Export.DefaultRegion, false
}
