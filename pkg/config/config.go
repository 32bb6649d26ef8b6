/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/locus/pkg/geodesic"
	"github.com/ssargent/locus/pkg/logger"
)

// Config represents the locus configuration
type Config struct {
	DataDir  string   `yaml:"data_dir"`
	Geodesic Geodesic `yaml:"geodesic"`
	Geohash  Geohash  `yaml:"geohash"`
	Journal  Journal  `yaml:"journal"`
	Logging  Logging  `yaml:"logging"`
}

// Geodesic selects the distance algorithm
type Geodesic struct {
	Mode       string  `yaml:"mode"`
	FastRadius float64 `yaml:"fast_radius"`
}

// Geohash controls the proximity index
type Geohash struct {
	Precision int `yaml:"precision"`
}

// Journal contains journal durability settings
type Journal struct {
	FsyncInterval time.Duration `yaml:"fsync_interval"`
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Geodesic: Geodesic{
			Mode:       geodesic.ModePrecise.String(),
			FastRadius: geodesic.FastRadius,
		},
		Geohash: Geohash{
			Precision: 7,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// Validate checks every field for a usable value
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must be set")
	}
	if _, err := geodesic.ParseMode(c.Geodesic.Mode); err != nil {
		return fmt.Errorf("geodesic.mode: %w", err)
	}
	if c.Geodesic.FastRadius < 0 {
		return fmt.Errorf("geodesic.fast_radius must not be negative, got %v", c.Geodesic.FastRadius)
	}
	if c.Geohash.Precision < 1 || c.Geohash.Precision > 12 {
		return fmt.Errorf("geohash.precision must be in [1, 12], got %d", c.Geohash.Precision)
	}
	if c.Journal.FsyncInterval < 0 {
		return fmt.Errorf("journal.fsync_interval must not be negative, got %s", c.Journal.FsyncInterval)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

// Solver builds the geodesic solver the configuration describes
func (c *Config) Solver() (*geodesic.Solver, error) {
	mode, err := geodesic.ParseMode(c.Geodesic.Mode)
	if err != nil {
		return nil, err
	}
	return geodesic.NewSolver(mode, geodesic.WithRadius(c.Geodesic.FastRadius)), nil
}

// LoadConfig loads configuration from the specified path. Fields missing from
// the file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./locus.yaml"
	}

	// For Linux/macOS, use ~/.config/locus/config.yaml
	configDir := filepath.Join(homeDir, ".config", "locus")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
