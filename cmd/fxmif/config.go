package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the fxmif configuration file (~/.config/fxmif/config.yaml).
// All fields are pointers so we can distinguish "not set" from zero values.
type Config struct {
	// Fixed-point layout
	DataWidth          *uint    `yaml:"data_width"`
	DataIntWidth       *uint    `yaml:"data_int_width"`
	WeightIntWidth     *uint    `yaml:"weight_int_width"`
	UnderflowThreshold *float64 `yaml:"underflow_threshold"`

	// Lookup table
	InputIntWidth  *uint   `yaml:"input_int_width"`
	LUTAddressBits *uint   `yaml:"lut_address_bits"`
	LUTActivation  *string `yaml:"lut_activation"`

	// Dataset
	PixelScale *float64 `yaml:"pixel_scale"`

	// Output
	OutDir  *string `yaml:"out_dir"`
	Bundle  *string `yaml:"bundle"`
	Workers *int    `yaml:"workers"`

	LogLevel  *string `yaml:"log_level"`
	LogFormat *string `yaml:"log_format"`

	// Server
	ServerAddress *string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "fxmif", "config.yaml")
}

// LoadConfig reads path, or the default location when path is empty. A missing
// default file yields a zero Config; a missing explicit file is an error.
func LoadConfig(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = configPath()
		if path == "" {
			return Config{}, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// applyConfig copies config file values into the flag variables whose flag was
// not set on the command line or through the environment.
func applyConfig(c *cli.Command, cfg Config) {
	setIfUnset(c, "data-width", cfg.DataWidth, &dataWidth)
	setIfUnset(c, "data-int-width", cfg.DataIntWidth, &dataIntWidth)
	setIfUnset(c, "weight-int-width", cfg.WeightIntWidth, &weightIntWidth)
	setIfUnset(c, "underflow-threshold", cfg.UnderflowThreshold, &underflowThreshold)
	setIfUnset(c, "input-int-width", cfg.InputIntWidth, &inputIntWidth)
	setIfUnset(c, "address-bits", cfg.LUTAddressBits, &lutAddressBits)
	setIfUnset(c, "activation", cfg.LUTActivation, &lutActivation)
	setIfUnset(c, "pixel-scale", cfg.PixelScale, &pixelScale)
	setIfUnset(c, "out", cfg.OutDir, &outDir)
	setIfUnset(c, "bundle", cfg.Bundle, &bundlePath)
	setIfUnset(c, "workers", cfg.Workers, &workers)
	setIfUnset(c, "log-level", cfg.LogLevel, &logLevel)
	setIfUnset(c, "log-format", cfg.LogFormat, &logFormat)
	setIfUnset(c, "addr", cfg.ServerAddress, &serverAddress)
}

func setIfUnset[T any](c *cli.Command, flag string, v *T, dst *T) {
	if v != nil && !c.IsSet(flag) {
		*dst = *v
	}
}
