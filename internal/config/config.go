package config

import (
	"errors"
	"fmt"
	"strings"
)

// Config represents the complete configuration for the triwarp application.
// It is loaded from configuration files, environment variables and
// command-line flags.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Mesh   MeshConfig   `mapstructure:"mesh" yaml:"mesh" json:"mesh"`
	Render RenderConfig `mapstructure:"render" yaml:"render" json:"render"`
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`
}

// MeshConfig contains the control point grid settings.
type MeshConfig struct {
	Cols    int     `mapstructure:"cols" yaml:"cols" json:"cols"`
	Rows    int     `mapstructure:"rows" yaml:"rows" json:"rows"`
	Overlap float64 `mapstructure:"overlap" yaml:"overlap" json:"overlap"`
}

// RenderConfig contains overlay settings.
type RenderConfig struct {
	Wireframe     int     `mapstructure:"wireframe" yaml:"wireframe" json:"wireframe"`
	LineWidth     float64 `mapstructure:"line_width" yaml:"line_width" json:"line_width"`
	ShowHandles   bool    `mapstructure:"show_handles" yaml:"show_handles" json:"show_handles"`
	HandleRadius  float64 `mapstructure:"handle_radius" yaml:"handle_radius" json:"handle_radius"`
	ShowIncircles bool    `mapstructure:"show_incircles" yaml:"show_incircles" json:"show_incircles"`
}

// OutputConfig contains output settings.
type OutputConfig struct {
	FramesDir string `mapstructure:"frames_dir" yaml:"frames_dir" json:"frames_dir"`
	Metrics   bool   `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
}

// DefaultConfig returns the configuration used when nothing else is set.
// The 6x6 grid and 0.3 pixel overlap match the interactive warp defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Mesh: MeshConfig{
			Cols:    6,
			Rows:    6,
			Overlap: 0.3,
		},
		Render: RenderConfig{
			Wireframe:    0,
			LineWidth:    1,
			HandleRadius: 4,
		},
	}
}

// Validate checks the configuration for values the warp engine rejects.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", c.LogLevel))
	}
	if c.Mesh.Cols < 1 {
		errs = append(errs, fmt.Errorf("mesh.cols must be at least 1, got %d", c.Mesh.Cols))
	}
	if c.Mesh.Rows < 1 {
		errs = append(errs, fmt.Errorf("mesh.rows must be at least 1, got %d", c.Mesh.Rows))
	}
	if c.Mesh.Overlap < 0 {
		errs = append(errs, fmt.Errorf("mesh.overlap must not be negative, got %v", c.Mesh.Overlap))
	}
	if c.Render.Wireframe < 0 || c.Render.Wireframe > 2 {
		errs = append(errs, fmt.Errorf("render.wireframe must be 0, 1 or 2, got %d", c.Render.Wireframe))
	}
	if c.Render.LineWidth < 0 {
		errs = append(errs, fmt.Errorf("render.line_width must not be negative, got %v", c.Render.LineWidth))
	}
	if c.Render.HandleRadius < 0 {
		errs = append(errs, fmt.Errorf("render.handle_radius must not be negative, got %v", c.Render.HandleRadius))
	}

	return errors.Join(errs...)
}
