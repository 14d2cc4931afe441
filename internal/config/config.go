// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"math"
)

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Camera   CameraConfig   `yaml:"camera"`
	Splat    SplatConfig    `yaml:"splat"`
	Sampling SamplingConfig `yaml:"sampling"`
	Shaders  ShaderConfig   `yaml:"shaders"`
	Assets   AssetConfig    `yaml:"assets"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
}

// CameraConfig holds the lens and orbit settings.
type CameraConfig struct {
	FovY            float32 `yaml:"fov_y"` // degrees
	Near            float32 `yaml:"near"`
	Far             float32 `yaml:"far"`
	Distance        float32 `yaml:"distance"`
	DragSensitivity float32 `yaml:"drag_sensitivity"` // radians per pixel
	ZoomStep        float32 `yaml:"zoom_step"`        // distance per wheel notch
}

// SplatConfig holds the splat radius and its keyboard step.
type SplatConfig struct {
	Radius     float32 `yaml:"radius"`
	RadiusStep float32 `yaml:"radius_step"`
}

// SamplingConfig controls how built-in and loaded meshes become clouds.
type SamplingConfig struct {
	SamplesPerTriangle int   `yaml:"samples_per_triangle"`
	SphereSamples      int   `yaml:"sphere_samples"`
	Seed               int64 `yaml:"seed"` // 0 seeds from the clock
}

// ShaderConfig selects the shader override directory and the start program.
type ShaderConfig struct {
	Dir   string `yaml:"dir"`
	Start int    `yaml:"start"`
}

// AssetConfig lists extra files loaded at startup.
type AssetConfig struct {
	Paths []string `yaml:"paths"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1024,
			Height:     768,
			Fullscreen: false,
			VSync:      true,
		},
		Camera: CameraConfig{
			FovY:            53.13,
			Near:            0.1,
			Far:             100,
			Distance:        3,
			DragSensitivity: float32(2 * math.Pi / 1000),
			ZoomStep:        1,
		},
		Splat: SplatConfig{
			Radius:     0.01,
			RadiusStep: 0.001,
		},
		Sampling: SamplingConfig{
			SamplesPerTriangle: 500,
			SphereSamples:      2000,
			Seed:               0,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports settings the viewer cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		errs = append(errs, fmt.Errorf("graphics: invalid size %dx%d", c.Graphics.Width, c.Graphics.Height))
	}
	if c.Camera.FovY <= 0 || c.Camera.FovY >= 180 {
		errs = append(errs, fmt.Errorf("camera: fov_y %g out of (0,180)", c.Camera.FovY))
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		errs = append(errs, fmt.Errorf("camera: need 0 < near < far, got near=%g far=%g", c.Camera.Near, c.Camera.Far))
	}
	if c.Splat.Radius < 0 || c.Splat.RadiusStep < 0 {
		errs = append(errs, errors.New("splat: radius and radius_step must not be negative"))
	}
	if c.Sampling.SamplesPerTriangle < 0 || c.Sampling.SphereSamples < 0 {
		errs = append(errs, errors.New("sampling: sample counts must not be negative"))
	}
	return errors.Join(errs...)
}
