package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test graphics defaults
	if cfg.Graphics.Width != 1024 {
		t.Errorf("expected width 1024, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 768 {
		t.Errorf("expected height 768, got %d", cfg.Graphics.Height)
	}
	if cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}

	// Test camera defaults
	if cfg.Camera.FovY != 53.13 {
		t.Errorf("expected fov 53.13, got %f", cfg.Camera.FovY)
	}
	if cfg.Camera.Near != 0.1 || cfg.Camera.Far != 100 {
		t.Errorf("expected near/far 0.1/100, got %f/%f", cfg.Camera.Near, cfg.Camera.Far)
	}

	// Test splat and sampling defaults
	if cfg.Splat.RadiusStep != 0.001 {
		t.Errorf("expected radius step 0.001, got %f", cfg.Splat.RadiusStep)
	}
	if cfg.Sampling.SamplesPerTriangle != 500 {
		t.Errorf("expected 500 samples per triangle, got %d", cfg.Sampling.SamplesPerTriangle)
	}
	if cfg.Sampling.SphereSamples != 2000 {
		t.Errorf("expected 2000 sphere samples, got %d", cfg.Sampling.SphereSamples)
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
graphics:
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false

camera:
  fov_y: 60
  distance: 5

splat:
  radius: 0.02

sampling:
  samples_per_triangle: 100
  seed: 42

shaders:
  dir: "./shaders"
  start: 2

assets:
  paths:
    - bunny.ply
    - scan.xyz

logging:
  level: "debug"
  log_file: "splatview.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920, got %d", cfg.Graphics.Width)
	}
	if !cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be true")
	}
	if cfg.Graphics.VSync {
		t.Error("expected vsync to be false")
	}

	if cfg.Camera.FovY != 60 {
		t.Errorf("expected fov 60, got %f", cfg.Camera.FovY)
	}
	// Unset keys keep their defaults
	if cfg.Camera.Near != 0.1 {
		t.Errorf("expected near to keep default 0.1, got %f", cfg.Camera.Near)
	}
	if cfg.Splat.RadiusStep != 0.001 {
		t.Errorf("expected radius step to keep default, got %f", cfg.Splat.RadiusStep)
	}

	if cfg.Sampling.SamplesPerTriangle != 100 {
		t.Errorf("expected 100 samples per triangle, got %d", cfg.Sampling.SamplesPerTriangle)
	}
	if cfg.Sampling.Seed != 42 {
		t.Errorf("expected seed 42, got %d", cfg.Sampling.Seed)
	}
	if cfg.Shaders.Dir != "./shaders" || cfg.Shaders.Start != 2 {
		t.Errorf("unexpected shader config %+v", cfg.Shaders)
	}
	if len(cfg.Assets.Paths) != 2 || cfg.Assets.Paths[0] != "bunny.ply" {
		t.Errorf("unexpected asset paths %v", cfg.Assets.Paths)
	}
	if cfg.Logging.LogFile != "splatview.log" {
		t.Errorf("expected log file 'splatview.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
graphics:
  width: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Graphics.Width = 0 }},
		{"fov too wide", func(c *Config) { c.Camera.FovY = 180 }},
		{"near not positive", func(c *Config) { c.Camera.Near = 0 }},
		{"far before near", func(c *Config) { c.Camera.Far = 0.05 }},
		{"negative radius", func(c *Config) { c.Splat.Radius = -1 }},
		{"negative samples", func(c *Config) { c.Sampling.SphereSamples = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv("HOME", tmpDir)

	// No config file exists - should return empty
	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("graphics:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "windowed flag",
			setup: func() { *flagWindowed = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be false with windowed flag")
				}
			},
			teardown: func() { *flagWindowed = false },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Width != 2560 || cfg.Graphics.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
		{
			name:  "seed flag",
			setup: func() { *flagSeed = 7 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Sampling.Seed != 7 {
					t.Errorf("expected seed 7, got %d", cfg.Sampling.Seed)
				}
			},
			teardown: func() { *flagSeed = 0 },
		},
		{
			name:  "shaders flag",
			setup: func() { *flagShaders = "/tmp/shaders" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Shaders.Dir != "/tmp/shaders" {
					t.Errorf("expected shader dir /tmp/shaders, got %s", cfg.Shaders.Dir)
				}
			},
			teardown: func() { *flagShaders = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
graphics:
  width: 1600
  height: 900
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Set flag to override config file
	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width should be from flag (1920), not file (1600)
	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Graphics.Width)
	}
	// Height should be from file (900) since no flag override
	if cfg.Graphics.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Graphics.Height)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("camera:\n  near: -1\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected validation error for negative near plane")
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Splat.Radius = 0.05
	cfg.Assets.Paths = []string{"a.ply"}

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if loaded.Splat.Radius != 0.05 {
		t.Errorf("expected radius 0.05, got %f", loaded.Splat.Radius)
	}
	if len(loaded.Assets.Paths) != 1 || loaded.Assets.Paths[0] != "a.ply" {
		t.Errorf("unexpected asset paths %v", loaded.Assets.Paths)
	}
}

func TestSaveWritesToConfigDir(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("ConfigDir ignores XDG_CONFIG_HOME on this platform")
	}
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	cfg := Default()
	cfg.Camera.ZoomStep = 0.5
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	path := filepath.Join(tmpDir, "splatview", "config.yaml")
	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("expected config at %s: %v", path, err)
	}
	if loaded.Camera.ZoomStep != 0.5 {
		t.Errorf("expected zoom step 0.5, got %f", loaded.Camera.ZoomStep)
	}
}
