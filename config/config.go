// Package config holds the settings shared by the CLI commands and the
// websocket host. Settings may be loaded from TOML or YAML files; any field
// left out of a file keeps its default value.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fabricio-araujo94/solid/log"
	"github.com/fabricio-araujo94/solid/scene"
	"github.com/fabricio-araujo94/solid/viewer"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var ErrUnsupportedFormat = errors.New("config: unsupported config file format")

// Viewer settings.
type Viewer struct {
	Width     int    `toml:"width" yaml:"width"`
	Height    int    `toml:"height" yaml:"height"`
	FrameRate int    `toml:"frame_rate" yaml:"frame_rate"`
	Color     string `toml:"color" yaml:"color"`

	// Camera zoom in [0, 100]. The camera stays framed to the model when unset.
	Zoom *float32 `toml:"zoom" yaml:"zoom"`

	RotationX float32 `toml:"rotation_x" yaml:"rotation_x"`
	RotationY float32 `toml:"rotation_y" yaml:"rotation_y"`
}

// Server settings for the websocket host.
type Server struct {
	Addr string `toml:"addr" yaml:"addr"`

	// Max time allowed for writing a frame to a client.
	WriteTimeout time.Duration `toml:"write_timeout" yaml:"write_timeout"`
}

// Log settings.
type Log struct {
	Level string `toml:"level" yaml:"level"`

	// Per module level overrides, e.g. {"viewer": "debug"}.
	Modules map[string]string `toml:"modules" yaml:"modules"`
}

type Config struct {
	Viewer Viewer `toml:"viewer" yaml:"viewer"`
	Server Server `toml:"server" yaml:"server"`
	Log    Log    `toml:"log" yaml:"log"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Viewer: Viewer{
			Width:     400,
			Height:    300,
			FrameRate: viewer.DefaultFrameRate,
			Color:     scene.DefaultMeshColor.String(),
		},
		Server: Server{
			Addr:         "127.0.0.1:8080",
			WriteTimeout: 5 * time.Second,
		},
		Log: Log{
			Level: "notice",
		},
	}
}

// Load reads a config file on top of the defaults. The decoder is selected
// using the file extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := Defaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(cfg)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("config: could not parse %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks that the config values are usable.
func (c *Config) Validate() error {
	if c.Viewer.Width <= 0 || c.Viewer.Height <= 0 {
		return fmt.Errorf("config: invalid viewer size %dx%d", c.Viewer.Width, c.Viewer.Height)
	}
	if c.Viewer.FrameRate <= 0 {
		return fmt.Errorf("config: invalid frame rate %d", c.Viewer.FrameRate)
	}
	if _, err := scene.ParseColor(c.Viewer.Color); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	for module, level := range c.Log.Modules {
		if _, err := log.ParseLevel(level); err != nil {
			return fmt.Errorf("config: module %q: %w", module, err)
		}
	}
	if z := c.Viewer.Zoom; z != nil && (*z < 0 || *z > 100) {
		return fmt.Errorf("config: zoom %g outside [0, 100]", *z)
	}
	return nil
}

// MeshColor returns the configured default mesh color.
func (c *Config) MeshColor() scene.Color {
	col, err := scene.ParseColor(c.Viewer.Color)
	if err != nil {
		return scene.DefaultMeshColor
	}
	return col
}

// ViewerOptions maps the config onto viewer options.
func (c *Config) ViewerOptions() viewer.Options {
	return viewer.Options{
		FrameRate: c.Viewer.FrameRate,
	}
}
