package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v2"

	"glyphcast/pkg/glyph"
)

// Validation errors
var (
	ErrInvalidCellSize   = errors.New("cell size must be positive")
	ErrInvalidResolution = errors.New("resolution must be positive")
	ErrUnknownPattern    = errors.New("unknown glyph pattern")
	ErrUnknownMode       = errors.New("unknown display mode")
	ErrInvalidColor      = errors.New("invalid colour")
)

// Display modes
const (
	ModeWindow   = "window"
	ModeTerminal = "term"
	ModeSnapshot = "snapshot"
)

// Config represents the main configuration
type Config struct {
	Graphics  GraphicsConfig  `yaml:"graphics"`
	Glyph     GlyphConfig     `yaml:"glyph"`
	Raytracer RaytracerConfig `yaml:"raytracer"`
	Scene     SceneConfig     `yaml:"scene"`
	Log       LogConfig       `yaml:"log"`
}

// GraphicsConfig contains window and output settings
type GraphicsConfig struct {
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	Fullscreen  bool   `yaml:"fullscreen"`
	VSync       bool   `yaml:"vsync"`
	FrameRate   int    `yaml:"framerate"`
	DisplayMode string `yaml:"display_mode"` // window, term, snapshot
}

// GlyphConfig contains the glyph post-process settings
type GlyphConfig struct {
	CellWidth  float32 `yaml:"cell_width"`
	CellHeight float32 `yaml:"cell_height"`
	Monochrome bool    `yaml:"monochrome"`
	PerObject  bool    `yaml:"per_object"`
	Pattern    string  `yaml:"pattern"`  // glyph set used when per_object is off
	MonoHue    string  `yaml:"mono_hue"` // hex colour for monochrome mode
}

// RaytracerConfig contains the scene producer settings
type RaytracerConfig struct {
	NumThreads     int     `yaml:"num_threads"`
	FOV            float32 `yaml:"fov"` // vertical, degrees
	ShadowsEnabled bool    `yaml:"shadows_enabled"`
}

// SceneConfig describes the demo scene
type SceneConfig struct {
	Camera  CameraConfig   `yaml:"camera"`
	Light   [3]float32     `yaml:"light"` // direction towards the light
	Sky     string         `yaml:"sky"`
	Ground  string         `yaml:"ground"`
	Objects []ObjectConfig `yaml:"objects"`
}

// CameraConfig places the main camera
type CameraConfig struct {
	Position [3]float32 `yaml:"position"`
	Target   [3]float32 `yaml:"target"`
}

// ObjectConfig is one sphere of the demo scene. An empty pattern leaves the
// object out of the identity pass.
type ObjectConfig struct {
	Name     string     `yaml:"name"`
	Position [3]float32 `yaml:"position"`
	Radius   float32    `yaml:"radius"`
	Color    string     `yaml:"color"`
	Pattern  string     `yaml:"pattern"`
	Orbit    float32    `yaml:"orbit"` // radians per second around the Y axis, 0 = static
}

// LogConfig contains logging settings
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig creates a default configuration
func DefaultConfig() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:       1280,
			Height:      720,
			Fullscreen:  false,
			VSync:       true,
			FrameRate:   60,
			DisplayMode: ModeWindow,
		},
		Glyph: GlyphConfig{
			CellWidth:  8,
			CellHeight: 14,
			Monochrome: false,
			PerObject:  true,
			Pattern:    glyph.Standard.String(),
			MonoHue:    "#33ff66",
		},
		Raytracer: RaytracerConfig{
			NumThreads:     4,
			FOV:            60,
			ShadowsEnabled: true,
		},
		Scene: SceneConfig{
			Camera: CameraConfig{
				Position: [3]float32{0, 1.7, -6},
				Target:   [3]float32{0, 1, 0},
			},
			Light:  [3]float32{-0.4, 1, -0.6},
			Sky:    "#0b0f1a",
			Ground: "#4a4a42",
			Objects: []ObjectConfig{
				{Name: "pillar", Position: [3]float32{-2.2, 1, 1}, Radius: 1, Color: "#d9d2c5", Pattern: "blocks"},
				{Name: "orb", Position: [3]float32{0, 1.2, 0}, Radius: 1.2, Color: "#e8c170", Pattern: "standard"},
				{Name: "lattice", Position: [3]float32{2.2, 0.9, 1.5}, Radius: 0.9, Color: "#7fb3d5", Pattern: "mesh"},
				{Name: "stalker", Position: [3]float32{0.8, 0.5, -2}, Radius: 0.5, Color: "#c0392b", Pattern: "matrix_cycle", Orbit: 0.6},
				{Name: "rain", Position: [3]float32{-1, 2.8, 3}, Radius: 1.4, Color: "#2ecc71", Pattern: "matrix_rain"},
			},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads the configuration from a file
func LoadConfig(filePath string) (*Config, error) {
	// Create default config
	config := DefaultConfig()

	data, err := os.ReadFile(filePath)
	if err != nil {
		return config, fmt.Errorf("config file not found, using defaults: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return config, fmt.Errorf("error parsing config: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to a file
func SaveConfig(config *Config, filePath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("error serializing config: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// Validate checks the settings the glyph pipeline relies on. Cell size is
// only ever checked here; the per-pixel code divides by it unguarded.
func (c *Config) Validate() error {
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidResolution, c.Graphics.Width, c.Graphics.Height)
	}
	if c.Glyph.CellWidth <= 0 || c.Glyph.CellHeight <= 0 {
		return fmt.Errorf("%w: %vx%v", ErrInvalidCellSize, c.Glyph.CellWidth, c.Glyph.CellHeight)
	}
	switch c.Graphics.DisplayMode {
	case ModeWindow, ModeTerminal, ModeSnapshot:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, c.Graphics.DisplayMode)
	}
	if _, err := c.Glyph.GlobalSet(); err != nil {
		return err
	}
	if _, err := c.Glyph.Hue(); err != nil {
		return err
	}
	for _, hex := range []string{c.Scene.Sky, c.Scene.Ground} {
		if _, err := ParseColor(hex); err != nil {
			return fmt.Errorf("scene: %w", err)
		}
	}
	for _, obj := range c.Scene.Objects {
		if _, _, err := obj.Set(); err != nil {
			return fmt.Errorf("object %q: %w", obj.Name, err)
		}
		if _, err := ParseColor(obj.Color); err != nil {
			return fmt.Errorf("object %q: %w", obj.Name, err)
		}
	}
	return nil
}

// GlobalSet resolves the glyph set used when per-object mode is off
func (g GlyphConfig) GlobalSet() (glyph.Set, error) {
	s, err := glyph.ParseSet(g.Pattern)
	if err != nil {
		return glyph.Standard, fmt.Errorf("%w: %q", ErrUnknownPattern, g.Pattern)
	}
	return s, nil
}

// Hue parses the monochrome colour
func (g GlyphConfig) Hue() (colorful.Color, error) {
	return ParseColor(g.MonoHue)
}

// Set resolves the object's glyph set. tagged is false for objects without a
// pattern, which the identity pass does not see.
func (o ObjectConfig) Set() (s glyph.Set, tagged bool, err error) {
	if o.Pattern == "" {
		return glyph.Standard, false, nil
	}
	s, err = glyph.ParseSet(o.Pattern)
	if err != nil {
		return glyph.Standard, false, fmt.Errorf("%w: %q", ErrUnknownPattern, o.Pattern)
	}
	return s, true, nil
}

// ParseColor parses a "#rrggbb" colour
func ParseColor(hex string) (colorful.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, hex)
	}
	return c, nil
}
