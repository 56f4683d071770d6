package engine

import (
	"errors"
	"fmt"
	"image"

	"github.com/lucasb-eyer/go-colorful"

	"glyphcast/internal/shadermath"
	"glyphcast/pkg/config"
	"glyphcast/pkg/pattern"
)

// ErrInvalidFrame is returned for a FrameConfig the compositor cannot use
var ErrInvalidFrame = errors.New("invalid frame configuration")

// RGB is a linear colour with components in [0,1]
type RGB struct {
	R, G, B float32
}

// Scale multiplies every component by s
func (c RGB) Scale(s float32) RGB {
	return RGB{c.R * s, c.G * s, c.B * s}
}

// Add sums two colours component-wise
func (c RGB) Add(o RGB) RGB {
	return RGB{c.R + o.R, c.G + o.G, c.B + o.B}
}

// Min caps every component at hi
func (c RGB) Min(hi float32) RGB {
	return RGB{min(c.R, hi), min(c.G, hi), min(c.B, hi)}
}

// Mix blends a and b as a*(1-t) + b*t
func Mix(a, b RGB, t float32) RGB {
	return RGB{
		shadermath.Mix(a.R, b.R, t),
		shadermath.Mix(a.G, b.G, t),
		shadermath.Mix(a.B, b.B, t),
	}
}

// RGBFromColorful converts a go-colorful colour
func RGBFromColorful(c colorful.Color) RGB {
	return RGB{float32(c.R), float32(c.G), float32(c.B)}
}

// FrameConfig is the per-frame snapshot the glyph pipeline reads. The frame
// driver builds a new value every frame; the compositor never mutates it.
type FrameConfig struct {
	CellSize      shadermath.Vec2
	Resolution    shadermath.Vec2
	Monochrome    bool
	PerObject     bool
	GlobalPattern pattern.ID
	Time          float32
	MonoHue       RGB
}

// Validate rejects configurations the per-pixel code must never see.
func (f FrameConfig) Validate() error {
	if f.CellSize.X <= 0 || f.CellSize.Y <= 0 {
		return fmt.Errorf("%w: cell size %vx%v", ErrInvalidFrame, f.CellSize.X, f.CellSize.Y)
	}
	if f.Resolution.X < 1 || f.Resolution.Y < 1 {
		return fmt.Errorf("%w: resolution %vx%v", ErrInvalidFrame, f.Resolution.X, f.Resolution.Y)
	}
	if !f.GlobalPattern.Valid() {
		return fmt.Errorf("%w: global pattern %d", ErrInvalidFrame, f.GlobalPattern)
	}
	return nil
}

// Bounds returns the output rectangle
func (f FrameConfig) Bounds() image.Rectangle {
	return image.Rect(0, 0, int(f.Resolution.X), int(f.Resolution.Y))
}

// Grid returns the number of cell columns and rows covering the output,
// counting partial cells at the right and bottom edges.
func (f FrameConfig) Grid() (cols, rows int) {
	cols = int(shadermath.Floor((f.Resolution.X - 1) / f.CellSize.X)) + 1
	rows = int(shadermath.Floor((f.Resolution.Y - 1) / f.CellSize.Y)) + 1
	return cols, rows
}

// NewFrameConfig builds the snapshot for one frame from the loaded settings.
func NewFrameConfig(cfg *config.Config, width, height int, time float32) (FrameConfig, error) {
	set, err := cfg.Glyph.GlobalSet()
	if err != nil {
		return FrameConfig{}, err
	}
	hue, err := cfg.Glyph.Hue()
	if err != nil {
		return FrameConfig{}, err
	}
	fc := FrameConfig{
		CellSize:      shadermath.Vec2{X: cfg.Glyph.CellWidth, Y: cfg.Glyph.CellHeight},
		Resolution:    shadermath.Vec2{X: float32(width), Y: float32(height)},
		Monochrome:    cfg.Glyph.Monochrome,
		PerObject:     cfg.Glyph.PerObject,
		GlobalPattern: pattern.ID(set),
		Time:          time,
		MonoHue:       RGBFromColorful(hue),
	}
	return fc, fc.Validate()
}
