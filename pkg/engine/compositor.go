package engine

import (
	"context"
	"errors"
	"fmt"
	"image"

	"glyphcast/internal/logger"
	sm "glyphcast/internal/shadermath"
	"glyphcast/pkg/glyph"
	"glyphcast/pkg/pattern"
)

// Compositing constants, mirrored by the generated GLSL
const (
	LumaR = 0.299
	LumaG = 0.587
	LumaB = 0.114

	LiftGamma = 0.7

	// LegibleCellWidth is the cell width at and above which glyphs are drawn
	// through the literal cell
	LegibleCellWidth = 8

	ColorBoost      = 1.5
	ColorBackground = 0.15
	MonoBackground  = 0.12
)

var (
	// MinReadableCell is the smallest stencil a glyph is tiled through
	MinReadableCell = sm.Vec2{X: glyph.Width, Y: glyph.Height}
	// ClassicCell is the stencil used once cells reach LegibleCellWidth
	ClassicCell = sm.Vec2{X: 8, Y: 14}
)

// Luminance returns the perceptual luma of c
func Luminance(c RGB) float32 {
	return LumaR*c.R + LumaG*c.G + LumaB*c.B
}

// LiftBrightness applies the shadow-lifting curve lum^0.7
func LiftBrightness(lum float32) float32 {
	return sm.Pow(sm.Clamp(lum, 0, 1), LiftGamma)
}

// BrightnessLevel quantises lifted brightness into a glyph level in [0,9]
func BrightnessLevel(lifted float32) int {
	return sm.ClampInt(int(sm.Floor(lifted*glyph.Levels)), 0, glyph.Levels-1)
}

// LevelForLuminance is BrightnessLevel(LiftBrightness(lum))
func LevelForLuminance(lum float32) int {
	return BrightnessLevel(LiftBrightness(lum))
}

// ReferenceCell returns the virtual stencil glyphs are tiled through for a
// given cell size. It grows linearly from MinReadableCell to ClassicCell as
// the cell width approaches LegibleCellWidth.
func ReferenceCell(cellSize sm.Vec2) sm.Vec2 {
	t := sm.Clamp(cellSize.X/LegibleCellWidth, 0, 1)
	return sm.MixVec2(MinReadableCell, ClassicCell, t)
}

// GlyphCoord maps a fragment coordinate to the glyph bitmap pixel drawn
// there. The result is always inside [0,4]x[0,6].
func GlyphCoord(px, py float32, cellSize sm.Vec2) (x, y int) {
	var fx, fy float32
	if cellSize.X >= LegibleCellWidth {
		cx := sm.Floor(px / cellSize.X)
		cy := sm.Floor(py / cellSize.Y)
		fx = (px - cx*cellSize.X) / cellSize.X * glyph.Width
		fy = (py - cy*cellSize.Y) / cellSize.Y * glyph.Height
	} else {
		ref := ReferenceCell(cellSize)
		fx = sm.Mod(px, ref.X) / ref.X * glyph.Width
		fy = sm.Mod(py, ref.Y) / ref.Y * glyph.Height
	}
	x = sm.ClampInt(int(sm.Floor(fx)), 0, glyph.Width-1)
	y = sm.ClampInt(int(sm.Floor(fy)), 0, glyph.Height-1)
	return x, y
}

// Cell is the glyph decision for one grid cell
type Cell struct {
	Col, Row int
	Pattern  pattern.ID
	Level    int     // brightness level in [0,9]
	Glyph    int     // bitmap index drawn, in the Digital table for animated sets
	Ink      float32 // coverage scale, the trail brightness for falling trails
	Average  RGB     // mean scene colour over the five samples
	Lifted   float32 // lifted brightness
}

// Set returns the glyph set the cell is drawn with
func (c Cell) Set() glyph.Set {
	return glyph.Set(c.Pattern)
}

// Table returns the set whose bitmaps the cell's Glyph indexes
func (c Cell) Table() glyph.Set {
	if c.Set().Animated() {
		return glyph.Digital
	}
	return c.Set()
}

// Rune returns the printable character of the cell's glyph
func (c Cell) Rune() rune {
	if c.Ink == 0 {
		return ' '
	}
	return glyph.Rune(c.Table(), c.Glyph)
}

// Coverage returns the ink at glyph pixel (x, y)
func (c Cell) Coverage(x, y int) float32 {
	if c.Ink == 0 {
		return 0
	}
	return glyph.Coverage(c.Table(), c.Glyph, x, y) * c.Ink
}

// Foreground returns the ink colour of the cell
func (c Cell) Foreground(cfg FrameConfig) RGB {
	if cfg.Monochrome {
		return cfg.MonoHue.Scale(c.Lifted)
	}
	return c.Average.Scale(ColorBoost).Min(1)
}

// Background returns the colour behind the glyph
func (c Cell) Background(cfg FrameConfig) RGB {
	if cfg.Monochrome {
		return cfg.MonoHue.Scale(c.Lifted * MonoBackground)
	}
	return c.Average.Scale(ColorBackground)
}

// Shade returns the output colour of fragment (px, py) inside the cell
func (c Cell) Shade(px, py float32, cfg FrameConfig) RGB {
	x, y := GlyphCoord(px, py, cfg.CellSize)
	cov := c.Coverage(x, y)
	return Mix(c.Background(cfg), c.Foreground(cfg).Scale(cov), cov)
}

// CellAt returns the cell containing fragment (px, py)
func CellAt(px, py float32, cellSize sm.Vec2) (col, row int) {
	return int(sm.Floor(px / cellSize.X)), int(sm.Floor(py / cellSize.Y))
}

// ShadeCell makes the glyph decision for cell (col, row). A nil ident, or
// per-object mode being off, selects the global pattern.
func ShadeCell(col, row int, scene Sampler, ident *pattern.IdentityTexture, cfg FrameConfig) Cell {
	center := sm.Vec2{
		X: (float32(col) + 0.5) * cfg.CellSize.X,
		Y: (float32(row) + 0.5) * cfg.CellSize.Y,
	}
	u := center.X / cfg.Resolution.X
	v := center.Y / cfg.Resolution.Y
	du := cfg.CellSize.X * 0.25 / cfg.Resolution.X
	dv := cfg.CellSize.Y * 0.25 / cfg.Resolution.Y

	sum := scene.Sample(u, v).
		Add(scene.Sample(u+du, v+dv)).
		Add(scene.Sample(u-du, v-dv)).
		Add(scene.Sample(u+du, v-dv)).
		Add(scene.Sample(u-du, v+dv))
	avg := sum.Scale(1.0 / 5)

	lifted := LiftBrightness(Luminance(avg))
	cell := Cell{
		Col:     col,
		Row:     row,
		Pattern: cfg.GlobalPattern.Clamp(),
		Level:   BrightnessLevel(lifted),
		Average: avg,
		Lifted:  lifted,
		Ink:     1,
	}
	if cfg.PerObject && ident != nil {
		cell.Pattern = pattern.Decode(ident.Sample(u, v))
	}

	switch cell.Set() {
	case glyph.MatrixCycle:
		cell.Glyph = CycleGlyph(col, row, cell.Level, cfg.Time)
	case glyph.MatrixRain:
		cell.Ink = RainColumn(col).Brightness(row, cfg.Time)
		if cell.Ink > 0 {
			cell.Glyph = RainGlyph(col, row, cfg.Time)
		}
	default:
		cell.Glyph = cell.Level
	}
	return cell
}

// ShadePixel returns the composited colour of fragment (px, py). Fragment
// coordinates address pixel centres, so pixel (x, y) is shaded at
// (x+0.5, y+0.5).
func ShadePixel(px, py float32, scene Sampler, ident *pattern.IdentityTexture, cfg FrameConfig) RGB {
	col, row := CellAt(px, py, cfg.CellSize)
	return ShadeCell(col, row, scene, ident, cfg).Shade(px, py, cfg)
}

// CellGrid holds the glyph decisions of every cell in a frame
type CellGrid struct {
	Cols, Rows int
	Cells      []Cell
}

// NewCellGrid allocates a grid of cols x rows cells
func NewCellGrid(cols, rows int) *CellGrid {
	return &CellGrid{Cols: cols, Rows: rows, Cells: make([]Cell, cols*rows)}
}

// At returns the cell at (col, row), clamped to the grid
func (g *CellGrid) At(col, row int) Cell {
	col = sm.ClampInt(col, 0, g.Cols-1)
	row = sm.ClampInt(row, 0, g.Rows-1)
	return g.Cells[row*g.Cols+col]
}

// Compositor turns a scene colour buffer into the glyph image
type Compositor struct {
	workers int
	log     *logger.Logger
}

// NewCompositor creates a compositor using up to workers goroutines
func NewCompositor(workers int, log *logger.Logger) *Compositor {
	return &Compositor{
		workers: max(workers, 1),
		log:     log.With("compositor"),
	}
}

// Check rejects inputs before any pixel work starts
func (c *Compositor) Check(scene Sampler, ident *pattern.IdentityTexture, cfg FrameConfig) error {
	if scene == nil {
		return errors.New("compositor: no scene buffer")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.PerObject && ident != nil {
		if err := ident.Check(); err != nil {
			return err
		}
	}
	return nil
}

// Cells makes the glyph decision of every cell
func (c *Compositor) Cells(ctx context.Context, scene Sampler, ident *pattern.IdentityTexture, cfg FrameConfig) (*CellGrid, error) {
	if err := c.Check(scene, ident, cfg); err != nil {
		return nil, err
	}
	if !cfg.PerObject {
		ident = nil
	}

	cols, rows := cfg.Grid()
	grid := NewCellGrid(cols, rows)
	err := forEachBand(ctx, rows, c.workers, func(r0, r1 int) error {
		for row := r0; row < r1; row++ {
			for col := 0; col < cols; col++ {
				grid.Cells[row*cols+col] = ShadeCell(col, row, scene, ident, cfg)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("compositor cells: %w", err)
	}
	return grid, nil
}

// Draw rasterises a cell grid into an image of cfg.Resolution
func (c *Compositor) Draw(ctx context.Context, grid *CellGrid, cfg FrameConfig) (*image.RGBA, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cols, rows := cfg.Grid(); grid.Cols != cols || grid.Rows != rows {
		return nil, fmt.Errorf("%w: grid is %dx%d cells, frame needs %dx%d", ErrInvalidFrame, grid.Cols, grid.Rows, cols, rows)
	}

	out := image.NewRGBA(cfg.Bounds())
	width := out.Bounds().Dx()
	err := forEachBand(ctx, out.Bounds().Dy(), c.workers, func(y0, y1 int) error {
		for y := y0; y < y1; y++ {
			py := float32(y) + 0.5
			for x := 0; x < width; x++ {
				px := float32(x) + 0.5
				col, row := CellAt(px, py, cfg.CellSize)
				out.SetRGBA(x, y, toRGBA(grid.At(col, row).Shade(px, py, cfg)))
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("compositor draw: %w", err)
	}
	return out, nil
}

// Composite runs the compositing stage for one frame
func (c *Compositor) Composite(ctx context.Context, scene Sampler, ident *pattern.IdentityTexture, cfg FrameConfig) (*image.RGBA, error) {
	grid, err := c.Cells(ctx, scene, ident, cfg)
	if err != nil {
		return nil, err
	}
	out, err := c.Draw(ctx, grid, cfg)
	if err != nil {
		return nil, err
	}
	c.log.Debugf("composited %dx%d cells at t=%.2f", grid.Cols, grid.Rows, cfg.Time)
	return out, nil
}

// RGBAt converts an output pixel back to an RGB value
func RGBAt(img *image.RGBA, x, y int) RGB {
	p := img.RGBAAt(x, y)
	return RGB{float32(p.R) / 255, float32(p.G) / 255, float32(p.B) / 255}
}
