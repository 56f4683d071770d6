package engine

import (
	"context"
	"errors"
	"testing"

	sm "glyphcast/internal/shadermath"
	"glyphcast/pkg/glyph"
	"glyphcast/pkg/pattern"
)

func testFrame(width, height int) FrameConfig {
	return FrameConfig{
		CellSize:   sm.Vec2{X: 8, Y: 14},
		Resolution: sm.Vec2{X: float32(width), Y: float32(height)},
		MonoHue:    RGB{0.2, 1, 0.4},
	}
}

func uniformScene(width, height int, c RGB) *SceneBuffer {
	buf := NewSceneBuffer(width, height)
	buf.Fill(c)
	return buf
}

func TestLuminance(t *testing.T) {
	tests := []struct {
		c    RGB
		want float32
	}{
		{RGB{0, 0, 0}, 0},
		{RGB{1, 0, 0}, 0.299},
		{RGB{0, 1, 0}, 0.587},
		{RGB{0, 0, 1}, 0.114},
	}
	for _, tt := range tests {
		if got := Luminance(tt.c); got != tt.want {
			t.Errorf("Luminance(%v) = %v, want %v", tt.c, got, tt.want)
		}
	}
	if got := Luminance(RGB{1, 1, 1}); sm.Abs(got-1) > 1e-6 {
		t.Errorf("Luminance(white) = %v, want 1", got)
	}
}

func TestLevelBoundaries(t *testing.T) {
	tests := []struct {
		lum  float32
		want int
	}{
		{0, 0},
		{1, 9},
		{-0.5, 0},
		{2, 9},
	}
	for _, tt := range tests {
		if got := LevelForLuminance(tt.lum); got != tt.want {
			t.Errorf("LevelForLuminance(%v) = %d, want %d", tt.lum, got, tt.want)
		}
	}
}

func TestLevelMonotonic(t *testing.T) {
	prev := LevelForLuminance(0)
	for i := 1; i <= 4096; i++ {
		lum := float32(i) / 4096
		level := LevelForLuminance(lum)
		if level < prev {
			t.Fatalf("LevelForLuminance(%v) = %d, below %d for a darker input", lum, level, prev)
		}
		prev = level
	}
}

func TestLiftBrightnessRaisesShadows(t *testing.T) {
	for _, lum := range []float32{0.05, 0.2, 0.5, 0.8} {
		if got := LiftBrightness(lum); got <= lum {
			t.Errorf("LiftBrightness(%v) = %v, want > input", lum, got)
		}
	}
}

func TestReferenceCell(t *testing.T) {
	tests := []struct {
		cell sm.Vec2
		want sm.Vec2
	}{
		{sm.Vec2{X: 8, Y: 14}, ClassicCell},
		{sm.Vec2{X: 16, Y: 28}, ClassicCell},
		{sm.Vec2{X: 0, Y: 1}, MinReadableCell},
		{sm.Vec2{X: 4, Y: 7}, sm.Vec2{X: 6.5, Y: 10.5}},
	}
	for _, tt := range tests {
		if got := ReferenceCell(tt.cell); got != tt.want {
			t.Errorf("ReferenceCell(%v) = %v, want %v", tt.cell, got, tt.want)
		}
	}
}

func TestGlyphCoordLiteralAtThreshold(t *testing.T) {
	cells := []sm.Vec2{{X: 8, Y: 14}, {X: 8, Y: 10}, {X: 12, Y: 20}}
	for _, cs := range cells {
		for py := float32(0.5); py < 3*cs.Y; py++ {
			for px := float32(0.5); px < 3*cs.X; px++ {
				col, row := CellAt(px, py, cs)
				wantX := int(sm.Floor((px - float32(col)*cs.X) / cs.X * glyph.Width))
				wantY := int(sm.Floor((py - float32(row)*cs.Y) / cs.Y * glyph.Height))
				x, y := GlyphCoord(px, py, cs)
				if x != wantX || y != wantY {
					t.Fatalf("GlyphCoord(%v, %v, %v) = (%d, %d), want literal (%d, %d)", px, py, cs, x, y, wantX, wantY)
				}
			}
		}
	}
}

func TestGlyphCoordTilesSmallCells(t *testing.T) {
	cs := sm.Vec2{X: 4, Y: 7}
	ref := ReferenceCell(cs)

	// half a pixel into the second stencil tile
	x, y := GlyphCoord(ref.X+0.5, ref.Y+0.5, cs)
	if x != 0 || y != 0 {
		t.Errorf("GlyphCoord at tile origin = (%d, %d), want (0, 0)", x, y)
	}

	for py := float32(0.5); py < 40; py++ {
		for px := float32(0.5); px < 40; px++ {
			x, y := GlyphCoord(px, py, cs)
			if x < 0 || x >= glyph.Width || y < 0 || y >= glyph.Height {
				t.Fatalf("GlyphCoord(%v, %v) = (%d, %d) out of range", px, py, x, y)
			}
		}
	}
}

func TestWhiteSceneDrawsDensestGlyph(t *testing.T) {
	cfg := testFrame(64, 56)
	scene := uniformScene(64, 56, RGB{1, 1, 1})

	cell := ShadeCell(1, 1, scene, nil, cfg)
	if cell.Level != 9 {
		t.Fatalf("Level = %d, want 9", cell.Level)
	}
	if cell.Rune() != '@' {
		t.Errorf("Rune() = %q, want '@'", cell.Rune())
	}

	fg := RGB{1, 1, 1}
	bg := RGB{1, 1, 1}.Scale(ColorBackground)
	for y := 14; y < 28; y++ {
		for x := 8; x < 16; x++ {
			px, py := float32(x)+0.5, float32(y)+0.5
			gx, gy := GlyphCoord(px, py, cfg.CellSize)
			want := bg
			if glyph.Coverage(glyph.Standard, 9, gx, gy) == 1 {
				want = fg
			}
			if got := ShadePixel(px, py, scene, nil, cfg); got != want {
				t.Errorf("ShadePixel(%v, %v) = %v, want %v", px, py, got, want)
			}
		}
	}
}

func TestCellCentreInkHasNoBackgroundBleed(t *testing.T) {
	cfg := testFrame(64, 56)
	scene := uniformScene(64, 56, RGB{1, 1, 1})

	// glyph pixel (2, 3) of '@' is ink; it is drawn at the cell centre
	px, py := float32(12), float32(21)
	gx, gy := GlyphCoord(px, py, cfg.CellSize)
	if glyph.Coverage(glyph.Standard, 9, gx, gy) != 1 {
		t.Fatalf("glyph pixel (%d, %d) of '@' should be ink", gx, gy)
	}
	if got := ShadePixel(px, py, scene, nil, cfg); got != (RGB{1, 1, 1}) {
		t.Errorf("ShadePixel at cell centre = %v, want pure boosted colour", got)
	}
}

func TestPerObjectDecodesPatternThree(t *testing.T) {
	cfg := testFrame(64, 56)
	cfg.PerObject = true
	scene := uniformScene(64, 56, RGB{0.6, 0.6, 0.6})

	ident := pattern.NewIdentityTexture(64, 56)
	for y := 0; y < 56; y++ {
		for x := 0; x < 64; x++ {
			ident.SetRaw(x, y, 0.5)
		}
	}

	cell := ShadeCell(2, 1, scene, ident, cfg)
	if cell.Pattern != 3 {
		t.Errorf("Pattern = %d, want 3", cell.Pattern)
	}
	if cell.Set() != glyph.Digital {
		t.Errorf("Set() = %v, want %v", cell.Set(), glyph.Digital)
	}

	cfg.PerObject = false
	cfg.GlobalPattern = pattern.ID(glyph.Mesh)
	if got := ShadeCell(2, 1, scene, ident, cfg).Pattern; got != pattern.ID(glyph.Mesh) {
		t.Errorf("with per-object off Pattern = %d, want global %d", got, glyph.Mesh)
	}
}

func TestMissingIdentityUsesGlobalPattern(t *testing.T) {
	cfg := testFrame(64, 56)
	cfg.PerObject = true
	cfg.GlobalPattern = pattern.ID(glyph.Blocks)
	scene := uniformScene(64, 56, RGB{0.5, 0.5, 0.5})

	if got := ShadeCell(0, 0, scene, nil, cfg).Pattern; got != pattern.ID(glyph.Blocks) {
		t.Errorf("Pattern = %d, want %d", got, glyph.Blocks)
	}
}

func TestMonochromeBackgroundIsNeverBlack(t *testing.T) {
	cfg := testFrame(64, 56)
	cfg.Monochrome = true
	scene := uniformScene(64, 56, RGB{0.3, 0.3, 0.3})

	cell := ShadeCell(0, 0, scene, nil, cfg)
	bg := cell.Background(cfg)
	if bg.G <= 0 {
		t.Errorf("Background = %v, want a visible floor", bg)
	}
	fg := cell.Foreground(cfg)
	if want := cfg.MonoHue.Scale(cell.Lifted); fg != want {
		t.Errorf("Foreground = %v, want %v", fg, want)
	}
}

func TestColourForegroundIsBoosted(t *testing.T) {
	cfg := testFrame(64, 56)
	scene := uniformScene(64, 56, RGB{0.4, 0.8, 0.2})

	cell := ShadeCell(0, 0, scene, nil, cfg)
	fg := cell.Foreground(cfg)
	if fg.G != 1 {
		t.Errorf("boosted green = %v, want clamped to 1", fg.G)
	}
	if fg.R <= cell.Average.R {
		t.Errorf("boosted red = %v, want above %v", fg.R, cell.Average.R)
	}
}

func TestAnimatedCellsMatchGenerators(t *testing.T) {
	cfg := testFrame(64, 56)
	cfg.Time = 3.25
	scene := uniformScene(64, 56, RGB{0.7, 0.7, 0.7})

	cfg.GlobalPattern = pattern.ID(glyph.MatrixCycle)
	for col := 0; col < 8; col++ {
		cell := ShadeCell(col, 2, scene, nil, cfg)
		for y := 0; y < glyph.Height; y++ {
			for x := 0; x < glyph.Width; x++ {
				want := CycleCoverage(col, 2, cell.Level, x, y, cfg.Time)
				if got := cell.Coverage(x, y); got != want {
					t.Fatalf("cycle cell %d coverage(%d, %d) = %v, want %v", col, x, y, got, want)
				}
			}
		}
	}

	cfg.GlobalPattern = pattern.ID(glyph.MatrixRain)
	for col := 0; col < 8; col++ {
		cell := ShadeCell(col, 2, scene, nil, cfg)
		for y := 0; y < glyph.Height; y++ {
			for x := 0; x < glyph.Width; x++ {
				want := RainCoverage(col, 2, x, y, cfg.Time)
				if got := cell.Coverage(x, y); got != want {
					t.Fatalf("rain cell %d coverage(%d, %d) = %v, want %v", col, x, y, got, want)
				}
			}
		}
	}
}

func TestCompositeMatchesShadePixel(t *testing.T) {
	const w, h = 37, 30
	cfg := testFrame(w, h)
	cfg.CellSize = sm.Vec2{X: 5, Y: 6}
	cfg.PerObject = true

	scene := NewSceneBuffer(w, h)
	ident := pattern.NewIdentityTexture(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float32(x+y) / float32(w+h)
			scene.Set(x, y, RGB{v, 1 - v, v * 0.5})
			ident.Set(x, y, pattern.ID(x/7))
		}
	}

	c := NewCompositor(3, newTestLogger())
	out, err := c.Composite(context.Background(), scene, ident, cfg)
	if err != nil {
		t.Fatalf("Composite: %v", err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			want := toRGBA(ShadePixel(float32(x)+0.5, float32(y)+0.5, scene, ident, cfg))
			if got := out.RGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestCompositeRejectsForeignDivisor(t *testing.T) {
	cfg := testFrame(16, 14)
	cfg.PerObject = true
	scene := uniformScene(16, 14, RGB{1, 1, 1})
	ident := pattern.NewIdentityTextureWithDivisor(16, 14, 5)

	c := NewCompositor(1, newTestLogger())
	if _, err := c.Composite(context.Background(), scene, ident, cfg); !errors.Is(err, pattern.ErrDivisorMismatch) {
		t.Errorf("Composite error = %v, want %v", err, pattern.ErrDivisorMismatch)
	}

	// the texture is never read with per-object mode off
	cfg.PerObject = false
	if _, err := c.Composite(context.Background(), scene, ident, cfg); err != nil {
		t.Errorf("Composite with per-object off: %v", err)
	}
}

func TestCompositeRejectsInvalidFrame(t *testing.T) {
	c := NewCompositor(1, newTestLogger())
	scene := uniformScene(8, 8, RGB{})

	cfg := testFrame(8, 8)
	cfg.CellSize = sm.Vec2{X: 0, Y: 14}
	if _, err := c.Composite(context.Background(), scene, nil, cfg); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("Composite error = %v, want %v", err, ErrInvalidFrame)
	}
	if _, err := c.Composite(context.Background(), nil, nil, testFrame(8, 8)); err == nil {
		t.Error("Composite without a scene should fail")
	}
}

func TestCompositeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCompositor(2, newTestLogger())
	_, err := c.Composite(ctx, uniformScene(16, 14, RGB{}), nil, testFrame(16, 14))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Composite error = %v, want %v", err, context.Canceled)
	}
}

func TestDrawRejectsMismatchedGrid(t *testing.T) {
	c := NewCompositor(1, newTestLogger())
	if _, err := c.Draw(context.Background(), NewCellGrid(1, 1), testFrame(64, 56)); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("Draw error = %v, want %v", err, ErrInvalidFrame)
	}
}
