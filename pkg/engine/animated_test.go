package engine

import (
	"testing"

	sm "glyphcast/internal/shadermath"
	"glyphcast/pkg/glyph"
)

func TestCycleGlyphBlankAtLevelZero(t *testing.T) {
	for col := 0; col < 16; col++ {
		for _, tm := range []float32{0, 0.4, 7.9, 120} {
			if g := CycleGlyph(col, 3, 0, tm); g != 0 {
				t.Errorf("CycleGlyph(%d, 3, 0, %v) = %d, want 0", col, tm, g)
			}
			for y := 0; y < glyph.Height; y++ {
				for x := 0; x < glyph.Width; x++ {
					if c := CycleCoverage(col, 3, 0, x, y, tm); c != 0 {
						t.Fatalf("CycleCoverage at level 0 = %v, want 0", c)
					}
				}
			}
		}
	}
}

func TestCycleGlyphRangeAndDeterminism(t *testing.T) {
	for col := 0; col < 32; col++ {
		for row := 0; row < 8; row++ {
			tm := float32(col) * 0.37
			g := CycleGlyph(col, row, 5, tm)
			if g < 1 || g > glyph.Levels-1 {
				t.Errorf("CycleGlyph(%d, %d, 5, %v) = %d, want [1, 9]", col, row, tm, g)
			}
			if again := CycleGlyph(col, row, 5, tm); again != g {
				t.Errorf("CycleGlyph(%d, %d, 5, %v) not reproducible: %d then %d", col, row, tm, g, again)
			}
		}
	}
}

func TestCycleGlyphChangesOverTime(t *testing.T) {
	changed := false
	first := CycleGlyph(4, 2, 9, 0)
	for i := 1; i <= 60 && !changed; i++ {
		changed = CycleGlyph(4, 2, 9, float32(i)/6) != first
	}
	if !changed {
		t.Error("cycling glyph never changed over ten seconds")
	}
}

func TestRainColumnRanges(t *testing.T) {
	for col := 0; col < 200; col++ {
		p := RainColumn(col)
		if p.FallSpeed < RainMinSpeed || p.FallSpeed > RainMaxSpeed {
			t.Errorf("col %d FallSpeed = %v, want [4, 12]", col, p.FallSpeed)
		}
		if p.TrailLength < RainMinLength || p.TrailLength > RainMaxLength {
			t.Errorf("col %d TrailLength = %v, want [6, 20]", col, p.TrailLength)
		}
		if p.TrailLength != sm.Floor(p.TrailLength) {
			t.Errorf("col %d TrailLength = %v, want a whole number", col, p.TrailLength)
		}
		if p.Period() != p.TrailLength+RainMargin {
			t.Errorf("col %d Period() = %v, want %v", col, p.Period(), p.TrailLength+RainMargin)
		}
		if p.StartOffset < 0 || p.StartOffset >= p.Period() {
			t.Errorf("col %d StartOffset = %v, want [0, %v)", col, p.StartOffset, p.Period())
		}
	}
}

func TestRainColumnsAreIndependent(t *testing.T) {
	speeds := map[float32]bool{}
	lengths := map[float32]bool{}
	for col := 0; col < 32; col++ {
		p := RainColumn(col)
		speeds[p.FallSpeed] = true
		lengths[p.TrailLength] = true
	}
	if len(speeds) < 16 {
		t.Errorf("32 columns produced only %d distinct speeds", len(speeds))
	}
	if len(lengths) < 5 {
		t.Errorf("32 columns produced only %d distinct trail lengths", len(lengths))
	}
}

func TestRainHeadPeriodic(t *testing.T) {
	const tolerance = 1e-2
	for col := 0; col < 40; col++ {
		p := RainColumn(col)
		cycle := p.Period() / p.FallSpeed
		for _, tm := range []float32{0, 0.75, 3.2, 17.5, 60} {
			a := p.Head(tm)
			b := p.Head(tm + cycle)
			d := sm.Abs(a - b)
			if d > tolerance && sm.Abs(d-p.Period()) > tolerance {
				t.Errorf("col %d Head(%v) = %v, Head(%v) = %v, want equal mod %v", col, tm, a, tm+cycle, b, p.Period())
			}
			if a < -tolerance || a > p.Period()+tolerance {
				t.Errorf("col %d Head(%v) = %v outside [0, %v]", col, tm, a, p.Period())
			}
		}
	}
}

func TestRainBrightnessFalloff(t *testing.T) {
	p := RainParams{FallSpeed: 10, TrailLength: 8, Margin: RainMargin}

	// head at row 10 when t = 1
	tests := []struct {
		row  int
		want float32
	}{
		{10, 1},
		{9, (1 - 1.0/8) * (1 - 1.0/8)},
		{6, 0.25},
		{3, (1 - 7.0/8) * (1 - 7.0/8)},
		{2, 0},  // d == trailLength
		{11, 0}, // ahead of the head
		{19, 0},
	}
	for _, tt := range tests {
		got := p.Brightness(tt.row, 1)
		if sm.Abs(got-tt.want) > 1e-6 {
			t.Errorf("Brightness(%d, 1) = %v, want %v", tt.row, got, tt.want)
		}
	}
}

func TestRainBrightnessNeverNegative(t *testing.T) {
	for col := 0; col < 16; col++ {
		p := RainColumn(col)
		for row := 0; row < 40; row++ {
			b := p.Brightness(row, float32(col)*1.7)
			if b < 0 || b > 1 {
				t.Errorf("col %d Brightness(%d) = %v, want [0, 1]", col, row, b)
			}
		}
	}
}

func TestRainCoverageIsBitTimesBrightness(t *testing.T) {
	const tm = 2.6
	for col := 0; col < 20; col++ {
		p := RainColumn(col)
		for row := 0; row < 30; row++ {
			b := p.Brightness(row, tm)
			g := RainGlyph(col, row, tm)
			for y := 0; y < glyph.Height; y++ {
				for x := 0; x < glyph.Width; x++ {
					want := glyph.Coverage(glyph.Digital, g, x, y) * b
					if got := RainCoverage(col, row, x, y, tm); got != want {
						t.Fatalf("RainCoverage(%d, %d, %d, %d) = %v, want %v", col, row, x, y, got, want)
					}
				}
			}
		}
	}
}

func TestRainGlyphStableWithinHalfSecond(t *testing.T) {
	for col := 0; col < 10; col++ {
		a := RainGlyph(col, 4, 3.0)
		b := RainGlyph(col, 4, 3.49)
		if a != b {
			t.Errorf("RainGlyph(%d) changed within one step: %d vs %d", col, a, b)
		}
		if a < 1 || a > glyph.Levels-1 {
			t.Errorf("RainGlyph(%d) = %d, want [1, 9]", col, a)
		}
	}
}
