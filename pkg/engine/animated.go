package engine

import (
	sm "glyphcast/internal/shadermath"
	"glyphcast/pkg/glyph"
)

// Cycling digit field
const (
	CycleRate      = 6   // character changes per second
	CycleRowSkew   = 0.5 // per-row phase offset
	CycleSeedSpan  = 100
	CycleSeedMixer = 57
)

// Falling trail
const (
	RainMinSpeed  = 4
	RainMaxSpeed  = 12
	RainMinLength = 6
	RainMaxLength = 20
	RainMargin    = 12
	RainDigitRate = 2 // digit changes per second, slower than the trail

	RainLengthSalt = 71.3
	RainOffsetSalt = 19.19
	RainColScale   = 1.31
	RainRowScale   = 3.7
)

// animatedDigit maps a hash value in [0,1) to a non-blank digit glyph
func animatedDigit(h float32) int {
	return min(1+int(sm.Floor(h*(glyph.Levels-1))), glyph.Levels-1)
}

// CycleGlyph returns the Digital glyph index shown by the cycling field at
// cell (col, row) and time t. Cells at level 0 stay blank.
func CycleGlyph(col, row, level int, t float32) int {
	if level <= 0 {
		return 0
	}
	seed := sm.Hash(float32(col))
	step := sm.Floor(t*CycleRate + float32(row)*CycleRowSkew + seed*CycleSeedSpan)
	return animatedDigit(sm.Hash(step + seed*CycleSeedMixer))
}

// CycleCoverage returns the ink of the cycling field at glyph pixel (x, y)
func CycleCoverage(col, row, level, x, y int, t float32) float32 {
	return glyph.Coverage(glyph.Digital, CycleGlyph(col, row, level, t), x, y)
}

// RainParams are the per-column parameters of the falling trail
type RainParams struct {
	FallSpeed   float32 // rows per second
	TrailLength float32 // rows, whole number
	Margin      float32 // dark rows between trails
	StartOffset float32 // rows
}

// RainColumn derives the trail parameters of one column from independent
// hashes of the column index.
func RainColumn(col int) RainParams {
	c := float32(col)
	speedSeed := sm.Hash(c)
	lengthSeed := sm.Hash(c + RainLengthSalt)
	offsetSeed := sm.Hash(c + RainOffsetSalt)

	p := RainParams{
		FallSpeed:   sm.Mix(RainMinSpeed, RainMaxSpeed, speedSeed),
		TrailLength: sm.Floor(sm.Mix(RainMinLength, RainMaxLength, lengthSeed)),
		Margin:      RainMargin,
	}
	p.StartOffset = offsetSeed * p.Period()
	return p
}

// Period is the number of rows one trail cycle spans
func (p RainParams) Period() float32 {
	return p.TrailLength + p.Margin
}

// Head returns the row position of the trail head at time t
func (p RainParams) Head(t float32) float32 {
	return sm.Mod(t*p.FallSpeed+p.StartOffset, p.Period())
}

// Brightness returns the trail brightness of row at time t: quadratic
// falloff from 1 at the head to 0 at the tail, 0 outside the trail.
func (p RainParams) Brightness(row int, t float32) float32 {
	d := p.Head(t) - float32(row)
	if d < 0 || d >= p.TrailLength {
		return 0
	}
	f := 1 - d/p.TrailLength
	return f * f
}

// RainGlyph returns the Digital glyph index shown at (col, row) and time t
func RainGlyph(col, row int, t float32) int {
	h := sm.Hash(float32(col)*RainColScale + float32(row)*RainRowScale + sm.Floor(t*RainDigitRate))
	return animatedDigit(h)
}

// RainCoverage returns the ink of the falling trail at glyph pixel (x, y),
// the digit's bit scaled by the trail brightness.
func RainCoverage(col, row, x, y int, t float32) float32 {
	b := RainColumn(col).Brightness(row, t)
	if b == 0 {
		return 0
	}
	return glyph.Coverage(glyph.Digital, RainGlyph(col, row, t), x, y) * b
}
