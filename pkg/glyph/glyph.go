// Package glyph holds the built-in 5x7 bitmap glyph sets the compositor draws
// cells with. Each set has ten glyphs ordered from the sparsest (level 0) to
// the densest (level 9).
package glyph

import "fmt"

// Glyph dimensions in bitmap pixels
const (
	Width  = 5
	Height = 7
	Levels = 10
)

// Set identifies one of the built-in glyph sets (a pattern)
type Set int

// Built-in sets. MatrixCycle and MatrixRain are animated and draw with the
// Digital bitmaps.
const (
	Standard Set = iota
	Blocks
	Mesh
	Digital
	MatrixCycle
	MatrixRain

	// NumSets is the number of built-in sets
	NumSets = 6
)

var setNames = [NumSets]string{
	Standard:    "standard",
	Blocks:      "blocks",
	Mesh:        "mesh",
	Digital:     "digital",
	MatrixCycle: "matrix_cycle",
	MatrixRain:  "matrix_rain",
}

// String returns the configuration name of the set
func (s Set) String() string {
	if s < 0 || s >= NumSets {
		return fmt.Sprintf("set(%d)", int(s))
	}
	return setNames[s]
}

// Valid reports whether s names a built-in set
func (s Set) Valid() bool {
	return s >= 0 && s < NumSets
}

// Animated reports whether the set is driven by a time-varying generator
// instead of the static table.
func (s Set) Animated() bool {
	return s == MatrixCycle || s == MatrixRain
}

// ParseSet resolves a configuration name to a Set
func ParseSet(name string) (Set, error) {
	for i, n := range setNames {
		if n == name {
			return Set(i), nil
		}
	}
	return Standard, fmt.Errorf("unknown glyph set %q", name)
}

// Bitmap is one glyph: seven row masks, bit 4 is the leftmost column.
type Bitmap [Height]uint8

// Bit returns 1 when (x, y) is ink. Coordinates must already be in range.
func (b Bitmap) Bit(x, y int) uint8 {
	return (b[y] >> (Width - 1 - x)) & 1
}

// Ink counts the ink pixels of the glyph
func (b Bitmap) Ink() int {
	n := 0
	for _, row := range b {
		for r := row & 0x1f; r != 0; r &= r - 1 {
			n++
		}
	}
	return n
}

// table resolves the static table for a set. Unknown sets fall back to the
// standard density ramp; the animated sets share the digital bitmaps.
func table(s Set) *[Levels]Bitmap {
	switch s {
	case Blocks:
		return &blocksGlyphs
	case Mesh:
		return &meshGlyphs
	case Digital, MatrixCycle, MatrixRain:
		return &digitalGlyphs
	default:
		return &standardGlyphs
	}
}

func runes(s Set) []rune {
	switch s {
	case Blocks:
		return blocksRunes
	case Mesh:
		return meshRunes
	case Digital, MatrixCycle, MatrixRain:
		return digitalRunes
	default:
		return standardRunes
	}
}

// Glyph returns the bitmap for a set and level. The level is clamped to [0,9].
func Glyph(s Set, level int) Bitmap {
	return table(s)[clampIndex(level, Levels-1)]
}

// Coverage returns 1 when the local pixel (x, y) of the glyph at level is ink
// and 0 otherwise. Level and coordinates are clamped into range first.
func Coverage(s Set, level, x, y int) float32 {
	b := Glyph(s, level)
	return float32(b.Bit(clampIndex(x, Width-1), clampIndex(y, Height-1)))
}

// Rune returns the printable character a glyph depicts, for text presenters.
func Rune(s Set, level int) rune {
	return runes(s)[clampIndex(level, Levels-1)]
}

func clampIndex(v, hi int) int {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}
