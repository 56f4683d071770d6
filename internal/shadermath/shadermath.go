// Package shadermath holds the float32 helpers the compositing code shares with
// its GLSL port. Everything here evaluates in single precision so the CPU path
// and the fragment shader pick the same glyphs for the same inputs.
package shadermath

import "github.com/chewxy/math32"

// Hash constants, identical to the `rand` function in the GLSL sources.
const (
	HashScale = 12.9898
	HashGain  = 43758.5453
)

// Vec2 is a pair of float32 values (a GLSL vec2).
type Vec2 struct {
	X, Y float32
}

// Fract returns the fractional part of x, x - floor(x), like GLSL fract.
func Fract(x float32) float32 {
	return x - math32.Floor(x)
}

// Hash is the fixed sine hash fract(sin(v*12.9898)*43758.5453).
func Hash(v float32) float32 {
	return Fract(math32.Sin(v*HashScale) * HashGain)
}

// Mod is GLSL mod: x - y*floor(x/y). The result takes the sign of y.
func Mod(x, y float32) float32 {
	return x - y*math32.Floor(x/y)
}

// Clamp restricts a value to be between lo and hi
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampInt restricts an integer index to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Mix performs linear interpolation between a and b with t in [0,1], using
// the GLSL definition a*(1-t) + b*t so t=1 yields b exactly.
func Mix(a, b, t float32) float32 {
	return a*(1-t) + b*t
}

// MixVec2 interpolates both components.
func MixVec2(a, b Vec2, t float32) Vec2 {
	return Vec2{X: Mix(a.X, b.X, t), Y: Mix(a.Y, b.Y, t)}
}

// Floor is math32.Floor, re-exported so callers need a single import.
func Floor(x float32) float32 {
	return math32.Floor(x)
}

// Pow is math32.Pow with a zero floor on the base, as GLSL pow is undefined
// for negative bases.
func Pow(x, y float32) float32 {
	if x <= 0 {
		return 0
	}
	return math32.Pow(x, y)
}

// RoundHalfUp rounds with the +0.5-then-truncate rule used for identity decoding.
func RoundHalfUp(x float32) float32 {
	return math32.Floor(x + 0.5)
}

// Abs is GLSL abs.
func Abs(x float32) float32 {
	return math32.Abs(x)
}
