// Package pattern carries per-object glyph set ids from the identity pass to
// the compositor through a single 8-bit colour channel.
//
// The encoder and the decoder must agree on Divisor. A texture written with a
// different divisor decodes to plausible but wrong ids, so textures remember
// the divisor they were written with and Check rejects foreign ones before
// any pixel is read.
package pattern

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"glyphcast/internal/shadermath"
)

// Divisor is the number of pattern ids the identity channel can carry. The
// GLSL sources are generated with the same value.
const Divisor = 6

// ErrDivisorMismatch is returned when an identity texture was encoded with a
// divisor other than Divisor.
var ErrDivisorMismatch = errors.New("pattern: identity texture divisor mismatch")

// ID selects the glyph set used by an object's cells
type ID int

// Valid reports whether the id is in [0, Divisor-1]
func (id ID) Valid() bool {
	return id >= 0 && id < Divisor
}

// Clamp forces the id into [0, Divisor-1]
func (id ID) Clamp() ID {
	return ID(shadermath.ClampInt(int(id), 0, Divisor-1))
}

// Encode maps an id to the red channel value id/Divisor
func Encode(id ID) float32 {
	return float32(id.Clamp()) / Divisor
}

// Decode recovers an id from a sampled red value with round(v*Divisor).
func Decode(v float32) ID {
	return ID(shadermath.RoundHalfUp(v * Divisor)).Clamp()
}

// IdentityTexture is the per-pixel identity render target. Values are stored
// as 8-bit unsigned normalised red, like an R8 colour attachment.
type IdentityTexture struct {
	img     *image.Gray
	divisor int
}

// NewIdentityTexture allocates a cleared texture encoded with Divisor
func NewIdentityTexture(width, height int) *IdentityTexture {
	return NewIdentityTextureWithDivisor(width, height, Divisor)
}

// NewIdentityTextureWithDivisor allocates a texture tagged with an explicit
// divisor, for identity buffers restored from elsewhere.
func NewIdentityTextureWithDivisor(width, height, divisor int) *IdentityTexture {
	return &IdentityTexture{
		img:     image.NewGray(image.Rect(0, 0, width, height)),
		divisor: divisor,
	}
}

// Divisor returns the divisor the texture was encoded with
func (t *IdentityTexture) Divisor() int {
	return t.divisor
}

// Check fails with ErrDivisorMismatch when the texture cannot be decoded with
// this build's Divisor.
func (t *IdentityTexture) Check() error {
	if t.divisor != Divisor {
		return fmt.Errorf("%w: texture uses %d, decoder uses %d", ErrDivisorMismatch, t.divisor, Divisor)
	}
	return nil
}

// Bounds returns the texture size
func (t *IdentityTexture) Bounds() image.Rectangle {
	return t.img.Bounds()
}

// Pix exposes the raw red bytes, row-major, for texture uploads.
func (t *IdentityTexture) Pix() []uint8 {
	return t.img.Pix
}

// Clear resets every pixel to id 0
func (t *IdentityTexture) Clear() {
	clear(t.img.Pix)
}

// Set writes the encoded id at pixel (x, y)
func (t *IdentityTexture) Set(x, y int, id ID) {
	v := Encode(id)
	t.img.SetGray(x, y, color.Gray{Y: uint8(shadermath.RoundHalfUp(v * 255))})
}

// SetRaw stores an already encoded red value in [0,1].
func (t *IdentityTexture) SetRaw(x, y int, v float32) {
	v = shadermath.Clamp(v, 0, 1)
	t.img.SetGray(x, y, color.Gray{Y: uint8(shadermath.RoundHalfUp(v * 255))})
}

// At returns the stored red value at pixel (x, y) in [0,1]
func (t *IdentityTexture) At(x, y int) float32 {
	b := t.img.Bounds()
	x = shadermath.ClampInt(x, b.Min.X, b.Max.X-1)
	y = shadermath.ClampInt(y, b.Min.Y, b.Max.Y-1)
	return float32(t.img.GrayAt(x, y).Y) / 255
}

// Sample reads the red value at normalised coordinates with nearest filtering
// and clamp-to-edge addressing.
func (t *IdentityTexture) Sample(u, v float32) float32 {
	b := t.img.Bounds()
	x := int(shadermath.Floor(u * float32(b.Dx())))
	y := int(shadermath.Floor(v * float32(b.Dy())))
	return t.At(b.Min.X+x, b.Min.Y+y)
}

// IDAt decodes the id stored at pixel (x, y)
func (t *IdentityTexture) IDAt(x, y int) ID {
	return Decode(t.At(x, y))
}
