// Package shader generates the GLSL sources of the GPU glyph pipeline. The
// glyph bitmaps, the pattern divisor and every compositing constant are
// taken from the Go packages, so the CPU and GPU paths cannot drift apart.
package shader

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"glyphcast/internal/shadermath"
	"glyphcast/pkg/engine"
	"glyphcast/pkg/glyph"
	"glyphcast/pkg/pattern"
)

// MaxObjects is the number of tagged objects the identity shader can trace
const MaxObjects = 16

// staticTables are the distinct bitmap tables uploaded to the GPU, in Set
// order. The animated sets draw from Digital.
var staticTables = []glyph.Set{glyph.Standard, glyph.Blocks, glyph.Mesh, glyph.Digital}

var (
	identityTmpl  = template.Must(template.New("identity").Parse(identityTemplate))
	compositeTmpl = template.Must(template.New("composite").Parse(compositeTemplate))
)

// Float formats v as a GLSL float literal
func Float(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// Vec2 formats v as a GLSL vec2 constructor
func Vec2(v shadermath.Vec2) string {
	return fmt.Sprintf("vec2(%s, %s)", Float(float64(v.X)), Float(float64(v.Y)))
}

// Tables renders the static glyph tables as the body of a GLSL int array
// initialiser, one glyph per line.
func Tables() (body string, n int) {
	var b strings.Builder
	for ti, set := range staticTables {
		fmt.Fprintf(&b, "    // %s\n", set)
		for level := 0; level < glyph.Levels; level++ {
			bm := glyph.Glyph(set, level)
			rows := make([]string, len(bm))
			for i, r := range bm {
				rows[i] = strconv.Itoa(int(r))
			}
			b.WriteString("    " + strings.Join(rows, ", "))
			if ti < len(staticTables)-1 || level < glyph.Levels-1 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, " // %+q\n", glyph.Rune(set, level))
			n += len(rows)
		}
	}
	return strings.TrimRight(b.String(), "\n"), n
}

type params struct {
	Divisor     string
	MaxObjects  int
	Bias        string
	GlyphWidth  int
	GlyphHeight int
	Levels      int
	NumTables   int
	Digital     int
	MatrixCycle int
	MatrixRain  int
	TableLen    int
	Tables      string

	HashScale, HashGain string
	LumaR, LumaG, LumaB string
	LiftGamma           string

	LegibleCellWidth string
	MinReadableCell  string
	ClassicCell      string

	ColorBoost, ColorBackground, MonoBackground string

	CycleRate, CycleRowSkew, CycleSeedSpan, CycleSeedMixer string

	RainMinSpeed, RainMaxSpeed, RainMinLength, RainMaxLength string
	RainMargin, RainDigitRate, RainLengthSalt, RainOffsetSalt string
	RainColScale, RainRowScale                                string
}

func newParams() params {
	tables, n := Tables()
	return params{
		Divisor:     Float(pattern.Divisor),
		MaxObjects:  MaxObjects,
		Bias:        Float(1e-3),
		GlyphWidth:  glyph.Width,
		GlyphHeight: glyph.Height,
		Levels:      glyph.Levels,
		NumTables:   len(staticTables),
		Digital:     int(glyph.Digital),
		MatrixCycle: int(glyph.MatrixCycle),
		MatrixRain:  int(glyph.MatrixRain),
		TableLen:    n,
		Tables:      tables,

		HashScale: Float(shadermath.HashScale),
		HashGain:  Float(shadermath.HashGain),
		LumaR:     Float(engine.LumaR),
		LumaG:     Float(engine.LumaG),
		LumaB:     Float(engine.LumaB),
		LiftGamma: Float(engine.LiftGamma),

		LegibleCellWidth: Float(engine.LegibleCellWidth),
		MinReadableCell:  Vec2(engine.MinReadableCell),
		ClassicCell:      Vec2(engine.ClassicCell),

		ColorBoost:      Float(engine.ColorBoost),
		ColorBackground: Float(engine.ColorBackground),
		MonoBackground:  Float(engine.MonoBackground),

		CycleRate:      Float(engine.CycleRate),
		CycleRowSkew:   Float(engine.CycleRowSkew),
		CycleSeedSpan:  Float(engine.CycleSeedSpan),
		CycleSeedMixer: Float(engine.CycleSeedMixer),

		RainMinSpeed:   Float(engine.RainMinSpeed),
		RainMaxSpeed:   Float(engine.RainMaxSpeed),
		RainMinLength:  Float(engine.RainMinLength),
		RainMaxLength:  Float(engine.RainMaxLength),
		RainMargin:     Float(engine.RainMargin),
		RainDigitRate:  Float(engine.RainDigitRate),
		RainLengthSalt: Float(engine.RainLengthSalt),
		RainOffsetSalt: Float(engine.RainOffsetSalt),
		RainColScale:   Float(engine.RainColScale),
		RainRowScale:   Float(engine.RainRowScale),
	}
}

func render(t *template.Template) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, newParams()); err != nil {
		return "", fmt.Errorf("failed to generate %s shader: %w", t.Name(), err)
	}
	return b.String(), nil
}

// IdentityFragment returns the identity pass fragment shader
func IdentityFragment() (string, error) {
	return render(identityTmpl)
}

// CompositeFragment returns the compositing pass fragment shader
func CompositeFragment() (string, error) {
	return render(compositeTmpl)
}
