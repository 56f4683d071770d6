package engine

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/go-gl/mathgl/mgl32"
	xdraw "golang.org/x/image/draw"

	"glyphcast/internal/noise"
	"glyphcast/internal/shadermath"
	"glyphcast/pkg/config"
	"glyphcast/pkg/glyph"
	"glyphcast/pkg/pattern"
)

// Sampler reads a colour texture at normalised coordinates
type Sampler interface {
	Sample(u, v float32) RGB
}

// SceneBuffer is the lit scene colour buffer the compositor samples
type SceneBuffer struct {
	img *image.RGBA
}

// NewSceneBuffer allocates a black buffer
func NewSceneBuffer(width, height int) *SceneBuffer {
	return &SceneBuffer{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// SceneBufferFromImage wraps an arbitrary image as a scene buffer of the
// requested size. Images of a different size are resampled bilinearly.
func SceneBufferFromImage(src image.Image, width, height int) *SceneBuffer {
	buf := NewSceneBuffer(width, height)
	if src.Bounds().Dx() == width && src.Bounds().Dy() == height {
		draw.Draw(buf.img, buf.img.Bounds(), src, src.Bounds().Min, draw.Src)
		return buf
	}
	xdraw.BiLinear.Scale(buf.img, buf.img.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return buf
}

// Image exposes the underlying pixels
func (b *SceneBuffer) Image() *image.RGBA {
	return b.img
}

// Bounds returns the buffer size
func (b *SceneBuffer) Bounds() image.Rectangle {
	return b.img.Bounds()
}

// Fill paints the whole buffer with one colour
func (b *SceneBuffer) Fill(c RGB) {
	draw.Draw(b.img, b.img.Bounds(), image.NewUniform(toRGBA(c)), image.Point{}, draw.Src)
}

// Set stores a colour at pixel (x, y), clamping components to [0,1]
func (b *SceneBuffer) Set(x, y int, c RGB) {
	b.img.SetRGBA(x, y, toRGBA(c))
}

// At returns the colour at pixel (x, y), clamped to the edges
func (b *SceneBuffer) At(x, y int) RGB {
	r := b.img.Bounds()
	x = shadermath.ClampInt(x, r.Min.X, r.Max.X-1)
	y = shadermath.ClampInt(y, r.Min.Y, r.Max.Y-1)
	p := b.img.RGBAAt(x, y)
	return RGB{float32(p.R) / 255, float32(p.G) / 255, float32(p.B) / 255}
}

// Sample reads with nearest filtering and clamp-to-edge addressing
func (b *SceneBuffer) Sample(u, v float32) RGB {
	r := b.img.Bounds()
	x := int(shadermath.Floor(u * float32(r.Dx())))
	y := int(shadermath.Floor(v * float32(r.Dy())))
	return b.At(r.Min.X+x, r.Min.Y+y)
}

func toRGBA(c RGB) color.RGBA {
	return color.RGBA{
		R: unorm8(c.R),
		G: unorm8(c.G),
		B: unorm8(c.B),
		A: 255,
	}
}

func unorm8(v float32) uint8 {
	return uint8(shadermath.RoundHalfUp(shadermath.Clamp(v, 0, 1) * 255))
}

// SceneObject is a sphere in the demo scene. The pattern assignment is fixed
// when the object is created.
type SceneObject struct {
	Name   string
	Center mgl32.Vec3
	Radius float32
	Color  RGB
	Orbit  float32 // radians per second around the world Y axis

	pattern pattern.ID
	tagged  bool
}

// NewSceneObject creates an object that the identity pass does not see
func NewSceneObject(name string, center mgl32.Vec3, radius float32, c RGB) *SceneObject {
	return &SceneObject{Name: name, Center: center, Radius: radius, Color: c}
}

// NewPatternObject creates an object tagged with a pattern id
func NewPatternObject(name string, center mgl32.Vec3, radius float32, c RGB, id pattern.ID) *SceneObject {
	obj := NewSceneObject(name, center, radius, c)
	obj.pattern = id.Clamp()
	obj.tagged = true
	return obj
}

// Pattern returns the object's pattern id and whether it carries one
func (o *SceneObject) Pattern() (pattern.ID, bool) {
	return o.pattern, o.tagged
}

// CenterAt returns the object's centre at animation time t
func (o *SceneObject) CenterAt(t float32) mgl32.Vec3 {
	if o.Orbit == 0 {
		return o.Center
	}
	return mgl32.HomogRotate3DY(o.Orbit*t).Mul4x1(o.Center.Vec4(1)).Vec3()
}

// Scene is the set of objects and lighting the ray tracer renders
type Scene struct {
	Objects      []*SceneObject
	Light        mgl32.Vec3 // direction towards the light, normalised
	Sky          RGB
	Ground       RGB
	GroundHeight float32
	Grime        *noise.Generator // darkens the ground in patches, nil for a clean floor
}

// NewSceneFromConfig builds the demo scene described in the configuration
func NewSceneFromConfig(cfg config.SceneConfig) (*Scene, error) {
	sky, err := config.ParseColor(cfg.Sky)
	if err != nil {
		return nil, fmt.Errorf("scene sky: %w", err)
	}
	ground, err := config.ParseColor(cfg.Ground)
	if err != nil {
		return nil, fmt.Errorf("scene ground: %w", err)
	}

	scene := &Scene{
		Light:  mgl32.Vec3(cfg.Light).Normalize(),
		Sky:    RGBFromColorful(sky),
		Ground: RGBFromColorful(ground),
		Grime:  noise.NewGenerator(GrimeSeed),
	}

	for _, oc := range cfg.Objects {
		c, err := config.ParseColor(oc.Color)
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", oc.Name, err)
		}
		set, tagged, err := oc.Set()
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", oc.Name, err)
		}

		var obj *SceneObject
		if tagged {
			obj = NewPatternObject(oc.Name, mgl32.Vec3(oc.Position), oc.Radius, RGBFromColorful(c), pattern.ID(set))
		} else {
			obj = NewSceneObject(oc.Name, mgl32.Vec3(oc.Position), oc.Radius, RGBFromColorful(c))
		}
		obj.Orbit = oc.Orbit
		scene.Objects = append(scene.Objects, obj)
	}

	return scene, nil
}

// TaggedObjects returns the objects visible to the identity pass
func (s *Scene) TaggedObjects() []*SceneObject {
	result := make([]*SceneObject, 0, len(s.Objects))
	for _, obj := range s.Objects {
		if _, ok := obj.Pattern(); ok {
			result = append(result, obj)
		}
	}
	return result
}

// GetObjectByName returns the object with the given name, or nil
func (s *Scene) GetObjectByName(name string) *SceneObject {
	for _, obj := range s.Objects {
		if obj.Name == name {
			return obj
		}
	}
	return nil
}

// ObjectSnapshot is an object's placement at one frame time, as handed to a
// GPU identity pass.
type ObjectSnapshot struct {
	Center  mgl32.Vec3
	Radius  float32
	Pattern pattern.ID
	Set     glyph.Set
}

// Snapshot returns the tagged objects positioned at time t
func (s *Scene) Snapshot(t float32) []ObjectSnapshot {
	tagged := s.TaggedObjects()
	result := make([]ObjectSnapshot, 0, len(tagged))
	for _, obj := range tagged {
		id, _ := obj.Pattern()
		result = append(result, ObjectSnapshot{
			Center:  obj.CenterAt(t),
			Radius:  obj.Radius,
			Pattern: id,
			Set:     glyph.Set(id),
		})
	}
	return result
}
