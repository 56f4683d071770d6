package engine

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"glyphcast/pkg/config"
)

// ErrProjectionMismatch is returned when the identity camera does not share
// the main camera's projection, which would misalign identity pixels with
// scene pixels.
var ErrProjectionMismatch = errors.New("camera projections differ")

const projectionEpsilon = 1e-5

// Projection describes a perspective frustum
type Projection struct {
	FOVY   float32 // vertical field of view in degrees
	Aspect float32
	Near   float32
	Far    float32
}

// Matrix returns the OpenGL projection matrix
func (p Projection) Matrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(p.FOVY), p.Aspect, p.Near, p.Far)
}

// Equal compares two projections with a small tolerance
func (p Projection) Equal(o Projection) bool {
	return mgl32.FloatEqualThreshold(p.FOVY, o.FOVY, projectionEpsilon) &&
		mgl32.FloatEqualThreshold(p.Aspect, o.Aspect, projectionEpsilon) &&
		mgl32.FloatEqualThreshold(p.Near, o.Near, projectionEpsilon) &&
		mgl32.FloatEqualThreshold(p.Far, o.Far, projectionEpsilon)
}

// Camera is a look-at pinhole camera
type Camera struct {
	Position   mgl32.Vec3
	Target     mgl32.Vec3
	Up         mgl32.Vec3
	Projection Projection

	// TaggedOnly restricts rendering to pattern-tagged objects
	TaggedOnly bool
}

// NewCamera creates a camera for a viewport of the given size
func NewCamera(cfg config.CameraConfig, fovy float32, width, height int) *Camera {
	return &Camera{
		Position: mgl32.Vec3(cfg.Position),
		Target:   mgl32.Vec3(cfg.Target),
		Up:       mgl32.Vec3{0, 1, 0},
		Projection: Projection{
			FOVY:   fovy,
			Aspect: float32(width) / float32(height),
			Near:   0.1,
			Far:    100,
		},
	}
}

// View returns the world-to-camera matrix
func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

// ViewProjection returns Projection * View
func (c *Camera) ViewProjection() mgl32.Mat4 {
	return c.Projection.Matrix().Mul4(c.View())
}

// IdentityCamera returns the camera used by the identity pass. It shares
// position and projection with c and only sees tagged objects.
func (c *Camera) IdentityCamera() *Camera {
	ident := *c
	ident.TaggedOnly = true
	return &ident
}

// SetAspect updates the projection for a resized viewport
func (c *Camera) SetAspect(width, height int) {
	if height > 0 {
		c.Projection.Aspect = float32(width) / float32(height)
	}
}

// Ray returns the world-space ray through the centre of pixel (px, py) of a
// width x height viewport with the origin at the top-left corner.
func (c *Camera) Ray(px, py, width, height int) (origin, dir mgl32.Vec3, err error) {
	view := c.View()
	proj := c.Projection.Matrix()

	wx := float32(px) + 0.5
	wy := float32(height) - (float32(py) + 0.5)

	near, err := mgl32.UnProject(mgl32.Vec3{wx, wy, 0}, view, proj, 0, 0, width, height)
	if err != nil {
		return mgl32.Vec3{}, mgl32.Vec3{}, fmt.Errorf("unproject near plane: %w", err)
	}
	far, err := mgl32.UnProject(mgl32.Vec3{wx, wy, 1}, view, proj, 0, 0, width, height)
	if err != nil {
		return mgl32.Vec3{}, mgl32.Vec3{}, fmt.Errorf("unproject far plane: %w", err)
	}

	return c.Position, far.Sub(near).Normalize(), nil
}

// MatchProjection fails with ErrProjectionMismatch unless both cameras use
// the same projection and viewpoint.
func MatchProjection(main, ident *Camera) error {
	if !main.Projection.Equal(ident.Projection) {
		return fmt.Errorf("%w: %+v vs %+v", ErrProjectionMismatch, main.Projection, ident.Projection)
	}
	if !main.Position.ApproxEqualThreshold(ident.Position, projectionEpsilon) ||
		!main.Target.ApproxEqualThreshold(ident.Target, projectionEpsilon) {
		return fmt.Errorf("%w: cameras are not co-located", ErrProjectionMismatch)
	}
	return nil
}

// RayCaster generates primary rays for a fixed viewport. It inverts the
// view-projection matrix once instead of per pixel.
type RayCaster struct {
	origin mgl32.Vec3
	inv    mgl32.Mat4
	width  float32
	height float32
}

// RayCaster prepares primary ray generation for a width x height viewport
func (c *Camera) RayCaster(width, height int) (*RayCaster, error) {
	vp := c.ViewProjection()
	det := vp.Det()
	inv := vp.Inv()
	if math32.IsNaN(det) || math32.IsInf(det, 0) || inv == (mgl32.Mat4{}) {
		return nil, fmt.Errorf("camera at %v looking at %v has a singular view-projection", c.Position, c.Target)
	}
	return &RayCaster{
		origin: c.Position,
		inv:    inv,
		width:  float32(width),
		height: float32(height),
	}, nil
}

// Ray returns the ray through the centre of pixel (px, py)
func (rc *RayCaster) Ray(px, py int) Ray {
	ndcX := 2*(float32(px)+0.5)/rc.width - 1
	ndcY := 1 - 2*(float32(py)+0.5)/rc.height

	near := rc.unproject(ndcX, ndcY, -1)
	far := rc.unproject(ndcX, ndcY, 1)
	return Ray{Origin: rc.origin, Direction: far.Sub(near).Normalize()}
}

func (rc *RayCaster) unproject(x, y, z float32) mgl32.Vec3 {
	p := rc.inv.Mul4x1(mgl32.Vec4{x, y, z, 1})
	return p.Vec3().Mul(1 / p.W())
}
