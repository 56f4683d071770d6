package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"glyphcast/internal/logger"
	"glyphcast/internal/shadermath"
	"glyphcast/pkg/config"
	"glyphcast/pkg/pattern"
)

const (
	ambientLight = 0.15
	shadowBias   = 1e-3
	noHit        = math32.MaxFloat32
)

// Ray represents a ray in 3D space
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// At returns the point at distance t along the ray
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// HitInfo contains information about a ray hit
type HitInfo struct {
	Distance float32
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Object   *SceneObject // nil for the ground plane or a miss
	Ground   bool
}

// Hit reports whether anything was intersected
func (h HitInfo) Hit() bool {
	return h.Distance < noHit
}

// Raytracer renders the scene colour buffer and the pattern identity buffer
type Raytracer struct {
	config config.RaytracerConfig
	log    *logger.Logger
	mutex  sync.Mutex
}

// NewRaytracer creates a new raytracer with the given configuration
func NewRaytracer(cfg config.RaytracerConfig, log *logger.Logger) (*Raytracer, error) {
	if cfg.NumThreads < 1 {
		return nil, fmt.Errorf("raytracer needs at least one thread, got %d", cfg.NumThreads)
	}
	return &Raytracer{
		config: cfg,
		log:    log.With("raytracer"),
	}, nil
}

// SetThreads changes the number of row bands traced in parallel
func (rt *Raytracer) SetThreads(n int) {
	rt.mutex.Lock()
	defer rt.mutex.Unlock()

	rt.config.NumThreads = max(n, 1)
}

func (rt *Raytracer) settings() config.RaytracerConfig {
	rt.mutex.Lock()
	defer rt.mutex.Unlock()

	return rt.config
}

// TraceScene renders the lit scene at time t into buf
func (rt *Raytracer) TraceScene(ctx context.Context, scene *Scene, cam *Camera, t float32, buf *SceneBuffer) error {
	cfg := rt.settings()
	b := buf.Bounds()
	width, height := b.Dx(), b.Dy()
	objects := placeObjects(scene.Objects, t)
	if cam.TaggedOnly {
		objects = placeObjects(scene.TaggedObjects(), t)
	}

	rays, err := cam.RayCaster(width, height)
	if err != nil {
		return err
	}

	err = forEachBand(ctx, height, cfg.NumThreads, func(y0, y1 int) error {
		for y := y0; y < y1; y++ {
			for x := 0; x < width; x++ {
				c := rt.shade(scene, objects, rays.Ray(x, y), cfg.ShadowsEnabled)
				buf.Set(b.Min.X+x, b.Min.Y+y, c)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("trace scene: %w", err)
	}
	return nil
}

// TraceIdentity renders the pattern ids of tagged objects at time t into
// tex. Pixels not covered by a tagged object keep id 0. One ray is traced
// per pixel so ids are never blended at object edges.
func (rt *Raytracer) TraceIdentity(ctx context.Context, scene *Scene, cam *Camera, t float32, tex *pattern.IdentityTexture) error {
	if err := tex.Check(); err != nil {
		return err
	}
	cfg := rt.settings()
	b := tex.Bounds()
	width, height := b.Dx(), b.Dy()
	tagged := placeObjects(scene.TaggedObjects(), t)

	tex.Clear()
	if len(tagged) == 0 {
		return nil
	}

	rays, err := cam.RayCaster(width, height)
	if err != nil {
		return err
	}

	err = forEachBand(ctx, height, cfg.NumThreads, func(y0, y1 int) error {
		for y := y0; y < y1; y++ {
			for x := 0; x < width; x++ {
				hit := nearestSphere(tagged, rays.Ray(x, y))
				if hit.Object == nil {
					continue
				}
				id, _ := hit.Object.Pattern()
				tex.Set(b.Min.X+x, b.Min.Y+y, id)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("trace identity: %w", err)
	}
	return nil
}

// placedObject is a scene object with its centre resolved for one frame
type placedObject struct {
	*SceneObject
	center mgl32.Vec3
}

func placeObjects(objs []*SceneObject, t float32) []placedObject {
	placed := make([]placedObject, len(objs))
	for i, obj := range objs {
		placed[i] = placedObject{SceneObject: obj, center: obj.CenterAt(t)}
	}
	return placed
}

// shade traces a primary ray and returns its colour
func (rt *Raytracer) shade(scene *Scene, objects []placedObject, ray Ray, shadows bool) RGB {
	hit := rt.trace(scene, objects, ray)
	if !hit.Hit() {
		return skyColor(scene, ray)
	}

	var albedo RGB
	if hit.Ground {
		albedo = groundColor(scene, hit.Position)
	} else {
		albedo = hit.Object.Color
	}

	diffuse := max(hit.Normal.Dot(scene.Light), 0)
	if shadows && diffuse > 0 {
		shadowRay := Ray{
			Origin:    hit.Position.Add(hit.Normal.Mul(shadowBias)),
			Direction: scene.Light,
		}
		if nearestSphere(objects, shadowRay).Object != nil {
			diffuse = 0
		}
	}

	lit := albedo.Scale(ambientLight + (1-ambientLight)*diffuse)

	// distance fog towards the sky colour
	fog := shadermath.Clamp(hit.Distance/60, 0, 1)
	return Mix(lit, scene.Sky, fog*fog)
}

// trace finds the nearest surface hit by the ray
func (rt *Raytracer) trace(scene *Scene, objects []placedObject, ray Ray) HitInfo {
	hit := nearestSphere(objects, ray)

	if ground := traceGround(scene, ray); ground.Distance < hit.Distance {
		hit = ground
	}
	return hit
}

func nearestSphere(objects []placedObject, ray Ray) HitInfo {
	hit := HitInfo{Distance: noHit}
	for _, obj := range objects {
		d, ok := intersectSphere(ray, obj.center, obj.Radius)
		if !ok || d >= hit.Distance {
			continue
		}
		pos := ray.At(d)
		hit = HitInfo{
			Distance: d,
			Position: pos,
			Normal:   pos.Sub(obj.center).Normalize(),
			Object:   obj.SceneObject,
		}
	}
	return hit
}

// intersectSphere returns the nearest positive distance to the sphere
func intersectSphere(ray Ray, center mgl32.Vec3, radius float32) (float32, bool) {
	oc := ray.Origin.Sub(center)
	b := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := math32.Sqrt(disc)
	t := -b - sq
	if t <= shadowBias {
		t = -b + sq
	}
	if t <= shadowBias {
		return 0, false
	}
	return t, true
}

func traceGround(scene *Scene, ray Ray) HitInfo {
	hit := HitInfo{Distance: noHit}
	if math32.Abs(ray.Direction.Y()) < 1e-4 {
		return hit
	}
	t := (scene.GroundHeight - ray.Origin.Y()) / ray.Direction.Y()
	if t <= shadowBias {
		return hit
	}
	return HitInfo{
		Distance: t,
		Position: ray.At(t),
		Normal:   mgl32.Vec3{0, 1, 0},
		Ground:   true,
	}
}

// Ground grime
const (
	GrimeSeed     = 1337
	GrimeScale    = 0.35
	GrimeOctaves  = 4
	GrimeStrength = 0.25
)

// groundColor is a two-tone checkerboard with one metre squares, darkened
// in patches by the scene's grime noise
func groundColor(scene *Scene, p mgl32.Vec3) RGB {
	c := scene.Ground
	cx := int(shadermath.Floor(p.X()))
	cz := int(shadermath.Floor(p.Z()))
	if (cx+cz)&1 != 0 {
		c = c.Scale(0.6)
	}
	if scene.Grime != nil {
		n := scene.Grime.FBM2D(p.X()*GrimeScale, p.Z()*GrimeScale, GrimeOctaves, 2, 0.5)
		c = c.Scale(1 - GrimeStrength*shadermath.Clamp(n*0.5+0.5, 0, 1))
	}
	return c
}

// skyColor darkens the sky towards the zenith
func skyColor(scene *Scene, ray Ray) RGB {
	up := shadermath.Clamp(ray.Direction.Y(), 0, 1)
	return scene.Sky.Scale(1 - 0.5*up)
}
