package engine

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"glyphcast/pkg/config"
)

func testCamera(width, height int) *Camera {
	return NewCamera(config.CameraConfig{
		Position: [3]float32{0, 0, -5},
		Target:   [3]float32{0, 0, 0},
	}, 60, width, height)
}

func TestIdentityCameraSharesProjection(t *testing.T) {
	cam := testCamera(1280, 720)
	ident := cam.IdentityCamera()

	if !ident.TaggedOnly {
		t.Error("identity camera should only see tagged objects")
	}
	if cam.TaggedOnly {
		t.Error("IdentityCamera modified the main camera")
	}
	if err := MatchProjection(cam, ident); err != nil {
		t.Errorf("MatchProjection: %v", err)
	}
	if !cam.ViewProjection().ApproxEqual(ident.ViewProjection()) {
		t.Error("identity camera view-projection differs from the main camera")
	}
}

func TestMatchProjectionRejectsDifferences(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Camera)
	}{
		{"fov", func(c *Camera) { c.Projection.FOVY = 90 }},
		{"aspect", func(c *Camera) { c.SetAspect(800, 800) }},
		{"near", func(c *Camera) { c.Projection.Near = 0.5 }},
		{"position", func(c *Camera) { c.Position = mgl32.Vec3{1, 0, -5} }},
		{"target", func(c *Camera) { c.Target = mgl32.Vec3{0, 1, 0} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := testCamera(1280, 720)
			ident := cam.IdentityCamera()
			tt.modify(ident)
			if err := MatchProjection(cam, ident); !errors.Is(err, ErrProjectionMismatch) {
				t.Errorf("MatchProjection error = %v, want %v", err, ErrProjectionMismatch)
			}
		})
	}
}

func TestCameraRayThroughCentre(t *testing.T) {
	cam := testCamera(5, 5)
	origin, dir, err := cam.Ray(2, 2, 5, 5)
	if err != nil {
		t.Fatalf("Ray: %v", err)
	}
	if !origin.ApproxEqual(cam.Position) {
		t.Errorf("origin = %v, want %v", origin, cam.Position)
	}
	if want := (mgl32.Vec3{0, 0, 1}); !dir.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("direction = %v, want %v", dir, want)
	}
}

func TestCameraRayTopRowLooksUp(t *testing.T) {
	cam := testCamera(64, 48)
	_, top, err := cam.Ray(32, 0, 64, 48)
	if err != nil {
		t.Fatalf("Ray: %v", err)
	}
	_, bottom, err := cam.Ray(32, 47, 64, 48)
	if err != nil {
		t.Fatalf("Ray: %v", err)
	}
	if top.Y() <= 0 || bottom.Y() >= 0 {
		t.Errorf("top ray %v should point up and bottom ray %v down", top, bottom)
	}
}

func TestRayCasterMatchesUnProject(t *testing.T) {
	cam := NewCamera(config.DefaultConfig().Scene.Camera, 60, 64, 36)
	rays, err := cam.RayCaster(64, 36)
	if err != nil {
		t.Fatalf("RayCaster: %v", err)
	}
	for _, p := range [][2]int{{0, 0}, {63, 0}, {31, 17}, {10, 35}} {
		_, want, err := cam.Ray(p[0], p[1], 64, 36)
		if err != nil {
			t.Fatalf("Ray: %v", err)
		}
		got := rays.Ray(p[0], p[1])
		if !got.Direction.ApproxEqualThreshold(want, 1e-4) {
			t.Errorf("RayCaster.Ray(%d, %d) = %v, want %v", p[0], p[1], got.Direction, want)
		}
	}
}

func TestRayCasterSingularCamera(t *testing.T) {
	cam := testCamera(8, 8)
	cam.Target = cam.Position
	if _, err := cam.RayCaster(8, 8); err == nil {
		t.Error("RayCaster with target at the eye should fail")
	}
}
