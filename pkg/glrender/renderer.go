package glrender

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-gl/gl/v4.1-core/gl"

	"glyphcast/internal/logger"
	"glyphcast/pkg/engine"
	"glyphcast/pkg/pattern"
	"glyphcast/pkg/shader"
)

// Renderer runs the identity and compositing passes on the GPU and presents
// the result in a window. It implements engine.Renderer.
type Renderer struct {
	window *Window
	log    *logger.Logger

	quadVAO uint32
	quadVBO uint32

	identityProgram  uint32
	compositeProgram uint32
	identityUniforms uniforms
	compUniforms     uniforms

	sceneTexture    uint32
	identityTexture uint32
	identityFBO     uint32
	fallbackTexture uint32
	fallbackPattern pattern.ID

	width  int
	height int

	warnedObjects bool
	mutex         sync.Mutex
}

// NewRenderer builds the GPU passes for window
func NewRenderer(window *Window, log *logger.Logger) (*Renderer, error) {
	r := &Renderer{
		window:          window,
		log:             log.With("gl"),
		fallbackPattern: -1,
	}

	if err := r.initPrograms(); err != nil {
		return nil, err
	}
	r.setupScreenQuad()

	r.width, r.height = window.FramebufferSize()
	r.sceneTexture = newTexture()
	r.fallbackTexture = newTexture()
	r.identityTexture = newTexture()
	if err := r.setupIdentityTarget(); err != nil {
		r.Close()
		return nil, err
	}

	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.BLEND)
	gl.Disable(gl.MULTISAMPLE)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	return r, nil
}

func (r *Renderer) initPrograms() error {
	identitySrc, err := shader.IdentityFragment()
	if err != nil {
		return err
	}
	compositeSrc, err := shader.CompositeFragment()
	if err != nil {
		return err
	}

	if r.identityProgram, err = createShaderProgram(shader.Vertex, identitySrc); err != nil {
		return fmt.Errorf("identity program: %w", err)
	}
	if r.compositeProgram, err = createShaderProgram(shader.Vertex, compositeSrc); err != nil {
		return fmt.Errorf("composite program: %w", err)
	}

	r.identityUniforms = newUniforms(r.identityProgram,
		"invViewProj", "cameraPos", "resolution", "objectCount", "spheres", "patterns")
	r.compUniforms = newUniforms(r.compositeProgram,
		"sceneTexture", "identityTexture", "cellSize", "resolution", "monochrome",
		"perObject", "globalPattern", "time", "monoHue")
	return nil
}

// setupScreenQuad creates a full-screen quad
func (r *Renderer) setupScreenQuad() {
	vertices := []float32{
		// Positions   // Texture coords
		-1.0, -1.0, 0.0, 0.0, 1.0,
		1.0, -1.0, 0.0, 1.0, 1.0,
		1.0, 1.0, 0.0, 1.0, 0.0,
		-1.0, 1.0, 0.0, 0.0, 0.0,
	}

	gl.GenVertexArrays(1, &r.quadVAO)
	gl.GenBuffers(1, &r.quadVBO)
	gl.BindVertexArray(r.quadVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.quadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 5*4, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, 5*4, gl.PtrOffset(3*4))
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)
}

// newTexture creates a nearest-filtered, edge-clamped 2D texture
func newTexture() uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	return tex
}

// setupIdentityTarget (re)allocates the single-sample R8 identity target
func (r *Renderer) setupIdentityTarget() error {
	gl.BindTexture(gl.TEXTURE_2D, r.identityTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R8, int32(r.width), int32(r.height), 0, gl.RED, gl.UNSIGNED_BYTE, nil)

	if r.identityFBO == 0 {
		gl.GenFramebuffers(1, &r.identityFBO)
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, r.identityFBO)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, r.identityTexture, 0)
	defer gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("identity framebuffer not complete: 0x%x", status)
	}
	return nil
}

// Resolution returns the window's framebuffer size
func (r *Renderer) Resolution() (int, int) {
	return r.window.FramebufferSize()
}

// PollEvents processes window events
func (r *Renderer) PollEvents() {
	r.window.PollEvents()
}

// ShouldClose reports whether the window was closed
func (r *Renderer) ShouldClose() bool {
	return r.window.ShouldClose()
}

// Render draws one frame. frame.Scene is uploaded as is; the identity buffer
// comes from frame.Identity when the CPU produced one and from the GPU
// identity pass otherwise.
func (r *Renderer) Render(_ context.Context, frame *engine.Frame) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	cfg := frame.Config
	b := frame.Scene.Bounds()
	if b.Dx() != r.width || b.Dy() != r.height {
		r.width, r.height = b.Dx(), b.Dy()
		if err := r.setupIdentityTarget(); err != nil {
			return err
		}
	}

	img := frame.Scene.Image()
	gl.BindTexture(gl.TEXTURE_2D, r.sceneTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(r.width), int32(r.height), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))

	identity := r.fallback(cfg.GlobalPattern)
	perObject := false
	if cfg.PerObject {
		switch {
		case frame.Identity != nil:
			if err := frame.Identity.Check(); err != nil {
				return err
			}
			gl.BindTexture(gl.TEXTURE_2D, r.identityTexture)
			gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R8, int32(r.width), int32(r.height), 0, gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(frame.Identity.Pix()))
			identity, perObject = r.identityTexture, true
		default:
			if err := r.renderIdentity(frame); err != nil {
				return err
			}
			identity, perObject = r.identityTexture, true
		}
	}

	r.renderComposite(cfg, identity, perObject)
	r.window.SwapBuffers()

	if errCode := gl.GetError(); errCode != gl.NO_ERROR {
		return fmt.Errorf("OpenGL error 0x%x", errCode)
	}
	return nil
}

// fallback returns a 1x1 identity texture holding the encoded global
// pattern, bound whenever no identity buffer exists.
func (r *Renderer) fallback(id pattern.ID) uint32 {
	if id != r.fallbackPattern {
		pix := []uint8{fallbackValue(id)}
		gl.BindTexture(gl.TEXTURE_2D, r.fallbackTexture)
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R8, 1, 1, 0, gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(pix))
		r.fallbackPattern = id
	}
	return r.fallbackTexture
}

// renderIdentity runs the GPU identity pass into the R8 target
func (r *Renderer) renderIdentity(frame *engine.Frame) error {
	spheres, ids, n := packObjects(frame.Objects)
	if n < len(frame.Objects) && !r.warnedObjects {
		r.log.Warnf("identity pass traces only %d of %d tagged objects", n, len(frame.Objects))
		r.warnedObjects = true
	}

	cam, err := identityCamera(frame, r.width, r.height)
	if err != nil {
		return err
	}
	inv := cam.ViewProjection().Inv()

	gl.BindFramebuffer(gl.FRAMEBUFFER, r.identityFBO)
	defer gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	gl.Viewport(0, 0, int32(r.width), int32(r.height))
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	u := r.identityUniforms
	gl.UseProgram(r.identityProgram)
	gl.UniformMatrix4fv(u.get("invViewProj"), 1, false, &inv[0])
	gl.Uniform3f(u.get("cameraPos"), cam.Position.X(), cam.Position.Y(), cam.Position.Z())
	gl.Uniform2f(u.get("resolution"), float32(r.width), float32(r.height))
	gl.Uniform1i(u.get("objectCount"), int32(n))
	if n > 0 {
		gl.Uniform4fv(u.get("spheres"), int32(n), &spheres[0])
		gl.Uniform1iv(u.get("patterns"), int32(n), &ids[0])
	}

	gl.BindVertexArray(r.quadVAO)
	gl.DrawArrays(gl.TRIANGLE_FAN, 0, 4)
	gl.BindVertexArray(0)
	return nil
}

// renderComposite draws the glyph image to the window
func (r *Renderer) renderComposite(cfg engine.FrameConfig, identity uint32, perObject bool) {
	gl.Viewport(0, 0, int32(r.width), int32(r.height))
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	u := r.compUniforms
	gl.UseProgram(r.compositeProgram)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, r.sceneTexture)
	gl.Uniform1i(u.get("sceneTexture"), 0)

	gl.ActiveTexture(gl.TEXTURE1)
	gl.BindTexture(gl.TEXTURE_2D, identity)
	gl.Uniform1i(u.get("identityTexture"), 1)

	gl.Uniform2f(u.get("cellSize"), cfg.CellSize.X, cfg.CellSize.Y)
	gl.Uniform2f(u.get("resolution"), cfg.Resolution.X, cfg.Resolution.Y)
	gl.Uniform1i(u.get("monochrome"), boolToInt(cfg.Monochrome))
	gl.Uniform1i(u.get("perObject"), boolToInt(perObject))
	gl.Uniform1i(u.get("globalPattern"), int32(cfg.GlobalPattern))
	gl.Uniform1f(u.get("time"), cfg.Time)
	gl.Uniform3f(u.get("monoHue"), cfg.MonoHue.R, cfg.MonoHue.G, cfg.MonoHue.B)

	gl.BindVertexArray(r.quadVAO)
	gl.DrawArrays(gl.TRIANGLE_FAN, 0, 4)
	gl.BindVertexArray(0)

	gl.ActiveTexture(gl.TEXTURE0)
}

// Close releases GPU resources and the window
func (r *Renderer) Close() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	textures := []uint32{r.sceneTexture, r.identityTexture, r.fallbackTexture}
	gl.DeleteTextures(int32(len(textures)), &textures[0])
	if r.identityFBO != 0 {
		gl.DeleteFramebuffers(1, &r.identityFBO)
	}
	gl.DeleteBuffers(1, &r.quadVBO)
	gl.DeleteVertexArrays(1, &r.quadVAO)
	gl.DeleteProgram(r.identityProgram)
	gl.DeleteProgram(r.compositeProgram)
	r.window.Close()
}

// identityCamera returns the camera of the GPU identity pass after checking
// it against the scene camera and the identity target size.
func identityCamera(frame *engine.Frame, width, height int) (engine.Camera, error) {
	cam := frame.IdentityCamera
	if err := engine.MatchProjection(&frame.Camera, &cam); err != nil {
		return cam, err
	}
	if _, err := cam.RayCaster(width, height); err != nil {
		return cam, err
	}
	return cam, nil
}

// packObjects flattens the tagged objects into the identity shader's uniform
// arrays, keeping at most shader.MaxObjects of them.
func packObjects(objects []engine.ObjectSnapshot) (spheres []float32, ids []int32, n int) {
	n = min(len(objects), shader.MaxObjects)
	spheres = make([]float32, 0, 4*n)
	ids = make([]int32, 0, n)
	for _, obj := range objects[:n] {
		spheres = append(spheres, obj.Center.X(), obj.Center.Y(), obj.Center.Z(), obj.Radius)
		ids = append(ids, int32(obj.Pattern.Clamp()))
	}
	return spheres, ids, n
}

// fallbackValue is the R8 byte encoding pattern id
func fallbackValue(id pattern.ID) uint8 {
	tex := pattern.NewIdentityTexture(1, 1)
	tex.Set(0, 0, id)
	return tex.Pix()[0]
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
