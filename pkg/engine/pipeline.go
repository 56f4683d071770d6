package engine

import (
	"context"
	"fmt"
	"image"
	"sync"

	"glyphcast/internal/logger"
	"glyphcast/pkg/config"
	"glyphcast/pkg/pattern"
)

// Frame is everything one pipeline run produced
type Frame struct {
	Config   FrameConfig
	Scene    *SceneBuffer
	Identity *pattern.IdentityTexture // nil when per-object mode is off
	Objects  []ObjectSnapshot
	Camera   Camera

	// IdentityCamera renders the identity pass. Its projection must match
	// Camera's or identities land on the wrong cells.
	IdentityCamera Camera

	// Filled by the compositing pass when the CPU compositor runs
	Cells  *CellGrid
	Output *image.RGBA
}

// Options select which passes the pipeline runs on the CPU
type Options struct {
	// SceneOnly skips the identity and compositing passes, for presenters
	// that run them on the GPU from Frame.Objects.
	SceneOnly bool
}

// Pipeline renders frames: the scene and identity passes, then compositing
type Pipeline struct {
	cfg        *config.Config
	opts       Options
	scene      *Scene
	camera     *Camera
	identity   *Camera
	tracer     *Raytracer
	compositor *Compositor
	log        *logger.Logger

	width  int
	height int
	mutex  sync.Mutex
}

// NewPipeline builds the scene, camera and passes described by cfg
func NewPipeline(cfg *config.Config, opts Options, log *logger.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	scene, err := NewSceneFromConfig(cfg.Scene)
	if err != nil {
		return nil, fmt.Errorf("failed to build scene: %w", err)
	}

	tracer, err := NewRaytracer(cfg.Raytracer, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create raytracer: %w", err)
	}

	width, height := cfg.Graphics.Width, cfg.Graphics.Height
	camera := NewCamera(cfg.Scene.Camera, cfg.Raytracer.FOV, width, height)
	p := &Pipeline{
		cfg:        cfg,
		opts:       opts,
		scene:      scene,
		camera:     camera,
		identity:   camera.IdentityCamera(),
		tracer:     tracer,
		compositor: NewCompositor(cfg.Raytracer.NumThreads, log),
		log:        log.With("pipeline"),
		width:      width,
		height:     height,
	}

	p.log.Infof("scene has %d objects, %d tagged", len(scene.Objects), len(scene.TaggedObjects()))
	return p, nil
}

// Scene returns the scene being rendered
func (p *Pipeline) Scene() *Scene {
	return p.scene
}

// Compositor returns the CPU compositor
func (p *Pipeline) Compositor() *Compositor {
	return p.compositor
}

// UpdateResolution changes the output size of later frames
func (p *Pipeline) UpdateResolution(width, height int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.width = width
	p.height = height
	p.camera.SetAspect(width, height)
	p.identity.SetAspect(width, height)
	p.log.Debugf("resolution changed to %dx%d", width, height)
}

// Resolution returns the current output size
func (p *Pipeline) Resolution() (int, int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.width, p.height
}

// Render produces the frame at time t
func (p *Pipeline) Render(ctx context.Context, t float32) (*Frame, error) {
	p.mutex.Lock()
	width, height := p.width, p.height
	cam := *p.camera
	identCam := *p.identity
	p.mutex.Unlock()

	fc, err := NewFrameConfig(p.cfg, width, height, t)
	if err != nil {
		return nil, err
	}

	frame := &Frame{
		Config:  fc,
		Scene:   NewSceneBuffer(width, height),
		Objects:        p.scene.Snapshot(t),
		Camera:         cam,
		IdentityCamera: identCam,
	}

	graph := NewFrameGraph(p.log)
	graph.Add(Pass{
		Name:  "scene",
		Order: OrderProduce,
		Run: func(ctx context.Context) error {
			return p.tracer.TraceScene(ctx, p.scene, &cam, t, frame.Scene)
		},
	})

	if fc.PerObject {
		if err := MatchProjection(&cam, &identCam); err != nil {
			return nil, err
		}
	}
	if fc.PerObject && !p.opts.SceneOnly {
		frame.Identity = pattern.NewIdentityTexture(width, height)
		graph.Add(Pass{
			Name:  "identity",
			Order: OrderProduce,
			Run: func(ctx context.Context) error {
				return p.tracer.TraceIdentity(ctx, p.scene, &identCam, t, frame.Identity)
			},
		})
	}

	if !p.opts.SceneOnly {
		graph.Add(Pass{
			Name:  "composite",
			Order: OrderComposite,
			Run: func(ctx context.Context) error {
				return p.composite(ctx, frame)
			},
		})
	}

	if err := graph.Execute(ctx); err != nil {
		return nil, err
	}
	return frame, nil
}

// CompositeImage runs only the compositing stage over an existing image,
// resampled to the current resolution. There is no identity pass, so the
// global pattern is used.
func (p *Pipeline) CompositeImage(ctx context.Context, src image.Image, t float32) (*Frame, error) {
	width, height := p.Resolution()

	fc, err := NewFrameConfig(p.cfg, width, height, t)
	if err != nil {
		return nil, err
	}
	frame := &Frame{
		Config: fc,
		Scene:  SceneBufferFromImage(src, width, height),
	}
	if err := p.composite(ctx, frame); err != nil {
		return nil, err
	}
	return frame, nil
}

func (p *Pipeline) composite(ctx context.Context, frame *Frame) error {
	cells, err := p.compositor.Cells(ctx, frame.Scene, frame.Identity, frame.Config)
	if err != nil {
		return err
	}
	out, err := p.compositor.Draw(ctx, cells, frame.Config)
	if err != nil {
		return err
	}
	frame.Cells = cells
	frame.Output = out
	return nil
}
