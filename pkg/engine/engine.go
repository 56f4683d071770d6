package engine

import (
	"context"
	"fmt"
	"time"

	"glyphcast/internal/logger"
	"glyphcast/pkg/config"
)

// Engine drives the frame loop: it advances time, renders a frame through
// the pipeline and hands it to the renderer.
type Engine struct {
	config    *config.Config
	logger    *logger.Logger
	pipeline  *Pipeline
	renderer  Renderer
	isRunning bool
	startTime time.Time
	frameRate int
	frames    int
}

// NewEngine creates a new engine instance
func NewEngine(cfg *config.Config, pipeline *Pipeline, renderer Renderer, log *logger.Logger) *Engine {
	return &Engine{
		config:    cfg,
		logger:    log.With("engine"),
		pipeline:  pipeline,
		renderer:  renderer,
		frameRate: cfg.Graphics.FrameRate,
	}
}

// Frames returns the number of frames presented so far
func (e *Engine) Frames() int {
	return e.frames
}

// Step renders and presents the frame at time t
func (e *Engine) Step(ctx context.Context, t float32) error {
	width, height := e.renderer.Resolution()
	if pw, ph := e.pipeline.Resolution(); pw != width || ph != height {
		e.pipeline.UpdateResolution(width, height)
	}

	frame, err := e.pipeline.Render(ctx, t)
	if err != nil {
		return fmt.Errorf("failed to render frame at t=%.3f: %w", t, err)
	}
	if err := e.renderer.Render(ctx, frame); err != nil {
		return fmt.Errorf("failed to present frame at t=%.3f: %w", t, err)
	}
	e.frames++
	return nil
}

// Run starts the main loop. Time starts at offset seconds. It returns when
// the renderer asks to close or ctx is cancelled.
func (e *Engine) Run(ctx context.Context, offset float32) error {
	e.isRunning = true
	e.startTime = time.Now()
	defer func() {
		e.isRunning = false
		e.logger.Infof("stopped after %d frames", e.frames)
	}()

	for e.isRunning && !e.renderer.ShouldClose() {
		if err := ctx.Err(); err != nil {
			return nil
		}
		frameStart := time.Now()
		t := offset + float32(frameStart.Sub(e.startTime).Seconds())

		if err := e.Step(ctx, t); err != nil {
			return err
		}
		e.renderer.PollEvents()

		// Cap the frame rate
		if e.frameRate > 0 {
			frameTime := time.Since(frameStart)
			targetFrameTime := time.Second / time.Duration(e.frameRate)
			if frameTime < targetFrameTime {
				select {
				case <-ctx.Done():
				case <-time.After(targetFrameTime - frameTime):
				}
			}
		}
	}
	return nil
}

// Stop ends the main loop after the current frame
func (e *Engine) Stop() {
	e.isRunning = false
}
