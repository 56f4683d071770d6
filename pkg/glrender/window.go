// Package glrender presents frames in an OpenGL window. The identity and
// compositing passes run on the GPU with shaders generated by pkg/shader.
package glrender

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"glyphcast/internal/logger"
	"glyphcast/pkg/config"
)

// Window owns the GLFW window and its OpenGL context. It must be created and
// used from the main OS thread.
type Window struct {
	window  *glfw.Window
	log     *logger.Logger
	resized bool
}

// NewWindow opens a window with an OpenGL 4.1 core context
func NewWindow(cfg config.GraphicsConfig, title string, log *logger.Logger) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %v", err)
	}

	// Set window hints
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Samples, 0)

	var monitor *glfw.Monitor
	if cfg.Fullscreen {
		monitor = glfw.GetPrimaryMonitor()
	}

	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, title, monitor, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create GLFW window: %v", err)
	}
	window.MakeContextCurrent()

	if cfg.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	if err := gl.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("failed to initialize OpenGL: %v", err)
	}

	w := &Window{window: window, log: log.With("window")}
	window.SetFramebufferSizeCallback(w.resizeCallback)

	w.log.Infof("OpenGL %s on %s", gl.GoStr(gl.GetString(gl.VERSION)), gl.GoStr(gl.GetString(gl.RENDERER)))
	return w, nil
}

func (w *Window) resizeCallback(_ *glfw.Window, width, height int) {
	w.log.Debugf("framebuffer resized to %dx%d", width, height)
	w.resized = true
}

// FramebufferSize returns the drawable size in pixels
func (w *Window) FramebufferSize() (int, int) {
	width, height := w.window.GetFramebufferSize()
	return max(width, 1), max(height, 1)
}

// PollEvents processes window events. Escape closes the window.
func (w *Window) PollEvents() {
	glfw.PollEvents()
	if w.window.GetKey(glfw.KeyEscape) == glfw.Press {
		w.window.SetShouldClose(true)
	}
}

// ShouldClose reports whether the window was asked to close
func (w *Window) ShouldClose() bool {
	return w.window.ShouldClose()
}

// SwapBuffers presents the back buffer
func (w *Window) SwapBuffers() {
	w.window.SwapBuffers()
}

// Close destroys the window and terminates GLFW. Later calls do nothing.
func (w *Window) Close() {
	if w.window == nil {
		return
	}
	w.window.Destroy()
	w.window = nil
	glfw.Terminate()
}
