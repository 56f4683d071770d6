package engine

import "context"

// Renderer defines the interface for all presenters
type Renderer interface {
	// Render presents a finished frame
	Render(ctx context.Context, frame *Frame) error

	// Resolution returns the pixel size frames should be rendered at
	Resolution() (width, height int)

	// PollEvents processes pending input and window events
	PollEvents()

	// ShouldClose reports whether the user asked to quit
	ShouldClose() bool

	// Close releases resources
	Close()
}
