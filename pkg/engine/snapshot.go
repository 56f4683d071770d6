package engine

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"

	"glyphcast/internal/logger"
)

// SnapshotRenderer writes the first frame it receives to a PNG file and then
// asks the engine to stop.
type SnapshotRenderer struct {
	path   string
	width  int
	height int
	done   bool
	log    *logger.Logger
}

// NewSnapshotRenderer creates a renderer writing to path
func NewSnapshotRenderer(path string, width, height int, log *logger.Logger) *SnapshotRenderer {
	return &SnapshotRenderer{
		path:   path,
		width:  width,
		height: height,
		log:    log.With("snapshot"),
	}
}

// Render encodes the composited frame
func (r *SnapshotRenderer) Render(_ context.Context, frame *Frame) error {
	if frame.Output == nil {
		return errors.New("snapshot: frame has no composited output")
	}

	f, err := os.Create(r.path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	if err := png.Encode(f, frame.Output); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	r.done = true
	r.log.Infof("wrote %s (%dx%d, t=%.2f)", r.path, r.width, r.height, frame.Config.Time)
	return nil
}

func (r *SnapshotRenderer) Resolution() (int, int) { return r.width, r.height }

func (r *SnapshotRenderer) PollEvents() {}

func (r *SnapshotRenderer) ShouldClose() bool { return r.done }

func (r *SnapshotRenderer) Close() {}
