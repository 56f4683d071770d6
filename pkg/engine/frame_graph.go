package engine

import (
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"glyphcast/internal/logger"
)

// Pass orders used by the pipeline
const (
	OrderProduce   = -1 // scene colour and pattern identity
	OrderComposite = 0
	OrderPresent   = 1
)

// Pass is one step of a frame. Passes with a lower Order finish before any
// pass with a higher Order starts; passes sharing an Order run concurrently.
type Pass struct {
	Name  string
	Order int
	Run   func(ctx context.Context) error
}

// FrameGraph runs the passes of a frame in order
type FrameGraph struct {
	passes []Pass
	log    *logger.Logger
}

// NewFrameGraph creates an empty frame graph
func NewFrameGraph(log *logger.Logger) *FrameGraph {
	return &FrameGraph{log: log.With("frame")}
}

// Add registers a pass
func (g *FrameGraph) Add(p Pass) {
	g.passes = append(g.passes, p)
}

// Passes returns the registered passes in execution order
func (g *FrameGraph) Passes() []Pass {
	sorted := slices.Clone(g.passes)
	slices.SortStableFunc(sorted, func(a, b Pass) int {
		return a.Order - b.Order
	})
	return sorted
}

// Execute runs every pass. The first failing pass cancels the others in its
// group and stops the frame.
func (g *FrameGraph) Execute(ctx context.Context) error {
	sorted := g.Passes()

	for start := 0; start < len(sorted); {
		end := start + 1
		for end < len(sorted) && sorted[end].Order == sorted[start].Order {
			end++
		}

		eg, gctx := errgroup.WithContext(ctx)
		for _, p := range sorted[start:end] {
			p := p
			eg.Go(func() error {
				began := time.Now()
				if err := p.Run(gctx); err != nil {
					return fmt.Errorf("pass %s: %w", p.Name, err)
				}
				g.log.Debugf("pass %s took %v", p.Name, time.Since(began))
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return err
		}
		start = end
	}
	return nil
}
