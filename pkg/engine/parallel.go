package engine

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// forEachBand splits rows [0, height) into at most workers contiguous bands
// and runs fn on each band concurrently. The last band takes the remainder.
// Bands that have not started when ctx is cancelled are skipped.
func forEachBand(ctx context.Context, height, workers int, fn func(y0, y1 int) error) error {
	if height <= 0 {
		return nil
	}
	workers = min(max(workers, 1), height)
	rowsPerBand := height / workers

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for w := 0; w < workers; w++ {
		startRow := w * rowsPerBand
		endRow := startRow + rowsPerBand
		if w == workers-1 {
			endRow = height
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(startRow, endRow)
		})
	}

	return g.Wait()
}
