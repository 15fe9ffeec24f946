package pipeline

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	frameio "garment-ironing/internal/io"
)

// FrameFunc processes one frame and returns its result
type FrameFunc func(ctx context.Context, ref frameio.FrameRef) (interface{}, error)

// BatchResult is the outcome of one frame of a batch
type BatchResult struct {
	Frame  string
	Result interface{}
	Err    error
}

// ProcessBatch runs fn over refs with at most workers frames in flight.
// A failing frame records its error and never stops its siblings.
// Cancelling ctx stops scheduling; unscheduled frames carry ctx.Err().
// Results keep the order of refs.
func ProcessBatch(ctx context.Context, logger logrus.FieldLogger, refs []frameio.FrameRef, workers int, fn FrameFunc) ([]BatchResult, error) {
	if workers < 1 {
		workers = 1
	}

	results := make([]BatchResult, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, ref := range refs {
		results[i].Frame = ref.Name
		if err := gctx.Err(); err != nil {
			results[i].Err = err
			continue
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			res, err := fn(gctx, ref)
			results[i].Result = res
			results[i].Err = err
			if err != nil {
				logger.WithFields(logrus.Fields{"frame": ref.Name}).WithError(err).Warn("Frame failed")
			}
			return nil
		})
	}

	// workers never return errors, so Wait only reports ctx state
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	logger.WithFields(logrus.Fields{
		"frames": len(refs),
		"failed": failed,
	}).Info("Batch complete")

	return results, ctx.Err()
}
