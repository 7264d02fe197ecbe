package motion

import (
	"context"
	"image"
	"runtime"

	"github.com/nvr-ai/go-autoframe/common"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// DetectSequence runs the detector over every consecutive pair of frames.
//
// Slot 0 is always empty because the first frame has no predecessor. Slot i
// holds the boxes for the pair (i-1, i). Pairs are processed concurrently by
// at most workers goroutines, each writing only its own slot, so the result
// does not depend on the worker count. The first failure cancels the
// remaining work.
//
// Arguments:
// - ctx: Cancels outstanding work.
// - frames: The ordered frame sequence.
// - cfg: The detector configuration.
// - workers: Maximum concurrent detections; <= 0 selects runtime.NumCPU().
//
// Returns:
// - [][]common.BoundingBox: One box set per frame.
// - error: A config error, or the first detection failure with its frame index.
//
// @example
// boxes, err := motion.DetectSequence(ctx, frames, motion.DefaultConfig(), 4)
func DetectSequence(ctx context.Context, frames []image.Image, cfg Config, workers int) ([][]common.BoundingBox, error) {
	det, err := NewDetector(cfg)
	if err != nil {
		return nil, err
	}
	return det.DetectSequence(ctx, frames, workers)
}

// DetectSequence is the method form of the package level DetectSequence.
func (d *Detector) DetectSequence(ctx context.Context, frames []image.Image, workers int) ([][]common.BoundingBox, error) {
	out := make([][]common.BoundingBox, len(frames))
	if len(frames) == 0 {
		return out, nil
	}
	out[0] = []common.BoundingBox{}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 1; i < len(frames); i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			boxes, err := d.Detect(frames[i-1], frames[i])
			if err != nil {
				return errors.Wrapf(err, "frame %d", i)
			}
			out[i] = boxes
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
