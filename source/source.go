// Package source - Frame sources feeding the motion pipeline: sampled video
// files, numbered image directories and in-memory sequences.
package source

import (
	"context"
	"image"
	"io"
	"math"

	"github.com/nvr-ai/go-autoframe/images"
	"github.com/pkg/errors"
)

var (
	// ErrFrameSizeChanged is returned by ReadAll when a frame differs in size
	// from the first frame of the sequence.
	ErrFrameSizeChanged = errors.New("frame size changed within sequence")
	// ErrClosed is returned by Next after Close.
	ErrClosed = errors.New("source closed")
)

// Source produces an ordered, finite sequence of decoded frames.
type Source interface {
	// Next returns the next frame, or io.EOF after the last one.
	Next(ctx context.Context) (images.Frame, error)
	// FrameRate returns the nominal rate of the emitted frames in frames per
	// second.
	FrameRate() float64
	// Close releases the underlying resources.
	Close() error
}

// Options configures file-backed sources.
type Options struct {
	// TargetFPS is the desired sampling rate. A video is sampled every
	// SampleInterval(videoFPS, TargetFPS) frames. Image directories are
	// assumed to be sampled at this rate already.
	TargetFPS float64
	// Size is the working frame size. A zero value keeps the decoded size.
	Size image.Point
}

// DefaultOptions samples at 5 fps and scales frames to HD 720p.
func DefaultOptions() Options {
	res, _ := images.LookupResolution(string(images.DefaultResolution))
	return Options{TargetFPS: 5, Size: res.Size()}
}

// SampleInterval returns how many source frames to advance per emitted frame:
// max(1, int(videoFPS/targetFPS)).
//
// @example
// SampleInterval(30, 5) // 6
func SampleInterval(videoFPS, targetFPS float64) int {
	if targetFPS <= 0 || videoFPS <= 0 || math.IsNaN(videoFPS) || math.IsInf(videoFPS, 0) {
		return 1
	}
	return max(1, int(videoFPS/targetFPS))
}

// ReadAll drains src into memory.
//
// Arguments:
// - ctx: Cancels the read between frames.
// - src: The source to drain. It is not closed.
// - limit: The maximum number of frames to read; <= 0 reads everything.
//
// Returns:
// - []images.Frame: The frames in order.
// - error: ErrFrameSizeChanged, a context error or the source error.
//
// @example
// frames, err := source.ReadAll(ctx, src, 0)
func ReadAll(ctx context.Context, src Source, limit int) ([]images.Frame, error) {
	var (
		frames []images.Frame
		size   image.Point
	)

	for limit <= 0 || len(frames) < limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read frame %d", len(frames))
		}

		if len(frames) == 0 {
			size = f.Size()
		} else if f.Size() != size {
			return nil, errors.Wrapf(ErrFrameSizeChanged, "frame %d is %v, expected %v", f.Index, f.Size(), size)
		}
		frames = append(frames, f)
	}

	return frames, nil
}
