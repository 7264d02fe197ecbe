package source

import (
	"context"
	"io"
	"sync"

	"github.com/nvr-ai/go-autoframe/images"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Video samples frames from a video file with OpenCV.
type Video struct {
	mu       sync.Mutex
	capture  *gocv.VideoCapture
	mat      gocv.Mat
	opts     Options
	interval int
	fps      float64
	read     int
	emitted  int
	closed   bool
}

// OpenVideo opens a video file and samples it at opts.TargetFPS.
//
// Every SampleInterval(videoFPS, TargetFPS)-th frame is emitted, converted
// from BGR to an image.Image and scaled to opts.Size.
//
// Arguments:
// - path: The video file.
// - opts: Sampling rate and working size.
//
// Returns:
// - *Video: The source. Close must be called to release the capture.
// - error: If OpenCV cannot open the file.
//
// @example
// src, err := source.OpenVideo("clip.mp4", source.DefaultOptions())
//
//	if err != nil {
//	    return err
//	}
//
// defer src.Close()
func OpenVideo(path string, opts Options) (*Video, error) {
	capture, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open video %s", path)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, errors.Errorf("open video %s: capture not opened", path)
	}

	videoFPS := capture.Get(gocv.VideoCaptureFPS)
	interval := SampleInterval(videoFPS, opts.TargetFPS)

	fps := opts.TargetFPS
	if videoFPS > 0 {
		fps = videoFPS / float64(interval)
	}

	return &Video{
		capture:  capture,
		mat:      gocv.NewMat(),
		opts:     opts,
		interval: interval,
		fps:      fps,
	}, nil
}

// Interval returns the number of decoded frames per emitted frame.
func (v *Video) Interval() int {
	return v.interval
}

// Next implements Source.
func (v *Video) Next(ctx context.Context) (images.Frame, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return images.Frame{}, ErrClosed
	}

	for {
		if err := ctx.Err(); err != nil {
			return images.Frame{}, err
		}
		if ok := v.capture.Read(&v.mat); !ok || v.mat.Empty() {
			return images.Frame{}, io.EOF
		}

		n := v.read
		v.read++
		if n%v.interval != 0 {
			continue
		}

		img, err := v.mat.ToImage()
		if err != nil {
			return images.Frame{}, errors.Wrapf(err, "convert frame %d", n)
		}

		f := images.Frame{
			Index:  v.emitted,
			Image:  images.Resize(img, v.opts.Size),
			Offset: offset(v.emitted, v.fps),
		}
		v.emitted++
		return f, nil
	}
}

// FrameRate implements Source.
func (v *Video) FrameRate() float64 {
	return v.fps
}

// Close implements Source.
func (v *Video) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil
	}
	v.closed = true

	if err := v.mat.Close(); err != nil {
		v.capture.Close()
		return errors.Wrap(err, "close frame buffer")
	}
	return errors.Wrap(v.capture.Close(), "close capture")
}
