package source

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/nvr-ai/go-autoframe/images"
	"github.com/nvr-ai/go-autoframe/util"
	"github.com/pkg/errors"
)

// Directory serves the numbered images of a directory in frame order.
type Directory struct {
	mu     sync.Mutex
	files  []util.ImageFile
	opts   Options
	next   int
	closed bool
}

// OpenDirectory lists dir and prepares its images for decoding.
//
// Arguments:
// - dir: A directory of images named with a trailing frame number, such as
// frame_0001.png.
// - opts: Sampling rate and working size.
//
// Returns:
// - *Directory: The source.
// - error: If the directory cannot be read or holds no images.
//
// @example
// src, err := source.OpenDirectory("output/frames", source.DefaultOptions())
func OpenDirectory(dir string, opts Options) (*Directory, error) {
	files, err := util.LoadDirectoryImageFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Errorf("no frames in %s", dir)
	}
	return &Directory{files: files, opts: opts}, nil
}

// Len returns the number of image files found.
func (d *Directory) Len() int {
	return len(d.files)
}

// Next implements Source.
func (d *Directory) Next(ctx context.Context) (images.Frame, error) {
	if err := ctx.Err(); err != nil {
		return images.Frame{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return images.Frame{}, ErrClosed
	}
	if d.next >= len(d.files) {
		return images.Frame{}, io.EOF
	}

	file := d.files[d.next]
	img, err := images.Decode(bytes.NewReader(file.Data))
	if err != nil {
		return images.Frame{}, errors.Wrap(err, file.Path)
	}

	f := images.Frame{
		Index:  d.next,
		Image:  images.Resize(img, d.opts.Size),
		Offset: offset(d.next, d.opts.TargetFPS),
	}
	d.next++
	return f, nil
}

// FrameRate implements Source.
func (d *Directory) FrameRate() float64 {
	return d.opts.TargetFPS
}

// Close implements Source.
func (d *Directory) Close() error {
	d.mu.Lock()
	d.closed = true
	d.files = nil
	d.mu.Unlock()
	return nil
}
