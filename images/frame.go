// Package images - Frame, grayscale field, mask and connected component
// primitives used by the motion detector.
package images

import (
	"image"
	"time"
)

// Frame is a single decoded video frame. The image is owned by the frame
// source; consumers only read it.
type Frame struct {
	// Index is the zero-based position of the frame in its sequence.
	Index int
	// Image holds the RGB pixels.
	Image image.Image
	// Offset is the presentation time of the frame relative to the start of
	// the sequence.
	Offset time.Duration
}

// Size returns the frame dimensions, or the zero point for a nil image.
func (f Frame) Size() image.Point {
	if f.Image == nil {
		return image.Point{}
	}
	return f.Image.Bounds().Size()
}

// Empty reports whether the frame has no pixels.
func Empty(img image.Image) bool {
	if img == nil {
		return true
	}
	return img.Bounds().Empty()
}
