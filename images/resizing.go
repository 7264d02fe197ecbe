package images

import (
	"image"

	"github.com/nfnt/resize"
)

// Resize scales img to size with Lanczos3 resampling.
//
// Arguments:
// - img: The source image.
// - size: The target size. A zero or negative dimension, or a size equal to
// the current one, returns img unchanged.
//
// Returns:
// - The resized image.
//
// @example
// hd := Resize(frame, image.Pt(1280, 720))
func Resize(img image.Image, size image.Point) image.Image {
	if Empty(img) || size.X <= 0 || size.Y <= 0 || img.Bounds().Size() == size {
		return img
	}
	return resize.Resize(uint(size.X), uint(size.Y), img, resize.Lanczos3)
}
