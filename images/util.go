package images

import (
	"crypto/md5"
	"fmt"
	"image"
	"image/draw"
)

// Checksum generates a deterministic checksum of the RGBA pixels of an image.
// Images with identical pixels and dimensions produce the same checksum
// regardless of their concrete type or bounds origin.
//
// Arguments:
// - img: The image to hash.
//
// Returns:
// - A hex-encoded MD5 checksum string, or "empty" for an empty image.
//
// @example
// fmt.Printf("Frame checksum: %s\n", Checksum(frame.Image))
func Checksum(img image.Image) string {
	if Empty(img) {
		return "empty"
	}

	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) || rgba.Stride != 4*b.Dx() {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	hash := md5.New()
	fmt.Fprintf(hash, "%dx%d:", b.Dx(), b.Dy())
	hash.Write(rgba.Pix)
	return fmt.Sprintf("%x", hash.Sum(nil))
}
