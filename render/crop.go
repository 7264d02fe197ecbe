package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/nvr-ai/go-autoframe/viewport"
)

// ViewportRect returns the viewport rectangle centered on pos. The rectangle
// is not clipped to the frame.
//
// @example
// r := render.ViewportRect(viewport.Position{X: 320, Y: 240}, 200, 150) // (220,165)-(420,315)
func ViewportRect(pos viewport.Position, width, height int) image.Rectangle {
	left, top := pos.X-width/2, pos.Y-height/2
	return image.Rect(left, top, left+width, top+height)
}

// CropViewport extracts the viewport centered on pos as a width x height
// image.
//
// The top-left corner is moved inside the frame first, then the crop is cut
// at the right and bottom frame edges. Whatever the frame cannot cover is
// padded with opaque black on the right and bottom.
//
// Arguments:
// - img: The source frame.
// - pos: The viewport center.
// - width: The viewport width.
// - height: The viewport height.
//
// Returns:
// - *image.RGBA: The crop, with bounds (0,0)-(width,height).
func CropViewport(img image.Image, pos viewport.Position, width, height int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	if img == nil || out.Bounds().Empty() {
		return out
	}

	b := img.Bounds()
	r := ViewportRect(pos, width, height)
	left, top := max(b.Min.X, r.Min.X), max(b.Min.Y, r.Min.Y)
	src := image.Rect(left, top, min(b.Max.X, left+width), min(b.Max.Y, top+height))
	if src.Empty() {
		return out
	}

	draw.Draw(out, image.Rect(0, 0, src.Dx(), src.Dy()), img, src.Min, draw.Src)
	return out
}
