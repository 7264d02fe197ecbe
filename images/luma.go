package images

import (
	"image"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LumaWeights are the per-channel weights of a perceptual luma formula. They
// sum to 1 so an 8-bit white pixel maps to 1.0.
type LumaWeights struct {
	Name    string
	R, G, B float64
}

var (
	// LumaBT601 is the ITU-R BT.601 weighted sum.
	LumaBT601 = LumaWeights{Name: "bt601", R: 0.299, G: 0.587, B: 0.114}
	// LumaBT709 uses the Rec. 709 primaries as scikit-image's rgb2gray does.
	LumaBT709 = LumaWeights{Name: "bt709", R: 0.2125, G: 0.7154, B: 0.0721}
)

// ErrUnknownLuma is returned by ParseLuma for unsupported names.
var ErrUnknownLuma = errors.New("unknown luma formula")

// ParseLuma looks up a luma formula by name ("bt709" or "bt601"). An empty
// name selects BT.709.
func ParseLuma(name string) (LumaWeights, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "bt709", "bt.709", "rec709":
		return LumaBT709, nil
	case "bt601", "bt.601", "rec601":
		return LumaBT601, nil
	default:
		return LumaWeights{}, errors.Wrapf(ErrUnknownLuma, "%q", name)
	}
}

// Luma converts an image to a grayscale field with values in [0, 1].
//
// The field has one row per image row and one column per image column,
// relative to the image bounds. Each value is (wR*R + wG*G + wB*B) / 255 on the
// 8-bit channel values.
//
// Arguments:
// - img: The source image. Must not be empty.
// - w: The luma weights.
//
// Returns:
// - A new *mat.Dense of size height x width, or nil for an empty image.
//
// @example
// field := Luma(frame.Image, LumaBT601)
// rows, cols := field.Dims()
func Luma(img image.Image, w LumaWeights) *mat.Dense {
	if Empty(img) {
		return nil
	}

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	data := make([]float64, width*height)

	wr, wg, wb := w.R/255.0, w.G/255.0, w.B/255.0

	switch src := img.(type) {
	case *image.RGBA:
		for y := 0; y < height; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			row := data[y*width : (y+1)*width]
			for x := range row {
				p := src.Pix[off+x*4 : off+x*4+3 : off+x*4+3]
				row[x] = wr*float64(p[0]) + wg*float64(p[1]) + wb*float64(p[2])
			}
		}
	case *image.NRGBA:
		for y := 0; y < height; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			row := data[y*width : (y+1)*width]
			for x := range row {
				p := src.Pix[off+x*4 : off+x*4+3 : off+x*4+3]
				row[x] = wr*float64(p[0]) + wg*float64(p[1]) + wb*float64(p[2])
			}
		}
	default:
		// RGBA() returns 16-bit channels; the detector works on 8-bit samples.
		for y := 0; y < height; y++ {
			row := data[y*width : (y+1)*width]
			for x := range row {
				r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				row[x] = wr*float64(r>>8) + wg*float64(g>>8) + wb*float64(bl>>8)
			}
		}
	}

	return mat.NewDense(height, width, data)
}

// AbsDiff returns |a - b| element-wise. Both fields must have the same shape.
func AbsDiff(a, b *mat.Dense) (*mat.Dense, error) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return nil, errors.Errorf("field shapes differ: %dx%d vs %dx%d", ac, ar, bc, br)
	}

	var diff mat.Dense
	diff.Sub(a, b)
	diff.Apply(func(_, _ int, v float64) float64 {
		if v < 0 {
			return -v
		}
		return v
	}, &diff)

	return &diff, nil
}
