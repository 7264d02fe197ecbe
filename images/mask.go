package images

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"
)

// Mask is a binary image stored row-major. Pix[y*Width+x] is true for set
// ("changed") pixels.
type Mask struct {
	Width  int
	Height int
	Pix    []bool
}

// NewMask allocates an empty mask.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Pix: make([]bool, width*height)}
}

// At reports whether (x, y) is set. Coordinates outside the mask are unset.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x]
}

// Set sets or clears (x, y). Out of range coordinates are ignored.
func (m *Mask) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Pix[y*m.Width+x] = v
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// Threshold binarises a field: a pixel is set iff its value is strictly
// greater than t.
//
// Arguments:
// - field: The field to binarise, typically an absolute difference.
// - t: The cutoff.
//
// Returns:
// - A new mask with the field's shape.
func Threshold(field *mat.Dense, t float64) *Mask {
	rows, cols := field.Dims()
	m := NewMask(cols, rows)

	raw := field.RawMatrix()
	for y := 0; y < rows; y++ {
		row := raw.Data[y*raw.Stride : y*raw.Stride+cols]
		out := m.Pix[y*cols : (y+1)*cols]
		for x, v := range row {
			out[x] = v > t
		}
	}

	return m
}

// Disk returns the offsets of a disk-shaped structuring element: every
// (dx, dy) with dx*dx + dy*dy <= radius*radius. A radius of 0 is the single
// center pixel.
func Disk(radius int) []image.Point {
	if radius < 0 {
		radius = 0
	}
	r2 := radius * radius
	offsets := make([]image.Point, 0, (2*radius+1)*(2*radius+1))
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= r2 {
				offsets = append(offsets, image.Pt(dx, dy))
			}
		}
	}
	return offsets
}

// DiskKernel builds the structuring element of Disk(radius) as a square
// 8-bit Mat with ones inside the disk. The caller owns the returned Mat.
//
// Arguments:
// - radius: The disk radius in pixels; negative values mean 0.
//
// Returns:
// - gocv.Mat: A (2r+1)x(2r+1) CV_8UC1 kernel.
// - error: If the Mat buffer cannot be accessed.
//
// @example
// kernel, err := DiskKernel(3)
// defer kernel.Close()
func DiskKernel(radius int) (gocv.Mat, error) {
	radius = max(radius, 0)
	size := 2*radius + 1

	kernel := gocv.NewMatWithSize(size, size, gocv.MatTypeCV8UC1)
	data, err := kernel.DataPtrUint8()
	if err != nil {
		kernel.Close()
		return gocv.NewMat(), errors.Wrap(err, "disk kernel")
	}

	clear(data)
	for _, o := range Disk(radius) {
		data[(o.Y+radius)*size+o.X+radius] = 1
	}
	return kernel, nil
}

// Dilate performs binary dilation with a disk of the given radius using
// gocv.Dilate. Pixels outside the mask are treated as unset, so dilation
// never wraps and never grows past the mask edges.
//
// Arguments:
// - m: The source mask; it is not modified.
// - radius: The disk radius in pixels.
//
// Returns:
// - *Mask: A new dilated mask.
// - error: If OpenCV fails.
//
// @example
// dilated, err := Dilate(Threshold(diff, 0.1), 3)
func Dilate(m *Mask, radius int) (*Mask, error) {
	if len(m.Pix) == 0 {
		return NewMask(m.Width, m.Height), nil
	}

	src, err := m.toMat()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	kernel, err := DiskKernel(radius)
	if err != nil {
		return nil, err
	}
	defer kernel.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	if err := gocv.Dilate(src, &dst, kernel); err != nil {
		return nil, errors.Wrap(err, "dilate")
	}
	return maskFromMat(dst)
}

// toMat copies the mask into a CV_8UC1 Mat with set pixels at 255.
func (m *Mask) toMat() (gocv.Mat, error) {
	out := gocv.NewMatWithSize(m.Height, m.Width, gocv.MatTypeCV8UC1)
	data, err := out.DataPtrUint8()
	if err != nil {
		out.Close()
		return gocv.NewMat(), errors.Wrap(err, "mask to mat")
	}

	for i, v := range m.Pix {
		data[i] = 0
		if v {
			data[i] = 255
		}
	}
	return out, nil
}

// maskFromMat reads a single channel 8-bit Mat; non-zero pixels are set.
func maskFromMat(src gocv.Mat) (*Mask, error) {
	data, err := src.DataPtrUint8()
	if err != nil {
		return nil, errors.Wrap(err, "mat to mask")
	}

	m := NewMask(src.Cols(), src.Rows())
	for i := range m.Pix {
		m.Pix[i] = data[i] != 0
	}
	return m, nil
}
