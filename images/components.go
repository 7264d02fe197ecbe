package images

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Connectivity is the adjacency rule for connected components.
type Connectivity int

const (
	// Connectivity4 joins pixels that share an edge.
	Connectivity4 Connectivity = 4
	// Connectivity8 joins pixels that share an edge or a corner.
	Connectivity8 Connectivity = 8
)

// ErrInvalidConnectivity is returned for connectivity values other than 4 or 8.
var ErrInvalidConnectivity = errors.New("connectivity must be 4 or 8")

// Validate checks that c is 4 or 8.
func (c Connectivity) Validate() error {
	if c != Connectivity4 && c != Connectivity8 {
		return errors.Wrapf(ErrInvalidConnectivity, "got %d", int(c))
	}
	return nil
}

// Component is one connected region of set pixels.
type Component struct {
	// Label is the 1-based label, assigned in raster order of the first pixel
	// of each component.
	Label int
	// Area is the number of pixels in the component.
	Area int
	// Bounds is the bounding rectangle with exclusive Max.
	Bounds image.Rectangle
}

// Labeling is the result of Label: the per-pixel label grid (0 for
// background) and the components in label order.
type Labeling struct {
	Width      int
	Height     int
	Labels     []int
	Components []Component
}

// Label finds the connected components of a mask with
// gocv.ConnectedComponentsWithStatsWithParams.
//
// Components are renumbered in the raster order (top to bottom, left to right)
// of their first pixel, so the output order is deterministic for a given mask
// and connectivity whatever scan order OpenCV uses internally.
//
// Arguments:
// - m: The mask to label.
// - conn: Connectivity4 or Connectivity8.
//
// Returns:
// - *Labeling: The labeling with one Component per region.
// - error: If OpenCV fails.
//
// @example
// lab, err := Label(mask, Connectivity8)
//
//	for _, c := range lab.Components {
//	    fmt.Println(c.Label, c.Area, c.Bounds)
//	}
func Label(m *Mask, conn Connectivity) (*Labeling, error) {
	if err := conn.Validate(); err != nil {
		return nil, err
	}

	lab := &Labeling{
		Width:  m.Width,
		Height: m.Height,
		Labels: make([]int, len(m.Pix)),
	}
	if len(m.Pix) == 0 {
		return lab, nil
	}

	src, err := m.toMat()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	labels := gocv.NewMat()
	defer labels.Close()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()

	n := gocv.ConnectedComponentsWithStatsWithParams(src, &labels, &stats, &centroids,
		int(conn), gocv.MatTypeCV32S, gocv.CCL_DEFAULT)

	raw, err := labels.DataPtrInt32()
	if err != nil {
		return nil, errors.Wrap(err, "read labels")
	}

	// order maps OpenCV labels to raster order labels; 0 is background.
	order := make([]int, max(n, 1))
	next := 1
	for i, l := range raw {
		if l == 0 {
			continue
		}
		if order[l] == 0 {
			order[l] = next
			next++
		}
		lab.Labels[i] = order[l]
	}

	lab.Components = make([]Component, next-1)
	for l := 1; l < n; l++ {
		if order[l] == 0 {
			continue
		}
		x := int(stats.GetIntAt(l, int(gocv.CC_STAT_LEFT)))
		y := int(stats.GetIntAt(l, int(gocv.CC_STAT_TOP)))
		w := int(stats.GetIntAt(l, int(gocv.CC_STAT_WIDTH)))
		h := int(stats.GetIntAt(l, int(gocv.CC_STAT_HEIGHT)))
		lab.Components[order[l]-1] = Component{
			Label:  order[l],
			Area:   int(stats.GetIntAt(l, int(gocv.CC_STAT_AREA))),
			Bounds: image.Rect(x, y, x+w, y+h),
		}
	}

	return lab, nil
}

// RemoveSmallObjects clears every connected component whose area is less
// than minSize. A minSize of 0 or 1 removes nothing.
//
// Arguments:
// - m: The source mask; it is not modified.
// - minSize: The smallest area, in pixels, that survives.
// - conn: The connectivity used to group pixels.
//
// Returns:
// - *Mask: A new mask containing only the surviving components.
// - error: If labeling fails.
func RemoveSmallObjects(m *Mask, minSize int, conn Connectivity) (*Mask, error) {
	out := &Mask{Width: m.Width, Height: m.Height, Pix: make([]bool, len(m.Pix))}
	if minSize <= 1 {
		copy(out.Pix, m.Pix)
		return out, nil
	}

	lab, err := Label(m, conn)
	if err != nil {
		return nil, err
	}
	keep := make([]bool, len(lab.Components)+1)
	for _, c := range lab.Components {
		keep[c.Label] = c.Area >= minSize
	}
	for i, l := range lab.Labels {
		out.Pix[i] = l != 0 && keep[l]
	}

	return out, nil
}
