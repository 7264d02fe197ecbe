// Package viewport - Region of interest aggregation and the smoothed virtual
// camera that follows it.
package viewport

import (
	"fmt"
	"image"

	"github.com/nvr-ai/go-autoframe/common"
)

// ROI is the aggregate region of interest of one frame: an area weighted
// center and the extent of all motion.
type ROI struct {
	CenterX int `json:"center_x"`
	CenterY int `json:"center_y"`
	Width   int `json:"width"`
	Height  int `json:"height"`
}

// Center returns the ROI center as a point.
func (r ROI) Center() image.Point {
	return image.Pt(r.CenterX, r.CenterY)
}

func (r ROI) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.CenterX, r.CenterY, r.Width, r.Height)
}

// Aggregate reduces a frame's motion boxes to a single region of interest.
//
// Each box contributes its integer center weighted by its area. The ROI center
// is the weighted mean truncated toward zero, and its size is the extent of the
// union of every box. With no boxes the ROI is the frame center with zero size.
// When every box has zero area the center and size of the first largest box
// are used, which in turn degrades to the frame center when no box has a
// positive area.
//
// Arguments:
// - boxes: The motion boxes of one frame.
// - frameW: The frame width in pixels.
// - frameH: The frame height in pixels.
//
// Returns:
// - ROI: The aggregate region.
//
// @example
// roi := viewport.Aggregate([]common.BoundingBox{{X: 10, Y: 10, Width: 20, Height: 20}}, 640, 480)
// // roi == ROI{CenterX: 20, CenterY: 20, Width: 20, Height: 20}
func Aggregate(boxes []common.BoundingBox, frameW, frameH int) ROI {
	if len(boxes) == 0 {
		return ROI{CenterX: frameW / 2, CenterY: frameH / 2}
	}

	var (
		sumX, sumY float64
		total      int
		largest    common.BoundingBox
		maxArea    int
	)
	for _, b := range boxes {
		area := b.Area()
		c := b.Center()
		sumX += float64(c.X) * float64(area)
		sumY += float64(c.Y) * float64(area)
		total += area
		if area > maxArea {
			maxArea = area
			largest = b
		}
	}

	if total > 0 {
		extent, _ := common.Union(boxes)
		return ROI{
			CenterX: int(sumX / float64(total)),
			CenterY: int(sumY / float64(total)),
			Width:   extent.Width,
			Height:  extent.Height,
		}
	}

	if maxArea > 0 {
		c := largest.Center()
		return ROI{CenterX: c.X, CenterY: c.Y, Width: largest.Width, Height: largest.Height}
	}

	return ROI{CenterX: frameW / 2, CenterY: frameH / 2}
}
