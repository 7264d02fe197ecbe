package motion

import (
	"image"

	"github.com/nvr-ai/go-autoframe/common"
	"gonum.org/v1/gonum/stat"
)

// ActivityMetrics summarizes the motion boxes of one frame.
type ActivityMetrics struct {
	// BoxCount is the number of motion boxes.
	BoxCount int `json:"box_count"`
	// TotalArea is the summed box area in pixels. Overlaps are counted twice.
	TotalArea int `json:"total_area"`
	// Coverage is the fraction of the frame covered by the union extent.
	Coverage float64 `json:"coverage"`
	// MeanArea is the mean box area.
	MeanArea float64 `json:"mean_area"`
	// AreaStdDev is the sample standard deviation of box areas.
	AreaStdDev float64 `json:"area_std_dev"`
	// CenterOfMass is the area weighted center of the boxes.
	CenterOfMass image.Point `json:"center_of_mass"`
	// Extent is the union of all boxes.
	Extent common.BoundingBox `json:"extent"`
}

// Active reports whether any motion was found.
func (m ActivityMetrics) Active() bool {
	return m.BoxCount > 0
}

// Summarize computes activity statistics for one frame's boxes.
//
// Arguments:
// - boxes: The motion boxes.
// - frameW: The frame width in pixels.
// - frameH: The frame height in pixels.
//
// Returns:
// - ActivityMetrics: Zero values apart from a frame center CenterOfMass when
// boxes is empty.
//
// @example
// m := motion.Summarize(boxes, 1280, 720)
// fmt.Printf("%d boxes, %.1f%% covered\n", m.BoxCount, m.Coverage*100)
func Summarize(boxes []common.BoundingBox, frameW, frameH int) ActivityMetrics {
	m := ActivityMetrics{
		BoxCount:     len(boxes),
		CenterOfMass: image.Pt(frameW/2, frameH/2),
	}
	if len(boxes) == 0 {
		return m
	}

	areas := make([]float64, len(boxes))
	xs := make([]float64, len(boxes))
	ys := make([]float64, len(boxes))
	for i, b := range boxes {
		areas[i] = float64(b.Area())
		c := b.Center()
		xs[i], ys[i] = float64(c.X), float64(c.Y)
		m.TotalArea += b.Area()
	}

	m.MeanArea, m.AreaStdDev = stat.MeanStdDev(areas, nil)
	if len(boxes) == 1 {
		m.AreaStdDev = 0
	}
	if m.TotalArea > 0 {
		m.CenterOfMass = image.Pt(int(stat.Mean(xs, areas)), int(stat.Mean(ys, areas)))
	}

	m.Extent, _ = common.Union(boxes)
	if frame := frameW * frameH; frame > 0 {
		m.Coverage = float64(m.Extent.Area()) / float64(frame)
	}

	return m
}
