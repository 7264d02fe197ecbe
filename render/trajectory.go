package render

import (
	"image/color"
	"os"
	"path/filepath"

	"github.com/nvr-ai/go-autoframe/viewport"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotTrajectory charts the viewport center per frame, together with the ROI
// centers it was chasing when rois is not empty.
//
// Arguments:
// - path: The output file. The format follows the extension (png, svg, pdf).
// - positions: The viewport centers in frame order.
// - rois: The per-frame ROIs, or nil.
//
// Returns:
// - error: If there is nothing to plot or the file cannot be written.
//
// @example
// err := render.PlotTrajectory("output/trajectory.png", result.Positions, result.ROIs)
func PlotTrajectory(path string, positions []viewport.Position, rois []viewport.ROI) error {
	if len(positions) == 0 {
		return errors.New("no positions to plot")
	}

	p := plot.New()
	p.Title.Text = "Viewport trajectory"
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Position (px)"
	p.Add(plotter.NewGrid())

	xs := make(plotter.XYs, len(positions))
	ys := make(plotter.XYs, len(positions))
	for i, pos := range positions {
		xs[i] = plotter.XY{X: float64(i + 1), Y: float64(pos.X)}
		ys[i] = plotter.XY{X: float64(i + 1), Y: float64(pos.Y)}
	}

	if err := addLine(p, "viewport x", xs, color.RGBA{R: 200, A: 255}); err != nil {
		return err
	}
	if err := addLine(p, "viewport y", ys, color.RGBA{B: 200, A: 255}); err != nil {
		return err
	}

	if len(rois) > 0 {
		tx := make(plotter.XYs, len(rois))
		ty := make(plotter.XYs, len(rois))
		for i, r := range rois {
			tx[i] = plotter.XY{X: float64(i + 1), Y: float64(r.CenterX)}
			ty[i] = plotter.XY{X: float64(i + 1), Y: float64(r.CenterY)}
		}
		if err := addScatter(p, "target x", tx, color.RGBA{R: 255, G: 140, A: 255}); err != nil {
			return err
		}
		if err := addScatter(p, "target y", ty, color.RGBA{G: 160, B: 255, A: 255}); err != nil {
			return err
		}
	}

	p.Legend.Top = true
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}
	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save plot %s", path)
	}
	return nil
}

func addLine(p *plot.Plot, name string, pts plotter.XYs, c color.Color) error {
	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrapf(err, "line %s", name)
	}
	line.Color = c
	line.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add(name, line)
	return nil
}

func addScatter(p *plot.Plot, name string, pts plotter.XYs, c color.Color) error {
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrapf(err, "scatter %s", name)
	}
	sc.GlyphStyle.Color = c
	sc.GlyphStyle.Radius = vg.Points(2)
	p.Add(sc)
	p.Legend.Add(name, sc)
	return nil
}
