package render

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nvr-ai/go-autoframe/common"
	"github.com/nvr-ai/go-autoframe/images"
	"github.com/nvr-ai/go-autoframe/motion"
	"github.com/nvr-ai/go-autoframe/viewport"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gradient returns a frame whose red channel encodes x and green channel y.
func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 7, A: 255})
		}
	}
	return img
}

func TestViewportRect(t *testing.T) {
	assert.Equal(t, image.Rect(220, 165, 420, 315), ViewportRect(viewport.Position{X: 320, Y: 240}, 200, 150))
	assert.Equal(t, image.Rect(-50, -25, 51, 26), ViewportRect(viewport.Position{X: 0, Y: 0}, 101, 51))
}

func TestCropViewport(t *testing.T) {
	frame := gradient(100, 80)

	t.Run("inside", func(t *testing.T) {
		crop := CropViewport(frame, viewport.Position{X: 50, Y: 40}, 20, 10)
		assert.Equal(t, image.Rect(0, 0, 20, 10), crop.Bounds())
		assert.Equal(t, color.RGBA{R: 40, G: 35, B: 7, A: 255}, crop.RGBAAt(0, 0))
		assert.Equal(t, color.RGBA{R: 59, G: 44, B: 7, A: 255}, crop.RGBAAt(19, 9))
	})

	t.Run("top left shifts inside", func(t *testing.T) {
		crop := CropViewport(frame, viewport.Position{X: 2, Y: 1}, 20, 10)
		assert.Equal(t, color.RGBA{R: 0, G: 0, B: 7, A: 255}, crop.RGBAAt(0, 0))
		assert.Equal(t, color.RGBA{R: 19, G: 9, B: 7, A: 255}, crop.RGBAAt(19, 9))
	})

	t.Run("bottom right pads", func(t *testing.T) {
		crop := CropViewport(frame, viewport.Position{X: 95, Y: 78}, 20, 10)
		assert.Equal(t, color.RGBA{R: 85, G: 73, B: 7, A: 255}, crop.RGBAAt(0, 0))
		assert.Equal(t, color.RGBA{R: 99, G: 79, B: 7, A: 255}, crop.RGBAAt(14, 6))
		assert.Equal(t, color.RGBA{A: 255}, crop.RGBAAt(15, 0), "padding is opaque black")
		assert.Equal(t, color.RGBA{A: 255}, crop.RGBAAt(0, 7))
	})

	t.Run("viewport larger than frame", func(t *testing.T) {
		crop := CropViewport(frame, viewport.Position{X: 50, Y: 40}, 120, 90)
		assert.Equal(t, image.Rect(0, 0, 120, 90), crop.Bounds())
		assert.Equal(t, color.RGBA{R: 99, G: 79, B: 7, A: 255}, crop.RGBAAt(99, 79))
		assert.Equal(t, color.RGBA{A: 255}, crop.RGBAAt(100, 80))
	})

	t.Run("nil frame", func(t *testing.T) {
		crop := CropViewport(nil, viewport.Position{}, 4, 4)
		assert.Equal(t, color.RGBA{A: 255}, crop.RGBAAt(1, 1))
	})
}

type recorder struct {
	frames []int
	closed bool
	err    error
}

func (r *recorder) WriteFrame(f images.Frame, _ []common.BoundingBox, _ viewport.Position) error {
	if r.err != nil {
		return r.err
	}
	r.frames = append(r.frames, f.Index)
	return nil
}

func (r *recorder) Close() error {
	r.closed = true
	return r.err
}

func TestMulti(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	sink := Multi(a, nil, b)

	for i := 0; i < 3; i++ {
		require.NoError(t, sink.WriteFrame(images.Frame{Index: i}, nil, viewport.Position{}))
	}
	require.NoError(t, sink.Close())
	assert.Equal(t, []int{0, 1, 2}, a.frames)
	assert.Equal(t, []int{0, 1, 2}, b.frames)
	assert.True(t, a.closed && b.closed)

	boom := errors.New("boom")
	failing := &recorder{err: boom}
	c := &recorder{}
	sink = Multi(failing, c)
	assert.Equal(t, boom, sink.WriteFrame(images.Frame{}, nil, viewport.Position{}))
	assert.Empty(t, c.frames)
	assert.True(t, errors.Is(sink.Close(), boom))
	assert.True(t, c.closed, "every sink is closed")

	assert.NoError(t, Discard.WriteFrame(images.Frame{}, nil, viewport.Position{}))
}

func TestPlotTrajectory(t *testing.T) {
	dir := t.TempDir()
	positions := []viewport.Position{{320, 240}, {261, 205}, {220, 181}}
	rois := []viewport.ROI{{CenterX: 125, CenterY: 125}, {CenterX: 125, CenterY: 125}, {CenterX: 125, CenterY: 125}}

	for _, name := range []string{"trajectory.png", "trajectory.svg"} {
		path := filepath.Join(dir, name)
		require.NoError(t, PlotTrajectory(path, positions, rois))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}

	require.NoError(t, PlotTrajectory(filepath.Join(dir, "no-rois.png"), positions, nil))
	assert.Error(t, PlotTrajectory(filepath.Join(dir, "empty.png"), nil, nil))
}

func TestReportRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "report.json")
	boxes := []common.BoundingBox{{X: 16, Y: 16, Width: 18, Height: 18}}

	want := &Report{
		RunID:       "run-1",
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		FrameWidth:  64,
		FrameHeight: 64,
		FrameRate:   5,
		Detection:   motion.DefaultConfig(),
		Tracking:    viewport.DefaultConfig(),
		Frames: []FrameReport{
			{Index: 0, Boxes: []common.BoundingBox{}, ROI: viewport.ROI{CenterX: 32, CenterY: 32}, Position: viewport.Position{X: 32, Y: 32}},
			{
				Index:    1,
				Offset:   200 * time.Millisecond,
				Boxes:    boxes,
				ROI:      viewport.Aggregate(boxes, 64, 64),
				Position: viewport.Position{X: 29, Y: 29},
				Activity: motion.Summarize(boxes, 64, 64),
			},
		},
	}

	require.NoError(t, WriteReport(path, want))
	got, err := ReadReport(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, got.ActiveFrames())
}

func TestFileSink(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(FileOptions{Dir: dir, Frames: true, Crops: true, ViewportWidth: 32, ViewportHeight: 24})
	require.NoError(t, err)

	frame := images.Frame{Index: 0, Image: gradient(64, 48)}
	boxes := []common.BoundingBox{{X: 4, Y: 4, Width: 10, Height: 10}}
	require.NoError(t, sink.WriteFrame(frame, boxes, viewport.Position{X: 32, Y: 24}))
	require.NoError(t, sink.Close())
	assert.Equal(t, 1, sink.Written())

	annotated, err := os.Open(filepath.Join(dir, FramesDir, "frame_0001.png"))
	require.NoError(t, err)
	defer annotated.Close()
	img, err := images.Decode(annotated)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(64, 48), img.Bounds().Size())

	crop, err := os.Open(filepath.Join(dir, ViewportDir, "viewport_0001.png"))
	require.NoError(t, err)
	defer crop.Close()
	img, err = images.Decode(crop)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(32, 24), img.Bounds().Size())

	_, err = NewFileSink(FileOptions{Dir: dir, Crops: true})
	assert.Error(t, err, "crops need a viewport size")
}
