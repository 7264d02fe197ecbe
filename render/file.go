package render

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/nvr-ai/go-autoframe/common"
	"github.com/nvr-ai/go-autoframe/images"
	"github.com/nvr-ai/go-autoframe/viewport"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Output file and directory names.
const (
	FramesDir         = "frames"
	ViewportDir       = "viewport"
	MotionVideoName   = "motion_detection.mp4"
	ViewportVideoName = "viewport_tracking.mp4"
	// VideoCodec is the FourCC used for both videos.
	VideoCodec = "mp4v"
)

var (
	motionColor   = color.RGBA{0, 255, 0, 0}
	viewportColor = color.RGBA{255, 0, 0, 0}
	labelColor    = color.RGBA{255, 255, 255, 0}
)

// FileOptions configures a FileSink.
type FileOptions struct {
	// Dir is the output root. It is created if missing.
	Dir string
	// Frames writes annotated frames to Dir/frames/frame_NNNN.png.
	Frames bool
	// Crops writes viewport crops to Dir/viewport/viewport_NNNN.png.
	Crops bool
	// Videos writes the annotated frames and the crops as two mp4 files.
	Videos bool
	// FPS is the frame rate of the videos.
	FPS float64
	// ViewportWidth and ViewportHeight size the drawn viewport and the crops.
	ViewportWidth  int
	ViewportHeight int
}

// FileSink writes visualizations to disk with OpenCV. It is not safe for
// concurrent use; frames must arrive in order.
type FileSink struct {
	opts     FileOptions
	motion   *gocv.VideoWriter
	viewport *gocv.VideoWriter
	written  int
}

// NewFileSink creates the output directories.
//
// Arguments:
// - opts: Output options.
//
// Returns:
// - *FileSink: The sink. Close must be called to finish the videos.
// - error: If a directory cannot be created, or crops are requested for an
// empty viewport.
//
// @example
// sink, err := render.NewFileSink(render.FileOptions{
//
//	Dir: "output", Frames: true, Crops: true, Videos: true,
//	FPS: 5, ViewportWidth: 640, ViewportHeight: 360,
//
// })
func NewFileSink(opts FileOptions) (*FileSink, error) {
	if opts.FPS <= 0 {
		opts.FPS = 5
	}
	if (opts.Crops || opts.Videos) && (opts.ViewportWidth <= 0 || opts.ViewportHeight <= 0) {
		return nil, errors.Errorf("viewport %dx%d cannot be cropped", opts.ViewportWidth, opts.ViewportHeight)
	}

	dirs := []string{opts.Dir}
	if opts.Frames {
		dirs = append(dirs, filepath.Join(opts.Dir, FramesDir))
	}
	if opts.Crops {
		dirs = append(dirs, filepath.Join(opts.Dir, ViewportDir))
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create %s", d)
		}
	}

	return &FileSink{opts: opts}, nil
}

// Written returns the number of frames written so far.
func (s *FileSink) Written() int {
	return s.written
}

// WriteFrame implements Sink. Files are numbered from 1.
func (s *FileSink) WriteFrame(f images.Frame, boxes []common.BoundingBox, pos viewport.Position) error {
	n := f.Index + 1

	annotated, err := Annotate(f.Image, boxes, pos, s.opts.ViewportWidth, s.opts.ViewportHeight, fmt.Sprintf("Frame %d", n))
	if err != nil {
		return errors.Wrapf(err, "frame %d", n)
	}
	defer annotated.Close()

	if s.opts.Frames {
		path := filepath.Join(s.opts.Dir, FramesDir, fmt.Sprintf("frame_%04d.png", n))
		if ok := gocv.IMWrite(path, annotated); !ok {
			return errors.Errorf("write %s", path)
		}
	}

	crop := CropViewport(f.Image, pos, s.opts.ViewportWidth, s.opts.ViewportHeight)
	if s.opts.Crops {
		path := filepath.Join(s.opts.Dir, ViewportDir, fmt.Sprintf("viewport_%04d.png", n))
		if err := images.Save(path, crop); err != nil {
			return errors.Wrapf(err, "write %s", path)
		}
	}

	if s.opts.Videos {
		if err := s.writeVideos(annotated, crop); err != nil {
			return err
		}
	}

	s.written++
	return nil
}

// Annotate draws the motion boxes in green, the viewport in red and a label on
// a BGR copy of img. The caller owns the returned Mat.
//
// Arguments:
// - img: The frame.
// - boxes: The motion boxes.
// - pos: The viewport center.
// - width, height: The viewport size.
// - label: Text drawn in the top-left corner; empty draws nothing.
//
// Returns:
// - gocv.Mat: The annotated frame.
// - error: If the image cannot be converted.
//
// @example
// mat, err := render.Annotate(frame.Image, boxes, pos, 640, 360, "Frame 1")
// defer mat.Close()
func Annotate(img image.Image, boxes []common.BoundingBox, pos viewport.Position, width, height int, label string) (gocv.Mat, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "convert frame")
	}

	for _, b := range boxes {
		gocv.Rectangle(&mat, b.ToRect(), motionColor, 3)
	}
	gocv.Rectangle(&mat, ViewportRect(pos, width, height), viewportColor, 3)
	if label != "" {
		gocv.PutText(&mat, label, image.Pt(10, 30), gocv.FontHersheyPlain, 1.2, labelColor, 2)
	}

	return mat, nil
}

func (s *FileSink) writeVideos(annotated gocv.Mat, crop image.Image) error {
	if s.motion == nil {
		w, err := gocv.VideoWriterFile(filepath.Join(s.opts.Dir, MotionVideoName), VideoCodec, s.opts.FPS, annotated.Cols(), annotated.Rows(), true)
		if err != nil {
			return errors.Wrap(err, "open motion video")
		}
		s.motion = w
	}
	if err := s.motion.Write(annotated); err != nil {
		return errors.Wrap(err, "write motion video")
	}

	cropMat, err := gocv.ImageToMatRGB(crop)
	if err != nil {
		return errors.Wrap(err, "convert viewport crop")
	}
	defer cropMat.Close()

	if s.viewport == nil {
		w, err := gocv.VideoWriterFile(filepath.Join(s.opts.Dir, ViewportVideoName), VideoCodec, s.opts.FPS, cropMat.Cols(), cropMat.Rows(), true)
		if err != nil {
			return errors.Wrap(err, "open viewport video")
		}
		s.viewport = w
	}
	return errors.Wrap(s.viewport.Write(cropMat), "write viewport video")
}

// Close implements Sink.
func (s *FileSink) Close() error {
	var first error
	for _, w := range []*gocv.VideoWriter{s.motion, s.viewport} {
		if w == nil {
			continue
		}
		if err := w.Close(); err != nil && first == nil {
			first = errors.Wrap(err, "close video")
		}
	}
	s.motion, s.viewport = nil, nil
	return first
}
