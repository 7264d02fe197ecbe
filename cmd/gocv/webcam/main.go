// Command webcam runs the motion detector and the viewport tracker live on a
// capture device and shows the full frame and the virtual camera side by side.
package main

import (
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"time"

	"github.com/nvr-ai/go-autoframe/common"
	"github.com/nvr-ai/go-autoframe/images"
	"github.com/nvr-ai/go-autoframe/motion"
	"github.com/nvr-ai/go-autoframe/render"
	"github.com/nvr-ai/go-autoframe/viewport"
	"gocv.io/x/gocv"
)

func main() {
	var (
		deviceID  int
		width     int
		height    int
		threshold float64
		minArea   int
		smoothing float64
	)
	flag.IntVar(&deviceID, "device", 0, "Video capture device ID")
	flag.IntVar(&width, "width", 640, "Working frame width")
	flag.IntVar(&height, "height", 360, "Working frame height")
	flag.Float64Var(&threshold, "threshold", 0.1, "Motion threshold")
	flag.IntVar(&minArea, "min-area", 200, "Minimum motion area in pixels")
	flag.Float64Var(&smoothing, "smoothing", 0.3, "Viewport smoothing factor")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	detCfg := motion.DefaultConfig()
	detCfg.Threshold = threshold
	detCfg.MinArea = minArea
	detector, err := motion.NewDetector(detCfg)
	if err != nil {
		logger.Error("invalid detector config", slog.Any("error", err))
		os.Exit(1)
	}

	trkCfg := viewport.DefaultConfig()
	trkCfg.ViewportWidth = width / 2
	trkCfg.ViewportHeight = height / 2
	trkCfg.SmoothingFactor = smoothing
	tracker, err := viewport.NewTracker(width, height, trkCfg)
	if err != nil {
		logger.Error("invalid tracker config", slog.Any("error", err))
		os.Exit(1)
	}

	webcam, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		logger.Error("cannot open capture device", slog.Int("device", deviceID), slog.Any("error", err))
		os.Exit(1)
	}
	defer webcam.Close()

	window := gocv.NewWindow("Motion")
	defer window.Close()
	crop := gocv.NewWindow("Viewport")
	defer crop.Close()

	img := gocv.NewMat()
	defer img.Close()

	// FPS tracking variables
	fps := 0.0
	frameCount := 0
	lastTime := time.Now()

	var prev image.Image
	size := image.Pt(width, height)

	logger.Info("start reading camera device", slog.Int("device", deviceID))
	for {
		if ok := webcam.Read(&img); !ok {
			logger.Error("cannot read device", slog.Int("device", deviceID))
			return
		}
		if img.Empty() {
			continue
		}

		frameCount++
		if elapsed := time.Since(lastTime).Seconds(); elapsed >= 1.0 {
			fps = float64(frameCount) / elapsed
			frameCount = 0
			lastTime = time.Now()
		}

		raw, err := img.ToImage()
		if err != nil {
			logger.Warn("cannot convert frame", slog.Any("error", err))
			continue
		}
		curr := images.Resize(raw, size)

		var boxes []common.BoundingBox
		if prev != nil {
			if boxes, err = detector.Detect(prev, curr); err != nil {
				logger.Error("detection failed", slog.Any("error", err))
				return
			}
		}
		prev = curr
		pos := tracker.Step(boxes)

		annotated, err := render.Annotate(curr, boxes, pos, trkCfg.ViewportWidth, trkCfg.ViewportHeight, fmt.Sprintf("%d boxes | FPS: %.2f", len(boxes), fps))
		if err != nil {
			logger.Warn("cannot annotate frame", slog.Any("error", err))
			continue
		}
		view, err := gocv.ImageToMatRGB(render.CropViewport(curr, pos, trkCfg.ViewportWidth, trkCfg.ViewportHeight))
		if err != nil {
			annotated.Close()
			logger.Warn("cannot crop viewport", slog.Any("error", err))
			continue
		}

		window.IMShow(annotated)
		crop.IMShow(view)
		annotated.Close()
		view.Close()

		if window.WaitKey(1) == 27 {
			return
		}
	}
}
