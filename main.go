package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/nvr-ai/go-autoframe/config"
	"github.com/nvr-ai/go-autoframe/pipeline"
	"github.com/nvr-ai/go-autoframe/profiler"
	"github.com/nvr-ai/go-autoframe/render"
	"github.com/nvr-ai/go-autoframe/source"
	"github.com/pkg/errors"
)

const (
	// TrajectoryName is the plot written next to the frames.
	TrajectoryName = "trajectory.png"
	// ReportName is the JSON report written next to the frames.
	ReportName = "report.json"
)

// Supported file extensions
var supportedVideoExtensions = []string{".mp4", ".avi", ".mov", ".mkv"}

// InputType represents the type of input being processed
type InputType int

const (
	InputVideo InputType = iota
	InputFrames
)

// InputConfig holds the input configuration
type InputConfig struct {
	Type InputType
	Path string
}

// options holds the command line flags. Zero values mean "not given" for
// everything that can also come from the config file.
type options struct {
	configPath  string
	videoPath   string
	framesDir   string
	outputDir   string
	threshold   float64
	minArea     int
	viewportW   int
	viewportH   int
	smoothing   float64
	fps         float64
	resolution  string
	workers     int
	maxFrames   int
	noFiles     bool
	printConfig bool
	verbose     bool
}

func main() {
	opts, set, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, opts, set); err != nil {
		logger.Error("autoframe failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (*options, map[string]bool, error) {
	o := &options{}
	fs.StringVar(&o.configPath, "config", "", "Path to a YAML configuration file")
	fs.StringVar(&o.videoPath, "video", "", "Path to video file (.mp4, .avi, .mov, .mkv)")
	fs.StringVar(&o.framesDir, "frames-dir", "", "Directory of numbered frame images")
	fs.StringVar(&o.outputDir, "output", "", "Output directory")
	fs.Float64Var(&o.threshold, "threshold", 0, "Motion threshold on the normalized luma difference, in (0, 1)")
	fs.IntVar(&o.minArea, "min-area", 0, "Minimum motion region area in pixels")
	fs.IntVar(&o.viewportW, "viewport-width", 0, "Viewport width in pixels")
	fs.IntVar(&o.viewportH, "viewport-height", 0, "Viewport height in pixels")
	fs.Float64Var(&o.smoothing, "smoothing", 0, "Viewport smoothing factor in (0, 1]")
	fs.Float64Var(&o.fps, "fps", 0, "Target sampling rate in frames per second")
	fs.StringVar(&o.resolution, "resolution", "", "Working resolution, e.g. 720p or \"HD 1080p\"")
	fs.IntVar(&o.workers, "workers", 0, "Concurrent detections (0 = number of CPUs)")
	fs.IntVar(&o.maxFrames, "max-frames", 0, "Stop after this many frames (0 = all)")
	fs.BoolVar(&o.noFiles, "dry-run", false, "Run detection and tracking without writing output files")
	fs.BoolVar(&o.printConfig, "print-config", false, "Print the effective configuration as YAML and exit")
	fs.BoolVar(&o.verbose, "v", false, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		return nil, nil, errors.Wrap(err, "parse flags")
	}
	if fs.NArg() > 0 {
		return nil, nil, errors.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return o, set, nil
}

// loadConfig reads the config file, if any, and applies the flags that were
// explicitly set on top of it.
func loadConfig(o *options, set map[string]bool) (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	}

	if set["output"] {
		cfg.Output.Dir = o.outputDir
	}
	if set["threshold"] {
		cfg.Detection.Threshold = o.threshold
	}
	if set["min-area"] {
		cfg.Detection.MinArea = o.minArea
	}
	if set["viewport-width"] {
		cfg.Tracking.Viewport.Width = o.viewportW
	}
	if set["viewport-height"] {
		cfg.Tracking.Viewport.Height = o.viewportH
	}
	if set["smoothing"] {
		cfg.Tracking.SmoothingFactor = o.smoothing
	}
	if set["fps"] {
		cfg.Source.TargetFPS = o.fps
	}
	if set["resolution"] {
		cfg.Source.Resolution = o.resolution
		cfg.Source.Size = config.Size{}
	}
	if set["workers"] {
		cfg.Workers = o.workers
	}
	if set["max-frames"] {
		cfg.MaxFrames = o.maxFrames
	}
	if o.noFiles {
		cfg.Output = config.OutputConfig{Dir: cfg.Output.Dir}
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func run(ctx context.Context, logger *slog.Logger, o *options, set map[string]bool) error {
	cfg, err := loadConfig(o, set)
	if err != nil {
		return err
	}

	if o.printConfig {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	input, err := validateInputFlags(o.videoPath, o.framesDir)
	if err != nil {
		return err
	}

	src, err := openSource(input, cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	det, err := cfg.MotionConfig()
	if err != nil {
		return err
	}
	trk, err := cfg.ViewportConfig()
	if err != nil {
		return err
	}

	prof := profiler.New(profiler.Options{ReportInterval: 10 * time.Second, Logger: logger})
	prof.Start()
	defer prof.Stop()

	p, err := pipeline.New(pipeline.Config{
		Detection: det,
		Tracking:  trk,
		Workers:   cfg.WorkerCount(),
		MaxFrames: cfg.MaxFrames,
		Checksums: cfg.Output.Report,
	}, pipeline.WithLogger(logger), pipeline.WithProfiler(prof))
	if err != nil {
		return err
	}

	logger.Info("starting run",
		slog.String("run_id", p.RunID()),
		slog.String("input", input.Path),
		slog.Float64("threshold", det.Threshold),
		slog.Int("min_area", det.MinArea),
		slog.String("viewport", fmt.Sprintf("%dx%d", trk.ViewportWidth, trk.ViewportHeight)),
		slog.Float64("smoothing", trk.SmoothingFactor),
		slog.Int("workers", cfg.WorkerCount()),
	)

	out := cfg.Output
	var sink render.Sink = render.Discard
	var files *render.FileSink
	if out.Frames || out.Crops || out.Videos {
		files, err = render.NewFileSink(render.FileOptions{
			Dir:            out.Dir,
			Frames:         out.Frames,
			Crops:          out.Crops,
			Videos:         out.Videos,
			FPS:            src.FrameRate(),
			ViewportWidth:  trk.ViewportWidth,
			ViewportHeight: trk.ViewportHeight,
		})
		if err != nil {
			return err
		}
		sink = files
	}

	res, runErr := p.Run(ctx, src, sink)
	if err := sink.Close(); err != nil && runErr == nil {
		runErr = errors.Wrap(err, "close output")
	}
	if runErr != nil {
		return runErr
	}
	if files != nil {
		logger.Info("frames written", slog.String("dir", out.Dir), slog.Int("frames", files.Written()))
	}

	if out.Plot {
		path := filepath.Join(out.Dir, TrajectoryName)
		if err := render.PlotTrajectory(path, res.Positions, res.ROIs); err != nil {
			return err
		}
		logger.Info("trajectory written", slog.String("path", path))
	}
	if out.Report {
		path := filepath.Join(out.Dir, ReportName)
		report := p.Report(res)
		if err := render.WriteReport(path, report); err != nil {
			return err
		}
		logger.Info("report written", slog.String("path", path), slog.Int("active_frames", report.ActiveFrames()))
	}

	return nil
}

func validateInputFlags(videoPath, framesDir string) (*InputConfig, error) {
	if videoPath != "" && framesDir != "" {
		return nil, errors.New("cannot specify both -video and -frames-dir")
	}
	if videoPath == "" && framesDir == "" {
		return nil, errors.New("one of -video or -frames-dir is required")
	}

	if videoPath != "" {
		if err := validateFile(videoPath, supportedVideoExtensions); err != nil {
			return nil, errors.Wrap(err, "video validation error")
		}
		return &InputConfig{Type: InputVideo, Path: videoPath}, nil
	}

	info, err := os.Stat(framesDir)
	if err != nil {
		return nil, errors.Wrap(err, "frames directory")
	}
	if !info.IsDir() {
		return nil, errors.Errorf("%s is not a directory", framesDir)
	}
	return &InputConfig{Type: InputFrames, Path: framesDir}, nil
}

func validateFile(filePath string, supportedExtensions []string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return errors.Wrapf(err, "file %s", filePath)
	}
	if info.IsDir() {
		return errors.Errorf("%s is a directory", filePath)
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	if !slices.Contains(supportedExtensions, ext) {
		return errors.Errorf("unsupported file extension %q, supported: %s", ext, strings.Join(supportedExtensions, ", "))
	}
	return nil
}

func openSource(input *InputConfig, cfg *config.Config) (source.Source, error) {
	size, err := cfg.FrameSize()
	if err != nil {
		return nil, err
	}
	opts := source.Options{TargetFPS: cfg.Source.TargetFPS, Size: size}

	switch input.Type {
	case InputVideo:
		return source.OpenVideo(input.Path, opts)
	case InputFrames:
		return source.OpenDirectory(input.Path, opts)
	default:
		return nil, errors.Errorf("unexpected input type %d", input.Type)
	}
}
