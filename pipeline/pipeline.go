// Package pipeline - Runs a frame source through motion detection and viewport
// tracking and hands the ordered results to a render sink.
package pipeline

import (
	"context"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nvr-ai/go-autoframe/common"
	"github.com/nvr-ai/go-autoframe/images"
	"github.com/nvr-ai/go-autoframe/motion"
	"github.com/nvr-ai/go-autoframe/profiler"
	"github.com/nvr-ai/go-autoframe/render"
	"github.com/nvr-ai/go-autoframe/source"
	"github.com/nvr-ai/go-autoframe/viewport"
	"github.com/pkg/errors"
)

// Stage names recorded in the profiler.
const (
	StageRead   = "read"
	StageDetect = "detect"
	StageTrack  = "track"
	StageRender = "render"
)

// ErrNoFrames is returned when the source yields nothing.
var ErrNoFrames = errors.New("source produced no frames")

// Config contains the settings of a run.
type Config struct {
	Detection motion.Config
	Tracking  viewport.Config
	// Workers bounds concurrent detections; <= 0 uses runtime.NumCPU().
	Workers int
	// MaxFrames stops reading after this many frames; <= 0 reads everything.
	MaxFrames int
	// Checksums adds a pixel checksum per frame to the report.
	Checksums bool
}

// Result holds everything a run computed, indexed by frame.
type Result struct {
	RunID       string
	FrameWidth  int
	FrameHeight int
	FrameRate   float64
	Frames      []images.Frame
	Boxes       [][]common.BoundingBox
	ROIs        []viewport.ROI
	Positions   []viewport.Position
	Activity    []motion.ActivityMetrics
	Elapsed     time.Duration
}

// Len returns the number of frames processed.
func (r *Result) Len() int {
	return len(r.Positions)
}

// Pipeline wires a detector and a tracker configuration together.
type Pipeline struct {
	config   Config
	detector *motion.Detector
	logger   *slog.Logger
	profiler *profiler.Profiler
	runID    string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithProfiler records stage timings in prof.
func WithProfiler(prof *profiler.Profiler) Option {
	return func(p *Pipeline) {
		p.profiler = prof
	}
}

// WithRunID fixes the run identifier instead of generating a UUID.
func WithRunID(id string) Option {
	return func(p *Pipeline) {
		p.runID = id
	}
}

// New validates cfg and creates a pipeline.
//
// Arguments:
// - cfg: Detection, tracking and run settings.
// - opts: Optional logger, profiler and run ID.
//
// Returns:
// - *Pipeline: The pipeline.
// - error: If either the detection or the tracking configuration is invalid.
//
// @example
// p, err := pipeline.New(pipeline.Config{
//
//	Detection: motion.DefaultConfig(),
//	Tracking:  viewport.DefaultConfig(),
//
// }, pipeline.WithLogger(logger))
func New(cfg Config, opts ...Option) (*Pipeline, error) {
	det, err := motion.NewDetector(cfg.Detection)
	if err != nil {
		return nil, err
	}
	if err := cfg.Tracking.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		config:   cfg,
		detector: det,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.profiler == nil {
		p.profiler = profiler.New(profiler.Options{Logger: p.logger})
	}
	if p.runID == "" {
		p.runID = uuid.NewString()
	}
	return p, nil
}

// RunID returns the identifier of the run.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Profiler returns the profiler receiving stage timings.
func (p *Pipeline) Profiler() *profiler.Profiler {
	return p.profiler
}

// Run processes every frame of src.
//
// Frames are read into memory, detected pairwise in parallel, tracked in
// order and finally written to sink in frame order. Any detection failure
// fails the whole run since the tracker cannot skip a frame.
//
// Arguments:
// - ctx: Cancels the run.
// - src: The frame source. It is not closed.
// - sink: Receives each frame with its boxes and viewport center. Nil
// discards output. It is not closed.
//
// Returns:
// - *Result: The per-frame results.
// - error: ErrNoFrames, or the first read, detection, tracking or sink error.
func (p *Pipeline) Run(ctx context.Context, src source.Source, sink render.Sink) (*Result, error) {
	if sink == nil {
		sink = render.Discard
	}
	start := time.Now()
	log := p.logger.With(slog.String("run_id", p.runID))

	done := p.profiler.StartOperation(StageRead)
	frames, err := source.ReadAll(ctx, src, p.config.MaxFrames)
	done()
	if err != nil {
		return nil, errors.Wrap(err, "read frames")
	}
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}

	size := frames[0].Size()
	log.Info("frames loaded",
		slog.Int("frames", len(frames)),
		slog.Int("width", size.X),
		slog.Int("height", size.Y),
		slog.Float64("fps", src.FrameRate()),
	)

	res := &Result{
		RunID:       p.runID,
		FrameWidth:  size.X,
		FrameHeight: size.Y,
		FrameRate:   src.FrameRate(),
		Frames:      frames,
	}

	if err := p.detect(ctx, res); err != nil {
		return nil, err
	}
	if err := p.track(res); err != nil {
		return nil, err
	}
	if err := p.render(ctx, res, sink); err != nil {
		return nil, err
	}

	res.Elapsed = time.Since(start)
	log.Info("run complete",
		slog.Int("frames", res.Len()),
		slog.Int("active_frames", activeFrames(res.Activity)),
		slog.Duration("elapsed", res.Elapsed.Truncate(time.Millisecond)),
	)
	p.profiler.Log(ctx)

	return res, nil
}

func (p *Pipeline) detect(ctx context.Context, res *Result) error {
	defer p.profiler.StartOperation(StageDetect)()

	imgs := make([]image.Image, len(res.Frames))
	for i, f := range res.Frames {
		imgs[i] = f.Image
	}

	boxes, err := p.detector.DetectSequence(ctx, imgs, p.config.Workers)
	if err != nil {
		return errors.Wrap(err, "detect motion")
	}
	res.Boxes = boxes
	return nil
}

func (p *Pipeline) track(res *Result) error {
	defer p.profiler.StartOperation(StageTrack)()

	positions, err := viewport.TrackSequence(res.FrameWidth, res.FrameHeight, p.config.Tracking, res.Boxes)
	if err != nil {
		return errors.Wrap(err, "track viewport")
	}
	res.Positions = positions

	res.ROIs = make([]viewport.ROI, len(res.Boxes))
	res.Activity = make([]motion.ActivityMetrics, len(res.Boxes))
	for i, boxes := range res.Boxes {
		res.ROIs[i] = viewport.Aggregate(boxes, res.FrameWidth, res.FrameHeight)
		res.Activity[i] = motion.Summarize(boxes, res.FrameWidth, res.FrameHeight)
		p.profiler.RecordMetric("boxes_per_frame", float64(len(boxes)))
		p.profiler.RecordMetric("coverage", res.Activity[i].Coverage)
	}
	return nil
}

func (p *Pipeline) render(ctx context.Context, res *Result, sink render.Sink) error {
	defer p.profiler.StartOperation(StageRender)()

	for i, f := range res.Frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sink.WriteFrame(f, res.Boxes[i], res.Positions[i]); err != nil {
			return errors.Wrapf(err, "render frame %d", i)
		}
		p.logger.Debug("frame",
			slog.Int("index", i),
			slog.Int("boxes", len(res.Boxes[i])),
			slog.String("roi", res.ROIs[i].String()),
			slog.Int("x", res.Positions[i].X),
			slog.Int("y", res.Positions[i].Y),
		)
	}
	return nil
}

// Report converts a result into a render.Report.
func (p *Pipeline) Report(res *Result) *render.Report {
	r := &render.Report{
		RunID:       res.RunID,
		CreatedAt:   time.Now().UTC(),
		FrameWidth:  res.FrameWidth,
		FrameHeight: res.FrameHeight,
		FrameRate:   res.FrameRate,
		Detection:   p.config.Detection,
		Tracking:    p.config.Tracking,
		Frames:      make([]render.FrameReport, res.Len()),
	}
	for i := range r.Frames {
		fr := render.FrameReport{
			Index:    i,
			Boxes:    res.Boxes[i],
			ROI:      res.ROIs[i],
			Position: res.Positions[i],
			Activity: res.Activity[i],
		}
		if i < len(res.Frames) {
			fr.Offset = res.Frames[i].Offset
			if p.config.Checksums {
				fr.Checksum = images.Checksum(res.Frames[i].Image)
			}
		}
		r.Frames[i] = fr
	}
	return r
}

func activeFrames(activity []motion.ActivityMetrics) int {
	n := 0
	for _, a := range activity {
		if a.Active() {
			n++
		}
	}
	return n
}
