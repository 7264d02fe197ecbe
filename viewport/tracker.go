package viewport

import (
	"fmt"
	"math"
	"strings"

	"github.com/nvr-ai/go-autoframe/common"
	"github.com/pkg/errors"
)

var (
	// ErrInvalidConfig is returned for out of range tracker settings.
	ErrInvalidConfig = errors.New("invalid viewport config")
	// ErrInvalidFrame is returned for non-positive frame dimensions.
	ErrInvalidFrame = errors.New("invalid frame size")
)

// OversizePolicy decides the viewport center on an axis where the viewport
// is larger than the frame and no valid clamp range exists.
type OversizePolicy int

const (
	// OversizeCenter pins the viewport to the frame center on that axis.
	OversizeCenter OversizePolicy = iota
	// OversizeLowerBound applies max(lo, min(hi, v)) literally, so the lower
	// bound (half the viewport size) wins.
	OversizeLowerBound
)

func (p OversizePolicy) String() string {
	switch p {
	case OversizeCenter:
		return "center"
	case OversizeLowerBound:
		return "lower_bound"
	default:
		return fmt.Sprintf("OversizePolicy(%d)", int(p))
	}
}

// ParseOversizePolicy converts "center" or "lower_bound" to a policy. An empty
// string selects OversizeCenter.
func ParseOversizePolicy(s string) (OversizePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "center":
		return OversizeCenter, nil
	case "lower_bound", "lower-bound", "clamp":
		return OversizeLowerBound, nil
	default:
		return 0, errors.Wrapf(ErrInvalidConfig, "unknown oversize policy %q", s)
	}
}

// Config contains the virtual camera settings.
type Config struct {
	// ViewportWidth is the width of the virtual camera in pixels.
	ViewportWidth int `json:"viewport_width"`
	// ViewportHeight is the height of the virtual camera in pixels.
	ViewportHeight int `json:"viewport_height"`
	// SmoothingFactor is the weight of the new target in (0, 1]. 1 follows
	// the target without lag.
	SmoothingFactor float64 `json:"smoothing_factor"`
	// Oversize handles viewports larger than the frame.
	Oversize OversizePolicy `json:"oversize"`
}

// DefaultConfig returns a 640x360 viewport with smoothing factor 0.3.
func DefaultConfig() Config {
	return Config{
		ViewportWidth:   640,
		ViewportHeight:  360,
		SmoothingFactor: 0.3,
		Oversize:        OversizeCenter,
	}
}

// Validate checks the viewport size, smoothing factor and oversize policy.
func (c Config) Validate() error {
	switch {
	case c.ViewportWidth < 0 || c.ViewportHeight < 0:
		return errors.Wrapf(ErrInvalidConfig, "viewport %dx%d must not be negative", c.ViewportWidth, c.ViewportHeight)
	case math.IsNaN(c.SmoothingFactor) || c.SmoothingFactor <= 0 || c.SmoothingFactor > 1:
		return errors.Wrapf(ErrInvalidConfig, "smoothing factor %v must be in (0, 1]", c.SmoothingFactor)
	case c.Oversize != OversizeCenter && c.Oversize != OversizeLowerBound:
		return errors.Wrapf(ErrInvalidConfig, "oversize policy %v", c.Oversize)
	}
	return nil
}

// Position is the center of the viewport in frame coordinates.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Tracker turns per-frame motion into a smoothed, clamped viewport center.
//
// Each step moves the previous center a fraction SmoothingFactor of the way
// toward the aggregate ROI center, truncates to whole pixels, and clamps the
// result so the viewport stays inside the frame. A tracker belongs to one
// sequence and is not safe for concurrent use.
type Tracker struct {
	config         Config
	frameW, frameH int
	prevX, prevY   int
	frames         int
}

// NewTracker creates a tracker for frames of the given size, starting at the
// frame center.
//
// Arguments:
// - frameW: The frame width, > 0.
// - frameH: The frame height, > 0.
// - cfg: The viewport configuration.
//
// Returns:
// - *Tracker: The tracker.
// - error: ErrInvalidFrame or ErrInvalidConfig.
//
// @example
// tr, err := viewport.NewTracker(1280, 720, viewport.DefaultConfig())
//
//	for _, boxes := range perFrame {
//	    pos := tr.Step(boxes)
//	    fmt.Println(pos.X, pos.Y)
//	}
func NewTracker(frameW, frameH int, cfg Config) (*Tracker, error) {
	if frameW <= 0 || frameH <= 0 {
		return nil, errors.Wrapf(ErrInvalidFrame, "%dx%d", frameW, frameH)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Tracker{
		config: cfg,
		frameW: frameW,
		frameH: frameH,
		prevX:  frameW / 2,
		prevY:  frameH / 2,
	}, nil
}

// Step advances the tracker by one frame.
func (t *Tracker) Step(boxes []common.BoundingBox) Position {
	roi := Aggregate(boxes, t.frameW, t.frameH)
	f := t.config.SmoothingFactor

	x := smooth(t.prevX, roi.CenterX, f)
	y := smooth(t.prevY, roi.CenterY, f)

	x = clampAxis(x, t.config.ViewportWidth, t.frameW, t.config.Oversize)
	y = clampAxis(y, t.config.ViewportHeight, t.frameH, t.config.Oversize)

	t.prevX, t.prevY = x, y
	t.frames++
	return Position{X: x, Y: y}
}

// Position returns the last emitted position, or the frame center before the
// first step.
func (t *Tracker) Position() Position {
	return Position{X: t.prevX, Y: t.prevY}
}

// Frames returns the number of steps taken.
func (t *Tracker) Frames() int {
	return t.frames
}

// smooth blends prev toward target and truncates toward zero. The explicit
// conversions keep the products from being fused so results are identical on
// every architecture.
func smooth(prev, target int, f float64) int {
	return int(float64(float64(prev)*(1-f)) + float64(float64(target)*f))
}

// clampAxis keeps v inside [size/2, frame-size/2].
func clampAxis(v, size, frame int, policy OversizePolicy) int {
	lo, hi := size/2, frame-size/2
	if lo > hi && policy == OversizeCenter {
		return frame / 2
	}
	return max(lo, min(hi, v))
}

// TrackSequence computes one viewport position per frame.
//
// Arguments:
// - frameW: The frame width, > 0.
// - frameH: The frame height, > 0.
// - cfg: The viewport configuration.
// - boxesPerFrame: The motion boxes of each frame, in frame order.
//
// Returns:
// - []Position: Exactly one position per input frame.
// - error: ErrInvalidFrame or ErrInvalidConfig, before any position is computed.
//
// @example
// positions, err := viewport.TrackSequence(640, 480, viewport.Config{
//
//	ViewportWidth: 200, ViewportHeight: 150, SmoothingFactor: 0.3,
//
// }, boxes)
func TrackSequence(frameW, frameH int, cfg Config, boxesPerFrame [][]common.BoundingBox) ([]Position, error) {
	t, err := NewTracker(frameW, frameH, cfg)
	if err != nil {
		return nil, err
	}

	out := make([]Position, len(boxesPerFrame))
	for i, boxes := range boxesPerFrame {
		out[i] = t.Step(boxes)
	}
	return out, nil
}
