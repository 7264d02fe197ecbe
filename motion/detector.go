// Package motion - Frame differencing motion detector producing bounding boxes
// of changed regions between two consecutive frames.
package motion

import (
	"image"
	"math"

	"github.com/nvr-ai/go-autoframe/common"
	"github.com/nvr-ai/go-autoframe/images"
	"github.com/nvr-ai/go-autoframe/images/kernels"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNilFrame is returned when either input frame is nil.
	ErrNilFrame = errors.New("nil frame")
	// ErrDimensionMismatch is returned when the two frames differ in size.
	ErrDimensionMismatch = errors.New("frame dimensions differ")
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid motion config")
)

// Config contains the tunables of the motion detector.
type Config struct {
	// Threshold is the blurred luma difference, in [0, 1], above which a
	// pixel counts as changed.
	Threshold float64 `json:"threshold"`
	// MinArea is the smallest component area, in pixels, reported as a box.
	// Components smaller than MinArea/10 are removed before labeling.
	MinArea int `json:"min_area"`
	// BlurSigma is the Gaussian standard deviation applied to each frame.
	BlurSigma float64 `json:"blur_sigma"`
	// DilationRadius is the radius of the disk used to grow the change mask.
	DilationRadius int `json:"dilation_radius"`
	// BlurEdge selects how the blur samples past the frame border.
	BlurEdge kernels.EdgeMode `json:"blur_edge"`
	// RemovalConnectivity groups pixels when clearing components smaller
	// than MinArea/10.
	RemovalConnectivity images.Connectivity `json:"removal_connectivity"`
	// LabelConnectivity groups pixels into the reported components.
	LabelConnectivity images.Connectivity `json:"label_connectivity"`
	// Luma selects the grayscale conversion.
	Luma images.LumaWeights `json:"luma"`
	// Parallel spreads the blur over goroutines. Output is unchanged.
	Parallel bool `json:"parallel"`
}

// DefaultConfig returns the default detector configuration.
//
// @example
// cfg := motion.DefaultConfig()
// cfg.MinArea = 200
func DefaultConfig() Config {
	return Config{
		Threshold:           0.1,
		MinArea:             500,
		BlurSigma:           1.0,
		DilationRadius:      3,
		BlurEdge:            kernels.EdgeClamp,
		RemovalConnectivity: images.Connectivity4,
		LabelConnectivity:   images.Connectivity8,
		Luma:                images.LumaBT709,
	}
}

// Validate checks every field and reports the first invalid one.
func (c Config) Validate() error {
	switch {
	case math.IsNaN(c.Threshold) || c.Threshold <= 0 || c.Threshold >= 1:
		return errors.Wrapf(ErrInvalidConfig, "threshold %v must be in (0, 1)", c.Threshold)
	case c.MinArea <= 0:
		return errors.Wrapf(ErrInvalidConfig, "min area %d must be positive", c.MinArea)
	case math.IsNaN(c.BlurSigma) || c.BlurSigma < 0:
		return errors.Wrapf(ErrInvalidConfig, "blur sigma %v must not be negative", c.BlurSigma)
	case c.DilationRadius < 0:
		return errors.Wrapf(ErrInvalidConfig, "dilation radius %d must not be negative", c.DilationRadius)
	case !c.BlurEdge.Valid():
		return errors.Wrapf(ErrInvalidConfig, "blur edge mode %d", int(c.BlurEdge))
	}
	if err := c.RemovalConnectivity.Validate(); err != nil {
		return errors.Wrap(ErrInvalidConfig, "removal "+err.Error())
	}
	if err := c.LabelConnectivity.Validate(); err != nil {
		return errors.Wrap(ErrInvalidConfig, "label "+err.Error())
	}
	if sum := c.Luma.R + c.Luma.G + c.Luma.B; c.Luma.R < 0 || c.Luma.G < 0 || c.Luma.B < 0 || math.Abs(sum-1) > 1e-3 {
		return errors.Wrapf(ErrInvalidConfig, "luma weights %+v must be non-negative and sum to 1", c.Luma)
	}
	return nil
}

// Detector runs the detection pipeline with a fixed configuration. It holds
// no per-frame state and is safe for concurrent use.
type Detector struct {
	config Config
	pool   *kernels.Pool
}

// NewDetector validates cfg and creates a detector.
//
// Arguments:
// - cfg: The detector configuration.
//
// Returns:
// - *Detector: The detector.
// - error: ErrInvalidConfig if cfg fails validation.
//
// @example
// det, err := motion.NewDetector(motion.DefaultConfig())
//
//	if err != nil {
//	    return err
//	}
//
// boxes, err := det.Detect(prev, curr)
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{config: cfg, pool: &kernels.Pool{}}, nil
}

// Config returns the detector configuration.
func (d *Detector) Config() Config {
	return d.config
}

// Detect locates the regions that changed between prev and curr.
//
// Both frames go through luma conversion and a Gaussian blur; the absolute
// difference is thresholded, dilated with a disk, cleaned of components smaller
// than MinArea/10 (grouped by RemovalConnectivity) and labeled with
// LabelConnectivity. Every component covering at least MinArea
// pixels yields one box, in label order. Frames with no pixels yield no boxes.
//
// Arguments:
// - prev: The earlier frame.
// - curr: The later frame, with the same dimensions as prev.
//
// Returns:
// - []common.BoundingBox: The motion boxes, possibly empty.
// - error: ErrNilFrame, ErrDimensionMismatch or an OpenCV failure.
func (d *Detector) Detect(prev, curr image.Image) ([]common.BoundingBox, error) {
	if prev == nil || curr == nil {
		return nil, ErrNilFrame
	}

	ps, cs := prev.Bounds().Size(), curr.Bounds().Size()
	if ps != cs {
		return nil, errors.Wrapf(ErrDimensionMismatch, "%dx%d vs %dx%d", ps.X, ps.Y, cs.X, cs.Y)
	}
	if images.Empty(prev) {
		return []common.BoundingBox{}, nil
	}

	diff, err := images.AbsDiff(d.blur(images.Luma(prev, d.config.Luma)), d.blur(images.Luma(curr, d.config.Luma)))
	if err != nil {
		return nil, errors.Wrap(err, "difference")
	}

	mask, err := images.Dilate(images.Threshold(diff, d.config.Threshold), d.config.DilationRadius)
	if err != nil {
		return nil, errors.Wrap(err, "dilate")
	}
	if mask, err = images.RemoveSmallObjects(mask, d.config.MinArea/10, d.config.RemovalConnectivity); err != nil {
		return nil, errors.Wrap(err, "remove small objects")
	}
	lab, err := images.Label(mask, d.config.LabelConnectivity)
	if err != nil {
		return nil, errors.Wrap(err, "label")
	}

	boxes := []common.BoundingBox{}
	for _, c := range lab.Components {
		if c.Area >= d.config.MinArea {
			boxes = append(boxes, common.NewBoundingBox(c.Bounds))
		}
	}

	return boxes, nil
}

func (d *Detector) blur(field *mat.Dense) *mat.Dense {
	return kernels.GaussianBlur(field, kernels.Options{
		Sigma:    d.config.BlurSigma,
		Edge:     d.config.BlurEdge,
		Pool:     d.pool,
		Parallel: d.config.Parallel,
	})
}

// Detect is a convenience wrapper that validates cfg and runs a single
// detection.
//
// @example
// boxes, err := motion.Detect(prev, curr, motion.DefaultConfig())
func Detect(prev, curr image.Image, cfg Config) ([]common.BoundingBox, error) {
	d, err := NewDetector(cfg)
	if err != nil {
		return nil, err
	}
	return d.Detect(prev, curr)
}
