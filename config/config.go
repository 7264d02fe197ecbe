// Package config - YAML configuration for auto-framing runs.
package config

import (
	"bytes"
	"image"
	"io"
	"os"
	"runtime"

	"github.com/nvr-ai/go-autoframe/images"
	"github.com/nvr-ai/go-autoframe/images/kernels"
	"github.com/nvr-ai/go-autoframe/motion"
	"github.com/nvr-ai/go-autoframe/viewport"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config represents a complete run configuration.
type Config struct {
	Detection DetectionConfig `yaml:"detection"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	Source    SourceConfig    `yaml:"source"`
	Output    OutputConfig    `yaml:"output"`
	Workers   int             `yaml:"workers"`    // 0 = runtime.NumCPU()
	MaxFrames int             `yaml:"max_frames"` // 0 = unlimited
}

// DetectionConfig contains the motion detector settings.
type DetectionConfig struct {
	Threshold           float64 `yaml:"threshold"`
	MinArea             int     `yaml:"min_area"`
	BlurSigma           float64 `yaml:"blur_sigma"`
	BlurEdge            string  `yaml:"blur_edge"` // clamp, mirror, wrap
	DilationRadius      int     `yaml:"dilation_radius"`
	RemovalConnectivity int     `yaml:"removal_connectivity"` // 4 or 8
	LabelConnectivity   int     `yaml:"label_connectivity"`   // 4 or 8
	Luma                string  `yaml:"luma"`                 // bt709, bt601
	Parallel            bool    `yaml:"parallel"`
}

// TrackingConfig contains the virtual camera settings.
type TrackingConfig struct {
	Viewport        Size    `yaml:"viewport"`
	SmoothingFactor float64 `yaml:"smoothing_factor"`
	Oversize        string  `yaml:"oversize"` // center, lower_bound
}

// SourceConfig contains frame extraction settings.
type SourceConfig struct {
	TargetFPS  float64 `yaml:"target_fps"`
	Resolution string  `yaml:"resolution"`     // e.g. "HD 720p"; ignored when size is set
	Size       Size    `yaml:"size,omitempty"` // explicit working size
}

// OutputConfig selects the artifacts written by a run.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Frames bool   `yaml:"frames"`
	Crops  bool   `yaml:"crops"`
	Videos bool   `yaml:"videos"`
	Plot   bool   `yaml:"plot"`
	Report bool   `yaml:"report"`
}

// Size is a width and height in pixels.
type Size struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Point converts the size to an image.Point.
func (s Size) Point() image.Point {
	return image.Pt(s.Width, s.Height)
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	det := motion.DefaultConfig()
	trk := viewport.DefaultConfig()

	return &Config{
		Detection: DetectionConfig{
			Threshold:           det.Threshold,
			MinArea:             det.MinArea,
			BlurSigma:           det.BlurSigma,
			BlurEdge:            det.BlurEdge.String(),
			DilationRadius:      det.DilationRadius,
			RemovalConnectivity: int(det.RemovalConnectivity),
			LabelConnectivity:   int(det.LabelConnectivity),
			Luma:                det.Luma.Name,
		},
		Tracking: TrackingConfig{
			Viewport:        Size{Width: trk.ViewportWidth, Height: trk.ViewportHeight},
			SmoothingFactor: trk.SmoothingFactor,
			Oversize:        trk.Oversize.String(),
		},
		Source: SourceConfig{
			TargetFPS:  5,
			Resolution: string(images.DefaultResolution),
		},
		Output: OutputConfig{
			Dir:    "output",
			Frames: true,
			Crops:  true,
			Videos: true,
			Plot:   true,
			Report: true,
		},
	}
}

// Load reads and parses a YAML configuration file. Keys missing from the
// file keep their Default values.
//
// Arguments:
// - path: The YAML file.
//
// Returns:
// - *Config: The validated configuration.
// - error: If the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result. Unknown keys
// are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "failed to parse config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	return data, errors.Wrap(err, "encode config")
}

// Validate checks every section by building the typed configurations.
func (c *Config) Validate() error {
	det, err := c.Detection.Build()
	if err != nil {
		return err
	}
	if err := det.Validate(); err != nil {
		return err
	}

	trk, err := c.Tracking.Build()
	if err != nil {
		return err
	}
	if err := trk.Validate(); err != nil {
		return err
	}

	if c.Source.TargetFPS <= 0 {
		return errors.Errorf("source.target_fps %v must be positive", c.Source.TargetFPS)
	}
	if _, err := c.FrameSize(); err != nil {
		return err
	}
	if c.Workers < 0 {
		return errors.Errorf("workers %d must not be negative", c.Workers)
	}
	if c.MaxFrames < 0 {
		return errors.Errorf("max_frames %d must not be negative", c.MaxFrames)
	}
	if c.Output.Dir == "" && c.writesFiles() {
		return errors.New("output.dir is required")
	}
	return nil
}

func (c *Config) writesFiles() bool {
	o := c.Output
	return o.Frames || o.Crops || o.Videos || o.Plot || o.Report
}

// Build converts the section to a motion.Config. Values are not range
// checked here.
func (d DetectionConfig) Build() (motion.Config, error) {
	luma, err := images.ParseLuma(d.Luma)
	if err != nil {
		return motion.Config{}, errors.Wrap(err, "detection.luma")
	}
	edge, err := kernels.ParseEdgeMode(d.BlurEdge)
	if err != nil {
		return motion.Config{}, errors.Wrap(err, "detection.blur_edge")
	}
	return motion.Config{
		Threshold:           d.Threshold,
		MinArea:             d.MinArea,
		BlurSigma:           d.BlurSigma,
		BlurEdge:            edge,
		DilationRadius:      d.DilationRadius,
		RemovalConnectivity: images.Connectivity(d.RemovalConnectivity),
		LabelConnectivity:   images.Connectivity(d.LabelConnectivity),
		Luma:                luma,
		Parallel:            d.Parallel,
	}, nil
}

// Build converts the section to a viewport.Config. Values are not range
// checked here.
func (t TrackingConfig) Build() (viewport.Config, error) {
	policy, err := viewport.ParseOversizePolicy(t.Oversize)
	if err != nil {
		return viewport.Config{}, errors.Wrap(err, "tracking.oversize")
	}
	return viewport.Config{
		ViewportWidth:   t.Viewport.Width,
		ViewportHeight:  t.Viewport.Height,
		SmoothingFactor: t.SmoothingFactor,
		Oversize:        policy,
	}, nil
}

// MotionConfig returns the validated detector configuration.
func (c *Config) MotionConfig() (motion.Config, error) {
	det, err := c.Detection.Build()
	if err != nil {
		return motion.Config{}, err
	}
	return det, det.Validate()
}

// ViewportConfig returns the validated tracker configuration.
func (c *Config) ViewportConfig() (viewport.Config, error) {
	trk, err := c.Tracking.Build()
	if err != nil {
		return viewport.Config{}, err
	}
	return trk, trk.Validate()
}

// FrameSize resolves the working frame size: source.size when set, otherwise
// the named source.resolution. A zero size keeps decoded frames unscaled.
func (c *Config) FrameSize() (image.Point, error) {
	s := c.Source.Size
	switch {
	case s.Width < 0 || s.Height < 0:
		return image.Point{}, errors.Errorf("source.size %dx%d must not be negative", s.Width, s.Height)
	case s.Width > 0 && s.Height > 0:
		return s.Point(), nil
	case s.Width > 0 || s.Height > 0:
		return image.Point{}, errors.Errorf("source.size %dx%d needs both dimensions", s.Width, s.Height)
	case c.Source.Resolution == "":
		return image.Point{}, nil
	}

	res, err := images.LookupResolution(c.Source.Resolution)
	if err != nil {
		return image.Point{}, errors.Wrap(err, "source.resolution")
	}
	return res.Size(), nil
}

// WorkerCount resolves the detection worker count.
func (c *Config) WorkerCount() int {
	if c.Workers <= 0 {
		return runtime.NumCPU()
	}
	return c.Workers
}
