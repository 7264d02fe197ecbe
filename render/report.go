package render

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/nvr-ai/go-autoframe/common"
	"github.com/nvr-ai/go-autoframe/motion"
	"github.com/nvr-ai/go-autoframe/viewport"
	"github.com/pkg/errors"
)

// Report is the machine readable summary of a run.
type Report struct {
	RunID       string          `json:"run_id"`
	CreatedAt   time.Time       `json:"created_at"`
	FrameWidth  int             `json:"frame_width"`
	FrameHeight int             `json:"frame_height"`
	FrameRate   float64         `json:"frame_rate"`
	Detection   motion.Config   `json:"detection"`
	Tracking    viewport.Config `json:"tracking"`
	Frames      []FrameReport   `json:"frames"`
}

// FrameReport holds the results of one frame.
type FrameReport struct {
	Index    int                    `json:"index"`
	Offset   time.Duration          `json:"offset_ns"`
	Checksum string                 `json:"checksum,omitempty"`
	Boxes    []common.BoundingBox   `json:"boxes"`
	ROI      viewport.ROI           `json:"roi"`
	Position viewport.Position      `json:"position"`
	Activity motion.ActivityMetrics `json:"activity"`
}

// ActiveFrames returns the number of frames with at least one motion box.
func (r *Report) ActiveFrames() int {
	n := 0
	for _, f := range r.Frames {
		if len(f.Boxes) > 0 {
			n++
		}
	}
	return n
}

// WriteReport writes r as indented JSON, creating parent directories.
//
// @example
// err := render.WriteReport("output/report.json", report)
func WriteReport(path string, r *Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create report directory")
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode report")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o644), "write report")
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read report")
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(err, "decode report")
	}
	return &r, nil
}
