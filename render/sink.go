// Package render - Output sinks for annotated frames, viewport crops, videos,
// trajectory plots and run reports.
package render

import (
	"github.com/nvr-ai/go-autoframe/common"
	"github.com/nvr-ai/go-autoframe/images"
	"github.com/nvr-ai/go-autoframe/viewport"
	"github.com/pkg/errors"
)

// Sink consumes the per-frame results of a run in frame order.
type Sink interface {
	// WriteFrame persists one frame with its motion boxes and viewport center.
	WriteFrame(f images.Frame, boxes []common.BoundingBox, pos viewport.Position) error
	// Close flushes and releases the sink.
	Close() error
}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) WriteFrame(images.Frame, []common.BoundingBox, viewport.Position) error {
	return nil
}

func (discard) Close() error { return nil }

// multi fans frames out to several sinks.
type multi []Sink

// Multi returns a Sink that writes to every sink in order. WriteFrame stops at
// the first failure; Close closes every sink and returns the first error.
//
// @example
// sink := render.Multi(files, recorder)
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multi) WriteFrame(f images.Frame, boxes []common.BoundingBox, pos viewport.Position) error {
	for _, s := range m {
		if err := s.WriteFrame(f, boxes, pos); err != nil {
			return err
		}
	}
	return nil
}

func (m multi) Close() error {
	var first error
	for _, s := range m {
		if err := s.Close(); err != nil && first == nil {
			first = errors.Wrap(err, "close sink")
		}
	}
	return first
}
