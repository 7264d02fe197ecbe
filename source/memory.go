package source

import (
	"context"
	"image"
	"io"
	"sync"
	"time"

	"github.com/nvr-ai/go-autoframe/images"
)

// Memory serves frames from a slice. It is safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	frames []image.Image
	fps    float64
	next   int
	closed bool
}

// NewMemory creates a source over frames emitted at fps.
//
// @example
// src := source.NewMemory([]image.Image{a, b, c}, 5)
// defer src.Close()
func NewMemory(frames []image.Image, fps float64) *Memory {
	return &Memory{frames: frames, fps: fps}
}

// Next implements Source.
func (m *Memory) Next(ctx context.Context) (images.Frame, error) {
	if err := ctx.Err(); err != nil {
		return images.Frame{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return images.Frame{}, ErrClosed
	}
	if m.next >= len(m.frames) {
		return images.Frame{}, io.EOF
	}

	f := images.Frame{Index: m.next, Image: m.frames[m.next], Offset: offset(m.next, m.fps)}
	m.next++
	return f, nil
}

// FrameRate implements Source.
func (m *Memory) FrameRate() float64 {
	return m.fps
}

// Close implements Source.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// offset converts a frame index to a presentation time.
func offset(index int, fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(index) / fps * float64(time.Second))
}
