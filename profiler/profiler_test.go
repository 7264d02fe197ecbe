package profiler

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMetric(t *testing.T) {
	p := New(Options{})
	for _, v := range []float64{4, 1, 3, 2, 5} {
		p.RecordMetric("boxes", v)
	}

	s, ok := p.Metric("boxes")
	require.True(t, ok)
	assert.Equal(t, 5, s.Count)
	assert.Equal(t, 3.0, s.Mean)
	assert.Equal(t, 3.0, s.Median)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.Equal(t, 5.0, s.P95)
	assert.Equal(t, 15.0, s.Total)
	assert.InDelta(t, 1.5811, s.StdDev, 1e-4)

	_, ok = p.Metric("missing")
	assert.False(t, ok)
}

func TestMaxSamples(t *testing.T) {
	p := New(Options{MaxSamples: 3})
	for i := 1; i <= 10; i++ {
		p.RecordMetric("v", float64(i))
	}

	s, ok := p.Metric("v")
	require.True(t, ok)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 8.0, s.Min, "oldest samples are dropped")
}

func TestOperations(t *testing.T) {
	p := New(Options{})
	p.RecordDuration("detect", 2*time.Second)
	p.RecordDuration("detect", 4*time.Second)
	done := p.StartOperation("track")
	done()

	s, ok := p.Operation("detect")
	require.True(t, ok)
	assert.Equal(t, 3.0, s.Mean)
	assert.Equal(t, 6.0, s.Total)

	snap := p.Snapshot()
	require.Len(t, snap.Operations, 2)
	assert.Equal(t, "detect", snap.Operations[0].Name)
	assert.Equal(t, "track", snap.Operations[1].Name)
	assert.Positive(t, snap.Goroutines)
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	p := New(Options{Logger: slog.New(slog.NewTextHandler(&buf, nil))})
	p.RecordDuration("detect", 1500*time.Millisecond)
	p.RecordMetric("boxes", 2)

	p.Log(context.Background())

	out := buf.String()
	assert.Contains(t, out, "profiler status")
	assert.Contains(t, out, "name=detect")
	assert.Contains(t, out, "avg=1.5s")
	assert.Contains(t, out, "name=boxes")
	assert.Equal(t, 3, strings.Count(out, "\n"))
}

func TestStartStop(t *testing.T) {
	p := New(Options{ReportInterval: time.Millisecond, Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))})
	p.Start()
	p.Start()
	time.Sleep(5 * time.Millisecond)
	p.Stop()
	p.Stop()

	idle := New(Options{})
	idle.Start()
	idle.Stop()
}

func TestRestartAfterStop(t *testing.T) {
	var buf bytes.Buffer
	p := New(Options{ReportInterval: time.Millisecond, Logger: slog.New(slog.NewTextHandler(&buf, nil))})

	p.Start()
	p.Stop()
	buf.Reset()

	p.Start()
	time.Sleep(20 * time.Millisecond)
	p.Stop()

	assert.Contains(t, buf.String(), "profiler status", "reports resume after a restart")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2*1024*1024))
}
