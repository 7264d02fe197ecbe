// Package profiler - Stage timing and runtime statistics for pipeline runs.
package profiler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Profiler records operation timings and custom metrics. It is safe for
// concurrent use.
type Profiler struct {
	reportInterval time.Duration
	maxSamples     int
	logger         *slog.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	startTime time.Time
	running   bool

	metrics    map[string][]float64
	operations map[string][]float64 // seconds
}

// Options configures the profiler.
type Options struct {
	// ReportInterval enables periodic status logs while started. Zero disables
	// them.
	ReportInterval time.Duration
	// MaxSamples caps the samples kept per metric (default: 4096).
	MaxSamples int
	// Logger receives status reports (default: slog.Default()).
	Logger *slog.Logger
}

// Summary holds the statistics of one metric or operation.
type Summary struct {
	Name   string  `json:"name"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
	Max    float64 `json:"max"`
	Total  float64 `json:"total"`
}

// Snapshot is a point-in-time view of the profiler.
type Snapshot struct {
	Uptime     time.Duration `json:"uptime"`
	Goroutines int           `json:"goroutines"`
	HeapAlloc  uint64        `json:"heap_alloc"`
	TotalAlloc uint64        `json:"total_alloc"`
	NumGC      uint32        `json:"num_gc"`
	// Operations are timed in seconds.
	Operations []Summary `json:"operations"`
	Metrics    []Summary `json:"metrics"`
}

// New creates a profiler with the specified options.
//
// Arguments:
// - opts: Configuration options for the profiler
//
// Returns:
// - A configured Profiler instance
//
// @example
// prof := profiler.New(profiler.Options{})
// done := prof.StartOperation("detect")
// ...
// done()
// prof.Log(ctx)
func New(opts Options) *Profiler {
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = 4096
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Profiler{
		reportInterval: opts.ReportInterval,
		maxSamples:     opts.MaxSamples,
		logger:         opts.Logger,
		startTime:      time.Now(),
		metrics:        make(map[string][]float64),
		operations:     make(map[string][]float64),
	}
}

// Start begins periodic status reports when a ReportInterval is set. It can be
// called multiple times safely, and again after Stop.
func (p *Profiler) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running || p.reportInterval <= 0 {
		return
	}
	p.running = true

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(p.reportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Log(ctx)
			}
		}
	}()
}

// Stop stops periodic reports and waits for the reporter to exit.
func (p *Profiler) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
}

// RecordMetric records a custom metric value.
//
// Arguments:
// - name: The name of the metric
// - value: The metric value to record
func (p *Profiler) RecordMetric(name string, value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metrics[name] = p.appendSample(p.metrics[name], value)
}

// StartOperation begins timing an operation.
//
// Arguments:
// - name: The name of the operation to track
//
// Returns:
// - A function to call when the operation completes
func (p *Profiler) StartOperation(name string) func() {
	start := time.Now()
	return func() {
		p.RecordDuration(name, time.Since(start))
	}
}

// RecordDuration records the completion time of an operation.
func (p *Profiler) RecordDuration(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.operations[name] = p.appendSample(p.operations[name], d.Seconds())
}

// appendSample appends v and drops the oldest sample past maxSamples.
func (p *Profiler) appendSample(values []float64, v float64) []float64 {
	values = append(values, v)
	if len(values) > p.maxSamples {
		values = values[len(values)-p.maxSamples:]
	}
	return values
}

// Snapshot returns the current statistics. Summaries are sorted by name.
func (p *Profiler) Snapshot() Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	p.mu.RLock()
	defer p.mu.RUnlock()

	return Snapshot{
		Uptime:     time.Since(p.startTime),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  mem.HeapAlloc,
		TotalAlloc: mem.TotalAlloc,
		NumGC:      mem.NumGC,
		Operations: summarize(p.operations),
		Metrics:    summarize(p.metrics),
	}
}

// Operation returns the summary of one operation, and false if it was never
// recorded.
func (p *Profiler) Operation(name string) (Summary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	values, ok := p.operations[name]
	if !ok {
		return Summary{}, false
	}
	return summary(name, values), true
}

// Metric returns the summary of one metric, and false if it was never
// recorded.
func (p *Profiler) Metric(name string) (Summary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	values, ok := p.metrics[name]
	if !ok {
		return Summary{}, false
	}
	return summary(name, values), true
}

// Log emits the current snapshot as structured log records.
func (p *Profiler) Log(ctx context.Context) {
	s := p.Snapshot()

	p.logger.LogAttrs(ctx, slog.LevelInfo, "profiler status",
		slog.Duration("uptime", s.Uptime.Truncate(time.Millisecond)),
		slog.Int("goroutines", s.Goroutines),
		slog.String("heap_alloc", formatBytes(s.HeapAlloc)),
		slog.String("total_alloc", formatBytes(s.TotalAlloc)),
		slog.Uint64("gc_cycles", uint64(s.NumGC)),
	)

	for _, op := range s.Operations {
		p.logger.LogAttrs(ctx, slog.LevelInfo, "operation timing",
			slog.String("name", op.Name),
			slog.Int("count", op.Count),
			slog.Duration("avg", seconds(op.Mean)),
			slog.Duration("p95", seconds(op.P95)),
			slog.Duration("max", seconds(op.Max)),
			slog.Duration("total", seconds(op.Total)),
		)
	}
	for _, m := range s.Metrics {
		p.logger.LogAttrs(ctx, slog.LevelInfo, "metric",
			slog.String("name", m.Name),
			slog.Int("samples", m.Count),
			slog.Float64("avg", m.Mean),
			slog.Float64("std_dev", m.StdDev),
			slog.Float64("min", m.Min),
			slog.Float64("max", m.Max),
		)
	}
}

func summarize(series map[string][]float64) []Summary {
	out := make([]Summary, 0, len(series))
	for name, values := range series {
		out = append(out, summary(name, values))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func summary(name string, values []float64) Summary {
	s := Summary{Name: name, Count: len(values)}
	if len(values) == 0 {
		return s
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	s.Mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		s.StdDev = stat.StdDev(sorted, nil)
	}
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	s.P95 = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	for _, v := range sorted {
		s.Total += v
	}
	return s
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second)).Truncate(time.Microsecond)
}

// formatBytes formats byte counts in human-readable format.
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
