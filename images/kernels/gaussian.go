package kernels

import (
	"math"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// EdgeMode defines how sampling behaves outside the field bounds.
// - Clamp: repeats edge samples ("nearest").
// - Mirror: reflects coordinates, duplicating the edge sample.
// - Wrap: tiles the field.
type EdgeMode int

const (
	EdgeClamp EdgeMode = iota
	EdgeMirror
	EdgeWrap
)

// ErrUnknownEdgeMode is returned by ParseEdgeMode for unsupported names.
var ErrUnknownEdgeMode = errors.New("unknown edge mode")

// ParseEdgeMode looks up an edge mode by name: "clamp" (or "nearest"),
// "mirror" (or "reflect") and "wrap". An empty name selects EdgeClamp.
func ParseEdgeMode(name string) (EdgeMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "clamp", "nearest":
		return EdgeClamp, nil
	case "mirror", "reflect":
		return EdgeMirror, nil
	case "wrap":
		return EdgeWrap, nil
	default:
		return EdgeClamp, errors.Wrapf(ErrUnknownEdgeMode, "%q", name)
	}
}

// Valid reports whether m is one of the defined modes.
func (m EdgeMode) Valid() bool {
	return m >= EdgeClamp && m <= EdgeWrap
}

func (m EdgeMode) String() string {
	switch m {
	case EdgeClamp:
		return "clamp"
	case EdgeMirror:
		return "mirror"
	case EdgeWrap:
		return "wrap"
	default:
		return "unknown"
	}
}

// DefaultTruncate is the kernel half-width in standard deviations.
const DefaultTruncate = 4.0

// Options configures GaussianBlur.
type Options struct {
	Sigma    float64  // Standard deviation in pixels. Values <= 0 return a copy.
	Truncate float64  // Kernel radius in sigmas; 0 means DefaultTruncate.
	Edge     EdgeMode // Edge sampling mode.
	Pool     *Pool    // Optional buffer pool for the intermediate pass.
	Parallel bool     // Split rows/columns across goroutines.
}

// Pool lets callers reuse intermediate buffers across frames.
type Pool struct {
	buf sync.Pool // *[]float64
}

// Get returns a slice of length n, reusing a pooled buffer when it is large
// enough. Contents are undefined.
func (p *Pool) Get(n int) []float64 {
	if p == nil {
		return make([]float64, n)
	}
	if v := p.buf.Get(); v != nil {
		b := *v.(*[]float64)
		if cap(b) >= n {
			return b[:n]
		}
	}
	return make([]float64, n)
}

// Put hands a buffer back to the pool.
func (p *Pool) Put(b []float64) {
	if p == nil || b == nil {
		return
	}
	p.buf.Put(&b)
}

// Radius returns the kernel radius used for sigma and truncate:
// int(truncate*sigma + 0.5).
func Radius(sigma, truncate float64) int {
	if truncate <= 0 {
		truncate = DefaultTruncate
	}
	return int(truncate*sigma + 0.5)
}

// GaussianKernel creates a normalized 1D Gaussian kernel of length
// 2*Radius(sigma, truncate)+1.
//
// Arguments:
// - sigma: Standard deviation of the Gaussian, > 0.
// - truncate: Radius in standard deviations; 0 selects DefaultTruncate.
//
// Returns:
// - The kernel, summing to 1.
//
// @example
// k := GaussianKernel(1.0, 4.0) // 9 taps
func GaussianKernel(sigma, truncate float64) []float64 {
	radius := Radius(sigma, truncate)
	kernel := make([]float64, 2*radius+1)

	denom := 2.0 * sigma * sigma
	for i := range kernel {
		x := float64(i - radius)
		kernel[i] = math.Exp(-(x * x) / denom)
	}
	floats.Scale(1/floats.Sum(kernel), kernel)

	return kernel
}

// GaussianBlur applies a separable Gaussian blur to a field.
//
// The horizontal pass runs first, then the vertical pass, each reading
// out-of-range samples according to opt.Edge. Results do not depend on
// opt.Parallel.
//
// Arguments:
// - src: The field to blur; it is not modified.
// - opt: Blur options.
//
// Returns:
// - A new blurred field with the same shape.
//
// @example
// blurred := GaussianBlur(field, Options{Sigma: 1.0, Edge: EdgeClamp})
func GaussianBlur(src *mat.Dense, opt Options) *mat.Dense {
	rows, cols := src.Dims()
	if opt.Sigma <= 0 {
		return mat.DenseCopyOf(src)
	}

	kernel := GaussianKernel(opt.Sigma, opt.Truncate)
	radius := len(kernel) / 2

	in := src.RawMatrix()
	tmp := opt.Pool.Get(rows * cols)
	out := make([]float64, rows*cols)

	// 1) Horizontal pass into tmp.
	run(rows, opt.Parallel, func(y int) {
		srcRow := in.Data[y*in.Stride : y*in.Stride+cols]
		dstRow := tmp[y*cols : (y+1)*cols]
		for x := range dstRow {
			var sum float64
			for k, w := range kernel {
				sum += w * srcRow[mapCoord(x+k-radius, cols, opt.Edge)]
			}
			dstRow[x] = sum
		}
	})

	// 2) Vertical pass into out.
	run(cols, opt.Parallel, func(x int) {
		for y := 0; y < rows; y++ {
			var sum float64
			for k, w := range kernel {
				sum += w * tmp[mapCoord(y+k-radius, rows, opt.Edge)*cols+x]
			}
			out[y*cols+x] = sum
		}
	})

	opt.Pool.Put(tmp)
	return mat.NewDense(rows, cols, out)
}

// run calls task for every index in [0, n), optionally spreading contiguous
// chunks over goroutines.
func run(n int, parallel bool, task func(i int)) {
	if !parallel || n < 4 {
		for i := 0; i < n; i++ {
			task(i)
		}
		return
	}

	chunk := chooseChunk(n)
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				task(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// mapCoord maps an index i to [0, n) according to edge mode.
// For Clamp: clamp to [0, n-1].
// For Mirror: reflect indices ... -2,-1,0,1,2, ... -> 1,0,0,1,2, ... .
// For Wrap: modulo wrap to [0, n).
func mapCoord(i, n int, mode EdgeMode) int {
	switch mode {
	case EdgeMirror:
		if n == 1 {
			return 0
		}
		for i < 0 || i >= n {
			if i < 0 {
				i = -i - 1
			} else if i >= n {
				i = 2*n - i - 1
			}
		}
		return i
	case EdgeWrap:
		if n == 0 {
			return 0
		}
		i %= n
		if i < 0 {
			i += n
		}
		return i
	default:
		if i < 0 {
			return 0
		}
		if i >= n {
			return n - 1
		}
		return i
	}
}

// chooseChunk picks a work chunk size that balances overhead and cache locality.
func chooseChunk(n int) int {
	switch {
	case n >= 2048:
		return 128
	case n >= 512:
		return 64
	default:
		return 32
	}
}
