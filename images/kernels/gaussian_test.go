package kernels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestGaussianKernel(t *testing.T) {
	k := GaussianKernel(1.0, 0)

	require.Len(t, k, 9)
	assert.InDelta(t, 1.0, floats.Sum(k), 1e-12)
	for i := 0; i < len(k)/2; i++ {
		assert.Equal(t, k[i], k[len(k)-1-i], "kernel is symmetric")
		assert.Less(t, k[i], k[i+1], "kernel rises toward the center")
	}
	assert.InDelta(t, 0.39894, k[4], 1e-4)

	assert.Len(t, GaussianKernel(2.0, 3.0), 13)
	assert.Equal(t, 4, Radius(1.0, 4.0))
	assert.Equal(t, 2, Radius(0.5, 4.0))
}

func TestGaussianBlurConstantField(t *testing.T) {
	src := mat.NewDense(5, 7, nil)
	src.Apply(func(_, _ int, _ float64) float64 { return 0.25 }, src)

	for _, edge := range []EdgeMode{EdgeClamp, EdgeMirror, EdgeWrap} {
		out := GaussianBlur(src, Options{Sigma: 1, Edge: edge})
		assert.True(t, mat.EqualApprox(src, out, 1e-12), "edge mode %d", edge)
	}
}

func TestGaussianBlurImpulse(t *testing.T) {
	src := mat.NewDense(21, 21, nil)
	src.Set(10, 10, 1)

	out := GaussianBlur(src, Options{Sigma: 1})
	k := GaussianKernel(1, 0)

	assert.InDelta(t, 1.0, mat.Sum(out), 1e-12, "energy is preserved away from the edges")
	assert.InDelta(t, k[4]*k[4], out.At(10, 10), 1e-12)
	assert.InDelta(t, k[4]*k[5], out.At(10, 11), 1e-12)
	assert.Equal(t, 0.0, out.At(10, 15), "kernel is truncated at 4 sigma")
	assert.Equal(t, 1.0, src.At(10, 10), "source is untouched")
}

func TestGaussianBlurParallelMatchesSerial(t *testing.T) {
	src := mat.NewDense(300, 200, nil)
	src.Apply(func(i, j int, _ float64) float64 { return float64((i*31+j*17)%97) / 97 }, src)

	pool := &Pool{}
	serial := GaussianBlur(src, Options{Sigma: 1.5})
	parallel := GaussianBlur(src, Options{Sigma: 1.5, Parallel: true, Pool: pool})
	again := GaussianBlur(src, Options{Sigma: 1.5, Parallel: true, Pool: pool})

	assert.True(t, mat.Equal(serial, parallel))
	assert.True(t, mat.Equal(serial, again))
}

func TestGaussianBlurZeroSigmaCopies(t *testing.T) {
	src := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	out := GaussianBlur(src, Options{})

	assert.True(t, mat.Equal(src, out))
	out.Set(0, 0, 9)
	assert.Equal(t, 1.0, src.At(0, 0))
}

func TestMapCoord(t *testing.T) {
	tests := []struct {
		i, n int
		mode EdgeMode
		want int
	}{
		{-1, 5, EdgeClamp, 0},
		{7, 5, EdgeClamp, 4},
		{-1, 5, EdgeMirror, 0},
		{-2, 5, EdgeMirror, 1},
		{5, 5, EdgeMirror, 4},
		{-1, 5, EdgeWrap, 4},
		{6, 5, EdgeWrap, 1},
		{2, 5, EdgeWrap, 2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, mapCoord(tt.i, tt.n, tt.mode), "mapCoord(%d, %d, %d)", tt.i, tt.n, tt.mode)
	}
}

func TestParseEdgeMode(t *testing.T) {
	tests := []struct {
		name    string
		want    EdgeMode
		wantErr bool
	}{
		{"", EdgeClamp, false},
		{"clamp", EdgeClamp, false},
		{"Reflect", EdgeMirror, false},
		{"mirror", EdgeMirror, false},
		{" wrap ", EdgeWrap, false},
		{"zero", EdgeClamp, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEdgeMode(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownEdgeMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())

			back, err := ParseEdgeMode(got.String())
			require.NoError(t, err)
			assert.Equal(t, got, back)
		})
	}

	assert.False(t, EdgeMode(7).Valid())
}

func TestGaussianBlurEdgeModes(t *testing.T) {
	// A bright left column. Wrap bleeds it into the right edge; clamp repeats
	// it past the left edge, mirror only once.
	src := mat.NewDense(3, 6, []float64{
		1, 0, 0, 0, 0, 0,
		1, 0, 0, 0, 0, 0,
		1, 0, 0, 0, 0, 0,
	})

	clamp := GaussianBlur(src, Options{Sigma: 1, Edge: EdgeClamp})
	wrap := GaussianBlur(src, Options{Sigma: 1, Edge: EdgeWrap})

	assert.InDelta(t, 0, clamp.At(1, 5), 1e-3)
	assert.Greater(t, wrap.At(1, 5), 0.2)
	mirror := GaussianBlur(src, Options{Sigma: 1, Edge: EdgeMirror})

	k := GaussianKernel(1, 0)
	assert.InDelta(t, floats.Sum(k[:5]), clamp.At(1, 0), 1e-12)
	assert.InDelta(t, k[3]+k[4], mirror.At(1, 0), 1e-12)
}
