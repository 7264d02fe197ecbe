package images

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestImage() image.Image {
	// Create a simple 100x100 red image.
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 0, B: 0, A: 255})
		}
	}

	return img
}

// TestResize validates scaling and the pass-through cases.
func TestResize(t *testing.T) {
	src := getTestImage()

	out := Resize(src, image.Pt(50, 30))
	assert.Equal(t, image.Pt(50, 30), out.Bounds().Size(), "resized image should have the target size")
	r, g, b, _ := out.At(25, 15).RGBA()
	assert.InDelta(t, 0xffff, r, 0x300, "uniform color survives resampling")
	assert.Zero(t, g)
	assert.Zero(t, b)

	assert.Same(t, src, Resize(src, image.Pt(100, 100)), "same size is a no-op")
	assert.Same(t, src, Resize(src, image.Point{}), "zero size is a no-op")
	assert.Nil(t, Resize(nil, image.Pt(10, 10)))
}

// TestEncodeDecode validates PNG and JPEG round trips through Save and Decode.
func TestEncodeDecode(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"frame.png", "frame.jpg", "frame.JPEG"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, Save(path, getTestImage()))

			data, err := os.ReadFile(path)
			require.NoError(t, err)

			img, err := Decode(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, image.Pt(100, 100), img.Bounds().Size())
		})
	}

	err := Save(filepath.Join(dir, "frame.webp"), getTestImage())
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = Decode(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

// TestChecksum validates that checksums depend only on pixels and size.
func TestChecksum(t *testing.T) {
	a := getTestImage()

	nrgba := image.NewNRGBA(image.Rect(10, 10, 110, 110))
	for y := 10; y < 110; y++ {
		for x := 10; x < 110; x++ {
			nrgba.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}

	assert.Equal(t, Checksum(a), Checksum(nrgba), "concrete type and origin do not matter")
	assert.NotEqual(t, Checksum(a), Checksum(Resize(a, image.Pt(50, 200))))
	assert.Equal(t, "empty", Checksum(nil))
	assert.Len(t, Checksum(a), 32)
}
