package common

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundingBoxCenter(t *testing.T) {
	tests := []struct {
		name string
		box  BoundingBox
		want image.Point
	}{
		{"even size", BoundingBox{X: 10, Y: 10, Width: 20, Height: 20}, image.Pt(20, 20)},
		{"odd size truncates", BoundingBox{X: 0, Y: 0, Width: 5, Height: 3}, image.Pt(2, 1)},
		{"zero size", BoundingBox{X: 7, Y: 9}, image.Pt(7, 9)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.box.Center())
		})
	}
}

func TestBoundingBoxRectRoundTrip(t *testing.T) {
	box := BoundingBox{X: 100, Y: 100, Width: 100, Height: 200}
	rect := box.ToRect()

	assert.Equal(t, image.Rect(100, 100, 200, 300), rect)
	assert.Equal(t, box, NewBoundingBox(rect))
	assert.Equal(t, box, NewBoundingBox(image.Rect(200, 300, 100, 100)), "rectangles are canonicalized")
}

func TestUnion(t *testing.T) {
	_, ok := Union(nil)
	assert.False(t, ok)

	u, ok := Union([]BoundingBox{{X: 0, Y: 5, Width: 10, Height: 10}, {X: 20, Y: 0, Width: 10, Height: 10}})
	assert.True(t, ok)
	assert.Equal(t, BoundingBox{X: 0, Y: 0, Width: 30, Height: 15}, u)

	u, _ = Union([]BoundingBox{{X: 4, Y: 4}, {X: 8, Y: 2}})
	assert.Equal(t, BoundingBox{X: 4, Y: 2, Width: 4, Height: 2}, u, "zero-sized boxes still contribute their corner")
}

func TestWithin(t *testing.T) {
	assert.True(t, BoundingBox{X: 0, Y: 0, Width: 64, Height: 48}.Within(64, 48))
	assert.False(t, BoundingBox{X: 1, Y: 0, Width: 64, Height: 48}.Within(64, 48))
	assert.False(t, BoundingBox{X: -1, Y: 0, Width: 2, Height: 2}.Within(64, 48))
}
