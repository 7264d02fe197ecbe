// Package common - Geometry shared by the motion detector, the viewport tracker
// and the render sink.
package common

import (
	"fmt"
	"image"
)

// BoundingBox is an axis-aligned box in pixel coordinates. (X, Y) is the
// top-left corner; Width and Height are never negative for boxes produced by
// the detector.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewBoundingBox converts an image.Rectangle (exclusive Max) to a BoundingBox.
//
// Arguments:
// - r: The rectangle to convert. It is canonicalized first.
//
// Returns:
// - The equivalent BoundingBox.
//
// @example
// box := NewBoundingBox(image.Rect(10, 10, 30, 30)) // {X:10 Y:10 Width:20 Height:20}
func NewBoundingBox(r image.Rectangle) BoundingBox {
	r = r.Canon()
	return BoundingBox{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", b.X, b.Y, b.Width, b.Height)
}

// Area returns Width*Height in pixels.
func (b BoundingBox) Area() int {
	return b.Width * b.Height
}

// Center returns the integer center of the box. Half sizes are truncated,
// so a 5 pixel wide box starting at 0 has its center at 2.
//
// @example
// BoundingBox{X: 10, Y: 10, Width: 20, Height: 20}.Center() // (20,20)
func (b BoundingBox) Center() image.Point {
	return image.Pt(b.X+b.Width/2, b.Y+b.Height/2)
}

// Right returns the exclusive right edge.
func (b BoundingBox) Right() int {
	return b.X + b.Width
}

// Bottom returns the exclusive bottom edge.
func (b BoundingBox) Bottom() int {
	return b.Y + b.Height
}

// ToRect converts the bounding box to an image.Rectangle.
//
// Returns:
// - An image.Rectangle with Max exclusive, canonicalized.
//
// @example
// box := BoundingBox{X: 100, Y: 100, Width: 100, Height: 200}
// rect := box.ToRect()
// fmt.Printf("Rectangle: %v\n", rect) // Rectangle: (100,100)-(200,300)
func (b BoundingBox) ToRect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.Right(), b.Bottom()).Canon()
}

// Within reports whether the box is non-negative and lies inside a frame of
// the given size.
func (b BoundingBox) Within(width, height int) bool {
	if b.X < 0 || b.Y < 0 || b.Width < 0 || b.Height < 0 {
		return false
	}
	return b.Right() <= width && b.Bottom() <= height
}

// Union returns the smallest box enclosing every box in boxes: the minimum of
// all left and top edges and the maximum of all right and bottom edges.
// Zero-sized boxes still contribute their corner.
//
// Arguments:
// - boxes: The boxes to enclose.
//
// Returns:
// - The enclosing box, and false if boxes is empty.
//
// @example
// u, _ := Union([]BoundingBox{{0, 0, 10, 10}, {20, 20, 10, 10}}) // {0 0 30 30}
func Union(boxes []BoundingBox) (BoundingBox, bool) {
	if len(boxes) == 0 {
		return BoundingBox{}, false
	}

	minX, minY := boxes[0].X, boxes[0].Y
	maxX, maxY := boxes[0].Right(), boxes[0].Bottom()
	for _, b := range boxes[1:] {
		minX = min(minX, b.X)
		minY = min(minY, b.Y)
		maxX = max(maxX, b.Right())
		maxY = max(maxY, b.Bottom())
	}

	return BoundingBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}
