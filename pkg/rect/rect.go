// Package rect implements integer pixel rectangle arithmetic used when
// cutting subsets out of raster images.
//
// A Rect is the half-open pixel range [OffsetX, OffsetX+SizeX) x
// [OffsetY, OffsetY+SizeY). Sizes are never negative and a rectangle with
// zero area is empty.
package rect

import (
	"fmt"
	"strconv"
	"strings"
)

// Point is a pixel position or a pixel offset.
type Point struct {
	X, Y int
}

// Rect is an axis-aligned pixel rectangle.
type Rect struct {
	OffsetX int `json:"offset_x"`
	OffsetY int `json:"offset_y"`
	SizeX   int `json:"size_x"`
	SizeY   int `json:"size_y"`
}

// New returns the rectangle with the given offset and size. Negative sizes
// are clamped to zero.
func New(offsetX, offsetY, sizeX, sizeY int) Rect {
	return Rect{
		OffsetX: offsetX,
		OffsetY: offsetY,
		SizeX:   max(sizeX, 0),
		SizeY:   max(sizeY, 0),
	}
}

// FromUpper returns the rectangle spanning from the offset up to the
// exclusive upper corner.
func FromUpper(offsetX, offsetY, upperX, upperY int) Rect {
	return New(offsetX, offsetY, upperX-offsetX, upperY-offsetY)
}

// FromBounds returns the rectangle covering the inclusive pixel bounds
// minx..maxx, miny..maxy.
func FromBounds(minx, miny, maxx, maxy int) Rect {
	return New(minx, miny, maxx-minx+1, maxy-miny+1)
}

// Offset returns the upper left corner.
func (r Rect) Offset() Point {
	return Point{r.OffsetX, r.OffsetY}
}

// Size returns the extent as a point.
func (r Rect) Size() Point {
	return Point{r.SizeX, r.SizeY}
}

// UpperX is the first column right of the rectangle.
func (r Rect) UpperX() int {
	return r.OffsetX + r.SizeX
}

// UpperY is the first row below the rectangle.
func (r Rect) UpperY() int {
	return r.OffsetY + r.SizeY
}

// Area returns SizeX*SizeY.
func (r Rect) Area() int {
	return r.SizeX * r.SizeY
}

// IsEmpty reports whether the rectangle covers no pixel.
func (r Rect) IsEmpty() bool {
	return r.SizeX <= 0 || r.SizeY <= 0
}

// Intersects reports whether r and other overlap in both axes. Rectangles
// that only touch along an edge do not intersect.
func (r Rect) Intersects(other Rect) bool {
	if r.IsEmpty() || other.IsEmpty() {
		return false
	}
	return r.OffsetX < other.UpperX() && other.OffsetX < r.UpperX() &&
		r.OffsetY < other.UpperY() && other.OffsetY < r.UpperY()
}

// Intersection returns the largest rectangle contained in both r and other.
// Callers check Intersects first: for disjoint rectangles the result is an
// empty rectangle whose offset carries no meaning.
func (r Rect) Intersection(other Rect) Rect {
	return FromUpper(
		max(r.OffsetX, other.OffsetX),
		max(r.OffsetY, other.OffsetY),
		min(r.UpperX(), other.UpperX()),
		min(r.UpperY(), other.UpperY()),
	)
}

// Union returns the smallest rectangle containing both r and other. Empty
// rectangles do not contribute.
func (r Rect) Union(other Rect) Rect {
	switch {
	case r.IsEmpty():
		return other
	case other.IsEmpty():
		return r
	}
	return FromUpper(
		min(r.OffsetX, other.OffsetX),
		min(r.OffsetY, other.OffsetY),
		max(r.UpperX(), other.UpperX()),
		max(r.UpperY(), other.UpperY()),
	)
}

// Translate moves the rectangle by dx, dy keeping its size.
func (r Rect) Translate(dx, dy int) Rect {
	r.OffsetX += dx
	r.OffsetY += dy
	return r
}

// Add moves the rectangle by p.
func (r Rect) Add(p Point) Rect {
	return r.Translate(p.X, p.Y)
}

// Sub moves the rectangle by -p. r.Sub(r.Offset()) anchors r at the origin,
// which maps a source-space subset into destination pixel space.
func (r Rect) Sub(p Point) Rect {
	return r.Translate(-p.X, -p.Y)
}

// Contains reports whether other lies completely inside r. An empty
// rectangle is contained in any rectangle.
func (r Rect) Contains(other Rect) bool {
	if other.IsEmpty() {
		return true
	}
	return r.OffsetX <= other.OffsetX && other.UpperX() <= r.UpperX() &&
		r.OffsetY <= other.OffsetY && other.UpperY() <= r.UpperY()
}

// ContainsPoint reports whether pixel (x, y) lies inside r.
func (r Rect) ContainsPoint(x, y int) bool {
	return r.OffsetX <= x && x < r.UpperX() && r.OffsetY <= y && y < r.UpperY()
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", r.OffsetX, r.OffsetY, r.SizeX, r.SizeY)
}

// Parse reads a rectangle written as "offset_x,offset_y,size_x,size_y",
// optionally wrapped in parentheses.
func Parse(s string) (Rect, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Rect{}, fmt.Errorf("rectangle must be in format 'offset_x,offset_y,size_x,size_y': %q", s)
	}

	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Rect{}, fmt.Errorf("invalid rectangle component %q: %w", p, err)
		}
		v[i] = n
	}
	if v[2] < 0 || v[3] < 0 {
		return Rect{}, fmt.Errorf("rectangle size must not be negative: %q", s)
	}

	return New(v[0], v[1], v[2], v[3]), nil
}
