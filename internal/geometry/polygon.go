// Package geometry implements the planar polygon operations the nesting
// engine is built on: cardinal rotation, translation, bounds, area,
// intersection, minimum distance and input repair. Polygons are
// orb.Polygon values in millimetres; the first ring is the exterior,
// any further rings are holes.
package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Epsilon is the coordinate tolerance: two coordinates closer than this
// are considered equal. All distances are millimetres.
const Epsilon = 1e-6

// Angles lists the supported cardinal rotations in search order.
var Angles = [4]int{0, 90, 180, 270}

// Area returns the non-negative area of the polygon (holes subtracted).
func Area(p orb.Polygon) float64 {
	return math.Abs(planar.Area(p))
}

// Centroid returns the area-weighted centroid of the polygon.
func Centroid(p orb.Polygon) orb.Point {
	c, _ := planar.CentroidArea(p)
	return c
}

// Clone returns a deep copy of the polygon.
func Clone(p orb.Polygon) orb.Polygon {
	out := make(orb.Polygon, len(p))
	for i, ring := range p {
		r := make(orb.Ring, len(ring))
		copy(r, ring)
		out[i] = r
	}
	return out
}

// Translate shifts every point of the polygon by (dx, dy).
func Translate(p orb.Polygon, dx, dy float64) orb.Polygon {
	out := make(orb.Polygon, len(p))
	for i, ring := range p {
		r := make(orb.Ring, len(ring))
		for j, pt := range ring {
			r[j] = orb.Point{pt.X() + dx, pt.Y() + dy}
		}
		out[i] = r
	}
	return out
}

// Normalize translates the polygon so its bounding box starts at (0, 0).
func Normalize(p orb.Polygon) orb.Polygon {
	b := p.Bound()
	if math.Abs(b.Min.X()) < Epsilon && math.Abs(b.Min.Y()) < Epsilon {
		return p
	}
	return Translate(p, -b.Min.X(), -b.Min.Y())
}

// cardinal sine/cosine tables; exact values keep rotated coordinates
// free of floating-point drift.
var (
	cosTable = map[int]float64{0: 1, 90: 0, 180: -1, 270: 0}
	sinTable = map[int]float64{0: 0, 90: 1, 180: 0, 270: -1}
)

// Rotate rotates the polygon by angle degrees (one of 0, 90, 180, 270)
// about its centroid and re-normalizes the result to the first quadrant.
// Any other angle panics: the engine never requests one.
func Rotate(p orb.Polygon, angle int) orb.Polygon {
	if angle == 0 {
		return p
	}
	cos, ok := cosTable[angle]
	if !ok {
		panic("geometry: unsupported rotation angle")
	}
	sin := sinTable[angle]

	c := Centroid(p)
	out := make(orb.Polygon, len(p))
	for i, ring := range p {
		r := make(orb.Ring, len(ring))
		for j, pt := range ring {
			dx := pt.X() - c.X()
			dy := pt.Y() - c.Y()
			r[j] = orb.Point{
				c.X() + dx*cos - dy*sin,
				c.Y() + dx*sin + dy*cos,
			}
		}
		out[i] = r
	}
	return Normalize(out)
}

// BoundWH returns the width and height of a bound.
func BoundWH(b orb.Bound) (w, h float64) {
	return b.Max.X() - b.Min.X(), b.Max.Y() - b.Min.Y()
}

// Rect builds a rectangle polygon with lower-left corner (x, y).
func Rect(x, y, w, h float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}, {x, y},
	}}
}
