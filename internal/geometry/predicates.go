package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Intersects reports whether the two closed polygons share any point,
// boundary contact included.
func Intersects(a, b orb.Polygon) bool {
	if !boundsTouch(a.Bound(), b.Bound()) {
		return false
	}
	// Any pair of boundary segments crossing or touching.
	for _, ra := range a {
		for _, rb := range b {
			if ringsIntersect(ra, rb) {
				return true
			}
		}
	}
	// Full containment: one polygon entirely inside the other.
	if len(a) > 0 && len(a[0]) > 0 && planar.PolygonContains(b, a[0][0]) {
		return true
	}
	if len(b) > 0 && len(b[0]) > 0 && planar.PolygonContains(a, b[0][0]) {
		return true
	}
	return false
}

// Distance returns the minimum Euclidean distance between the two
// polygons. It is zero iff they intersect.
func Distance(a, b orb.Polygon) float64 {
	if Intersects(a, b) {
		return 0
	}
	best := math.Inf(1)
	for _, ra := range a {
		for _, rb := range b {
			if d := ringDistance(ra, rb); d < best {
				best = d
			}
		}
	}
	return best
}

func boundsTouch(a, b orb.Bound) bool {
	return a.Min.X() <= b.Max.X()+Epsilon && b.Min.X() <= a.Max.X()+Epsilon &&
		a.Min.Y() <= b.Max.Y()+Epsilon && b.Min.Y() <= a.Max.Y()+Epsilon
}

// BoundsGap returns the axis-separated distance between two bounding
// boxes: zero when they overlap or touch.
func BoundsGap(a, b orb.Bound) float64 {
	dx := math.Max(0, math.Max(b.Min.X()-a.Max.X(), a.Min.X()-b.Max.X()))
	dy := math.Max(0, math.Max(b.Min.Y()-a.Max.Y(), a.Min.Y()-b.Max.Y()))
	return math.Hypot(dx, dy)
}

func ringsIntersect(a, b orb.Ring) bool {
	for i := 0; i+1 < len(a); i++ {
		for j := 0; j+1 < len(b); j++ {
			if segmentsIntersect(a[i], a[i+1], b[j], b[j+1]) {
				return true
			}
		}
	}
	return false
}

func ringDistance(a, b orb.Ring) float64 {
	best := math.Inf(1)
	for i := 0; i+1 < len(a); i++ {
		for j := 0; j+1 < len(b); j++ {
			d := segSegDistance(a[i], a[i+1], b[j], b[j+1])
			if d < best {
				best = d
				if best < Epsilon {
					return 0
				}
			}
		}
	}
	return best
}

// orientation of the triplet (p, q, r): 0 collinear, 1 clockwise,
// 2 counter-clockwise, with Epsilon slack on the cross product.
func orientation(p, q, r orb.Point) int {
	v := (q.Y()-p.Y())*(r.X()-q.X()) - (q.X()-p.X())*(r.Y()-q.Y())
	if math.Abs(v) < Epsilon {
		return 0
	}
	if v > 0 {
		return 1
	}
	return 2
}

func onSegment(p, q, r orb.Point) bool {
	return q.X() <= math.Max(p.X(), r.X())+Epsilon && q.X() >= math.Min(p.X(), r.X())-Epsilon &&
		q.Y() <= math.Max(p.Y(), r.Y())+Epsilon && q.Y() >= math.Min(p.Y(), r.Y())-Epsilon
}

func segmentsIntersect(p1, q1, p2, q2 orb.Point) bool {
	o1 := orientation(p1, q1, p2)
	o2 := orientation(p1, q1, q2)
	o3 := orientation(p2, q2, p1)
	o4 := orientation(p2, q2, q1)

	if o1 != o2 && o3 != o4 {
		return true
	}
	if o1 == 0 && onSegment(p1, p2, q1) {
		return true
	}
	if o2 == 0 && onSegment(p1, q2, q1) {
		return true
	}
	if o3 == 0 && onSegment(p2, p1, q2) {
		return true
	}
	if o4 == 0 && onSegment(p2, q1, q2) {
		return true
	}
	return false
}

func pointSegDistance(p, a, b orb.Point) float64 {
	abx := b.X() - a.X()
	aby := b.Y() - a.Y()
	l2 := abx*abx + aby*aby
	if l2 < Epsilon*Epsilon {
		return math.Hypot(p.X()-a.X(), p.Y()-a.Y())
	}
	t := ((p.X()-a.X())*abx + (p.Y()-a.Y())*aby) / l2
	t = math.Max(0, math.Min(1, t))
	cx := a.X() + t*abx
	cy := a.Y() + t*aby
	return math.Hypot(p.X()-cx, p.Y()-cy)
}

func segSegDistance(p1, q1, p2, q2 orb.Point) float64 {
	if segmentsIntersect(p1, q1, p2, q2) {
		return 0
	}
	d := pointSegDistance(p1, p2, q2)
	if v := pointSegDistance(q1, p2, q2); v < d {
		d = v
	}
	if v := pointSegDistance(p2, p1, q1); v < d {
		d = v
	}
	if v := pointSegDistance(q2, p1, q1); v < d {
		d = v
	}
	return d
}
