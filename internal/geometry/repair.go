package geometry

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
)

// ErrInvalidGeometry is returned when a polygon cannot be repaired into
// a simple closed shape.
var ErrInvalidGeometry = errors.New("geometry: invalid polygon")

// Repair normalizes an input polygon into the form the engine requires:
// closed rings, no duplicate consecutive vertices, counter-clockwise
// exterior, clockwise holes, positive area and no self-intersections.
// One cleanup pass is attempted; a polygon that is still degenerate or
// self-intersecting afterwards is rejected with ErrInvalidGeometry.
func Repair(p orb.Polygon) (orb.Polygon, error) {
	if len(p) == 0 {
		return nil, ErrInvalidGeometry
	}

	out := make(orb.Polygon, 0, len(p))
	for i, ring := range p {
		r := cleanRing(ring)
		if r == nil {
			if i == 0 {
				return nil, ErrInvalidGeometry
			}
			continue // degenerate hole, drop it
		}
		wantCCW := i == 0
		if ccw(r) != wantCCW {
			reverseRing(r)
		}
		out = append(out, r)
	}

	if Area(out) < Epsilon {
		return nil, ErrInvalidGeometry
	}
	if selfIntersects(out[0]) {
		return nil, ErrInvalidGeometry
	}
	return out, nil
}

// cleanRing drops consecutive duplicate points and ensures the ring is
// explicitly closed. Returns nil when fewer than three distinct points
// remain.
func cleanRing(ring orb.Ring) orb.Ring {
	var r orb.Ring
	for _, pt := range ring {
		if len(r) > 0 && samePoint(r[len(r)-1], pt) {
			continue
		}
		r = append(r, pt)
	}
	// An explicitly closed input leaves the closing point as a trailing
	// duplicate of the first; strip it before counting distinct points.
	if len(r) > 1 && samePoint(r[0], r[len(r)-1]) {
		r = r[:len(r)-1]
	}
	if len(r) < 3 {
		return nil
	}
	r = append(r, r[0])
	return r
}

func samePoint(a, b orb.Point) bool {
	return math.Abs(a.X()-b.X()) < Epsilon && math.Abs(a.Y()-b.Y()) < Epsilon
}

func ccw(r orb.Ring) bool {
	var sum float64
	for i := 0; i+1 < len(r); i++ {
		sum += (r[i+1].X() - r[i].X()) * (r[i+1].Y() + r[i].Y())
	}
	return sum < 0
}

func reverseRing(r orb.Ring) {
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
}

// selfIntersects checks every pair of non-adjacent segments of a closed
// ring for crossing.
func selfIntersects(r orb.Ring) bool {
	n := len(r) - 1 // closing point repeats the first
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			// Skip adjacent segments, including the first/last pair.
			if i == 0 && j == n-1 {
				continue
			}
			if segmentsIntersect(r[i], r[i+1], r[j], r[j+1]) {
				return true
			}
		}
	}
	return false
}
