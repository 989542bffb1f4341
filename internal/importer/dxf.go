package importer

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/asergeenko/carpetnest/internal/geometry"
)

// Parameters of the suspicious-file heuristic: a drawing whose combined
// area is tiny but which carries many SPLINE entities is almost always
// a decorative engraving file, not a carpet contour.
const (
	suspiciousAreaMM2 = 10000.0
	suspiciousSplines = 10
)

// arc/circle tessellation density
const (
	circleSegments = 64
	arcSegments    = 32
)

// DXFResult is the outcome of reading one DXF file: the combined carpet
// polygon (nil when nothing usable was found) plus accumulated warnings
// and errors. Errors mean the file is unusable; warnings mean entities
// were skipped.
type DXFResult struct {
	Polygon     orb.Polygon
	EntityCount int
	SplineCount int
	Warnings    []string
	Errors      []string
}

// Ok reports whether a usable polygon was produced.
func (r DXFResult) Ok() bool { return len(r.Errors) == 0 && r.Polygon != nil }

// segment is a line piece used when chaining loose LINE/ARC entities
// into closed outlines.
type segment struct {
	start, end orb.Point
}

// ImportDXF reads a carpet contour from a DXF file. Closed shapes
// (LWPOLYLINE, CIRCLE, chains of LINEs and ARCs) are collected, the
// largest becomes the carpet exterior and shapes fully inside it become
// holes. The result is repaired and normalized to the first quadrant.
func ImportDXF(path string) DXFResult {
	result := DXFResult{}

	raw, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("cannot read DXF file: %v", err))
		return result
	}
	// yofu/dxf skips SPLINE entities, so count them on the raw text.
	result.SplineCount = bytes.Count(raw, []byte("\nSPLINE"))

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	result.EntityCount = len(entities)
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	var rings []orb.Ring
	var segments []segment

	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			ring := lwPolylineToRing(e)
			if len(ring) >= 3 {
				rings = append(rings, ring)
			} else {
				result.Warnings = append(result.Warnings, "skipped LWPOLYLINE with fewer than 3 vertices")
			}

		case *entity.Circle:
			rings = append(rings, circleToRing(e, circleSegments))

		case *entity.Arc:
			pts := arcToPoints(e, arcSegments)
			segments = append(segments, pointsToSegments(pts)...)

		case *entity.Line:
			segments = append(segments, segment{
				start: orb.Point{e.Start[0], e.Start[1]},
				end:   orb.Point{e.End[0], e.End[1]},
			})

		default:
			// Unsupported entity types are skipped; SPLINEs are already
			// counted above.
		}
	}

	for _, chained := range chainSegments(segments, 0.01) {
		if len(chained) >= 3 {
			rings = append(rings, chained)
		}
	}

	if len(rings) == 0 {
		result.Errors = append(result.Errors, "no closed shapes found in DXF file")
		return result
	}

	combined := combineRings(rings, &result)
	repaired, err := geometry.Repair(combined)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("unrepairable contour: %v", err))
		return result
	}
	repaired = geometry.Normalize(repaired)

	if suspiciousDrawing(geometry.Area(repaired), result.SplineCount) {
		result.Errors = append(result.Errors, fmt.Sprintf(
			"suspicious drawing: area %.0f mm^2 with %d splines, skipped",
			geometry.Area(repaired), result.SplineCount))
		return result
	}

	result.Polygon = repaired
	return result
}

// suspiciousDrawing applies the engraving-file heuristic.
func suspiciousDrawing(areaMM2 float64, splineCount int) bool {
	return areaMM2 < suspiciousAreaMM2 && splineCount > suspiciousSplines
}

// combineRings picks the largest ring as the carpet exterior; rings
// fully contained in it become holes, anything else is reported and
// dropped.
func combineRings(rings []orb.Ring, result *DXFResult) orb.Polygon {
	largest := 0
	largestArea := 0.0
	for i, r := range rings {
		if a := math.Abs(planar.Area(r)); a > largestArea {
			largestArea = a
			largest = i
		}
	}

	combined := orb.Polygon{closeRing(rings[largest])}
	exterior := orb.Polygon{combined[0]}
	for i, r := range rings {
		if i == largest {
			continue
		}
		closed := closeRing(r)
		if len(closed) > 0 && planar.PolygonContains(exterior, closed[0]) {
			combined = append(combined, closed)
		} else {
			result.Warnings = append(result.Warnings, "dropped outline outside the main contour")
		}
	}
	return combined
}

func closeRing(r orb.Ring) orb.Ring {
	if len(r) > 0 && r[0] != r[len(r)-1] {
		r = append(r, r[0])
	}
	return r
}

// lwPolylineToRing converts an LWPOLYLINE to a ring, tessellating
// bulged (arc) segments.
func lwPolylineToRing(lw *entity.LwPolyline) orb.Ring {
	var ring orb.Ring
	for i := 0; i < len(lw.Vertices); i++ {
		v := lw.Vertices[i]
		current := orb.Point{v[0], v[1]}

		bulge := 0.0
		if i < len(lw.Bulges) {
			bulge = lw.Bulges[i]
		}
		if math.Abs(bulge) > 1e-9 {
			nextIdx := (i + 1) % len(lw.Vertices)
			next := orb.Point{lw.Vertices[nextIdx][0], lw.Vertices[nextIdx][1]}
			arcPts := bulgeArcPoints(current, next, bulge, arcSegments)
			ring = append(ring, arcPts[:len(arcPts)-1]...)
		} else {
			ring = append(ring, current)
		}
	}
	return ring
}

// bulgeArcPoints expands a bulged polyline segment into arc points. The
// DXF bulge is the tangent of a quarter of the included angle.
func bulgeArcPoints(p1, p2 orb.Point, bulge float64, numSegments int) []orb.Point {
	mx := (p1.X() + p2.X()) / 2
	my := (p1.Y() + p2.Y()) / 2
	dx := p2.X() - p1.X()
	dy := p2.Y() - p1.Y()
	chordLen := math.Hypot(dx, dy)
	if chordLen < 1e-9 {
		return []orb.Point{p1, p2}
	}

	sagitta := math.Abs(bulge) * chordLen / 2
	radius := (chordLen*chordLen/(4*sagitta) + sagitta) / 2

	perpX := -dy / chordLen
	perpY := dx / chordLen
	dist := radius - sagitta
	if bulge < 0 {
		perpX, perpY = -perpX, -perpY
	}
	cx := mx + perpX*dist
	cy := my + perpY*dist

	startAngle := math.Atan2(p1.Y()-cy, p1.X()-cx)
	endAngle := math.Atan2(p2.Y()-cy, p2.X()-cx)
	if bulge < 0 {
		if endAngle > startAngle {
			endAngle -= 2 * math.Pi
		}
	} else {
		if endAngle < startAngle {
			endAngle += 2 * math.Pi
		}
	}

	pts := make([]orb.Point, 0, numSegments+1)
	for i := 0; i <= numSegments; i++ {
		t := float64(i) / float64(numSegments)
		angle := startAngle + t*(endAngle-startAngle)
		pts = append(pts, orb.Point{cx + radius*math.Cos(angle), cy + radius*math.Sin(angle)})
	}
	return pts
}

func circleToRing(c *entity.Circle, numSegments int) orb.Ring {
	ring := make(orb.Ring, numSegments)
	cx, cy, r := c.Center[0], c.Center[1], c.Radius
	for i := 0; i < numSegments; i++ {
		angle := 2 * math.Pi * float64(i) / float64(numSegments)
		ring[i] = orb.Point{cx + r*math.Cos(angle), cy + r*math.Sin(angle)}
	}
	return ring
}

func arcToPoints(a *entity.Arc, numSegments int) []orb.Point {
	cx, cy := a.Circle.Center[0], a.Circle.Center[1]
	r := a.Circle.Radius
	startRad := a.Angle[0] * math.Pi / 180
	endRad := a.Angle[1] * math.Pi / 180
	if endRad <= startRad {
		endRad += 2 * math.Pi
	}

	pts := make([]orb.Point, numSegments+1)
	for i := 0; i <= numSegments; i++ {
		t := float64(i) / float64(numSegments)
		angle := startRad + t*(endRad-startRad)
		pts[i] = orb.Point{cx + r*math.Cos(angle), cy + r*math.Sin(angle)}
	}
	return pts
}

func pointsToSegments(pts []orb.Point) []segment {
	if len(pts) < 2 {
		return nil
	}
	segs := make([]segment, 0, len(pts)-1)
	for i := 0; i < len(pts)-1; i++ {
		segs = append(segs, segment{start: pts[i], end: pts[i+1]})
	}
	return segs
}

// chainSegments walks loose segments and stitches those whose endpoints
// coincide within tolerance into rings. Open chains are dropped.
func chainSegments(segs []segment, tolerance float64) []orb.Ring {
	if len(segs) == 0 {
		return nil
	}

	used := make([]bool, len(segs))
	var rings []orb.Ring

	for {
		startIdx := -1
		for i, u := range used {
			if !u {
				startIdx = i
				break
			}
		}
		if startIdx < 0 {
			break
		}

		used[startIdx] = true
		ring := orb.Ring{segs[startIdx].start, segs[startIdx].end}

		for {
			tail := ring[len(ring)-1]
			found := false
			for i, s := range segs {
				if used[i] {
					continue
				}
				switch {
				case pointsClose(tail, s.start, tolerance):
					ring = append(ring, s.end)
					used[i] = true
					found = true
				case pointsClose(tail, s.end, tolerance):
					ring = append(ring, s.start)
					used[i] = true
					found = true
				}
				if found {
					break
				}
			}
			if !found {
				break
			}
			if pointsClose(ring[len(ring)-1], ring[0], tolerance) {
				ring[len(ring)-1] = ring[0]
				rings = append(rings, ring)
				break
			}
		}
	}
	return rings
}

func pointsClose(a, b orb.Point, tolerance float64) bool {
	return math.Abs(a.X()-b.X()) <= tolerance && math.Abs(a.Y()-b.Y()) <= tolerance
}
