package engine

import (
	"math"
	"sort"

	"github.com/paulmach/orb"

	"github.com/asergeenko/carpetnest/internal/geometry"
	"github.com/asergeenko/carpetnest/internal/model"
)

// gridStepFloor is the minimum grid sweep step in mm.
const gridStepFloor = 5.0

// position is one evaluated placement of a fixed rotation.
type position struct {
	x, y  float64
	score float64
}

// PlaceOnSheet searches rotations and candidate positions for the best
// placement of a carpet on a sheet that already holds the given
// placements. Returns false when no rotation and position fits. This is
// the public single-sheet API used by tests; the scheduler and the
// priority-2 filler call place with their own settings.
func PlaceOnSheet(cache *RotationCache, c model.Carpet, existing []model.PlacedCarpet, sheetW, sheetH, minGap float64) (model.PlacedCarpet, bool) {
	idx := newSheetIndex(placedPolygons(existing))
	return place(cache, c, idx, sheetW, sheetH, minGap, 1.0)
}

func placedPolygons(existing []model.PlacedCarpet) []orb.Polygon {
	polys := make([]orb.Polygon, len(existing))
	for i, p := range existing {
		polys[i] = p.Polygon
	}
	return polys
}

// place runs the full rotation × position search against an indexed
// obstacle set. Rotations are tried in the fixed order 0, 90, 180, 270;
// a rotation whose bounding box exceeds the sheet is skipped. Ties on
// the composite score break toward lower y, then lower x, then the
// earlier rotation.
func place(cache *RotationCache, c model.Carpet, idx *sheetIndex, sheetW, sheetH, minGap, tetrisWeight float64) (model.PlacedCarpet, bool) {
	var (
		found     bool
		best      position
		bestAngle int
		bestPoly  orb.Polygon
	)

	for _, angle := range geometry.Angles {
		rotated := cache.Rotated(c, angle)
		bw, bh := geometry.BoundWH(rotated.Bound())
		if bw > sheetW+geometry.Epsilon || bh > sheetH+geometry.Epsilon {
			continue
		}

		pos, poly, ok := findPosition(rotated, idx, sheetW, sheetH, minGap, tetrisWeight)
		if !ok {
			continue
		}
		if !found || better(pos, best) {
			found = true
			best = pos
			bestAngle = angle
			bestPoly = poly
		}
	}

	if !found {
		return model.PlacedCarpet{}, false
	}
	return model.NewPlacedCarpet(c, bestPoly, best.x, best.y, bestAngle), true
}

// better reports whether a beats b: lower score, then lower y, then
// lower x. Equal on all three keeps the earlier rotation (b).
func better(a, b position) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	if a.y != b.y {
		return a.y < b.y
	}
	return a.x < b.x
}

// findPosition evaluates every candidate position for one rotated
// polygon (normalized to the origin) and returns the best feasible one
// together with the translated polygon. The obstacle index is shared
// across rotations.
func findPosition(rotated orb.Polygon, idx *sheetIndex, sheetW, sheetH, minGap, tetrisWeight float64) (position, orb.Polygon, bool) {
	bw, bh := geometry.BoundWH(rotated.Bound())
	polyArea := geometry.Area(rotated)

	var (
		found    bool
		best     position
		bestPoly orb.Polygon
	)
	for _, cand := range candidatePositions(idx, bw, bh, sheetW, sheetH, minGap) {
		if cand.x+bw > sheetW+geometry.Epsilon || cand.y+bh > sheetH+geometry.Epsilon {
			continue
		}
		translated := geometry.Translate(rotated, cand.x, cand.y)
		if collides(translated, idx, minGap) {
			continue
		}
		score := positionScore(cand.x, cand.y, bw, bh, polyArea, idx, sheetW, sheetH, tetrisWeight)
		pos := position{x: cand.x, y: cand.y, score: score}
		if !found || better(pos, best) {
			found = true
			best = pos
			bestPoly = translated
		}
	}
	return best, bestPoly, found
}

type candidate struct {
	x, y float64
}

// candidatePositions generates the de-duplicated candidate set for one
// rotation: the origin, a point to the right of and above every placed
// polygon, and a regular grid sweep over the free envelope with a step
// scaled to the piece (never below gridStepFloor).
func candidatePositions(idx *sheetIndex, bw, bh, sheetW, sheetH, gap float64) []candidate {
	cands := []candidate{{0, 0}}

	for i := 0; i < idx.size(); i++ {
		b := idx.polygon(i).Bound()
		cands = append(cands,
			candidate{b.Max.X() + gap, b.Min.Y()},
			candidate{b.Min.X(), b.Max.Y() + gap},
		)
	}

	step := math.Max(gridStepFloor, math.Min(bw, bh)/3)
	for y := 0.0; y <= sheetH-bh+geometry.Epsilon; y += step {
		for x := 0.0; x <= sheetW-bw+geometry.Epsilon; x += step {
			cands = append(cands, candidate{x, y})
		}
	}

	return dedupeCandidates(cands)
}

// dedupeCandidates sorts by (y, x) and removes near-duplicates and
// out-of-quadrant points, so candidate evaluation order — and with it
// the whole engine — is deterministic.
func dedupeCandidates(cands []candidate) []candidate {
	kept := cands[:0]
	for _, c := range cands {
		if c.x >= -geometry.Epsilon && c.y >= -geometry.Epsilon {
			kept = append(kept, c)
		}
	}
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].y != kept[j].y {
			return kept[i].y < kept[j].y
		}
		return kept[i].x < kept[j].x
	})

	out := kept[:0]
	for _, c := range kept {
		if len(out) > 0 {
			last := out[len(out)-1]
			if math.Abs(last.x-c.x) < 1e-3 && math.Abs(last.y-c.y) < 1e-3 {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}
