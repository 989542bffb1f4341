package engine

import (
	"sort"

	"github.com/paulmach/orb"

	"github.com/asergeenko/carpetnest/internal/geometry"
	"github.com/asergeenko/carpetnest/internal/model"
)

const (
	// compactMoveFloor: a full pass that moves nothing farther than
	// this counts as converged.
	compactMoveFloor = 0.5 // mm
	// slidePrecision bounds the binary search on a single slide.
	slidePrecision = 0.01 // mm
)

// compactSheet alternates gravity (pull toward -Y) and horizontal pull
// (toward -X) until a full round moves nothing beyond compactMoveFloor
// or the iteration cap is reached. The placed slice is modified in
// place. Termination is guaranteed: every pass weakly decreases the sum
// of lower-left corners, which is bounded below by zero.
func compactSheet(placed []model.PlacedCarpet, minGap float64, maxIterations int) {
	if len(placed) < 2 {
		compactSingle(placed)
		return
	}
	for iter := 0; iter < maxIterations; iter++ {
		moved := gravityPass(placed, minGap)
		if m := horizontalPass(placed, minGap); m > moved {
			moved = m
		}
		if moved <= compactMoveFloor {
			return
		}
	}
}

// compactSingle drops a lone carpet straight to the sheet corner.
func compactSingle(placed []model.PlacedCarpet) {
	for i := range placed {
		b := placed[i].Polygon.Bound()
		shift(&placed[i], -b.Min.X(), -b.Min.Y())
	}
}

// gravityPass slides every carpet as far toward y=0 as the sheet and
// the other carpets allow, lowest carpets first. Returns the largest
// single move of the pass.
func gravityPass(placed []model.PlacedCarpet, minGap float64) float64 {
	order := sortedByAxis(placed, func(b orb.Bound) float64 { return b.Min.Y() })

	maxMove := 0.0
	for _, i := range order {
		limit := placed[i].Polygon.Bound().Min.Y()
		delta := largestSlide(placed, i, limit, minGap, func(p orb.Polygon, d float64) orb.Polygon {
			return geometry.Translate(p, 0, -d)
		})
		if delta > 0 {
			shift(&placed[i], 0, -delta)
			if delta > maxMove {
				maxMove = delta
			}
		}
	}
	return maxMove
}

// horizontalPass is gravityPass on the x axis, leftmost carpets first.
func horizontalPass(placed []model.PlacedCarpet, minGap float64) float64 {
	order := sortedByAxis(placed, func(b orb.Bound) float64 { return b.Min.X() })

	maxMove := 0.0
	for _, i := range order {
		limit := placed[i].Polygon.Bound().Min.X()
		delta := largestSlide(placed, i, limit, minGap, func(p orb.Polygon, d float64) orb.Polygon {
			return geometry.Translate(p, -d, 0)
		})
		if delta > 0 {
			shift(&placed[i], -delta, 0)
			if delta > maxMove {
				maxMove = delta
			}
		}
	}
	return maxMove
}

// sortedByAxis returns placement indices ordered by the given bound
// coordinate, ties broken by carpet ID for determinism.
func sortedByAxis(placed []model.PlacedCarpet, axis func(orb.Bound) float64) []int {
	order := make([]int, len(placed))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		va := axis(placed[order[a]].Polygon.Bound())
		vb := axis(placed[order[b]].Polygon.Bound())
		if va != vb {
			return va < vb
		}
		return placed[order[a]].ID < placed[order[b]].ID
	})
	return order
}

// largestSlide binary-searches the largest slide distance in [0, limit]
// for carpet i that keeps it clear of all others by minGap. translate
// applies a trial distance. The carpet itself is excluded from the
// obstacle set.
func largestSlide(placed []model.PlacedCarpet, i int, limit, minGap float64, translate func(orb.Polygon, float64) orb.Polygon) float64 {
	if limit <= 0 {
		return 0
	}

	others := make([]orb.Polygon, 0, len(placed)-1)
	for j := range placed {
		if j != i {
			others = append(others, placed[j].Polygon)
		}
	}
	idx := newSheetIndex(others)

	feasible := func(d float64) bool {
		return !collides(translate(placed[i].Polygon, d), idx, minGap)
	}

	// Full slide first: in the common case nothing is in the way.
	if feasible(limit) {
		return limit
	}
	lo, hi := 0.0, limit
	for hi-lo > slidePrecision {
		mid := (lo + hi) / 2
		if feasible(mid) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

// shift translates a placement and keeps its diagnostic offsets in sync
// with the authoritative polygon.
func shift(p *model.PlacedCarpet, dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	p.Polygon = geometry.Translate(p.Polygon, dx, dy)
	p.XOffset += dx
	p.YOffset += dy
}
