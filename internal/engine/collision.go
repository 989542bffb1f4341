package engine

import (
	"github.com/paulmach/orb"

	"github.com/asergeenko/carpetnest/internal/geometry"
)

// collides reports whether any indexed obstacle lies closer than minGap
// to the candidate polygon. It is pure: neither the candidate nor the
// index is mutated.
//
// Three stages, cheapest first: the index query over the gap-expanded
// candidate bound prunes everything that cannot collide; the
// axis-separated bbox gap rejects the rest of the clear cases; only
// then is the exact polygon distance evaluated.
func collides(candidate orb.Polygon, idx *sheetIndex, minGap float64) bool {
	cb := candidate.Bound()
	expanded := orb.Bound{
		Min: orb.Point{cb.Min.X() - minGap, cb.Min.Y() - minGap},
		Max: orb.Point{cb.Max.X() + minGap, cb.Max.Y() + minGap},
	}

	for _, i := range idx.query(expanded) {
		obstacle := idx.polygon(i)
		if geometry.BoundsGap(cb, obstacle.Bound()) > minGap {
			continue
		}
		if geometry.Distance(candidate, obstacle) < minGap-geometry.Epsilon {
			return true
		}
	}
	return false
}
