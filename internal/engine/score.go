package engine

import (
	"math"

	"github.com/asergeenko/carpetnest/internal/geometry"
)

// Scoring constants. The component structure is fixed; tetrisScale is
// the single tunable scalar, further multiplied by the user-facing
// TetrisWeight setting.
const (
	costPerMMY = 10.0  // bottom preference
	costPerMMX = 100.0 // left preference

	elongatedAspect = 1.05   // above this a piece counts as elongated
	aspectBonusCap  = 2000.0 // cap on the wide-lay reward
	floorPullBonus  = 3000.0 // reward for elongated pieces on the floor
	wallPullBonus   = 2000.0 // reward for elongated pieces on the wall
	pullZone        = 5.0    // mm from the floor/wall that counts as "on"

	fillWeight  = 0.3 // sparse bounding boxes
	belowWeight = 0.4 // trapped space underneath
	topWeight   = 0.3 // short free strip above

	tetrisScale = 1000.0
)

// positionScore evaluates one feasible placement. Lower is better.
//
// x, y is the candidate lower-left corner, bw/bh the rotated bounding
// box, polyArea the polygon area. idx holds the already-placed
// obstacles for the below-accessibility term.
func positionScore(x, y, bw, bh, polyArea float64, idx *sheetIndex, sheetW, sheetH, tetrisWeight float64) float64 {
	cost := y*costPerMMY + x*costPerMMX

	bonus := 0.0
	aspect := math.Max(bw, bh) / math.Min(bw, bh)
	if aspect > elongatedAspect {
		bonus -= math.Min(aspectBonusCap, (aspect-1)*aspectBonusCap)
		if y < pullZone {
			bonus -= floorPullBonus
		}
		if x < pullZone {
			bonus -= wallPullBonus
		}
	}

	fillRatio := polyArea / (bw * bh)
	below := belowAccessibility(idx, x, y, bw)
	topFraction := (sheetH - (y + bh)) / sheetH

	tetris := fillWeight*(1-fillRatio) +
		belowWeight*(1-below) +
		topWeight*(1-topFraction)

	return cost + bonus + tetris*tetrisScale*tetrisWeight
}

// belowAccessibility measures how much of the strip directly under the
// candidate is already occupied. A piece resting on the floor (or on
// other pieces) traps nothing and scores 1; a piece hovering over empty
// space scores toward 0, and the caller penalizes it.
func belowAccessibility(idx *sheetIndex, x, y, bw float64) float64 {
	if y < geometry.Epsilon {
		return 1
	}
	stripArea := bw * y
	if stripArea < geometry.Epsilon {
		return 1
	}

	covered := 0.0
	strip := geometry.Rect(x, 0, bw, y).Bound()
	for _, i := range idx.query(strip) {
		b := idx.polygon(i).Bound()
		w := math.Min(b.Max.X(), x+bw) - math.Max(b.Min.X(), x)
		h := math.Min(b.Max.Y(), y) - math.Max(b.Min.Y(), 0)
		if w > 0 && h > 0 {
			covered += w * h
		}
	}
	return math.Min(1, covered/stripArea)
}
