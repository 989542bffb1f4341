package engine

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"

	"github.com/asergeenko/carpetnest/internal/geometry"
)

func TestCollides_Empty(t *testing.T) {
	idx := newSheetIndex(nil)
	assert.False(t, collides(geometry.Rect(0, 0, 50, 50), idx, 2))
}

func TestCollides_Overlap(t *testing.T) {
	idx := newSheetIndex([]orb.Polygon{geometry.Rect(0, 0, 50, 50)})
	assert.True(t, collides(geometry.Rect(25, 25, 50, 50), idx, 2))
}

func TestCollides_GapThreshold(t *testing.T) {
	idx := newSheetIndex([]orb.Polygon{geometry.Rect(0, 0, 50, 50)})

	// 1 mm apart: closer than the 2 mm gap.
	assert.True(t, collides(geometry.Rect(51, 0, 50, 50), idx, 2))
	// Exactly 2 mm apart: permitted.
	assert.False(t, collides(geometry.Rect(52, 0, 50, 50), idx, 2))
	// Far away.
	assert.False(t, collides(geometry.Rect(200, 200, 50, 50), idx, 2))
}

func TestCollides_ExactDistanceBeatsBBox(t *testing.T) {
	// Two triangles whose bounding boxes overlap while the shapes stay
	// clear of each other: the exact-distance stage must not report a
	// collision the bbox stage would.
	lower := orb.Polygon{orb.Ring{{0, 0}, {40, 0}, {0, 40}, {0, 0}}}
	upper := orb.Polygon{orb.Ring{{40, 40}, {40, 10}, {10, 40}, {40, 40}}}

	idx := newSheetIndex([]orb.Polygon{lower})
	assert.False(t, collides(upper, idx, 2))
}

func TestCollides_DoesNotMutateIndex(t *testing.T) {
	polys := []orb.Polygon{geometry.Rect(0, 0, 50, 50), geometry.Rect(100, 0, 50, 50)}
	idx := newSheetIndex(polys)

	before := idx.size()
	collides(geometry.Rect(25, 25, 10, 10), idx, 2)
	collides(geometry.Rect(300, 300, 10, 10), idx, 2)
	assert.Equal(t, before, idx.size())
	assert.Equal(t, polys[0], idx.polygon(0))
}

func TestSheetIndex_QueryDeterministicOrder(t *testing.T) {
	polys := []orb.Polygon{
		geometry.Rect(0, 0, 10, 10),
		geometry.Rect(5, 5, 10, 10),
		geometry.Rect(8, 0, 10, 10),
		geometry.Rect(500, 500, 10, 10),
	}
	idx := newSheetIndex(polys)

	hits := idx.query(geometry.Rect(0, 0, 20, 20).Bound())
	assert.Equal(t, []int{0, 1, 2}, hits)
}
