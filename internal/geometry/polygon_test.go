package geometry

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArea_Rect(t *testing.T) {
	p := Rect(0, 0, 50, 20)
	assert.InDelta(t, 1000.0, Area(p), Epsilon)
}

func TestArea_WithHole(t *testing.T) {
	p := Rect(0, 0, 100, 100)
	hole := orb.Ring{{20, 20}, {20, 40}, {40, 40}, {40, 20}, {20, 20}}
	p = append(p, hole)
	assert.InDelta(t, 100*100-20*20, Area(p), Epsilon)
}

func TestTranslate_ShiftsBounds(t *testing.T) {
	p := Rect(0, 0, 30, 10)
	q := Translate(p, 5, 7)
	b := q.Bound()
	assert.InDelta(t, 5.0, b.Min.X(), Epsilon)
	assert.InDelta(t, 7.0, b.Min.Y(), Epsilon)
	assert.InDelta(t, 35.0, b.Max.X(), Epsilon)
	assert.InDelta(t, 17.0, b.Max.Y(), Epsilon)
	// Original untouched.
	assert.InDelta(t, 0.0, p.Bound().Min.X(), Epsilon)
}

func TestRotate_ZeroReturnsInput(t *testing.T) {
	p := Rect(0, 0, 30, 10)
	q := Rotate(p, 0)
	assert.Equal(t, p, q)
}

func TestRotate_SwapsDimensions(t *testing.T) {
	p := Rect(0, 0, 30, 10)
	q := Rotate(p, 90)
	w, h := BoundWH(q.Bound())
	assert.InDelta(t, 10.0, w, Epsilon)
	assert.InDelta(t, 30.0, h, Epsilon)
	// Result is re-normalized to the first quadrant.
	assert.InDelta(t, 0.0, q.Bound().Min.X(), Epsilon)
	assert.InDelta(t, 0.0, q.Bound().Min.Y(), Epsilon)
	// Area preserved.
	assert.InDelta(t, Area(p), Area(q), Epsilon)
}

func TestRotate_FourTimesIsIdentityUpToNormalization(t *testing.T) {
	p := orb.Polygon{orb.Ring{{0, 0}, {60, 0}, {60, 20}, {30, 35}, {0, 20}, {0, 0}}}
	q := p
	for i := 0; i < 4; i++ {
		q = Rotate(q, 90)
	}
	require.Len(t, q[0], len(p[0]))
	assert.InDelta(t, Area(p), Area(q), 1e-6)
	wp, hp := BoundWH(p.Bound())
	wq, hq := BoundWH(q.Bound())
	assert.InDelta(t, wp, wq, 1e-6)
	assert.InDelta(t, hp, hq, 1e-6)
}

func TestRotate_UnsupportedAnglePanics(t *testing.T) {
	assert.Panics(t, func() { Rotate(Rect(0, 0, 10, 10), 45) })
}

func TestNormalize(t *testing.T) {
	p := Rect(13, -4, 10, 10)
	q := Normalize(p)
	assert.InDelta(t, 0.0, q.Bound().Min.X(), Epsilon)
	assert.InDelta(t, 0.0, q.Bound().Min.Y(), Epsilon)
}
