package geometry

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepair_ClosesOpenRing(t *testing.T) {
	open := orb.Polygon{orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}}}
	p, err := Repair(open)
	require.NoError(t, err)
	assert.True(t, samePoint(p[0][0], p[0][len(p[0])-1]), "ring must be closed")
	assert.InDelta(t, 100.0, Area(p), Epsilon)
}

func TestRepair_DropsDuplicateVertices(t *testing.T) {
	dup := orb.Polygon{orb.Ring{{0, 0}, {0, 0}, {10, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}
	p, err := Repair(dup)
	require.NoError(t, err)
	assert.Len(t, p[0], 5)
}

func TestRepair_FixesOrientation(t *testing.T) {
	cw := orb.Polygon{orb.Ring{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}}}
	p, err := Repair(cw)
	require.NoError(t, err)
	assert.True(t, ccw(p[0]), "exterior must be counter-clockwise")
}

func TestRepair_RejectsDegenerate(t *testing.T) {
	_, err := Repair(orb.Polygon{orb.Ring{{0, 0}, {10, 0}}})
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	_, err = Repair(orb.Polygon{})
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	// Zero-area sliver.
	_, err = Repair(orb.Polygon{orb.Ring{{0, 0}, {10, 0}, {20, 0}, {0, 0}}})
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestRepair_RejectsBowtie(t *testing.T) {
	bowtie := orb.Polygon{orb.Ring{{0, 0}, {10, 10}, {10, 0}, {0, 10}, {0, 0}}}
	_, err := Repair(bowtie)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestRepair_DropsDegenerateHole(t *testing.T) {
	p := Rect(0, 0, 100, 100)
	p = append(p, orb.Ring{{10, 10}, {20, 10}}) // two-point hole
	out, err := Repair(p)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}
