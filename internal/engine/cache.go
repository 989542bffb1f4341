// Package engine implements the nesting core: the rotation cache, the
// per-sheet spatial index, the collision oracle, the single-sheet
// placer, post-placement compaction and the multi-sheet inventory
// scheduler.
package engine

import (
	"github.com/paulmach/orb"

	"github.com/asergeenko/carpetnest/internal/geometry"
	"github.com/asergeenko/carpetnest/internal/model"
)

// RotationCache memoizes rotated polygons per (carpet ID, angle). The
// key is the carpet ID — not the geometry — on purpose: two carpets cut
// from the same DXF must not share entries, because diagnostics track
// polygons back to individual carpets.
//
// The cache is not safe for concurrent use; the scheduler owns one per
// call.
type RotationCache struct {
	entries map[int]map[int]orb.Polygon
}

// NewRotationCache returns an empty cache.
func NewRotationCache() *RotationCache {
	return &RotationCache{entries: make(map[int]map[int]orb.Polygon)}
}

// Rotated returns the carpet's polygon rotated by angle degrees. Angle 0
// returns the ingest polygon unchanged (it is still recorded, so Stats
// counts the carpet as seen).
func (rc *RotationCache) Rotated(c model.Carpet, angle int) orb.Polygon {
	byAngle, ok := rc.entries[c.ID]
	if !ok {
		byAngle = make(map[int]orb.Polygon, 4)
		rc.entries[c.ID] = byAngle
	}
	if p, ok := byAngle[angle]; ok {
		return p
	}
	p := geometry.Rotate(c.Polygon, angle)
	byAngle[angle] = p
	return p
}

// Clear drops all entries.
func (rc *RotationCache) Clear() {
	rc.entries = make(map[int]map[int]orb.Polygon)
}

// CacheStats reports cache occupancy.
type CacheStats struct {
	CachedCarpets   int `json:"cached_carpets"`
	CachedRotations int `json:"cached_rotations"`
}

// Stats returns the number of distinct carpets seen and the total
// number of cached rotation entries.
func (rc *RotationCache) Stats() CacheStats {
	s := CacheStats{CachedCarpets: len(rc.entries)}
	for _, byAngle := range rc.entries {
		s.CachedRotations += len(byAngle)
	}
	return s
}
