package engine

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"
)

// sheetIndex is the per-sheet spatial index: an R-tree over the
// bounding boxes of the polygons currently placed on the sheet. It is
// rebuilt from scratch whenever the placed set changes — per-sheet
// counts are small and placement search dominates the rebuild cost.
type sheetIndex struct {
	tree  rtree.RTreeG[int]
	polys []orb.Polygon
}

// newSheetIndex bulk-loads an index over the given polygons. The slice
// is referenced, not copied; callers must not mutate it afterwards.
func newSheetIndex(polys []orb.Polygon) *sheetIndex {
	si := &sheetIndex{polys: polys}
	for i, p := range polys {
		b := p.Bound()
		si.tree.Insert(
			[2]float64{b.Min.X(), b.Min.Y()},
			[2]float64{b.Max.X(), b.Max.Y()},
			i,
		)
	}
	return si
}

// query returns the indices of polygons whose bounding box intersects
// the given bound, in ascending index order so downstream iteration is
// deterministic.
func (si *sheetIndex) query(b orb.Bound) []int {
	var hits []int
	si.tree.Search(
		[2]float64{b.Min.X(), b.Min.Y()},
		[2]float64{b.Max.X(), b.Max.Y()},
		func(_, _ [2]float64, i int) bool {
			hits = append(hits, i)
			return true
		},
	)
	sort.Ints(hits)
	return hits
}

func (si *sheetIndex) polygon(i int) orb.Polygon { return si.polys[i] }

func (si *sheetIndex) size() int { return len(si.polys) }
