package engine

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/asergeenko/carpetnest/internal/geometry"
	"github.com/asergeenko/carpetnest/internal/model"
)

// rectCarpet builds a rectangular test carpet normalized at the origin.
func rectCarpet(id int, w, h float64, color model.Color, priority int) model.Carpet {
	return model.Carpet{
		ID:       id,
		Polygon:  geometry.Rect(0, 0, w, h),
		Color:    color,
		OrderID:  "order-test",
		Priority: priority,
		Filename: "test.dxf",
	}
}

// irregularCarpet builds a convex, non-rectangular test carpet with the
// given bounding box, loosely shaped like a floor mat with a clipped
// corner and a notched top edge.
func irregularCarpet(id int, w, h float64, color model.Color, priority int) model.Carpet {
	p := orb.Polygon{orb.Ring{
		{0, 0},
		{w, 0},
		{w, h * 0.7},
		{w * 0.8, h},
		{w * 0.45, h},
		{w * 0.4, h * 0.85},
		{0, h * 0.85},
		{0, 0},
	}}
	return model.Carpet{
		ID:       id,
		Polygon:  p,
		Color:    color,
		OrderID:  "order-test",
		Priority: priority,
		Filename: "irregular.dxf",
	}
}

// sheet140x200 is the standard test descriptor: 140x200 cm = 1400x2000 mm.
func sheet140x200(color model.Color, count int) model.SheetDescriptor {
	return model.SheetDescriptor{
		ID: "test-sheet", Name: "test", Width: 140, Height: 200,
		Color: color, Count: count,
	}
}

// assertSheetInvariants checks the universal per-sheet properties:
// containment, pairwise min gap and per-sheet carpet uniqueness.
func assertSheetInvariants(t *testing.T, sheet model.PlacedSheet, minGap float64) {
	t.Helper()
	w, h := sheet.Descriptor.WidthMM(), sheet.Descriptor.HeightMM()

	seen := make(map[int]bool)
	for _, p := range sheet.Placed {
		b := p.Polygon.Bound()
		if b.Min.X() < -geometry.Epsilon || b.Min.Y() < -geometry.Epsilon ||
			b.Max.X() > w+geometry.Epsilon || b.Max.Y() > h+geometry.Epsilon {
			t.Errorf("carpet %d exits sheet: bounds %v on %gx%g", p.ID, b, w, h)
		}
		if seen[p.ID] {
			t.Errorf("carpet %d appears twice on sheet %d", p.ID, sheet.Number)
		}
		seen[p.ID] = true
	}

	for i := 0; i < len(sheet.Placed); i++ {
		for j := i + 1; j < len(sheet.Placed); j++ {
			d := geometry.Distance(sheet.Placed[i].Polygon, sheet.Placed[j].Polygon)
			if d < minGap-1e-6 {
				t.Errorf("carpets %d and %d are %.4f mm apart, want >= %.4f",
					sheet.Placed[i].ID, sheet.Placed[j].ID, d, minGap)
			}
		}
	}
}

// assertExactlyOnce checks that every input carpet appears exactly once
// across sheets and unplaced.
func assertExactlyOnce(t *testing.T, carpets []model.Carpet, result Result) {
	t.Helper()
	count := make(map[int]int)
	for _, sheet := range result.Sheets {
		for _, p := range sheet.Placed {
			count[p.ID]++
		}
	}
	for _, u := range result.Unplaced {
		count[u.Carpet.ID]++
	}
	for _, c := range carpets {
		if count[c.ID] != 1 {
			t.Errorf("carpet %d appears %d times across sheets+unplaced, want 1", c.ID, count[c.ID])
		}
	}
}
