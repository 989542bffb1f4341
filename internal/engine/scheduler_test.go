package engine

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asergeenko/carpetnest/internal/geometry"
	"github.com/asergeenko/carpetnest/internal/model"
)

func TestSchedule_Empty(t *testing.T) {
	res := Schedule(context.Background(), nil, []model.SheetDescriptor{sheet140x200(model.ColorBlack, 1)}, model.DefaultNestSettings())
	assert.Empty(t, res.Sheets)
	assert.Empty(t, res.Unplaced)
}

// S1: two small squares on one big sheet.
func TestSchedule_TwoSquaresOneSheet(t *testing.T) {
	carpets := []model.Carpet{
		rectCarpet(1, 50, 50, model.ColorBlack, 1),
		rectCarpet(2, 50, 50, model.ColorBlack, 1),
	}
	res := Schedule(context.Background(), carpets, []model.SheetDescriptor{sheet140x200(model.ColorBlack, 1)}, model.DefaultNestSettings())

	require.Len(t, res.Sheets, 1)
	require.Empty(t, res.Unplaced)
	require.Len(t, res.Sheets[0].Placed, 2)
	assert.InDelta(t, 2*50*50/(1400.0*2000.0)*100, res.Sheets[0].UsagePercent, 1e-6)
	assertSheetInvariants(t, res.Sheets[0], 2)
}

// S2: identical irregular carpets pack with identical rotation.
func TestSchedule_IdenticalTripletSameRotation(t *testing.T) {
	carpets := []model.Carpet{
		irregularCarpet(1, 700, 450, model.ColorGray, 1),
		irregularCarpet(2, 700, 450, model.ColorGray, 1),
		irregularCarpet(3, 700, 450, model.ColorGray, 1),
	}
	res := Schedule(context.Background(), carpets, []model.SheetDescriptor{sheet140x200(model.ColorGray, 1)}, model.DefaultNestSettings())

	require.Len(t, res.Sheets, 1)
	require.Empty(t, res.Unplaced)
	require.Len(t, res.Sheets[0].Placed, 3)

	angle := res.Sheets[0].Placed[0].Angle
	for _, p := range res.Sheets[0].Placed {
		assert.Equal(t, angle, p.Angle, "identical carpets should pack with identical rotation")
	}
	assertSheetInvariants(t, res.Sheets[0], 2)
}

// S3: six mid-size carpets on a single sheet out of two available.
func TestSchedule_SixfoldSingleSheet(t *testing.T) {
	var carpets []model.Carpet
	for id := 1; id <= 6; id++ {
		carpets = append(carpets, irregularCarpet(id, 450, 600, model.ColorBlack, 1))
	}
	res := Schedule(context.Background(), carpets, []model.SheetDescriptor{sheet140x200(model.ColorBlack, 2)}, model.DefaultNestSettings())

	require.Len(t, res.Sheets, 1, "six 450x600 carpets must fit one 1400x2000 sheet")
	assert.Empty(t, res.Unplaced)
	assert.Len(t, res.Sheets[0].Placed, 6)
	assertSheetInvariants(t, res.Sheets[0], 2)
	assertExactlyOnce(t, carpets, res)
}

// S4/property 5: priority-2 carpets only fill voids and never open sheets.
func TestSchedule_PriorityTwoNeverOpensSheets(t *testing.T) {
	var p1 []model.Carpet
	id := 0
	for i := 0; i < 14; i++ {
		id++
		p1 = append(p1, irregularCarpet(id, 350+float64(i%5)*40, 280+float64(i%3)*60, model.ColorBlack, 1))
	}
	mixed := make([]model.Carpet, len(p1))
	copy(mixed, p1)
	for i := 0; i < 15; i++ {
		id++
		mixed = append(mixed, rectCarpet(id, 120, 90, model.ColorBlack, 2))
	}
	inv := []model.SheetDescriptor{sheet140x200(model.ColorBlack, 5)}
	settings := model.DefaultNestSettings()

	onlyP1 := Schedule(context.Background(), p1, inv, settings)
	withP2 := Schedule(context.Background(), mixed, inv, settings)

	assert.Equal(t, len(onlyP1.Sheets), len(withP2.Sheets),
		"adding priority-2 carpets must not change the sheet count")
	assert.LessOrEqual(t, len(withP2.Sheets), 3)

	for _, sheet := range withP2.Sheets {
		assertSheetInvariants(t, sheet, settings.MinGap)
	}
	assertExactlyOnce(t, mixed, withP2)

	// Priority-1 occupancy per sheet is unchanged by the p2 fill.
	for i := range onlyP1.Sheets {
		var p1Count int
		for _, p := range withP2.Sheets[i].Placed {
			if p.Priority == 1 {
				p1Count++
			}
		}
		assert.Equal(t, len(onlyP1.Sheets[i].Placed), p1Count)
	}
}

// S5: oversize carpet.
func TestSchedule_Oversize(t *testing.T) {
	inv := []model.SheetDescriptor{{ID: "s", Name: "small", Width: 50, Height: 50, Color: model.ColorBlack, Count: 1}}
	carpets := []model.Carpet{rectCarpet(1, 600, 100, model.ColorBlack, 1)}

	res := Schedule(context.Background(), carpets, inv, model.DefaultNestSettings())
	assert.Empty(t, res.Sheets)
	require.Len(t, res.Unplaced, 1)
	assert.Equal(t, model.ReasonOversizeForColor, res.Unplaced[0].Reason)
}

func TestSchedule_ColorMismatch(t *testing.T) {
	inv := []model.SheetDescriptor{sheet140x200(model.ColorBlack, 1)}
	carpets := []model.Carpet{rectCarpet(1, 100, 100, model.ColorGray, 1)}

	res := Schedule(context.Background(), carpets, inv, model.DefaultNestSettings())
	assert.Empty(t, res.Sheets)
	require.Len(t, res.Unplaced, 1)
	assert.Equal(t, model.ReasonNoInventoryForColor, res.Unplaced[0].Reason)
}

func TestSchedule_ColorDiscipline(t *testing.T) {
	inv := []model.SheetDescriptor{
		sheet140x200(model.ColorBlack, 2),
		sheet140x200(model.ColorGray, 2),
	}
	carpets := []model.Carpet{
		rectCarpet(1, 400, 400, model.ColorBlack, 1),
		rectCarpet(2, 400, 400, model.ColorGray, 1),
		rectCarpet(3, 400, 400, model.ColorBlack, 1),
	}
	res := Schedule(context.Background(), carpets, inv, model.DefaultNestSettings())

	require.Len(t, res.Sheets, 2)
	assert.Empty(t, res.Unplaced)
	for _, sheet := range res.Sheets {
		for _, p := range sheet.Placed {
			assert.Equal(t, sheet.Descriptor.Color, p.Color,
				"carpet color must match its sheet color")
		}
	}
}

func TestSchedule_ExhaustedInventory(t *testing.T) {
	inv := []model.SheetDescriptor{{ID: "s", Name: "one", Width: 50, Height: 50, Color: model.ColorBlack, Count: 1}}
	carpets := []model.Carpet{
		rectCarpet(1, 450, 450, model.ColorBlack, 1),
		rectCarpet(2, 450, 450, model.ColorBlack, 1),
		rectCarpet(3, 450, 450, model.ColorBlack, 1),
	}
	res := Schedule(context.Background(), carpets, inv, model.DefaultNestSettings())

	require.Len(t, res.Sheets, 1)
	require.Len(t, res.Unplaced, 2)
	for _, u := range res.Unplaced {
		assert.Equal(t, model.ReasonExhausted, u.Reason)
	}
	assertExactlyOnce(t, carpets, res)
}

func TestSchedule_InvalidGeometryRejected(t *testing.T) {
	bowtie := model.Carpet{
		ID:      1,
		Polygon: orb.Polygon{orb.Ring{{0, 0}, {100, 100}, {100, 0}, {0, 100}, {0, 0}}},
		Color:   model.ColorBlack, Priority: 1,
	}
	res := Schedule(context.Background(), []model.Carpet{bowtie},
		[]model.SheetDescriptor{sheet140x200(model.ColorBlack, 1)}, model.DefaultNestSettings())

	assert.Empty(t, res.Sheets)
	require.Len(t, res.Unplaced, 1)
	assert.Equal(t, model.ReasonInvalidGeometry, res.Unplaced[0].Reason)
}

// Property 4: identical input, identical output.
func TestSchedule_Deterministic(t *testing.T) {
	var carpets []model.Carpet
	for id := 1; id <= 10; id++ {
		carpets = append(carpets, irregularCarpet(id, 300+float64(id)*25, 250+float64(id%4)*70, model.ColorBlack, 1+id%2))
	}
	inv := []model.SheetDescriptor{sheet140x200(model.ColorBlack, 4)}
	settings := model.DefaultNestSettings()

	a := Schedule(context.Background(), carpets, inv, settings)
	b := Schedule(context.Background(), carpets, inv, settings)

	require.Equal(t, len(a.Sheets), len(b.Sheets))
	require.Equal(t, len(a.Unplaced), len(b.Unplaced))
	for i := range a.Sheets {
		require.Equal(t, len(a.Sheets[i].Placed), len(b.Sheets[i].Placed))
		for j := range a.Sheets[i].Placed {
			pa, pb := a.Sheets[i].Placed[j], b.Sheets[i].Placed[j]
			assert.Equal(t, pa.ID, pb.ID)
			assert.Equal(t, pa.Angle, pb.Angle)
			assert.Equal(t, pa.XOffset, pb.XOffset)
			assert.Equal(t, pa.YOffset, pb.YOffset)
		}
	}
}

// Property 6: usage arithmetic, and sheet numbering at emit time.
func TestSchedule_UsageAndNumbering(t *testing.T) {
	carpets := []model.Carpet{
		rectCarpet(1, 1300, 1900, model.ColorBlack, 1),
		rectCarpet(2, 1300, 1900, model.ColorBlack, 1),
	}
	res := Schedule(context.Background(), carpets, []model.SheetDescriptor{sheet140x200(model.ColorBlack, 2)}, model.DefaultNestSettings())

	require.Len(t, res.Sheets, 2)
	for i, sheet := range res.Sheets {
		assert.Equal(t, i+1, sheet.Number)
		var area float64
		for _, p := range sheet.Placed {
			area += geometry.Area(p.Polygon)
		}
		assert.InDelta(t, area/(1400*2000)*100, sheet.UsagePercent, 1e-6)
	}
}

// Property 7: compaction reaches a gravity fixed point.
func TestSchedule_CompactionFixedPoint(t *testing.T) {
	var carpets []model.Carpet
	for id := 1; id <= 5; id++ {
		carpets = append(carpets, irregularCarpet(id, 400, 350, model.ColorBlack, 1))
	}
	res := Schedule(context.Background(), carpets, []model.SheetDescriptor{sheet140x200(model.ColorBlack, 2)}, model.DefaultNestSettings())
	require.NotEmpty(t, res.Sheets)

	for _, sheet := range res.Sheets {
		placed := make([]model.PlacedCarpet, len(sheet.Placed))
		copy(placed, sheet.Placed)
		moved := gravityPass(placed, 2)
		assert.LessOrEqual(t, moved, compactMoveFloor,
			"re-running gravity after scheduling must be a no-op")
	}
}

// Property 8: rotation cache identity.
func TestSchedule_CacheTracksCarpets(t *testing.T) {
	s := New(model.DefaultNestSettings())
	carpets := []model.Carpet{
		rectCarpet(1, 100, 80, model.ColorBlack, 1),
		rectCarpet(2, 100, 80, model.ColorBlack, 1),
	}
	s.Schedule(context.Background(), carpets, []model.SheetDescriptor{sheet140x200(model.ColorBlack, 1)})

	stats := s.CacheStats()
	assert.Equal(t, 2, stats.CachedCarpets)
	assert.GreaterOrEqual(t, stats.CachedRotations, 2)

	s.ClearCaches()
	assert.Zero(t, s.CacheStats().CachedCarpets)
}

func TestSchedule_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var carpets []model.Carpet
	for id := 1; id <= 5; id++ {
		carpets = append(carpets, rectCarpet(id, 200, 200, model.ColorBlack, 1))
	}
	res := Schedule(ctx, carpets, []model.SheetDescriptor{sheet140x200(model.ColorBlack, 3)}, model.DefaultNestSettings())

	assert.Empty(t, res.Sheets)
	require.Len(t, res.Unplaced, 5)
	for _, u := range res.Unplaced {
		assert.Equal(t, model.ReasonCancelled, u.Reason)
	}
}

func TestSchedule_ProgressReported(t *testing.T) {
	s := New(model.DefaultNestSettings())
	var stages []string
	var last float64
	s.Progress = func(percent float64, stage string) {
		stages = append(stages, stage)
		assert.GreaterOrEqual(t, percent, last-1e-9)
		last = percent
	}
	carpets := []model.Carpet{
		rectCarpet(1, 300, 300, model.ColorBlack, 1),
		rectCarpet(2, 100, 100, model.ColorBlack, 2),
	}
	s.Schedule(context.Background(), carpets, []model.SheetDescriptor{sheet140x200(model.ColorBlack, 1)})

	assert.Contains(t, stages, "priority1")
	assert.Contains(t, stages, "priority2")
	assert.Equal(t, "done", stages[len(stages)-1])
	assert.InDelta(t, 100.0, last, 1e-9)
}
