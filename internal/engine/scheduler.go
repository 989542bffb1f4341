package engine

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/asergeenko/carpetnest/internal/geometry"
	"github.com/asergeenko/carpetnest/internal/model"
)

// Result is the outcome of one scheduling call: the consumed sheets in
// emit order and every carpet that could not be placed, tagged with a
// reason. Every input carpet appears exactly once across the two lists.
type Result struct {
	Sheets   []model.PlacedSheet    `json:"sheets"`
	Unplaced []model.UnplacedCarpet `json:"unplaced"`
}

// Scheduler runs the multi-sheet nesting loop. It is single-threaded:
// one scheduling call at a time per instance. The rotation cache lives
// on the scheduler and is dropped on ClearCaches.
type Scheduler struct {
	Settings model.NestSettings

	// Progress, when set, receives coarse completion callbacks:
	// percent in [0, 100] and a stage name.
	Progress func(percent float64, stage string)

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	cache *RotationCache
}

// New returns a scheduler with the given settings.
func New(settings model.NestSettings) *Scheduler {
	return &Scheduler{Settings: settings, cache: NewRotationCache()}
}

// Schedule is the convenience entry point with default settings wiring.
func Schedule(ctx context.Context, carpets []model.Carpet, inventory []model.SheetDescriptor, settings model.NestSettings) Result {
	return New(settings).Schedule(ctx, carpets, inventory)
}

// CacheStats exposes rotation-cache occupancy for tests and debugging.
func (s *Scheduler) CacheStats() CacheStats { return s.cache.Stats() }

// ClearCaches drops all memoized rotations.
func (s *Scheduler) ClearCaches() { s.cache.Clear() }

// openSheet is a sheet consumed from the inventory that is still
// accepting carpets.
type openSheet struct {
	desc   model.SheetDescriptor
	placed []model.PlacedCarpet
	idx    *sheetIndex
	dirty  bool // placements since the last compaction
}

func (sh *openSheet) rebuildIndex() {
	sh.idx = newSheetIndex(placedPolygons(sh.placed))
}

func (sh *openSheet) add(pc model.PlacedCarpet) {
	sh.placed = append(sh.placed, pc)
	sh.rebuildIndex()
	sh.dirty = true
}

// Schedule nests the carpets onto sheets drawn from the inventory.
// Priority-1 carpets are scheduled first and may open new sheets;
// priority-2 carpets then fill remaining voids and never open one.
// The context cancels cooperatively: on cancellation the partial result
// is returned with the remaining carpets marked cancelled.
func (s *Scheduler) Schedule(ctx context.Context, carpets []model.Carpet, inventory []model.SheetDescriptor) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	log := s.logger()

	stock := make([]model.SheetDescriptor, len(inventory))
	copy(stock, inventory)

	var result Result

	valid := make([]model.Carpet, 0, len(carpets))
	for _, c := range carpets {
		repaired, err := geometry.Repair(c.Polygon)
		if err != nil {
			log.Warn("rejecting carpet with invalid geometry", "carpet", c.ID, "file", c.Filename)
			result.Unplaced = append(result.Unplaced, model.UnplacedCarpet{Carpet: c, Reason: model.ReasonInvalidGeometry})
			continue
		}
		c.Polygon = geometry.Normalize(repaired)
		valid = append(valid, c)
	}

	p1, p2 := splitByPriority(valid)
	sortByPlacementKey(p1, false)
	sortByPlacementKey(p2, true)

	log.Info("scheduling", "carpets", len(valid), "priority1", len(p1), "priority2", len(p2), "descriptors", len(stock))

	total := len(p1) + len(p2)
	done := 0

	var sheets []*openSheet
	var deferred []model.Carpet
	cancelled := false

	for i, c := range p1 {
		if ctx.Err() != nil {
			s.markCancelled(&result, p1[i:], deferred, p2)
			cancelled = true
			break
		}
		s.report(float64(done)/float64(max(total, 1))*100, "priority1")
		done++

		if placed := s.tryOpenSheets(c, sheets); placed {
			continue
		}

		sh, reason := s.openNewSheet(c, &stock, sheets, log)
		if sh == nil {
			if reason == "" {
				deferred = append(deferred, c)
			} else {
				result.Unplaced = append(result.Unplaced, model.UnplacedCarpet{Carpet: c, Reason: reason})
			}
			continue
		}
		sheets = append(sheets, sh)
		if pc, ok := place(s.cache, c, sh.idx, sh.desc.WidthMM(), sh.desc.HeightMM(), s.Settings.MinGap, s.Settings.TetrisWeight); ok {
			sh.add(pc)
		} else {
			// The sheet was opened because the bbox fits, so a failure
			// here means the carpet needs a later, larger descriptor.
			deferred = append(deferred, c)
		}
	}

	if !cancelled {
		// One more try for deferred carpets across everything open.
		for _, c := range deferred {
			s.report(float64(done)/float64(max(total, 1))*100, "deferred")
			if s.tryOpenSheets(c, sheets) {
				continue
			}
			result.Unplaced = append(result.Unplaced, model.UnplacedCarpet{Carpet: c, Reason: model.ReasonExhausted})
		}

		unplaced2 := s.fillPriorityTwo(ctx, p2, sheets, &done, total)
		result.Unplaced = append(result.Unplaced, unplaced2...)
	}

	for _, sh := range sheets {
		if sh.dirty {
			compactSheet(sh.placed, s.Settings.MinGap, s.Settings.CompactionIterations)
			sh.dirty = false
		}
	}

	for i, sh := range sheets {
		result.Sheets = append(result.Sheets, emitSheet(sh, i+1))
	}
	s.report(100, "done")

	log.Info("scheduling finished", "sheets", len(result.Sheets), "unplaced", len(result.Unplaced))
	return result
}

// tryOpenSheets offers the carpet to every open sheet of its color in
// insertion order and commits the first acceptance.
func (s *Scheduler) tryOpenSheets(c model.Carpet, sheets []*openSheet) bool {
	for _, sh := range sheets {
		if sh.desc.Color != c.Color {
			continue
		}
		if pc, ok := place(s.cache, c, sh.idx, sh.desc.WidthMM(), sh.desc.HeightMM(), s.Settings.MinGap, s.Settings.TetrisWeight); ok {
			sh.add(pc)
			return true
		}
	}
	return false
}

// openNewSheet consumes one unit of stock for the carpet's color. A nil
// sheet always comes with a reason: no descriptor of the color, none
// large enough, or every large-enough descriptor exhausted. Opening a sheet because the
// existing ones rejected the carpet closes them for compaction purposes:
// each gets its pending compaction run here.
func (s *Scheduler) openNewSheet(c model.Carpet, stock *[]model.SheetDescriptor, sheets []*openSheet, log *slog.Logger) (*openSheet, model.UnplacedReason) {
	matching := false
	fitsSome := false
	for _, d := range *stock {
		if d.Color != c.Color {
			continue
		}
		matching = true
		if s.fitsSheet(c, d) {
			fitsSome = true
		}
	}
	if !matching {
		return nil, model.ReasonNoInventoryForColor
	}
	if !fitsSome {
		return nil, model.ReasonOversizeForColor
	}

	for i := range *stock {
		d := &(*stock)[i]
		if d.Color != c.Color || d.Count <= 0 || !s.fitsSheet(c, *d) {
			continue
		}
		d.Count--

		// The rejecting sheets of this color are now considered closed.
		for _, sh := range sheets {
			if sh.desc.Color == c.Color && sh.dirty {
				compactSheet(sh.placed, s.Settings.MinGap, s.Settings.CompactionIterations)
				sh.rebuildIndex()
				sh.dirty = false
			}
		}

		log.Info("opening sheet", "name", d.Name, "color", d.Color, "remaining", d.Count)
		sh := &openSheet{desc: *d}
		sh.rebuildIndex()
		return sh, ""
	}
	return nil, model.ReasonExhausted
}

// fitsSheet reports whether the carpet's bounding box fits the sheet at
// rotation 0 or 90.
func (s *Scheduler) fitsSheet(c model.Carpet, d model.SheetDescriptor) bool {
	w, h := geometry.BoundWH(c.Polygon.Bound())
	sw, sh := d.WidthMM(), d.HeightMM()
	eps := geometry.Epsilon
	return (w <= sw+eps && h <= sh+eps) || (h <= sw+eps && w <= sh+eps)
}

func (s *Scheduler) markCancelled(result *Result, rest, deferred, p2 []model.Carpet) {
	for _, group := range [][]model.Carpet{rest, deferred, p2} {
		for _, c := range group {
			result.Unplaced = append(result.Unplaced, model.UnplacedCarpet{Carpet: c, Reason: model.ReasonCancelled})
		}
	}
}

func (s *Scheduler) report(percent float64, stage string) {
	if s.Progress != nil {
		s.Progress(math.Min(100, percent), stage)
	}
}

func (s *Scheduler) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func emitSheet(sh *openSheet, number int) model.PlacedSheet {
	usedArea := 0.0
	for _, p := range sh.placed {
		usedArea += geometry.Area(p.Polygon)
	}
	return model.PlacedSheet{
		Descriptor:   sh.desc,
		Placed:       sh.placed,
		UsagePercent: usedArea / sh.desc.AreaMM2() * 100,
		Number:       number,
	}
}

func splitByPriority(carpets []model.Carpet) (p1, p2 []model.Carpet) {
	for _, c := range carpets {
		if c.Priority >= 2 {
			p2 = append(p2, c)
		} else {
			p1 = append(p1, c)
		}
	}
	return p1, p2
}

// placementKey orders carpets for scheduling: large, elongated,
// non-compact pieces are the hardest to fit and go first.
func placementKey(c model.Carpet) float64 {
	w, h := geometry.BoundWH(c.Polygon.Bound())
	if w < geometry.Epsilon || h < geometry.Epsilon {
		return 0
	}
	area := geometry.Area(c.Polygon)
	aspect := math.Max(w, h) / math.Min(w, h)
	compactness := area / (w * h)
	perimeter := 2 * (w + h)
	return area + (aspect-1)*area*0.3 + (1-compactness)*area*0.2 + perimeter*0.05
}

// sortByPlacementKey sorts in place, descending unless asc; ties break
// by carpet ID so the schedule is reproducible.
func sortByPlacementKey(carpets []model.Carpet, asc bool) {
	sort.SliceStable(carpets, func(i, j int) bool {
		ki, kj := placementKey(carpets[i]), placementKey(carpets[j])
		if ki != kj {
			if asc {
				return ki < kj
			}
			return ki > kj
		}
		return carpets[i].ID < carpets[j].ID
	})
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
