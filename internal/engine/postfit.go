package engine

import (
	"context"

	"github.com/asergeenko/carpetnest/internal/model"
)

// fillPriorityTwo stuffs priority-2 carpets into voids on the sheets
// the priority-1 pass consumed. Carpets arrive sorted ascending (small
// ones first — they are the ones that fit leftover pockets) and each is
// offered to every sheet of its color in emit order. A new sheet is
// never opened here: priority-2 work must not grow material usage.
func (s *Scheduler) fillPriorityTwo(ctx context.Context, p2 []model.Carpet, sheets []*openSheet, done *int, total int) []model.UnplacedCarpet {
	var unplaced []model.UnplacedCarpet

	for i, c := range p2 {
		if ctx.Err() != nil {
			for _, rest := range p2[i:] {
				unplaced = append(unplaced, model.UnplacedCarpet{Carpet: rest, Reason: model.ReasonCancelled})
			}
			return unplaced
		}
		s.report(float64(*done)/float64(max(total, 1))*100, "priority2")
		*done++

		if s.tryOpenSheets(c, sheets) {
			continue
		}
		unplaced = append(unplaced, model.UnplacedCarpet{Carpet: c, Reason: s.priorityTwoReason(c, sheets)})
	}
	return unplaced
}

// priorityTwoReason classifies a failed priority-2 carpet: no sheet of
// its color was ever consumed, the carpet is larger than every consumed
// sheet, or the voids are simply used up.
func (s *Scheduler) priorityTwoReason(c model.Carpet, sheets []*openSheet) model.UnplacedReason {
	anyColor := false
	fitsSome := false
	for _, sh := range sheets {
		if sh.desc.Color != c.Color {
			continue
		}
		anyColor = true
		if s.fitsSheet(c, sh.desc) {
			fitsSome = true
		}
	}
	switch {
	case !anyColor:
		return model.ReasonNoInventoryForColor
	case !fitsSome:
		return model.ReasonOversizeForColor
	default:
		return model.ReasonExhausted
	}
}
