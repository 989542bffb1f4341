package model

import (
	"fmt"

	"github.com/google/uuid"
)

// SheetDescriptor describes one size/color of raw material in the
// inventory. Dimensions are in centimetres as they come from the
// warehouse list; the engine works in millimetres via WidthMM/HeightMM.
type SheetDescriptor struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Width  float64 `json:"width"`  // cm
	Height float64 `json:"height"` // cm
	Color  Color   `json:"color"`
	Count  int     `json:"count"` // units remaining
}

// NewSheetDescriptor creates a descriptor with a generated ID.
func NewSheetDescriptor(name string, widthCM, heightCM float64, color Color, count int) SheetDescriptor {
	return SheetDescriptor{
		ID:     uuid.New().String()[:8],
		Name:   name,
		Width:  widthCM,
		Height: heightCM,
		Color:  color,
		Count:  count,
	}
}

// WidthMM returns the sheet width in millimetres.
func (s SheetDescriptor) WidthMM() float64 { return s.Width * 10 }

// HeightMM returns the sheet height in millimetres.
func (s SheetDescriptor) HeightMM() float64 { return s.Height * 10 }

// AreaMM2 returns the sheet area in square millimetres.
func (s SheetDescriptor) AreaMM2() float64 { return s.WidthMM() * s.HeightMM() }

// PlacedSheet is one consumed sheet with its placements in insertion
// order. Number is the 1-based sequence assigned at emit time.
type PlacedSheet struct {
	Descriptor   SheetDescriptor `json:"descriptor"`
	Placed       []PlacedCarpet  `json:"placed"`
	UsagePercent float64         `json:"usage_percent"`
	Number       int             `json:"number"`
}

// Orders returns the distinct order IDs present on the sheet, in first
// appearance order. Used for diagnostics and export labelling.
func (ps PlacedSheet) Orders() []string {
	seen := make(map[string]bool)
	var orders []string
	for _, p := range ps.Placed {
		if !seen[p.OrderID] {
			seen[p.OrderID] = true
			orders = append(orders, p.OrderID)
		}
	}
	return orders
}

func (ps PlacedSheet) String() string {
	return fmt.Sprintf("PlacedSheet(#%d %s %gx%g cm, %d carpets, %.1f%%)",
		ps.Number, ps.Descriptor.Color, ps.Descriptor.Width, ps.Descriptor.Height,
		len(ps.Placed), ps.UsagePercent)
}

// Inventory is the persisted warehouse state: the ordered list of sheet
// descriptors. Order matters — the scheduler consumes descriptors in
// insertion order when several match a color.
type Inventory struct {
	Sheets []SheetDescriptor `json:"sheets"`
}

// DefaultInventory returns the stock list a fresh installation starts
// with: the two standard EVA roll sizes in both colors.
func DefaultInventory() Inventory {
	return Inventory{
		Sheets: []SheetDescriptor{
			NewSheetDescriptor("Black 140x200", 140, 200, ColorBlack, 10),
			NewSheetDescriptor("Gray 140x200", 140, 200, ColorGray, 10),
			NewSheetDescriptor("Black 100x150", 100, 150, ColorBlack, 10),
			NewSheetDescriptor("Gray 100x150", 100, 150, ColorGray, 10),
		},
	}
}
