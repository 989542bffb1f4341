// Package model defines the data types shared by the nesting engine,
// the importers and the exporters: carpets, placements, sheets and the
// nesting settings.
package model

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Color identifies the material color of a carpet or sheet. The order
// importer normalizes carpet colors to lower case, mapping known aliases
// to the English names; sheet colors from job files and the inventory
// store are used as written.
type Color string

const (
	ColorBlack Color = "black"
	ColorGray  Color = "gray"
)

// Carpet is a single piece to be nested. The polygon is in millimetres,
// normalized so its bounding box starts at (0, 0). Carpets are immutable
// after construction and compare by ID only.
type Carpet struct {
	ID       int         `json:"id"`
	Polygon  orb.Polygon `json:"polygon"`
	Color    Color       `json:"color"`
	OrderID  string      `json:"order_id"`
	Priority int         `json:"priority"` // 1 or 2
	Filename string      `json:"filename"`
}

// Equal reports whether two carpets are the same piece. Geometry does
// not participate: identity is the ID alone.
func (c Carpet) Equal(other Carpet) bool {
	return c.ID == other.ID
}

func (c Carpet) String() string {
	return fmt.Sprintf("Carpet(id=%d, file=%q, color=%q, order=%q, priority=%d)",
		c.ID, c.Filename, c.Color, c.OrderID, c.Priority)
}

// PlacedCarpet is a carpet materialized at a sheet location. Polygon is
// the input polygon after rotation about its centroid and translation;
// it is the authoritative geometry. XOffset/YOffset/Angle are the
// diagnostic record of the transform that produced it.
type PlacedCarpet struct {
	ID       int         `json:"id"`
	Polygon  orb.Polygon `json:"polygon"`
	XOffset  float64     `json:"x_offset"`
	YOffset  float64     `json:"y_offset"`
	Angle    int         `json:"angle"` // one of 0, 90, 180, 270
	Color    Color       `json:"color"`
	OrderID  string      `json:"order_id"`
	Priority int         `json:"priority"`
	Filename string      `json:"filename"`
}

// NewPlacedCarpet builds the placement record for a carpet. The polygon
// passed in must already be rotated and translated.
func NewPlacedCarpet(c Carpet, poly orb.Polygon, x, y float64, angle int) PlacedCarpet {
	return PlacedCarpet{
		ID:       c.ID,
		Polygon:  poly,
		XOffset:  x,
		YOffset:  y,
		Angle:    angle,
		Color:    c.Color,
		OrderID:  c.OrderID,
		Priority: c.Priority,
		Filename: c.Filename,
	}
}

// Equal compares by ID only, mirroring Carpet identity.
func (p PlacedCarpet) Equal(other PlacedCarpet) bool {
	return p.ID == other.ID
}

func (p PlacedCarpet) String() string {
	return fmt.Sprintf("PlacedCarpet(id=%d, file=%q, pos=(%.1f, %.1f), angle=%d)",
		p.ID, p.Filename, p.XOffset, p.YOffset, p.Angle)
}

// UnplacedReason tags why a carpet could not be placed.
type UnplacedReason string

const (
	ReasonInvalidGeometry     UnplacedReason = "invalid_geometry"
	ReasonOversizeForColor    UnplacedReason = "oversize_for_color"
	ReasonNoInventoryForColor UnplacedReason = "no_inventory_for_color"
	ReasonExhausted           UnplacedReason = "exhausted"
	ReasonCancelled           UnplacedReason = "cancelled"
)

// UnplacedCarpet is a carpet the scheduler could not place, together
// with the reason from the failure taxonomy.
type UnplacedCarpet struct {
	Carpet Carpet         `json:"carpet"`
	Reason UnplacedReason `json:"reason"`
}

func (u UnplacedCarpet) String() string {
	return fmt.Sprintf("UnplacedCarpet(id=%d, file=%q, reason=%s)",
		u.Carpet.ID, u.Carpet.Filename, u.Reason)
}
