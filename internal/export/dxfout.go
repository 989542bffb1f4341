package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"

	"github.com/asergeenko/carpetnest/internal/model"
)

// layer colors cycled per order in the DXF output.
var dxfLayerColors = []color.ColorNumber{
	color.Green, color.Blue, color.Magenta, color.Cyan, color.Red, color.Yellow,
}

// ExportDXF writes one placed sheet as a DXF drawing for the cutting
// table: the sheet boundary on its own layer and every carpet contour
// as line segments, one layer per order.
func ExportDXF(path string, sheet model.PlacedSheet) error {
	if len(sheet.Placed) == 0 {
		return fmt.Errorf("no placed carpets on sheet %d", sheet.Number)
	}

	d := dxf.NewDrawing()

	if _, err := d.AddLayer("SHEET", dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("adding sheet layer: %w", err)
	}
	drawRect(d, 0, 0, sheet.Descriptor.WidthMM(), sheet.Descriptor.HeightMM())

	colorByOrder := orderColorIndex(sheet)
	layerDone := make(map[string]bool)
	for _, p := range sheet.Placed {
		layerName := orderLayerName(p.OrderID)
		if !layerDone[layerName] {
			layerColor := dxfLayerColors[colorByOrder[p.OrderID]%len(dxfLayerColors)]
			if _, err := d.AddLayer(layerName, layerColor, dxf.DefaultLineType, false); err != nil {
				return fmt.Errorf("adding layer %s: %w", layerName, err)
			}
			layerDone[layerName] = true
		}
		if err := d.ChangeLayer(layerName); err != nil {
			return fmt.Errorf("switching to layer %s: %w", layerName, err)
		}

		for _, ring := range p.Polygon {
			for i := 0; i+1 < len(ring); i++ {
				d.Line(ring[i].X(), ring[i].Y(), 0, ring[i+1].X(), ring[i+1].Y(), 0)
			}
		}
	}

	if err := d.ChangeLayer("SHEET"); err != nil {
		return err
	}
	return d.SaveAs(path)
}

func drawRect(d *drawing.Drawing, x, y, w, h float64) {
	d.Line(x, y, 0, x+w, y, 0)
	d.Line(x+w, y, 0, x+w, y+h, 0)
	d.Line(x+w, y+h, 0, x, y+h, 0)
	d.Line(x, y+h, 0, x, y, 0)
}

// orderLayerName sanitizes an order ID into a DXF layer name.
func orderLayerName(orderID string) string {
	name := make([]rune, 0, len(orderID))
	for _, r := range orderID {
		switch {
		case r >= 'a' && r <= 'z':
			name = append(name, r-'a'+'A')
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-':
			name = append(name, r)
		default:
			name = append(name, '_')
		}
	}
	if len(name) == 0 {
		return "ORDER"
	}
	return "ORDER_" + string(name)
}
