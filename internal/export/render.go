package export

import (
	"image/color"
	"image/png"
	"io"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"

	"github.com/asergeenko/carpetnest/internal/model"
)

// SheetRenderer draws one placed sheet as vector graphics: the sheet
// outline and each carpet polygon, filled per order.
type SheetRenderer struct {
	// Scale converts sheet millimetres to canvas units. The default of
	// 0.1 yields one canvas unit per centimetre.
	Scale float64
	// Padding around the sheet, in sheet millimetres.
	Padding float64
	// Resolution for PNG output.
	Resolution canvas.Resolution
}

// NewSheetRenderer returns a renderer with default settings.
func NewSheetRenderer() *SheetRenderer {
	return &SheetRenderer{
		Scale:      0.1,
		Padding:    50,
		Resolution: canvas.DPI(150),
	}
}

// canvasRenderer is the subset both the svg and rasterizer renderers
// implement.
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

func (r *SheetRenderer) canvasSize(sheet model.PlacedSheet) (w, h float64) {
	w = (sheet.Descriptor.WidthMM() + 2*r.Padding) * r.Scale
	h = (sheet.Descriptor.HeightMM() + 2*r.Padding) * r.Scale
	return w, h
}

// RenderSVG writes the sheet drawing as an SVG document.
func (r *SheetRenderer) RenderSVG(w io.Writer, sheet model.PlacedSheet) error {
	cw, ch := r.canvasSize(sheet)
	svgRenderer := svg.New(w, cw, ch, nil)
	r.renderSheet(svgRenderer, sheet, cw, ch)
	return svgRenderer.Close()
}

// RenderPNG writes the sheet drawing as a PNG image.
func (r *SheetRenderer) RenderPNG(w io.Writer, sheet model.PlacedSheet) error {
	cw, ch := r.canvasSize(sheet)
	rast := rasterizer.New(cw, ch, r.Resolution, canvas.DefaultColorSpace)
	r.renderSheet(rast, sheet, cw, ch)
	return png.Encode(w, rast)
}

func (r *SheetRenderer) renderSheet(renderer canvasRenderer, sheet model.PlacedSheet, cw, ch float64) {
	// White background.
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(cw, ch), bgStyle, canvas.Identity)

	toCanvas := func(x, y float64) (float64, float64) {
		return (x + r.Padding) * r.Scale, (y + r.Padding) * r.Scale
	}

	// Sheet outline.
	outlineStyle := canvas.DefaultStyle
	outlineStyle.Fill = canvas.Paint{Color: canvas.Transparent}
	outlineStyle.Stroke = canvas.Paint{Color: canvas.Black}
	outlineStyle.StrokeWidth = 2 * r.Scale

	sheetPath := &canvas.Path{}
	x0, y0 := toCanvas(0, 0)
	x1, y1 := toCanvas(sheet.Descriptor.WidthMM(), sheet.Descriptor.HeightMM())
	sheetPath.MoveTo(x0, y0)
	sheetPath.LineTo(x1, y0)
	sheetPath.LineTo(x1, y1)
	sheetPath.LineTo(x0, y1)
	sheetPath.Close()
	renderer.RenderPath(sheetPath, outlineStyle, canvas.Identity)

	colorByOrder := orderColorIndex(sheet)
	for _, p := range sheet.Placed {
		col := carpetColors[colorByOrder[p.OrderID]%len(carpetColors)]

		style := canvas.DefaultStyle
		style.Fill = canvas.Paint{Color: color.RGBA{R: uint8(col.R), G: uint8(col.G), B: uint8(col.B), A: 255}}
		style.Stroke = canvas.Paint{Color: canvas.Black}
		style.StrokeWidth = 1 * r.Scale
		style.StrokeCapper = canvas.RoundCapper{}
		style.StrokeJoiner = canvas.RoundJoiner{}

		path := &canvas.Path{}
		for _, ring := range p.Polygon {
			if len(ring) == 0 {
				continue
			}
			px, py := toCanvas(ring[0].X(), ring[0].Y())
			path.MoveTo(px, py)
			for _, pt := range ring[1:] {
				px, py = toCanvas(pt.X(), pt.Y())
				path.LineTo(px, py)
			}
			path.Close()
		}
		renderer.RenderPath(path, style, canvas.Identity)
	}
}
