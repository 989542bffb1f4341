// Package export writes nesting results out: a per-sheet PDF report,
// QR-coded carpet labels, PNG/SVG drawings and a DXF layout file for
// the cutting table.
package export

import (
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/asergeenko/carpetnest/internal/engine"
	"github.com/asergeenko/carpetnest/internal/geometry"
	"github.com/asergeenko/carpetnest/internal/model"
)

// carpetColor represents an RGB fill for a placed carpet, cycled per
// order so all copies of one order share a color.
type carpetColor struct {
	R, G, B int
}

var carpetColors = []carpetColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// ExportPDF renders the nesting result as a PDF: one page per sheet
// with the layout drawing, then a summary page.
func ExportPDF(path string, result engine.Result) error {
	if len(result.Sheets) == 0 {
		return fmt.Errorf("no sheets to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	for _, sheet := range result.Sheets {
		pdf.AddPage()
		renderSheetPage(pdf, sheet)
	}

	pdf.AddPage()
	renderSummaryPage(pdf, result)

	return pdf.OutputFileAndClose(path)
}

// renderSheetPage draws a single placed sheet on the current page.
func renderSheetPage(pdf *fpdf.Fpdf, sheet model.PlacedSheet) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Sheet %d: %s %s (%.0f x %.0f mm)",
		sheet.Number, sheet.Descriptor.Name, sheet.Descriptor.Color,
		sheet.Descriptor.WidthMM(), sheet.Descriptor.HeightMM())
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Carpets: %d | Orders: %d | Usage: %.1f%%",
		len(sheet.Placed), len(sheet.Orders()), sheet.UsagePercent)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom

	sheetW := sheet.Descriptor.WidthMM()
	sheetH := sheet.Descriptor.HeightMM()
	scale := math.Min(drawWidth/sheetW, drawHeight/sheetH)

	canvasW := sheetW * scale
	canvasH := sheetH * scale
	offsetX := marginLeft + (drawWidth-canvasW)/2
	offsetY := drawAreaTop

	// Sheet background.
	pdf.SetFillColor(235, 235, 235)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(offsetX, offsetY, canvasW, canvasH, "FD")

	colorByOrder := orderColorIndex(sheet)
	for _, p := range sheet.Placed {
		col := carpetColors[colorByOrder[p.OrderID]%len(carpetColors)]
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.3)

		// The page Y axis points down; flip the sheet Y axis so the
		// layout reads the way the cutter sees it.
		pts := make([]fpdf.PointType, 0, len(p.Polygon[0]))
		for _, pt := range p.Polygon[0] {
			pts = append(pts, fpdf.PointType{
				X: offsetX + pt.X()*scale,
				Y: offsetY + (sheetH-pt.Y())*scale,
			})
		}
		pdf.Polygon(pts, "FD")

		b := p.Polygon.Bound()
		w, h := geometry.BoundWH(b)
		if w*scale > 15 && h*scale > 8 {
			pdf.SetFont("Helvetica", "", 6)
			pdf.SetTextColor(0, 0, 0)
			label := fmt.Sprintf("%d %s", p.ID, p.OrderID)
			labelW := pdf.GetStringWidth(label)
			cx := offsetX + (b.Min.X()+w/2)*scale
			cy := offsetY + (sheetH-(b.Min.Y()+h/2))*scale
			pdf.SetXY(cx-labelW/2, cy-2)
			pdf.CellFormat(labelW, 4, label, "", 0, "C", false, 0, "")
		}
	}
}

// renderSummaryPage draws overall statistics and the unplaced list.
func renderSummaryPage(pdf *fpdf.Fpdf, result engine.Result) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, "Nesting Summary", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	y := marginTop + headerHeight + 5

	var usedArea, totalArea float64
	var carpetCount int
	for _, sheet := range result.Sheets {
		usedArea += sheetUsedArea(sheet)
		carpetCount += len(sheet.Placed)
		totalArea += sheet.Descriptor.AreaMM2()
	}
	overall := 0.0
	if totalArea > 0 {
		overall = usedArea / totalArea * 100
	}

	lines := []string{
		fmt.Sprintf("Sheets used: %d", len(result.Sheets)),
		fmt.Sprintf("Carpets placed: %d", carpetCount),
		fmt.Sprintf("Carpets unplaced: %d", len(result.Unplaced)),
		fmt.Sprintf("Overall material usage: %.1f%%", overall),
	}
	for _, sheet := range result.Sheets {
		lines = append(lines, fmt.Sprintf("  Sheet %d: %d carpets, %.1f%%",
			sheet.Number, len(sheet.Placed), sheet.UsagePercent))
	}
	for _, u := range result.Unplaced {
		lines = append(lines, fmt.Sprintf("  Unplaced %d (%s): %s", u.Carpet.ID, u.Carpet.OrderID, u.Reason))
	}

	for _, line := range lines {
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, line, "", 0, "L", false, 0, "")
		y += 6
		if y > pageHeight-marginBottom {
			pdf.AddPage()
			y = marginTop
		}
	}
}

// orderColorIndex assigns each order on a sheet a stable color slot in
// first-appearance order.
func orderColorIndex(sheet model.PlacedSheet) map[string]int {
	idx := make(map[string]int)
	for _, order := range sheet.Orders() {
		idx[order] = len(idx)
	}
	return idx
}
