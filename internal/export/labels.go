package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/asergeenko/carpetnest/internal/engine"
	"github.com/asergeenko/carpetnest/internal/geometry"
	"github.com/asergeenko/carpetnest/internal/model"
)

// LabelInfo holds the data encoded into each carpet label's QR code.
type LabelInfo struct {
	CarpetID int     `json:"carpet_id"`
	OrderID  string  `json:"order_id"`
	Filename string  `json:"filename"`
	Color    string  `json:"color"`
	Sheet    int     `json:"sheet"`
	X        float64 `json:"x_mm"`
	Y        float64 `json:"y_mm"`
	Angle    int     `json:"angle"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns,
// 10 rows per page on US Letter).
const (
	labelMarginTop  = 12.7 // mm
	labelMarginLeft = 4.8  // mm
	labelWidth      = 66.7 // mm per label
	labelHeight     = 25.4 // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// CollectLabelInfos extracts one label per placed carpet across all
// sheets, in emit order.
func CollectLabelInfos(result engine.Result) []LabelInfo {
	var labels []LabelInfo
	for _, sheet := range result.Sheets {
		for _, p := range sheet.Placed {
			labels = append(labels, LabelInfo{
				CarpetID: p.ID,
				OrderID:  p.OrderID,
				Filename: p.Filename,
				Color:    string(p.Color),
				Sheet:    sheet.Number,
				X:        p.XOffset,
				Y:        p.YOffset,
				Angle:    p.Angle,
			})
		}
	}
	return labels
}

// ExportLabels generates a PDF of QR-coded labels for every placed
// carpet, laid out on a standard label sheet.
func ExportLabels(path string, result engine.Result) error {
	labels := CollectLabelInfos(result)
	if len(labels) == 0 {
		return fmt.Errorf("no placed carpets to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}
		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight
		if err := renderLabel(pdf, x, y, label); err != nil {
			return fmt.Errorf("rendering label for carpet %d: %w", label.CarpetID, err)
		}
	}
	return pdf.OutputFileAndClose(path)
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, info LabelInfo) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshaling label info: %w", err)
	}
	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("generating QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%d_%d", info.CarpetID, info.Sheet)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)

	title := fmt.Sprintf("%s #%d", info.OrderID, info.CarpetID)
	if pdf.GetStringWidth(title) > textW {
		for len(title) > 0 && pdf.GetStringWidth(title+"...") > textW {
			title = title[:len(title)-1]
		}
		title += "..."
	}
	pdf.CellFormat(textW, 4.5, title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	pdf.CellFormat(textW, 3.5, fmt.Sprintf("%s / %s", info.Filename, info.Color), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	pdf.CellFormat(textW, 3, fmt.Sprintf("Sheet %d @ (%.0f, %.0f)", info.Sheet, info.X, info.Y), "", 1, "L", false, 0, "")

	if info.Angle != 0 {
		pdf.SetXY(textX, y+labelPadding+12.5)
		pdf.SetFont("Helvetica", "I", 6)
		pdf.SetTextColor(150, 100, 0)
		pdf.CellFormat(textW, 3, fmt.Sprintf("Rotated %d\xb0", info.Angle), "", 0, "L", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
	return nil
}

// sheetUsedArea sums the placed polygon areas of one sheet.
func sheetUsedArea(sheet model.PlacedSheet) float64 {
	var total float64
	for _, p := range sheet.Placed {
		total += geometry.Area(p.Polygon)
	}
	return total
}
