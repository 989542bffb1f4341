// Package importer brings external order and drawing data into the
// nesting engine: DXF carpet contours, and Excel/CSV order lists with
// automatic delimiter and column detection.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/asergeenko/carpetnest/internal/model"
)

// OrderRecord is one row of an order list: which article to cut, how
// many times, from what color, at which priority.
type OrderRecord struct {
	Article  string
	Product  string
	Color    model.Color
	Priority int
	Quantity int
}

// OrderImportResult holds parsed records plus accumulated problems.
type OrderImportResult struct {
	Records  []OrderRecord
	Errors   []string
	Warnings []string
}

// OrderColumnMapping maps semantic column roles to indices.
type OrderColumnMapping struct {
	Article  int
	Product  int
	Color    int
	Priority int
	Quantity int
}

// orderHeaderAliases maps canonical column names to accepted aliases,
// including the Russian headings the warehouse spreadsheets use.
var orderHeaderAliases = map[string][]string{
	"article":  {"article", "art", "sku", "code", "артикул"},
	"product":  {"product", "name", "item", "описание", "товар", "изделие"},
	"color":    {"color", "colour", "цвет"},
	"priority": {"priority", "prio", "приоритет"},
	"quantity": {"quantity", "qty", "count", "pcs", "количество", "кол-во"},
}

// colorAliases normalizes free-form color cells.
var colorAliases = map[string]model.Color{
	"black":  model.ColorBlack,
	"черный": model.ColorBlack,
	"чёрный": model.ColorBlack,
	"gray":   model.ColorGray,
	"grey":   model.ColorGray,
	"серый":  model.ColorGray,
}

// ParseColor maps a spreadsheet color cell to a model color. Unknown
// values pass through lower-cased so exotic materials still round-trip.
func ParseColor(s string) model.Color {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if c, ok := colorAliases[normalized]; ok {
		return c
	}
	return model.Color(normalized)
}

// DetectOrderColumns examines a header row and returns the column
// mapping. Falls back to positional mapping (article, product, color,
// priority, quantity) when no recognizable header is present.
func DetectOrderColumns(row []string) (OrderColumnMapping, bool) {
	mapping := OrderColumnMapping{Article: -1, Product: -1, Color: -1, Priority: -1, Quantity: -1}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range orderHeaderAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				switch role {
				case "article":
					if mapping.Article == -1 {
						mapping.Article = i
					}
				case "product":
					if mapping.Product == -1 {
						mapping.Product = i
					}
				case "color":
					if mapping.Color == -1 {
						mapping.Color = i
					}
				case "priority":
					if mapping.Priority == -1 {
						mapping.Priority = i
					}
				case "quantity":
					if mapping.Quantity == -1 {
						mapping.Quantity = i
					}
				}
			}
		}
	}

	if !isHeader {
		return OrderColumnMapping{Article: 0, Product: 1, Color: 2, Priority: 3, Quantity: 4}, false
	}
	return mapping, true
}

// DetectCSVDelimiter determines the most likely CSV delimiter among
// comma, semicolon, tab and pipe: the one producing the most consistent
// multi-column split wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}
		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}
		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}
		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}
	return bestDelimiter
}

// ImportOrdersCSV imports order records from a CSV file with automatic
// delimiter detection.
func ImportOrdersCSV(path string) OrderImportResult {
	result := OrderImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("cannot open file: %v", err))
		return result
	}
	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "file is empty")
		return result
	}

	return ImportOrdersCSVFromReader(bytes.NewReader(data), DetectCSVDelimiter(data))
}

// ImportOrdersCSVFromReader imports order records from a CSV reader
// with a known delimiter.
func ImportOrdersCSVFromReader(reader io.Reader, delimiter rune) OrderImportResult {
	result := OrderImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("cannot read CSV: %v", err))
		return result
	}
	if len(records) == 0 {
		result.Errors = append(result.Errors, "file is empty")
		return result
	}
	return ordersFromRows(records, "line")
}

// ImportOrdersExcel imports order records from the first sheet of an
// Excel workbook.
func ImportOrdersExcel(path string) OrderImportResult {
	result := OrderImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("cannot read Excel data: %v", err))
		return result
	}
	if len(rows) == 0 {
		result.Errors = append(result.Errors, "sheet is empty")
		return result
	}
	return ordersFromRows(rows, "row")
}

// ordersFromRows is the shared parsing path for CSV and Excel rows.
func ordersFromRows(rows [][]string, rowPrefix string) OrderImportResult {
	result := OrderImportResult{}

	mapping, hasHeader := DetectOrderColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		if mapping.Article == -1 || mapping.Quantity == -1 {
			result.Errors = append(result.Errors, "required columns not found in header: need article and quantity")
			return result
		}
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		rec, problem := parseOrderRow(row, mapping, rowLabel)
		if problem != "" {
			result.Errors = append(result.Errors, problem)
			continue
		}
		result.Records = append(result.Records, rec)
	}

	if len(result.Records) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "no order rows found")
	}
	return result
}

func parseOrderRow(row []string, mapping OrderColumnMapping, rowLabel string) (OrderRecord, string) {
	rec := OrderRecord{
		Article:  getCell(row, mapping.Article),
		Product:  getCell(row, mapping.Product),
		Color:    ParseColor(getCell(row, mapping.Color)),
		Priority: 1,
		Quantity: 1,
	}
	if rec.Article == "" {
		return rec, fmt.Sprintf("%s: missing article", rowLabel)
	}

	if s := getCell(row, mapping.Priority); s != "" {
		p, err := strconv.Atoi(s)
		if err != nil || (p != 1 && p != 2) {
			return rec, fmt.Sprintf("%s: invalid priority %q (want 1 or 2)", rowLabel, s)
		}
		rec.Priority = p
	}
	if s := getCell(row, mapping.Quantity); s != "" {
		q, err := strconv.Atoi(s)
		if err != nil || q < 0 {
			return rec, fmt.Sprintf("%s: invalid quantity %q", rowLabel, s)
		}
		rec.Quantity = q
	}
	return rec, ""
}

func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ExpandOrders materializes carpets from order records: each record's
// DXF (looked up as <article>.dxf under dxfDir) is imported once and
// replicated quantity times, minting IDs from the caller-owned source.
// Records whose DXF cannot be used are reported in the returned result
// and skipped.
func ExpandOrders(records []OrderRecord, dxfDir string, ids *model.IDSource) ([]model.Carpet, OrderImportResult) {
	var carpets []model.Carpet
	report := OrderImportResult{Records: records}

	contours := make(map[string]DXFResult)
	for _, rec := range records {
		if _, done := contours[rec.Article]; !done {
			contours[rec.Article] = ImportDXF(filepath.Join(dxfDir, rec.Article+".dxf"))
		}
		dr := contours[rec.Article]
		report.Warnings = append(report.Warnings, dr.Warnings...)
		if !dr.Ok() {
			report.Errors = append(report.Errors,
				fmt.Sprintf("article %s: %s", rec.Article, strings.Join(dr.Errors, "; ")))
			continue
		}
		for i := 0; i < rec.Quantity; i++ {
			carpets = append(carpets, model.Carpet{
				ID:       ids.Next(),
				Polygon:  dr.Polygon,
				Color:    rec.Color,
				OrderID:  rec.Article,
				Priority: rec.Priority,
				Filename: rec.Article + ".dxf",
			})
		}
	}
	return carpets, report
}
