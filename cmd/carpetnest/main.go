// carpetnest — batch nesting of carpet contours onto material sheets.
//
// Reads a YAML job file describing the order list, the DXF drawing
// directory and the available sheets, runs the nesting engine and
// writes the cutting artifacts (PDF report, QR labels, per-sheet PNG
// and DXF layouts) to the output directory.
//
// Build:
//
//	go build -o carpetnest ./cmd/carpetnest
//
// Run:
//
//	carpetnest -job job.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/asergeenko/carpetnest/internal/engine"
	"github.com/asergeenko/carpetnest/internal/export"
	"github.com/asergeenko/carpetnest/internal/importer"
	"github.com/asergeenko/carpetnest/internal/model"
	"github.com/asergeenko/carpetnest/internal/project"
)

func main() {
	jobPath := flag.String("job", "", "path to the YAML job file (required)")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *jobPath == "" {
		fmt.Fprintln(os.Stderr, "usage: carpetnest -job job.yaml")
		os.Exit(2)
	}
	if err := run(*jobPath, logger); err != nil {
		logger.Error("nesting failed", "error", err)
		os.Exit(1)
	}
}

func run(jobPath string, logger *slog.Logger) error {
	cfg, err := project.LoadJobConfig(jobPath)
	if err != nil {
		return err
	}

	orders := importOrders(cfg.OrdersFile)
	for _, w := range orders.Warnings {
		logger.Warn("order import", "warning", w)
	}
	for _, e := range orders.Errors {
		logger.Error("order import", "error", e)
	}
	if len(orders.Records) == 0 {
		return fmt.Errorf("no usable order records in %s", cfg.OrdersFile)
	}

	carpets, expansion := importer.ExpandOrders(orders.Records, cfg.DXFDir, model.NewIDSource())
	for _, w := range expansion.Warnings {
		logger.Warn("drawing import", "warning", w)
	}
	for _, e := range expansion.Errors {
		logger.Error("drawing import", "error", e)
	}
	if len(carpets) == 0 {
		return fmt.Errorf("no usable carpets after drawing import")
	}

	inventory := cfg.Descriptors()
	if len(inventory) == 0 {
		inv, path, invErr := project.LoadOrCreateInventory()
		if invErr != nil {
			return fmt.Errorf("loading inventory: %w", invErr)
		}
		logger.Info("using persisted inventory", "path", path)
		counts := project.CountByColor(inv)
		colors := make([]string, 0, len(counts))
		for color := range counts {
			colors = append(colors, string(color))
		}
		sort.Strings(colors)
		for _, color := range colors {
			logger.Info("stock", "color", color, "sheets", counts[model.Color(color)])
		}
		inventory = inv.Sheets
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sched := engine.New(cfg.Settings)
	sched.Logger = logger
	sched.Progress = func(percent float64, stage string) {
		logger.Debug("progress", "stage", stage, "percent", fmt.Sprintf("%.0f", percent))
	}

	started := time.Now()
	result := sched.Schedule(ctx, carpets, inventory)
	logger.Info("nesting complete",
		"sheets", len(result.Sheets),
		"unplaced", len(result.Unplaced),
		"elapsed", time.Since(started).Round(time.Millisecond))

	if err := writeArtifacts(cfg.OutputDir, result, logger); err != nil {
		return err
	}

	for _, u := range result.Unplaced {
		logger.Warn("unplaced carpet", "carpet", u.Carpet.ID, "order", u.Carpet.OrderID, "reason", string(u.Reason))
	}
	printSummary(result)
	return nil
}

func importOrders(path string) importer.OrderImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return importer.ImportOrdersCSV(path)
	default:
		return importer.ImportOrdersExcel(path)
	}
}

func writeArtifacts(outDir string, result engine.Result, logger *slog.Logger) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if len(result.Sheets) > 0 {
		pdfPath := filepath.Join(outDir, "layout.pdf")
		if err := export.ExportPDF(pdfPath, result); err != nil {
			return fmt.Errorf("writing PDF report: %w", err)
		}
		logger.Info("wrote report", "path", pdfPath)

		labelsPath := filepath.Join(outDir, "labels.pdf")
		if err := export.ExportLabels(labelsPath, result); err != nil {
			return fmt.Errorf("writing labels: %w", err)
		}
		logger.Info("wrote labels", "path", labelsPath)

		renderer := export.NewSheetRenderer()
		for _, sheet := range result.Sheets {
			pngPath := filepath.Join(outDir, fmt.Sprintf("sheet-%02d.png", sheet.Number))
			f, err := os.Create(pngPath)
			if err != nil {
				return err
			}
			if err := renderer.RenderPNG(f, sheet); err != nil {
				f.Close()
				return fmt.Errorf("rendering sheet %d: %w", sheet.Number, err)
			}
			if err := f.Close(); err != nil {
				return err
			}

			dxfPath := filepath.Join(outDir, fmt.Sprintf("sheet-%02d.dxf", sheet.Number))
			if err := export.ExportDXF(dxfPath, sheet); err != nil {
				return fmt.Errorf("writing sheet %d DXF: %w", sheet.Number, err)
			}
		}
		logger.Info("wrote sheet drawings", "count", len(result.Sheets))
	}

	backupPath, err := project.SaveResultBackup(filepath.Join(outDir, "backups"), result, time.Now())
	if err != nil {
		return fmt.Errorf("writing result backup: %w", err)
	}
	logger.Info("wrote backup", "path", backupPath)
	return nil
}

func printSummary(result engine.Result) {
	fmt.Printf("Sheets used: %d\n", len(result.Sheets))
	for _, sheet := range result.Sheets {
		fmt.Printf("  sheet %d (%s %s): %d carpets, %.1f%% used\n",
			sheet.Number, sheet.Descriptor.Name, sheet.Descriptor.Color,
			len(sheet.Placed), sheet.UsagePercent)
	}
	fmt.Printf("Unplaced carpets: %d\n", len(result.Unplaced))
}
