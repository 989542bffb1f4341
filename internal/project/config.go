package project

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/asergeenko/carpetnest/internal/model"
)

// JobConfig describes one batch nesting run: where the inputs live,
// where outputs go, the sheets available to this job and the engine
// settings. Jobs are YAML files so operators can edit them by hand.
type JobConfig struct {
	// OrdersFile is the Excel or CSV order list.
	OrdersFile string `yaml:"orders_file"`
	// DXFDir holds one <article>.dxf per ordered article.
	DXFDir string `yaml:"dxf_dir"`
	// OutputDir receives the PDF, labels, images and DXF layouts.
	OutputDir string `yaml:"output_dir"`

	// Sheets overrides the persisted inventory when non-empty.
	Sheets []JobSheet `yaml:"sheets"`

	Settings model.NestSettings `yaml:"settings"`
}

// JobSheet is the YAML shape of a sheet descriptor; dimensions in cm.
type JobSheet struct {
	Name   string  `yaml:"name"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Color  string  `yaml:"color"`
	Count  int     `yaml:"count"`
}

// LoadJobConfig reads and validates a job file. Zero-valued settings
// fields fall back to the engine defaults.
func LoadJobConfig(path string) (JobConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return JobConfig{}, fmt.Errorf("reading job config: %w", err)
	}
	var cfg JobConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return JobConfig{}, fmt.Errorf("parsing job config: %w", err)
	}

	if cfg.OrdersFile == "" {
		return JobConfig{}, fmt.Errorf("job config: orders_file is required")
	}
	if cfg.DXFDir == "" {
		return JobConfig{}, fmt.Errorf("job config: dxf_dir is required")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}

	defaults := model.DefaultNestSettings()
	if cfg.Settings.MinGap <= 0 {
		cfg.Settings.MinGap = defaults.MinGap
	}
	if cfg.Settings.TetrisWeight == 0 {
		cfg.Settings.TetrisWeight = defaults.TetrisWeight
	}
	if cfg.Settings.CompactionIterations <= 0 {
		cfg.Settings.CompactionIterations = defaults.CompactionIterations
	}
	return cfg, nil
}

// Descriptors converts the job's sheet list into model descriptors,
// preserving order.
func (cfg JobConfig) Descriptors() []model.SheetDescriptor {
	descs := make([]model.SheetDescriptor, 0, len(cfg.Sheets))
	for _, s := range cfg.Sheets {
		descs = append(descs, model.NewSheetDescriptor(s.Name, s.Width, s.Height, model.Color(s.Color), s.Count))
	}
	return descs
}
