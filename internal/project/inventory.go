// Package project persists the pieces of state that outlive a single
// nesting run: the sheet inventory, per-job configuration files, and
// result backups.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/asergeenko/carpetnest/internal/model"
)

const (
	configDirName = ".carpetnest"
	inventoryFile = "inventory.json"
)

// DefaultInventoryPath returns the location of the inventory store,
// ~/.carpetnest/inventory.json.
func DefaultInventoryPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, configDirName, inventoryFile), nil
}

// SaveInventory normalizes the inventory and writes it to path,
// creating parent directories as needed. What lands on disk is always
// a store that LoadInventory accepts unchanged.
func SaveInventory(path string, inv model.Inventory) error {
	inv = NormalizeInventory(inv)
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling inventory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating inventory directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing inventory: %w", err)
	}
	return nil
}

// LoadInventory reads the inventory store. A missing file seeds the
// default stock list and persists it so the next run sees the same
// state. The store is hand-editable, so the loaded descriptors are
// normalized: entries without usable dimensions or color are dropped,
// negative counts clamp to zero and missing IDs are minted.
func LoadInventory(path string) (model.Inventory, error) {
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		inv := model.DefaultInventory()
		if saveErr := SaveInventory(path, inv); saveErr != nil {
			return inv, saveErr
		}
		return inv, nil
	case err != nil:
		return model.Inventory{}, fmt.Errorf("reading inventory: %w", err)
	}

	var inv model.Inventory
	if err := json.Unmarshal(data, &inv); err != nil {
		return model.Inventory{}, fmt.Errorf("parsing inventory %s: %w", path, err)
	}
	return NormalizeInventory(inv), nil
}

// LoadOrCreateInventory loads from the default path, creating the file
// with defaults on first use. Returns the inventory and the path used.
func LoadOrCreateInventory() (model.Inventory, string, error) {
	path, err := DefaultInventoryPath()
	if err != nil {
		return model.DefaultInventory(), "", err
	}
	inv, err := LoadInventory(path)
	return inv, path, err
}

// NormalizeInventory cleans a descriptor list that may have been edited
// by hand. Descriptor order is preserved — the scheduler consumes
// matching descriptors in insertion order, so reordering here would
// change which sheets get cut first.
func NormalizeInventory(inv model.Inventory) model.Inventory {
	sheets := make([]model.SheetDescriptor, 0, len(inv.Sheets))
	for _, d := range inv.Sheets {
		if d.Width <= 0 || d.Height <= 0 || d.Color == "" {
			continue
		}
		if d.Count < 0 {
			d.Count = 0
		}
		if d.ID == "" {
			d.ID = uuid.New().String()[:8]
		}
		if d.Name == "" {
			d.Name = fmt.Sprintf("%s %gx%g", d.Color, d.Width, d.Height)
		}
		sheets = append(sheets, d)
	}
	return model.Inventory{Sheets: sheets}
}

// CountByColor sums the remaining units per color, for pre-run
// diagnostics ("is there any gray left before we schedule").
func CountByColor(inv model.Inventory) map[model.Color]int {
	counts := make(map[model.Color]int)
	for _, d := range inv.Sheets {
		counts[d.Color] += d.Count
	}
	return counts
}
