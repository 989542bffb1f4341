package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/asergeenko/carpetnest/internal/engine"
)

// ResultBackup is the persisted form of one nesting run.
type ResultBackup struct {
	Version   string        `json:"version"`
	CreatedAt string        `json:"created_at"`
	Result    engine.Result `json:"result"`
}

const backupVersion = "1.0.0"

// maxBackups bounds the number of result backups kept per directory;
// older ones are pruned.
const maxBackups = 20

// SaveResultBackup writes the nesting result as a timestamped JSON file
// under dir and prunes old backups. Returns the path written.
func SaveResultBackup(dir string, result engine.Result, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	backup := ResultBackup{
		Version:   backupVersion,
		CreatedAt: at.UTC().Format(time.RFC3339),
		Result:    result,
	}
	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling backup: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("nesting-%s.json", at.UTC().Format("20060102-150405")))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing backup: %w", err)
	}

	if err := pruneBackups(dir); err != nil {
		return path, err
	}
	return path, nil
}

// LoadResultBackup reads a backup file back.
func LoadResultBackup(path string) (ResultBackup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ResultBackup{}, fmt.Errorf("reading backup: %w", err)
	}
	var backup ResultBackup
	if err := json.Unmarshal(data, &backup); err != nil {
		return ResultBackup{}, fmt.Errorf("parsing backup: %w", err)
	}
	if backup.Version == "" {
		return ResultBackup{}, fmt.Errorf("invalid backup file: missing version field")
	}
	return backup, nil
}

// pruneBackups deletes the oldest backups beyond maxBackups. Filenames
// embed the timestamp, so lexical order is chronological.
func pruneBackups(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	if len(names) <= maxBackups {
		return nil
	}
	sort.Strings(names)
	for _, name := range names[:len(names)-maxBackups] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}
