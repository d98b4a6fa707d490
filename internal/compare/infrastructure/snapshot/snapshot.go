// Package snapshot persists the full series store to disk so a re-run can
// bypass fetching entirely. The file is a full-fidelity cache, not an
// index: loading it is equivalent to having just completed all fetches.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gridstats/internal/compare/domain/series"
)

// Save writes the store contents to path, creating parent directories.
func Save(path string, store *series.Store) error {
	if path == "" {
		return fmt.Errorf("snapshot: empty path")
	}
	data, err := json.Marshal(store.Dump())
	if err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("snapshot: write: %w", err)
	}
	return nil
}

// Load restores a snapshot into the store. Returns false without error
// when no snapshot exists at path.
func Load(path string, store *series.Store) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("snapshot: read: %w", err)
	}
	var dump map[series.Entity]map[series.Day]series.DayData
	if err := json.Unmarshal(data, &dump); err != nil {
		return false, fmt.Errorf("snapshot: decode %s: %w", path, err)
	}
	store.Restore(dump)
	return true, nil
}
