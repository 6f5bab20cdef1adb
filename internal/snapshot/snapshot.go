// Package snapshot persists the raw fetched data between runs. Whether a
// run reads the snapshot or refetches is an explicit caller decision, never
// inferred from file existence inside the pipeline.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/domain"
)

func Save(path string, snap domain.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("snapshot: marshal: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("snapshot: write %s: %w", path, err)
	}
	return nil
}

func Load(path string) (domain.Snapshot, error) {
	var snap domain.Snapshot
	b, err := os.ReadFile(path)
	if err != nil {
		return snap, fmt.Errorf("snapshot: read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &snap); err != nil {
		return snap, fmt.Errorf("snapshot: parse %s: %w", path, err)
	}
	return snap, nil
}

// Exists reports whether a snapshot file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
