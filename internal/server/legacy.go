package server

import (
	"errors"
	"fmt"
	"os"

	"github.com/soaringjerry/Solace/internal/api"
	"github.com/soaringjerry/Solace/internal/log"
)

// ImportLegacy copies a JSON snapshot written by the memory store into dst.
// It only runs when dst holds no entries, so it is safe to call on every
// start. It returns the number of entries imported.
func ImportLegacy(snapshotPath string, dst Store, logger *log.Logger) (int, error) {
	if snapshotPath == "" {
		return 0, nil
	}
	if _, err := os.Stat(snapshotPath); errors.Is(err, os.ErrNotExist) {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("check snapshot: %w", err)
	}
	n, err := dst.CountEntries()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	legacy, err := api.NewMemoryStoreFromPath(snapshotPath)
	if err != nil {
		return 0, fmt.Errorf("load legacy snapshot: %w", err)
	}
	snap := legacy.Snapshot()
	if len(snap.Entries) == 0 {
		return 0, nil
	}
	logger.Info("first run detected, importing legacy snapshot", "path", snapshotPath, "entries", len(snap.Entries))
	for _, e := range snap.Entries {
		if err := dst.AddEntry(e); err != nil {
			return 0, fmt.Errorf("import entry %s: %w", e.ID, err)
		}
	}
	for _, a := range snap.Audit {
		if err := dst.AddAudit(a); err != nil {
			return 0, fmt.Errorf("import audit: %w", err)
		}
	}
	logger.Info("legacy import completed", "entries", len(snap.Entries), "audit", len(snap.Audit))
	return len(snap.Entries), nil
}
