package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"beltline.ai/internal/persistence/indexdb"
	"beltline.ai/internal/persistence/snapshot"
	"beltline.ai/internal/sim/catalogs"
	"beltline.ai/internal/sim/tuning"
	"beltline.ai/internal/sim/world"
)

type runtimeIndex interface {
	world.TickLogger
	world.AuditLogger
	Close() error
	BeginRun(worldID string, startTick uint64) (string, error)
	UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error
	RecordSnapshot(path string, snap snapshot.SnapshotV1)
	Stats() indexdb.Stats
}

// openRuntimeIndex returns a nil index (and no error) when indexing is off.
func openRuntimeIndex(worldDir string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("BL_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		dbPath := filepath.Join(worldDir, "index", "world.sqlite")
		return indexdb.OpenSQLite(dbPath)
	default:
		return nil, fmt.Errorf("unsupported BL_INDEX_BACKEND: %s", backend)
	}
}
