package world

import (
	"path/filepath"
	"testing"

	"beltline.ai/internal/persistence/snapshot"
	"beltline.ai/internal/sim/logistics/model"
	"beltline.ai/internal/sim/logistics/rotation"
)

func TestSnapshotExportImport_RoundTripDigest(t *testing.T) {
	w1 := newTestWorld(t)
	buildChain(t, w1, 6)
	mustPlace(t, w1, "BURNER_MINER", 0, 3, rotation.East, model.Count("COAL", 2))
	mustPlace(t, w1, "TRANSPORT_BELT", 1, 3, rotation.East)
	furnace := mustPlace(t, w1, "STONE_FURNACE", 3, 5, rotation.North, model.Count("COAL", 2))
	w1.Inventory(furnace, model.KindSource).AddItem("IRON_ORE", 3)

	// Stop mid-flight: arms moving, items on belts, timers, burners and
	// the furnace part way.
	mustStep(t, w1, 47)

	snapTick := w1.CurrentTick() - 1
	d1 := w1.stateDigest(snapTick)
	snap := w1.ExportSnapshot(snapTick)
	if snap.Header.Digest != d1 {
		t.Fatalf("header digest %s want %s", snap.Header.Digest, d1)
	}

	// Through the file codec as the server would.
	path := filepath.Join(t.TempDir(), "47.snap.zst")
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		t.Fatalf("write: %v", err)
	}
	loaded, err := snapshot.ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	w2 := newTestWorld(t)
	if err := w2.ImportSnapshot(loaded); err != nil {
		t.Fatalf("import: %v", err)
	}
	if got, want := w2.CurrentTick(), snapTick+1; got != want {
		t.Fatalf("tick=%d want %d", got, want)
	}
	if d2 := w2.stateDigest(snapTick); d2 != d1 {
		t.Fatalf("digest mismatch after import: %s vs %s", d1, d2)
	}
	if r, elapsed, ok := w2.Crafter(furnace).Active(); !ok || r.Name != "IRON_PLATE" || elapsed == 0 {
		t.Fatalf("furnace craft lost: %s %v", r.Name, elapsed)
	}

	// Both worlds keep evolving identically.
	for i := 0; i < 200; i++ {
		r1, err := w1.StepOnce(nil, nil)
		if err != nil {
			t.Fatalf("w1: %v", err)
		}
		r2, err := w2.StepOnce(nil, nil)
		if err != nil {
			t.Fatalf("w2: %v", err)
		}
		if r1.Digest != r2.Digest {
			t.Fatalf("diverged at tick %d", r1.Tick)
		}
	}
}

func TestImportSnapshot_RejectsOverlapAndKeepsWorld(t *testing.T) {
	w1 := newTestWorld(t)
	mustPlace(t, w1, "CHEST", 0, 0, rotation.North)
	mustPlace(t, w1, "CHEST", 1, 0, rotation.North)
	snap := w1.ExportSnapshot(0)
	snap.Structures[1].Pos = snap.Structures[0].Pos

	w2 := newTestWorld(t)
	keep := mustPlace(t, w2, "TRANSPORT_BELT", 5, 5, rotation.East)
	before := w2.Digest()
	if err := w2.ImportSnapshot(snap); err == nil {
		t.Fatalf("expected overlap error")
	}
	if w2.Belt(keep) == nil || w2.Digest() != before {
		t.Fatalf("failed import modified the world")
	}
}

func TestImportSnapshot_RejectsVersion(t *testing.T) {
	w1 := newTestWorld(t)
	snap := w1.ExportSnapshot(0)
	snap.Header.Version = 99
	if err := newTestWorld(t).ImportSnapshot(snap); err == nil {
		t.Fatalf("expected version error")
	}
}

func TestImportSnapshot_NewPlacementsGetFreshIDs(t *testing.T) {
	w1 := newTestWorld(t)
	mustPlace(t, w1, "CHEST", 0, 0, rotation.North)
	last := mustPlace(t, w1, "CHEST", 1, 0, rotation.North)

	w2 := newTestWorld(t)
	if err := w2.ImportSnapshot(w1.ExportSnapshot(0)); err != nil {
		t.Fatalf("import: %v", err)
	}
	if id := mustPlace(t, w2, "CHEST", 2, 0, rotation.North); id <= last {
		t.Fatalf("id %v reused (last %v)", id, last)
	}
}
