package world

import (
	"testing"

	"beltline.ai/internal/sim/catalogs"
	"beltline.ai/internal/sim/logistics/model"
	"beltline.ai/internal/sim/logistics/rotation"
)

func newTestWorld(t *testing.T) *World {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	w, err := New(WorldConfig{ID: "test", TickRateHz: 20, Strict: true}, cats)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	return w
}

func mustPlace(t *testing.T, w *World, def string, x, y int, facing rotation.CompassDirection, items ...model.ItemCount) model.EntityID {
	t.Helper()
	id, err := w.PlaceNow(PlaceRequest{Structure: def, Pos: model.TilePos{X: x, Y: y}, Facing: facing, Items: items})
	if err != nil {
		t.Fatalf("place %s at (%d,%d): %v", def, x, y, err)
	}
	return id
}

func mustStep(t *testing.T, w *World, n int) []TickResult {
	t.Helper()
	out := make([]TickResult, 0, n)
	for i := 0; i < n; i++ {
		res, err := w.StepOnce(nil, nil)
		if err != nil {
			t.Fatalf("tick %d: %v", res.Tick, err)
		}
		out = append(out, res)
	}
	return out
}

// buildChain lays out chest -> inserter -> three belts -> inserter -> chest
// along y=0, all facing east.
func buildChain(t *testing.T, w *World, plates uint32) (src, dst model.EntityID) {
	t.Helper()
	src = mustPlace(t, w, "CHEST", 0, 0, rotation.North, model.Count("IRON_PLATE", plates))
	mustPlace(t, w, "INSERTER", 1, 0, rotation.East)
	mustPlace(t, w, "TRANSPORT_BELT", 2, 0, rotation.East)
	mustPlace(t, w, "TRANSPORT_BELT", 3, 0, rotation.East)
	mustPlace(t, w, "TRANSPORT_BELT", 4, 0, rotation.East)
	mustPlace(t, w, "INSERTER", 5, 0, rotation.East)
	dst = mustPlace(t, w, "CHEST", 6, 0, rotation.North)
	return src, dst
}

func storageTotal(w *World, id model.EntityID, item model.Item) uint64 {
	inv := w.Inventory(id, model.KindStorage)
	if inv == nil {
		return 0
	}
	return inv.Totals()[item]
}
