package drop

import (
	"testing"

	"beltline.ai/internal/sim/logistics/belt"
	"beltline.ai/internal/sim/logistics/inventory"
	"beltline.ai/internal/sim/logistics/model"
	"beltline.ai/internal/sim/logistics/rotation"
)

type kindKey struct {
	id   model.EntityID
	kind model.InventoryKind
}

type tileLookup struct {
	tiles map[model.TilePos][]model.EntityID
	invs  map[kindKey]*inventory.Inventory
	belts map[model.EntityID]*belt.TransportBelt
}

func (l tileLookup) Occupants(tile model.TilePos) []model.EntityID { return l.tiles[tile] }
func (l tileLookup) Inventory(id model.EntityID, kind model.InventoryKind) *inventory.Inventory {
	return l.invs[kindKey{id, kind}]
}
func (l tileLookup) Belt(id model.EntityID) *belt.TransportBelt { return l.belts[id] }

var here = model.TilePos{X: 1, Y: 1}

func newLookup() tileLookup {
	return tileLookup{
		tiles: map[model.TilePos][]model.EntityID{},
		invs:  map[kindKey]*inventory.Inventory{},
		belts: map[model.EntityID]*belt.TransportBelt{},
	}
}

func TestDropStackAt_SkipsOutputInventories(t *testing.T) {
	lk := newLookup()
	lk.tiles[here] = []model.EntityID{1}
	out := inventory.New(1)
	lk.invs[kindKey{1, model.KindOutput}] = out

	if CanDropStackAt(lk, model.NewStack("COAL", 1), here) {
		t.Fatalf("output inventories never accept drops")
	}

	src := inventory.New(1)
	lk.invs[kindKey{1, model.KindSource}] = src
	p, ok := DropStackAt(lk, model.NewStack("COAL", 1), here)
	if !ok || p.Belt || p.Kind != model.KindSource {
		t.Fatalf("placement=%+v ok=%v", p, ok)
	}
	if src.Count("COAL") != 1 || !out.IsEmpty() {
		t.Fatalf("source=%v output=%v", src.Totals(), out.Totals())
	}
}

func TestDropStackAt_BeltMiddleSlot(t *testing.T) {
	lk := newLookup()
	r, err := rotation.Facing(4, rotation.South)
	if err != nil {
		t.Fatalf("Facing: %v", err)
	}
	b := belt.New(r)
	lk.tiles[here] = []model.EntityID{4}
	lk.belts[4] = b

	if CanDropStackAt(lk, model.NewStack("COAL", 2), here) {
		t.Fatalf("belts take single units only")
	}
	if _, ok := DropStackAt(lk, model.NewStack("COAL", 1), here); !ok {
		t.Fatalf("drop onto empty belt failed")
	}
	if it, _ := b.Slot(belt.MiddleSlot); it != "COAL" {
		t.Fatalf("belt=%v", b.Slots())
	}
	if _, ok := DropStackAt(lk, model.NewStack("COAL", 1), here); ok {
		t.Fatalf("occupied middle slot must refuse")
	}
}

func TestDropStackAt_EmptyTile(t *testing.T) {
	if _, ok := DropStackAt(newLookup(), model.NewStack("COAL", 1), here); ok {
		t.Fatalf("nothing on tile")
	}
}
