package miner

import (
	"errors"
	"testing"
	"time"

	"beltline.ai/internal/sim/logistics/belt"
	"beltline.ai/internal/sim/logistics/inventory"
	"beltline.ai/internal/sim/logistics/model"
	"beltline.ai/internal/sim/logistics/rotation"
)

type chestAt struct {
	tile model.TilePos
	inv  *inventory.Inventory
}

func (c chestAt) Occupants(tile model.TilePos) []model.EntityID {
	if tile == c.tile && c.inv != nil {
		return []model.EntityID{9}
	}
	return nil
}

func (c chestAt) Inventory(id model.EntityID, kind model.InventoryKind) *inventory.Inventory {
	if id == 9 && kind == model.KindStorage {
		return c.inv
	}
	return nil
}

func (chestAt) Belt(model.EntityID) *belt.TransportBelt { return nil }

func TestNew_RejectsBadConfig(t *testing.T) {
	if _, err := New(0, "COAL", model.TilePos{}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("zero interval err=%v", err)
	}
	if _, err := New(time.Second, "", model.TilePos{}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("no resource err=%v", err)
	}
}

func TestTick_ProducesOncePerInterval(t *testing.T) {
	r, err := rotation.Facing(4, rotation.East)
	if err != nil {
		t.Fatalf("Facing: %v", err)
	}
	m, err := Place(time.Second, "COAL", model.TilePos{X: 0, Y: 0}, r)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	chest := chestAt{tile: model.TilePos{X: 1, Y: 0}, inv: inventory.New(1)}

	for i := 0; i < 10; i++ {
		m.Tick(chest, 500*time.Millisecond)
	}
	if got := chest.inv.Count("COAL"); got != 5 {
		t.Fatalf("mined=%d", got)
	}
	if !m.Working() {
		t.Fatalf("miner with a dropoff should be working")
	}
}

func TestTick_BlockedOutputProducesNothing(t *testing.T) {
	m, err := New(time.Second, "COAL", model.TilePos{X: 3, Y: 3})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := m.Tick(chestAt{}, 2*time.Second); ok {
		t.Fatalf("nothing to drop into")
	}
	if m.Working() {
		t.Fatalf("blocked miner must not report working")
	}
}

func TestHalt_KeepsTimerProgress(t *testing.T) {
	m, err := New(time.Second, "COAL", model.TilePos{X: 1, Y: 0})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	chest := chestAt{tile: model.TilePos{X: 1, Y: 0}, inv: inventory.New(1)}
	m.Tick(chest, 600*time.Millisecond)
	if !m.Working() {
		t.Fatalf("miner with room should be working")
	}
	m.Halt()
	if m.Working() || m.Timer().Elapsed != 600*time.Millisecond {
		t.Fatalf("working=%v elapsed=%v", m.Working(), m.Timer().Elapsed)
	}
	if _, ok := m.Tick(chest, 400*time.Millisecond); !ok || chest.inv.Count("COAL") != 1 {
		t.Fatalf("halted progress lost")
	}
}
