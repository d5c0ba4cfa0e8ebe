// Package drop places freshly produced stacks onto whatever accepts them at
// a tile: a non-output inventory first, otherwise a belt's middle slot.
package drop

import (
	"beltline.ai/internal/sim/logistics/belt"
	"beltline.ai/internal/sim/logistics/inventory"
	"beltline.ai/internal/sim/logistics/model"
)

type Lookup interface {
	Occupants(tile model.TilePos) []model.EntityID
	Inventory(id model.EntityID, kind model.InventoryKind) *inventory.Inventory
	Belt(id model.EntityID) *belt.TransportBelt
}

// Placement says where a stack landed. Belt is set for belt drops, Kind
// for inventory drops.
type Placement struct {
	Entity model.EntityID
	Belt   bool
	Kind   model.InventoryKind
}

// CanDropStackAt reports whether some occupant of tile takes all of stack.
func CanDropStackAt(lk Lookup, stack model.Stack, tile model.TilePos) bool {
	_, ok := find(lk, stack, tile)
	return ok
}

// DropStackAt puts stack on the first occupant that takes all of it. Belts
// only take single units.
func DropStackAt(lk Lookup, stack model.Stack, tile model.TilePos) (Placement, bool) {
	p, ok := find(lk, stack, tile)
	if !ok {
		return Placement{}, false
	}
	if p.Belt {
		return p, lk.Belt(p.Entity).Add(belt.MiddleSlot, stack.Item)
	}
	return p, lk.Inventory(p.Entity, p.Kind).AddStack(stack) == nil
}

func find(lk Lookup, stack model.Stack, tile model.TilePos) (Placement, bool) {
	if stack.Amount == 0 || stack.Item.IsZero() {
		return Placement{}, false
	}
	for _, id := range lk.Occupants(tile) {
		for _, kind := range model.DropoffKinds {
			if inv := lk.Inventory(id, kind); inv != nil && inv.CanAddStack(stack) {
				return Placement{Entity: id, Kind: kind}, true
			}
		}
		if b := lk.Belt(id); b != nil && stack.Amount == 1 && b.CanAdd(belt.MiddleSlot) {
			return Placement{Entity: id, Belt: true}, true
		}
	}
	return Placement{}, false
}
