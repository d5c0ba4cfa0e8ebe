package inserter

import (
	"beltline.ai/internal/sim/logistics/belt"
	"beltline.ai/internal/sim/logistics/inventory"
	"beltline.ai/internal/sim/logistics/model"
)

// Lookup resolves tiles and entities for the planner and executor.
// Occupants must return a stable order; it decides tie-breaks.
type Lookup interface {
	Occupants(tile model.TilePos) []model.EntityID
	Inventory(id model.EntityID, kind model.InventoryKind) *inventory.Inventory
	Belt(id model.EntityID) *belt.TransportBelt
}

// Env adapts plain functions to Lookup. Missing functions resolve nothing.
type Env struct {
	OccupantsFn func(tile model.TilePos) []model.EntityID
	InventoryFn func(id model.EntityID, kind model.InventoryKind) *inventory.Inventory
	BeltFn      func(id model.EntityID) *belt.TransportBelt
}

func (e Env) Occupants(tile model.TilePos) []model.EntityID {
	if e.OccupantsFn == nil {
		return nil
	}
	return e.OccupantsFn(tile)
}

func (e Env) Inventory(id model.EntityID, kind model.InventoryKind) *inventory.Inventory {
	if e.InventoryFn == nil {
		return nil
	}
	return e.InventoryFn(id, kind)
}

func (e Env) Belt(id model.EntityID) *belt.TransportBelt {
	if e.BeltFn == nil {
		return nil
	}
	return e.BeltFn(id)
}

func onTile(lk Lookup, tile model.TilePos, id model.EntityID) bool {
	for _, o := range lk.Occupants(tile) {
		if o == id {
			return true
		}
	}
	return false
}
