package inserter

import (
	"beltline.ai/internal/sim/logistics/belt"
	"beltline.ai/internal/sim/logistics/model"
)

// DropoffRequest is one place at the dropoff tile that would take an item
// from Accepts.
type DropoffRequest struct {
	Target  Target
	Accepts model.ItemFilter
}

// Pickup is one item available at the pickup tile.
type Pickup struct {
	Target Target
	Item   model.Item
}

// DropoffRequests enumerates the dropoff tile. Per occupant, inventories go
// Fuel, Source, Storage: one request per distinct partially-filled stack
// item, then one for an empty slot. A belt offers its middle slot when free.
// While holding, only places that can take the held item are listed.
func DropoffRequests(ins *Inserter, lk Lookup) []DropoffRequest {
	var held model.Item
	if ins.holding != nil {
		held = ins.holding.Item
	}
	var out []DropoffRequest
	for _, id := range lk.Occupants(ins.dropoffTile) {
		for _, kind := range model.DropoffKinds {
			inv := lk.Inventory(id, kind)
			if inv == nil {
				continue
			}
			if !held.IsZero() && !inv.CanAddItem(held) {
				continue
			}
			target := InventoryTarget(id, kind)
			seen := map[model.Item]bool{}
			emptySlot := false
			for i := 0; i < inv.Len(); i++ {
				s, ok := inv.Slot(i)
				if !ok {
					emptySlot = true
					continue
				}
				if s.Full() || seen[s.Item] {
					continue
				}
				if !held.IsZero() && s.Item != held {
					continue
				}
				seen[s.Item] = true
				out = append(out, DropoffRequest{Target: target, Accepts: model.FilterOnly(s.Item)})
			}
			if emptySlot {
				out = append(out, DropoffRequest{Target: target, Accepts: inv.Filter()})
			}
		}
		if b := lk.Belt(id); b != nil && b.CanAdd(belt.MiddleSlot) {
			out = append(out, DropoffRequest{Target: BeltTarget(id), Accepts: model.FilterAll()})
		}
	}
	return out
}

// Pickups lists items at the pickup tile matching accepts: Output then
// Storage inventories slot by slot, then the belt's middle slot.
func Pickups(ins *Inserter, lk Lookup, accepts model.ItemFilter) []Pickup {
	var out []Pickup
	for _, id := range lk.Occupants(ins.pickupTile) {
		for _, kind := range model.PickupKinds {
			inv := lk.Inventory(id, kind)
			if inv == nil {
				continue
			}
			for i := 0; i < inv.Len(); i++ {
				if s, ok := inv.Slot(i); ok && accepts.Allows(s.Item) {
					out = append(out, Pickup{Target: InventoryTarget(id, kind), Item: s.Item})
				}
			}
		}
		if b := lk.Belt(id); b != nil {
			if it, ok := b.Slot(belt.MiddleSlot); ok && accepts.Allows(it) {
				out = append(out, Pickup{Target: BeltTarget(id), Item: it})
			}
		}
	}
	return out
}

// PlanAction picks the next action, or nil when nothing can move.
func PlanAction(ins *Inserter, lk Lookup) *Action {
	requests := DropoffRequests(ins, lk)
	if ins.holding != nil {
		for _, r := range requests {
			if r.Accepts.Allows(ins.holding.Item) {
				return &Action{Dropoff: r.Target, Item: ins.holding.Item}
			}
		}
		return nil
	}
	for _, r := range requests {
		picks := Pickups(ins, lk, r.Accepts)
		if len(picks) == 0 {
			continue
		}
		p := picks[0]
		pt := p.Target
		return &Action{Pickup: &pt, Dropoff: r.Target, Item: p.Item}
	}
	return nil
}

// ActionValid re-checks a committed action with the same predicates the
// search used.
func ActionValid(ins *Inserter, lk Lookup, a Action) bool {
	if ins.holding != nil && ins.holding.Item != a.Item {
		return false
	}
	if !onTile(lk, ins.dropoffTile, a.Dropoff.Entity) || !canAccept(lk, a.Dropoff, a.Item) {
		return false
	}
	if ins.holding != nil {
		return true
	}
	if a.Pickup == nil {
		return false
	}
	return onTile(lk, ins.pickupTile, a.Pickup.Entity) && hasItem(lk, *a.Pickup, a.Item)
}

func canAccept(lk Lookup, t Target, item model.Item) bool {
	switch t.Kind {
	case TargetBelt:
		b := lk.Belt(t.Entity)
		return b != nil && b.CanAdd(belt.MiddleSlot)
	case TargetInventory:
		inv := lk.Inventory(t.Entity, t.Inventory)
		return inv != nil && inv.CanAddItem(item)
	default:
		return false
	}
}

func hasItem(lk Lookup, t Target, item model.Item) bool {
	switch t.Kind {
	case TargetBelt:
		b := lk.Belt(t.Entity)
		if b == nil {
			return false
		}
		it, ok := b.Slot(belt.MiddleSlot)
		return ok && it == item
	case TargetInventory:
		inv := lk.Inventory(t.Entity, t.Inventory)
		return inv != nil && inv.HasItem(item)
	default:
		return false
	}
}

// Decision is the outcome of planning one inserter. Nothing changes unless
// Replan is set.
type Decision struct {
	Replan    bool
	Action    *Action
	TargetArm float64
}

// Plan keeps a still-valid action and otherwise searches for a new one.
// It does not mutate anything.
func Plan(ins *Inserter, lk Lookup) Decision {
	if ins.action != nil && ActionValid(ins, lk, *ins.action) {
		return Decision{}
	}
	d := Decision{Replan: true, Action: PlanAction(ins, lk), TargetArm: ArmPickup}
	if ins.holding != nil {
		d.TargetArm = ArmDropoff
	}
	return d
}

func (ins *Inserter) Apply(d Decision) {
	if !d.Replan {
		return
	}
	ins.action = cloneAction(d.Action)
	ins.targetArm = d.TargetArm
}

// PlanAll plans every inserter against the same unmodified state and then
// applies the decisions. It returns how many inserters re-planned.
func PlanAll(inserters []*Inserter, lk Lookup) int {
	decisions := make([]Decision, len(inserters))
	for i, ins := range inserters {
		decisions[i] = Plan(ins, lk)
	}
	n := 0
	for i, ins := range inserters {
		if decisions[i].Replan {
			n++
		}
		ins.Apply(decisions[i])
	}
	return n
}
