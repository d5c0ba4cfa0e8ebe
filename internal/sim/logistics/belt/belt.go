package belt

import (
	"beltline.ai/internal/sim/logistics/model"
	"beltline.ai/internal/sim/logistics/rotation"
)

// SlotCount is fixed: entry, middle (the slot inserters see) and exit.
const SlotCount = 3

const (
	EntrySlot  = 0
	MiddleSlot = 1
	ExitSlot   = 2
)

// TransportBelt is one conveyor segment. Slots hold bare items; the amount
// is implicitly one. next is a non-owning link into the Network arena.
type TransportBelt struct {
	slots [SlotCount]model.Item
	next  model.EntityID
	rot   rotation.DiscreteRotation
}

func New(rot rotation.DiscreteRotation) *TransportBelt {
	return &TransportBelt{rot: rot}
}

func (b *TransportBelt) Rotation() rotation.DiscreteRotation { return b.rot }
func (b *TransportBelt) Facing() rotation.CompassDirection   { return b.rot.Compass() }

// Next returns the downstream belt, if linked.
func (b *TransportBelt) Next() (model.EntityID, bool) { return b.next, b.next != 0 }

func (b *TransportBelt) CanAdd(slot int) bool {
	if slot < 0 || slot >= SlotCount {
		return false
	}
	return b.slots[slot].IsZero()
}

// Add places item into an empty slot; occupied slots are never overwritten.
func (b *TransportBelt) Add(slot int, item model.Item) bool {
	if item.IsZero() || !b.CanAdd(slot) {
		return false
	}
	b.slots[slot] = item
	return true
}

func (b *TransportBelt) Slot(slot int) (model.Item, bool) {
	if slot < 0 || slot >= SlotCount || b.slots[slot].IsZero() {
		return "", false
	}
	return b.slots[slot], true
}

// Take empties slot and returns what was there.
func (b *TransportBelt) Take(slot int) (model.Item, bool) {
	it, ok := b.Slot(slot)
	if ok {
		b.slots[slot] = ""
	}
	return it, ok
}

func (b *TransportBelt) Slots() [SlotCount]model.Item { return b.slots }

// Restore overwrites every slot. It is meant for loading persisted state.
func (b *TransportBelt) Restore(slots [SlotCount]model.Item) { b.slots = slots }

// Active belts hold an item at the exit; lane building prefers them.
func (b *TransportBelt) Active() bool { return !b.slots[ExitSlot].IsZero() }

// rotateRight shifts every slot one position toward the exit; the exit
// content wraps to the entry.
func (b *TransportBelt) rotateRight() {
	last := b.slots[SlotCount-1]
	copy(b.slots[1:], b.slots[:SlotCount-1])
	b.slots[0] = last
}

// compact moves items one step toward the exit wherever the next position
// is free, walking from the exit backwards.
func (b *TransportBelt) compact() {
	for i := SlotCount - 2; i >= 0; i-- {
		if b.slots[i+1].IsZero() && !b.slots[i].IsZero() {
			b.slots[i+1] = b.slots[i]
			b.slots[i] = ""
		}
	}
}
