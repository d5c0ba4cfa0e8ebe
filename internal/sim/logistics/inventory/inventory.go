// Package inventory implements the fixed-size slot array shared by chests,
// furnaces, miners and the player. Infeasible requests are reported through
// bool/ok returns; only restore-time invariant breaks are errors.
package inventory

import (
	"errors"
	"fmt"

	"beltline.ai/internal/sim/logistics/model"
)

var (
	ErrFilterViolation = errors.New("item rejected by inventory filter")
	ErrSlotIndex       = errors.New("slot index out of range")
	ErrStackAmount     = errors.New("stack amount out of range")
)

// Inventory is an ordered, fixed-length slot array. A nil slot is empty.
type Inventory struct {
	slots  []*model.Stack
	filter model.ItemFilter
}

func New(size int) *Inventory {
	if size < 0 {
		size = 0
	}
	return &Inventory{slots: make([]*model.Stack, size)}
}

func NewWithFilter(size int, filter model.ItemFilter) *Inventory {
	inv := New(size)
	inv.filter = filter
	return inv
}

func (inv *Inventory) Len() int                 { return len(inv.slots) }
func (inv *Inventory) Filter() model.ItemFilter { return inv.filter }

// Slot returns a copy of the stack at i.
func (inv *Inventory) Slot(i int) (model.Stack, bool) {
	if i < 0 || i >= len(inv.slots) || inv.slots[i] == nil {
		return model.Stack{}, false
	}
	return *inv.slots[i], true
}

// Slots returns a copy of every slot; nil entries are empty.
func (inv *Inventory) Slots() []*model.Stack {
	out := make([]*model.Stack, len(inv.slots))
	for i, s := range inv.slots {
		if s != nil {
			c := *s
			out[i] = &c
		}
	}
	return out
}

// SetSlot overwrites slot i. It is meant for restoring persisted state and
// rejects anything that would break the slot invariants.
func (inv *Inventory) SetSlot(i int, stack *model.Stack) error {
	if i < 0 || i >= len(inv.slots) {
		return fmt.Errorf("%w: %d of %d", ErrSlotIndex, i, len(inv.slots))
	}
	if stack == nil {
		inv.slots[i] = nil
		return nil
	}
	if stack.Amount == 0 || stack.Amount > model.MaxStackSize {
		return fmt.Errorf("%w: %s x%d", ErrStackAmount, stack.Item, stack.Amount)
	}
	if !inv.filter.Allows(stack.Item) {
		return fmt.Errorf("%w: %s", ErrFilterViolation, stack.Item)
	}
	c := *stack
	inv.slots[i] = &c
	return nil
}

func (inv *Inventory) Clone() *Inventory {
	return &Inventory{slots: inv.Slots(), filter: inv.filter}
}

func (inv *Inventory) IsEmpty() bool {
	for _, s := range inv.slots {
		if s != nil {
			return false
		}
	}
	return true
}

func (inv *Inventory) HasEmptySlot() bool {
	for _, s := range inv.slots {
		if s == nil {
			return true
		}
	}
	return false
}

// Count sums the amount of item across all slots.
func (inv *Inventory) Count(item model.Item) uint64 {
	var n uint64
	for _, s := range inv.slots {
		if s != nil && s.Item == item {
			n += uint64(s.Amount)
		}
	}
	return n
}

// Totals sums every item held.
func (inv *Inventory) Totals() map[model.Item]uint64 {
	out := map[model.Item]uint64{}
	for _, s := range inv.slots {
		if s != nil {
			out[s.Item] += uint64(s.Amount)
		}
	}
	return out
}

func (inv *Inventory) HasItem(item model.Item) bool { return inv.Count(item) > 0 }

// HasItems reports whether every requested quantity is present, summing
// each item across slots independently.
func (inv *Inventory) HasItems(items []model.ItemCount) bool {
	need := map[model.Item]uint64{}
	for _, ic := range items {
		need[ic.Item] += uint64(ic.Amount)
	}
	for item, n := range need {
		if n == 0 {
			continue
		}
		if inv.Count(item) < n {
			return false
		}
	}
	return true
}

// RemoveItems removes all quantities or nothing.
func (inv *Inventory) RemoveItems(items []model.ItemCount) bool {
	if !inv.HasItems(items) {
		return false
	}
	for _, ic := range items {
		amount := ic.Amount
		for i, s := range inv.slots {
			if amount == 0 {
				break
			}
			if s == nil || s.Item != ic.Item {
				continue
			}
			if s.Amount > amount {
				s.Amount -= amount
				amount = 0
			} else {
				amount -= s.Amount
				inv.slots[i] = nil
			}
		}
	}
	return true
}

// AddItems tops up existing stacks of each item, then puts what is left in
// the first empty slot. Anything beyond that one slot is returned.
func (inv *Inventory) AddItems(items []model.ItemCount) []model.ItemCount {
	var remainder []model.ItemCount
	for _, ic := range items {
		if ic.Amount == 0 {
			continue
		}
		if !inv.filter.Allows(ic.Item) {
			remainder = append(remainder, ic)
			continue
		}
		amount := inv.topUp(ic.Item, ic.Amount)
		if amount == 0 {
			continue
		}
		if i := inv.firstEmpty(); i >= 0 {
			placed := min(amount, model.MaxStackSize)
			inv.slots[i] = &model.Stack{Item: ic.Item, Amount: placed}
			amount -= placed
		}
		if amount > 0 {
			remainder = append(remainder, model.Count(ic.Item, amount))
		}
	}
	return remainder
}

func (inv *Inventory) AddItem(item model.Item, amount uint32) []model.ItemCount {
	return inv.AddItems([]model.ItemCount{model.Count(item, amount)})
}

// AddStack merges stack into same-item slots and then into empty slots in
// order. A stack larger than MaxStackSize spreads across as many empty slots
// as it needs. It returns what could not be placed, or nil when everything
// fit.
func (inv *Inventory) AddStack(stack model.Stack) *model.Stack {
	if stack.Amount == 0 {
		return nil
	}
	if !inv.filter.Allows(stack.Item) {
		return &stack
	}
	left := inv.topUp(stack.Item, stack.Amount)
	for left > 0 {
		i := inv.firstEmpty()
		if i < 0 {
			break
		}
		placed := min(left, model.MaxStackSize)
		inv.slots[i] = &model.Stack{Item: stack.Item, Amount: placed}
		left -= placed
	}
	if left == 0 {
		return nil
	}
	return &model.Stack{Item: stack.Item, Amount: left}
}

func (inv *Inventory) CanAddStack(stack model.Stack) bool {
	return inv.Clone().AddStack(stack) == nil
}

// TryTakeItem removes up to requested units of item in slot order. It
// reports false when nothing was taken, which includes a request for zero
// units.
func (inv *Inventory) TryTakeItem(item model.Item, requested uint32) (model.Stack, bool) {
	if requested == 0 {
		return model.Stack{}, false
	}
	var taken uint32
	for i, s := range inv.slots {
		if taken == requested {
			break
		}
		if s == nil || s.Item != item {
			continue
		}
		want := requested - taken
		if s.Amount > want {
			s.Amount -= want
			taken += want
		} else {
			taken += s.Amount
			inv.slots[i] = nil
		}
	}
	if taken == 0 {
		return model.Stack{}, false
	}
	return model.NewStack(item, taken), true
}

// CanAddItem reports whether at least one unit of item would be accepted.
func (inv *Inventory) CanAddItem(item model.Item) bool {
	if !inv.filter.Allows(item) {
		return false
	}
	for _, s := range inv.slots {
		if s == nil {
			return true
		}
		if s.Item == item && !s.Full() {
			return true
		}
	}
	return false
}

// CanAdd reports whether AddItems would place every requested unit.
func (inv *Inventory) CanAdd(items []model.ItemCount) bool {
	for _, ic := range items {
		if ic.Amount > 0 && !inv.filter.Allows(ic.Item) {
			return false
		}
	}
	return len(inv.Clone().AddItems(items)) == 0
}

// MoveWithin moves the stack in src onto dst: same items merge (overflow
// stays in src), different items swap, an empty dst takes the whole stack.
func (inv *Inventory) MoveWithin(src, dst int) bool {
	if src < 0 || dst < 0 || src >= len(inv.slots) || dst >= len(inv.slots) || src == dst {
		return false
	}
	from := inv.slots[src]
	if from == nil {
		return false
	}
	to := inv.slots[dst]
	switch {
	case to == nil:
		inv.slots[dst], inv.slots[src] = from, nil
	case to.Item == from.Item:
		from.Amount = to.Add(from.Amount)
		if from.Amount == 0 {
			inv.slots[src] = nil
		}
	default:
		inv.slots[src], inv.slots[dst] = to, from
	}
	return true
}

func (inv *Inventory) topUp(item model.Item, amount uint32) uint32 {
	for _, s := range inv.slots {
		if amount == 0 {
			break
		}
		if s == nil || s.Item != item {
			continue
		}
		amount = s.Add(amount)
	}
	return amount
}

func (inv *Inventory) firstEmpty() int {
	for i, s := range inv.slots {
		if s == nil {
			return i
		}
	}
	return -1
}
