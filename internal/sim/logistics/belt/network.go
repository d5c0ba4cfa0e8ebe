package belt

import (
	"errors"
	"fmt"
	"time"

	"beltline.ai/internal/sim/logistics/model"
	"beltline.ai/internal/sim/logistics/timer"
)

var (
	ErrUnknownBelt   = errors.New("unknown belt")
	ErrDuplicateBelt = errors.New("belt already registered")
	ErrSelfLink      = errors.New("belt cannot feed itself")
)

// Network is the arena that owns every belt. Registration order is kept so
// lane building and ticking are deterministic.
type Network struct {
	belts map[model.EntityID]*TransportBelt
	order []model.EntityID

	timer timer.Repeating
	lanes []Lane
}

func NewNetwork(interval time.Duration) *Network {
	return &Network{
		belts: map[model.EntityID]*TransportBelt{},
		timer: timer.New(interval),
	}
}

func (n *Network) Len() int { return len(n.belts) }

func (n *Network) Get(id model.EntityID) (*TransportBelt, bool) {
	b, ok := n.belts[id]
	return b, ok
}

// IDs returns belts in registration order.
func (n *Network) IDs() []model.EntityID {
	return append([]model.EntityID(nil), n.order...)
}

func (n *Network) Add(id model.EntityID, b *TransportBelt) error {
	if id == 0 || b == nil {
		return fmt.Errorf("%w: %s", ErrUnknownBelt, id)
	}
	if _, ok := n.belts[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateBelt, id)
	}
	n.belts[id] = b
	n.order = append(n.order, id)
	return nil
}

// Remove drops a belt and clears every next-link that pointed at it.
func (n *Network) Remove(id model.EntityID) (*TransportBelt, bool) {
	b, ok := n.belts[id]
	if !ok {
		return nil, false
	}
	delete(n.belts, id)
	for i, o := range n.order {
		if o == id {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
	for _, other := range n.belts {
		if other.next == id {
			other.next = 0
		}
	}
	n.lanes = nil
	return b, true
}

// Link makes from feed into to.
func (n *Network) Link(from, to model.EntityID) error {
	if from == to {
		return fmt.Errorf("%w: %s", ErrSelfLink, from)
	}
	b, ok := n.belts[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBelt, from)
	}
	if _, ok := n.belts[to]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBelt, to)
	}
	b.next = to
	return nil
}

func (n *Network) Unlink(from model.EntityID) {
	if b, ok := n.belts[from]; ok {
		b.next = 0
	}
}

// Previous lists the belts whose next-link points at id, in registration
// order.
func (n *Network) Previous(id model.EntityID) []model.EntityID {
	var out []model.EntityID
	for _, o := range n.order {
		if n.belts[o].next == id {
			out = append(out, o)
		}
	}
	return out
}

func (n *Network) isTerminal(id model.EntityID) bool {
	b := n.belts[id]
	if b.next == 0 {
		return true
	}
	_, ok := n.belts[b.next]
	return !ok
}

// Lanes returns the lanes built by the last Step.
func (n *Network) Lanes() []Lane { return n.lanes }

func (n *Network) Timer() *timer.Repeating { return &n.timer }

// Step rebuilds lanes and, when the belt timer fires, moves every lane.
// It reports whether belts moved.
func (n *Network) Step(dt time.Duration) bool {
	n.lanes = n.BuildLanes()
	if !n.timer.Tick(dt) {
		return false
	}
	n.Move(n.lanes)
	return true
}

// Move runs one belt movement pass over lanes, terminal belts first, so a
// downstream belt has drained before its feeder looks at it.
func (n *Network) Move(lanes []Lane) {
	for _, lane := range lanes {
		for _, id := range lane {
			n.stepBelt(id)
		}
	}
}

func (n *Network) stepBelt(id model.EntityID) {
	b, ok := n.belts[id]
	if !ok {
		return
	}
	last := b.slots[ExitSlot]
	if last.IsZero() {
		b.rotateRight()
		return
	}
	transferred := false
	if next, ok := n.belts[b.next]; ok && b.next != 0 {
		slot := EntrySlot
		if next.Facing() != b.Facing() {
			slot = MiddleSlot
		}
		transferred = next.Add(slot, last)
	}
	if transferred {
		b.slots[ExitSlot] = ""
		b.rotateRight()
		return
	}
	b.compact()
}

// Totals counts items on every belt.
func (n *Network) Totals() map[model.Item]uint64 {
	out := map[model.Item]uint64{}
	for _, b := range n.belts {
		for _, it := range b.slots {
			if !it.IsZero() {
				out[it]++
			}
		}
	}
	return out
}
