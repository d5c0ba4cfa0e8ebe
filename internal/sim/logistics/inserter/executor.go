package inserter

import (
	"math"
	"time"

	"beltline.ai/internal/sim/logistics/belt"
	"beltline.ai/internal/sim/logistics/model"
)

type EventKind uint8

const (
	EventPickup EventKind = iota + 1
	EventDropoff
	// EventAbort means the arm arrived but the committed transfer could not
	// happen; the action was dropped and will be re-planned.
	EventAbort
)

func (k EventKind) String() string {
	switch k {
	case EventPickup:
		return "PICKUP"
	case EventDropoff:
		return "DROPOFF"
	case EventAbort:
		return "ABORT"
	default:
		return "NONE"
	}
}

// Event reports a transfer performed by Execute. Stack is the amount that
// actually moved.
type Event struct {
	Kind   EventKind
	Target Target
	Stack  model.Stack
}

// Execute advances the arm by dt and, once it reaches its target, performs
// the committed transfer. Holding plus target contents is conserved: a
// dropoff that does not fully fit leaves the remainder in the hand.
func (ins *Inserter) Execute(lk Lookup, dt time.Duration) (Event, bool) {
	ins.moveArm(dt)
	if math.Abs(ins.arm-ins.targetArm) >= ins.epsilon || ins.action == nil {
		return Event{}, false
	}
	a := ins.action
	if ins.holding != nil {
		return ins.dropoff(lk, a)
	}
	if a.Pickup != nil {
		return ins.pickup(lk, a)
	}
	ins.action = nil
	return Event{Kind: EventAbort, Target: a.Dropoff}, true
}

func (ins *Inserter) moveArm(dt time.Duration) {
	step := ins.speed * dt.Seconds()
	if ins.arm < ins.targetArm {
		ins.arm = math.Min(ins.arm+step, ins.targetArm)
	} else if ins.arm > ins.targetArm {
		ins.arm = math.Max(ins.arm-step, ins.targetArm)
	}
	ins.arm = math.Max(ArmPickup, math.Min(ArmDropoff, ins.arm))
}

func (ins *Inserter) dropoff(lk Lookup, a *Action) (Event, bool) {
	ins.action = nil
	h := ins.holding
	switch a.Dropoff.Kind {
	case TargetBelt:
		b := lk.Belt(a.Dropoff.Entity)
		if b == nil || !b.Add(belt.MiddleSlot, h.Item) {
			return Event{Kind: EventAbort, Target: a.Dropoff}, true
		}
		h.Amount--
		if h.Amount == 0 {
			ins.holding = nil
		}
		return Event{Kind: EventDropoff, Target: a.Dropoff, Stack: model.NewStack(h.Item, 1)}, true
	case TargetInventory:
		inv := lk.Inventory(a.Dropoff.Entity, a.Dropoff.Inventory)
		if inv == nil {
			return Event{Kind: EventAbort, Target: a.Dropoff}, true
		}
		offered := *h
		left := inv.AddStack(offered)
		ins.holding = left
		moved := offered.Amount
		if left != nil {
			moved -= left.Amount
		}
		if moved == 0 {
			return Event{Kind: EventAbort, Target: a.Dropoff}, true
		}
		return Event{Kind: EventDropoff, Target: a.Dropoff, Stack: model.NewStack(offered.Item, moved)}, true
	default:
		return Event{Kind: EventAbort, Target: a.Dropoff}, true
	}
}

func (ins *Inserter) pickup(lk Lookup, a *Action) (Event, bool) {
	from := *a.Pickup
	var got model.Stack
	ok := false
	switch from.Kind {
	case TargetBelt:
		if b := lk.Belt(from.Entity); b != nil {
			if it, present := b.Slot(belt.MiddleSlot); present && it == a.Item {
				b.Take(belt.MiddleSlot)
				got, ok = model.NewStack(it, 1), true
			}
		}
	case TargetInventory:
		if inv := lk.Inventory(from.Entity, from.Inventory); inv != nil {
			got, ok = inv.TryTakeItem(a.Item, ins.capacity)
		}
	}
	if !ok {
		ins.action = nil
		return Event{Kind: EventAbort, Target: from}, true
	}
	ins.holding = &got
	ins.action = &Action{Dropoff: a.Dropoff, Item: a.Item}
	ins.targetArm = ArmDropoff
	return Event{Kind: EventPickup, Target: from, Stack: got}, true
}
