// Package inserter plans and executes single-arm item transfers between
// inventories and belts. Planning is pure over a Lookup; execution mutates
// the targets it resolves through the same Lookup.
package inserter

import (
	"errors"
	"fmt"

	"beltline.ai/internal/sim/logistics/model"
	"beltline.ai/internal/sim/logistics/rotation"
)

var ErrInvalidConfig = errors.New("invalid inserter config")

// DefaultEpsilon is how close the arm must be to its target before a
// transfer fires.
const DefaultEpsilon = 0.01

const (
	ArmPickup  = -1.0
	ArmDropoff = 1.0
)

type TargetKind uint8

const (
	TargetBelt TargetKind = iota + 1
	TargetInventory
	// TargetGround is reserved for items lying on a tile; the planner never
	// produces it and actions pointing at it are treated as invalid.
	TargetGround
)

func (k TargetKind) String() string {
	switch k {
	case TargetBelt:
		return "BELT"
	case TargetInventory:
		return "INVENTORY"
	case TargetGround:
		return "GROUND"
	default:
		return "NONE"
	}
}

func ParseTargetKind(s string) (TargetKind, bool) {
	switch s {
	case "BELT":
		return TargetBelt, true
	case "INVENTORY":
		return TargetInventory, true
	case "GROUND":
		return TargetGround, true
	}
	return 0, false
}

// Target is a tagged reference to something an inserter can reach.
// Inventory is only meaningful for TargetInventory.
type Target struct {
	Kind      TargetKind          `json:"kind"`
	Entity    model.EntityID      `json:"entity"`
	Inventory model.InventoryKind `json:"inventory,omitempty"`
}

func BeltTarget(id model.EntityID) Target { return Target{Kind: TargetBelt, Entity: id} }

func InventoryTarget(id model.EntityID, kind model.InventoryKind) Target {
	return Target{Kind: TargetInventory, Entity: id, Inventory: kind}
}

func (t Target) String() string {
	if t.Kind == TargetInventory {
		return fmt.Sprintf("%s:%s/%s", t.Kind, t.Entity, t.Inventory)
	}
	return fmt.Sprintf("%s:%s", t.Kind, t.Entity)
}

// Action is a committed transfer. Pickup is nil once the item is held.
type Action struct {
	Pickup  *Target    `json:"pickup,omitempty"`
	Dropoff Target     `json:"dropoff"`
	Item    model.Item `json:"item"`
}

func (a Action) Equal(o Action) bool {
	if a.Item != o.Item || a.Dropoff != o.Dropoff {
		return false
	}
	if a.Pickup == nil || o.Pickup == nil {
		return a.Pickup == nil && o.Pickup == nil
	}
	return *a.Pickup == *o.Pickup
}

type Config struct {
	Speed    float64 // arm travel per second; a full swing is 2.0
	Capacity uint32
	Epsilon  float64
}

func (c Config) validate() error {
	if c.Speed <= 0 {
		return fmt.Errorf("%w: speed %v", ErrInvalidConfig, c.Speed)
	}
	if c.Capacity == 0 {
		return fmt.Errorf("%w: capacity 0", ErrInvalidConfig)
	}
	if c.Epsilon < 0 {
		return fmt.Errorf("%w: epsilon %v", ErrInvalidConfig, c.Epsilon)
	}
	return nil
}

type Inserter struct {
	holding  *model.Stack
	capacity uint32
	speed    float64
	epsilon  float64

	arm       float64
	targetArm float64

	pickupTile  model.TilePos
	dropoffTile model.TilePos

	action *Action
}

func New(cfg Config, pickup, dropoff model.TilePos) (*Inserter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	eps := cfg.Epsilon
	if eps == 0 {
		eps = DefaultEpsilon
	}
	return &Inserter{
		capacity:    cfg.Capacity,
		speed:       cfg.Speed,
		epsilon:     eps,
		pickupTile:  pickup,
		dropoffTile: dropoff,
	}, nil
}

// Place builds an inserter at pos that takes from the tile behind it and
// drops onto the tile it faces.
func Place(cfg Config, pos model.TilePos, facing rotation.DiscreteRotation) (*Inserter, error) {
	dx, dy := facing.Compass().Offset()
	return New(cfg, pos.Add(-dx, -dy), pos.Add(dx, dy))
}

func (ins *Inserter) Holding() (model.Stack, bool) {
	if ins.holding == nil {
		return model.Stack{}, false
	}
	return *ins.holding, true
}

func (ins *Inserter) Action() (Action, bool) {
	if ins.action == nil {
		return Action{}, false
	}
	return *ins.action, true
}

// Working is informational: an action is committed.
func (ins *Inserter) Working() bool { return ins.action != nil }

func (ins *Inserter) ArmPosition() float64       { return ins.arm }
func (ins *Inserter) TargetArmPosition() float64 { return ins.targetArm }
func (ins *Inserter) PickupTile() model.TilePos  { return ins.pickupTile }
func (ins *Inserter) DropoffTile() model.TilePos { return ins.dropoffTile }
func (ins *Inserter) Capacity() uint32           { return ins.capacity }
func (ins *Inserter) Speed() float64             { return ins.speed }

// State is the persisted form of an inserter.
type State struct {
	Holding     *model.Stack  `json:"holding,omitempty"`
	Capacity    uint32        `json:"capacity"`
	Speed       float64       `json:"speed"`
	Epsilon     float64       `json:"epsilon"`
	Arm         float64       `json:"arm"`
	TargetArm   float64       `json:"target_arm"`
	PickupTile  model.TilePos `json:"pickup_tile"`
	DropoffTile model.TilePos `json:"dropoff_tile"`
	Action      *Action       `json:"action,omitempty"`
}

func (ins *Inserter) State() State {
	st := State{
		Capacity:    ins.capacity,
		Speed:       ins.speed,
		Epsilon:     ins.epsilon,
		Arm:         ins.arm,
		TargetArm:   ins.targetArm,
		PickupTile:  ins.pickupTile,
		DropoffTile: ins.dropoffTile,
	}
	if ins.holding != nil {
		h := *ins.holding
		st.Holding = &h
	}
	if ins.action != nil {
		st.Action = cloneAction(ins.action)
	}
	return st
}

func FromState(st State) (*Inserter, error) {
	ins, err := New(Config{Speed: st.Speed, Capacity: st.Capacity, Epsilon: st.Epsilon}, st.PickupTile, st.DropoffTile)
	if err != nil {
		return nil, err
	}
	if st.Holding != nil {
		if st.Holding.Amount == 0 || st.Holding.Amount > model.MaxStackSize || st.Holding.Item.IsZero() {
			return nil, fmt.Errorf("%w: holding %+v", ErrInvalidConfig, *st.Holding)
		}
		h := *st.Holding
		ins.holding = &h
	}
	if st.Arm < ArmPickup || st.Arm > ArmDropoff || st.TargetArm < ArmPickup || st.TargetArm > ArmDropoff {
		return nil, fmt.Errorf("%w: arm %v target %v", ErrInvalidConfig, st.Arm, st.TargetArm)
	}
	ins.arm = st.Arm
	ins.targetArm = st.TargetArm
	ins.action = cloneAction(st.Action)
	return ins, nil
}

func cloneAction(a *Action) *Action {
	if a == nil {
		return nil
	}
	c := *a
	if a.Pickup != nil {
		p := *a.Pickup
		c.Pickup = &p
	}
	return &c
}
