package miner

import (
	"errors"
	"fmt"
	"time"

	"beltline.ai/internal/sim/logistics/drop"
	"beltline.ai/internal/sim/logistics/model"
	"beltline.ai/internal/sim/logistics/rotation"
	"beltline.ai/internal/sim/logistics/timer"
)

var ErrInvalidConfig = errors.New("invalid miner config")

// Miner produces one unit of its resource per interval into the tile it
// faces. Production is the only place items enter the simulation besides
// explicit host grants.
type Miner struct {
	timer    timer.Repeating
	resource model.Item
	dropoff  model.TilePos
	working  bool
}

func New(interval time.Duration, resource model.Item, dropoff model.TilePos) (*Miner, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: interval %v", ErrInvalidConfig, interval)
	}
	if resource.IsZero() {
		return nil, fmt.Errorf("%w: no resource", ErrInvalidConfig)
	}
	return &Miner{timer: timer.New(interval), resource: resource, dropoff: dropoff}, nil
}

// Place builds a miner at pos dropping onto the tile in front of it.
func Place(interval time.Duration, resource model.Item, pos model.TilePos, facing rotation.DiscreteRotation) (*Miner, error) {
	dx, dy := facing.Compass().Offset()
	return New(interval, resource, pos.Add(dx, dy))
}

func (m *Miner) Resource() model.Item       { return m.resource }
func (m *Miner) DropoffTile() model.TilePos { return m.dropoff }
func (m *Miner) Working() bool              { return m.working }
func (m *Miner) Timer() *timer.Repeating    { return &m.timer }

// Halt marks the miner idle for a tick it does not run, such as one without
// power. The timer keeps its progress.
func (m *Miner) Halt() { m.working = false }

// Tick advances the production timer. The timer runs even when the output is
// blocked; a cycle that completes while blocked produces nothing.
func (m *Miner) Tick(lk drop.Lookup, dt time.Duration) (drop.Placement, bool) {
	stack := model.NewStack(m.resource, 1)
	m.working = drop.CanDropStackAt(lk, stack, m.dropoff)
	if !m.timer.Tick(dt) || !m.working {
		return drop.Placement{}, false
	}
	return drop.DropStackAt(lk, stack, m.dropoff)
}
