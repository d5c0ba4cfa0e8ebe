// Package burner powers a structure from its fuel inventory. One unit of
// fuel keeps the structure powered for a fixed burn time, and that time
// only runs down while the structure is doing work.
package burner

import (
	"errors"
	"fmt"
	"time"

	"beltline.ai/internal/sim/logistics/inventory"
	"beltline.ai/internal/sim/logistics/model"
)

var ErrInvalidConfig = errors.New("invalid burner config")

type Burner struct {
	burnTime  time.Duration
	remaining time.Duration
}

func New(burnTime time.Duration) (*Burner, error) {
	if burnTime <= 0 {
		return nil, fmt.Errorf("%w: burn time %v", ErrInvalidConfig, burnTime)
	}
	return &Burner{burnTime: burnTime}, nil
}

func (b *Burner) BurnTime() time.Duration  { return b.burnTime }
func (b *Burner) Remaining() time.Duration { return b.remaining }
func (b *Burner) Powered() bool            { return b.remaining > 0 }

// Refuel takes one unit from the first occupied fuel slot when the burner
// has gone cold. It reports the item it consumed.
func (b *Burner) Refuel(fuel *inventory.Inventory) (model.Item, bool) {
	if b.Powered() || fuel == nil {
		return "", false
	}
	for i := 0; i < fuel.Len(); i++ {
		st, ok := fuel.Slot(i)
		if !ok {
			continue
		}
		if fuel.RemoveItems([]model.ItemCount{model.Count(st.Item, 1)}) {
			b.remaining = b.burnTime
			return st.Item, true
		}
	}
	return "", false
}

// Burn spends dt of the current unit. Time left over past zero is lost.
func (b *Burner) Burn(dt time.Duration) {
	b.remaining -= dt
	if b.remaining < 0 {
		b.remaining = 0
	}
}

// Restore sets the time left on the current unit, for loading persisted
// state.
func (b *Burner) Restore(remaining time.Duration) error {
	if remaining < 0 || remaining > b.burnTime {
		return fmt.Errorf("%w: remaining %v of %v", ErrInvalidConfig, remaining, b.burnTime)
	}
	b.remaining = remaining
	return nil
}
