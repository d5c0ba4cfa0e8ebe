package world

import (
	"time"

	"beltline.ai/internal/sim/logistics/inserter"
	"beltline.ai/internal/sim/tuning"
)

type WorldConfig struct {
	ID         string
	TickRateHz int

	BeltInterval    time.Duration
	InserterEpsilon float64

	// Operational parameters. These are included in snapshots for deterministic replay/resume.
	SnapshotEveryTicks int
	ObserverEveryTicks int

	// Strict makes Step fail when item totals drift. Tests and replay run
	// strict; the server logs instead.
	Strict bool
}

// ConfigFromTuning maps tuning.yaml onto a world config.
func ConfigFromTuning(id string, t tuning.Tuning) WorldConfig {
	return WorldConfig{
		ID:                 id,
		TickRateHz:         t.TickRateHz,
		BeltInterval:       t.BeltInterval(),
		InserterEpsilon:    t.InserterEpsilon,
		SnapshotEveryTicks: t.SnapshotEveryTicks,
		ObserverEveryTicks: t.ObserverEveryTicks,
	}
}

func (c *WorldConfig) applyDefaults() {
	if c.TickRateHz <= 0 {
		c.TickRateHz = 20
	}
	if c.BeltInterval <= 0 {
		c.BeltInterval = 150 * time.Millisecond
	}
	if c.InserterEpsilon <= 0 {
		c.InserterEpsilon = inserter.DefaultEpsilon
	}
	if c.SnapshotEveryTicks < 0 {
		c.SnapshotEveryTicks = 0
	}
	if c.ObserverEveryTicks <= 0 {
		c.ObserverEveryTicks = 1
	}
}

// TickDuration is the simulated time one tick advances.
func (c WorldConfig) TickDuration() time.Duration {
	return time.Second / time.Duration(c.TickRateHz)
}
