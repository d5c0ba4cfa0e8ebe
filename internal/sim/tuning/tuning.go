package tuning

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	TickRateHz      int     `yaml:"tick_rate_hz"`
	BeltIntervalMs  int     `yaml:"belt_interval_ms"`
	InserterEpsilon float64 `yaml:"inserter_epsilon"`

	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`
	ObserverEveryTicks int `yaml:"observer_every_ticks"`
}

// Defaults matches configs/tuning.yaml.
func Defaults() Tuning {
	return Tuning{
		TickRateHz:         20,
		BeltIntervalMs:     150,
		InserterEpsilon:    0.01,
		SnapshotEveryTicks: 6000,
		ObserverEveryTicks: 2,
	}
}

// Load reads path over Defaults, so a file may set only what it changes.
// A missing file is returned unwrapped for os.IsNotExist.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	switch {
	case t.TickRateHz <= 0:
		return fmt.Errorf("tick_rate_hz must be > 0 (got %d)", t.TickRateHz)
	case t.BeltIntervalMs <= 0:
		return fmt.Errorf("belt_interval_ms must be > 0 (got %d)", t.BeltIntervalMs)
	case t.InserterEpsilon < 0 || t.InserterEpsilon >= 1:
		return fmt.Errorf("inserter_epsilon must be in [0,1) (got %v)", t.InserterEpsilon)
	case t.SnapshotEveryTicks < 0:
		return fmt.Errorf("snapshot_every_ticks must be >= 0 (got %d)", t.SnapshotEveryTicks)
	case t.ObserverEveryTicks < 0:
		return fmt.Errorf("observer_every_ticks must be >= 0 (got %d)", t.ObserverEveryTicks)
	}
	return nil
}

func (t Tuning) BeltInterval() time.Duration {
	return time.Duration(t.BeltIntervalMs) * time.Millisecond
}
