package world

import (
	"sort"
	"time"
)

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	Tick uint64 `json:"tick"`

	Structures int `json:"structures"`
	Belts      int `json:"belts"`
	Lanes      int `json:"lanes"`
	Inserters  int `json:"inserters"`
	Miners     int `json:"miners"`
	Crafters   int `json:"crafters"`
	Observers  int `json:"observers"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`

	Transfers uint64 `json:"transfers_total"`
	Produced  uint64 `json:"produced_total"`
	Consumed  uint64 `json:"consumed_total"`

	// Items sums every unit in the simulation by item, sorted by name.
	Items []ItemTotal `json:"items,omitempty"`
}

type QueueDepths struct {
	Place  int `json:"place"`
	Remove int `json:"remove"`
	Admin  int `json:"admin"`
}

type ItemTotal struct {
	Item   string `json:"item"`
	Amount uint64 `json:"amount"`
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	v := w.metrics.Load()
	if v == nil {
		return WorldMetrics{}
	}
	m, ok := v.(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}

func (w *World) publishMetrics(nowTick uint64, res TickResult, transfers int, took time.Duration) {
	w.transfersTotal += uint64(transfers)
	w.producedTotal += uint64(res.Produced)
	w.consumedTotal += uint64(res.Consumed)

	m := WorldMetrics{
		Tick:       nowTick,
		Structures: len(w.structures),
		Belts:      len(w.belts.IDs()),
		Lanes:      len(w.belts.Lanes()),
		Inserters:  len(w.inserters),
		Miners:     len(w.miners),
		Crafters:   len(w.crafters),
		Observers:  len(w.observers),
		QueueDepths: QueueDepths{
			Place:  len(w.place),
			Remove: len(w.remove),
			Admin:  len(w.admin),
		},
		StepMS:    float64(took.Microseconds()) / 1000.0,
		Transfers: w.transfersTotal,
		Produced:  w.producedTotal,
		Consumed:  w.consumedTotal,
	}
	for it, n := range w.Totals() {
		m.Items = append(m.Items, ItemTotal{Item: string(it), Amount: n})
	}
	sort.Slice(m.Items, func(i, j int) bool { return m.Items[i].Item < m.Items[j].Item })
	w.metrics.Store(m)
}
