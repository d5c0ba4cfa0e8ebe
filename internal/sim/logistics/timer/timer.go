// Package timer holds the fixed-interval repeating timer shared by belts
// and producers.
package timer

import "time"

// Repeating fires once each time accumulated time crosses Interval. A
// zero Interval fires on every tick.
type Repeating struct {
	Interval time.Duration `json:"interval"`
	Elapsed  time.Duration `json:"elapsed"`
}

func New(interval time.Duration) Repeating { return Repeating{Interval: interval} }

func (t *Repeating) Tick(dt time.Duration) bool {
	if t.Interval <= 0 {
		return true
	}
	t.Elapsed += dt
	if t.Elapsed < t.Interval {
		return false
	}
	t.Elapsed %= t.Interval
	return true
}
