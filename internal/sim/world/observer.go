package world

import (
	"beltline.ai/internal/observerproto"
)

// Observe returns the frame for the last completed tick. Callers outside the
// world loop must only use it while the world is stopped.
func (w *World) Observe() observerproto.Frame {
	return w.frame(w.lastTick())
}

func (w *World) frame(nowTick uint64) observerproto.Frame {
	f := observerproto.Frame{
		Type:            observerproto.TypeFrame,
		ProtocolVersion: observerproto.Version,
		Tick:            nowTick,
	}
	ids := w.sortedIDs()
	f.Structures = make([]observerproto.StructureState, 0, len(ids))
	for _, id := range ids {
		s := w.structures[id]
		f.Structures = append(f.Structures, observerproto.StructureState{
			ID:      uint64(id),
			Def:     s.def,
			Pos:     s.pos.ToArray(),
			Size:    [2]int{s.w, s.h},
			Facing:  s.rot.Compass().String(),
			Radians: s.rot.Radians(),
		})
		if b := w.Belt(id); b != nil {
			next, _ := b.Next()
			bs := observerproto.BeltState{ID: uint64(id), Next: uint64(next)}
			for i, it := range b.Slots() {
				bs.Slots[i] = string(it)
			}
			f.Belts = append(f.Belts, bs)
		}
		if ins := s.inserter; ins != nil {
			is := observerproto.InserterState{
				ID:        uint64(id),
				Arm:       ins.ArmPosition(),
				TargetArm: ins.TargetArmPosition(),
				Working:   ins.Working(),
				Pickup:    ins.PickupTile().ToArray(),
				Dropoff:   ins.DropoffTile().ToArray(),
			}
			if h, ok := ins.Holding(); ok {
				is.Holding = string(h.Item)
				is.Amount = h.Amount
			}
			f.Inserters = append(f.Inserters, is)
		}
		if m := s.miner; m != nil {
			t := m.Timer()
			ms := observerproto.MinerState{
				ID:       uint64(id),
				Resource: string(m.Resource()),
				Working:  m.Working(),
				Powered:  s.burner == nil || s.burner.Powered(),
			}
			if t.Interval > 0 {
				ms.Progress = float64(t.Elapsed) / float64(t.Interval)
			}
			f.Miners = append(f.Miners, ms)
		}
		if c := s.crafter; c != nil {
			cs := observerproto.CrafterState{ID: uint64(id), Powered: s.burner == nil || s.burner.Powered()}
			if r, elapsed, ok := c.Active(); ok {
				cs.Recipe = r.Name
				if r.Time > 0 {
					cs.Progress = float64(elapsed) / float64(r.Time)
				}
			}
			f.Crafters = append(f.Crafters, cs)
		}
	}
	return f
}
