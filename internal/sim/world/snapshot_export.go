package world

import (
	"beltline.ai/internal/persistence/snapshot"
	"beltline.ai/internal/sim/logistics/crafter"
	"beltline.ai/internal/sim/logistics/inserter"
	"beltline.ai/internal/sim/logistics/model"
)

func (w *World) ExportSnapshot(nowTick uint64) snapshot.SnapshotV1 {
	// Snapshot must be called from the world loop goroutine.
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			WorldID: w.cfg.ID,
			Tick:    nowTick,
			Digest:  w.stateDigest(nowTick),
		},
		TickRate:           w.cfg.TickRateHz,
		BeltIntervalNs:     int64(w.cfg.BeltInterval),
		InserterEpsilon:    w.cfg.InserterEpsilon,
		SnapshotEveryTicks: w.cfg.SnapshotEveryTicks,
		ObserverEveryTicks: w.cfg.ObserverEveryTicks,
		StructuresDigest:   w.catalogs.Structures.Digest,
		NextEntityID:       w.nextID,
		BeltElapsedNs:      int64(w.belts.Timer().Elapsed),
	}

	ids := w.sortedIDs()
	snap.Structures = make([]snapshot.StructureV1, 0, len(ids))
	for _, id := range ids {
		s := w.structures[id]
		sv := snapshot.StructureV1{
			ID:       uint64(id),
			Def:      s.def,
			Pos:      s.pos.ToArray(),
			Size:     [2]int{s.w, s.h},
			Sides:    int(s.rot.Sides()),
			Rotation: s.rot.Index(),
		}
		for _, kind := range inventoryOrder {
			if inv := s.inventories[kind]; inv != nil {
				sv.Inventories = append(sv.Inventories, exportInventory(kind, inv.Filter(), inv.Slots()))
			}
		}
		if b := w.Belt(id); b != nil {
			next, _ := b.Next()
			bv := &snapshot.BeltV1{Next: uint64(next)}
			for i, it := range b.Slots() {
				bv.Slots[i] = string(it)
			}
			sv.Belt = bv
		}
		if s.inserter != nil {
			sv.Inserter = exportInserter(s.inserter.State())
		}
		if s.miner != nil {
			t := s.miner.Timer()
			sv.Miner = &snapshot.MinerV1{
				Resource:   string(s.miner.Resource()),
				IntervalNs: int64(t.Interval),
				ElapsedNs:  int64(t.Elapsed),
				Dropoff:    s.miner.DropoffTile().ToArray(),
			}
		}
		if s.burner != nil {
			sv.Burner = &snapshot.BurnerV1{
				BurnNs:      int64(s.burner.BurnTime()),
				RemainingNs: int64(s.burner.Remaining()),
			}
		}
		if s.crafter != nil {
			sv.Crafter = exportCrafter(s.crafter)
		}
		snap.Structures = append(snap.Structures, sv)
	}
	return snap
}

func exportInventory(kind model.InventoryKind, filter model.ItemFilter, slots []*model.Stack) snapshot.InventoryV1 {
	iv := snapshot.InventoryV1{
		Kind:  kind.String(),
		Slots: make([]snapshot.SlotV1, len(slots)),
	}
	if !filter.IsAll() {
		iv.Filtered = true
		for _, it := range filter.Items() {
			iv.Filter = append(iv.Filter, string(it))
		}
	}
	for i, st := range slots {
		if st != nil {
			iv.Slots[i] = snapshot.SlotV1{Item: string(st.Item), Amount: st.Amount}
		}
	}
	return iv
}

func exportInserter(st inserter.State) *snapshot.InserterV1 {
	iv := &snapshot.InserterV1{
		Capacity:    st.Capacity,
		Speed:       st.Speed,
		Epsilon:     st.Epsilon,
		Arm:         st.Arm,
		TargetArm:   st.TargetArm,
		PickupTile:  st.PickupTile.ToArray(),
		DropoffTile: st.DropoffTile.ToArray(),
	}
	if st.Holding != nil {
		iv.Holding = snapshot.SlotV1{Item: string(st.Holding.Item), Amount: st.Holding.Amount}
	}
	if a := st.Action; a != nil {
		av := &snapshot.ActionV1{Dropoff: exportTarget(a.Dropoff), Item: string(a.Item)}
		if a.Pickup != nil {
			av.HasPickup = true
			av.Pickup = exportTarget(*a.Pickup)
		}
		iv.Action = av
	}
	return iv
}

func exportTarget(t inserter.Target) snapshot.TargetV1 {
	tv := snapshot.TargetV1{Kind: t.Kind.String(), Entity: uint64(t.Entity)}
	if t.Kind == inserter.TargetInventory {
		tv.Inventory = t.Inventory.String()
	}
	return tv
}

func exportCrafter(c *crafter.Crafter) *snapshot.CrafterV1 {
	cv := &snapshot.CrafterV1{}
	for _, r := range c.Recipes() {
		cv.Recipes = append(cv.Recipes, snapshot.RecipeV1{
			Name:        r.Name,
			TimeNs:      int64(r.Time),
			Ingredients: exportCounts(r.Ingredients),
			Products:    exportCounts(r.Products),
		})
	}
	if r, elapsed, ok := c.Active(); ok {
		cv.Active = r.Name
		cv.ElapsedNs = int64(elapsed)
	}
	return cv
}

func exportCounts(in []model.ItemCount) []snapshot.SlotV1 {
	out := make([]snapshot.SlotV1, 0, len(in))
	for _, ic := range in {
		out = append(out, snapshot.SlotV1{Item: string(ic.Item), Amount: ic.Amount})
	}
	return out
}
