package world

import (
	"fmt"
	"sort"
	"time"

	"beltline.ai/internal/persistence/snapshot"
	"beltline.ai/internal/sim/logistics/belt"
	"beltline.ai/internal/sim/logistics/burner"
	"beltline.ai/internal/sim/logistics/crafter"
	"beltline.ai/internal/sim/logistics/inserter"
	"beltline.ai/internal/sim/logistics/inventory"
	"beltline.ai/internal/sim/logistics/miner"
	"beltline.ai/internal/sim/logistics/model"
	"beltline.ai/internal/sim/logistics/rotation"
)

// ImportSnapshot replaces the current in-memory world state with the snapshot.
// It sets the world's tick to snapshotTick+1 (the next tick to simulate).
// On error the world is left unchanged.
//
// This must be called only when the world is stopped or from the world loop goroutine.
func (w *World) ImportSnapshot(s snapshot.SnapshotV1) error {
	if s.Header.Version != snapshot.Version {
		return fmt.Errorf("unsupported snapshot version: %d", s.Header.Version)
	}

	// Operational parameters: snapshot is authoritative when present.
	cfg := w.cfg
	if s.TickRate > 0 {
		cfg.TickRateHz = s.TickRate
	}
	if s.BeltIntervalNs > 0 {
		cfg.BeltInterval = time.Duration(s.BeltIntervalNs)
	}
	if s.InserterEpsilon > 0 {
		cfg.InserterEpsilon = s.InserterEpsilon
	}
	if s.SnapshotEveryTicks > 0 {
		cfg.SnapshotEveryTicks = s.SnapshotEveryTicks
	}
	if s.ObserverEveryTicks > 0 {
		cfg.ObserverEveryTicks = s.ObserverEveryTicks
	}

	structures := map[model.EntityID]*structure{}
	tiles := map[model.TilePos]model.EntityID{}
	belts := belt.NewNetwork(cfg.BeltInterval)
	belts.Timer().Elapsed = time.Duration(s.BeltElapsedNs)
	var inserters, miners, crafters []model.EntityID
	links := map[model.EntityID]model.EntityID{}
	maxID := s.NextEntityID

	svs := append([]snapshot.StructureV1(nil), s.Structures...)
	sort.Slice(svs, func(i, j int) bool { return svs[i].ID < svs[j].ID })
	for _, sv := range svs {
		id := model.EntityID(sv.ID)
		if id == 0 {
			return fmt.Errorf("snapshot structure with id 0 (%s)", sv.Def)
		}
		if _, dup := structures[id]; dup {
			return fmt.Errorf("snapshot structure %s listed twice", id)
		}
		st, err := importStructure(sv)
		if err != nil {
			return fmt.Errorf("snapshot structure %s: %w", id, err)
		}
		st.id = id
		for _, tile := range st.tiles() {
			if other, taken := tiles[tile]; taken {
				return fmt.Errorf("snapshot structure %s: %w: (%d,%d) by %s", id, ErrTileOccupied, tile.X, tile.Y, other)
			}
			tiles[tile] = id
		}
		if sv.Belt != nil {
			b := belt.New(st.rot)
			var slots [belt.SlotCount]model.Item
			for i, it := range sv.Belt.Slots {
				slots[i] = model.Item(it)
			}
			b.Restore(slots)
			if err := belts.Add(id, b); err != nil {
				return err
			}
			st.belt = true
			if sv.Belt.Next != 0 {
				links[id] = model.EntityID(sv.Belt.Next)
			}
		}
		if st.inserter != nil {
			inserters = append(inserters, id)
		}
		if st.miner != nil {
			miners = append(miners, id)
		}
		if st.crafter != nil {
			crafters = append(crafters, id)
		}
		structures[id] = st
		if sv.ID > maxID {
			maxID = sv.ID
		}
	}
	for _, from := range belts.IDs() {
		to, ok := links[from]
		if !ok {
			continue
		}
		if err := belts.Link(from, to); err != nil {
			return fmt.Errorf("snapshot belt link: %w", err)
		}
	}

	w.cfg = cfg
	w.structures = structures
	w.tiles = tiles
	w.belts = belts
	w.inserters = inserters
	w.miners = miners
	w.crafters = crafters
	w.nextID = maxID
	w.audits = nil
	w.tick.Store(s.Header.Tick + 1)
	return nil
}

func importStructure(sv snapshot.StructureV1) (*structure, error) {
	rot, err := rotation.New(sv.Sides)
	if err != nil {
		return nil, err
	}
	if err := rot.SetIndex(sv.Rotation); err != nil {
		return nil, err
	}
	st := &structure{
		def:         sv.Def,
		pos:         model.TilePos{X: sv.Pos[0], Y: sv.Pos[1]},
		w:           max(sv.Size[0], 1),
		h:           max(sv.Size[1], 1),
		rot:         rot,
		inventories: map[model.InventoryKind]*inventory.Inventory{},
	}
	for _, iv := range sv.Inventories {
		kind, ok := model.ParseInventoryKind(iv.Kind)
		if !ok {
			return nil, fmt.Errorf("unknown inventory kind %q", iv.Kind)
		}
		inv, err := importInventory(iv)
		if err != nil {
			return nil, fmt.Errorf("%s inventory: %w", iv.Kind, err)
		}
		st.inventories[kind] = inv
	}
	if sv.Inserter != nil {
		ins, err := importInserter(*sv.Inserter)
		if err != nil {
			return nil, err
		}
		st.inserter = ins
	}
	if mv := sv.Miner; mv != nil {
		m, err := miner.New(time.Duration(mv.IntervalNs), model.Item(mv.Resource), model.TilePos{X: mv.Dropoff[0], Y: mv.Dropoff[1]})
		if err != nil {
			return nil, err
		}
		m.Timer().Elapsed = time.Duration(mv.ElapsedNs)
		st.miner = m
	}
	if bv := sv.Burner; bv != nil {
		b, err := burner.New(time.Duration(bv.BurnNs))
		if err != nil {
			return nil, err
		}
		if err := b.Restore(time.Duration(bv.RemainingNs)); err != nil {
			return nil, err
		}
		st.burner = b
	}
	if cv := sv.Crafter; cv != nil {
		c, err := importCrafter(*cv)
		if err != nil {
			return nil, err
		}
		st.crafter = c
	}
	return st, nil
}

func importCrafter(cv snapshot.CrafterV1) (*crafter.Crafter, error) {
	recipes := make([]crafter.Recipe, 0, len(cv.Recipes))
	for _, rv := range cv.Recipes {
		recipes = append(recipes, crafter.Recipe{
			Name:        rv.Name,
			Ingredients: importCounts(rv.Ingredients),
			Products:    importCounts(rv.Products),
			Time:        time.Duration(rv.TimeNs),
		})
	}
	c, err := crafter.New(recipes...)
	if err != nil {
		return nil, err
	}
	if err := c.Restore(cv.Active, time.Duration(cv.ElapsedNs)); err != nil {
		return nil, err
	}
	return c, nil
}

func importCounts(in []snapshot.SlotV1) []model.ItemCount {
	out := make([]model.ItemCount, 0, len(in))
	for _, sl := range in {
		out = append(out, model.Count(model.Item(sl.Item), sl.Amount))
	}
	return out
}

func importInventory(iv snapshot.InventoryV1) (*inventory.Inventory, error) {
	filter := model.FilterAll()
	if iv.Filtered {
		items := make([]model.Item, 0, len(iv.Filter))
		for _, it := range iv.Filter {
			items = append(items, model.Item(it))
		}
		filter = model.FilterOnly(items...)
	}
	inv := inventory.NewWithFilter(len(iv.Slots), filter)
	for i, sl := range iv.Slots {
		if sl.Amount == 0 {
			continue
		}
		if err := inv.SetSlot(i, &model.Stack{Item: model.Item(sl.Item), Amount: sl.Amount}); err != nil {
			return nil, err
		}
	}
	return inv, nil
}

func importInserter(iv snapshot.InserterV1) (*inserter.Inserter, error) {
	st := inserter.State{
		Capacity:    iv.Capacity,
		Speed:       iv.Speed,
		Epsilon:     iv.Epsilon,
		Arm:         iv.Arm,
		TargetArm:   iv.TargetArm,
		PickupTile:  model.TilePos{X: iv.PickupTile[0], Y: iv.PickupTile[1]},
		DropoffTile: model.TilePos{X: iv.DropoffTile[0], Y: iv.DropoffTile[1]},
	}
	if iv.Holding.Amount > 0 {
		h := model.NewStack(model.Item(iv.Holding.Item), iv.Holding.Amount)
		st.Holding = &h
	}
	if av := iv.Action; av != nil {
		dropoff, err := importTarget(av.Dropoff)
		if err != nil {
			return nil, err
		}
		a := &inserter.Action{Dropoff: dropoff, Item: model.Item(av.Item)}
		if av.HasPickup {
			pickup, err := importTarget(av.Pickup)
			if err != nil {
				return nil, err
			}
			a.Pickup = &pickup
		}
		st.Action = a
	}
	return inserter.FromState(st)
}

func importTarget(tv snapshot.TargetV1) (inserter.Target, error) {
	kind, ok := inserter.ParseTargetKind(tv.Kind)
	if !ok {
		return inserter.Target{}, fmt.Errorf("unknown target kind %q", tv.Kind)
	}
	t := inserter.Target{Kind: kind, Entity: model.EntityID(tv.Entity)}
	if kind == inserter.TargetInventory {
		inv, ok := model.ParseInventoryKind(tv.Inventory)
		if !ok {
			return inserter.Target{}, fmt.Errorf("unknown inventory kind %q", tv.Inventory)
		}
		t.Inventory = inv
	}
	return t, nil
}
