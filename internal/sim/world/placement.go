package world

import (
	"fmt"
	"sort"
	"time"

	"beltline.ai/internal/sim/catalogs"
	"beltline.ai/internal/sim/logistics/belt"
	"beltline.ai/internal/sim/logistics/burner"
	"beltline.ai/internal/sim/logistics/crafter"
	"beltline.ai/internal/sim/logistics/inserter"
	"beltline.ai/internal/sim/logistics/inventory"
	"beltline.ai/internal/sim/logistics/miner"
	"beltline.ai/internal/sim/logistics/model"
	"beltline.ai/internal/sim/logistics/rotation"
)

// grantOrder is where initial contents go: the first listed inventory that
// takes all of them. It follows inserter dropoff priority, then output.
var grantOrder = [...]model.InventoryKind{model.KindFuel, model.KindSource, model.KindStorage, model.KindOutput}

var beltNeighbours = [...]rotation.CompassDirection{rotation.North, rotation.East, rotation.South, rotation.West}

// PlaceNow applies a placement immediately. Only call it from the goroutine
// that owns the world and never while Run is active; Place() is the
// channel form applied at the next tick boundary.
func (w *World) PlaceNow(req PlaceRequest) (model.EntityID, error) {
	return w.applyPlace(req, w.tick.Load())
}

// RemoveNow is the synchronous form of Remove().
func (w *World) RemoveNow(id model.EntityID) ([]model.ItemCount, error) {
	return w.applyRemove(id, w.tick.Load())
}

func (w *World) applyPlace(req PlaceRequest, nowTick uint64) (model.EntityID, error) {
	def, ok := w.catalogs.Structures.ByID[req.Structure]
	if !ok {
		if s := catalogs.Suggest(req.Structure, w.catalogs.Structures.IDs); s != "" {
			return 0, fmt.Errorf("%w: %s (did you mean %s?)", ErrUnknownStructure, req.Structure, s)
		}
		return 0, fmt.Errorf("%w: %s", ErrUnknownStructure, req.Structure)
	}
	rot, err := rotation.Facing(def.Sides, req.Facing)
	if err != nil {
		return 0, fmt.Errorf("place %s facing %s: %w", def.ID, req.Facing, err)
	}
	wd, ht := def.Footprint()
	s := &structure{
		def:         def.ID,
		pos:         req.Pos,
		w:           wd,
		h:           ht,
		rot:         rot,
		inventories: map[model.InventoryKind]*inventory.Inventory{},
	}
	for _, tile := range s.tiles() {
		if other, taken := w.tiles[tile]; taken {
			return 0, fmt.Errorf("%w: (%d,%d) by %s", ErrTileOccupied, tile.X, tile.Y, other)
		}
	}
	if err := w.buildComponents(s, def, req); err != nil {
		return 0, fmt.Errorf("place %s: %w", def.ID, err)
	}
	if err := w.grant(s, req.Items); err != nil {
		return 0, fmt.Errorf("place %s: %w", def.ID, err)
	}

	w.nextID++
	s.id = model.EntityID(w.nextID)
	w.register(s)

	w.audit(AuditEntry{
		Tick:   nowTick,
		Actor:  s.id.String(),
		Action: "PLACE",
		Pos:    s.pos.ToArray(),
		Target: def.ID,
		Reason: rot.Compass().String(),
	})
	return s.id, nil
}

func (w *World) buildComponents(s *structure, def catalogs.StructureDef, req PlaceRequest) error {
	for _, c := range def.Components {
		switch c.Type {
		case catalogs.ComponentStorage:
			s.inventories[model.KindStorage] = inventory.NewWithFilter(c.Slots, w.componentFilter(c))
		case catalogs.ComponentFuel:
			s.inventories[model.KindFuel] = inventory.NewWithFilter(c.Slots, w.componentFilter(c))
		case catalogs.ComponentSource:
			s.inventories[model.KindSource] = inventory.NewWithFilter(c.Slots, w.componentFilter(c))
		case catalogs.ComponentOutput:
			s.inventories[model.KindOutput] = inventory.NewWithFilter(c.Slots, w.componentFilter(c))
		case catalogs.ComponentTransportBelt:
			s.belt = true
		case catalogs.ComponentInserter:
			ins, err := inserter.Place(inserter.Config{
				Speed:    c.Speed,
				Capacity: c.Capacity,
				Epsilon:  w.cfg.InserterEpsilon,
			}, s.pos, s.rot)
			if err != nil {
				return err
			}
			s.inserter = ins
		case catalogs.ComponentMiner:
			resource := model.Item(c.Resource)
			if !req.Resource.IsZero() {
				if _, ok := w.catalogs.Items.Defs[string(req.Resource)]; !ok {
					return fmt.Errorf("unknown resource %s", req.Resource)
				}
				resource = req.Resource
			}
			m, err := miner.Place(time.Duration(c.IntervalMs)*time.Millisecond, resource, s.pos, s.rot)
			if err != nil {
				return err
			}
			s.miner = m
		case catalogs.ComponentBurner:
			b, err := burner.New(time.Duration(c.BurnMs) * time.Millisecond)
			if err != nil {
				return err
			}
			s.burner = b
		case catalogs.ComponentSmelter:
			ids := w.catalogs.Recipes.InCategory(c.Category)
			if req.Recipe != "" {
				if w.catalogs.Recipes.ByID[req.Recipe].Category != c.Category {
					return fmt.Errorf("%w: %s is not a %s recipe", ErrUnknownRecipe, req.Recipe, c.Category)
				}
				ids = []string{req.Recipe}
			}
			cr, err := w.newCrafter(ids...)
			if err != nil {
				return err
			}
			s.crafter = cr
		case catalogs.ComponentAssembler:
			id := c.Recipe
			if req.Recipe != "" {
				id = req.Recipe
			}
			if id == "" {
				return fmt.Errorf("%w: assembler needs a recipe", ErrUnknownRecipe)
			}
			cr, err := w.newCrafter(id)
			if err != nil {
				return err
			}
			s.crafter = cr
		}
	}
	// An assembler's source only takes what its recipe uses.
	if src := s.inventories[model.KindSource]; src != nil && s.crafter != nil && def.Has(catalogs.ComponentAssembler) {
		only := s.crafter.Recipes()[0].IngredientFilter()
		s.inventories[model.KindSource] = inventory.NewWithFilter(src.Len(), src.Filter().Intersect(only))
	}
	return nil
}

func (w *World) newCrafter(ids ...string) (*crafter.Crafter, error) {
	recipes := make([]crafter.Recipe, 0, len(ids))
	for _, id := range ids {
		r, err := w.recipe(id)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	return crafter.New(recipes...)
}

func (w *World) recipe(id string) (crafter.Recipe, error) {
	def, ok := w.catalogs.Recipes.ByID[id]
	if !ok {
		if s := catalogs.Suggest(id, w.catalogs.Recipes.IDs); s != "" {
			return crafter.Recipe{}, fmt.Errorf("%w: %s (did you mean %s?)", ErrUnknownRecipe, id, s)
		}
		return crafter.Recipe{}, fmt.Errorf("%w: %s", ErrUnknownRecipe, id)
	}
	return crafter.Recipe{
		Name:        def.ID,
		Ingredients: recipeItems(def.Ingredients),
		Products:    recipeItems(def.Products),
		Time:        time.Duration(def.TimeMs) * time.Millisecond,
	}, nil
}

func recipeItems(in []catalogs.RecipeItem) []model.ItemCount {
	out := make([]model.ItemCount, 0, len(in))
	for _, ri := range in {
		out = append(out, model.Count(model.Item(ri.Item), ri.Amount))
	}
	return out
}

// componentFilter builds an inventory allow-list. Fuel inventories without
// an explicit list take every fuel item.
func (w *World) componentFilter(c catalogs.ComponentDef) model.ItemFilter {
	names := c.Filter
	if len(names) == 0 && c.Type == catalogs.ComponentFuel {
		names = w.catalogs.Items.FuelItems()
	}
	if len(names) == 0 {
		return model.FilterAll()
	}
	items := make([]model.Item, 0, len(names))
	for _, n := range names {
		items = append(items, model.Item(n))
	}
	return model.FilterOnly(items...)
}

func (w *World) grant(s *structure, items []model.ItemCount) error {
	if len(items) == 0 {
		return nil
	}
	for _, ic := range items {
		if _, ok := w.catalogs.Items.Defs[string(ic.Item)]; !ok {
			return fmt.Errorf("unknown item %s", ic.Item)
		}
	}
	for _, kind := range grantOrder {
		inv := s.inventories[kind]
		if inv == nil || !inv.CanAdd(items) {
			continue
		}
		if left := inv.AddItems(items); len(left) != 0 {
			return fmt.Errorf("%w: %v left over", ErrNoSpace, left)
		}
		return nil
	}
	return ErrNoSpace
}

func (w *World) register(s *structure) {
	w.structures[s.id] = s
	for _, tile := range s.tiles() {
		w.tiles[tile] = s.id
	}
	if s.belt {
		_ = w.belts.Add(s.id, belt.New(s.rot))
		w.linkBelt(s)
	}
	if s.inserter != nil {
		w.inserters = append(w.inserters, s.id)
	}
	if s.miner != nil {
		w.miners = append(w.miners, s.id)
	}
	if s.crafter != nil {
		w.crafters = append(w.crafters, s.id)
	}
}

// linkBelt connects a new belt to the belt it faces, and every adjacent
// belt that faces it to the new belt.
func (w *World) linkBelt(s *structure) {
	dx, dy := s.rot.Compass().Offset()
	if next, ok := w.beltAt(s.pos.Add(dx, dy)); ok {
		_ = w.belts.Link(s.id, next)
	}
	for _, dir := range beltNeighbours {
		dx, dy := dir.Offset()
		nb, ok := w.beltAt(s.pos.Add(dx, dy))
		if !ok {
			continue
		}
		if w.Belt(nb).Facing() == dir.Opposite() {
			_ = w.belts.Link(nb, s.id)
		}
	}
}

func (w *World) beltAt(tile model.TilePos) (model.EntityID, bool) {
	id, ok := w.tiles[tile]
	if !ok {
		return 0, false
	}
	if _, isBelt := w.belts.Get(id); !isBelt {
		return 0, false
	}
	return id, true
}

func (w *World) applyRemove(id model.EntityID, nowTick uint64) ([]model.ItemCount, error) {
	s := w.structures[id]
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, id)
	}
	held := map[model.Item]uint64{}
	for _, inv := range s.inventories {
		for it, n := range inv.Totals() {
			held[it] += n
		}
	}
	if s.belt {
		if b, ok := w.belts.Remove(id); ok {
			for _, it := range b.Slots() {
				if !it.IsZero() {
					held[it]++
				}
			}
		}
	}
	if s.inserter != nil {
		if h, ok := s.inserter.Holding(); ok {
			held[h.Item] += uint64(h.Amount)
		}
		w.inserters = without(w.inserters, id)
	}
	if s.miner != nil {
		w.miners = without(w.miners, id)
	}
	if s.crafter != nil {
		// A running craft hands its ingredients back.
		for _, ic := range s.crafter.Cancel() {
			held[ic.Item] += uint64(ic.Amount)
		}
		w.crafters = without(w.crafters, id)
	}
	for _, tile := range s.tiles() {
		delete(w.tiles, tile)
	}
	delete(w.structures, id)

	w.audit(AuditEntry{
		Tick:   nowTick,
		Actor:  id.String(),
		Action: "REMOVE",
		Pos:    s.pos.ToArray(),
		Target: s.def,
	})
	return itemCounts(held), nil
}

func without(ids []model.EntityID, id model.EntityID) []model.EntityID {
	for i, o := range ids {
		if o == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func itemCounts(m map[model.Item]uint64) []model.ItemCount {
	out := make([]model.ItemCount, 0, len(m))
	for it, n := range m {
		out = append(out, model.Count(it, uint32(n)))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Item < out[j].Item })
	return out
}
