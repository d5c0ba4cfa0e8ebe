package world

import (
	"errors"
	"testing"
	"time"

	"beltline.ai/internal/sim/logistics/model"
	"beltline.ai/internal/sim/logistics/rotation"
)

func actions(results []TickResult, action string) []AuditEntry {
	var out []AuditEntry
	for _, res := range results {
		for _, a := range res.Audits {
			if a.Action == action {
				out = append(out, a)
			}
		}
	}
	return out
}

func TestFurnace_SmeltsOreIntoPlates(t *testing.T) {
	w := newTestWorld(t)
	id := mustPlace(t, w, "STONE_FURNACE", 0, 0, rotation.North, model.Count("COAL", 1))
	w.Inventory(id, model.KindSource).AddItem("IRON_ORE", 2)

	// 3200ms at 50ms per tick: the first plate lands on the 64th tick.
	results := mustStep(t, w, 64)
	produced, consumed := 0, 0
	for _, res := range results {
		produced += res.Produced
		consumed += res.Consumed
	}
	if produced != 1 || consumed != 2 {
		t.Fatalf("produced=%d consumed=%d want 1 plate from 1 coal and 1 ore", produced, consumed)
	}
	if got := w.Inventory(id, model.KindOutput).Count("IRON_PLATE"); got != 1 {
		t.Fatalf("plates=%d", got)
	}
	if burns := actions(results, "BURN"); len(burns) != 1 || burns[0].Item != "COAL" {
		t.Fatalf("burn audits=%+v", burns)
	}
	if crafts := actions(results, "CRAFT"); len(crafts) != 1 || crafts[0].Target != "IRON_PLATE" || crafts[0].Item != "IRON_PLATE" {
		t.Fatalf("craft audits=%+v", crafts)
	}

	mustStep(t, w, 64)
	if got := w.Inventory(id, model.KindOutput).Count("IRON_PLATE"); got != 2 || !w.Inventory(id, model.KindSource).IsEmpty() {
		t.Fatalf("plates=%d source=%v", got, w.Inventory(id, model.KindSource).Totals())
	}
	// Two crafts burnt 6.4s of the 8s unit; an idle furnace burns nothing.
	mustStep(t, w, 100)
	if got := w.Burner(id).Remaining(); got != 1600*time.Millisecond {
		t.Fatalf("burner remaining=%v", got)
	}
}

func TestFurnace_WaitsForFuel(t *testing.T) {
	w := newTestWorld(t)
	id := mustPlace(t, w, "STONE_FURNACE", 0, 0, rotation.North, model.Count("IRON_ORE", 2))

	mustStep(t, w, 100)
	if w.Crafter(id).Working() || !w.Inventory(id, model.KindOutput).IsEmpty() {
		t.Fatalf("furnace ran without fuel")
	}
	if f := w.Observe(); len(f.Crafters) != 1 || f.Crafters[0].Powered {
		t.Fatalf("crafters=%+v", f.Crafters)
	}

	w.Inventory(id, model.KindFuel).AddItem("WOOD", 1)
	res := mustStep(t, w, 1)[0]
	if !w.Crafter(id).Working() || res.Consumed != 2 {
		t.Fatalf("working=%v consumed=%d", w.Crafter(id).Working(), res.Consumed)
	}
	if got := w.Inventory(id, model.KindSource).Count("IRON_ORE"); got != 1 {
		t.Fatalf("source ore=%d", got)
	}
}

func TestMiner_StopsWhenFuelRunsOut(t *testing.T) {
	w := newTestWorld(t)
	id := mustPlace(t, w, "BURNER_MINER", 0, 0, rotation.East, model.Count("COAL", 1))
	chest := mustPlace(t, w, "CHEST", 1, 0, rotation.North)

	// One coal is 160 ticks of mining: four ore at 2s each.
	mustStep(t, w, 400)
	if got := storageTotal(w, chest, "IRON_ORE"); got != 4 {
		t.Fatalf("chest ore=%d want 4", got)
	}
	if w.Burner(id).Powered() || w.Miner(id).Working() {
		t.Fatalf("miner still running on an empty fuel inventory")
	}

	// Refuelling resumes from where the timer stopped.
	w.Inventory(id, model.KindFuel).AddItem("COAL", 1)
	mustStep(t, w, 40)
	if got := storageTotal(w, chest, "IRON_ORE"); got != 5 {
		t.Fatalf("chest ore=%d want 5", got)
	}
}

func TestAssembler_GearsFromPlates(t *testing.T) {
	w := newTestWorld(t)
	id := mustPlace(t, w, "ASSEMBLER", 0, 0, rotation.North, model.Count("IRON_PLATE", 5))
	if w.Inventory(id, model.KindSource).CanAddItem("IRON_ORE") {
		t.Fatalf("assembler source takes items its recipe does not use")
	}

	results := mustStep(t, w, 30)
	if got := w.Inventory(id, model.KindOutput).Count("IRON_GEAR"); got != 2 {
		t.Fatalf("gears=%d want 2", got)
	}
	if got := w.Inventory(id, model.KindSource).Count("IRON_PLATE"); got != 1 {
		t.Fatalf("plates left=%d want 1", got)
	}
	if got := len(actions(results, "CONSUME")); got != 2 {
		t.Fatalf("consume audits=%d", got)
	}
	if len(actions(results, "BURN")) != 0 {
		t.Fatalf("assembler has no burner")
	}
}

func TestPlace_RecipeOverrides(t *testing.T) {
	w := newTestWorld(t)
	_, err := w.PlaceNow(PlaceRequest{Structure: "ASSEMBLER", Pos: model.TilePos{X: 0, Y: 0}, Recipe: "IRON_GEER"})
	if !errors.Is(err, ErrUnknownRecipe) || ErrorCode(err) != CodeBadRequest {
		t.Fatalf("unknown recipe err=%v", err)
	}
	if _, err := w.PlaceNow(PlaceRequest{Structure: "STONE_FURNACE", Pos: model.TilePos{X: 1, Y: 0}, Recipe: "IRON_GEAR"}); !errors.Is(err, ErrUnknownRecipe) {
		t.Fatalf("assembling recipe on a furnace err=%v", err)
	}
	id, err := w.PlaceNow(PlaceRequest{Structure: "STONE_FURNACE", Pos: model.TilePos{X: 2, Y: 0}, Recipe: "COPPER_PLATE"})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if rs := w.Crafter(id).Recipes(); len(rs) != 1 || rs[0].Name != "COPPER_PLATE" {
		t.Fatalf("recipes=%+v", rs)
	}
}

func TestRemove_RefundsRunningCraft(t *testing.T) {
	w := newTestWorld(t)
	id := mustPlace(t, w, "ASSEMBLER", 0, 0, rotation.North, model.Count("IRON_PLATE", 2))
	mustStep(t, w, 1)
	if !w.Crafter(id).Working() || !w.Inventory(id, model.KindSource).IsEmpty() {
		t.Fatalf("craft did not start")
	}
	items, err := w.RemoveNow(id)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(items) != 1 || items[0] != model.Count("IRON_PLATE", 2) {
		t.Fatalf("refund=%v", items)
	}
	mustStep(t, w, 1)
	if m := w.Metrics(); m.Crafters != 0 {
		t.Fatalf("crafters=%d after remove", m.Crafters)
	}
}

func TestCheckConservation_CountsConsumption(t *testing.T) {
	w := newTestWorld(t)
	chest := mustPlace(t, w, "CHEST", 0, 0, rotation.North, model.Count("COAL", 3))
	before := w.Totals()
	w.Inventory(chest, model.KindStorage).TryTakeItem("COAL", 1)

	if err := w.CheckConservation(before, nil, map[model.Item]uint64{"COAL": 1}); err != nil {
		t.Fatalf("declared consumption rejected: %v", err)
	}
	if err := w.CheckConservation(before, nil, nil); !errors.Is(err, ErrConservation) {
		t.Fatalf("undeclared loss err=%v", err)
	}
	w.Inventory(chest, model.KindStorage).AddItem("IRON_PLATE", 1)
	if err := w.CheckConservation(before, map[model.Item]uint64{"IRON_PLATE": 1}, map[model.Item]uint64{"COAL": 1}); err != nil {
		t.Fatalf("declared production rejected: %v", err)
	}
}
