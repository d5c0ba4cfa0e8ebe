package world

import (
	"errors"
	"strings"
	"testing"

	"beltline.ai/internal/sim/logistics/model"
	"beltline.ai/internal/sim/logistics/rotation"
)

func TestPlace_ResultCodes(t *testing.T) {
	w := newTestWorld(t)
	mustPlace(t, w, "CHEST", 0, 0, rotation.North)

	cases := []struct {
		name string
		req  PlaceRequest
		code string
	}{
		{"unknown", PlaceRequest{Structure: "CHST", Pos: model.TilePos{X: 5, Y: 5}}, CodeUnknownStructure},
		{"occupied", PlaceRequest{Structure: "INSERTER", Pos: model.TilePos{X: 0, Y: 0}, Facing: rotation.East}, CodeOccupied},
		{"diagonal", PlaceRequest{Structure: "INSERTER", Pos: model.TilePos{X: 1, Y: 1}, Facing: rotation.NorthEast}, CodeBadRotation},
		{"too_much", PlaceRequest{Structure: "CHEST", Pos: model.TilePos{X: 2, Y: 2}, Items: []model.ItemCount{model.Count("IRON_PLATE", 20000)}}, CodeNoSpace},
		{"bad_item", PlaceRequest{Structure: "CHEST", Pos: model.TilePos{X: 3, Y: 3}, Items: []model.ItemCount{model.Count("UNOBTAINIUM", 1)}}, CodeBadRequest},
		{"bad_resource", PlaceRequest{Structure: "BURNER_MINER", Pos: model.TilePos{X: 4, Y: 4}, Resource: "GOLD_ORE"}, CodeBadRequest},
	}
	for _, tc := range cases {
		_, err := w.PlaceNow(tc.req)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if got := ErrorCode(err); got != tc.code {
			t.Fatalf("%s: code=%s want %s (%v)", tc.name, got, tc.code, err)
		}
	}
	if w.EntityCount() != 1 {
		t.Fatalf("failed placements left entities behind: %d", w.EntityCount())
	}
	// Failed placements do not consume ids.
	if id := mustPlace(t, w, "CHEST", 9, 9, rotation.North); id != 2 {
		t.Fatalf("next id=%v want E2", id)
	}
}

func TestPlace_UnknownStructureSuggests(t *testing.T) {
	w := newTestWorld(t)
	_, err := w.PlaceNow(PlaceRequest{Structure: "TRANSPORT_BLET"})
	if !errors.Is(err, ErrUnknownStructure) {
		t.Fatalf("err=%v", err)
	}
	if !strings.Contains(err.Error(), "did you mean TRANSPORT_BELT") {
		t.Fatalf("missing suggestion: %v", err)
	}
}

func TestPlace_FuelGoesToFuelInventory(t *testing.T) {
	w := newTestWorld(t)
	id := mustPlace(t, w, "STONE_FURNACE", 0, 0, rotation.North, model.Count("COAL", 10))
	if got := w.Inventory(id, model.KindFuel).Totals()["COAL"]; got != 10 {
		t.Fatalf("fuel coal=%d want 10", got)
	}
	// Ore is not fuel; the source filter takes it.
	id2 := mustPlace(t, w, "STONE_FURNACE", 1, 0, rotation.North, model.Count("IRON_ORE", 3))
	if got := w.Inventory(id2, model.KindSource).Totals()["IRON_ORE"]; got != 3 {
		t.Fatalf("source ore=%d want 3", got)
	}
	// Plates fit neither fuel nor source.
	id3 := mustPlace(t, w, "STONE_FURNACE", 2, 0, rotation.North, model.Count("IRON_PLATE", 3))
	if got := w.Inventory(id3, model.KindOutput).Totals()["IRON_PLATE"]; got != 3 {
		t.Fatalf("output plates=%d want 3", got)
	}
}

func TestRemove_ReturnsContents(t *testing.T) {
	w := newTestWorld(t)
	chest := mustPlace(t, w, "CHEST", 0, 0, rotation.North, model.Count("COAL", 7), model.Count("STONE", 2))
	items, err := w.RemoveNow(chest)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	want := []model.ItemCount{model.Count("COAL", 7), model.Count("STONE", 2)}
	if len(items) != len(want) {
		t.Fatalf("items=%v want %v", items, want)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Fatalf("items=%v want %v", items, want)
		}
	}
	if len(w.Totals()) != 0 {
		t.Fatalf("totals after remove: %v", w.Totals())
	}
	if _, ok := w.EntityAt(model.TilePos{}); ok {
		t.Fatalf("tile still occupied")
	}
	mustPlace(t, w, "CHEST", 0, 0, rotation.North)

	if _, err := w.RemoveNow(chest); ErrorCode(err) != CodeUnknownEntity {
		t.Fatalf("second remove err=%v", err)
	}
}

func TestStepOnce_RemovesBeforePlaces(t *testing.T) {
	w := newTestWorld(t)
	old := mustPlace(t, w, "CHEST", 0, 0, rotation.North, model.Count("WOOD", 4))

	removeResp := make(chan RemoveResult, 1)
	placeResp := make(chan PlaceResult, 1)
	res, err := w.StepOnce(
		[]PlaceRequest{{Structure: "TRANSPORT_BELT", Pos: model.TilePos{}, Facing: rotation.West, Resp: placeResp}},
		[]RemoveRequest{{Entity: old, Resp: removeResp}},
	)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	rr := <-removeResp
	if rr.Err != nil || len(rr.Items) != 1 || rr.Items[0] != model.Count("WOOD", 4) {
		t.Fatalf("remove result %+v", rr)
	}
	pr := <-placeResp
	if pr.Err != nil || pr.Code != "" {
		t.Fatalf("place result %+v", pr)
	}
	if len(res.Placed) != 1 || len(res.Removed) != 1 {
		t.Fatalf("result placed=%v removed=%v", res.Placed, res.Removed)
	}
	if w.Belt(pr.Entity) == nil {
		t.Fatalf("placed entity is not a belt")
	}
}
