package main

import (
	"testing"

	"beltline.ai/internal/sim/catalogs"
	"beltline.ai/internal/sim/logistics/model"
	"beltline.ai/internal/sim/logistics/rotation"
	"beltline.ai/internal/sim/world"
)

func TestIronLineLayout_ProducesPlates(t *testing.T) {
	l, err := loadLayout("../../configs/layouts/iron_line.yaml")
	if err != nil {
		t.Fatalf("load layout: %v", err)
	}
	cats, err := catalogs.Load("../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	w, err := world.New(world.WorldConfig{ID: "iron_line", TickRateHz: 20, Strict: true}, cats)
	if err != nil {
		t.Fatalf("world: %v", err)
	}

	var chest model.EntityID
	for _, m := range l.placeMessages() {
		facing := rotation.North
		if m.Facing != "" {
			d, ok := rotation.ParseCompass(m.Facing)
			if !ok {
				t.Fatalf("%s: bad facing %q", m.Ref, m.Facing)
			}
			facing = d
		}
		req := world.PlaceRequest{
			Structure: m.Structure,
			Pos:       model.TilePos{X: m.Pos[0], Y: m.Pos[1]},
			Facing:    facing,
			Resource:  model.Item(m.Resource),
			Recipe:    m.Recipe,
		}
		for _, ic := range m.Items {
			req.Items = append(req.Items, model.Count(model.Item(ic.Item), ic.Amount))
		}
		id, err := w.PlaceNow(req)
		if err != nil {
			t.Fatalf("%s %s: %v", m.Ref, m.Structure, err)
		}
		if m.Structure == "CHEST" {
			chest = id
		}
	}

	// 100s of simulated time; strict mode fails the tick on any
	// conservation error.
	consumed := map[string]int{}
	for i := 0; i < 2000; i++ {
		res, err := w.StepOnce(nil, nil)
		if err != nil {
			t.Fatalf("tick %d: %v", res.Tick, err)
		}
		for _, a := range res.Audits {
			if a.Action == "BURN" || a.Action == "CONSUME" {
				consumed[a.Item] += int(a.Amount)
			}
		}
	}
	if got := w.Inventory(chest, model.KindStorage).Count("IRON_PLATE"); got < 10 {
		t.Fatalf("chest plates=%d want at least 10", got)
	}
	if consumed["COAL"] == 0 || consumed["IRON_ORE"] < 10 {
		t.Fatalf("consumed=%v", consumed)
	}
}
