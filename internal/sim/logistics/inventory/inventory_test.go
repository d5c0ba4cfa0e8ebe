package inventory

import (
	"errors"
	"reflect"
	"testing"

	"beltline.ai/internal/sim/logistics/model"
)

const (
	stone model.Item = "STONE"
	wood  model.Item = "WOOD"
	coal  model.Item = "COAL"
)

func mustSlot(t *testing.T, inv *Inventory, i int, want model.Stack) {
	t.Helper()
	got, ok := inv.Slot(i)
	if !ok {
		t.Fatalf("slot %d empty, want %+v", i, want)
	}
	if got != want {
		t.Fatalf("slot %d=%+v, want %+v", i, got, want)
	}
}

func TestAddItems_RemainderBeyondOneSlot(t *testing.T) {
	inv := New(1)
	rem := inv.AddItems([]model.ItemCount{{Item: wood, Amount: 1500}})
	mustSlot(t, inv, 0, model.NewStack(wood, 1000))
	if !reflect.DeepEqual(rem, []model.ItemCount{{Item: wood, Amount: 500}}) {
		t.Fatalf("remainder=%v", rem)
	}
}

func TestAddItems_SecondPairStillProcessed(t *testing.T) {
	inv := New(3)
	inv.AddItem(stone, 5)
	rem := inv.AddItems([]model.ItemCount{{Item: stone, Amount: 5}, {Item: wood, Amount: 7}})
	if len(rem) != 0 {
		t.Fatalf("remainder=%v", rem)
	}
	mustSlot(t, inv, 0, model.NewStack(stone, 10))
	mustSlot(t, inv, 1, model.NewStack(wood, 7))
}

func TestAddItems_NoRoomForSecondItem(t *testing.T) {
	inv := New(1)
	rem := inv.AddItems([]model.ItemCount{{Item: stone, Amount: 10}, {Item: wood, Amount: 20}})
	mustSlot(t, inv, 0, model.NewStack(stone, 10))
	if !reflect.DeepEqual(rem, []model.ItemCount{{Item: wood, Amount: 20}}) {
		t.Fatalf("remainder=%v", rem)
	}
}

func TestAddItems_TopsUpExistingStack(t *testing.T) {
	inv := New(2)
	if err := inv.SetSlot(1, &model.Stack{Item: "FURNACE", Amount: 10}); err != nil {
		t.Fatalf("SetSlot: %v", err)
	}
	inv.AddItem("FURNACE", 1)
	mustSlot(t, inv, 1, model.NewStack("FURNACE", 11))
	if _, ok := inv.Slot(0); ok {
		t.Fatalf("slot 0 should stay empty")
	}
}

func TestHasAndRemoveItems(t *testing.T) {
	inv := New(12)
	inv.AddItems([]model.ItemCount{{Item: stone, Amount: 10}, {Item: wood, Amount: 20}})

	if !inv.HasItems([]model.ItemCount{{Item: stone, Amount: 5}, {Item: wood, Amount: 10}}) {
		t.Fatalf("HasItems should be true")
	}
	if inv.HasItems([]model.ItemCount{{Item: stone, Amount: 5}, {Item: wood, Amount: 30}}) {
		t.Fatalf("HasItems should be false")
	}
	if !inv.RemoveItems([]model.ItemCount{{Item: stone, Amount: 5}, {Item: wood, Amount: 10}}) {
		t.Fatalf("RemoveItems failed")
	}
	mustSlot(t, inv, 0, model.NewStack(stone, 5))
	mustSlot(t, inv, 1, model.NewStack(wood, 10))

	if !inv.RemoveItems([]model.ItemCount{{Item: stone, Amount: 5}, {Item: wood, Amount: 10}}) {
		t.Fatalf("RemoveItems to zero failed")
	}
	if !inv.IsEmpty() {
		t.Fatalf("expected empty inventory, got %v", inv.Totals())
	}
}

func TestRemoveItems_AtomicOnShortage(t *testing.T) {
	inv := New(12)
	inv.AddItems([]model.ItemCount{{Item: stone, Amount: 10}, {Item: wood, Amount: 20}})
	before := inv.Slots()

	if inv.RemoveItems([]model.ItemCount{{Item: stone, Amount: 5}, {Item: wood, Amount: 30}}) {
		t.Fatalf("RemoveItems should fail")
	}
	if !reflect.DeepEqual(before, inv.Slots()) {
		t.Fatalf("inventory mutated: before=%v after=%v", before, inv.Slots())
	}
}

func TestHasItems_DuplicateRequestsSum(t *testing.T) {
	inv := New(2)
	inv.AddItem(stone, 10)
	if inv.HasItems([]model.ItemCount{{Item: stone, Amount: 6}, {Item: stone, Amount: 6}}) {
		t.Fatalf("duplicate request entries must be summed")
	}
}

func TestRemoveItems_AcrossSlots(t *testing.T) {
	inv := New(3)
	_ = inv.SetSlot(0, &model.Stack{Item: coal, Amount: 3})
	_ = inv.SetSlot(2, &model.Stack{Item: coal, Amount: 4})
	if !inv.RemoveItems([]model.ItemCount{{Item: coal, Amount: 5}}) {
		t.Fatalf("RemoveItems failed")
	}
	if _, ok := inv.Slot(0); ok {
		t.Fatalf("slot 0 should be cleared")
	}
	mustSlot(t, inv, 2, model.NewStack(coal, 2))
}

func TestFilter_OnlyRejectsOthers(t *testing.T) {
	inv := NewWithFilter(4, model.FilterOnly(coal))
	if inv.CanAddItem(wood) {
		t.Fatalf("CanAddItem(WOOD) must be false")
	}
	if inv.CanAdd([]model.ItemCount{{Item: wood, Amount: 1}}) {
		t.Fatalf("CanAdd(WOOD) must be false")
	}
	rem := inv.AddItems([]model.ItemCount{{Item: wood, Amount: 3}, {Item: coal, Amount: 2}})
	if !reflect.DeepEqual(rem, []model.ItemCount{{Item: wood, Amount: 3}}) {
		t.Fatalf("remainder=%v", rem)
	}
	if left := inv.AddStack(model.NewStack(wood, 1)); left == nil || left.Amount != 1 {
		t.Fatalf("AddStack(WOOD) left=%v", left)
	}
	if err := inv.SetSlot(1, &model.Stack{Item: wood, Amount: 1}); !errors.Is(err, ErrFilterViolation) {
		t.Fatalf("SetSlot err=%v", err)
	}
	if inv.Count(wood) != 0 || inv.Count(coal) != 2 {
		t.Fatalf("totals=%v", inv.Totals())
	}
}

func TestAddStack_MergeThenEmpty(t *testing.T) {
	inv := New(2)
	_ = inv.SetSlot(1, &model.Stack{Item: coal, Amount: 990})
	if left := inv.AddStack(model.NewStack(coal, 30)); left != nil {
		t.Fatalf("left=%v", left)
	}
	mustSlot(t, inv, 1, model.NewStack(coal, 1000))
	mustSlot(t, inv, 0, model.NewStack(coal, 20))
}

func TestAddStack_FullReturnsLeftover(t *testing.T) {
	inv := New(1)
	_ = inv.SetSlot(0, &model.Stack{Item: stone, Amount: 1})
	left := inv.AddStack(model.NewStack(coal, 3))
	if left == nil || *left != model.NewStack(coal, 3) {
		t.Fatalf("left=%v", left)
	}
	if inv.CanAddStack(model.NewStack(coal, 1)) {
		t.Fatalf("CanAddStack should be false")
	}
}

func TestTryTakeItem(t *testing.T) {
	inv := New(3)
	_ = inv.SetSlot(0, &model.Stack{Item: coal, Amount: 2})
	_ = inv.SetSlot(2, &model.Stack{Item: coal, Amount: 5})

	got, ok := inv.TryTakeItem(coal, 4)
	if !ok || got != model.NewStack(coal, 4) {
		t.Fatalf("take=%v ok=%v", got, ok)
	}
	if _, ok := inv.Slot(0); ok {
		t.Fatalf("slot 0 should be cleared")
	}
	mustSlot(t, inv, 2, model.NewStack(coal, 3))

	got, ok = inv.TryTakeItem(coal, 10)
	if !ok || got.Amount != 3 {
		t.Fatalf("take rest=%v ok=%v", got, ok)
	}
	if _, ok := inv.TryTakeItem(coal, 1); ok {
		t.Fatalf("take from empty should fail")
	}
}

func TestTryTakeItem_ZeroRequested(t *testing.T) {
	inv := New(1)
	inv.AddItem(coal, 5)
	if got, ok := inv.TryTakeItem(coal, 0); ok || got != (model.Stack{}) {
		t.Fatalf("take zero=%v ok=%v", got, ok)
	}
	mustSlot(t, inv, 0, model.NewStack(coal, 5))
}

func TestAddStack_OversizedSpreadsAcrossSlots(t *testing.T) {
	inv := New(3)
	if left := inv.AddStack(model.NewStack(coal, 2*model.MaxStackSize+5)); left != nil {
		t.Fatalf("left=%v", left)
	}
	mustSlot(t, inv, 0, model.NewStack(coal, model.MaxStackSize))
	mustSlot(t, inv, 1, model.NewStack(coal, model.MaxStackSize))
	mustSlot(t, inv, 2, model.NewStack(coal, 5))
}

func TestCanAddItem_FullStacks(t *testing.T) {
	inv := New(1)
	_ = inv.SetSlot(0, &model.Stack{Item: coal, Amount: model.MaxStackSize})
	if inv.CanAddItem(coal) {
		t.Fatalf("full stack and no empty slot")
	}
	if !inv.CanAdd(nil) {
		t.Fatalf("empty request always fits")
	}
}

func TestMoveWithin(t *testing.T) {
	inv := New(3)
	_ = inv.SetSlot(0, &model.Stack{Item: stone, Amount: 10})
	_ = inv.SetSlot(1, &model.Stack{Item: "IRON_ORE", Amount: 20})

	inv.MoveWithin(1, 0)
	mustSlot(t, inv, 0, model.NewStack("IRON_ORE", 20))
	mustSlot(t, inv, 1, model.NewStack(stone, 10))

	_ = inv.SetSlot(2, &model.Stack{Item: stone, Amount: 995})
	inv.MoveWithin(1, 2)
	mustSlot(t, inv, 2, model.NewStack(stone, 1000))
	mustSlot(t, inv, 1, model.NewStack(stone, 5))

	inv.MoveWithin(0, 1)
	mustSlot(t, inv, 1, model.NewStack("IRON_ORE", 20))
	mustSlot(t, inv, 0, model.NewStack(stone, 5))
}

func TestConservation_MixedOperations(t *testing.T) {
	inv := New(4)
	var external uint64
	add := func(item model.Item, n uint32) {
		rem := inv.AddItem(item, n)
		external += uint64(n)
		for _, r := range rem {
			external -= uint64(r.Amount)
		}
	}
	add(coal, 1500)
	add(stone, 700)
	add(coal, 600)

	if got, ok := inv.TryTakeItem(coal, 250); ok {
		external -= uint64(got.Amount)
	}
	if left := inv.AddStack(model.NewStack(stone, 900)); left != nil {
		external += uint64(900 - left.Amount)
	} else {
		external += 900
	}
	if inv.RemoveItems([]model.ItemCount{{Item: stone, Amount: 100}}) {
		external -= 100
	}

	var total uint64
	for _, n := range inv.Totals() {
		total += n
	}
	if total != external {
		t.Fatalf("inventory total=%d, accounted=%d", total, external)
	}
	for i := 0; i < inv.Len(); i++ {
		if s, ok := inv.Slot(i); ok && (s.Amount == 0 || s.Amount > model.MaxStackSize) {
			t.Fatalf("slot %d violates amount invariant: %+v", i, s)
		}
	}
}
