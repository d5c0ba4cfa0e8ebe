package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func sample() SnapshotV1 {
	return SnapshotV1{
		Header:          Header{Version: Version, WorldID: "w1", Tick: 42, Digest: "abc"},
		TickRate:        20,
		BeltIntervalNs:  150e6,
		InserterEpsilon: 0.01,
		NextEntityID:    4,
		BeltElapsedNs:   50e6,
		Structures: []StructureV1{
			{
				ID: 1, Def: "CHEST", Pos: [2]int{0, 0}, Size: [2]int{1, 1}, Sides: 1,
				Inventories: []InventoryV1{{
					Kind:  "STORAGE",
					Slots: []SlotV1{{Item: "COAL", Amount: 12}, {}, {Item: "IRON_ORE", Amount: 1000}},
				}},
			},
			{
				ID: 2, Def: "TRANSPORT_BELT", Pos: [2]int{1, 0}, Size: [2]int{1, 1}, Sides: 4, Rotation: 1,
				Belt: &BeltV1{Slots: [3]string{"", "COAL", ""}, Next: 3},
			},
			{
				ID: 3, Def: "INSERTER", Pos: [2]int{2, 0}, Size: [2]int{1, 1}, Sides: 4, Rotation: 1,
				Inserter: &InserterV1{
					Holding: SlotV1{Item: "COAL", Amount: 1}, Capacity: 1, Speed: 2, Epsilon: 0.01,
					Arm: 0.25, TargetArm: 1, PickupTile: [2]int{1, 0}, DropoffTile: [2]int{3, 0},
					Action: &ActionV1{Dropoff: TargetV1{Kind: "INVENTORY", Entity: 1, Inventory: "STORAGE"}, Item: "COAL"},
				},
			},
		},
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "snapshots", "42.snap.zst")
	want := sample()
	if err := WriteSnapshot(p, want); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
	got, err := ReadSnapshot(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}

	h, err := ReadHeader(p)
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	if h != want.Header {
		t.Fatalf("header: %+v", h)
	}
}

func TestWrite_DefaultsVersion(t *testing.T) {
	p := filepath.Join(t.TempDir(), "1.snap.zst")
	s := sample()
	s.Header.Version = 0
	if err := WriteSnapshot(p, s); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadSnapshot(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Header.Version != Version {
		t.Fatalf("version: %d", got.Header.Version)
	}
}

func TestRead_RejectsOtherVersions(t *testing.T) {
	p := filepath.Join(t.TempDir(), "1.snap.zst")
	s := sample()
	s.Header.Version = 7
	if err := WriteSnapshot(p, s); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadSnapshot(p); !errors.Is(err, ErrVersion) {
		t.Fatalf("expected ErrVersion, got %v", err)
	}
}
