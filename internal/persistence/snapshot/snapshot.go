package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

var ErrVersion = errors.New("unsupported snapshot version")

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
	Digest  string `json:"digest,omitempty"`
}

// SnapshotV1 is the full logistics state at the end of Header.Tick. Fields
// are plain values so the file does not depend on simulation types.
type SnapshotV1 struct {
	Header Header `json:"header"`

	// Operational parameters (captured for deterministic replay/resume).
	TickRate           int     `json:"tick_rate_hz"`
	BeltIntervalNs     int64   `json:"belt_interval_ns"`
	InserterEpsilon    float64 `json:"inserter_epsilon"`
	SnapshotEveryTicks int     `json:"snapshot_every_ticks,omitempty"`
	ObserverEveryTicks int     `json:"observer_every_ticks,omitempty"`

	StructuresDigest string `json:"structures_digest,omitempty"`

	NextEntityID  uint64 `json:"next_entity_id"`
	BeltElapsedNs int64  `json:"belt_elapsed_ns"`

	Structures []StructureV1 `json:"structures"`
}

type StructureV1 struct {
	ID       uint64 `json:"id"`
	Def      string `json:"def"`
	Pos      [2]int `json:"pos"`
	Size     [2]int `json:"size"`
	Sides    int    `json:"sides"`
	Rotation int    `json:"rotation"`

	Inventories []InventoryV1 `json:"inventories,omitempty"`
	Belt        *BeltV1       `json:"belt,omitempty"`
	Inserter    *InserterV1   `json:"inserter,omitempty"`
	Miner       *MinerV1      `json:"miner,omitempty"`
	Burner      *BurnerV1     `json:"burner,omitempty"`
	Crafter     *CrafterV1    `json:"crafter,omitempty"`
}

// InventoryV1 keeps every slot; Amount 0 marks an empty slot. Filtered
// distinguishes an empty allow-list from no filter at all.
type InventoryV1 struct {
	Kind     string   `json:"kind"`
	Filtered bool     `json:"filtered,omitempty"`
	Filter   []string `json:"filter,omitempty"`
	Slots    []SlotV1 `json:"slots"`
}

type SlotV1 struct {
	Item   string `json:"item,omitempty"`
	Amount uint32 `json:"amount,omitempty"`
}

type BeltV1 struct {
	Slots [3]string `json:"slots"`
	Next  uint64    `json:"next,omitempty"`
}

type InserterV1 struct {
	Holding     SlotV1    `json:"holding"`
	Capacity    uint32    `json:"capacity"`
	Speed       float64   `json:"speed"`
	Epsilon     float64   `json:"epsilon"`
	Arm         float64   `json:"arm"`
	TargetArm   float64   `json:"target_arm"`
	PickupTile  [2]int    `json:"pickup_tile"`
	DropoffTile [2]int    `json:"dropoff_tile"`
	Action      *ActionV1 `json:"action,omitempty"`
}

type ActionV1 struct {
	HasPickup bool     `json:"has_pickup,omitempty"`
	Pickup    TargetV1 `json:"pickup"`
	Dropoff   TargetV1 `json:"dropoff"`
	Item      string   `json:"item"`
}

type TargetV1 struct {
	Kind      string `json:"kind"`
	Entity    uint64 `json:"entity"`
	Inventory string `json:"inventory,omitempty"`
}

type MinerV1 struct {
	Resource   string `json:"resource"`
	IntervalNs int64  `json:"interval_ns"`
	ElapsedNs  int64  `json:"elapsed_ns"`
	Dropoff    [2]int `json:"dropoff"`
}

type BurnerV1 struct {
	BurnNs      int64 `json:"burn_ns"`
	RemainingNs int64 `json:"remaining_ns"`
}

// CrafterV1 carries the recipes themselves so a snapshot resumes without
// recipes.json. Active is empty when idle.
type CrafterV1 struct {
	Recipes   []RecipeV1 `json:"recipes"`
	Active    string     `json:"active,omitempty"`
	ElapsedNs int64      `json:"elapsed_ns,omitempty"`
}

type RecipeV1 struct {
	Name        string   `json:"name"`
	TimeNs      int64    `json:"time_ns"`
	Ingredients []SlotV1 `json:"ingredients"`
	Products    []SlotV1 `json:"products"`
}

// WriteSnapshot writes a JSON header line followed by the gob body, all
// inside one zstd stream.
func WriteSnapshot(path string, snap SnapshotV1) (err error) {
	if snap.Header.Version == 0 {
		snap.Header.Version = Version
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The header line is for tools; gob carries it again.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("%w: %d", ErrVersion, snap.Header.Version)
	}
	return snap, nil
}

// ReadHeader decodes only the leading header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("header: %w", err)
	}
	return h, nil
}
