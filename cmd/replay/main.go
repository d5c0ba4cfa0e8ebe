package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	persistlog "beltline.ai/internal/persistence/log"
	"beltline.ai/internal/persistence/snapshot"
	"beltline.ai/internal/runtimeprof"
	"beltline.ai/internal/sim/catalogs"
	"beltline.ai/internal/sim/logistics/model"
	"beltline.ai/internal/sim/logistics/rotation"
	"beltline.ai/internal/sim/tuning"
	"beltline.ai/internal/sim/world"
)

func main() {
	var (
		snapPath  = flag.String("snapshot", "", "path to .snap.zst (optional; empty replays from tick 0)")
		eventsDir = flag.String("events", "", "events dir containing events-*.jsonl.zst (optional)")
		configDir = flag.String("configs", "./configs", "config directory")
		worldID   = flag.String("world", "world_1", "world id for a replay from tick 0")
		ticks     = flag.Uint64("ticks", 0, "without -events: step this many empty ticks and print totals")
		fromTick  = flag.Uint64("from_tick", 0, "start verifying from tick (inclusive, optional)")
		toTick    = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
		profKind  = flag.String("profile", "", "write a runtime profile on exit to the current dir")
	)
	flag.Parse()

	stopProfile, err := runtimeprof.Start(*profKind, ".")
	if err != nil {
		fail(2, "profile:", err)
	}
	defer stopProfile()

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fail(1, "load catalogs:", err)
	}

	cfg := world.ConfigFromTuning(*worldID, tuning.Defaults())
	cfg.Strict = true
	var snap *snapshot.SnapshotV1
	if *snapPath != "" {
		s, err := snapshot.ReadSnapshot(*snapPath)
		if err != nil {
			fail(1, "read snapshot:", err)
		}
		snap = &s
		cfg.ID = s.Header.WorldID
		fmt.Printf("snapshot v%d world=%s tick=%d structures=%d digest=%s\n",
			s.Header.Version, s.Header.WorldID, s.Header.Tick, len(s.Structures), s.Header.Digest)
	}

	w, err := world.New(cfg, cats)
	if err != nil {
		fail(1, "world:", err)
	}
	if snap != nil {
		if err := w.ImportSnapshot(*snap); err != nil {
			fail(1, "import snapshot:", err)
		}
	}

	if *eventsDir == "" {
		for i := uint64(0); i < *ticks; i++ {
			if _, err := w.StepOnce(nil, nil); err != nil {
				fail(1, "step:", err)
			}
		}
		fmt.Printf("tick=%d digest=%s\n", w.CurrentTick(), w.Digest())
		printTotals(w)
		return
	}

	files, err := persistlog.Files(*eventsDir, "events")
	if err != nil {
		fail(1, "list events:", err)
	}
	if len(files) == 0 {
		fail(1, "no events files found in", *eventsDir)
	}

	r := newReplayer(w, *fromTick, *toTick)
	for _, path := range files {
		err := persistlog.Decode(path, r.Apply)
		if errors.Is(err, errReplayDone) {
			break
		}
		if err != nil {
			fail(1, "replay "+filepath.Base(path)+":", err)
		}
	}
	startTick := uint64(0)
	if snap != nil {
		startTick = snap.Header.Tick
	}
	fmt.Printf("replay ok: checked=%d ticks (from tick=%d) digest=%s\n", r.checked, startTick, w.Digest())
	printTotals(w)
}

var errReplayDone = errors.New("replay: reached to_tick")

// replayer re-issues logged placements and removals tick by tick and checks
// each resulting digest against the log.
type replayer struct {
	w          *world.World
	startTick  uint64
	verifyFrom uint64
	toTick     uint64
	checked    uint64
}

func newReplayer(w *world.World, fromTick, toTick uint64) *replayer {
	start := w.CurrentTick()
	if fromTick == 0 {
		fromTick = start
	}
	return &replayer{w: w, startTick: start, verifyFrom: fromTick, toTick: toTick}
}

func (r *replayer) Apply(entry world.TickLogEntry) error {
	if entry.Tick < r.startTick {
		return nil
	}
	if r.toTick != 0 && entry.Tick > r.toTick {
		return errReplayDone
	}
	if entry.Tick != r.w.CurrentTick() {
		return fmt.Errorf("tick mismatch: want=%d got=%d", r.w.CurrentTick(), entry.Tick)
	}

	removes := make([]world.RemoveRequest, 0, len(entry.Removed))
	for _, id := range entry.Removed {
		removes = append(removes, world.RemoveRequest{Entity: id})
	}
	places := make([]world.PlaceRequest, 0, len(entry.Placed))
	for _, p := range entry.Placed {
		facing, ok := rotation.ParseCompass(p.Facing)
		if !ok {
			return fmt.Errorf("tick %d: entity %s: bad facing %q", entry.Tick, p.Entity, p.Facing)
		}
		places = append(places, world.PlaceRequest{
			Structure: p.Structure,
			Pos:       model.TilePos{X: p.Pos[0], Y: p.Pos[1]},
			Facing:    facing,
			Resource:  model.Item(p.Resource),
			Recipe:    p.Recipe,
			Items:     p.Items,
		})
	}

	res, err := r.w.StepOnce(places, removes)
	if err != nil {
		return fmt.Errorf("tick %d: %w", entry.Tick, err)
	}
	if len(res.Placed) != len(entry.Placed) {
		return fmt.Errorf("tick %d: placed %d structures, log has %d", entry.Tick, len(res.Placed), len(entry.Placed))
	}
	for i, id := range res.Placed {
		if id != entry.Placed[i].Entity {
			return fmt.Errorf("tick %d: placement %d got id %s, log has %s", entry.Tick, i, id, entry.Placed[i].Entity)
		}
	}
	if res.Tick >= r.verifyFrom {
		r.checked++
		if res.Digest != entry.Digest {
			return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", res.Tick, res.Digest, entry.Digest)
		}
	}
	return nil
}

func printTotals(w *world.World) {
	totals := w.Totals()
	items := make([]string, 0, len(totals))
	for it := range totals {
		items = append(items, string(it))
	}
	sort.Strings(items)
	for _, it := range items {
		fmt.Printf("  %-16s %d\n", it, totals[model.Item(it)])
	}
}

func fail(code int, args ...any) {
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(code)
}
