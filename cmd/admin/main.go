package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	persistlog "beltline.ai/internal/persistence/log"
	"beltline.ai/internal/persistence/snapshot"
	"beltline.ai/internal/sim/world"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "audit":
			auditCmd(os.Args[2:])
			return
		case "inspect":
			inspectCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (optional)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "worlds")
	if *worldID != "" {
		base = filepath.Join(base, *worldID)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Println(e.Name())
	}
}

// auditFilter selects audit entries; zero values match everything.
type auditFilter struct {
	SinceTick uint64
	ToTick    uint64
	Actor     string
	Action    string
	Item      string
}

func (f auditFilter) match(e world.AuditEntry) bool {
	if e.Tick < f.SinceTick {
		return false
	}
	if f.ToTick != 0 && e.Tick > f.ToTick {
		return false
	}
	if f.Actor != "" && e.Actor != f.Actor {
		return false
	}
	if f.Action != "" && !strings.EqualFold(e.Action, f.Action) {
		return false
	}
	if f.Item != "" && e.Item != f.Item {
		return false
	}
	return true
}

func auditCmd(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id")
	var f auditFilter
	fs.Uint64Var(&f.SinceTick, "since_tick", 0, "first tick (inclusive)")
	fs.Uint64Var(&f.ToTick, "to_tick", 0, "last tick (inclusive, optional)")
	fs.StringVar(&f.Actor, "actor", "", "entity id such as E12")
	fs.StringVar(&f.Action, "action", "", "PLACE, REMOVE, PICKUP, DROPOFF, ABORT, MINE, BURN, CONSUME, CRAFT or CONSERVATION")
	fs.StringVar(&f.Item, "item", "", "item id")
	summary := fs.Bool("summary", false, "print amount totals per action and item instead of entries")
	_ = fs.Parse(args)

	if strings.TrimSpace(*worldID) == "" {
		fmt.Fprintln(os.Stderr, "missing -world")
		os.Exit(2)
	}
	recs, err := readAudit(filepath.Join(*dataDir, "worlds", *worldID), f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read audit:", err)
		os.Exit(1)
	}
	if !*summary {
		for _, e := range recs {
			printJSON(e)
		}
		return
	}
	for _, line := range summarizeAudit(recs) {
		fmt.Println(line)
	}
}

func readAudit(worldDir string, f auditFilter) ([]world.AuditEntry, error) {
	files, err := persistlog.Files(filepath.Join(worldDir, "audit"), "audit")
	if err != nil {
		return nil, err
	}
	var out []world.AuditEntry
	for _, path := range files {
		if err := persistlog.Decode(path, func(e world.AuditEntry) error {
			if f.match(e) {
				out = append(out, e)
			}
			return nil
		}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// summarizeAudit renders "ACTION ITEM amount" lines sorted by action then item.
func summarizeAudit(recs []world.AuditEntry) []string {
	sums := map[string]uint64{}
	for _, e := range recs {
		sums[e.Action+" "+e.Item] += uint64(e.Amount)
	}
	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimSpace(k)+" "+strconv.FormatUint(sums[k], 10))
	}
	return out
}

func inspectCmd(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (used when -snapshot is empty)")
	snapPath := fs.String("snapshot", "", "snapshot path (optional; defaults to latest)")
	_ = fs.Parse(args)

	path := strings.TrimSpace(*snapPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -snapshot")
			os.Exit(2)
		}
		path = latestSnapshot(filepath.Join(*dataDir, "worlds", *worldID))
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "no snapshot found; provide -snapshot or run server until it writes one")
		os.Exit(2)
	}
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	printJSON(summarizeSnapshot(filepath.Base(path), snap))
}

type snapshotSummary struct {
	File       string            `json:"file"`
	WorldID    string            `json:"world_id"`
	Tick       uint64            `json:"tick"`
	Digest     string            `json:"digest"`
	Structures map[string]int    `json:"structures"`
	Items      map[string]uint64 `json:"items"`
}

func summarizeSnapshot(file string, snap snapshot.SnapshotV1) snapshotSummary {
	s := snapshotSummary{
		File:       file,
		WorldID:    snap.Header.WorldID,
		Tick:       snap.Header.Tick,
		Digest:     snap.Header.Digest,
		Structures: map[string]int{},
		Items:      map[string]uint64{},
	}
	for _, sv := range snap.Structures {
		s.Structures[sv.Def]++
		for _, iv := range sv.Inventories {
			for _, sl := range iv.Slots {
				if sl.Amount > 0 {
					s.Items[sl.Item] += uint64(sl.Amount)
				}
			}
		}
		if sv.Belt != nil {
			for _, it := range sv.Belt.Slots {
				if it != "" {
					s.Items[it]++
				}
			}
		}
		if sv.Inserter != nil && sv.Inserter.Holding.Amount > 0 {
			s.Items[sv.Inserter.Holding.Item] += uint64(sv.Inserter.Holding.Amount)
		}
	}
	return s
}

func latestSnapshot(worldDir string) string {
	dir := filepath.Join(worldDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		tick, err := strconv.ParseUint(strings.TrimSuffix(name, ".snap.zst"), 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}

func printJSON(v any) {
	b, _ := json.Marshal(v)
	fmt.Println(string(b))
}
