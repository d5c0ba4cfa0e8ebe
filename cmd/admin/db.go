package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"beltline.ai/internal/persistence/indexdb"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	limit := fs.Int("limit", 20, "result limit (snapshots)")
	item := fs.String("item", "", "item id (flow)")
	fromTick := fs.Uint64("from_tick", 0, "first tick (flow)")
	toTick := fs.Uint64("to_tick", 0, "last tick (flow; defaults to latest snapshot)")
	x := fs.Int("x", 0, "tile x (at)")
	y := fs.Int("y", 0, "tile y (at)")
	_ = fs.Parse(args)

	q := "snapshots"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "worlds", *worldID, "index", "world.sqlite")
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}

	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer idx.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := runQuery(ctx, idx, q, dbQuery{Limit: *limit, Item: *item, FromTick: *fromTick, ToTick: *toTick, X: *x, Y: *y}); err != nil {
		fmt.Fprintln(os.Stderr, q+":", err)
		os.Exit(1)
	}
}

type dbQuery struct {
	Limit            int
	Item             string
	FromTick, ToTick uint64
	X, Y             int
}

func runQuery(ctx context.Context, idx *indexdb.SQLiteIndex, q string, p dbQuery) error {
	switch q {
	case "snapshots":
		rows, err := idx.Snapshots(ctx, p.Limit)
		if err != nil {
			return err
		}
		for _, r := range rows {
			printJSON(r)
		}

	case "runs":
		rows, err := idx.Runs(ctx)
		if err != nil {
			return err
		}
		for _, r := range rows {
			printJSON(r)
		}

	case "at":
		rows, err := idx.PlacementsAt(ctx, p.X, p.Y)
		if err != nil {
			return err
		}
		for _, r := range rows {
			printJSON(r)
		}

	case "flow":
		if p.Item == "" {
			return fmt.Errorf("missing -item")
		}
		to := p.ToTick
		if to == 0 {
			lt, _, ok, err := idx.LatestSnapshot(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no snapshots indexed; pass -to_tick")
			}
			to = lt
		}
		flow, err := idx.ItemFlow(ctx, p.Item, p.FromTick, to)
		if err != nil {
			return err
		}
		actions := make([]string, 0, len(flow))
		for a := range flow {
			actions = append(actions, a)
		}
		sort.Strings(actions)
		for _, a := range actions {
			printJSON(struct {
				Item     string `json:"item"`
				Action   string `json:"action"`
				Amount   uint64 `json:"amount"`
				FromTick uint64 `json:"from_tick"`
				ToTick   uint64 `json:"to_tick"`
			}{p.Item, a, flow[a], p.FromTick, to})
		}

	default:
		return fmt.Errorf("unknown query (want snapshots, runs, at or flow)")
	}
	return nil
}
