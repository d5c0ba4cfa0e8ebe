package indexdb

import "context"

type SnapshotInfo struct {
	Tick       uint64 `json:"tick"`
	Path       string `json:"path"`
	Digest     string `json:"digest"`
	Structures int    `json:"structures"`
	Belts      int    `json:"belts"`
	Inserters  int    `json:"inserters"`
	Miners     int    `json:"miners"`
	Items      uint64 `json:"items"`
}

type RunInfo struct {
	RunID     string `json:"run_id"`
	WorldID   string `json:"world_id"`
	StartTick uint64 `json:"start_tick"`
	StartedAt string `json:"started_at"`
}

type PlacementInfo struct {
	Tick      uint64 `json:"tick"`
	Entity    uint64 `json:"entity"`
	Structure string `json:"structure"`
	Pos       [2]int `json:"pos"`
	Facing    string `json:"facing"`
}

// Snapshots lists indexed snapshots, newest first.
func (s *SQLiteIndex) Snapshots(ctx context.Context, limit int) ([]SnapshotInfo, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT tick,path,digest,structures,belts,inserters,miners,items FROM snapshots ORDER BY tick DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SnapshotInfo
	for rows.Next() {
		var r SnapshotInfo
		var tick, items int64
		if err := rows.Scan(&tick, &r.Path, &r.Digest, &r.Structures, &r.Belts, &r.Inserters, &r.Miners, &items); err != nil {
			return nil, err
		}
		r.Tick, r.Items = uint64(tick), uint64(items)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Runs lists server runs in start order.
func (s *SQLiteIndex) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id,world_id,start_tick,started_at FROM runs ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RunInfo
	for rows.Next() {
		var r RunInfo
		var tick int64
		if err := rows.Scan(&r.RunID, &r.WorldID, &tick, &r.StartedAt); err != nil {
			return nil, err
		}
		r.StartTick = uint64(tick)
		out = append(out, r)
	}
	return out, rows.Err()
}

// PlacementsAt returns every structure ever anchored at (x, y), oldest first.
func (s *SQLiteIndex) PlacementsAt(ctx context.Context, x, y int) ([]PlacementInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tick,entity,structure,x,y,facing FROM placements WHERE x = ? AND y = ? ORDER BY tick, entity`, x, y)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PlacementInfo
	for rows.Next() {
		var r PlacementInfo
		var tick, entity int64
		if err := rows.Scan(&tick, &entity, &r.Structure, &r.Pos[0], &r.Pos[1], &r.Facing); err != nil {
			return nil, err
		}
		r.Tick, r.Entity = uint64(tick), uint64(entity)
		out = append(out, r)
	}
	return out, rows.Err()
}
