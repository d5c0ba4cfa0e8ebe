package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"beltline.ai/internal/persistence/indexdb"
	"beltline.ai/internal/sim/world"
)

func TestLatestSnapshot_PicksHighestTick(t *testing.T) {
	worldDir := t.TempDir()
	dir := filepath.Join(worldDir, "snapshots")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"900.snap.zst", "12000.snap.zst", "3000.snap.zst", "junk.snap.zst", "99999.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if got := latestSnapshot(worldDir); filepath.Base(got) != "12000.snap.zst" {
		t.Fatalf("latest=%q", got)
	}
	if got := latestSnapshot(t.TempDir()); got != "" {
		t.Fatalf("empty dir gave %q", got)
	}
}

type recordingLogger struct {
	ticks  []uint64
	audits []string
}

func (r *recordingLogger) WriteTick(e world.TickLogEntry) error {
	r.ticks = append(r.ticks, e.Tick)
	return nil
}

func (r *recordingLogger) WriteAudit(e world.AuditEntry) error {
	r.audits = append(r.audits, e.Action)
	return errors.New("ignored")
}

func TestMultiLoggers_FanOutAndSkipNil(t *testing.T) {
	a, b := &recordingLogger{}, &recordingLogger{}
	_ = multiTickLogger{a: a, b: b}.WriteTick(world.TickLogEntry{Tick: 7})
	_ = multiTickLogger{a: a}.WriteTick(world.TickLogEntry{Tick: 8})
	if len(a.ticks) != 2 || len(b.ticks) != 1 {
		t.Fatalf("ticks a=%v b=%v", a.ticks, b.ticks)
	}
	if err := (multiAuditLogger{a: a, b: b}).WriteAudit(world.AuditEntry{Action: "PICKUP"}); err != nil {
		t.Fatalf("fan-out should swallow sink errors: %v", err)
	}
	if len(b.audits) != 1 || b.audits[0] != "PICKUP" {
		t.Fatalf("audits=%v", b.audits)
	}
}

type fakeRequester struct {
	tick uint64
	err  error
}

func (f fakeRequester) RequestSnapshot(ctx context.Context) (uint64, error) { return f.tick, f.err }

func TestAdminSnapshotHandler(t *testing.T) {
	h := adminSnapshotHandler(fakeRequester{tick: 41})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/admin/v1/snapshot", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET status=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/v1/snapshot", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	h(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("remote status=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/admin/v1/snapshot", nil)
	req.RemoteAddr = "127.0.0.1:4000"
	h(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"tick":41`) {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/admin/v1/snapshot", nil)
	req.RemoteAddr = "[::1]:4000"
	adminSnapshotHandler(fakeRequester{err: errors.New("snapshot sink backpressure")})(rec, req)
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "backpressure") {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestWriteMetrics(t *testing.T) {
	var sb strings.Builder
	writeWorldMetrics(&sb, "w1", 3, world.WorldMetrics{
		Tick:       10,
		Structures: 4,
		Belts:      2,
		Items:      []world.ItemTotal{{Item: "IRON_PLATE", Amount: 5}},
	})
	writeIndexMetrics(&sb, "w1", indexdb.Stats{DropAuditTotal: 2, QueueCapacity: 64})
	out := sb.String()
	for _, want := range []string{
		`beltline_world_tick{world="w1"} 10`,
		`beltline_world_entities{world="w1",kind="belt"} 2`,
		`beltline_items{world="w1",item="IRON_PLATE"} 5`,
		`beltline_index_dropped_total{world="w1",kind="audit"} 2`,
		`beltline_index_queue_capacity{world="w1"} 64`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestOpenRuntimeIndex_Backends(t *testing.T) {
	idx, err := openRuntimeIndex(t.TempDir(), true)
	if err != nil || idx != nil {
		t.Fatalf("disabled: idx=%v err=%v", idx, err)
	}

	t.Setenv("BL_INDEX_BACKEND", "none")
	if idx, err := openRuntimeIndex(t.TempDir(), false); err != nil || idx != nil {
		t.Fatalf("none: idx=%v err=%v", idx, err)
	}

	t.Setenv("BL_INDEX_BACKEND", "postgres")
	if _, err := openRuntimeIndex(t.TempDir(), false); err == nil {
		t.Fatalf("expected unsupported backend error")
	}

	t.Setenv("BL_INDEX_BACKEND", "sqlite")
	idx, err = openRuntimeIndex(t.TempDir(), false)
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
