package world

import (
	"context"
	"fmt"
	"time"

	"beltline.ai/internal/sim/logistics/inserter"
	"beltline.ai/internal/sim/logistics/model"
)

func (w *World) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.TickDuration())
	defer ticker.Stop()

	var pendingPlaces []PlaceRequest
	var pendingRemoves []RemoveRequest
	var pendingAdmin []adminSnapshotReq

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.place:
			pendingPlaces = append(pendingPlaces, req)
		case req := <-w.remove:
			pendingRemoves = append(pendingRemoves, req)
		case req := <-w.observerJoin:
			w.handleObserverJoin(req)
		case req := <-w.observerSub:
			w.handleObserverSubscribe(req)
		case id := <-w.observerLeave:
			w.handleObserverLeave(id)
		case req := <-w.admin:
			pendingAdmin = append(pendingAdmin, req)
		case <-ticker.C:
			_, err := w.stepInternal(w.cfg.TickDuration(), pendingPlaces, pendingRemoves)
			w.handleAdminSnapshotRequests(pendingAdmin)
			pendingPlaces = pendingPlaces[:0]
			pendingRemoves = pendingRemoves[:0]
			pendingAdmin = pendingAdmin[:0]
			if err != nil {
				return err
			}
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// Step advances one tick of dt with no queued mutations.
func (w *World) Step(dt time.Duration) (TickResult, error) {
	return w.stepInternal(dt, nil, nil)
}

// StepOnce advances the world by a single tick using the same ordering semantics as the server.
// It is primarily intended for deterministic replays/tests.
func (w *World) StepOnce(places []PlaceRequest, removes []RemoveRequest) (TickResult, error) {
	return w.stepInternal(w.cfg.TickDuration(), places, removes)
}

// stepInternal runs the fixed phase order: structural mutations, belts,
// inserter planning, inserter execution, production, then digest and
// outputs. Only phase 0 adds or removes entities.
func (w *World) stepInternal(dt time.Duration, places []PlaceRequest, removes []RemoveRequest) (TickResult, error) {
	start := time.Now()
	nowTick := w.tick.Load()
	res := TickResult{Tick: nowTick}

	// Phase 0: removals before placements so a freed tile can be reused.
	var recordedPlaces []RecordedPlace
	for _, req := range removes {
		items, err := w.applyRemove(req.Entity, nowTick)
		if err == nil {
			res.Removed = append(res.Removed, req.Entity)
		}
		if req.Resp != nil {
			select {
			case req.Resp <- RemoveResult{Items: items, Code: ErrorCode(err), Err: err}:
			default:
				// Caller gave up; don't block the sim loop.
			}
		}
	}
	for _, req := range places {
		id, err := w.applyPlace(req, nowTick)
		if err == nil {
			res.Placed = append(res.Placed, id)
			recordedPlaces = append(recordedPlaces, RecordedPlace{
				Entity:    id,
				Structure: req.Structure,
				Pos:       req.Pos.ToArray(),
				Facing:    req.Facing.String(),
				Resource:  string(req.Resource),
				Recipe:    req.Recipe,
				Items:     req.Items,
			})
		}
		if req.Resp != nil {
			select {
			case req.Resp <- PlaceResult{Entity: id, Code: ErrorCode(err), Err: err}:
			default:
			}
		}
	}

	before := w.Totals()

	// Phase 1: belts.
	res.Moved = w.belts.Step(dt)

	// Phase 2: every inserter plans against the same state.
	res.Replanned = inserter.PlanAll(w.inserterList(), w)

	// Phase 3: execution in entity order.
	transfers := 0
	for _, id := range w.inserters {
		s := w.structures[id]
		ev, ok := s.inserter.Execute(w, dt)
		if !ok {
			continue
		}
		if ev.Kind != inserter.EventAbort {
			transfers++
		}
		w.audit(AuditEntry{
			Tick:   nowTick,
			Actor:  id.String(),
			Action: ev.Kind.String(),
			Pos:    s.pos.ToArray(),
			Target: ev.Target.String(),
			Item:   string(ev.Stack.Item),
			Amount: ev.Stack.Amount,
		})
	}

	// Phase 4: production. Miners first, then crafters, each in entity
	// order and only while powered.
	produced := map[model.Item]uint64{}
	consumed := map[model.Item]uint64{}
	for _, id := range w.miners {
		s := w.structures[id]
		if !w.powered(s, nowTick, consumed, &res) {
			s.miner.Halt()
			continue
		}
		p, ok := s.miner.Tick(w, dt)
		if s.burner != nil && s.miner.Working() {
			s.burner.Burn(dt)
		}
		if !ok {
			continue
		}
		produced[s.miner.Resource()]++
		res.Produced++
		target := fmt.Sprintf("INVENTORY:%s/%s", p.Entity, p.Kind)
		if p.Belt {
			target = fmt.Sprintf("BELT:%s", p.Entity)
		}
		w.audit(AuditEntry{
			Tick:   nowTick,
			Actor:  id.String(),
			Action: "MINE",
			Pos:    s.pos.ToArray(),
			Target: target,
			Item:   string(s.miner.Resource()),
			Amount: 1,
		})
	}
	for _, id := range w.crafters {
		s := w.structures[id]
		if !w.powered(s, nowTick, consumed, &res) {
			continue
		}
		cr := s.crafter.Tick(s.inventories[model.KindSource], s.inventories[model.KindOutput], dt)
		if s.burner != nil && cr.Busy {
			s.burner.Burn(dt)
		}
		for _, ic := range cr.Consumed {
			consumed[ic.Item] += uint64(ic.Amount)
			res.Consumed += int(ic.Amount)
			w.audit(AuditEntry{
				Tick:   nowTick,
				Actor:  id.String(),
				Action: "CONSUME",
				Pos:    s.pos.ToArray(),
				Target: cr.Started,
				Item:   string(ic.Item),
				Amount: ic.Amount,
			})
		}
		for _, ic := range cr.Produced {
			produced[ic.Item] += uint64(ic.Amount)
			res.Produced += int(ic.Amount)
			w.audit(AuditEntry{
				Tick:   nowTick,
				Actor:  id.String(),
				Action: "CRAFT",
				Pos:    s.pos.ToArray(),
				Target: cr.Finished,
				Item:   string(ic.Item),
				Amount: ic.Amount,
			})
		}
	}

	consErr := w.CheckConservation(before, produced, consumed)
	if consErr != nil && !w.cfg.Strict {
		w.audit(AuditEntry{Tick: nowTick, Actor: "WORLD", Action: "CONSERVATION", Reason: consErr.Error()})
	}

	// Phase 5: digest and outputs.
	res.Digest = w.stateDigest(nowTick)
	if w.tickLogger != nil {
		_ = w.tickLogger.WriteTick(TickLogEntry{
			Tick:      nowTick,
			Placed:    recordedPlaces,
			Removed:   res.Removed,
			Moved:     res.Moved,
			Replanned: res.Replanned,
			Transfers: transfers,
			Produced:  res.Produced,
			Consumed:  res.Consumed,
			Digest:    res.Digest,
		})
	}
	w.broadcastObservers(nowTick)

	if w.snapshotSink != nil && w.cfg.SnapshotEveryTicks > 0 && nowTick != 0 && nowTick%uint64(w.cfg.SnapshotEveryTicks) == 0 {
		snap := w.ExportSnapshot(nowTick)
		select {
		case w.snapshotSink <- snap:
		default:
			// Drop snapshot if sink is backed up.
		}
	}

	res.Audits = w.audits
	w.audits = nil
	w.publishMetrics(nowTick, res, transfers, time.Since(start))
	w.tick.Add(1)

	if consErr != nil && w.cfg.Strict {
		return res, consErr
	}
	return res, nil
}

func (w *World) audit(e AuditEntry) {
	w.audits = append(w.audits, e)
	if w.auditLogger != nil {
		_ = w.auditLogger.WriteAudit(e)
	}
}

// CheckConservation compares current totals with before plus what was
// produced and minus what was consumed in between. Any other difference
// means a transfer created or destroyed items.
func (w *World) CheckConservation(before, produced, consumed map[model.Item]uint64) error {
	after := w.Totals()
	seen := map[model.Item]bool{}
	for _, m := range []map[model.Item]uint64{before, after, produced, consumed} {
		for it := range m {
			seen[it] = true
		}
	}
	var items []model.Item
	for it := range seen {
		items = append(items, it)
	}
	for _, it := range model.SortItems(items) {
		if got, want := after[it]+consumed[it], before[it]+produced[it]; got != want {
			return fmt.Errorf("%w: %s before %d produced %d consumed %d after %d", ErrConservation, it, before[it], produced[it], consumed[it], after[it])
		}
	}
	return nil
}

// powered reports whether s may run this tick, feeding its burner one unit
// of fuel when it has gone cold. Structures without a burner always run.
func (w *World) powered(s *structure, nowTick uint64, consumed map[model.Item]uint64, res *TickResult) bool {
	if s.burner == nil {
		return true
	}
	if item, ok := s.burner.Refuel(s.inventories[model.KindFuel]); ok {
		consumed[item]++
		res.Consumed++
		w.audit(AuditEntry{
			Tick:   nowTick,
			Actor:  s.id.String(),
			Action: "BURN",
			Pos:    s.pos.ToArray(),
			Target: fmt.Sprintf("INVENTORY:%s/%s", s.id, model.KindFuel),
			Item:   string(item),
			Amount: 1,
		})
	}
	return s.burner.Powered()
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
