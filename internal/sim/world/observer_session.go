package world

import (
	"encoding/json"
)

type observerClient struct {
	id    string
	out   chan []byte
	every int
}

func (w *World) handleObserverJoin(req ObserverJoinRequest) {
	if w == nil || req.SessionID == "" || req.Out == nil {
		return
	}

	// Replace existing session id if any.
	if old := w.observers[req.SessionID]; old != nil {
		close(old.out)
	}
	w.observers[req.SessionID] = &observerClient{
		id:    req.SessionID,
		out:   req.Out,
		every: clampEvery(req.EveryTicks, 0),
	}
}

func (w *World) handleObserverSubscribe(req ObserverSubscribeRequest) {
	c := w.observers[req.SessionID]
	if c == nil {
		return
	}
	c.every = clampEvery(req.EveryTicks, c.every)
}

func (w *World) handleObserverLeave(sessionID string) {
	if sessionID == "" {
		return
	}
	c := w.observers[sessionID]
	if c == nil {
		return
	}
	delete(w.observers, sessionID)
	close(c.out)
}

// broadcastObservers sends the frame for nowTick to every session due on
// this tick. The frame is built at most once per tick.
func (w *World) broadcastObservers(nowTick uint64) {
	if len(w.observers) == 0 {
		return
	}
	var b []byte
	for _, c := range w.observers {
		every := c.every
		if every <= 0 {
			every = w.cfg.ObserverEveryTicks
		}
		if every > 1 && nowTick%uint64(every) != 0 {
			continue
		}
		if b == nil {
			f := w.frame(nowTick)
			var err error
			if b, err = json.Marshal(f); err != nil {
				return
			}
		}
		sendLatest(c.out, b)
	}
}

// clampEvery keeps a requested stride within [1, 600]; 0 or negative keeps def.
func clampEvery(v, def int) int {
	if v <= 0 {
		return def
	}
	if v > 600 {
		return 600
	}
	return v
}
