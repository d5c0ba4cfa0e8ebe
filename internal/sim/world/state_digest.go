package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"beltline.ai/internal/sim/logistics/belt"
	"beltline.ai/internal/sim/logistics/inserter"
)

// Digest is the state digest as of the last completed tick; it matches
// TickResult.Digest for that tick.
func (w *World) Digest() string {
	return w.stateDigest(w.lastTick())
}

// stateDigest hashes every piece of logistics state in entity order. Two
// worlds with equal digests at the same tick evolve identically.
func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)
	digestWriteU64(h, &tmp, w.nextID)
	digestWriteI64(h, &tmp, int64(w.belts.Timer().Elapsed))

	for _, id := range w.sortedIDs() {
		s := w.structures[id]
		digestWriteU64(h, &tmp, uint64(id))
		digestWriteString(h, &tmp, s.def)
		digestWriteI64(h, &tmp, int64(s.pos.X))
		digestWriteI64(h, &tmp, int64(s.pos.Y))
		digestWriteU64(h, &tmp, uint64(s.rot.Index()))

		for _, kind := range inventoryOrder {
			inv := s.inventories[kind]
			if inv == nil {
				continue
			}
			digestWriteU64(h, &tmp, uint64(kind))
			digestWriteU64(h, &tmp, uint64(inv.Len()))
			for i := 0; i < inv.Len(); i++ {
				st, _ := inv.Slot(i)
				digestWriteString(h, &tmp, string(st.Item))
				digestWriteU64(h, &tmp, uint64(st.Amount))
			}
		}
		if b := w.Belt(id); b != nil {
			digestBelt(h, &tmp, b)
		}
		if s.inserter != nil {
			digestInserter(h, &tmp, s.inserter.State())
		}
		if s.miner != nil {
			digestWriteI64(h, &tmp, int64(s.miner.Timer().Elapsed))
		}
		if s.burner != nil {
			digestWriteI64(h, &tmp, int64(s.burner.Remaining()))
		}
		if s.crafter != nil {
			r, elapsed, _ := s.crafter.Active()
			digestWriteString(h, &tmp, r.Name)
			digestWriteI64(h, &tmp, int64(elapsed))
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}

func digestBelt(h hashWriter, tmp *[8]byte, b *belt.TransportBelt) {
	for _, it := range b.Slots() {
		digestWriteString(h, tmp, string(it))
	}
	next, _ := b.Next()
	digestWriteU64(h, tmp, uint64(next))
}

func digestInserter(h hashWriter, tmp *[8]byte, st inserter.State) {
	if st.Holding != nil {
		digestWriteString(h, tmp, string(st.Holding.Item))
		digestWriteU64(h, tmp, uint64(st.Holding.Amount))
	} else {
		digestWriteU64(h, tmp, 0)
	}
	digestWriteU64(h, tmp, math.Float64bits(st.Arm))
	digestWriteU64(h, tmp, math.Float64bits(st.TargetArm))
	if st.Action == nil {
		h.Write([]byte{0})
		return
	}
	h.Write([]byte{1})
	if p := st.Action.Pickup; p != nil {
		digestTarget(h, tmp, *p)
	} else {
		digestWriteU64(h, tmp, 0)
	}
	digestTarget(h, tmp, st.Action.Dropoff)
	digestWriteString(h, tmp, string(st.Action.Item))
}

func digestTarget(h hashWriter, tmp *[8]byte, t inserter.Target) {
	h.Write([]byte{byte(t.Kind), byte(t.Inventory)})
	digestWriteU64(h, tmp, uint64(t.Entity))
}

// digestWriteString is length-prefixed so adjacent strings cannot collide.
func digestWriteString(h hashWriter, tmp *[8]byte, s string) {
	digestWriteU64(h, tmp, uint64(len(s)))
	h.Write([]byte(s))
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

type hashWriter interface {
	Write(p []byte) (n int, err error)
}
