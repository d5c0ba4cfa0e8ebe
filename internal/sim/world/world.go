package world

import (
	"errors"
	"sort"
	"sync/atomic"

	"beltline.ai/internal/persistence/snapshot"
	"beltline.ai/internal/protocol"
	"beltline.ai/internal/sim/catalogs"
	"beltline.ai/internal/sim/logistics/belt"
	"beltline.ai/internal/sim/logistics/burner"
	"beltline.ai/internal/sim/logistics/crafter"
	"beltline.ai/internal/sim/logistics/inserter"
	"beltline.ai/internal/sim/logistics/inventory"
	"beltline.ai/internal/sim/logistics/miner"
	"beltline.ai/internal/sim/logistics/model"
	"beltline.ai/internal/sim/logistics/rotation"
)

// inventoryOrder fixes iteration over a structure's inventories wherever
// the result must be deterministic.
var inventoryOrder = [...]model.InventoryKind{model.KindStorage, model.KindFuel, model.KindSource, model.KindOutput}

// structure is one placed entity. Belts live in the belt network under the
// same id; the other behaviours hang off the structure itself.
type structure struct {
	id   model.EntityID
	def  string
	pos  model.TilePos
	w, h int
	rot  rotation.DiscreteRotation

	inventories map[model.InventoryKind]*inventory.Inventory
	belt        bool
	inserter    *inserter.Inserter
	miner       *miner.Miner
	crafter     *crafter.Crafter

	// burner gates the miner or crafter; nil means always powered.
	burner *burner.Burner
}

func (s *structure) tiles() []model.TilePos {
	out := make([]model.TilePos, 0, s.w*s.h)
	for dy := 0; dy < s.h; dy++ {
		for dx := 0; dx < s.w; dx++ {
			out = append(out, s.pos.Add(dx, dy))
		}
	}
	return out
}

// World is a single-threaded authoritative simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg      WorldConfig
	catalogs *catalogs.Catalogs

	tick   atomic.Uint64
	nextID uint64

	structures map[model.EntityID]*structure
	tiles      map[model.TilePos]model.EntityID
	belts      *belt.Network
	inserters  []model.EntityID
	miners     []model.EntityID
	crafters   []model.EntityID

	place         chan PlaceRequest
	remove        chan RemoveRequest
	observerJoin  chan ObserverJoinRequest
	observerSub   chan ObserverSubscribeRequest
	observerLeave chan string
	admin         chan adminSnapshotReq
	stop          chan struct{}

	observers map[string]*observerClient

	// Audits raised since the last Step; PlaceNow between ticks lands here too.
	audits []AuditEntry

	// Optional loggers (may be nil). Implemented in internal/persistence/*.
	tickLogger  TickLogger
	auditLogger AuditLogger

	// Optional snapshot sink (may be nil). Snapshot writing should be off-thread.
	snapshotSink chan<- snapshot.SnapshotV1

	metrics        atomic.Value // WorldMetrics
	transfersTotal uint64
	producedTotal  uint64
	consumedTotal  uint64
}

func New(cfg WorldConfig, cats *catalogs.Catalogs) (*World, error) {
	if cats == nil {
		return nil, errors.New("world: nil catalogs")
	}
	cfg.applyDefaults()
	return &World{
		cfg:           cfg,
		catalogs:      cats,
		structures:    map[model.EntityID]*structure{},
		tiles:         map[model.TilePos]model.EntityID{},
		belts:         belt.NewNetwork(cfg.BeltInterval),
		place:         make(chan PlaceRequest, 256),
		remove:        make(chan RemoveRequest, 256),
		observerJoin:  make(chan ObserverJoinRequest, 16),
		observerSub:   make(chan ObserverSubscribeRequest, 16),
		observerLeave: make(chan string, 16),
		admin:         make(chan adminSnapshotReq, 4),
		stop:          make(chan struct{}),
		observers:     map[string]*observerClient{},
	}, nil
}

func (w *World) SetTickLogger(l TickLogger)                    { w.tickLogger = l }
func (w *World) SetAuditLogger(l AuditLogger)                  { w.auditLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }

func (w *World) Place() chan<- PlaceRequest                         { return w.place }
func (w *World) Remove() chan<- RemoveRequest                       { return w.remove }
func (w *World) ObserverJoin() chan<- ObserverJoinRequest           { return w.observerJoin }
func (w *World) ObserverSubscribe() chan<- ObserverSubscribeRequest { return w.observerSub }
func (w *World) ObserverLeave() chan<- string                       { return w.observerLeave }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

func (w *World) Config() WorldConfig { return w.cfg }

func (w *World) ItemPalette() []string {
	return append([]string(nil), w.catalogs.Items.Palette...)
}

func (w *World) StructureIDs() []string {
	return append([]string(nil), w.catalogs.Structures.IDs...)
}

// CatalogDigests identifies the catalogs this world was built from.
func (w *World) CatalogDigests() protocol.CatalogDigests {
	return protocol.CatalogDigests{
		ItemPalette: protocol.PaletteInfo{
			Digest: w.catalogs.Items.PaletteDigest,
			Count:  len(w.catalogs.Items.Palette),
		},
		StructuresDigest: w.catalogs.Structures.Digest,
		Structures:       w.StructureIDs(),
	}
}

// Occupants, Inventory and Belt make the world the Lookup for inserters,
// miners and drop helpers. A tile holds at most one structure.
func (w *World) Occupants(tile model.TilePos) []model.EntityID {
	if id, ok := w.tiles[tile]; ok {
		return []model.EntityID{id}
	}
	return nil
}

func (w *World) Inventory(id model.EntityID, kind model.InventoryKind) *inventory.Inventory {
	s := w.structures[id]
	if s == nil {
		return nil
	}
	return s.inventories[kind]
}

func (w *World) Belt(id model.EntityID) *belt.TransportBelt {
	b, _ := w.belts.Get(id)
	return b
}

func (w *World) Inserter(id model.EntityID) *inserter.Inserter {
	if s := w.structures[id]; s != nil {
		return s.inserter
	}
	return nil
}

func (w *World) Miner(id model.EntityID) *miner.Miner {
	if s := w.structures[id]; s != nil {
		return s.miner
	}
	return nil
}

func (w *World) Crafter(id model.EntityID) *crafter.Crafter {
	if s := w.structures[id]; s != nil {
		return s.crafter
	}
	return nil
}

func (w *World) Burner(id model.EntityID) *burner.Burner {
	if s := w.structures[id]; s != nil {
		return s.burner
	}
	return nil
}

// EntityAt returns the structure covering tile.
func (w *World) EntityAt(tile model.TilePos) (model.EntityID, bool) {
	id, ok := w.tiles[tile]
	return id, ok
}

// Lanes returns the lanes built by the most recent belt phase.
func (w *World) Lanes() []belt.Lane { return w.belts.Lanes() }

func (w *World) EntityCount() int { return len(w.structures) }

func (w *World) sortedIDs() []model.EntityID {
	ids := make([]model.EntityID, 0, len(w.structures))
	for id := range w.structures {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (w *World) inserterList() []*inserter.Inserter {
	out := make([]*inserter.Inserter, 0, len(w.inserters))
	for _, id := range w.inserters {
		out = append(out, w.structures[id].inserter)
	}
	return out
}

// Totals counts every item in the simulation: inventories, belts and
// inserter hands. Ingredients inside a running craft are already consumed
// and do not count.
func (w *World) Totals() map[model.Item]uint64 {
	out := w.belts.Totals()
	for _, s := range w.structures {
		for _, inv := range s.inventories {
			for it, n := range inv.Totals() {
				out[it] += n
			}
		}
		if s.inserter != nil {
			if h, ok := s.inserter.Holding(); ok {
				out[h.Item] += uint64(h.Amount)
			}
		}
	}
	return out
}
