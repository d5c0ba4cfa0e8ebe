package world

import (
	"errors"

	"beltline.ai/internal/sim/logistics/model"
	"beltline.ai/internal/sim/logistics/rotation"
)

var (
	ErrTileOccupied     = errors.New("tile occupied")
	ErrUnknownStructure = errors.New("unknown structure")
	ErrUnknownEntity    = errors.New("unknown entity")
	ErrNoSpace          = errors.New("initial contents do not fit")
	ErrUnknownRecipe    = errors.New("unknown recipe")
	ErrConservation     = errors.New("item totals changed outside production and consumption")
)

// Result codes reported alongside placement and removal errors.
const (
	CodeUnknownStructure = "E_UNKNOWN_STRUCTURE"
	CodeOccupied         = "E_OCCUPIED"
	CodeBadRotation      = "E_BAD_ROTATION"
	CodeUnknownEntity    = "E_UNKNOWN_ENTITY"
	CodeNoSpace          = "E_NO_SPACE"
	CodeBadRequest       = "E_BAD_REQUEST"
)

// ErrorCode maps a placement or removal error to its result code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownStructure):
		return CodeUnknownStructure
	case errors.Is(err, ErrTileOccupied):
		return CodeOccupied
	case errors.Is(err, rotation.ErrInvalidDirection), errors.Is(err, rotation.ErrInvalidSideCount):
		return CodeBadRotation
	case errors.Is(err, ErrUnknownEntity):
		return CodeUnknownEntity
	case errors.Is(err, ErrNoSpace):
		return CodeNoSpace
	default:
		return CodeBadRequest
	}
}

// PlaceRequest asks for a structure at Pos. Resource overrides a miner's
// default resource and Recipe an assembler's; on a smelter Recipe pins one
// recipe of its category. Items are granted into the new structure's first
// inventory that takes all of them.
type PlaceRequest struct {
	Structure string
	Pos       model.TilePos
	Facing    rotation.CompassDirection
	Resource  model.Item
	Recipe    string
	Items     []model.ItemCount

	Resp chan PlaceResult
}

type PlaceResult struct {
	Entity model.EntityID
	Code   string
	Err    error
}

type RemoveRequest struct {
	Entity model.EntityID
	Resp   chan RemoveResult
}

// RemoveResult carries whatever the structure held; removal takes those
// items out of the simulation and hands them to the caller.
type RemoveResult struct {
	Items []model.ItemCount
	Code  string
	Err   error
}

// ObserverJoinRequest registers a read-only observer session that receives
// one encoded frame every EveryTicks ticks on Out.
//
// All observer state is maintained by the world loop goroutine.
type ObserverJoinRequest struct {
	SessionID  string
	Out        chan []byte
	EveryTicks int
}

// ObserverSubscribeRequest updates an existing observer session.
type ObserverSubscribeRequest struct {
	SessionID  string
	EveryTicks int
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

type TickLogEntry struct {
	Tick      uint64           `json:"tick"`
	Placed    []RecordedPlace  `json:"placed,omitempty"`
	Removed   []model.EntityID `json:"removed,omitempty"`
	Moved     bool             `json:"belts_moved,omitempty"`
	Replanned int              `json:"replanned,omitempty"`
	Transfers int              `json:"transfers,omitempty"`
	Produced  int              `json:"produced,omitempty"`
	Consumed  int              `json:"consumed,omitempty"`
	Digest    string           `json:"digest"`
}

// RecordedPlace is enough to re-issue the placement on replay.
type RecordedPlace struct {
	Entity    model.EntityID    `json:"entity"`
	Structure string            `json:"structure"`
	Pos       [2]int            `json:"pos"`
	Facing    string            `json:"facing"`
	Resource  string            `json:"resource,omitempty"`
	Recipe    string            `json:"recipe,omitempty"`
	Items     []model.ItemCount `json:"items,omitempty"`
}

type AuditEntry struct {
	Tick   uint64 `json:"tick"`
	Actor  string `json:"actor"`
	Action string `json:"action"` // PLACE, REMOVE, PICKUP, DROPOFF, ABORT, MINE, BURN, CONSUME, CRAFT
	Pos    [2]int `json:"pos"`
	Target string `json:"target,omitempty"`
	Item   string `json:"item,omitempty"`
	Amount uint32 `json:"amount,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// TickResult summarises one Step.
type TickResult struct {
	Tick   uint64
	Digest string

	Placed    []model.EntityID
	Removed   []model.EntityID
	Moved     bool
	Replanned int
	Audits    []AuditEntry

	// Produced counts mined and crafted units; Consumed counts burnt fuel
	// and crafting ingredients.
	Produced int
	Consumed int
}
