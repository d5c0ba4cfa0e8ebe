package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// World routing/state.
	ErrWorldBusy = "E_WORLD_BUSY"
	ErrTimeout   = "E_TIMEOUT"

	// Placement and removal, as reported by the world.
	ErrUnknownStructure = "E_UNKNOWN_STRUCTURE"
	ErrOccupied         = "E_OCCUPIED"
	ErrBadRotation      = "E_BAD_ROTATION"
	ErrUnknownEntity    = "E_UNKNOWN_ENTITY"
	ErrNoSpace          = "E_NO_SPACE"
	ErrBadRequest       = "E_BAD_REQUEST"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:  {},
	ErrWorldBusy:        {},
	ErrTimeout:          {},
	ErrUnknownStructure: {},
	ErrOccupied:         {},
	ErrBadRotation:      {},
	ErrUnknownEntity:    {},
	ErrNoSpace:          {},
	ErrBadRequest:       {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
