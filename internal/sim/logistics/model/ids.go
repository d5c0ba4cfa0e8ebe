package model

import "fmt"

// EntityID is an arena handle owned by the host simulation. Zero is never
// assigned.
type EntityID uint64

func (id EntityID) String() string { return fmt.Sprintf("E%d", uint64(id)) }

// TilePos is an opaque tile handle; the host decides what it maps to.
type TilePos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p TilePos) Add(dx, dy int) TilePos { return TilePos{X: p.X + dx, Y: p.Y + dy} }

func (p TilePos) ToArray() [2]int { return [2]int{p.X, p.Y} }

// InventoryKind tags the role of an inventory on a structure.
type InventoryKind uint8

const (
	KindStorage InventoryKind = iota
	KindFuel
	KindSource
	KindOutput
)

func (k InventoryKind) String() string {
	switch k {
	case KindStorage:
		return "STORAGE"
	case KindFuel:
		return "FUEL"
	case KindSource:
		return "SOURCE"
	case KindOutput:
		return "OUTPUT"
	default:
		return "UNKNOWN"
	}
}

func ParseInventoryKind(s string) (InventoryKind, bool) {
	switch s {
	case "STORAGE":
		return KindStorage, true
	case "FUEL":
		return KindFuel, true
	case "SOURCE":
		return KindSource, true
	case "OUTPUT":
		return KindOutput, true
	}
	return 0, false
}

// DropoffKinds is the order in which an inserter offers items to a
// structure.
var DropoffKinds = [...]InventoryKind{KindFuel, KindSource, KindStorage}

// PickupKinds is the order in which an inserter takes items from a
// structure.
var PickupKinds = [...]InventoryKind{KindOutput, KindStorage}
