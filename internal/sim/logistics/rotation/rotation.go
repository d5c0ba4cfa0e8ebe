package rotation

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidSideCount = errors.New("invalid side count")
	ErrInvalidDirection = errors.New("invalid direction for side count")
)

type CompassDirection uint8

const (
	North CompassDirection = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

var compassNames = [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

func (d CompassDirection) String() string {
	if int(d) < len(compassNames) {
		return compassNames[d]
	}
	return "?"
}

func ParseCompass(s string) (CompassDirection, bool) {
	for i, n := range compassNames {
		if n == s {
			return CompassDirection(i), true
		}
	}
	return 0, false
}

// Offset is the tile delta one step in direction d. North is -Y.
func (d CompassDirection) Offset() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case NorthEast:
		return 1, -1
	case East:
		return 1, 0
	case SouthEast:
		return 1, 1
	case South:
		return 0, 1
	case SouthWest:
		return -1, 1
	case West:
		return -1, 0
	case NorthWest:
		return -1, -1
	}
	return 0, 0
}

func (d CompassDirection) Opposite() CompassDirection { return (d + 4) % 8 }

// SideCount is how many discrete facings a structure supports.
type SideCount uint8

const (
	OneSide    SideCount = 1
	TwoSides   SideCount = 2
	FourSides  SideCount = 4
	EightSides SideCount = 8
)

func ParseSideCount(n int) (SideCount, error) {
	switch n {
	case 1, 2, 4, 8:
		return SideCount(n), nil
	}
	return 0, fmt.Errorf("%w: %d", ErrInvalidSideCount, n)
}

var sideDirections = map[SideCount][]CompassDirection{
	OneSide:    {North},
	TwoSides:   {North, South},
	FourSides:  {North, East, South, West},
	EightSides: {North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest},
}

// DiscreteRotation is a facing restricted to the directions a side count
// allows. Only New produces a valid value.
type DiscreteRotation struct {
	current int
	sides   SideCount
}

func New(sides int) (DiscreteRotation, error) {
	sc, err := ParseSideCount(sides)
	if err != nil {
		return DiscreteRotation{}, err
	}
	return DiscreteRotation{sides: sc}, nil
}

// Facing builds a rotation already set to dir.
func Facing(sides int, dir CompassDirection) (DiscreteRotation, error) {
	r, err := New(sides)
	if err != nil {
		return r, err
	}
	if err := r.Set(dir); err != nil {
		return DiscreteRotation{}, err
	}
	return r, nil
}

func (r DiscreteRotation) Sides() SideCount { return r.sides }
func (r DiscreteRotation) Index() int       { return r.current }

func (r *DiscreteRotation) Rotate() {
	if r.sides == 0 {
		return
	}
	r.current = (r.current + 1) % int(r.sides)
}

func (r *DiscreteRotation) Set(dir CompassDirection) error {
	dirs := sideDirections[r.sides]
	if r.sides == OneSide {
		r.current = 0
		return nil
	}
	for i, d := range dirs {
		if d == dir {
			r.current = i
			return nil
		}
	}
	return fmt.Errorf("%w: %s with %d sides", ErrInvalidDirection, dir, r.sides)
}

// SetIndex restores a persisted index.
func (r *DiscreteRotation) SetIndex(i int) error {
	if r.sides == 0 || i < 0 || i >= int(r.sides) {
		return fmt.Errorf("%w: index %d with %d sides", ErrInvalidDirection, i, r.sides)
	}
	r.current = i
	return nil
}

func (r DiscreteRotation) Compass() CompassDirection {
	dirs := sideDirections[r.sides]
	if len(dirs) == 0 {
		return North
	}
	return dirs[r.current]
}

func (r DiscreteRotation) Radians() float64 {
	if r.sides == 0 {
		return 0
	}
	return float64(r.current) * 2 * math.Pi / float64(r.sides)
}
