package game

import "fmt"

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

// ShipClass names the four ship sizes. Each class has exactly one
// canonical length, see ClassLength.
type ShipClass string

const (
	ClassTiny   ShipClass = "tiny"   // length 1
	ClassSmall  ShipClass = "small"  // length 2
	ClassMedium ShipClass = "medium" // length 3
	ClassLarge  ShipClass = "large"  // length 4
)

// ClassLength returns the canonical length for a ship class.
func ClassLength(c ShipClass) (int, bool) {
	switch c {
	case ClassTiny:
		return 1, true
	case ClassSmall:
		return 2, true
	case ClassMedium:
		return 3, true
	case ClassLarge:
		return 4, true
	}
	return 0, false
}

// ClassForLength is the inverse of ClassLength.
func ClassForLength(length int) (ShipClass, bool) {
	switch length {
	case 1:
		return ClassTiny, true
	case 2:
		return ClassSmall, true
	case 3:
		return ClassMedium, true
	case 4:
		return ClassLarge, true
	}
	return "", false
}

type Ship struct {
	Position    Position    `json:"position"`
	Orientation Orientation `json:"orientation"`
	Length      int         `json:"length"`
	Class       ShipClass   `json:"type"`
}

// Cells returns the cells the ship occupies: Length consecutive cells
// starting at Position, extending along Orientation.
func (s Ship) Cells() []Position {
	cells := make([]Position, 0, s.Length)
	for i := 0; i < s.Length; i++ {
		if s.Orientation == Horizontal {
			cells = append(cells, Position{X: s.Position.X + i, Y: s.Position.Y})
		} else {
			cells = append(cells, Position{X: s.Position.X, Y: s.Position.Y + i})
		}
	}
	return cells
}

// Occupies reports whether pos is one of the ship's cells.
func (s Ship) Occupies(pos Position) bool {
	for _, c := range s.Cells() {
		if c == pos {
			return true
		}
	}
	return false
}

func (s Ship) String() string {
	return fmt.Sprintf("%s(%d) at (%d,%d) %s", s.Class, s.Length, s.Position.X, s.Position.Y, s.Orientation)
}
