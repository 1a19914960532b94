package game

import (
	"fmt"
	"time"
)

// Color is the content of a board point.
type Color int8

const (
	Empty Color = iota
	Black
	White
)

func (c Color) String() string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return "empty"
	}
}

// Opponent returns the other stone color. Empty has no opponent.
func (c Color) Opponent() Color {
	switch c {
	case Black:
		return White
	case White:
		return Black
	default:
		return Empty
	}
}

// ParseColor accepts "black"/"b" and "white"/"w" in any case.
func ParseColor(s string) (Color, error) {
	switch s {
	case "black", "Black", "BLACK", "b", "B":
		return Black, nil
	case "white", "White", "WHITE", "w", "W":
		return White, nil
	}
	return Empty, fmt.Errorf("unknown color %q", s)
}

// Position is a zero-based board point. PassPosition marks a pass in move records.
type Position struct {
	X int `json:"x" bson:"x"`
	Y int `json:"y" bson:"y"`
}

var PassPosition = Position{X: -1, Y: -1}

func (p Position) IsPass() bool {
	return p == PassPosition
}

func (p Position) String() string {
	if p.IsPass() {
		return "pass"
	}
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Move is one entry of the session history. Captured holds the opponent stones
// removed by the move, which together with Position is enough to revert it.
type Move struct {
	Position  Position   `json:"position" bson:"position"`
	Color     Color      `json:"color" bson:"color"`
	Captured  []Position `json:"captured,omitempty" bson:"captured,omitempty"`
	Timestamp time.Time  `json:"timestamp" bson:"timestamp"`
}

func (m Move) IsPass() bool {
	return m.Position.IsPass()
}

// RecordEntry is the compact (color, x, y) triple of an exported game record.
type RecordEntry struct {
	Color Color `json:"color" bson:"color"`
	X     int   `json:"x" bson:"x"`
	Y     int   `json:"y" bson:"y"`
}
