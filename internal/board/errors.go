package board

import (
	"errors"
	"fmt"
	"goban/internal/domain/game"
)

var (
	ErrOutOfBounds = errors.New("point is outside the board")
	ErrOccupied    = errors.New("point is occupied")
	ErrSuicide     = errors.New("move is suicide")
	ErrKo          = errors.New("move retakes ko")
	ErrNoColor     = errors.New("move has no color")
)

// MoveError wraps a rule violation with the attempted move.
type MoveError struct {
	Err      error
	Position game.Position
	Color    game.Color
}

func (e MoveError) Error() string {
	return fmt.Sprintf("%s at %s invalid: %s", e.Color, e.Position, e.Err)
}

func (e MoveError) Unwrap() error {
	return e.Err
}
