package board

import "goban/internal/domain/game"

// Result is the outcome of a move tried on a scratch copy of the board.
type Result struct {
	Board    *State
	Captured []game.Position
}

// TryPlay plays color at p on a copy of b. previous is the position two half-moves
// back, used for the single-step ko check, and may be nil. b is never modified.
func TryPlay(b *State, p game.Position, color game.Color, previous *State) (Result, error) {
	if color != game.Black && color != game.White {
		return Result{}, MoveError{Err: ErrNoColor, Position: p, Color: color}
	}
	if !b.InBounds(p) {
		return Result{}, MoveError{Err: ErrOutOfBounds, Position: p, Color: color}
	}
	if b.At(p) != game.Empty {
		return Result{}, MoveError{Err: ErrOccupied, Position: p, Color: color}
	}

	next := b.Clone()
	next.Set(p, color)

	// снимаем камни соперника до проверки своих дамэ
	captured := RemoveCapturedStones(next, FindCapturedGroups(next, color.Opponent()))

	if len(captured) == 0 && CountLiberties(next, GetGroup(next, p)) == 0 {
		return Result{}, MoveError{Err: ErrSuicide, Position: p, Color: color}
	}

	if previous != nil && next.Equal(previous) {
		return Result{}, MoveError{Err: ErrKo, Position: p, Color: color}
	}

	return Result{Board: next, Captured: captured}, nil
}

// IsLegalMove reports whether color may play at p.
func IsLegalMove(b *State, p game.Position, color game.Color, previous *State) bool {
	_, err := TryPlay(b, p, color, previous)
	return err == nil
}

// LegalMoves lists every legal point for color in row-major order.
func LegalMoves(b *State, color game.Color, previous *State) []game.Position {
	var out []game.Position
	for _, p := range b.EmptyPoints() {
		if IsLegalMove(b, p, color, previous) {
			out = append(out, p)
		}
	}
	return out
}
