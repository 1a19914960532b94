package board

import "goban/internal/domain/game"

// FindCapturedGroups returns every chain of color with no liberties.
func FindCapturedGroups(b *State, color game.Color) []Group {
	var dead []Group
	for _, g := range Groups(b, color) {
		if g.Liberties == 0 {
			dead = append(dead, g)
		}
	}
	return dead
}

// RemoveCapturedStones empties every stone of groups and bumps the counter of the
// removed color once per stone. It returns the removed points.
func RemoveCapturedStones(b *State, groups []Group) []game.Position {
	var removed []game.Position
	for _, g := range groups {
		for _, p := range g.Stones {
			switch b.At(p) {
			case game.Black:
				b.capturedBlack++
			case game.White:
				b.capturedWhite++
			default:
				continue
			}
			b.Set(p, game.Empty)
			removed = append(removed, p)
		}
	}
	return removed
}

// Revert undoes a move on b: the placed stone is lifted, captured stones of the
// opponent are put back and the counter is decreased accordingly.
func Revert(b *State, m game.Move) {
	if m.IsPass() {
		return
	}
	b.Set(m.Position, game.Empty)
	opp := m.Color.Opponent()
	for _, p := range m.Captured {
		b.Set(p, opp)
	}
	switch opp {
	case game.Black:
		b.capturedBlack -= len(m.Captured)
	case game.White:
		b.capturedWhite -= len(m.Captured)
	}
}

// Apply replays a move already known to be legal.
func Apply(b *State, m game.Move) {
	if m.IsPass() {
		return
	}
	b.Set(m.Position, m.Color)
	RemoveCapturedStones(b, []Group{{Color: m.Color.Opponent(), Stones: m.Captured}})
}
