package territory

import (
	"goban/internal/board"
	"goban/internal/domain/game"
)

// CalculateScore scores b under rule. Territory is only counted for the standard
// rule, both rules credit every opponent stone captured.
func CalculateScore(b *board.State, rule game.RuleVariant) game.Score {
	s := game.Score{
		BlackCaptures: b.Captures(game.Black),
		WhiteCaptures: b.Captures(game.White),
	}
	if rule != game.RuleCapture {
		sum := Summarize(Classify(b))
		s.BlackTerritory = sum.BlackTerritory
		s.WhiteTerritory = sum.WhiteTerritory
	}
	s.BlackTotal = s.BlackTerritory + s.BlackCaptures
	s.WhiteTotal = s.WhiteTerritory + s.WhiteCaptures

	switch {
	case s.BlackTotal > s.WhiteTotal:
		s.Leader = game.Black
	case s.WhiteTotal > s.BlackTotal:
		s.Leader = game.White
	default:
		s.Leader = game.Empty
	}
	return s
}
