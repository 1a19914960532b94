package game

import (
	"goban/internal/domain/game"
	"goban/internal/session"
	"time"
)

// Snapshot is a read-only view of a session at one point in time.
type Snapshot struct {
	ID            string           `json:"id"`
	Size          int              `json:"size"`
	Board         [][]game.Color   `json:"board"`
	CurrentPlayer game.Color       `json:"current_player"`
	Status        game.Status      `json:"status"`
	Rule          game.RuleVariant `json:"rule"`
	Limits        game.Limits      `json:"limits"`
	MoveCount     int              `json:"move_count"`
	Passes        int              `json:"passes"`
	BlackCaptures int              `json:"black_captures"`
	WhiteCaptures int              `json:"white_captures"`
	History       []game.Move      `json:"history"`
	Winner        game.Color       `json:"winner"`
	Reason        game.EndReason   `json:"reason,omitempty"`
	Result        string           `json:"result,omitempty"`
	Score         *game.Score      `json:"score,omitempty"`
	StartedAt     time.Time        `json:"started_at"`
	EndedAt       time.Time        `json:"ended_at,omitempty"`
}

func snapshotOf(id string, s *session.Session) Snapshot {
	b := s.Board()
	snap := Snapshot{
		ID:            id,
		Size:          b.Size(),
		Board:         b.Grid(),
		CurrentPlayer: s.CurrentPlayer(),
		Status:        s.Status(),
		Rule:          s.Rule(),
		Limits:        s.Limits(),
		MoveCount:     s.MoveCount(),
		Passes:        s.ConsecutivePasses(),
		BlackCaptures: b.Captures(game.Black),
		WhiteCaptures: b.Captures(game.White),
		History:       s.History(),
		Winner:        s.Winner(),
		Reason:        s.EndReason(),
		StartedAt:     s.StartedAt(),
		EndedAt:       s.EndedAt(),
	}
	if final := s.FinalScore(); final != nil {
		snap.Score = final
		snap.Result = game.FormatResult(s.Winner(), s.EndReason(), *final)
	}
	return snap
}
