package session

import (
	"goban/internal/board"
	"goban/internal/domain/game"
	"goban/internal/territory"
	"time"

	"go.uber.org/zap"
)

// Session is one game: the live board, whose turn it is and the move log.
// It is not safe for concurrent use.
type Session struct {
	rule    game.RuleVariant
	limits  game.Limits
	board   *board.State
	status  game.Status
	current game.Color
	passes  int
	history []game.Move

	startedAt time.Time
	endedAt   time.Time
	reason    game.EndReason
	winner    game.Color
	final     *game.Score

	log *zap.SugaredLogger
	now func() time.Time
}

// New creates a session in the setup state. Limits are only honoured by the
// capture rule. An unknown rule falls back to the standard one.
func New(size int, rule game.RuleVariant, limits game.Limits) *Session {
	if !rule.Valid() {
		rule = game.RuleStandard
	}
	return &Session{
		rule:    rule,
		limits:  limits,
		board:   board.New(size),
		status:  game.StatusSetup,
		current: game.Black,
		log:     zap.NewNop().Sugar(),
		now:     time.Now,
	}
}

// WithLogger sets the logger used for lifecycle events.
func (s *Session) WithLogger(log *zap.SugaredLogger) *Session {
	if log != nil {
		s.log = log
	}
	return s
}

// WithClock replaces time.Now.
func (s *Session) WithClock(now func() time.Time) *Session {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *Session) Rule() game.RuleVariant {
	return s.rule
}

func (s *Session) Limits() game.Limits {
	return s.limits
}

func (s *Session) Status() game.Status {
	return s.status
}

func (s *Session) CurrentPlayer() game.Color {
	return s.current
}

func (s *Session) Size() int {
	return s.board.Size()
}

func (s *Session) MoveCount() int {
	return len(s.history)
}

func (s *Session) ConsecutivePasses() int {
	return s.passes
}

func (s *Session) Winner() game.Color {
	return s.winner
}

func (s *Session) EndReason() game.EndReason {
	return s.reason
}

func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

func (s *Session) EndedAt() time.Time {
	return s.endedAt
}

// Board returns a copy of the live board.
func (s *Session) Board() *board.State {
	return s.board.Clone()
}

// History returns a copy of the move log.
func (s *Session) History() []game.Move {
	out := make([]game.Move, len(s.history))
	copy(out, s.history)
	return out
}

// FinalScore is the score frozen when the game finished, nil before that.
func (s *Session) FinalScore() *game.Score {
	if s.final == nil {
		return nil
	}
	cp := *s.final
	return &cp
}

// PreviousBoard is the position before the last half-move, which a new move
// must not recreate. Nil while the history is empty.
func (s *Session) PreviousBoard() *board.State {
	if len(s.history) == 0 {
		return nil
	}
	prev := s.board.Clone()
	board.Revert(prev, s.history[len(s.history)-1])
	return prev
}

func (s *Session) Start() bool {
	return s.TryStart() == nil
}

func (s *Session) TryStart() error {
	return s.TryStartAt(s.now())
}

// TryStartAt starts the game with a known start time, used when a stored game
// is replayed.
func (s *Session) TryStartAt(at time.Time) error {
	if s.status != game.StatusSetup {
		return ErrNotSetup
	}
	s.status = game.StatusPlaying
	s.startedAt = at
	s.log.Infow("game started", "size", s.board.Size(), "rule", s.rule)
	return nil
}

func (s *Session) Pause() bool {
	if s.status != game.StatusPlaying {
		return false
	}
	s.status = game.StatusPaused
	return true
}

func (s *Session) Resume() bool {
	if s.status != game.StatusPaused {
		return false
	}
	s.status = game.StatusPlaying
	return true
}

// IsLegalMove checks p for the player to move.
func (s *Session) IsLegalMove(p game.Position) bool {
	if s.status != game.StatusPlaying {
		return false
	}
	return board.IsLegalMove(s.board, p, s.current, s.PreviousBoard())
}

func (s *Session) MakeMove(p game.Position) bool {
	return s.TryMove(p) == nil
}

// TryMove plays p for the player to move. On error nothing changes; rule
// violations come back as board.MoveError.
func (s *Session) TryMove(p game.Position) error {
	if s.status != game.StatusPlaying {
		return ErrNotPlaying
	}
	res, err := board.TryPlay(s.board, p, s.current, s.PreviousBoard())
	if err != nil {
		return err
	}

	mover := s.current
	s.board = res.Board
	s.history = append(s.history, game.Move{
		Position:  p,
		Color:     mover,
		Captured:  res.Captured,
		Timestamp: s.now(),
	})
	s.passes = 0

	s.checkLimits(mover)
	s.current = mover.Opponent()
	return nil
}

func (s *Session) Pass() bool {
	return s.TryPass() == nil
}

func (s *Session) TryPass() error {
	if s.status != game.StatusPlaying {
		return ErrNotPlaying
	}
	mover := s.current
	s.history = append(s.history, game.Move{
		Position:  game.PassPosition,
		Color:     mover,
		Timestamp: s.now(),
	})
	s.passes++

	if s.rule == game.RuleStandard && s.passes >= 2 {
		s.finish(game.Empty, game.EndTwoPasses)
	} else {
		s.checkLimits(mover)
	}
	s.current = mover.Opponent()
	return nil
}

func (s *Session) UndoLastMove() bool {
	return s.TryUndo() == nil
}

// TryUndo reverts the last half-move and hands the turn back.
func (s *Session) TryUndo() error {
	if s.status != game.StatusPlaying {
		return ErrNotPlaying
	}
	if len(s.history) == 0 {
		return ErrEmptyHistory
	}
	last := s.history[len(s.history)-1]
	board.Revert(s.board, last)
	s.history = s.history[:len(s.history)-1]

	s.passes = 0
	for i := len(s.history) - 1; i >= 0 && s.history[i].IsPass(); i-- {
		s.passes++
	}
	s.current = last.Color
	return nil
}

func (s *Session) Resign() bool {
	return s.TryResign() == nil
}

// TryResign ends the game in favour of the opponent of the player to move.
func (s *Session) TryResign() error {
	if s.status != game.StatusPlaying && s.status != game.StatusPaused {
		return ErrNotPlaying
	}
	s.finish(s.current.Opponent(), game.EndResign)
	return nil
}

// EndGame finishes the game. An Empty winner is decided by the score.
func (s *Session) EndGame(winner game.Color, reason game.EndReason) bool {
	if s.status == game.StatusFinished || s.status == game.StatusSetup {
		return false
	}
	if reason == game.EndNone {
		reason = game.EndManual
	}
	s.finish(winner, reason)
	return true
}

// CalculateScore scores the live board under the session rule.
func (s *Session) CalculateScore() game.Score {
	return territory.CalculateScore(s.board, s.rule)
}

// ExportRecord lists the moves as (color, x, y), passes as (color, -1, -1).
func (s *Session) ExportRecord() []game.RecordEntry {
	out := make([]game.RecordEntry, 0, len(s.history))
	for _, m := range s.history {
		out = append(out, game.RecordEntry{Color: m.Color, X: m.Position.X, Y: m.Position.Y})
	}
	return out
}

// Record builds the archive form of the game.
func (s *Session) Record(id string) game.Record {
	score := s.CalculateScore()
	if s.final != nil {
		score = *s.final
	}
	return game.Record{
		ID:        id,
		BoardSize: s.board.Size(),
		Rule:      s.rule,
		Limits:    s.limits,
		Moves:     s.ExportRecord(),
		Score:     score,
		Winner:    s.winner,
		Reason:    s.reason,
		Result:    game.FormatResult(s.winner, s.reason, score),
		StartedAt: s.startedAt,
		EndedAt:   s.endedAt,
	}
}

func (s *Session) checkLimits(mover game.Color) {
	if s.rule != game.RuleCapture {
		return
	}
	if s.limits.CaptureLimit > 0 && s.board.Captures(mover) >= s.limits.CaptureLimit {
		s.finish(mover, game.EndCaptureLimit)
		return
	}
	if s.limits.MoveLimit > 0 && len(s.history) >= s.limits.MoveLimit {
		s.finish(game.Empty, game.EndMoveLimit)
	}
}

func (s *Session) finish(winner game.Color, reason game.EndReason) {
	score := s.CalculateScore()
	if winner == game.Empty && reason != game.EndResign {
		winner = score.Leader
	}
	s.final = &score
	s.winner = winner
	s.reason = reason
	s.status = game.StatusFinished
	s.endedAt = s.now()
	s.log.Infow("game finished",
		"reason", reason,
		"winner", winner,
		"result", game.FormatResult(winner, reason, score),
		"moves", len(s.history),
	)
}
