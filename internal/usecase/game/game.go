package game

import (
	"context"
	"errors"
	"fmt"
	"goban/internal/ai"
	"goban/internal/board"
	"goban/internal/domain/game"
	"goban/internal/domain/sgf"
	goerrors "goban/internal/errors"
	"goban/internal/session"
	"goban/internal/territory"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ArchiveStore receives finished games. Failures never affect the game in memory.
type ArchiveStore interface {
	SaveFinishedGame(ctx context.Context, rec game.Record) error
	FindFinishedGame(ctx context.Context, id string) (game.Record, error)
}

// LiveStore keeps the SGF of games in progress.
type LiveStore interface {
	SaveSGF(ctx context.Context, id string, sgfText string) error
	LoadSGF(ctx context.Context, id string) (string, error)
	DeleteSGF(ctx context.Context, id string) error
	ListGameIDs(ctx context.Context) ([]string, error)
}

// MoveSelector proposes a move for the player to move.
type MoveSelector interface {
	SelectContext(ctx context.Context, req ai.Request) (ai.Suggestion, error)
}

type Settings struct {
	DefaultBoardSize  int
	AllowedBoardSizes []int
}

type liveGame struct {
	mu   sync.Mutex
	id   string
	sess *session.Session

	// version растёт при каждом изменении партии, по нему отбрасываются устаревшие ходы ИИ
	version uint64
	// closed выставляет Forget, после этого партию никто не меняет и не сохраняет
	closed bool
}

// GameUseCase owns every session of the process. Each session is guarded by its
// own mutex so games never wait on each other.
type GameUseCase struct {
	log      *zap.SugaredLogger
	settings Settings
	archive  ArchiveStore
	live     LiveStore
	selector MoveSelector

	mu    sync.RWMutex
	games map[string]*liveGame

	newID func() string
}

// NewGameUseCase wires the collaborators. archive, live and selector may be nil.
func NewGameUseCase(log *zap.SugaredLogger, settings Settings, archive ArchiveStore, live LiveStore, selector MoveSelector) *GameUseCase {
	if settings.DefaultBoardSize <= 0 {
		settings.DefaultBoardSize = 19
	}
	return &GameUseCase{
		log:      log,
		settings: settings,
		archive:  archive,
		live:     live,
		selector: selector,
		games:    make(map[string]*liveGame),
		newID:    func() string { return uuid.New().String() },
	}
}

func (g *GameUseCase) sizeAllowed(size int) bool {
	if size <= 0 {
		return false
	}
	if len(g.settings.AllowedBoardSizes) == 0 {
		return true
	}
	for _, s := range g.settings.AllowedBoardSizes {
		if s == size {
			return true
		}
	}
	return false
}

// CreateSession starts a new game and returns its id. A zero size picks the
// default board, an empty rule the standard one.
func (g *GameUseCase) CreateSession(ctx context.Context, size int, rule game.RuleVariant, limits game.Limits) (string, error) {
	if size == 0 {
		size = g.settings.DefaultBoardSize
	}
	if !g.sizeAllowed(size) {
		return "", fmt.Errorf("%w: %d", goerrors.ErrInvalidBoardSize, size)
	}
	if g.live != nil && size > sgf.MaxBoardSize {
		return "", fmt.Errorf("%w: %d does not fit an sgf record", goerrors.ErrInvalidBoardSize, size)
	}
	if rule == "" {
		rule = game.RuleStandard
	}
	if !rule.Valid() {
		return "", fmt.Errorf("%w: %q", goerrors.ErrInvalidRule, rule)
	}
	if limits.CaptureLimit < 0 || limits.MoveLimit < 0 {
		return "", fmt.Errorf("%w: negative limits", goerrors.ErrCreateGameFailed)
	}

	id := g.newID()
	sess := session.New(size, rule, limits).WithLogger(g.log.With("game", id))
	if err := sess.TryStart(); err != nil {
		return "", fmt.Errorf("%w: %v", goerrors.ErrCreateGameFailed, err)
	}
	lg := &liveGame{id: id, sess: sess}

	g.mu.Lock()
	g.games[id] = lg
	g.mu.Unlock()

	lg.mu.Lock()
	g.persist(ctx, lg)
	lg.mu.Unlock()

	g.log.Infof("new game %s created: size %d, rule %s", id, size, rule)
	return id, nil
}

func (g *GameUseCase) lookup(id string) (*liveGame, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	lg, ok := g.games[id]
	if !ok {
		return nil, goerrors.ErrGameNotFound
	}
	return lg, nil
}

// State returns a snapshot of the game.
func (g *GameUseCase) State(id string) (Snapshot, error) {
	lg, err := g.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	lg.mu.Lock()
	defer lg.mu.Unlock()
	return snapshotOf(id, lg.sess), nil
}

// IsLegalMove checks p for the player to move.
func (g *GameUseCase) IsLegalMove(id string, p game.Position) (bool, error) {
	lg, err := g.lookup(id)
	if err != nil {
		return false, err
	}
	lg.mu.Lock()
	defer lg.mu.Unlock()
	return lg.sess.IsLegalMove(p), nil
}

// MakeMove plays p for the player to move.
func (g *GameUseCase) MakeMove(ctx context.Context, id string, p game.Position) (Snapshot, error) {
	return g.mutate(ctx, id, func(s *session.Session) error {
		return s.TryMove(p)
	})
}

func (g *GameUseCase) Pass(ctx context.Context, id string) (Snapshot, error) {
	return g.mutate(ctx, id, func(s *session.Session) error {
		return s.TryPass()
	})
}

func (g *GameUseCase) Resign(ctx context.Context, id string) (Snapshot, error) {
	return g.mutate(ctx, id, func(s *session.Session) error {
		return s.TryResign()
	})
}

func (g *GameUseCase) UndoLastMove(ctx context.Context, id string) (Snapshot, error) {
	return g.mutate(ctx, id, func(s *session.Session) error {
		return s.TryUndo()
	})
}

func (g *GameUseCase) Pause(ctx context.Context, id string) (Snapshot, error) {
	return g.mutate(ctx, id, func(s *session.Session) error {
		if !s.Pause() {
			return session.ErrNotPlaying
		}
		return nil
	})
}

func (g *GameUseCase) Resume(ctx context.Context, id string) (Snapshot, error) {
	return g.mutate(ctx, id, func(s *session.Session) error {
		if !s.Resume() {
			return session.ErrNotPlaying
		}
		return nil
	})
}

// EndGame finishes the game manually. An Empty winner is decided by the score.
func (g *GameUseCase) EndGame(ctx context.Context, id string, winner game.Color) (Snapshot, error) {
	return g.mutate(ctx, id, func(s *session.Session) error {
		if !s.EndGame(winner, game.EndManual) {
			return session.ErrNotPlaying
		}
		return nil
	})
}

func (g *GameUseCase) mutate(ctx context.Context, id string, op func(s *session.Session) error) (Snapshot, error) {
	lg, err := g.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	lg.mu.Lock()
	defer lg.mu.Unlock()
	if lg.closed {
		return Snapshot{}, goerrors.ErrGameNotFound
	}

	if err := op(lg.sess); err != nil {
		return snapshotOf(id, lg.sess), translate(err)
	}
	g.afterChange(ctx, lg)
	return snapshotOf(id, lg.sess), nil
}

func translate(err error) error {
	var me board.MoveError
	switch {
	case errors.As(err, &me):
		return fmt.Errorf("%w: %w", goerrors.ErrIllegalMove, err)
	case errors.Is(err, session.ErrNotPlaying):
		return goerrors.ErrGameNotInProgress
	case errors.Is(err, session.ErrEmptyHistory):
		return goerrors.ErrNothingToUndo
	}
	return err
}

// afterChange runs with lg.mu held.
func (g *GameUseCase) afterChange(ctx context.Context, lg *liveGame) {
	lg.version++
	if lg.sess.Status() == game.StatusFinished {
		g.archiveGame(ctx, lg)
		return
	}
	g.persist(ctx, lg)
}

func (g *GameUseCase) record(lg *liveGame) *sgf.SGF {
	s := lg.sess
	header := sgf.Header{
		BoardSize: s.Size(),
		Rule:      s.Rule(),
		Limits:    s.Limits(),
		Date:      s.StartedAt(),
		Paused:    s.Status() == game.StatusPaused,
	}
	rec := sgf.FromRecord(header, s.ExportRecord())
	if final := s.FinalScore(); final != nil {
		sgf.SetResult(rec, game.FormatResult(s.Winner(), s.EndReason(), *final))
	}
	return rec
}

func (g *GameUseCase) persist(ctx context.Context, lg *liveGame) {
	if g.live == nil || lg.closed {
		return
	}
	if err := g.live.SaveSGF(ctx, lg.id, sgf.Serialize(g.record(lg))); err != nil {
		g.log.Errorf("failed to save live game %s: %v", lg.id, err)
	}
}

func (g *GameUseCase) archiveGame(ctx context.Context, lg *liveGame) {
	rec := lg.sess.Record(lg.id)
	rec.SGF = sgf.Serialize(g.record(lg))

	if g.archive != nil {
		if err := g.archive.SaveFinishedGame(ctx, rec); err != nil {
			g.log.Errorw("failed to archive finished game", "game", lg.id, "error", err)
		}
	}
	if g.live != nil {
		if err := g.live.DeleteSGF(ctx, lg.id); err != nil {
			g.log.Errorf("failed to drop live game %s: %v", lg.id, err)
		}
	}
}

// CalculateScore scores the current board.
func (g *GameUseCase) CalculateScore(id string) (game.Score, error) {
	lg, err := g.lookup(id)
	if err != nil {
		return game.Score{}, err
	}
	lg.mu.Lock()
	defer lg.mu.Unlock()
	return lg.sess.CalculateScore(), nil
}

// Territory classifies the empty regions of the current board.
func (g *GameUseCase) Territory(id string) ([]territory.Region, territory.Summary, error) {
	lg, err := g.lookup(id)
	if err != nil {
		return nil, territory.Summary{}, err
	}
	lg.mu.Lock()
	b := lg.sess.Board()
	lg.mu.Unlock()

	regions := territory.Classify(b)
	return regions, territory.Summarize(regions), nil
}

// ExportRecord returns the (color, x, y) move list.
func (g *GameUseCase) ExportRecord(id string) ([]game.RecordEntry, error) {
	lg, err := g.lookup(id)
	if err != nil {
		return nil, err
	}
	lg.mu.Lock()
	defer lg.mu.Unlock()
	return lg.sess.ExportRecord(), nil
}

// ExportSGF returns the game as SGF text.
func (g *GameUseCase) ExportSGF(id string) (string, error) {
	lg, err := g.lookup(id)
	if err != nil {
		return "", err
	}
	lg.mu.Lock()
	defer lg.mu.Unlock()
	return sgf.Serialize(g.record(lg)), nil
}

// FinishedGame looks a game up in the archive.
func (g *GameUseCase) FinishedGame(ctx context.Context, id string) (game.Record, error) {
	if g.archive == nil {
		return game.Record{}, goerrors.ErrGameNotFound
	}
	return g.archive.FindFinishedGame(ctx, id)
}

// Forget drops a game from memory together with its live record. Archived
// records are kept.
func (g *GameUseCase) Forget(ctx context.Context, id string) error {
	g.mu.Lock()
	lg, ok := g.games[id]
	delete(g.games, id)
	g.mu.Unlock()
	if !ok {
		return goerrors.ErrGameNotFound
	}

	lg.mu.Lock()
	defer lg.mu.Unlock()
	lg.closed = true
	lg.version++
	if g.live != nil {
		if err := g.live.DeleteSGF(ctx, id); err != nil {
			g.log.Errorf("failed to drop live game %s: %v", id, err)
		}
	}
	g.log.Infof("game %s forgotten", id)
	return nil
}

// Count returns how many games are held in memory.
func (g *GameUseCase) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.games)
}

func (g *GameUseCase) since(t time.Time) time.Duration {
	return time.Since(t).Round(time.Millisecond)
}
