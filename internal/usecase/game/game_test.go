package game

import (
	"context"
	"errors"
	"fmt"
	"goban/internal/ai"
	"goban/internal/board"
	"goban/internal/domain/game"
	goerrors "goban/internal/errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memLive struct {
	mu    sync.Mutex
	games map[string]string
}

func newMemLive() *memLive {
	return &memLive{games: make(map[string]string)}
}

func (m *memLive) SaveSGF(_ context.Context, id string, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[id] = text
	return nil
}

func (m *memLive) LoadSGF(_ context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	text, ok := m.games[id]
	if !ok {
		return "", goerrors.ErrRecordNotFound
	}
	return text, nil
}

func (m *memLive) DeleteSGF(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, id)
	return nil
}

func (m *memLive) ListGameIDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.games))
	for id := range m.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

type memArchive struct {
	mu    sync.Mutex
	saved []game.Record
	fail  error
}

func (a *memArchive) SaveFinishedGame(_ context.Context, rec game.Record) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saved = append(a.saved, rec)
	return a.fail
}

func (a *memArchive) FindFinishedGame(_ context.Context, id string) (game.Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, rec := range a.saved {
		if rec.ID == id {
			return rec, nil
		}
	}
	return game.Record{}, goerrors.ErrRecordNotFound
}

// blockingSelector отдаёт заранее заданный ход только после release.
type blockingSelector struct {
	started chan struct{}
	release chan struct{}
	answer  ai.Suggestion
}

func newBlockingSelector(answer ai.Suggestion) *blockingSelector {
	return &blockingSelector{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
		answer:  answer,
	}
}

func (b *blockingSelector) SelectContext(ctx context.Context, _ ai.Request) (ai.Suggestion, error) {
	b.started <- struct{}{}
	select {
	case <-b.release:
		return b.answer, nil
	case <-ctx.Done():
		return ai.Suggestion{}, ctx.Err()
	}
}

type failingSelector struct{}

func (failingSelector) SelectContext(context.Context, ai.Request) (ai.Suggestion, error) {
	return ai.Suggestion{}, errors.New("engine is down")
}

func pos(x, y int) game.Position {
	return game.Position{X: x, Y: y}
}

func newUseCase(archive ArchiveStore, live LiveStore, selector MoveSelector) *GameUseCase {
	uc := NewGameUseCase(zap.NewNop().Sugar(), Settings{DefaultBoardSize: 9, AllowedBoardSizes: []int{5, 9, 13, 19}}, archive, live, selector)
	n := 0
	uc.newID = func() string {
		n++
		return fmt.Sprintf("g%d", n)
	}
	return uc
}

func playMoves(t *testing.T, uc *GameUseCase, id string, moves ...game.Position) {
	t.Helper()
	for _, p := range moves {
		_, err := uc.MakeMove(context.Background(), id, p)
		require.NoError(t, err, "move %s", p)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	uc := newUseCase(nil, nil, nil)
	ctx := context.Background()

	id, err := uc.CreateSession(ctx, 0, "", game.Limits{})
	require.NoError(t, err)
	snap, err := uc.State(id)
	require.NoError(t, err)
	assert.Equal(t, 9, snap.Size)
	assert.Equal(t, game.RuleStandard, snap.Rule)
	assert.Equal(t, game.StatusPlaying, snap.Status)
	assert.Equal(t, game.Black, snap.CurrentPlayer)

	_, err = uc.CreateSession(ctx, 7, game.RuleStandard, game.Limits{})
	assert.ErrorIs(t, err, goerrors.ErrInvalidBoardSize)
	_, err = uc.CreateSession(ctx, 9, "atari", game.Limits{})
	assert.ErrorIs(t, err, goerrors.ErrInvalidRule)
	_, err = uc.CreateSession(ctx, 9, game.RuleCapture, game.Limits{CaptureLimit: -1})
	assert.ErrorIs(t, err, goerrors.ErrCreateGameFailed)

	_, err = uc.State("missing")
	assert.ErrorIs(t, err, goerrors.ErrGameNotFound)
	assert.Equal(t, 1, uc.Count())
}

func TestMovesAndIllegalMoveErrors(t *testing.T) {
	uc := newUseCase(nil, nil, nil)
	ctx := context.Background()
	id, err := uc.CreateSession(ctx, 5, game.RuleStandard, game.Limits{})
	require.NoError(t, err)

	playMoves(t, uc, id,
		pos(1, 0), pos(2, 0),
		pos(0, 1), pos(1, 1),
		pos(1, 2), pos(3, 1),
		pos(4, 4), pos(2, 2),
		pos(2, 1),
	)
	snap, err := uc.State(id)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.BlackCaptures)
	assert.Equal(t, game.Empty, snap.Board[1][1])

	_, err = uc.MakeMove(ctx, id, pos(1, 1))
	assert.ErrorIs(t, err, goerrors.ErrIllegalMove)
	assert.ErrorIs(t, err, board.ErrKo)

	_, err = uc.MakeMove(ctx, id, pos(1, 0))
	assert.ErrorIs(t, err, board.ErrOccupied)
	_, err = uc.MakeMove(ctx, id, pos(5, 5))
	assert.ErrorIs(t, err, board.ErrOutOfBounds)

	legal, err := uc.IsLegalMove(id, pos(1, 1))
	require.NoError(t, err)
	assert.False(t, legal)
	legal, err = uc.IsLegalMove(id, pos(3, 3))
	require.NoError(t, err)
	assert.True(t, legal)

	snap, err = uc.UndoLastMove(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 8, snap.MoveCount)
	assert.Equal(t, game.White, snap.Board[1][1])
	assert.Equal(t, game.Black, snap.CurrentPlayer)
}

func TestUndoAndPauseErrors(t *testing.T) {
	uc := newUseCase(nil, nil, nil)
	ctx := context.Background()
	id, err := uc.CreateSession(ctx, 9, game.RuleStandard, game.Limits{})
	require.NoError(t, err)

	_, err = uc.UndoLastMove(ctx, id)
	assert.ErrorIs(t, err, goerrors.ErrNothingToUndo)

	_, err = uc.Pause(ctx, id)
	require.NoError(t, err)
	_, err = uc.MakeMove(ctx, id, pos(0, 0))
	assert.ErrorIs(t, err, goerrors.ErrGameNotInProgress)
	_, err = uc.Pause(ctx, id)
	assert.ErrorIs(t, err, goerrors.ErrGameNotInProgress)

	snap, err := uc.Resume(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, game.StatusPlaying, snap.Status)
}

func TestFinishedGameIsArchivedAndDropped(t *testing.T) {
	archive := &memArchive{}
	live := newMemLive()
	uc := newUseCase(archive, live, nil)
	ctx := context.Background()

	id, err := uc.CreateSession(ctx, 9, game.RuleStandard, game.Limits{})
	require.NoError(t, err)
	playMoves(t, uc, id, pos(2, 2), pos(6, 6))
	require.Contains(t, live.games, id)

	_, err = uc.Pass(ctx, id)
	require.NoError(t, err)
	snap, err := uc.Pass(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, game.StatusFinished, snap.Status)
	assert.Equal(t, game.EndTwoPasses, snap.Reason)
	require.NotNil(t, snap.Score)

	require.Len(t, archive.saved, 1)
	rec := archive.saved[0]
	assert.Equal(t, id, rec.ID)
	assert.Len(t, rec.Moves, 4)
	assert.Contains(t, rec.SGF, "RE["+rec.Result+"]")
	assert.NotContains(t, live.games, id)

	found, err := uc.FinishedGame(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, rec.Result, found.Result)
}

func TestArchiveFailureKeepsGameQueryable(t *testing.T) {
	archive := &memArchive{fail: errors.New("mongo is down")}
	uc := newUseCase(archive, nil, nil)
	ctx := context.Background()

	id, err := uc.CreateSession(ctx, 9, game.RuleStandard, game.Limits{})
	require.NoError(t, err)
	snap, err := uc.Resign(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, game.White, snap.Winner)
	assert.Equal(t, "W+R", snap.Result)
	require.Len(t, archive.saved, 1)

	snap, err = uc.State(id)
	require.NoError(t, err)
	assert.Equal(t, game.StatusFinished, snap.Status)

	_, err = uc.Resign(ctx, id)
	assert.ErrorIs(t, err, goerrors.ErrGameNotInProgress)
}

func TestEndGameManually(t *testing.T) {
	uc := newUseCase(nil, nil, nil)
	ctx := context.Background()
	id, err := uc.CreateSession(ctx, 5, game.RuleStandard, game.Limits{})
	require.NoError(t, err)
	playMoves(t, uc, id, pos(2, 2))

	snap, err := uc.EndGame(ctx, id, game.Empty)
	require.NoError(t, err)
	assert.Equal(t, game.EndManual, snap.Reason)
	assert.Equal(t, game.Black, snap.Winner)
	assert.Equal(t, "B+24", snap.Result)

	_, err = uc.EndGame(ctx, id, game.White)
	assert.ErrorIs(t, err, goerrors.ErrGameNotInProgress)
}

func TestCaptureRuleThroughUseCase(t *testing.T) {
	uc := newUseCase(nil, nil, nil)
	ctx := context.Background()
	id, err := uc.CreateSession(ctx, 5, game.RuleCapture, game.Limits{CaptureLimit: 1})
	require.NoError(t, err)

	playMoves(t, uc, id, pos(1, 0), pos(0, 0))
	snap, err := uc.MakeMove(ctx, id, pos(0, 1))
	require.NoError(t, err)
	assert.Equal(t, game.StatusFinished, snap.Status)
	assert.Equal(t, game.EndCaptureLimit, snap.Reason)
	assert.Equal(t, game.Black, snap.Winner)
}

func TestAIMoveApplied(t *testing.T) {
	sel, err := ai.NewSelector(ai.DefaultConfig(), nil)
	require.NoError(t, err)
	uc := newUseCase(nil, nil, instantSelector{sel})
	ctx := context.Background()
	id, err := uc.CreateSession(ctx, 9, game.RuleStandard, game.Limits{})
	require.NoError(t, err)

	res, err := uc.PlayAI(ctx, id, ai.Intermediate)
	require.NoError(t, err)
	assert.Equal(t, 1, res.State.MoveCount)
	assert.Equal(t, game.White, res.State.CurrentPlayer)
	assert.Equal(t, game.Black, res.State.History[0].Color)
}

// instantSelector пропускает задержку "на раздумье".
type instantSelector struct {
	sel *ai.Selector
}

func (s instantSelector) SelectContext(_ context.Context, req ai.Request) (ai.Suggestion, error) {
	return s.sel.Select(req)
}

func TestStaleAIResultIsDropped(t *testing.T) {
	sel := newBlockingSelector(ai.Suggestion{Position: pos(4, 4), Confidence: 0.5})
	uc := newUseCase(nil, nil, sel)
	ctx := context.Background()
	id, err := uc.CreateSession(ctx, 9, game.RuleStandard, game.Limits{})
	require.NoError(t, err)

	ch, err := uc.RequestAIMove(ctx, id, ai.Beginner)
	require.NoError(t, err)
	<-sel.started

	// человек успевает сходить, пока ИИ думает
	playMoves(t, uc, id, pos(0, 0))
	close(sel.release)

	select {
	case res := <-ch:
		assert.ErrorIs(t, res.Err, goerrors.ErrStaleAIResult)
		assert.Equal(t, 1, res.State.MoveCount)
	case <-time.After(2 * time.Second):
		t.Fatal("ai result never arrived")
	}

	snap, err := uc.State(id)
	require.NoError(t, err)
	assert.Equal(t, game.Empty, snap.Board[4][4])
}

func TestAIErrors(t *testing.T) {
	ctx := context.Background()

	uc := newUseCase(nil, nil, nil)
	id, err := uc.CreateSession(ctx, 9, game.RuleStandard, game.Limits{})
	require.NoError(t, err)
	_, err = uc.RequestAIMove(ctx, id, ai.Beginner)
	assert.ErrorIs(t, err, goerrors.ErrAIUnavailable)

	uc = newUseCase(nil, nil, failingSelector{})
	id, err = uc.CreateSession(ctx, 9, game.RuleStandard, game.Limits{})
	require.NoError(t, err)
	_, err = uc.PlayAI(ctx, id, ai.Beginner)
	assert.ErrorIs(t, err, goerrors.ErrAIUnavailable)

	_, err = uc.Resign(ctx, id)
	require.NoError(t, err)
	_, err = uc.RequestAIMove(ctx, id, ai.Beginner)
	assert.ErrorIs(t, err, goerrors.ErrGameNotInProgress)

	// неизвестный уровень отсекается до похода к движку
	uc = newUseCase(nil, nil, failingSelector{})
	id, err = uc.CreateSession(ctx, 9, game.RuleStandard, game.Limits{})
	require.NoError(t, err)
	_, err = uc.RequestAIMove(ctx, id, ai.Tier("grandmaster"))
	assert.ErrorIs(t, err, goerrors.ErrInvalidTier)
	assert.ErrorIs(t, err, ai.ErrUnknownTier)
	assert.NotErrorIs(t, err, goerrors.ErrAIUnavailable)
}

func TestForgetDropsInFlightAIMove(t *testing.T) {
	live := newMemLive()
	sel := newBlockingSelector(ai.Suggestion{Position: pos(4, 4), Confidence: 0.5})
	uc := newUseCase(nil, live, sel)
	ctx := context.Background()
	id, err := uc.CreateSession(ctx, 9, game.RuleStandard, game.Limits{})
	require.NoError(t, err)

	ch, err := uc.RequestAIMove(ctx, id, ai.Beginner)
	require.NoError(t, err)
	<-sel.started

	require.NoError(t, uc.Forget(ctx, id))
	ids, err := live.ListGameIDs(ctx)
	require.NoError(t, err)
	require.Empty(t, ids)
	close(sel.release)

	select {
	case res := <-ch:
		assert.ErrorIs(t, res.Err, goerrors.ErrStaleAIResult)
		assert.Equal(t, 0, res.State.MoveCount)
	case <-time.After(2 * time.Second):
		t.Fatal("ai result never arrived")
	}

	ids, err = live.ListGameIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	n, err := newUseCase(nil, live, nil).RestoreAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRestoreFromLiveStore(t *testing.T) {
	live := newMemLive()
	ctx := context.Background()

	first := newUseCase(nil, live, nil)
	id, err := first.CreateSession(ctx, 5, game.RuleCapture, game.Limits{CaptureLimit: 3, MoveLimit: 40})
	require.NoError(t, err)
	playMoves(t, first, id, pos(1, 0), pos(0, 0), pos(0, 1))
	_, err = first.Pass(ctx, id)
	require.NoError(t, err)
	want, err := first.State(id)
	require.NoError(t, err)

	second := newUseCase(nil, live, nil)
	n, err := second.RestoreAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := second.State(id)
	require.NoError(t, err)
	assert.Equal(t, want.Board, got.Board)
	assert.Equal(t, want.CurrentPlayer, got.CurrentPlayer)
	assert.Equal(t, want.MoveCount, got.MoveCount)
	assert.Equal(t, want.Passes, got.Passes)
	assert.Equal(t, want.BlackCaptures, got.BlackCaptures)
	assert.Equal(t, want.Limits, got.Limits)
	assert.Equal(t, game.RuleCapture, got.Rule)

	_, err = second.RestoreSession(ctx, "nope")
	assert.ErrorIs(t, err, goerrors.ErrRecordNotFound)
}

func TestRestoreKeepsPauseAndStartTime(t *testing.T) {
	live := newMemLive()
	ctx := context.Background()

	first := newUseCase(nil, live, nil)
	id, err := first.CreateSession(ctx, 9, game.RuleStandard, game.Limits{})
	require.NoError(t, err)
	playMoves(t, first, id, pos(2, 2))
	want, err := first.Pause(ctx, id)
	require.NoError(t, err)
	require.Equal(t, game.StatusPaused, want.Status)

	second := newUseCase(nil, live, nil)
	_, err = second.RestoreAll(ctx)
	require.NoError(t, err)

	got, err := second.State(id)
	require.NoError(t, err)
	assert.Equal(t, game.StatusPaused, got.Status)
	assert.True(t, want.StartedAt.Equal(got.StartedAt), "want %v, got %v", want.StartedAt, got.StartedAt)
	assert.Equal(t, 1, got.MoveCount)

	_, err = second.MakeMove(ctx, id, pos(3, 3))
	assert.ErrorIs(t, err, goerrors.ErrGameNotInProgress)
	got, err = second.Resume(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, game.StatusPlaying, got.Status)
}

func TestLargeBoardNeedsSGFCoordinates(t *testing.T) {
	ctx := context.Background()
	live := newMemLive()
	uc := NewGameUseCase(zap.NewNop().Sugar(), Settings{}, nil, live, nil)

	id, err := uc.CreateSession(ctx, 52, game.RuleStandard, game.Limits{})
	require.NoError(t, err)
	_, err = uc.MakeMove(ctx, id, pos(51, 40))
	require.NoError(t, err)

	restored := NewGameUseCase(zap.NewNop().Sugar(), Settings{}, nil, live, nil)
	snap, err := restored.RestoreSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, game.Black, snap.Board[40][51])

	_, err = uc.CreateSession(ctx, 53, game.RuleStandard, game.Limits{})
	assert.ErrorIs(t, err, goerrors.ErrInvalidBoardSize)

	// без хранилища ограничение не действует
	_, err = NewGameUseCase(zap.NewNop().Sugar(), Settings{}, nil, nil, nil).CreateSession(ctx, 53, game.RuleStandard, game.Limits{})
	assert.NoError(t, err)
}

func TestRestoreSkipsBrokenRecords(t *testing.T) {
	live := newMemLive()
	live.games["broken"] = "(;SZ[9];B[aa];B[bb])"
	live.games["garbage"] = "not sgf"
	live.games["ok"] = "(;SZ[9]RU[standard];B[ee];W[cc])"

	uc := newUseCase(nil, live, nil)
	n, err := uc.RestoreAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	snap, err := uc.State("ok")
	require.NoError(t, err)
	assert.Equal(t, game.Black, snap.Board[4][4])
	assert.Equal(t, game.White, snap.Board[2][2])
}

func TestExportSGFAndRecord(t *testing.T) {
	uc := newUseCase(nil, nil, nil)
	ctx := context.Background()
	id, err := uc.CreateSession(ctx, 9, game.RuleStandard, game.Limits{})
	require.NoError(t, err)
	playMoves(t, uc, id, pos(2, 3))
	_, err = uc.Pass(ctx, id)
	require.NoError(t, err)

	text, err := uc.ExportSGF(id)
	require.NoError(t, err)
	assert.Contains(t, text, "SZ[9]")
	assert.Contains(t, text, ";B[cd];W[])")

	rec, err := uc.ExportRecord(id)
	require.NoError(t, err)
	assert.Equal(t, []game.RecordEntry{
		{Color: game.Black, X: 2, Y: 3},
		{Color: game.White, X: -1, Y: -1},
	}, rec)

	score, err := uc.CalculateScore(id)
	require.NoError(t, err)
	assert.Equal(t, 80, score.BlackTerritory)

	regions, summary, err := uc.Territory(id)
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, 80, summary.BlackTerritory)
}

func TestForget(t *testing.T) {
	live := newMemLive()
	uc := newUseCase(nil, live, nil)
	ctx := context.Background()
	id, err := uc.CreateSession(ctx, 9, game.RuleStandard, game.Limits{})
	require.NoError(t, err)
	require.Contains(t, live.games, id)

	require.NoError(t, uc.Forget(ctx, id))
	assert.NotContains(t, live.games, id)
	assert.Equal(t, 0, uc.Count())
	_, err = uc.State(id)
	assert.ErrorIs(t, err, goerrors.ErrGameNotFound)
	assert.ErrorIs(t, uc.Forget(ctx, id), goerrors.ErrGameNotFound)
}

func TestConcurrentSessions(t *testing.T) {
	uc := newUseCase(nil, newMemLive(), nil)
	ctx := context.Background()

	ids := make([]string, 8)
	for i := range ids {
		id, err := uc.CreateSession(ctx, 9, game.RuleStandard, game.Limits{})
		require.NoError(t, err)
		ids[i] = id
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < 9; i++ {
				if _, err := uc.MakeMove(ctx, id, pos(i, i%2)); err != nil {
					t.Errorf("game %s move %d: %v", id, i, err)
					return
				}
			}
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		snap, err := uc.State(id)
		require.NoError(t, err)
		assert.Equal(t, 9, snap.MoveCount)
	}
}
