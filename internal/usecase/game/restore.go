package game

import (
	"context"
	"fmt"
	"goban/internal/domain/game"
	"goban/internal/domain/sgf"
	goerrors "goban/internal/errors"
	"goban/internal/session"
	"time"
)

// RestoreSession rebuilds a game in progress from its stored SGF by replaying
// every move through a fresh session.
func (g *GameUseCase) RestoreSession(ctx context.Context, id string) (Snapshot, error) {
	if g.live == nil {
		return Snapshot{}, goerrors.ErrRecordNotFound
	}
	if lg, err := g.lookup(id); err == nil {
		lg.mu.Lock()
		defer lg.mu.Unlock()
		return snapshotOf(id, lg.sess), nil
	}

	text, err := g.live.LoadSGF(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	sess, err := g.replay(id, text)
	if err != nil {
		return Snapshot{}, err
	}

	g.mu.Lock()
	if existing, ok := g.games[id]; ok {
		g.mu.Unlock()
		existing.mu.Lock()
		defer existing.mu.Unlock()
		return snapshotOf(id, existing.sess), nil
	}
	g.games[id] = &liveGame{id: id, sess: sess}
	g.mu.Unlock()

	g.log.Infof("game %s restored with %d moves", id, sess.MoveCount())
	return snapshotOf(id, sess), nil
}

func (g *GameUseCase) replay(id, text string) (*session.Session, error) {
	parsed, err := sgf.Parse(text)
	if err != nil {
		return nil, err
	}
	info, err := sgf.ReadGame(parsed)
	if err != nil {
		return nil, err
	}

	sess := session.New(info.BoardSize, info.Rule, info.Limits).WithLogger(g.log.With("game", id))
	started := info.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	if err := sess.TryStartAt(started); err != nil {
		return nil, err
	}
	for i, m := range info.Moves {
		if m.Color != sess.CurrentPlayer() {
			return nil, fmt.Errorf("%w: move %d is %s out of turn", sgf.ErrMalformed, i+1, m.Color)
		}
		p := game.Position{X: m.X, Y: m.Y}
		if p.IsPass() {
			err = sess.TryPass()
		} else {
			err = sess.TryMove(p)
		}
		if err != nil {
			return nil, fmt.Errorf("replay move %d: %w", i+1, err)
		}
	}
	if info.Paused && !sess.Pause() {
		return nil, fmt.Errorf("%w: paused record is already over", sgf.ErrMalformed)
	}
	return sess, nil
}

// RestoreAll reloads every stored live game. Games that fail to replay are
// logged and skipped.
func (g *GameUseCase) RestoreAll(ctx context.Context) (int, error) {
	if g.live == nil {
		return 0, nil
	}
	ids, err := g.live.ListGameIDs(ctx)
	if err != nil {
		return 0, err
	}
	restored := 0
	for _, id := range ids {
		if _, err := g.RestoreSession(ctx, id); err != nil {
			g.log.Errorf("failed to restore game %s: %v", id, err)
			continue
		}
		restored++
	}
	return restored, nil
}
