package game

import (
	"context"
	"fmt"
	"goban/internal/ai"
	"goban/internal/domain/game"
	goerrors "goban/internal/errors"
	"time"
)

// AIResult is delivered once per RequestAIMove call.
type AIResult struct {
	Suggestion ai.Suggestion
	State      Snapshot
	Err        error
}

// RequestAIMove asks the selector for a move for the player to move and applies
// it when it arrives. The request is tagged with the game version; if the game
// changed meanwhile the result is dropped with ErrStaleAIResult.
func (g *GameUseCase) RequestAIMove(ctx context.Context, id string, tier ai.Tier) (<-chan AIResult, error) {
	if _, err := ai.ParseTier(string(tier)); err != nil {
		return nil, fmt.Errorf("%w: %w", goerrors.ErrInvalidTier, err)
	}
	if g.selector == nil {
		return nil, goerrors.ErrAIUnavailable
	}
	lg, err := g.lookup(id)
	if err != nil {
		return nil, err
	}

	lg.mu.Lock()
	if lg.closed {
		lg.mu.Unlock()
		return nil, goerrors.ErrGameNotFound
	}
	if lg.sess.Status() != game.StatusPlaying {
		lg.mu.Unlock()
		return nil, goerrors.ErrGameNotInProgress
	}
	tag := lg.version
	req := ai.Request{
		Board:    lg.sess.Board(),
		Color:    lg.sess.CurrentPlayer(),
		Tier:     tier,
		History:  lg.sess.History(),
		Previous: lg.sess.PreviousBoard(),
	}
	lg.mu.Unlock()

	out := make(chan AIResult, 1)
	go func() {
		defer close(out)
		started := time.Now()

		sug, err := g.selector.SelectContext(ctx, req)
		if err != nil {
			g.log.Errorw("ai move failed", "game", id, "tier", tier, "error", err)
			out <- AIResult{Err: fmt.Errorf("%w: %w", goerrors.ErrAIUnavailable, err)}
			return
		}

		lg.mu.Lock()
		defer lg.mu.Unlock()

		if lg.closed || lg.version != tag || lg.sess.Status() != game.StatusPlaying {
			g.log.Infow("dropping stale ai move", "game", id, "tag", tag, "version", lg.version, "closed", lg.closed)
			out <- AIResult{Suggestion: sug, State: snapshotOf(id, lg.sess), Err: goerrors.ErrStaleAIResult}
			return
		}

		if sug.Pass {
			err = lg.sess.TryPass()
		} else {
			err = lg.sess.TryMove(sug.Position)
		}
		if err != nil {
			out <- AIResult{Suggestion: sug, State: snapshotOf(id, lg.sess), Err: translate(err)}
			return
		}
		g.afterChange(ctx, lg)

		g.log.Infow("ai move applied", "game", id, "tier", tier, "move", sug.Position.String(),
			"confidence", sug.Confidence, "took", g.since(started))
		out <- AIResult{Suggestion: sug, State: snapshotOf(id, lg.sess)}
	}()
	return out, nil
}

// PlayAI requests an AI move and waits for it.
func (g *GameUseCase) PlayAI(ctx context.Context, id string, tier ai.Tier) (AIResult, error) {
	ch, err := g.RequestAIMove(ctx, id, tier)
	if err != nil {
		return AIResult{}, err
	}
	select {
	case res := <-ch:
		return res, res.Err
	case <-ctx.Done():
		return AIResult{}, ctx.Err()
	}
}
