package ai

import (
	"context"
	"errors"
	"fmt"
	"goban/internal/board"
	"goban/internal/domain/game"
	"math/rand"
	"sync"
	"time"
)

var ErrNoColor = errors.New("ai request has no color to move")

// Request is everything a tier may look at. Board is never modified.
// Previous is the ko snapshot and may be nil.
type Request struct {
	Board    *board.State
	Color    game.Color
	Tier     Tier
	History  []game.Move
	Previous *board.State
}

// Suggestion is the chosen move. Delay is presentation pacing only.
type Suggestion struct {
	Position   game.Position `json:"position"`
	Pass       bool          `json:"pass"`
	Confidence float64       `json:"confidence"`
	Rationale  string        `json:"rationale"`
	Delay      time.Duration `json:"delay"`
}

// Selector picks single-ply heuristic moves. It is safe for concurrent use.
type Selector struct {
	cfg Config

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSelector validates cfg and keeps a private copy of it.
func NewSelector(cfg Config, src rand.Source) (*Selector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Selector{cfg: cfg.clone(), rnd: rand.New(src)}, nil
}

// TierConfig returns the settings of t.
func (s *Selector) TierConfig(t Tier) (TierConfig, bool) {
	tc, ok := s.cfg.Tiers[t]
	return tc, ok
}

// Timeout is the upper bound of a SelectContext call for t.
func (s *Selector) Timeout(t Tier) time.Duration {
	return s.cfg.Tiers[t].Timeout
}

// Select computes a move without waiting out the pacing delay.
func (s *Selector) Select(req Request) (Suggestion, error) {
	return s.compute(context.Background(), req)
}

// SelectContext computes a move and then waits its pacing delay. The whole call is
// bounded by the tier timeout and by ctx.
func (s *Selector) SelectContext(ctx context.Context, req Request) (Suggestion, error) {
	tc, ok := s.cfg.Tiers[req.Tier]
	if !ok {
		return Suggestion{}, fmt.Errorf("%w: %q", ErrUnknownTier, req.Tier)
	}
	ctx, cancel := context.WithTimeout(ctx, tc.Timeout)
	defer cancel()

	sug, err := s.compute(ctx, req)
	if err != nil {
		return Suggestion{}, err
	}
	if sug.Delay <= 0 {
		return sug, nil
	}

	timer := time.NewTimer(sug.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return Suggestion{}, ctx.Err()
	case <-timer.C:
		return sug, nil
	}
}

func (s *Selector) compute(ctx context.Context, req Request) (Suggestion, error) {
	tc, ok := s.cfg.Tiers[req.Tier]
	if !ok {
		return Suggestion{}, fmt.Errorf("%w: %q", ErrUnknownTier, req.Tier)
	}
	if req.Color != game.Black && req.Color != game.White {
		return Suggestion{}, ErrNoColor
	}
	if req.Board == nil {
		return Suggestion{}, errors.New("ai request has no board")
	}

	// планировщик работает только с копией
	p := newPlanner(ctx, req.Board.Clone(), req.Color, req.Previous, req.History)

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		sug Suggestion
		err error
	)
	switch req.Tier {
	case Beginner:
		sug, err = p.beginner(s.rnd, tc)
	case Intermediate:
		sug, err = p.intermediate(s.rnd)
	default:
		sug, err = p.advanced(s.rnd, tc.Weights)
	}
	if err != nil {
		return Suggestion{}, err
	}
	sug.Confidence = clamp01(sug.Confidence)
	sug.Delay = s.delay(tc)
	return sug, nil
}

func (s *Selector) delay(tc TierConfig) time.Duration {
	d := tc.MinThink
	if span := tc.MaxThink - tc.MinThink; span > 0 {
		d += time.Duration(s.rnd.Int63n(int64(span) + 1))
	}
	return d
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
