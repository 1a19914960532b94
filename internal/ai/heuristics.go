package ai

import (
	"context"
	"fmt"
	"goban/internal/board"
	"goban/internal/domain/game"
	"math"
	"math/rand"
)

const defaultRadius = 3

type candidate struct {
	pos   game.Position
	res   board.Result
	score float64
}

type planner struct {
	ctx     context.Context
	b       *board.State
	color   game.Color
	prev    *board.State
	history []game.Move
}

func newPlanner(ctx context.Context, b *board.State, color game.Color, prev *board.State, history []game.Move) *planner {
	return &planner{ctx: ctx, b: b, color: color, prev: prev, history: history}
}

func (p *planner) legalMoves() ([]candidate, error) {
	var out []candidate
	for _, pt := range p.b.EmptyPoints() {
		if err := p.ctx.Err(); err != nil {
			return nil, err
		}
		res, err := board.TryPlay(p.b, pt, p.color, p.prev)
		if err != nil {
			continue
		}
		out = append(out, candidate{pos: pt, res: res})
	}
	return out, nil
}

func passSuggestion() Suggestion {
	return Suggestion{
		Position:   game.PassPosition,
		Pass:       true,
		Confidence: 1,
		Rationale:  "no legal moves left, passing",
	}
}

func play(c candidate, confidence float64, rationale string) Suggestion {
	return Suggestion{Position: c.pos, Confidence: confidence, Rationale: rationale}
}

func (p *planner) beginner(rnd *rand.Rand, tc TierConfig) (Suggestion, error) {
	cands, err := p.legalMoves()
	if err != nil {
		return Suggestion{}, err
	}
	if len(cands) == 0 {
		return passSuggestion(), nil
	}

	pool, why := cands, "random move"
	if rnd.Float64() < tc.CenterBias {
		var central []candidate
		for _, c := range cands {
			if p.inCenter(c.pos) {
				central = append(central, c)
			}
		}
		if len(central) > 0 {
			pool, why = central, "random move near the centre"
		}
	}
	return play(pool[rnd.Intn(len(pool))], 0.2, why), nil
}

func (p *planner) intermediate(rnd *rand.Rand) (Suggestion, error) {
	cands, err := p.legalMoves()
	if err != nil {
		return Suggestion{}, err
	}
	if len(cands) == 0 {
		return passSuggestion(), nil
	}

	if c, ok := p.capture(rnd, cands); ok {
		return play(c, 0.9, fmt.Sprintf("captures %d stone(s)", len(c.res.Captured))), nil
	}
	if c, size, ok := p.rescue(cands); ok {
		return play(c, 0.8, fmt.Sprintf("saves a group of %d in atari", size)), nil
	}

	var ext []candidate
	for _, c := range cands {
		if p.friendlyNeighbours(c.pos) > 0 {
			ext = append(ext, c)
		}
	}
	if len(ext) > 0 {
		return play(p.bestPositional(rnd, ext), 0.6, "extends from a friendly stone"), nil
	}
	return play(p.bestPositional(rnd, cands), 0.4, "positional move towards the centre"), nil
}

func (p *planner) advanced(rnd *rand.Rand, w Weights) (Suggestion, error) {
	cands, err := p.legalMoves()
	if err != nil {
		return Suggestion{}, err
	}
	if len(cands) == 0 {
		return passSuggestion(), nil
	}

	if c, ok := p.capture(rnd, cands); ok {
		return play(c, 0.95, fmt.Sprintf("tactical check: captures %d stone(s)", len(c.res.Captured))), nil
	}
	if c, size, ok := p.rescue(cands); ok {
		return play(c, 0.85, fmt.Sprintf("tactical check: saves a group of %d in atari", size)), nil
	}

	radius := w.Radius
	if radius <= 0 {
		radius = defaultRadius
	}
	last, hasLast := p.lastOpponentMove()

	best := -1
	lo, sum := math.Inf(1), 0.0
	for i := range cands {
		if err := p.ctx.Err(); err != nil {
			return Suggestion{}, err
		}
		c := &cands[i]
		territory, influence := p.potential(c.pos, radius)
		conn := p.friendlyNeighbours(c.pos)

		score := w.Territory*territory + w.Influence*influence + w.Connection*float64(conn)
		if hasLast {
			score += w.Response / float64(1+manhattan(c.pos, last))
		}
		if board.CountLiberties(c.res.Board, board.GetGroup(c.res.Board, c.pos)) == 1 {
			score -= w.SelfAtari
		}
		score += p.positional(c.pos) + rnd.Float64()*1e-3
		c.score = score

		sum += score
		lo = math.Min(lo, score)
		if best < 0 || score > cands[best].score {
			best = i
		}
	}

	c := cands[best]
	confidence := 0.55
	if spread := c.score - lo; spread > 0 {
		mean := sum / float64(len(cands))
		confidence += 0.35 * (c.score - mean) / spread
	}
	territory, influence := p.potential(c.pos, radius)
	return play(c, confidence, fmt.Sprintf("territory %.1f, influence %.1f, connections %d",
		territory, influence, p.friendlyNeighbours(c.pos))), nil
}

// capture picks the move taking the most stones, ties broken at random.
func (p *planner) capture(rnd *rand.Rand, cands []candidate) (candidate, bool) {
	most := 0
	var ties []candidate
	for _, c := range cands {
		n := len(c.res.Captured)
		switch {
		case n == 0 || n < most:
		case n > most:
			most = n
			ties = append(ties[:0], c)
		default:
			ties = append(ties, c)
		}
	}
	if len(ties) == 0 {
		return candidate{}, false
	}
	return ties[rnd.Intn(len(ties))], true
}

// rescue extends the largest own group in atari into its last liberty when that
// leaves it with at least two liberties.
func (p *planner) rescue(cands []candidate) (candidate, int, bool) {
	byPos := make(map[game.Position]candidate, len(cands))
	for _, c := range cands {
		byPos[c.pos] = c
	}

	var (
		found candidate
		size  int
	)
	for _, g := range board.Groups(p.b, p.color) {
		if !g.InAtari() || len(g.Stones) <= size {
			continue
		}
		lib := board.Liberties(p.b, g.Stones)[0]
		c, ok := byPos[lib]
		if !ok {
			continue
		}
		if board.CountLiberties(c.res.Board, board.GetGroup(c.res.Board, lib)) < 2 {
			continue
		}
		found, size = c, len(g.Stones)
	}
	return found, size, size > 0
}

func (p *planner) bestPositional(rnd *rand.Rand, cands []candidate) candidate {
	best, bestScore := cands[0], math.Inf(-1)
	for _, c := range cands {
		s := p.positional(c.pos) + rnd.Float64()*1e-3
		if s > bestScore {
			best, bestScore = c, s
		}
	}
	return best
}

// positional rewards closeness to the centre and distance from the edge.
func (p *planner) positional(pt game.Position) float64 {
	size := p.b.Size()
	span := math.Max(1, float64(size-1))
	c := float64(size-1) / 2
	dist := math.Abs(float64(pt.X)-c) + math.Abs(float64(pt.Y)-c)
	edge := min(pt.X, pt.Y, size-1-pt.X, size-1-pt.Y)
	return (1 - dist/span) + 0.5*float64(edge)/math.Max(1, c)
}

func (p *planner) inCenter(pt game.Position) bool {
	size := p.b.Size()
	c := float64(size-1) / 2
	r := math.Max(1, float64(size)/4)
	return math.Abs(float64(pt.X)-c) <= r && math.Abs(float64(pt.Y)-c) <= r
}

// potential sums 1/(1+d) over empty points and over friendly stones within radius.
func (p *planner) potential(pt game.Position, radius int) (territory, influence float64) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d := abs(dx) + abs(dy)
			if d == 0 || d > radius {
				continue
			}
			q := game.Position{X: pt.X + dx, Y: pt.Y + dy}
			if !p.b.InBounds(q) {
				continue
			}
			switch p.b.At(q) {
			case game.Empty:
				territory += 1 / float64(1+d)
			case p.color:
				influence += 1 / float64(1+d)
			}
		}
	}
	return territory, influence
}

func (p *planner) friendlyNeighbours(pt game.Position) int {
	n := 0
	for _, q := range p.b.Neighbors(nil, pt) {
		if p.b.At(q) == p.color {
			n++
		}
	}
	return n
}

func (p *planner) lastOpponentMove() (game.Position, bool) {
	opp := p.color.Opponent()
	for i := len(p.history) - 1; i >= 0; i-- {
		m := p.history[i]
		if m.Color == opp && !m.IsPass() {
			return m.Position, true
		}
	}
	return game.Position{}, false
}

func manhattan(a, b game.Position) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
