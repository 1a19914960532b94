package territory

import (
	"goban/internal/board"
	"goban/internal/domain/game"
)

// secureSize is the region size from which a region counts as secure on its own.
const secureSize = 5

// Region is a maximal 4-connected area of empty points.
// Owner is Empty when the region is neutral. Secure is a heuristic and never
// affects scoring.
type Region struct {
	Points  []game.Position `json:"points"`
	Borders []game.Color    `json:"borders"`
	Owner   game.Color      `json:"owner"`
	Secure  bool            `json:"secure"`
}

// Classify splits the empty points of b into regions.
func Classify(b *board.State) []Region {
	size := b.Size()
	labels := labelChains(b)
	visited := make([]bool, size*size)
	var regions []Region
	var nbrs []game.Position

	for _, start := range b.EmptyPoints() {
		if visited[start.Y*size+start.X] {
			continue
		}

		var (
			points  []game.Position
			borders [3]bool
			chains  = map[game.Color]map[int]struct{}{
				game.Black: {},
				game.White: {},
			}
		)
		stack := []game.Position{start}
		visited[start.Y*size+start.X] = true
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			points = append(points, cur)

			nbrs = b.Neighbors(nbrs[:0], cur)
			for _, n := range nbrs {
				i := n.Y*size + n.X
				c := b.At(n)
				if c == game.Empty {
					if !visited[i] {
						visited[i] = true
						stack = append(stack, n)
					}
					continue
				}
				borders[c] = true
				chains[c][labels[i]] = struct{}{}
			}
		}

		r := Region{Points: points, Owner: game.Empty}
		for _, c := range []game.Color{game.Black, game.White} {
			if borders[c] {
				r.Borders = append(r.Borders, c)
			}
		}
		if len(r.Borders) == 1 {
			r.Owner = r.Borders[0]
			r.Secure = len(points) >= secureSize || len(chains[r.Owner]) >= 2
		}
		regions = append(regions, r)
	}
	return regions
}

// labelChains gives every stone the id of its chain. Empty points get -1.
func labelChains(b *board.State) []int {
	size := b.Size()
	labels := make([]int, size*size)
	for i := range labels {
		labels[i] = -1
	}
	next := 0
	for _, p := range b.Points() {
		i := p.Y*size + p.X
		if labels[i] != -1 || b.At(p) == game.Empty {
			continue
		}
		for _, s := range board.GetGroup(b, p) {
			labels[s.Y*size+s.X] = next
		}
		next++
	}
	return labels
}

// Summary aggregates a classification.
type Summary struct {
	BlackTerritory int `json:"black_territory"`
	WhiteTerritory int `json:"white_territory"`
	Neutral        int `json:"neutral"`
	SecureBlack    int `json:"secure_black"`
	SecureWhite    int `json:"secure_white"`
}

func Summarize(regions []Region) Summary {
	var s Summary
	for _, r := range regions {
		n := len(r.Points)
		switch r.Owner {
		case game.Black:
			s.BlackTerritory += n
			if r.Secure {
				s.SecureBlack += n
			}
		case game.White:
			s.WhiteTerritory += n
			if r.Secure {
				s.SecureWhite += n
			}
		default:
			s.Neutral += n
		}
	}
	return s
}

// OwnerMap returns a [y][x] grid with the owner of every empty point.
// Stones and neutral points read as Empty.
func OwnerMap(b *board.State, regions []Region) [][]game.Color {
	grid := make([][]game.Color, b.Size())
	for y := range grid {
		grid[y] = make([]game.Color, b.Size())
	}
	for _, r := range regions {
		for _, p := range r.Points {
			grid[p.Y][p.X] = r.Owner
		}
	}
	return grid
}
