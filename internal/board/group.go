package board

import "goban/internal/domain/game"

// Group is a maximal 4-connected chain of stones of one color.
type Group struct {
	Color     game.Color
	Stones    []game.Position
	Liberties int
}

// InAtari reports whether the group has exactly one liberty left.
func (g Group) InAtari() bool {
	return g.Liberties == 1
}

// GetGroup returns the chain containing p, or nil when p is empty or off-board.
func GetGroup(b *State, p game.Position) []game.Position {
	stones, _ := expand(b, p, nil)
	return stones
}

// AnalyzeGroup returns the chain containing p with its liberty count.
func AnalyzeGroup(b *State, p game.Position) Group {
	color := b.At(p)
	stones := GetGroup(b, p)
	return Group{Color: color, Stones: stones, Liberties: CountLiberties(b, stones)}
}

// CountLiberties counts distinct empty points touching any stone of group.
func CountLiberties(b *State, group []game.Position) int {
	return len(Liberties(b, group))
}

// Liberties lists distinct empty points touching any stone of group.
func Liberties(b *State, group []game.Position) []game.Position {
	if len(group) == 0 {
		return nil
	}
	seen := make(map[game.Position]struct{})
	libs := make([]game.Position, 0, 4)
	var nbrs []game.Position
	for _, p := range group {
		nbrs = b.Neighbors(nbrs[:0], p)
		for _, n := range nbrs {
			if b.At(n) != game.Empty {
				continue
			}
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			libs = append(libs, n)
		}
	}
	return libs
}

// expand runs an explicit-stack flood fill from p over points sharing its color.
// visited, when non-nil, is indexed like the board cells and is marked in place.
func expand(b *State, p game.Position, visited []bool) ([]game.Position, []bool) {
	if !b.InBounds(p) {
		return nil, visited
	}
	color := b.At(p)
	if color == game.Empty {
		return nil, visited
	}
	if visited == nil {
		visited = make([]bool, b.size*b.size)
	}

	stones := make([]game.Position, 0, 4)
	stack := []game.Position{p}
	visited[b.index(p)] = true
	var nbrs []game.Position
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stones = append(stones, cur)

		nbrs = b.Neighbors(nbrs[:0], cur)
		for _, n := range nbrs {
			i := b.index(n)
			if visited[i] || b.cells[i] != color {
				continue
			}
			visited[i] = true
			stack = append(stack, n)
		}
	}
	return stones, visited
}

// Groups returns every chain of color c on the board.
func Groups(b *State, c game.Color) []Group {
	b.assertShape()
	visited := make([]bool, b.size*b.size)
	var out []Group
	for i, v := range b.cells {
		if v != c || visited[i] {
			continue
		}
		var stones []game.Position
		stones, visited = expand(b, game.Position{X: i % b.size, Y: i / b.size}, visited)
		out = append(out, Group{Color: c, Stones: stones, Liberties: CountLiberties(b, stones)})
	}
	return out
}
