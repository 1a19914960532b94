package board

import (
	"fmt"
	"goban/internal/domain/game"
	"strings"
)

// State is a square Go board together with the capture counters.
// CapturedBlack counts black stones removed from the board, CapturedWhite white ones.
type State struct {
	size          int
	cells         []game.Color
	capturedBlack int
	capturedWhite int
}

// New returns an empty board. A non-positive size is a programming error.
func New(size int) *State {
	if size <= 0 {
		panic(fmt.Sprintf("board: non-positive size %d", size))
	}
	return &State{
		size:  size,
		cells: make([]game.Color, size*size),
	}
}

func (s *State) Size() int {
	return s.size
}

func (s *State) CapturedBlack() int {
	return s.capturedBlack
}

func (s *State) CapturedWhite() int {
	return s.capturedWhite
}

// Captures returns the number of opponent stones the given color has taken.
func (s *State) Captures(c game.Color) int {
	switch c {
	case game.Black:
		return s.capturedWhite
	case game.White:
		return s.capturedBlack
	}
	return 0
}

// SetCaptured overwrites both counters. Used when a board is rebuilt wholesale.
func (s *State) SetCaptured(black, white int) {
	s.capturedBlack = black
	s.capturedWhite = white
}

func (s *State) InBounds(p game.Position) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < s.size && p.Y < s.size
}

func (s *State) index(p game.Position) int {
	return p.Y*s.size + p.X
}

// At returns the color at p. Off-board points read as Empty.
func (s *State) At(p game.Position) game.Color {
	if !s.InBounds(p) {
		return game.Empty
	}
	return s.cells[s.index(p)]
}

// Set writes c at p. Off-board writes panic.
func (s *State) Set(p game.Position, c game.Color) {
	if !s.InBounds(p) {
		panic(fmt.Sprintf("board: set outside %dx%d board at %s", s.size, s.size, p))
	}
	s.cells[s.index(p)] = c
}

func (s *State) IsEmpty(p game.Position) bool {
	return s.InBounds(p) && s.At(p) == game.Empty
}

// Neighbors appends the on-board 4-neighbours of p to dst.
func (s *State) Neighbors(dst []game.Position, p game.Position) []game.Position {
	if p.X > 0 {
		dst = append(dst, game.Position{X: p.X - 1, Y: p.Y})
	}
	if p.X < s.size-1 {
		dst = append(dst, game.Position{X: p.X + 1, Y: p.Y})
	}
	if p.Y > 0 {
		dst = append(dst, game.Position{X: p.X, Y: p.Y - 1})
	}
	if p.Y < s.size-1 {
		dst = append(dst, game.Position{X: p.X, Y: p.Y + 1})
	}
	return dst
}

// Points returns every point of the board in row-major order.
func (s *State) Points() []game.Position {
	pts := make([]game.Position, 0, len(s.cells))
	for y := 0; y < s.size; y++ {
		for x := 0; x < s.size; x++ {
			pts = append(pts, game.Position{X: x, Y: y})
		}
	}
	return pts
}

// EmptyPoints returns every empty point in row-major order.
func (s *State) EmptyPoints() []game.Position {
	s.assertShape()
	pts := make([]game.Position, 0)
	for i, c := range s.cells {
		if c == game.Empty {
			pts = append(pts, game.Position{X: i % s.size, Y: i / s.size})
		}
	}
	return pts
}

func (s *State) Count(c game.Color) int {
	n := 0
	for _, v := range s.cells {
		if v == c {
			n++
		}
	}
	return n
}

func (s *State) Clone() *State {
	s.assertShape()
	cp := &State{
		size:          s.size,
		cells:         make([]game.Color, len(s.cells)),
		capturedBlack: s.capturedBlack,
		capturedWhite: s.capturedWhite,
	}
	copy(cp.cells, s.cells)
	return cp
}

// CopyFrom overwrites s with o. Both boards must have the same size.
func (s *State) CopyFrom(o *State) {
	o.assertShape()
	if s.size != o.size {
		panic(fmt.Sprintf("board: copy %dx%d into %dx%d", o.size, o.size, s.size, s.size))
	}
	copy(s.cells, o.cells)
	s.capturedBlack = o.capturedBlack
	s.capturedWhite = o.capturedWhite
}

// Equal compares stones only, counters are ignored.
func (s *State) Equal(o *State) bool {
	if o == nil || s.size != o.size {
		return false
	}
	s.assertShape()
	o.assertShape()
	for i := range s.cells {
		if s.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// Reset clears stones and counters.
func (s *State) Reset() {
	for i := range s.cells {
		s.cells[i] = game.Empty
	}
	s.capturedBlack = 0
	s.capturedWhite = 0
}

// Grid returns a copy of the board as rows indexed [y][x].
func (s *State) Grid() [][]game.Color {
	s.assertShape()
	rows := make([][]game.Color, s.size)
	for y := range rows {
		rows[y] = make([]game.Color, s.size)
		copy(rows[y], s.cells[y*s.size:(y+1)*s.size])
	}
	return rows
}

// FromGrid builds a board from rows indexed [y][x]. Ragged input panics.
func FromGrid(rows [][]game.Color) *State {
	s := New(len(rows))
	for y, row := range rows {
		if len(row) != s.size {
			panic(fmt.Sprintf("board: row %d has %d cells, want %d", y, len(row), s.size))
		}
		copy(s.cells[y*s.size:], row)
	}
	return s
}

// String draws the board with X for black, O for white and . for empty.
func (s *State) String() string {
	var sb strings.Builder
	for y := 0; y < s.size; y++ {
		for x := 0; x < s.size; x++ {
			switch s.At(game.Position{X: x, Y: y}) {
			case game.Black:
				sb.WriteByte('X')
			case game.White:
				sb.WriteByte('O')
			default:
				sb.WriteByte('.')
			}
			if x < s.size-1 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (s *State) assertShape() {
	if s.size <= 0 || len(s.cells) != s.size*s.size {
		panic(fmt.Sprintf("board: size %d does not match %d cells", s.size, len(s.cells)))
	}
}
