package sgf

import (
	"fmt"
	"goban/internal/domain/game"
	"strconv"
	"time"
)

// Header is the root node content of a game record.
type Header struct {
	BoardSize int
	Rule      game.RuleVariant
	Limits    game.Limits
	Date      time.Time
	Paused    bool
	Result    string
	Comment   string
}

// NewGame returns a record with only the root node.
func NewGame(h Header) *SGF {
	root := NewNode()
	root.Set("FF", "4")
	root.Set("GM", "1")
	root.Set("CA", "UTF-8")
	root.Set("AP", "goban")
	root.Set("SZ", strconv.Itoa(h.BoardSize))
	if !h.Date.IsZero() {
		root.Set("DT", h.Date.Format("2006-01-02"))
	}
	if h.Result != "" {
		root.Set("RE", h.Result)
	}
	root.Set("KM", "0")
	root.Set("RU", string(h.Rule))
	// лимиты варианта на взятие храним в собственных свойствах
	if h.Limits.CaptureLimit > 0 {
		root.Set("XCL", strconv.Itoa(h.Limits.CaptureLimit))
	}
	if h.Limits.MoveLimit > 0 {
		root.Set("XML", strconv.Itoa(h.Limits.MoveLimit))
	}
	if !h.Date.IsZero() {
		root.Set("XSA", h.Date.UTC().Format(time.RFC3339Nano))
	}
	if h.Paused {
		root.Set("XST", "paused")
	}
	if h.Comment != "" {
		root.Set("C", h.Comment)
	}
	return &SGF{Root: &GameTree{Nodes: []Node{root}}}
}

// MaxBoardSize is the largest board whose points FF[4] can encode: a-z, then A-Z.
const MaxBoardSize = 52

func coordLetter(c int) byte {
	if c < 26 {
		return byte('a' + c)
	}
	return byte('A' + c - 26)
}

func letterCoord(b byte) int {
	switch {
	case b >= 'a' && b <= 'z':
		return int(b - 'a')
	case b >= 'A' && b <= 'Z':
		return int(b-'A') + 26
	}
	return -1
}

// PointToSGF encodes p as two letters, "aa" being the top left corner.
// A pass is the empty value.
func PointToSGF(p game.Position) string {
	if p.IsPass() {
		return ""
	}
	return string([]byte{coordLetter(p.X), coordLetter(p.Y)})
}

// SGFToPoint decodes a point on a board of size. "" and, on boards up to 19,
// "tt" are passes.
func SGFToPoint(v string, size int) (game.Position, error) {
	if v == "" || (v == "tt" && size <= 19) {
		return game.PassPosition, nil
	}
	if len(v) != 2 {
		return game.Position{}, fmt.Errorf("%w: bad point %q", ErrMalformed, v)
	}
	p := game.Position{X: letterCoord(v[0]), Y: letterCoord(v[1])}
	if p.X < 0 || p.Y < 0 || p.X >= size || p.Y >= size {
		return game.Position{}, fmt.Errorf("%w: point %q outside %dx%d board", ErrMalformed, v, size, size)
	}
	return p, nil
}

func colorKey(c game.Color) string {
	if c == game.White {
		return "W"
	}
	return "B"
}

// AppendMove adds a move node to the end of the main line.
func AppendMove(s *SGF, c game.Color, p game.Position) {
	t := s.Root
	for len(t.Children) > 0 {
		t = t.Children[0]
	}
	n := NewNode()
	n.Set(colorKey(c), PointToSGF(p))
	t.Nodes = append(t.Nodes, n)
}

// SetResult writes RE on the root node.
func SetResult(s *SGF, result string) {
	if s.Root == nil || len(s.Root.Nodes) == 0 {
		return
	}
	s.Root.Nodes[0].Set("RE", result)
}

// FromRecord builds a record from an ordered move list.
func FromRecord(h Header, moves []game.RecordEntry) *SGF {
	s := NewGame(h)
	for _, m := range moves {
		AppendMove(s, m.Color, game.Position{X: m.X, Y: m.Y})
	}
	return s
}

// Info is what a parsed record carries back into a session.
type Info struct {
	BoardSize int
	Rule      game.RuleVariant
	Limits    game.Limits
	StartedAt time.Time
	Paused    bool
	Result    string
	Moves     []game.RecordEntry
}

// ReadGame extracts the board size, rule and main line moves of s.
// Setup stones (AB/AW) are not supported.
func ReadGame(s *SGF) (Info, error) {
	nodes := s.MainLine()
	if len(nodes) == 0 {
		return Info{}, fmt.Errorf("%w: empty record", ErrMalformed)
	}
	root := nodes[0]
	info := Info{BoardSize: 19, Rule: game.RuleStandard}
	if v, ok := root.Get("SZ"); ok {
		size, err := strconv.Atoi(v)
		if err != nil || size <= 0 {
			return Info{}, fmt.Errorf("%w: bad size %q", ErrMalformed, v)
		}
		info.BoardSize = size
	}
	if v, ok := root.Get("RU"); ok && game.RuleVariant(v).Valid() {
		info.Rule = game.RuleVariant(v)
	}
	info.Result, _ = root.Get("RE")
	for key, dst := range map[string]*int{"XCL": &info.Limits.CaptureLimit, "XML": &info.Limits.MoveLimit} {
		v, ok := root.Get(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Info{}, fmt.Errorf("%w: bad %s %q", ErrMalformed, key, v)
		}
		*dst = n
	}
	if v, ok := root.Get("XSA"); ok {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return Info{}, fmt.Errorf("%w: bad start time %q", ErrMalformed, v)
		}
		info.StartedAt = t
	}
	if v, ok := root.Get("XST"); ok {
		if v != "paused" {
			return Info{}, fmt.Errorf("%w: bad status %q", ErrMalformed, v)
		}
		info.Paused = true
	}
	if _, ok := root.Properties["AB"]; ok {
		return Info{}, fmt.Errorf("%w: setup stones are not supported", ErrMalformed)
	}
	if _, ok := root.Properties["AW"]; ok {
		return Info{}, fmt.Errorf("%w: setup stones are not supported", ErrMalformed)
	}

	for _, n := range nodes {
		for _, key := range []string{"B", "W"} {
			v, ok := n.Get(key)
			if !ok {
				continue
			}
			p, err := SGFToPoint(v, info.BoardSize)
			if err != nil {
				return Info{}, err
			}
			c := game.Black
			if key == "W" {
				c = game.White
			}
			info.Moves = append(info.Moves, game.RecordEntry{Color: c, X: p.X, Y: p.Y})
		}
	}
	return info, nil
}
