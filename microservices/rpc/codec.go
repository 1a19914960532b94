package rpc

import (
	"errors"
	"fmt"
	"goban/internal/ai"
	"goban/internal/board"
	"goban/internal/domain/game"

	"google.golang.org/protobuf/types/known/structpb"
)

var ErrBadMessage = errors.New("malformed move service message")

// Доска передаётся строками вида "X.O..", по одной на ряд.
func encodeBoard(b *board.State) []any {
	rows := make([]any, 0, b.Size())
	for _, row := range b.Grid() {
		line := make([]byte, len(row))
		for x, c := range row {
			switch c {
			case game.Black:
				line[x] = 'X'
			case game.White:
				line[x] = 'O'
			default:
				line[x] = '.'
			}
		}
		rows = append(rows, string(line))
	}
	return rows
}

func decodeBoard(v *structpb.Value) (*board.State, error) {
	list := v.GetListValue()
	if list == nil || len(list.Values) == 0 {
		return nil, fmt.Errorf("%w: board is missing", ErrBadMessage)
	}
	size := len(list.Values)
	grid := make([][]game.Color, size)
	for y, rv := range list.Values {
		line := rv.GetStringValue()
		if len(line) != size {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrBadMessage, y, len(line), size)
		}
		grid[y] = make([]game.Color, size)
		for x := 0; x < size; x++ {
			switch line[x] {
			case 'X':
				grid[y][x] = game.Black
			case 'O':
				grid[y][x] = game.White
			case '.':
			default:
				return nil, fmt.Errorf("%w: bad cell %q at %d,%d", ErrBadMessage, line[x], x, y)
			}
		}
	}
	return board.FromGrid(grid), nil
}

func encodeMove(m game.Move) map[string]any {
	captured := make([]any, 0, len(m.Captured))
	for _, p := range m.Captured {
		captured = append(captured, []any{p.X, p.Y})
	}
	return map[string]any{
		"x":        m.Position.X,
		"y":        m.Position.Y,
		"color":    m.Color.String(),
		"captured": captured,
	}
}

func decodeMove(v *structpb.Value) (game.Move, error) {
	fields := v.GetStructValue().GetFields()
	if fields == nil {
		return game.Move{}, fmt.Errorf("%w: move is not an object", ErrBadMessage)
	}
	c, err := game.ParseColor(fields["color"].GetStringValue())
	if err != nil {
		return game.Move{}, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	m := game.Move{
		Position: game.Position{X: int(fields["x"].GetNumberValue()), Y: int(fields["y"].GetNumberValue())},
		Color:    c,
	}
	for _, pv := range fields["captured"].GetListValue().GetValues() {
		xy := pv.GetListValue().GetValues()
		if len(xy) != 2 {
			return game.Move{}, fmt.Errorf("%w: captured point needs two coordinates", ErrBadMessage)
		}
		m.Captured = append(m.Captured, game.Position{X: int(xy[0].GetNumberValue()), Y: int(xy[1].GetNumberValue())})
	}
	return m, nil
}

// EncodeRequest packs a selector request into a Struct.
func EncodeRequest(req ai.Request) (*structpb.Struct, error) {
	if req.Board == nil {
		return nil, fmt.Errorf("%w: board is missing", ErrBadMessage)
	}
	history := make([]any, 0, len(req.History))
	for _, m := range req.History {
		history = append(history, encodeMove(m))
	}
	fields := map[string]any{
		"board":          encodeBoard(req.Board),
		"captured_black": req.Board.CapturedBlack(),
		"captured_white": req.Board.CapturedWhite(),
		"color":          req.Color.String(),
		"tier":           string(req.Tier),
		"history":        history,
	}
	if req.Previous != nil {
		fields["previous"] = encodeBoard(req.Previous)
	}
	return structpb.NewStruct(fields)
}

// DecodeRequest is the inverse of EncodeRequest.
func DecodeRequest(s *structpb.Struct) (ai.Request, error) {
	fields := s.GetFields()
	b, err := decodeBoard(fields["board"])
	if err != nil {
		return ai.Request{}, err
	}
	b.SetCaptured(int(fields["captured_black"].GetNumberValue()), int(fields["captured_white"].GetNumberValue()))

	c, err := game.ParseColor(fields["color"].GetStringValue())
	if err != nil {
		return ai.Request{}, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	tier, err := ai.ParseTier(fields["tier"].GetStringValue())
	if err != nil {
		return ai.Request{}, err
	}
	req := ai.Request{Board: b, Color: c, Tier: tier}

	if pv, ok := fields["previous"]; ok {
		prev, err := decodeBoard(pv)
		if err != nil {
			return ai.Request{}, err
		}
		if prev.Size() != b.Size() {
			return ai.Request{}, fmt.Errorf("%w: previous board is %dx%d", ErrBadMessage, prev.Size(), prev.Size())
		}
		req.Previous = prev
	}
	for _, mv := range fields["history"].GetListValue().GetValues() {
		m, err := decodeMove(mv)
		if err != nil {
			return ai.Request{}, err
		}
		req.History = append(req.History, m)
	}
	return req, nil
}

func EncodeSuggestion(s ai.Suggestion) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"x":          s.Position.X,
		"y":          s.Position.Y,
		"pass":       s.Pass,
		"confidence": s.Confidence,
		"rationale":  s.Rationale,
		"delay_ms":   s.Delay.Milliseconds(),
	})
}

func DecodeSuggestion(s *structpb.Struct) ai.Suggestion {
	f := s.GetFields()
	sug := ai.Suggestion{
		Position:   game.Position{X: int(f["x"].GetNumberValue()), Y: int(f["y"].GetNumberValue())},
		Pass:       f["pass"].GetBoolValue(),
		Confidence: f["confidence"].GetNumberValue(),
		Rationale:  f["rationale"].GetStringValue(),
	}
	sug.Delay = msToDuration(f["delay_ms"].GetNumberValue())
	if sug.Pass {
		sug.Position = game.PassPosition
	}
	return sug
}
