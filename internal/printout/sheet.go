package printout

import (
	"fmt"
	"goban/internal/domain/game"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Sheet is everything printed on a game sheet.
type Sheet struct {
	ID            string
	Rule          game.RuleVariant
	Board         [][]game.Color
	Moves         []game.RecordEntry
	BlackCaptures int
	WhiteCaptures int
	Result        string
}

const (
	boardWidth   = 150.0 // мм
	marginLeft   = 30.0
	marginTop    = 35.0
	movesPerLine = 10
)

// columnLabels skips I, as on real boards.
const columnLabels = "ABCDEFGHJKLMNOPQRSTUVWXYZ"

// WriteGameSheet renders s as a one page A4 PDF: header, final position and the
// move list.
func WriteGameSheet(w io.Writer, s Sheet) error {
	size := len(s.Board)
	if size == 0 {
		return fmt.Errorf("printout: empty board")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Game "+s.ID, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, fmt.Sprintf("Game %s", s.ID))
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	result := s.Result
	if result == "" {
		result = "in progress"
	}
	pdf.Cell(0, 6, fmt.Sprintf("%dx%d, %s rules, result: %s, captures B %d / W %d",
		size, size, s.Rule, result, s.BlackCaptures, s.WhiteCaptures))

	drawBoard(pdf, s.Board)

	pdf.SetY(marginTop + boardWidth + 12)
	pdf.SetFont("Courier", "", 9)
	for _, line := range moveLines(s.Moves, size) {
		pdf.MultiCell(0, 4.5, line, "", "L", false)
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

func drawBoard(pdf *gofpdf.Fpdf, grid [][]game.Color) {
	size := len(grid)
	step := boardWidth / float64(max(size-1, 1))

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.2)
	for i := 0; i < size; i++ {
		offset := float64(i) * step
		pdf.Line(marginLeft, marginTop+offset, marginLeft+float64(size-1)*step, marginTop+offset)
		pdf.Line(marginLeft+offset, marginTop, marginLeft+offset, marginTop+float64(size-1)*step)
	}

	pdf.SetFont("Helvetica", "", 7)
	for i := 0; i < size && i < len(columnLabels); i++ {
		offset := float64(i) * step
		pdf.Text(marginLeft+offset-1, marginTop-3, string(columnLabels[i]))
		pdf.Text(marginLeft-8, marginTop+offset+1, fmt.Sprintf("%d", size-i))
	}

	radius := step * 0.45
	for y, row := range grid {
		for x, c := range row {
			if c == game.Empty {
				continue
			}
			cx, cy := marginLeft+float64(x)*step, marginTop+float64(y)*step
			if c == game.Black {
				pdf.SetFillColor(0, 0, 0)
			} else {
				pdf.SetFillColor(255, 255, 255)
			}
			pdf.Circle(cx, cy, radius, "FD")
		}
	}
}

// moveLines lists the moves in board coordinates, "D4" style, ten per line.
func moveLines(moves []game.RecordEntry, size int) []string {
	var (
		lines []string
		sb    strings.Builder
	)
	for i, m := range moves {
		if i%movesPerLine == 0 && i > 0 {
			lines = append(lines, sb.String())
			sb.Reset()
		}
		fmt.Fprintf(&sb, "%3d.%s %-4s ", i+1, colorMark(m.Color), Coordinate(game.Position{X: m.X, Y: m.Y}, size))
	}
	if sb.Len() > 0 {
		lines = append(lines, sb.String())
	}
	return lines
}

func colorMark(c game.Color) string {
	if c == game.White {
		return "W"
	}
	return "B"
}

// Coordinate formats p the way players read boards: column letter without I and
// row counted from the bottom.
func Coordinate(p game.Position, size int) string {
	if p.IsPass() {
		return "pass"
	}
	if p.X < 0 || p.X >= len(columnLabels) {
		return p.String()
	}
	return fmt.Sprintf("%c%d", columnLabels[p.X], size-p.Y)
}
