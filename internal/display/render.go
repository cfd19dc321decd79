package display

import (
	"fmt"
	"io"
	"strings"

	"batterybots/internal/scape"
)

// Legend lists the map glyphs in display order.
const Legend = "B - Batteries\n" +
	"S - Start position of robot\n" +
	"E - End position of robot\n" +
	"* - Places visited by the robot\n" +
	"x - Places where a battery was picked up\n" +
	"s - Start position, if the robot ends at the same place\n"

func Glyph(state scape.CellState) byte {
	switch state {
	case scape.CellBattery:
		return 'B'
	case scape.CellVisited:
		return '*'
	case scape.CellBatteryCollected:
		return 'x'
	case scape.CellStart:
		return 'S'
	case scape.CellEnd:
		return 'E'
	case scape.CellStartEnd:
		return 's'
	default:
		return ' '
	}
}

// RenderGrid draws grid inside a '_' and '|' border, one glyph per cell
// followed by a space.
func RenderGrid(w io.Writer, grid *scape.Grid) error {
	if grid == nil {
		return fmt.Errorf("grid is required")
	}
	inner := 2*grid.Cols() + 1
	var b strings.Builder
	b.WriteString(" " + strings.Repeat("_", inner) + " \n")
	for r := 0; r < grid.Rows(); r++ {
		b.WriteString("| ")
		for _, state := range grid.Row(r) {
			b.WriteByte(Glyph(state))
			b.WriteByte(' ')
		}
		b.WriteString("|\n")
	}
	b.WriteString("|" + strings.Repeat("_", inner) + "|\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// MapString is RenderGrid into a string. A nil grid renders empty.
func MapString(grid *scape.Grid) string {
	if grid == nil {
		return ""
	}
	var b strings.Builder
	_ = RenderGrid(&b, grid)
	return b.String()
}
