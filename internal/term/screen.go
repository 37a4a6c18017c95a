package term

import (
	"fmt"
	"strings"

	"github.com/hinshun/vt10x"
)

// Glyph mode bits (matching vt10x's unexported constants).
const (
	modeUnderline = 2
	modeBold      = 4
	modeItalic    = 16
)

// ScreenUpdate holds rows changed since the previous refresh. Follow is
// set when user input asked the viewport to snap back to live output.
type ScreenUpdate struct {
	Rows      map[int]string `json:"rows"`
	CursorRow int            `json:"cursor_row"`
	CursorCol int            `json:"cursor_col"`
	Follow    bool           `json:"follow,omitempty"`
}

// ScreenSnapshot holds the full grid state.
type ScreenSnapshot struct {
	Rows      map[int]string `json:"rows"`
	Cols      int            `json:"cols"`
	NumRows   int            `json:"num_rows"`
	CursorRow int            `json:"cursor_row"`
	CursorCol int            `json:"cursor_col"`
}

type cellStyle struct {
	fg, bg    vt10x.Color
	bold      bool
	italic    bool
	underline bool
}

func defaultCellStyle() cellStyle {
	return cellStyle{fg: vt10x.DefaultFG, bg: vt10x.DefaultBG}
}

func styleOf(g vt10x.Glyph) cellStyle {
	return cellStyle{
		fg:        g.FG,
		bg:        g.BG,
		bold:      g.Mode&modeBold != 0,
		italic:    g.Mode&modeItalic != 0,
		underline: g.Mode&modeUnderline != 0,
	}
}

// renderRow renders one grid row as text with ANSI SGR styling only, no
// cursor movement. Must be called with the vt10x terminal locked.
func renderRow(t vt10x.Terminal, cols, y int) string {
	lastCol := -1
	for x := cols - 1; x >= 0; x-- {
		g := t.Cell(x, y)
		ch := g.Char
		if ch == 0 {
			ch = ' '
		}
		if ch != ' ' || styleOf(g) != defaultCellStyle() {
			lastCol = x
			break
		}
	}
	if lastCol < 0 {
		return ""
	}

	var b strings.Builder
	cur := defaultCellStyle()
	styled := false

	for x := 0; x <= lastCol; x++ {
		g := t.Cell(x, y)
		next := styleOf(g)
		if next != cur {
			b.WriteString("\x1b[")
			b.WriteString(strings.Join(sgrParams(cur, next), ";"))
			b.WriteByte('m')
			cur = next
			styled = true
		}

		ch := g.Char
		if ch == 0 {
			ch = ' '
		}
		b.WriteRune(ch)
	}

	if styled && cur != defaultCellStyle() {
		b.WriteString("\x1b[0m")
	}
	return b.String()
}

// sgrParams computes the SGR parameters transitioning from one style to
// the next. Attribute removal resets first, then re-applies.
func sgrParams(cur, next cellStyle) []string {
	var params []string

	needReset := (!next.bold && cur.bold) || (!next.italic && cur.italic) ||
		(!next.underline && cur.underline) ||
		(next.fg == vt10x.DefaultFG && cur.fg != vt10x.DefaultFG) ||
		(next.bg == vt10x.DefaultBG && cur.bg != vt10x.DefaultBG)
	if needReset {
		params = append(params, "0")
		cur = defaultCellStyle()
	}

	if next.bold && !cur.bold {
		params = append(params, "1")
	}
	if next.italic && !cur.italic {
		params = append(params, "3")
	}
	if next.underline && !cur.underline {
		params = append(params, "4")
	}
	if next.fg != cur.fg {
		params = append(params, colorSGR(next.fg, false))
	}
	if next.bg != cur.bg {
		params = append(params, colorSGR(next.bg, true))
	}
	if len(params) == 0 {
		params = append(params, "0")
	}
	return params
}

// colorSGR returns the SGR parameter selecting the given color.
func colorSGR(c vt10x.Color, background bool) string {
	base, ext, def := 30, 38, "39"
	if background {
		base, ext, def = 40, 48, "49"
	}
	if (!background && c == vt10x.DefaultFG) || (background && c == vt10x.DefaultBG) {
		return def
	}
	n := uint32(c)
	switch {
	case n < 8:
		return fmt.Sprintf("%d", base+int(n))
	case n < 16:
		return fmt.Sprintf("%d", base+60+int(n)-8)
	case n < 256:
		return fmt.Sprintf("%d;5;%d", ext, n)
	default:
		return fmt.Sprintf("%d;2;%d;%d;%d", ext, (n>>16)&0xFF, (n>>8)&0xFF, n&0xFF)
	}
}
