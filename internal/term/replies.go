package term

import (
	"fmt"

	"github.com/user/tabterm/internal/theme"
)

// Fixed answerbacks for queries that do not depend on session state.
var (
	// Primary device attributes: VT102.
	deviceAttrsReply = []byte("\x1b[?6c")
	// Secondary device attributes: VT100-class, firmware 1.0.
	deviceAttrs2Reply = []byte("\x1b[>0;10;1c")
	// Status report: terminal OK.
	statusOKReply = []byte("\x1b[0n")
)

// ColorReply builds the OSC reply for a color query. Indexed colors are
// answered with OSC 4; the foreground/background/cursor slots with OSC
// 10/11/12. The query's terminator is echoed back.
func ColorReply(index int, c theme.RGB, terminator string) []byte {
	switch index {
	case theme.IndexForeground:
		return []byte(fmt.Sprintf("\x1b]10;%s%s", c.X11String(), terminator))
	case theme.IndexBackground:
		return []byte(fmt.Sprintf("\x1b]11;%s%s", c.X11String(), terminator))
	case theme.IndexCursor:
		return []byte(fmt.Sprintf("\x1b]12;%s%s", c.X11String(), terminator))
	default:
		return []byte(fmt.Sprintf("\x1b]4;%d;%s%s", index, c.X11String(), terminator))
	}
}

// SizeReply builds the CSI 8 report answering a text area size query.
func SizeReply(rows, cols int) []byte {
	return []byte(fmt.Sprintf("\x1b[8;%d;%dt", rows, cols))
}
