// Package term is the terminal emulation facade: it owns the cell grid
// (via vt10x), extracts session events from the child's output stream,
// and builds the synthetic replies that answer terminal queries.
package term

// EventKind distinguishes the kind of event produced by an Engine.
type EventKind int

const (
	// EventBell indicates the child rang the terminal bell.
	EventBell EventKind = iota
	// EventColorQuery asks for a palette color; the reply must be
	// written back through the no-scroll input path.
	EventColorQuery
	// EventSizeQuery asks for the text area size in cells.
	EventSizeQuery
	// EventRawWrite carries a ready-made reply (device attributes,
	// status reports) to deliver verbatim via the no-scroll path.
	EventRawWrite
	// EventExit indicates the child process has exited.
	EventExit
	// EventTitleChanged carries a new display title.
	EventTitleChanged
	// EventTitleReset asks for the display title to return to its default.
	EventTitleReset
	// EventRedraw signals that pending output should be applied to the
	// grid. Multiple signals may be coalesced before the next refresh.
	EventRedraw
)

func (k EventKind) String() string {
	switch k {
	case EventBell:
		return "bell"
	case EventColorQuery:
		return "color-query"
	case EventSizeQuery:
		return "size-query"
	case EventRawWrite:
		return "raw-write"
	case EventExit:
		return "exit"
	case EventTitleChanged:
		return "title-changed"
	case EventTitleReset:
		return "title-reset"
	case EventRedraw:
		return "redraw"
	default:
		return "unknown"
	}
}

// Event is a single notification emitted by an Engine. It is a tagged
// variant: Kind selects which payload fields are meaningful.
type Event struct {
	Kind EventKind

	// Title is set for EventTitleChanged.
	Title string
	// Data is set for EventRawWrite.
	Data []byte
	// ColorIndex is set for EventColorQuery. Values below 256 address
	// the indexed palette; IndexForeground and friends address the
	// special slots.
	ColorIndex int
	// Terminator is the control terminator of the originating query,
	// echoed back in the reply so the child can correlate it.
	Terminator string
}

// Envelope tags an event with the session that emitted it, for routing
// through the shared multiplexer channel.
type Envelope struct {
	SessionID string
	Event     Event
}
