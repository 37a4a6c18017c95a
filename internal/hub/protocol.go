package hub

// TabInfo is one tab strip entry as shown to clients.
type TabInfo struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Closable bool   `json:"closable"`
}

// TabsMessage carries the full tab strip plus the derived titles.
type TabsMessage struct {
	Type        string    `json:"type"`
	List        []TabInfo `json:"list"`
	Active      string    `json:"active"`
	HeaderTitle string    `json:"header_title"`
	WindowTitle string    `json:"window_title"`
}

// ScreenMessage carries grid rows for one tab. Full snapshots replace
// the client's view; partial updates patch changed rows only.
type ScreenMessage struct {
	Type      string         `json:"type"`
	Tab       string         `json:"tab"`
	Full      bool           `json:"full,omitempty"`
	Rows      map[int]string `json:"rows"`
	Cols      int            `json:"cols,omitempty"`
	NumRows   int            `json:"num_rows,omitempty"`
	CursorRow int            `json:"cursor_row"`
	CursorCol int            `json:"cursor_col"`
	Follow    bool           `json:"follow,omitempty"`
}

// BellMessage notifies clients that a tab rang the bell.
type BellMessage struct {
	Type string `json:"type"`
	Tab  string `json:"tab"`
}

// ShutdownMessage tells clients the last tab closed and the server is
// going away.
type ShutdownMessage struct {
	Type string `json:"type"`
}

// ErrorMessage reports a rejected client message.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ClientMessage is the single inbound message shape; Type selects which
// fields are read.
type ClientMessage struct {
	Type string `json:"type"`
	Tab  string `json:"tab,omitempty"`
	Keys string `json:"keys,omitempty"`
	Cols int    `json:"cols,omitempty"`
	Rows int    `json:"rows,omitempty"`
}
