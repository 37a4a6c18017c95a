package term

import (
	"sync"

	"github.com/hinshun/vt10x"
)

const (
	engineEventBuffer = 1024
	readBufSize       = 4096
)

// Transport is the byte-stream endpoint pair of a pseudo-terminal.
type Transport interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Resize(cols, rows uint16) error
	Wait() error
	Close() error
}

// Engine drives one terminal emulation: it reads the transport, extracts
// events, and maintains the cell grid. Output bytes are buffered until
// Refresh applies them to the grid, so grid reads never race the read
// pump.
//
// The engine's event channel closes after the child exits; EventExit is
// always the last event delivered.
type Engine struct {
	tr     Transport
	events chan Event

	mu            sync.Mutex
	vt            vt10x.Terminal
	pending       []byte
	redrawPending bool
	follow        bool
	cols, rows    int
	prevRows      []string
}

// NewEngine starts an engine over the given transport. The grid is
// sized to cols x rows; the read pump starts immediately.
func NewEngine(tr Transport, cols, rows int) *Engine {
	e := &Engine{
		tr:       tr,
		events:   make(chan Event, engineEventBuffer),
		vt:       vt10x.New(vt10x.WithSize(cols, rows)),
		cols:     cols,
		rows:     rows,
		prevRows: make([]string, rows),
	}
	go e.readPump()
	return e
}

// Events returns the engine's event stream. The channel closes after
// EventExit has been delivered.
func (e *Engine) Events() <-chan Event { return e.events }

// readPump owns all sends on e.events, so channel close cannot race a
// send. Sends block when the buffer fills; that backpressure eventually
// stalls the child through the PTY, never dropping events.
func (e *Engine) readPump() {
	var sc scanner
	emit := func(ev Event) { e.events <- ev }

	buf := make([]byte, readBufSize)
	for {
		n, err := e.tr.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			sc.scan(chunk, emit)

			e.mu.Lock()
			e.pending = append(e.pending, chunk...)
			needRedraw := !e.redrawPending
			e.redrawPending = true
			e.mu.Unlock()

			if needRedraw {
				emit(Event{Kind: EventRedraw})
			}
		}
		if err != nil {
			break
		}
	}

	_ = e.tr.Wait()
	e.events <- Event{Kind: EventExit}
	close(e.events)
}

// Write sends user input to the child. The viewport follows output
// again on the next refresh, mirroring the scroll-to-bottom behavior of
// typing into a scrolled-back terminal.
func (e *Engine) Write(p []byte) error {
	e.mu.Lock()
	e.follow = true
	e.mu.Unlock()

	_, err := e.tr.Write(p)
	return err
}

// WriteNoScroll sends input to the child without any viewport side
// effect. Used exclusively for synthetic query replies, which must not
// perturb what the user is viewing.
func (e *Engine) WriteNoScroll(p []byte) error {
	_, err := e.tr.Write(p)
	return err
}

// Refresh applies buffered output to the grid and returns the changed
// rows, or nil when nothing changed. It clears the pending-redraw mark
// so the read pump will signal again on new output.
func (e *Engine) Refresh() *ScreenUpdate {
	e.mu.Lock()
	defer e.mu.Unlock()

	data := e.pending
	e.pending = nil
	e.redrawPending = false
	follow := e.follow
	e.follow = false

	if len(data) > 0 {
		_, _ = e.vt.Write(data)
	}

	update := &ScreenUpdate{
		Rows:   make(map[int]string),
		Follow: follow,
	}
	e.vt.Lock()
	cursor := e.vt.Cursor()
	update.CursorRow = cursor.Y
	update.CursorCol = cursor.X
	for y := 0; y < e.rows; y++ {
		row := renderRow(e.vt, e.cols, y)
		if row != e.prevRows[y] {
			update.Rows[y] = row
			e.prevRows[y] = row
		}
	}
	e.vt.Unlock()

	if len(update.Rows) == 0 && !follow {
		return nil
	}
	return update
}

// Snapshot returns the full grid state and syncs the diff baseline.
func (e *Engine) Snapshot() *ScreenSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := &ScreenSnapshot{
		Rows:    make(map[int]string),
		Cols:    e.cols,
		NumRows: e.rows,
	}
	e.vt.Lock()
	cursor := e.vt.Cursor()
	snap.CursorRow = cursor.Y
	snap.CursorCol = cursor.X
	for y := 0; y < e.rows; y++ {
		row := renderRow(e.vt, e.cols, y)
		snap.Rows[y] = row
		e.prevRows[y] = row
	}
	e.vt.Unlock()

	return snap
}

// Size returns the current grid geometry in cells.
func (e *Engine) Size() (rows, cols int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rows, e.cols
}

// Resize changes both the grid and the PTY window size.
func (e *Engine) Resize(cols, rows uint16) error {
	e.mu.Lock()
	e.vt.Resize(int(cols), int(rows))
	e.cols = int(cols)
	e.rows = int(rows)
	e.prevRows = make([]string, rows)
	e.mu.Unlock()

	return e.tr.Resize(cols, rows)
}

// Close tears down the transport. The read pump observes the closed
// transport, emits EventExit and closes the event channel on its own.
func (e *Engine) Close() error {
	return e.tr.Close()
}
