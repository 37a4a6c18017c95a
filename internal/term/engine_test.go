package term

import (
	"bytes"
	"io"
	"sync"
	"testing"
	"time"
)

// fakeTransport stands in for a PTY: the test feeds child output through
// feed and inspects what the engine wrote back.
type fakeTransport struct {
	out      chan []byte
	leftover []byte

	mu      sync.Mutex
	written bytes.Buffer
	resizes [][2]uint16

	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		out:    make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (f *fakeTransport) feed(s string) { f.out <- []byte(s) }

func (f *fakeTransport) Read(p []byte) (int, error) {
	if len(f.leftover) > 0 {
		n := copy(p, f.leftover)
		f.leftover = f.leftover[n:]
		return n, nil
	}
	select {
	case chunk := <-f.out:
		n := copy(p, chunk)
		f.leftover = chunk[n:]
		return n, nil
	case <-f.closed:
		return 0, io.EOF
	}
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written.Write(p)
}

func (f *fakeTransport) Resize(cols, rows uint16) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resizes = append(f.resizes, [2]uint16{cols, rows})
	return nil
}

func (f *fakeTransport) Wait() error {
	<-f.closed
	return nil
}

func (f *fakeTransport) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeTransport) writtenString() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written.String()
}

func nextEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("event channel closed unexpectedly")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestEngineEmitsStreamOrder(t *testing.T) {
	tr := newFakeTransport()
	e := NewEngine(tr, 80, 24)
	defer e.Close()

	tr.feed("\x1b]0;build ok\aall tests passed")

	if ev := nextEvent(t, e.Events()); ev.Kind != EventTitleChanged || ev.Title != "build ok" {
		t.Fatalf("first event = %+v, want title change", ev)
	}
	if ev := nextEvent(t, e.Events()); ev.Kind != EventRedraw {
		t.Fatalf("second event = %+v, want redraw", ev)
	}

	update := e.Refresh()
	if update == nil {
		t.Fatal("Refresh() = nil after output")
	}
	if got := update.Rows[0]; got != "all tests passed" {
		t.Fatalf("row 0 = %q, want %q", got, "all tests passed")
	}
}

func TestEngineCoalescesRedraws(t *testing.T) {
	tr := newFakeTransport()
	e := NewEngine(tr, 80, 24)
	defer e.Close()

	tr.feed("a")
	if ev := nextEvent(t, e.Events()); ev.Kind != EventRedraw {
		t.Fatalf("event = %+v, want redraw", ev)
	}

	// More output before the consumer refreshes must not queue further
	// redraws. The bell is a sentinel proving both chunks were scanned.
	tr.feed("b")
	tr.feed("c\a")
	if ev := nextEvent(t, e.Events()); ev.Kind != EventBell {
		t.Fatalf("event = %+v, want bell", ev)
	}
	select {
	case ev := <-e.Events():
		t.Fatalf("unexpected event before refresh: %+v", ev)
	default:
	}

	update := e.Refresh()
	if update == nil || update.Rows[0] != "abc" {
		t.Fatalf("Refresh() = %+v, want row 0 %q", update, "abc")
	}

	// After a refresh the mark is clear and new output signals again.
	tr.feed("d")
	if ev := nextEvent(t, e.Events()); ev.Kind != EventRedraw {
		t.Fatalf("event = %+v, want redraw after refresh", ev)
	}
}

func TestEngineRefreshNilWhenUnchanged(t *testing.T) {
	tr := newFakeTransport()
	e := NewEngine(tr, 80, 24)
	defer e.Close()

	if update := e.Refresh(); update != nil {
		t.Fatalf("Refresh() = %+v on pristine grid, want nil", update)
	}
}

func TestEngineWriteSetsFollow(t *testing.T) {
	tr := newFakeTransport()
	e := NewEngine(tr, 80, 24)
	defer e.Close()

	if err := e.Write([]byte("ls\r")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if got := tr.writtenString(); got != "ls\r" {
		t.Fatalf("transport received %q, want %q", got, "ls\r")
	}

	// User input forces a follow update even with no new output.
	update := e.Refresh()
	if update == nil || !update.Follow {
		t.Fatalf("Refresh() = %+v, want follow update", update)
	}
	if update := e.Refresh(); update != nil {
		t.Fatalf("second Refresh() = %+v, want nil", update)
	}
}

func TestEngineWriteNoScrollLeavesViewport(t *testing.T) {
	tr := newFakeTransport()
	e := NewEngine(tr, 80, 24)
	defer e.Close()

	reply := []byte("\x1b]4;1;rgb:ffff/0000/0000\a")
	if err := e.WriteNoScroll(reply); err != nil {
		t.Fatalf("WriteNoScroll() error = %v", err)
	}
	if got := tr.writtenString(); got != string(reply) {
		t.Fatalf("transport received %q, want %q", got, reply)
	}
	if update := e.Refresh(); update != nil {
		t.Fatalf("Refresh() = %+v after reply write, want nil", update)
	}
}

func TestEngineExitClosesEvents(t *testing.T) {
	tr := newFakeTransport()
	e := NewEngine(tr, 80, 24)

	tr.feed("bye\a")
	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	var last Event
	sawExit := false
	for ev := range e.Events() {
		last = ev
		if ev.Kind == EventExit {
			sawExit = true
		}
	}
	if !sawExit {
		t.Fatal("event stream ended without an exit event")
	}
	if last.Kind != EventExit {
		t.Fatalf("last event = %+v, want exit", last)
	}
}

func TestEngineResize(t *testing.T) {
	tr := newFakeTransport()
	e := NewEngine(tr, 80, 24)
	defer e.Close()

	if err := e.Resize(120, 40); err != nil {
		t.Fatalf("Resize() error = %v", err)
	}
	if rows, cols := e.Size(); rows != 40 || cols != 120 {
		t.Fatalf("Size() = %d x %d, want 40 x 120", rows, cols)
	}

	tr.mu.Lock()
	resizes := tr.resizes
	tr.mu.Unlock()
	if len(resizes) != 1 || resizes[0] != [2]uint16{120, 40} {
		t.Fatalf("transport resizes = %v, want [[120 40]]", resizes)
	}

	snap := e.Snapshot()
	if snap.Cols != 120 || snap.NumRows != 40 {
		t.Fatalf("Snapshot() geometry = %d x %d, want 120 x 40", snap.Cols, snap.NumRows)
	}
}

func TestEngineRendersStyledRows(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "hello", "hello"},
		{"color then default", "\x1b[31mred\x1b[0m plain", "\x1b[31mred\x1b[0m plain"},
		{"bold color to end", "\x1b[1;34mX", "\x1b[1;34mX\x1b[0m"},
		{"indexed color", "\x1b[38;5;196mhot", "\x1b[38;5;196mhot\x1b[0m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newFakeTransport()
			e := NewEngine(tr, 80, 24)
			defer e.Close()

			tr.feed(tt.input)
			if ev := nextEvent(t, e.Events()); ev.Kind != EventRedraw {
				t.Fatalf("event = %+v, want redraw", ev)
			}
			update := e.Refresh()
			if update == nil {
				t.Fatal("Refresh() = nil")
			}
			if got := update.Rows[0]; got != tt.want {
				t.Fatalf("row 0 = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEngineSnapshotSyncsBaseline(t *testing.T) {
	tr := newFakeTransport()
	e := NewEngine(tr, 80, 24)
	defer e.Close()

	tr.feed("hello")
	if ev := nextEvent(t, e.Events()); ev.Kind != EventRedraw {
		t.Fatalf("event = %+v, want redraw", ev)
	}
	if update := e.Refresh(); update == nil || update.Rows[0] != "hello" {
		t.Fatalf("Refresh() = %+v, want row 0 %q", update, "hello")
	}

	snap := e.Snapshot()
	if snap.Rows[0] != "hello" {
		t.Fatalf("snapshot row 0 = %q, want %q", snap.Rows[0], "hello")
	}

	// Snapshot re-synced the baseline, so an idle refresh stays nil.
	if update := e.Refresh(); update != nil {
		t.Fatalf("Refresh() = %+v after snapshot, want nil", update)
	}
}
