// Package session binds one terminal engine to a tab: it owns the PTY
// and the engine for its lifetime, holds the palette resolved at
// creation, and forwards engine events into the shared multiplexer
// channel tagged with the session id.
package session

import (
	"fmt"

	"github.com/user/tabterm/internal/pty"
	"github.com/user/tabterm/internal/term"
	"github.com/user/tabterm/internal/theme"
)

// Config describes the child process for a new session.
type Config struct {
	Command []string
	Dir     string
	// Env entries override the inherited environment; the terminal
	// type (TERM) is expected to be injected here.
	Env  []string
	Cols uint16
	Rows uint16
}

// Session is one tab's runtime state: emulation engine, PTY and
// resolved palette. The palette is immutable after creation; grid and
// viewport state is guarded by the engine's per-session lock, which is
// scoped to single state changes and never held across PTY I/O.
type Session struct {
	id      string
	eng     *term.Engine
	palette theme.Palette
}

// New spawns the child process and starts forwarding engine events into
// the shared channel, tagged with id. A spawn failure is reported
// upward; nothing is retried.
func New(id string, events chan<- term.Envelope, cfg Config, palette theme.Palette) (*Session, error) {
	handle, err := pty.Spawn(pty.SpawnOptions{
		Argv: cfg.Command,
		Dir:  cfg.Dir,
		Env:  cfg.Env,
		Cols: cfg.Cols,
		Rows: cfg.Rows,
	})
	if err != nil {
		return nil, fmt.Errorf("session %s: spawn: %w", id, err)
	}

	s := &Session{
		id:      id,
		eng:     term.NewEngine(handle, int(cfg.Cols), int(cfg.Rows)),
		palette: palette,
	}
	go s.forward(events)
	return s, nil
}

// forward drains the engine's event stream into the shared channel.
// Sends block when the consumer falls behind; that is the multiplexer's
// backpressure boundary. The goroutine exits when the engine's channel
// closes after child exit, whether or not the session is still
// registered.
func (s *Session) forward(events chan<- term.Envelope) {
	for ev := range s.eng.Events() {
		events <- term.Envelope{SessionID: s.id, Event: ev}
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Colors returns the palette resolved at creation.
func (s *Session) Colors() theme.Palette { return s.palette }

// Size returns the viewport geometry in cells.
func (s *Session) Size() (rows, cols int) { return s.eng.Size() }

// Write appends raw input to the PTY with normal view semantics.
func (s *Session) Write(p []byte) error { return s.eng.Write(p) }

// WriteNoScroll appends raw input without any viewport side effect.
// Query replies go through here so answering never perturbs the view.
func (s *Session) WriteNoScroll(p []byte) error { return s.eng.WriteNoScroll(p) }

// Refresh applies pending output to the grid and returns the changed
// rows, or nil.
func (s *Session) Refresh() *term.ScreenUpdate { return s.eng.Refresh() }

// Snapshot returns the full grid state.
func (s *Session) Snapshot() *term.ScreenSnapshot { return s.eng.Snapshot() }

// Resize changes the viewport geometry.
func (s *Session) Resize(cols, rows uint16) error { return s.eng.Resize(cols, rows) }

// Close tears down the PTY. The forwarder drains remaining events and
// exits on its own once the engine observes the child exit.
func (s *Session) Close() error { return s.eng.Close() }
