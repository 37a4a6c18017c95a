// Package app hosts the control loop: the single consumer of the shared
// session event channel and the sole mutator of the tab model. UI
// commands and multiplexed session events both arrive as messages; the
// loop interprets them, drives sessions, and derives presentation
// state.
package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/user/tabterm/internal/config"
	"github.com/user/tabterm/internal/db"
	"github.com/user/tabterm/internal/tabs"
	"github.com/user/tabterm/internal/term"
	"github.com/user/tabterm/internal/theme"
)

const (
	// DefaultTabTitle is the placeholder title of a fresh tab, restored
	// whenever the child resets its title.
	DefaultTabTitle = "New Terminal"

	appName = "TabTerm"

	commandBuffer = 64
)

// Terminal is the per-session surface the control loop drives. It is
// implemented by *session.Session; tests substitute fakes.
type Terminal interface {
	Colors() theme.Palette
	Size() (rows, cols int)
	Write(p []byte) error
	WriteNoScroll(p []byte) error
	Refresh() *term.ScreenUpdate
	Snapshot() *term.ScreenSnapshot
	Resize(cols, rows uint16) error
	Close() error
}

// SpawnFunc creates the terminal backing a new tab, wired to forward
// its events, tagged with id, into the given channel.
type SpawnFunc func(id string, events chan<- term.Envelope, palette theme.Palette) (Terminal, error)

type commandKind int

const (
	cmdNewTab commandKind = iota
	cmdActivate
	cmdClose
	cmdInput
	cmdResize
)

type command struct {
	kind commandKind
	id   string
	data []byte
	cols uint16
	rows uint16
}

// App is the control loop state. All fields except the renderable
// mirror are owned by the Run goroutine exclusively.
type App struct {
	cfg       *config.Config
	themes    *theme.Registry
	spawn     SpawnFunc
	presenter Presenter
	history   *db.TabRepo

	tabModel  *tabs.Model
	terminals map[string]Terminal

	commands chan command
	// events is the shared multiplexer channel; eventTx is nil until
	// Run has made the send endpoint available.
	events  chan term.Envelope
	eventTx chan<- term.Envelope

	headerTitle string
	windowTitle string

	// renderMu guards the mirror that renderers read without going
	// through the loop; session internals have their own lock.
	renderMu     sync.RWMutex
	renderables  map[string]Terminal
	renderActive string

	done     chan struct{}
	doneOnce sync.Once
}

// New assembles the control loop. history and presenter may be nil.
func New(cfg *config.Config, themes *theme.Registry, spawn SpawnFunc, presenter Presenter, history *db.TabRepo) *App {
	return &App{
		cfg:         cfg,
		themes:      themes,
		spawn:       spawn,
		presenter:   presenter,
		history:     history,
		tabModel:    tabs.NewModel(),
		terminals:   make(map[string]Terminal),
		commands:    make(chan command, commandBuffer),
		renderables: make(map[string]Terminal),
		done:        make(chan struct{}),
	}
}

// Done closes when the last tab has been closed: the window-close
// signal for the process owner.
func (a *App) Done() <-chan struct{} { return a.done }

// NewTab requests a new terminal tab.
func (a *App) NewTab() { a.commands <- command{kind: cmdNewTab} }

// Activate requests activation of the given tab.
func (a *App) Activate(id string) { a.commands <- command{kind: cmdActivate, id: id} }

// CloseTab requests closing the given tab.
func (a *App) CloseTab(id string) { a.commands <- command{kind: cmdClose, id: id} }

// Input delivers user keystrokes to the given tab.
func (a *App) Input(id string, data []byte) {
	a.commands <- command{kind: cmdInput, id: id, data: data}
}

// Resize changes the given tab's viewport geometry.
func (a *App) Resize(id string, cols, rows uint16) {
	a.commands <- command{kind: cmdResize, id: id, cols: cols, rows: rows}
}

// Run consumes commands and multiplexed session events until ctx is
// cancelled or the last tab closes. It opens the first tab on startup.
func (a *App) Run(ctx context.Context) {
	buffer := a.cfg.EventBuffer
	if buffer <= 0 {
		buffer = config.DefaultEventBuffer
	}
	a.events = make(chan term.Envelope, buffer)
	a.eventTx = a.events

	a.recomputeTitles()
	a.presentTabs()
	a.handleNewTab()

	for {
		select {
		case <-ctx.Done():
			a.closeAllSessions()
			return
		case cmd := <-a.commands:
			a.handleCommand(cmd)
		case env, ok := <-a.events:
			if !ok {
				// Only the loop may close this channel, and it never
				// does while running. A closed channel here means the
				// multiplexer invariant is broken beyond recovery.
				panic("app: session event channel closed")
			}
			a.handleEvent(env)
		}

		select {
		case <-a.done:
			a.closeAllSessions()
			return
		default:
		}
	}
}

// SnapshotActive returns the active session id and its full grid state,
// read directly behind the session's own lock. Safe to call from any
// goroutine; returns "" and nil when no tab is active.
func (a *App) SnapshotActive() (string, *term.ScreenSnapshot) {
	a.renderMu.RLock()
	id := a.renderActive
	t := a.renderables[id]
	a.renderMu.RUnlock()

	if t == nil {
		return "", nil
	}
	return id, t.Snapshot()
}

func (a *App) trackRenderable(id string, t Terminal) {
	a.renderMu.Lock()
	a.renderables[id] = t
	a.renderActive = a.tabModel.Active()
	a.renderMu.Unlock()
}

func (a *App) untrackRenderable(id string) {
	a.renderMu.Lock()
	delete(a.renderables, id)
	a.renderActive = a.tabModel.Active()
	a.renderMu.Unlock()
}

func (a *App) syncRenderActive() {
	a.renderMu.Lock()
	a.renderActive = a.tabModel.Active()
	a.renderMu.Unlock()
}

func (a *App) closeAllSessions() {
	for id, t := range a.terminals {
		if err := t.Close(); err != nil {
			slog.Debug("session close failed", "session_id", id, "error", err)
		}
		delete(a.terminals, id)
		a.untrackRenderable(id)
	}
}

// recomputeTitles derives the header and window labels from the active
// tab. Pure derivation, no side effects.
func (a *App) recomputeTitles() {
	if title, ok := a.tabModel.ActiveTitle(); ok {
		a.headerTitle = title
		a.windowTitle = title + " — " + appName
		return
	}
	a.headerTitle = ""
	a.windowTitle = appName
}

// HeaderTitle returns the last derived header label.
func (a *App) HeaderTitle() string { return a.headerTitle }

// WindowTitle returns the last derived window label.
func (a *App) WindowTitle() string { return a.windowTitle }

func (a *App) presentTabs() {
	if a.presenter == nil {
		return
	}
	a.presenter.PresentTabs(TabsState{
		Tabs:        a.tabModel.Tabs(),
		ActiveID:    a.tabModel.Active(),
		HeaderTitle: a.headerTitle,
		WindowTitle: a.windowTitle,
	})
}

func (a *App) signalDone() {
	a.doneOnce.Do(func() {
		if a.presenter != nil {
			a.presenter.PresentShutdown()
		}
		close(a.done)
	})
}
