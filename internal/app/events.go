package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/user/tabterm/internal/db"
	"github.com/user/tabterm/internal/term"
)

const historyTimeout = 2 * time.Second

func (a *App) handleCommand(cmd command) {
	switch cmd.kind {
	case cmdNewTab:
		a.handleNewTab()

	case cmdActivate:
		// Activating an absent id is expected churn (a client clicked
		// a tab that just closed), not an error.
		if !a.tabModel.Contains(cmd.id) {
			return
		}
		a.tabModel.Activate(cmd.id)
		a.syncRenderActive()
		a.recomputeTitles()
		a.presentTabs()
		a.presentActiveSnapshot()

	case cmdClose:
		a.closeTab(cmd.id)

	case cmdInput:
		if t, ok := a.terminals[cmd.id]; ok {
			if err := t.Write(cmd.data); err != nil {
				slog.Debug("session write failed", "session_id", cmd.id, "error", err)
			}
		}

	case cmdResize:
		if t, ok := a.terminals[cmd.id]; ok {
			if err := t.Resize(cmd.cols, cmd.rows); err != nil {
				slog.Debug("session resize failed", "session_id", cmd.id, "error", err)
			}
		}
	}
}

func (a *App) handleNewTab() {
	if a.eventTx == nil {
		slog.Warn("tab requested before event channel is ready")
		return
	}

	palette, ok := a.themes.Palette(a.cfg.Theme)
	if !ok {
		slog.Error("failed to find color scheme", "theme", a.cfg.Theme)
		return
	}

	id := a.tabModel.Insert(DefaultTabTitle)
	t, err := a.spawn(id, a.eventTx, palette)
	if err != nil {
		slog.Error("failed to spawn session", "session_id", id, "error", err)
		if a.tabModel.Remove(id) {
			a.signalDone()
			return
		}
		a.syncRenderActive()
		a.recomputeTitles()
		a.presentTabs()
		return
	}

	a.terminals[id] = t
	a.trackRenderable(id, t)
	a.recordOpened(id)
	a.recomputeTitles()
	a.presentTabs()
}

// closeTab handles both the UI close command and a session's own exit
// request; the re-activation tie-break applies in either case.
func (a *App) closeTab(id string) {
	if t, ok := a.terminals[id]; ok {
		if err := t.Close(); err != nil {
			slog.Debug("session close failed", "session_id", id, "error", err)
		}
		delete(a.terminals, id)
	}
	a.untrackRenderable(id)
	a.recordClosed(id)

	if a.tabModel.Remove(id) {
		a.signalDone()
		return
	}

	a.syncRenderActive()
	a.recomputeTitles()
	a.presentTabs()
	a.presentActiveSnapshot()
}

func (a *App) handleEvent(env term.Envelope) {
	// Events can race a tab close: the forwarder keeps draining until
	// the engine shuts down. Such leftovers are silently dropped.
	if !a.tabModel.Contains(env.SessionID) {
		return
	}
	t, ok := a.terminals[env.SessionID]
	if !ok {
		return
	}

	ev := env.Event
	switch ev.Kind {
	case term.EventBell:
		if a.presenter != nil {
			a.presenter.PresentBell(env.SessionID)
		}

	case term.EventColorQuery:
		color := t.Colors().ColorOrDefault(ev.ColorIndex)
		reply := term.ColorReply(ev.ColorIndex, color, ev.Terminator)
		if err := t.WriteNoScroll(reply); err != nil {
			slog.Debug("color reply failed", "session_id", env.SessionID, "error", err)
		}

	case term.EventSizeQuery:
		rows, cols := t.Size()
		if err := t.WriteNoScroll(term.SizeReply(rows, cols)); err != nil {
			slog.Debug("size reply failed", "session_id", env.SessionID, "error", err)
		}

	case term.EventRawWrite:
		if err := t.WriteNoScroll(ev.Data); err != nil {
			slog.Debug("raw reply failed", "session_id", env.SessionID, "error", err)
		}

	case term.EventExit:
		a.closeTab(env.SessionID)

	case term.EventTitleReset:
		a.renameTab(env.SessionID, DefaultTabTitle)

	case term.EventTitleChanged:
		a.renameTab(env.SessionID, ev.Title)

	case term.EventRedraw:
		update := t.Refresh()
		if update == nil {
			return
		}
		if a.presenter != nil && env.SessionID == a.tabModel.Active() {
			a.presenter.PresentScreen(env.SessionID, update)
		}

	default:
		slog.Warn("unhandled session event", "session_id", env.SessionID, "kind", ev.Kind.String())
	}
}

func (a *App) renameTab(id, title string) {
	if !a.tabModel.Rename(id, title) {
		return
	}
	a.recordRenamed(id, title)
	a.recomputeTitles()
	a.presentTabs()
}

func (a *App) presentActiveSnapshot() {
	if a.presenter == nil {
		return
	}
	active := a.tabModel.Active()
	t, ok := a.terminals[active]
	if !ok {
		return
	}
	a.presenter.PresentSnapshot(active, t.Snapshot())
}

// History writes are best effort: the loop never fails a transition
// because bookkeeping did.

func (a *App) recordOpened(id string) {
	if a.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()
	err := a.history.Create(ctx, &db.TabRecord{
		ID:    id,
		Title: DefaultTabTitle,
		Theme: a.cfg.Theme,
	})
	if err != nil {
		slog.Warn("failed to record tab open", "session_id", id, "error", err)
	}
}

func (a *App) recordRenamed(id, title string) {
	if a.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()
	if err := a.history.SetTitle(ctx, id, title); err != nil {
		slog.Warn("failed to record tab title", "session_id", id, "error", err)
	}
}

func (a *App) recordClosed(id string) {
	if a.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()
	if err := a.history.MarkClosed(ctx, id); err != nil {
		slog.Warn("failed to record tab close", "session_id", id, "error", err)
	}
}
