package app

import (
	"github.com/user/tabterm/internal/tabs"
	"github.com/user/tabterm/internal/term"
)

// TabsState is the derived presentation state of the tab strip.
type TabsState struct {
	Tabs        []tabs.Tab
	ActiveID    string
	HeaderTitle string
	WindowTitle string
}

// Presenter receives presentation state derived by the control loop.
// Implementations must not block: they are called from the loop itself.
type Presenter interface {
	PresentTabs(state TabsState)
	PresentScreen(sessionID string, update *term.ScreenUpdate)
	PresentSnapshot(sessionID string, snap *term.ScreenSnapshot)
	PresentBell(sessionID string)
	PresentShutdown()
}
