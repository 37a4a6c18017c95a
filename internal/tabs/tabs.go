// Package tabs models the tab strip: an insertion-ordered set of
// session ids with single-select activation and a deterministic
// re-activation rule when the active tab closes.
package tabs

import "github.com/google/uuid"

// Tab is one entry of the strip.
type Tab struct {
	ID       string
	Title    string
	Closable bool
}

// Model is an insertion-ordered set of tabs plus at most one active id.
// It is owned by the control loop and is not safe for concurrent use;
// presentation state is derived from snapshots taken on that loop.
//
// Invariant: the active id, when set, is always a member of the set.
type Model struct {
	order  []string
	items  map[string]*Tab
	active string
}

func NewModel() *Model {
	return &Model{items: make(map[string]*Tab)}
}

// Insert appends a new closable tab with the given title, activates it
// and returns its id.
func (m *Model) Insert(title string) string {
	id := uuid.NewString()
	m.items[id] = &Tab{ID: id, Title: title, Closable: true}
	m.order = append(m.order, id)
	m.active = id
	return id
}

// Activate marks the given id active. Activating an absent id is a
// silent no-op: stale activations from the UI are expected churn, not
// errors.
func (m *Model) Activate(id string) {
	if _, ok := m.items[id]; ok {
		m.active = id
	}
}

// Remove deletes the id from the set. If it was active, the previous
// tab takes over, or the next one when nothing precedes it. Remove
// reports whether the set is now empty so the caller can tear down.
func (m *Model) Remove(id string) (empty bool) {
	pos, ok := m.position(id)
	if !ok {
		return len(m.order) == 0
	}

	if m.active == id {
		switch {
		case pos > 0:
			m.active = m.order[pos-1]
		case len(m.order) > 1:
			m.active = m.order[pos+1]
		default:
			m.active = ""
		}
	}

	m.order = append(m.order[:pos], m.order[pos+1:]...)
	delete(m.items, id)
	return len(m.order) == 0
}

// Rename updates the display title. It reports whether the id exists.
func (m *Model) Rename(id, title string) bool {
	tab, ok := m.items[id]
	if !ok {
		return false
	}
	tab.Title = title
	return true
}

// Title returns the display title for the given id.
func (m *Model) Title(id string) (string, bool) {
	tab, ok := m.items[id]
	if !ok {
		return "", false
	}
	return tab.Title, true
}

// Active returns the active id, or "" when the set is empty.
func (m *Model) Active() string { return m.active }

// ActiveTitle returns the active tab's title. The second return value
// is false when no tab is active.
func (m *Model) ActiveTitle() (string, bool) {
	return m.Title(m.active)
}

// Contains reports whether the id is a member of the set.
func (m *Model) Contains(id string) bool {
	_, ok := m.items[id]
	return ok
}

// Len returns the number of tabs.
func (m *Model) Len() int { return len(m.order) }

// Tabs returns a snapshot of the strip in insertion order.
func (m *Model) Tabs() []Tab {
	out := make([]Tab, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.items[id])
	}
	return out
}

func (m *Model) position(id string) (int, bool) {
	for i, candidate := range m.order {
		if candidate == id {
			return i, true
		}
	}
	return 0, false
}
