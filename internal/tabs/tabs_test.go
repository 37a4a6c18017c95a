package tabs

import (
	"math/rand"
	"testing"
)

func TestInsertActivates(t *testing.T) {
	m := NewModel()

	a := m.Insert("New Terminal")
	if m.Active() != a {
		t.Fatalf("Active() = %q, want %q", m.Active(), a)
	}

	b := m.Insert("Second")
	if m.Active() != b {
		t.Fatalf("Active() = %q, want %q", m.Active(), b)
	}
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}

	got := m.Tabs()
	if got[0].ID != a || got[1].ID != b {
		t.Fatalf("Tabs() order = [%q, %q], want [%q, %q]", got[0].ID, got[1].ID, a, b)
	}
	if !got[0].Closable || !got[1].Closable {
		t.Fatal("inserted tabs must be closable")
	}
}

func TestActivateAbsentIsNoOp(t *testing.T) {
	m := NewModel()
	a := m.Insert("only")

	m.Activate("no-such-id")
	if m.Active() != a {
		t.Fatalf("Active() = %q after absent activate, want %q", m.Active(), a)
	}
}

func TestRemoveTieBreakPrefersPrevious(t *testing.T) {
	m := NewModel()
	m.Insert("A")
	b := m.Insert("B")
	c := m.Insert("C")

	// C is active; closing it activates B.
	if m.Active() != c {
		t.Fatalf("precondition: Active() = %q, want %q", m.Active(), c)
	}
	if empty := m.Remove(c); empty {
		t.Fatal("Remove(c) reported empty registry")
	}
	if m.Active() != b {
		t.Fatalf("Active() = %q after closing %q, want previous %q", m.Active(), c, b)
	}
}

func TestRemoveTieBreakFallsBackToNext(t *testing.T) {
	m := NewModel()
	a := m.Insert("A")
	b := m.Insert("B")
	m.Insert("C")
	m.Activate(a)

	// A is active and has no previous tab; closing it activates B.
	if empty := m.Remove(a); empty {
		t.Fatal("Remove(a) reported empty registry")
	}
	if m.Active() != b {
		t.Fatalf("Active() = %q after closing %q, want next %q", m.Active(), a, b)
	}
}

func TestRemoveInactiveKeepsActive(t *testing.T) {
	m := NewModel()
	a := m.Insert("A")
	b := m.Insert("B")
	m.Activate(b)

	m.Remove(a)
	if m.Active() != b {
		t.Fatalf("Active() = %q after removing inactive tab, want %q", m.Active(), b)
	}
}

func TestRemoveLastSignalsEmpty(t *testing.T) {
	m := NewModel()
	a := m.Insert("A")

	if empty := m.Remove(a); !empty {
		t.Fatal("Remove of last tab must report empty registry")
	}
	if m.Active() != "" {
		t.Fatalf("Active() = %q on empty registry, want empty string", m.Active())
	}
	if m.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", m.Len())
	}
}

func TestRemoveAbsentID(t *testing.T) {
	m := NewModel()
	a := m.Insert("A")

	if empty := m.Remove("no-such-id"); empty {
		t.Fatal("Remove of absent id must not report empty")
	}
	if m.Active() != a || m.Len() != 1 {
		t.Fatalf("registry changed by absent remove: active=%q len=%d", m.Active(), m.Len())
	}
}

func TestRenameAndTitles(t *testing.T) {
	m := NewModel()
	a := m.Insert("New Terminal")

	if !m.Rename(a, "ssh host") {
		t.Fatal("Rename of existing id returned false")
	}
	if title, _ := m.Title(a); title != "ssh host" {
		t.Fatalf("Title() = %q, want %q", title, "ssh host")
	}
	if title, ok := m.ActiveTitle(); !ok || title != "ssh host" {
		t.Fatalf("ActiveTitle() = %q, %v", title, ok)
	}
	if m.Rename("no-such-id", "x") {
		t.Fatal("Rename of absent id returned true")
	}
}

// TestActiveInvariant exercises random insert/remove/activate sequences
// and checks that the active marker is always either unset on an empty
// registry or a member of the current set.
func TestActiveInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	m := NewModel()
	var ids []string

	for i := 0; i < 2000; i++ {
		switch op := rng.Intn(4); {
		case op == 0 || len(ids) == 0:
			ids = append(ids, m.Insert("tab"))
		case op == 1:
			idx := rng.Intn(len(ids))
			m.Remove(ids[idx])
			ids = append(ids[:idx], ids[idx+1:]...)
		case op == 2:
			m.Activate(ids[rng.Intn(len(ids))])
		default:
			m.Activate("absent-id")
		}

		active := m.Active()
		if len(ids) == 0 {
			if active != "" {
				t.Fatalf("step %d: active = %q on empty registry", i, active)
			}
			continue
		}
		if active == "" {
			t.Fatalf("step %d: no active id on non-empty registry", i)
		}
		if !m.Contains(active) {
			t.Fatalf("step %d: active id %q not in registry", i, active)
		}
	}
}
