package db

import (
	"fmt"
	"time"
)

// Tab statuses.
const (
	TabStatusOpen   = "open"
	TabStatusClosed = "closed"
)

// TabRecord is one terminal tab's history row. ClosedAt is zero while
// the tab is open.
type TabRecord struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Theme    string    `json:"theme"`
	Status   string    `json:"status"`
	OpenedAt time.Time `json:"opened_at"`
	ClosedAt time.Time `json:"closed_at,omitempty"`
}

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", raw, err)
	}
	return t, nil
}
