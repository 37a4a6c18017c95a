package db

import (
	"context"
	"database/sql"
	"fmt"
)

type TabRepo struct {
	db *sql.DB
}

func NewTabRepo(db *sql.DB) *TabRepo {
	return &TabRepo{db: db}
}

func (r *TabRepo) Create(ctx context.Context, rec *TabRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("tab record id is required")
	}
	if rec.Status == "" {
		rec.Status = TabStatusOpen
	}
	if rec.OpenedAt.IsZero() {
		rec.OpenedAt = nowUTC()
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO tab_history (id, title, theme, status, opened_at, closed_at)
VALUES (?, ?, ?, ?, ?, ?)
`, rec.ID, rec.Title, rec.Theme, rec.Status, formatTimestamp(rec.OpenedAt), formatTimestamp(rec.ClosedAt))
	if err != nil {
		return fmt.Errorf("failed to create tab record: %w", err)
	}
	return nil
}

func (r *TabRepo) Get(ctx context.Context, id string) (*TabRecord, error) {
	var rec TabRecord
	var openedRaw, closedRaw string

	err := r.db.QueryRowContext(ctx, `
SELECT id, title, theme, status, opened_at, closed_at
FROM tab_history
WHERE id = ?
`, id).Scan(&rec.ID, &rec.Title, &rec.Theme, &rec.Status, &openedRaw, &closedRaw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tab record %q: %w", id, err)
	}

	if rec.OpenedAt, err = parseTimestamp(openedRaw); err != nil {
		return nil, err
	}
	if rec.ClosedAt, err = parseTimestamp(closedRaw); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *TabRepo) SetTitle(ctx context.Context, id, title string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE tab_history SET title = ? WHERE id = ?`, title, id)
	if err != nil {
		return fmt.Errorf("failed to rename tab record %q: %w", id, err)
	}
	return nil
}

func (r *TabRepo) MarkClosed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE tab_history SET status = ?, closed_at = ? WHERE id = ? AND status = ?
`, TabStatusClosed, formatTimestamp(nowUTC()), id, TabStatusOpen)
	if err != nil {
		return fmt.Errorf("failed to close tab record %q: %w", id, err)
	}
	return nil
}

// CloseStale marks every open row closed. Called on startup: rows left
// open belong to a previous process that did not shut down cleanly.
func (r *TabRepo) CloseStale(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE tab_history SET status = ?, closed_at = ? WHERE status = ?
`, TabStatusClosed, formatTimestamp(nowUTC()), TabStatusOpen)
	if err != nil {
		return 0, fmt.Errorf("failed to close stale tab records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// List returns the most recently opened records, newest first.
func (r *TabRepo) List(ctx context.Context, limit int) ([]*TabRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, theme, status, opened_at, closed_at
FROM tab_history
ORDER BY opened_at DESC, id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tab records: %w", err)
	}
	defer rows.Close()

	var out []*TabRecord
	for rows.Next() {
		var rec TabRecord
		var openedRaw, closedRaw string
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Theme, &rec.Status, &openedRaw, &closedRaw); err != nil {
			return nil, fmt.Errorf("failed to scan tab record: %w", err)
		}
		if rec.OpenedAt, err = parseTimestamp(openedRaw); err != nil {
			return nil, err
		}
		if rec.ClosedAt, err = parseTimestamp(closedRaw); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
