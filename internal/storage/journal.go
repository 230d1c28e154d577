package storage

import (
	"context"
	"time"
)

// Refresh outcome labels recorded in the journal.
const (
	OutcomeOK             = "ok"
	OutcomeTransportError = "transport_error"
	OutcomeDecodeError    = "decode_error"
	OutcomeError          = "error"
)

// RefreshEntry is one recorded refresh cycle.
type RefreshEntry struct {
	At               time.Time `json:"at"`
	Outcome          string    `json:"outcome"`
	Detail           string    `json:"detail,omitempty"`
	SnapshotCount    int       `json:"snapshot_count"`
	LatestDateString string    `json:"latest_date_string,omitempty"`
}

func (r *Repository) RecordRefresh(ctx context.Context, entry RefreshEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_log (at, outcome, detail, snapshot_count, latest_date_string)
		VALUES (?, ?, ?, ?, ?)`,
		entry.At.UTC().Format(time.RFC3339Nano),
		entry.Outcome,
		entry.Detail,
		entry.SnapshotCount,
		entry.LatestDateString,
	)
	return err
}

// RecentRefreshes returns up to limit journal entries, newest first.
func (r *Repository) RecentRefreshes(ctx context.Context, limit int) ([]RefreshEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT at, outcome, detail, snapshot_count, latest_date_string
		FROM refresh_log
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]RefreshEntry, 0, limit)
	for rows.Next() {
		var (
			entry RefreshEntry
			at    string
		)
		if err := rows.Scan(&at, &entry.Outcome, &entry.Detail, &entry.SnapshotCount, &entry.LatestDateString); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, at); err == nil {
			entry.At = ts.UTC()
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// PruneBefore drops journal entries recorded before cutoff.
func (r *Repository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_log WHERE at < ?`,
		cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
