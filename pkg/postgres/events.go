package postgres

import (
	"context"
	"fmt"

	"github.com/kasoa/confirmation-tracker/pkg/db"
	"github.com/kasoa/confirmation-tracker/pkg/query"
)

var eventColumns = columns(
	"id", "name", "event_timestamp",
	"total_confirmations", "total_confirmations_target",
	"total_attendees", "total_attendance_target",
)

// GetEvents returns events with their derived totals. Reads go through the
// event_totals view so the confirmation and attendance counters are always
// consistent with the contacts table.
func (d *DB) GetEvents(ctx context.Context, f query.Filter) ([]db.Event, error) {
	clauses, args, err := buildClauses(f, eventColumns, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to build events query: %w", err)
	}

	rows, err := d.pool.Query(ctx, `
		SELECT id, name, event_timestamp,
			total_confirmations, total_confirmations_target,
			total_attendees, total_attendance_target
		FROM event_totals`+clauses, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []db.Event
	for rows.Next() {
		var e db.Event
		if err := rows.Scan(
			&e.ID, &e.Name, &e.EventTimestamp,
			&e.TotalConfirmations, &e.TotalConfirmationsTarget,
			&e.TotalAttendees, &e.TotalAttendanceTarget,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return events, nil
}
