package postgres

import (
	"context"
	"fmt"

	"github.com/kasoa/confirmation-tracker/pkg/db"
	"github.com/kasoa/confirmation-tracker/pkg/query"
)

var memberTargetColumns = columns(
	"event_id", "member_id", "confirmations_target", "attendance_target",
	"total_confirmations", "total_attendees",
	"member_full_name", "bacenta_id", "bacenta_name",
)

var bacentaTargetColumns = columns(
	"event_id", "bacenta_id", "bacenta_name",
	"confirmations_target", "attendance_target",
	"total_confirmations", "total_attendees",
)

var cumulativeColumns = columns("event_id", "day", "total")

// GetEventMemberTargets returns per-member counters and targets from the
// derived view, with member and bacenta names inlined.
func (d *DB) GetEventMemberTargets(ctx context.Context, f query.Filter) ([]db.EventMemberTargetWithNames, error) {
	clauses, args, err := buildClauses(f, memberTargetColumns, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to build member targets query: %w", err)
	}

	rows, err := d.pool.Query(ctx, `
		SELECT event_id, member_id, confirmations_target, attendance_target,
			total_confirmations, total_attendees,
			member_full_name, bacenta_id, bacenta_name
		FROM event_member_totals`+clauses, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query member targets: %w", err)
	}
	defer rows.Close()

	var targets []db.EventMemberTargetWithNames
	for rows.Next() {
		var t db.EventMemberTargetWithNames
		if err := rows.Scan(
			&t.EventID, &t.MemberID, &t.ConfirmationsTarget, &t.AttendanceTarget,
			&t.TotalConfirmations, &t.TotalAttendees,
			&t.MemberFullName, &t.BacentaID, &t.BacentaName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member target: %w", err)
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read member targets: %w", err)
	}
	return targets, nil
}

// GetEventBacentaTargets returns per-bacenta counters and targets from the
// derived view. Members without a bacenta roll up under a NULL bacenta_id.
func (d *DB) GetEventBacentaTargets(ctx context.Context, f query.Filter) ([]db.EventBacentaTarget, error) {
	clauses, args, err := buildClauses(f, bacentaTargetColumns, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to build bacenta targets query: %w", err)
	}

	rows, err := d.pool.Query(ctx, `
		SELECT event_id, bacenta_id, bacenta_name,
			confirmations_target, attendance_target,
			total_confirmations, total_attendees
		FROM event_bacenta_totals`+clauses, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bacenta targets: %w", err)
	}
	defer rows.Close()

	var targets []db.EventBacentaTarget
	for rows.Next() {
		var t db.EventBacentaTarget
		if err := rows.Scan(
			&t.EventID, &t.BacentaID, &t.BacentaName,
			&t.ConfirmationsTarget, &t.AttendanceTarget,
			&t.TotalConfirmations, &t.TotalAttendees,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bacenta target: %w", err)
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bacenta targets: %w", err)
	}
	return targets, nil
}

// GetCumulativeConfirmations returns the running per-day confirmation totals.
func (d *DB) GetCumulativeConfirmations(ctx context.Context, f query.Filter) ([]db.CumulativeConfirmation, error) {
	clauses, args, err := buildClauses(f, cumulativeColumns, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to build cumulative confirmations query: %w", err)
	}

	rows, err := d.pool.Query(ctx, `
		SELECT event_id, day, total
		FROM cumulative_confirmations`+clauses, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cumulative confirmations: %w", err)
	}
	defer rows.Close()

	var points []db.CumulativeConfirmation
	for rows.Next() {
		var p db.CumulativeConfirmation
		if err := rows.Scan(&p.EventID, &p.Day, &p.Total); err != nil {
			return nil, fmt.Errorf("failed to scan cumulative confirmation: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cumulative confirmations: %w", err)
	}
	return points, nil
}
