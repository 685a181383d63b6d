package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kasoa/confirmation-tracker/pkg/db"
	"github.com/kasoa/confirmation-tracker/pkg/query"
)

var callColumns = columns(
	"id", "caller_member_id", "callee_contact_id",
	"call_timestamp", "outcome_id", "notes",
	"created_at", "updated_at",
)

// GetCalls returns calls matching the filter with the caller and outcome
// relations expanded. Filter columns refer to the calls table.
func (d *DB) GetCalls(ctx context.Context, f query.Filter) ([]db.CallWithRelations, error) {
	clauses, args, err := buildClauses(qualify("c", f), qualifyColumns("c", callColumns), 0)
	if err != nil {
		return nil, fmt.Errorf("failed to build calls query: %w", err)
	}

	rows, err := d.pool.Query(ctx, `
		SELECT c.id, c.caller_member_id, c.callee_contact_id,
			c.call_timestamp, c.outcome_id, c.notes,
			c.created_at, c.updated_at,
			m.id, m.first_name, m.last_name, m.full_name,
			o.id, o.description, o.is_successful
		FROM calls c
		LEFT JOIN members m ON m.id = c.caller_member_id
		LEFT JOIN call_outcomes o ON o.id = c.outcome_id`+clauses, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query calls: %w", err)
	}
	defer rows.Close()

	var calls []db.CallWithRelations
	for rows.Next() {
		var (
			c                         db.CallWithRelations
			mID, mFirst, mLast, mFull *string
			oID, oDescription         *string
			oSuccessful               *bool
		)
		if err := rows.Scan(
			&c.ID, &c.CallerMemberID, &c.CalleeContactID,
			&c.CallTimestamp, &c.OutcomeID, &c.Notes,
			&c.CreatedAt, &c.UpdatedAt,
			&mID, &mFirst, &mLast, &mFull,
			&oID, &oDescription, &oSuccessful,
		); err != nil {
			return nil, fmt.Errorf("failed to scan call: %w", err)
		}
		if mID != nil {
			c.Caller = &db.MemberRef{ID: *mID, FirstName: *mFirst, LastName: *mLast, FullName: *mFull}
		}
		if oID != nil {
			c.Outcome = &db.CallOutcome{ID: *oID, Description: *oDescription, IsSuccessful: *oSuccessful}
		}
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read calls: %w", err)
	}
	return calls, nil
}

// GetCallOutcomes returns the outcome lookup table, stable by description.
func (d *DB) GetCallOutcomes(ctx context.Context) ([]db.CallOutcome, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, description, is_successful
		FROM call_outcomes ORDER BY description`)
	if err != nil {
		return nil, fmt.Errorf("failed to query call outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []db.CallOutcome
	for rows.Next() {
		var o db.CallOutcome
		if err := rows.Scan(&o.ID, &o.Description, &o.IsSuccessful); err != nil {
			return nil, fmt.Errorf("failed to scan call outcome: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read call outcomes: %w", err)
	}
	return outcomes, nil
}

func scanCall(row pgx.Row) (*db.Call, error) {
	var c db.Call
	err := row.Scan(
		&c.ID, &c.CallerMemberID, &c.CalleeContactID,
		&c.CallTimestamp, &c.OutcomeID, &c.Notes,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// InsertCall records a call and returns the stored row.
func (d *DB) InsertCall(ctx context.Context, input db.CallInsert) (*db.Call, error) {
	c, err := scanCall(d.pool.QueryRow(ctx, `
		INSERT INTO calls (id, caller_member_id, callee_contact_id, call_timestamp, outcome_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, caller_member_id, callee_contact_id,
			call_timestamp, outcome_id, notes, created_at, updated_at`,
		uuid.NewString(), input.CallerMemberID, input.CalleeContactID,
		input.CallTimestamp, input.OutcomeID, input.Notes,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert call: %w", err)
	}
	return c, nil
}

// UpdateCall overwrites the mutable call fields.
func (d *DB) UpdateCall(ctx context.Context, id string, updates db.CallUpdate) (*db.Call, error) {
	c, err := scanCall(d.pool.QueryRow(ctx, `
		UPDATE calls SET call_timestamp = $2, outcome_id = $3, notes = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING id, caller_member_id, callee_contact_id,
			call_timestamp, outcome_id, notes, created_at, updated_at`,
		id, updates.CallTimestamp, updates.OutcomeID, updates.Notes,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update call %s: %w", id, err)
	}
	return c, nil
}

// DeleteCall removes a call record.
func (d *DB) DeleteCall(ctx context.Context, id string) error {
	if _, err := d.pool.Exec(ctx, `DELETE FROM calls WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete call %s: %w", id, err)
	}
	return nil
}
