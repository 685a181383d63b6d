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

var contactColumns = columns(
	"id", "event_id", "contacted_by_member_id",
	"first_name", "last_name", "contact_number", "notes",
	"attended", "is_first_time",
	"confirmed_at", "transport_arranged_at",
	"created_at", "updated_at",
)

const contactSelect = `
	SELECT id, event_id, contacted_by_member_id,
		first_name, last_name, contact_number, notes,
		attended, is_first_time,
		confirmed_at, transport_arranged_at,
		created_at, updated_at
	FROM contacts`

func scanContact(row pgx.Row) (*db.Contact, error) {
	var c db.Contact
	err := row.Scan(
		&c.ID, &c.EventID, &c.ContactedByMemberID,
		&c.FirstName, &c.LastName, &c.ContactNumber, &c.Notes,
		&c.Attended, &c.IsFirstTime,
		&c.ConfirmedAt, &c.TransportArrangedAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetContacts returns contacts matching the filter.
func (d *DB) GetContacts(ctx context.Context, f query.Filter) ([]db.Contact, error) {
	clauses, args, err := buildClauses(f, contactColumns, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to build contacts query: %w", err)
	}

	rows, err := d.pool.Query(ctx, contactSelect+clauses, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []db.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read contacts: %w", err)
	}
	return contacts, nil
}

// GetContactByID returns one contact, or db.ErrNotFound.
func (d *DB) GetContactByID(ctx context.Context, id string) (*db.Contact, error) {
	c, err := scanContact(d.pool.QueryRow(ctx, contactSelect+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contact %s: %w", id, err)
	}
	return c, nil
}

// InsertContact creates a contact and returns the stored row.
func (d *DB) InsertContact(ctx context.Context, input db.ContactInsert) (*db.Contact, error) {
	c, err := scanContact(d.pool.QueryRow(ctx, `
		INSERT INTO contacts (
			id, event_id, contacted_by_member_id,
			first_name, last_name, contact_number, notes,
			attended, is_first_time,
			confirmed_at, transport_arranged_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, event_id, contacted_by_member_id,
			first_name, last_name, contact_number, notes,
			attended, is_first_time,
			confirmed_at, transport_arranged_at,
			created_at, updated_at`,
		uuid.NewString(), input.EventID, input.ContactedByMemberID,
		input.FirstName, input.LastName, input.ContactNumber, input.Notes,
		input.Attended, input.IsFirstTime,
		input.ConfirmedAt, input.TransportArrangedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert contact: %w", err)
	}
	return c, nil
}

// UpdateContact overwrites the mutable contact fields; nil pointers clear
// their columns.
func (d *DB) UpdateContact(ctx context.Context, id string, updates db.ContactUpdate) (*db.Contact, error) {
	c, err := scanContact(d.pool.QueryRow(ctx, `
		UPDATE contacts SET
			first_name = $2, last_name = $3, contact_number = $4, notes = $5,
			attended = $6, is_first_time = $7,
			confirmed_at = $8, transport_arranged_at = $9,
			updated_at = NOW()
		WHERE id = $1
		RETURNING id, event_id, contacted_by_member_id,
			first_name, last_name, contact_number, notes,
			attended, is_first_time,
			confirmed_at, transport_arranged_at,
			created_at, updated_at`,
		id, updates.FirstName, updates.LastName, updates.ContactNumber, updates.Notes,
		updates.Attended, updates.IsFirstTime,
		updates.ConfirmedAt, updates.TransportArrangedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update contact %s: %w", id, err)
	}
	return c, nil
}

// DeleteContact removes a contact. Calls and visit links cascade.
func (d *DB) DeleteContact(ctx context.Context, id string) error {
	if _, err := d.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete contact %s: %w", id, err)
	}
	return nil
}
