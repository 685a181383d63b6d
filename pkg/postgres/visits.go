package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kasoa/confirmation-tracker/pkg/db"
)

// GetVisitsByContact returns every visit linked to the contact, newest first,
// with visitor and visitee references expanded.
func (d *DB) GetVisitsByContact(ctx context.Context, contactID string) ([]db.VisitWithRelations, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT v.id, v.visit_timestamp, v.location, v.notes, v.created_at, v.updated_at
		FROM visits v
		JOIN visit_visitees ve ON ve.visit_id = v.id
		WHERE ve.contact_id = $1
		ORDER BY v.visit_timestamp DESC`, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to query visits: %w", err)
	}
	defer rows.Close()

	var visits []db.VisitWithRelations
	index := make(map[string]int)
	for rows.Next() {
		var v db.VisitWithRelations
		if err := rows.Scan(&v.ID, &v.VisitTimestamp, &v.Location, &v.Notes, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		index[v.ID] = len(visits)
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read visits: %w", err)
	}
	if len(visits) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(visits))
	for _, v := range visits {
		ids = append(ids, v.ID)
	}

	visitorRows, err := d.pool.Query(ctx, `
		SELECT vv.visit_id, m.id, m.first_name, m.last_name, m.full_name
		FROM visit_visitors vv
		JOIN members m ON m.id = vv.member_id
		WHERE vv.visit_id = ANY($1)
		ORDER BY m.full_name`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query visit visitors: %w", err)
	}
	defer visitorRows.Close()
	for visitorRows.Next() {
		var (
			visitID string
			ref     db.MemberRef
		)
		if err := visitorRows.Scan(&visitID, &ref.ID, &ref.FirstName, &ref.LastName, &ref.FullName); err != nil {
			return nil, fmt.Errorf("failed to scan visit visitor: %w", err)
		}
		if i, ok := index[visitID]; ok {
			visits[i].Visitors = append(visits[i].Visitors, ref)
		}
	}
	if err := visitorRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read visit visitors: %w", err)
	}

	visiteeRows, err := d.pool.Query(ctx, `
		SELECT ve.visit_id, c.id, c.first_name, c.last_name
		FROM visit_visitees ve
		JOIN contacts c ON c.id = ve.contact_id
		WHERE ve.visit_id = ANY($1)
		ORDER BY c.first_name`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query visit visitees: %w", err)
	}
	defer visiteeRows.Close()
	for visiteeRows.Next() {
		var (
			visitID string
			ref     db.ContactRef
		)
		if err := visiteeRows.Scan(&visitID, &ref.ID, &ref.FirstName, &ref.LastName); err != nil {
			return nil, fmt.Errorf("failed to scan visit visitee: %w", err)
		}
		if i, ok := index[visitID]; ok {
			visits[i].Visitees = append(visits[i].Visitees, ref)
		}
	}
	if err := visiteeRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read visit visitees: %w", err)
	}

	return visits, nil
}

func scanVisit(row pgx.Row) (*db.Visit, error) {
	var v db.Visit
	err := row.Scan(&v.ID, &v.VisitTimestamp, &v.Location, &v.Notes, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// InsertVisit creates the visit row; link rows are written separately.
func (d *DB) InsertVisit(ctx context.Context, input db.VisitInsert) (*db.Visit, error) {
	v, err := scanVisit(d.pool.QueryRow(ctx, `
		INSERT INTO visits (id, visit_timestamp, location, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, visit_timestamp, location, notes, created_at, updated_at`,
		uuid.NewString(), input.VisitTimestamp, input.Location, input.Notes,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert visit: %w", err)
	}
	return v, nil
}

// UpdateVisit overwrites the mutable visit fields.
func (d *DB) UpdateVisit(ctx context.Context, id string, updates db.VisitUpdate) (*db.Visit, error) {
	v, err := scanVisit(d.pool.QueryRow(ctx, `
		UPDATE visits SET visit_timestamp = $2, location = $3, notes = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING id, visit_timestamp, location, notes, created_at, updated_at`,
		id, updates.VisitTimestamp, updates.Location, updates.Notes,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update visit %s: %w", id, err)
	}
	return v, nil
}

// DeleteVisit removes the link rows and then the visit itself.
func (d *DB) DeleteVisit(ctx context.Context, id string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin visit delete: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM visit_visitors WHERE visit_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete visit visitors: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM visit_visitees WHERE visit_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete visit visitees: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM visits WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete visit %s: %w", id, err)
	}
	return tx.Commit(ctx)
}

// ReplaceVisitVisitors rewrites the full visitor link set for one visit.
func (d *DB) ReplaceVisitVisitors(ctx context.Context, visitID string, memberIDs []string) error {
	return d.replaceLinks(ctx, "visit_visitors", "member_id", visitID, memberIDs)
}

// ReplaceVisitVisitees rewrites the full visitee link set for one visit.
func (d *DB) ReplaceVisitVisitees(ctx context.Context, visitID string, contactIDs []string) error {
	return d.replaceLinks(ctx, "visit_visitees", "contact_id", visitID, contactIDs)
}

func (d *DB) replaceLinks(ctx context.Context, table, column, visitID string, ids []string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin %s replace: %w", table, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE visit_id = $1`, visitID); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	for _, id := range ids {
		_, err := tx.Exec(ctx,
			`INSERT INTO `+table+` (visit_id, `+column+`) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			visitID, id)
		if err != nil {
			return fmt.Errorf("failed to insert %s row: %w", table, err)
		}
	}
	return tx.Commit(ctx)
}
