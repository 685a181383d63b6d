package postgres

import (
	"context"
	"fmt"

	"github.com/kasoa/confirmation-tracker/pkg/db"
	"github.com/kasoa/confirmation-tracker/pkg/query"
)

var memberColumns = columns("id", "first_name", "last_name", "full_name", "bacenta_id")

// GetMembers returns members matching the filter.
func (d *DB) GetMembers(ctx context.Context, f query.Filter) ([]db.Member, error) {
	clauses, args, err := buildClauses(f, memberColumns, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to build members query: %w", err)
	}

	rows, err := d.pool.Query(ctx, `
		SELECT id, first_name, last_name, full_name, bacenta_id
		FROM members`+clauses, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []db.Member
	for rows.Next() {
		var m db.Member
		if err := rows.Scan(&m.ID, &m.FirstName, &m.LastName, &m.FullName, &m.BacentaID); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read members: %w", err)
	}
	return members, nil
}
