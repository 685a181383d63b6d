package postgres

import (
	"context"
	"fmt"

	"github.com/kasoa/confirmation-tracker/pkg/db"
	"github.com/kasoa/confirmation-tracker/pkg/query"
)

var bacentaColumns = columns("id", "name")

// GetBacentas returns bacentas matching the filter.
func (d *DB) GetBacentas(ctx context.Context, f query.Filter) ([]db.Bacenta, error) {
	clauses, args, err := buildClauses(f, bacentaColumns, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to build bacentas query: %w", err)
	}

	rows, err := d.pool.Query(ctx, `SELECT id, name FROM bacentas`+clauses, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bacentas: %w", err)
	}
	defer rows.Close()

	var bacentas []db.Bacenta
	for rows.Next() {
		var b db.Bacenta
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, fmt.Errorf("failed to scan bacenta: %w", err)
		}
		bacentas = append(bacentas, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bacentas: %w", err)
	}
	return bacentas, nil
}
