package db

import (
	"context"
	"fmt"
)

// BelongsTo reports whether table holds the row id owned by organization.
// table is always a constant from the calling repository.
func BelongsTo(ctx context.Context, q Queryable, table string, id any, organization string) (bool, error) {
	var ok bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1 AND organization_id = $2)`,
		id, organization,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check %s reference: %w", table, err)
	}
	return ok, nil
}
