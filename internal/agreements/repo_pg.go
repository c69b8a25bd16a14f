package agreements

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// List returns agreements newest first, honoring limit.
func (r *PGRepo) List(ctx context.Context, limit int) ([]Agreement, error) {
	const query = `
SELECT id, title, counterparty, status, size_bytes, to_char(expires_at, 'YYYY-MM-DD'), created_at
FROM agreements
ORDER BY created_at DESC, id DESC
LIMIT $1`

	if limit <= 0 {
		limit = 50
	}

	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Agreement
	for rows.Next() {
		var a Agreement
		var expires sql.NullString
		if err := rows.Scan(&a.ID, &a.Title, &a.Counterparty, &a.Status, &a.SizeBytes, &expires, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.ExpiresAt = expires.String
		out = append(out, a)
	}
	return out, rows.Err()
}
