// Package repo is the PostgreSQL persistence layer. Each repository wraps
// the shared pgx pool; atomic state transitions are expressed as conditional
// writes so concurrent callers cannot double-apply them.
package repo

import (
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/izakirov770/MoliyaUz/internal/domain"
)

func isNoRows(err error) bool { return errors.Is(err, pgx.ErrNoRows) }

func scanDebts(rows pgx.Rows) ([]domain.Debt, error) {
	var out []domain.Debt
	for rows.Next() {
		var d domain.Debt
		if e := rows.Scan(&d.UserID, &d.ID, &d.CreatedAt, &d.Direction, &d.Amount, &d.Currency, &d.Counterparty, &d.DueDate, &d.Status); e != nil {
			return nil, e
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
