package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/izakirov770/MoliyaUz/internal/domain"
)

// Debts persists the live debt list and its settled archive. Like
// transactions, ids are a per-user sequence.
type Debts struct{ pool *pgxpool.Pool }

func NewDebts(p *pgxpool.Pool) *Debts { return &Debts{pool: p} }

func (r *Debts) CreateDebt(ctx context.Context, d domain.Debt) (domain.Debt, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO debts(user_id, id, created_at, direction, amount, currency, counterparty, due_date, status)
		SELECT $1, COALESCE(MAX(id),0)+1, $2, $3, $4, $5, $6, $7, $8
		FROM debts WHERE user_id=$1
		RETURNING id
	`, d.UserID, d.CreatedAt, d.Direction, d.Amount, d.Currency, d.Counterparty, d.DueDate, d.Status).Scan(&d.ID)
	if err != nil {
		return domain.Debt{}, err
	}
	return d, nil
}

func (r *Debts) WaitingDebts(ctx context.Context, userID int64) ([]domain.Debt, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, id, created_at, direction, amount, currency, counterparty, due_date, status
		FROM debts
		WHERE user_id=$1 AND status='wait'
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDebts(rows)
}

// CloseDebt moves one waiting debt to the archive in a single database
// transaction. Losing the race (already settled, unknown id) comes back as
// found=false, never as an error.
func (r *Debts) CloseDebt(ctx context.Context, userID, debtID int64, archivedAt time.Time) (domain.Debt, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Debt{}, false, err
	}
	defer tx.Rollback(ctx)

	var d domain.Debt
	err = tx.QueryRow(ctx, `
		DELETE FROM debts
		WHERE user_id=$1 AND id=$2 AND status='wait'
		RETURNING user_id, id, created_at, direction, amount, currency, counterparty, due_date
	`, userID, debtID).Scan(&d.UserID, &d.ID, &d.CreatedAt, &d.Direction, &d.Amount, &d.Currency, &d.Counterparty, &d.DueDate)
	if err != nil {
		if isNoRows(err) {
			return domain.Debt{}, false, nil
		}
		return domain.Debt{}, false, err
	}
	d.Status = domain.SettleStatus(d.Direction)

	_, err = tx.Exec(ctx, `
		INSERT INTO debts_archive(user_id, id, created_at, direction, amount, currency, counterparty, due_date, status, archived_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, d.UserID, d.ID, d.CreatedAt, d.Direction, d.Amount, d.Currency, d.Counterparty, d.DueDate, d.Status, archivedAt)
	if err != nil {
		return domain.Debt{}, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Debt{}, false, err
	}
	return d, true, nil
}

func (r *Debts) ArchivedDebts(ctx context.Context, userID int64) ([]domain.ArchivedDebt, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, id, created_at, direction, amount, currency, counterparty, due_date, status, archived_at
		FROM debts_archive
		WHERE user_id=$1
		ORDER BY archived_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ArchivedDebt
	for rows.Next() {
		var a domain.ArchivedDebt
		if e := rows.Scan(&a.UserID, &a.ID, &a.CreatedAt, &a.Direction, &a.Amount, &a.Currency, &a.Counterparty, &a.DueDate, &a.Status, &a.ArchivedAt); e != nil {
			return nil, e
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Debts) DebtsDueOn(ctx context.Context, due string) ([]domain.Debt, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, id, created_at, direction, amount, currency, counterparty, due_date, status
		FROM debts
		WHERE status='wait' AND due_date=$1
	`, due)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDebts(rows)
}

// MarkDebtReminded claims one reminder via a conditional insert; the primary
// key makes the claim race-proof and restart-proof.
func (r *Debts) MarkDebtReminded(ctx context.Context, userID, debtID int64, slot, day string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO debt_reminders(user_id, debt_id, slot, day)
		VALUES($1,$2,$3,$4)
		ON CONFLICT DO NOTHING
	`, userID, debtID, slot, day)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
