package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/izakirov770/MoliyaUz/internal/domain"
)

// Ledger persists transactions. Ids are a per-user sequence so the user can
// refer to "xarajat #4" in chat.
type Ledger struct{ pool *pgxpool.Pool }

func NewLedger(p *pgxpool.Pool) *Ledger { return &Ledger{pool: p} }

func (r *Ledger) AppendTx(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO transactions(user_id, id, created_at, kind, amount, currency, account, category, note)
		SELECT $1, COALESCE(MAX(id),0)+1, $2, $3, $4, $5, $6, $7, $8
		FROM transactions WHERE user_id=$1
		RETURNING id
	`, tx.UserID, tx.CreatedAt, tx.Kind, tx.Amount, tx.Currency, tx.Account, tx.Category, tx.Note).Scan(&tx.ID)
	if err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

func (r *Ledger) DeleteTx(ctx context.Context, userID, txID int64) (domain.Transaction, bool, error) {
	var tx domain.Transaction
	err := r.pool.QueryRow(ctx, `
		DELETE FROM transactions
		WHERE user_id=$1 AND id=$2
		RETURNING user_id, id, created_at, kind, amount, currency, account, category, note
	`, userID, txID).Scan(&tx.UserID, &tx.ID, &tx.CreatedAt, &tx.Kind, &tx.Amount, &tx.Currency, &tx.Account, &tx.Category, &tx.Note)
	if err != nil {
		if isNoRows(err) {
			return domain.Transaction{}, false, nil
		}
		return domain.Transaction{}, false, err
	}
	return tx, true, nil
}

func (r *Ledger) ListTx(ctx context.Context, userID int64, since, until time.Time) ([]domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, id, created_at, kind, amount, currency, account, category, note
		FROM transactions
		WHERE user_id=$1 AND created_at BETWEEN $2 AND $3
		ORDER BY id
	`, userID, since, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		if e := rows.Scan(&tx.UserID, &tx.ID, &tx.CreatedAt, &tx.Kind, &tx.Amount, &tx.Currency, &tx.Account, &tx.Category, &tx.Note); e != nil {
			return nil, e
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}
