package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/izakirov770/MoliyaUz/internal/domain"
)

// Manual persists manual activation requests.
type Manual struct{ pool *pgxpool.Pool }

func NewManual(p *pgxpool.Pool) *Manual { return &Manual{pool: p} }

func (r *Manual) CreateManualRequest(ctx context.Context, m domain.ManualActivationRequest) (domain.ManualActivationRequest, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO manual_requests(user_id, invoice_id, last_four, status, created_at)
		VALUES($1,$2,$3,$4,$5)
		RETURNING id
	`, m.UserID, m.InvoiceID, m.LastFour, m.Status, m.CreatedAt).Scan(&m.ID)
	if err != nil {
		return domain.ManualActivationRequest{}, err
	}
	return m, nil
}

// DecideManualRequest flips pending -> approved/rejected with a conditional
// write; the loser of a reviewer race gets the original decision back.
func (r *Manual) DecideManualRequest(ctx context.Context, id int64, status domain.ManualStatus, reviewer int64, at time.Time) (domain.ManualActivationRequest, bool, bool, error) {
	m, err := r.scanOne(ctx, `
		UPDATE manual_requests SET status=$2, reviewer=$3, decided_at=$4
		WHERE id=$1 AND status='pending'
		RETURNING id, user_id, invoice_id, last_four, status, reviewer, decided_at, created_at
	`, id, status, reviewer, at)
	if err == nil {
		return m, true, true, nil
	}
	if !isNoRows(err) {
		return domain.ManualActivationRequest{}, false, false, err
	}
	m, err = r.scanOne(ctx, `
		SELECT id, user_id, invoice_id, last_four, status, reviewer, decided_at, created_at
		FROM manual_requests WHERE id=$1
	`, id)
	if err != nil {
		if isNoRows(err) {
			return domain.ManualActivationRequest{}, false, false, nil
		}
		return domain.ManualActivationRequest{}, false, false, err
	}
	return m, true, false, nil
}

func (r *Manual) PendingManualRequests(ctx context.Context) ([]domain.ManualActivationRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, invoice_id, last_four, status, reviewer, decided_at, created_at
		FROM manual_requests
		WHERE status='pending'
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ManualActivationRequest
	for rows.Next() {
		m, e := scanManual(rows.Scan)
		if e != nil {
			return nil, e
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Manual) scanOne(ctx context.Context, sql string, args ...any) (domain.ManualActivationRequest, error) {
	return scanManual(r.pool.QueryRow(ctx, sql, args...).Scan)
}

func scanManual(scan func(...any) error) (domain.ManualActivationRequest, error) {
	var m domain.ManualActivationRequest
	var reviewer *int64
	var decidedAt *time.Time
	err := scan(&m.ID, &m.UserID, &m.InvoiceID, &m.LastFour, &m.Status, &reviewer, &decidedAt, &m.CreatedAt)
	if err != nil {
		return domain.ManualActivationRequest{}, err
	}
	if reviewer != nil {
		m.Reviewer = *reviewer
	}
	if decidedAt != nil {
		m.DecidedAt = *decidedAt
	}
	return m, nil
}
