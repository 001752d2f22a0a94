package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/izakirov770/MoliyaUz/internal/domain"
)

// Payments persists subscription invoices, the gateway event log and the
// per-user subscription window.
type Payments struct{ pool *pgxpool.Pool }

func NewPayments(p *pgxpool.Pool) *Payments { return &Payments{pool: p} }

func (r *Payments) CreatePayment(ctx context.Context, p domain.Payment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO payments(invoice_id, user_id, amount, currency, plan, status, created_at)
		VALUES($1,$2,$3,$4,$5,$6,$7)
	`, p.InvoiceID, p.UserID, p.Amount, p.Currency, p.Plan, p.Status, p.CreatedAt)
	return err
}

func (r *Payments) PaymentByInvoice(ctx context.Context, invoiceID string) (domain.Payment, bool, error) {
	p, err := r.scanOne(ctx, `WHERE invoice_id=$1`, invoiceID)
	if err != nil {
		if isNoRows(err) {
			return domain.Payment{}, false, nil
		}
		return domain.Payment{}, false, err
	}
	return p, true, nil
}

func (r *Payments) LatestPayment(ctx context.Context, userID int64) (domain.Payment, bool, error) {
	p, err := r.scanOne(ctx, `WHERE user_id=$1 ORDER BY created_at DESC LIMIT 1`, userID)
	if err != nil {
		if isNoRows(err) {
			return domain.Payment{}, false, nil
		}
		return domain.Payment{}, false, err
	}
	return p, true, nil
}

// MarkPaid is the conditional pending -> paid write. Exactly one caller per
// invoice observes transitioned=true; everyone else gets the row as-is.
func (r *Payments) MarkPaid(ctx context.Context, invoiceID string, paidAt time.Time) (domain.Payment, bool, bool, error) {
	var p domain.Payment
	var dbPaidAt *time.Time
	err := r.pool.QueryRow(ctx, `
		UPDATE payments SET status='paid', paid_at=$2
		WHERE invoice_id=$1 AND status='pending'
		RETURNING invoice_id, user_id, amount, currency, plan, status, created_at, paid_at
	`, invoiceID, paidAt).Scan(&p.InvoiceID, &p.UserID, &p.Amount, &p.Currency, &p.Plan, &p.Status, &p.CreatedAt, &dbPaidAt)
	if err == nil {
		if dbPaidAt != nil {
			p.PaidAt = *dbPaidAt
		}
		return p, true, true, nil
	}
	if !isNoRows(err) {
		return domain.Payment{}, false, false, err
	}
	// Not pending anymore, or unknown: read it back to tell the two apart.
	p, found, err := r.PaymentByInvoice(ctx, invoiceID)
	return p, found, false, err
}

func (r *Payments) scanOne(ctx context.Context, where string, arg any) (domain.Payment, error) {
	var p domain.Payment
	var paidAt *time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT invoice_id, user_id, amount, currency, plan, status, created_at, paid_at
		FROM payments `+where,
		arg).Scan(&p.InvoiceID, &p.UserID, &p.Amount, &p.Currency, &p.Plan, &p.Status, &p.CreatedAt, &paidAt)
	if err != nil {
		return domain.Payment{}, err
	}
	if paidAt != nil {
		p.PaidAt = *paidAt
	}
	return p, nil
}

func (r *Payments) LogGatewayEvent(ctx context.Context, event string, payload map[string]string, verified bool) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO payment_logs(event, payload, verified)
		VALUES($1,$2,$3)
	`, event, raw, verified)
	return err
}

func (r *Payments) SetSubscription(ctx context.Context, sub domain.Subscription) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users
		SET sub_started_at=$2, sub_until=$3, sub_reminder_sent=false
		WHERE id=$1
	`, sub.UserID, sub.StartedAt, sub.Until)
	return err
}

func (r *Payments) Subscription(ctx context.Context, userID int64) (domain.Subscription, bool, error) {
	sub := domain.Subscription{UserID: userID}
	var started, until *time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT sub_started_at, sub_until, sub_reminder_sent
		FROM users WHERE id=$1
	`, userID).Scan(&started, &until, &sub.ReminderSent)
	if err != nil {
		if isNoRows(err) {
			return domain.Subscription{}, false, nil
		}
		return domain.Subscription{}, false, err
	}
	if started == nil || until == nil {
		return domain.Subscription{}, false, nil
	}
	sub.StartedAt, sub.Until = *started, *until
	return sub, true, nil
}

func (r *Payments) ExpiringSubscriptions(ctx context.Context, before time.Time) ([]domain.Subscription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, sub_started_at, sub_until, sub_reminder_sent
		FROM users
		WHERE sub_until IS NOT NULL AND sub_until < $1 AND NOT sub_reminder_sent
	`, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Subscription
	for rows.Next() {
		var sub domain.Subscription
		if e := rows.Scan(&sub.UserID, &sub.StartedAt, &sub.Until, &sub.ReminderSent); e != nil {
			return nil, e
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// MarkReminderSent claims the one expiry reminder; false means someone
// already sent it.
func (r *Payments) MarkReminderSent(ctx context.Context, userID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET sub_reminder_sent=true
		WHERE id=$1 AND NOT sub_reminder_sent
	`, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
