package subs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/izakirov770/MoliyaUz/internal/click"
	"github.com/izakirov770/MoliyaUz/internal/domain"
)

var (
	// ErrNoInvoice: nothing to confirm for this user/id.
	ErrNoInvoice = errors.New("invoice not found")
	// ErrAmountMismatch: gateway reported a different amount than stored.
	// That confirmation attempt is rejected; the invoice stays pending.
	ErrAmountMismatch = errors.New("amount mismatch")
	// ErrIdentityMismatch: callback service/merchant ids differ from ours.
	ErrIdentityMismatch = errors.New("service or merchant id mismatch")
	// ErrStillPending: the gateway has not seen the payment yet.
	ErrStillPending = errors.New("payment still pending")
)

// Store is the persistence contract for payments and subscription windows.
// MarkPaid MUST be a single atomic conditional write (pending -> paid only);
// transitioned=false with found=true means the invoice was already paid.
type Store interface {
	CreatePayment(ctx context.Context, p domain.Payment) error
	PaymentByInvoice(ctx context.Context, invoiceID string) (domain.Payment, bool, error)
	LatestPayment(ctx context.Context, userID int64) (domain.Payment, bool, error)
	MarkPaid(ctx context.Context, invoiceID string, paidAt time.Time) (p domain.Payment, found, transitioned bool, err error)
	SetSubscription(ctx context.Context, sub domain.Subscription) error
	Subscription(ctx context.Context, userID int64) (domain.Subscription, bool, error)
	ExpiringSubscriptions(ctx context.Context, before time.Time) ([]domain.Subscription, error)
	MarkReminderSent(ctx context.Context, userID int64) (bool, error)
	LogGatewayEvent(ctx context.Context, event string, payload map[string]string, verified bool) error
}

// Gateway is the polling side of the payment provider.
type Gateway interface {
	Status(ctx context.Context, invoiceID string) (click.Status, error)
}

// Notifier delivers one message to one user. Failures are swallowed by the
// implementation: a transport outage must never block the state machine.
type Notifier interface {
	Notify(userID int64, text string)
}

// Reconciler keeps locally pending invoices consistent with gateway truth.
// Three independent triggers (poll, return callback, manual approval) all
// converge on one markPaid entry point guarded by the store's conditional
// write, so "first transition wins, the rest are no-ops" holds under races.
type Reconciler struct {
	store  Store
	gw     Gateway
	notify Notifier
	plans  PlanTable
	click  click.Config
	now    func() time.Time
	sleep  func(time.Duration)
}

func NewReconciler(store Store, gw Gateway, n Notifier, plans PlanTable, cfg click.Config, now func() time.Time) *Reconciler {
	return &Reconciler{
		store:  store,
		gw:     gw,
		notify: n,
		plans:  plans,
		click:  cfg,
		now:    now,
		sleep:  time.Sleep,
	}
}

// CreateInvoice opens a pending payment for a plan and returns it with the
// outbound pay link.
func (r *Reconciler) CreateInvoice(ctx context.Context, userID int64, planKey string) (domain.Payment, string, error) {
	amount, ok := r.plans.Amount(planKey)
	if !ok {
		return domain.Payment{}, "", fmt.Errorf("plan %q is not configured", planKey)
	}
	p := domain.Payment{
		UserID:    userID,
		Amount:    amount,
		Currency:  domain.UZS,
		Plan:      planKey,
		Status:    domain.PaymentPending,
		CreatedAt: r.now(),
	}
	// Invoice ids must be unique; retry with a fresh suffix on collision.
	base := fmt.Sprintf("INV-%d-%d", userID, r.now().Unix())
	p.InvoiceID = base
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		if err = r.store.CreatePayment(ctx, p); err == nil {
			return p, r.click.PayLink(p.InvoiceID, p.Amount), nil
		}
		p.InvoiceID = base + "-" + uuid.NewString()[:6]
	}
	return domain.Payment{}, "", fmt.Errorf("create invoice: %w", err)
}

// CheckPending is the user-initiated poll: look up the user's most recent
// invoice, ask the gateway, verify the amount and confirm. Returns the
// payment once it is paid (whether this call confirmed it or a concurrent
// channel already had).
func (r *Reconciler) CheckPending(ctx context.Context, userID int64) (domain.Payment, error) {
	p, found, err := r.store.LatestPayment(ctx, userID)
	if err != nil {
		return domain.Payment{}, err
	}
	if !found {
		return domain.Payment{}, ErrNoInvoice
	}
	if p.Status == domain.PaymentPaid {
		return p, nil
	}

	var st click.Status
	for attempt := 0; ; attempt++ {
		st, err = r.gw.Status(ctx, p.InvoiceID)
		if err != nil {
			return domain.Payment{}, err
		}
		if st.Paid || attempt >= 2 {
			break
		}
		r.sleep(2 * time.Second)
	}
	if !st.Paid {
		return p, ErrStillPending
	}
	if st.HasAmount && !st.Amount.Equal(decimal.NewFromInt(p.Amount)) {
		return p, fmt.Errorf("%w: stored %d, gateway %s", ErrAmountMismatch, p.Amount, st.Amount)
	}
	return r.markPaid(ctx, p.InvoiceID, "poll")
}

// ConfirmReturn handles the browser-return leg: the gateway redirected the
// user back with the invoice id as the credential substitute.
func (r *Reconciler) ConfirmReturn(ctx context.Context, invoiceID string) (domain.Payment, error) {
	return r.markPaid(ctx, invoiceID, "return")
}

// ConfirmCallback handles the server-to-server callback. The service and
// merchant identifiers are compared against configuration when present, and
// so is the amount; any mismatch rejects this attempt only.
func (r *Reconciler) ConfirmCallback(ctx context.Context, payload map[string]string) (domain.Payment, error) {
	if err := r.store.LogGatewayEvent(ctx, "callback", payload, false); err != nil {
		log.Printf("log callback: %v", err)
	}
	invoiceID := payload["transaction_param"]
	if invoiceID == "" {
		invoiceID = payload["invoice_id"]
	}
	if invoiceID == "" {
		return domain.Payment{}, ErrNoInvoice
	}
	p, found, err := r.store.PaymentByInvoice(ctx, invoiceID)
	if err != nil {
		return domain.Payment{}, err
	}
	if !found {
		return domain.Payment{}, ErrNoInvoice
	}
	if v := payload["service_id"]; v != "" && r.click.ServiceID != "" && v != r.click.ServiceID {
		return domain.Payment{}, fmt.Errorf("%w: service_id %q", ErrIdentityMismatch, v)
	}
	if v := payload["merchant_id"]; v != "" && r.click.MerchantID != "" && v != r.click.MerchantID {
		return domain.Payment{}, fmt.Errorf("%w: merchant_id %q", ErrIdentityMismatch, v)
	}
	amt := payload["amount"]
	if amt == "" {
		amt = payload["amount_sum"]
	}
	if amt != "" {
		if d, err := decimal.NewFromString(amt); err == nil && !d.Equal(decimal.NewFromInt(p.Amount)) {
			return domain.Payment{}, fmt.Errorf("%w: stored %d, callback %s", ErrAmountMismatch, p.Amount, d)
		}
	}
	paid, err := r.markPaid(ctx, invoiceID, "callback")
	if err != nil {
		return domain.Payment{}, err
	}
	if err := r.store.LogGatewayEvent(ctx, "callback_verified", payload, true); err != nil {
		log.Printf("log callback: %v", err)
	}
	return paid, nil
}

// ApproveInvoice marks an invoice paid on an operator's direct say-so, for
// payments neither the poll nor the callbacks can observe. It goes through
// the same single transition as the automated channels, so approving an
// already-paid invoice is a no-op.
func (r *Reconciler) ApproveInvoice(ctx context.Context, invoiceID string) (domain.Payment, error) {
	return r.markPaid(ctx, invoiceID, "manual")
}

// markPaid is the single mutation site all confirmation channels converge
// on. The store's conditional write decides the race; only the winning call
// extends the subscription window and notifies the user.
func (r *Reconciler) markPaid(ctx context.Context, invoiceID, evidence string) (domain.Payment, error) {
	p, found, transitioned, err := r.store.MarkPaid(ctx, invoiceID, r.now())
	if err != nil {
		return domain.Payment{}, err
	}
	if !found {
		return domain.Payment{}, ErrNoInvoice
	}
	if !transitioned {
		// Already paid by another channel: silent no-op.
		return p, nil
	}

	plan, known := r.plans.Resolve(p.Amount)
	if !known {
		log.Printf("payment %s: amount %d matches no plan, defaulting to %q (%s)", invoiceID, p.Amount, plan.Key, evidence)
	}
	sub := domain.Subscription{
		UserID:    p.UserID,
		StartedAt: p.PaidAt,
		Until:     p.PaidAt.AddDate(0, 0, plan.Days),
	}
	if err := r.store.SetSubscription(ctx, sub); err != nil {
		return domain.Payment{}, err
	}
	log.Printf("payment %s paid via %s, subscription until %s", invoiceID, evidence, sub.Until.Format("02.01.2006"))
	r.notify.Notify(p.UserID, fmt.Sprintf(
		"Obuna faollashdi ✅\nTarif: %s\nAmal qiladi: %s — %s",
		plan.Key, sub.StartedAt.Format("02.01.2006"), sub.Until.Format("02.01.2006"),
	))
	return p, nil
}

// Active reports the user's current subscription window, if any.
func (r *Reconciler) Active(ctx context.Context, userID int64) (domain.Subscription, bool, error) {
	sub, found, err := r.store.Subscription(ctx, userID)
	if err != nil || !found {
		return domain.Subscription{}, false, err
	}
	return sub, sub.Until.After(r.now()), nil
}

// SweepExpiring sends one expiry reminder per subscription ending within the
// cutoff. The reminder-sent flag is flipped atomically before sending, so a
// crash mid-sweep resumes without double-notifying.
func (r *Reconciler) SweepExpiring(ctx context.Context, within time.Duration) {
	subsList, err := r.store.ExpiringSubscriptions(ctx, r.now().Add(within))
	if err != nil {
		log.Printf("expiry sweep: %v", err)
		return
	}
	for _, sub := range subsList {
		ok, err := r.store.MarkReminderSent(ctx, sub.UserID)
		if err != nil {
			log.Printf("expiry sweep user %d: %v", sub.UserID, err)
			continue
		}
		if !ok {
			continue // already reminded
		}
		r.notify.Notify(sub.UserID, fmt.Sprintf(
			"⏳ Obuna muddati %s kuni tugaydi. Uzaytirishni unutmang.",
			sub.Until.Format("02.01.2006"),
		))
	}
}

// SetSleep overrides the poll backoff, for tests.
func (r *Reconciler) SetSleep(f func(time.Duration)) { r.sleep = f }
