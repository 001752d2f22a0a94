package subs

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/izakirov770/MoliyaUz/internal/click"
	"github.com/izakirov770/MoliyaUz/internal/domain"
	"github.com/izakirov770/MoliyaUz/internal/repo/memory"
)

type stubGateway struct {
	mu    sync.Mutex
	st    click.Status
	err   error
	calls int
}

func (g *stubGateway) Status(context.Context, string) (click.Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.st, g.err
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent map[int64][]string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{sent: make(map[int64][]string)}
}

func (n *recordingNotifier) Notify(userID int64, text string) {
	n.mu.Lock()
	n.sent[userID] = append(n.sent[userID], text)
	n.mu.Unlock()
}

func (n *recordingNotifier) count(userID int64) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent[userID])
}

func testPlans() PlanTable {
	return NewPlanTable(map[int64]domain.Plan{
		7900:  {Key: "week", Days: 7},
		19900: {Key: "month", Days: 30},
	})
}

func testClickConfig() click.Config {
	return click.Config{
		PayURL:     "https://my.click.uz/services/pay",
		ServiceID:  "svc-1",
		MerchantID: "m-1",
		ReturnURL:  "https://example.uz/payments/return",
	}
}

func newTestReconciler(t *testing.T) (*Reconciler, *memory.Store, *stubGateway, *recordingNotifier) {
	t.Helper()
	store := memory.New()
	gw := &stubGateway{}
	n := newRecordingNotifier()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	r := NewReconciler(store, gw, n, testPlans(), testClickConfig(), func() time.Time { return now })
	r.SetSleep(func(time.Duration) {})
	return r, store, gw, n
}

func TestCreateInvoicePayLink(t *testing.T) {
	r, _, _, _ := newTestReconciler(t)
	p, link, err := r.CreateInvoice(context.Background(), 42, "week")
	if err != nil {
		t.Fatal(err)
	}
	if p.Amount != 7900 || p.Status != domain.PaymentPending {
		t.Errorf("payment = %+v, want pending 7900", p)
	}
	if !strings.HasPrefix(p.InvoiceID, "INV-42-") {
		t.Errorf("invoice id = %q", p.InvoiceID)
	}
	if !strings.Contains(link, "transaction_param="+p.InvoiceID) {
		t.Errorf("pay link %q misses the invoice id", link)
	}
	if _, _, err := r.CreateInvoice(context.Background(), 42, "lifetime"); err == nil {
		t.Error("unknown plan accepted")
	}
}

func TestCheckPendingConfirmsAndExtends(t *testing.T) {
	r, store, gw, n := newTestReconciler(t)
	ctx := context.Background()
	if _, _, err := r.CreateInvoice(ctx, 42, "week"); err != nil {
		t.Fatal(err)
	}

	gw.st = click.Status{Paid: true, Amount: decimal.NewFromInt(7900), HasAmount: true}
	got, err := r.CheckPending(ctx, 42)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.PaymentPaid {
		t.Errorf("status = %q, want paid", got.Status)
	}

	sub, found, _ := store.Subscription(ctx, 42)
	if !found {
		t.Fatal("no subscription written")
	}
	if want := got.PaidAt.AddDate(0, 0, 7); !sub.Until.Equal(want) {
		t.Errorf("until = %s, want %s", sub.Until, want)
	}
	if n.count(42) != 1 {
		t.Errorf("notifications = %d, want 1", n.count(42))
	}

	// A second poll sees the paid invoice and does not notify again.
	if _, err := r.CheckPending(ctx, 42); err != nil {
		t.Fatal(err)
	}
	if n.count(42) != 1 {
		t.Errorf("notifications after repoll = %d, want 1", n.count(42))
	}
}

func TestCheckPendingRetriesThenGivesUp(t *testing.T) {
	r, _, gw, n := newTestReconciler(t)
	ctx := context.Background()
	if _, _, err := r.CreateInvoice(ctx, 42, "week"); err != nil {
		t.Fatal(err)
	}

	gw.st = click.Status{Paid: false}
	if _, err := r.CheckPending(ctx, 42); !errors.Is(err, ErrStillPending) {
		t.Fatalf("err = %v, want ErrStillPending", err)
	}
	if gw.calls != 3 {
		t.Errorf("gateway calls = %d, want 3", gw.calls)
	}
	if n.count(42) != 0 {
		t.Errorf("notified on a pending invoice: %d", n.count(42))
	}
}

func TestCheckPendingAmountMismatch(t *testing.T) {
	r, store, gw, _ := newTestReconciler(t)
	ctx := context.Background()
	p, _, err := r.CreateInvoice(ctx, 42, "week")
	if err != nil {
		t.Fatal(err)
	}

	gw.st = click.Status{Paid: true, Amount: decimal.NewFromInt(100), HasAmount: true}
	if _, err := r.CheckPending(ctx, 42); !errors.Is(err, ErrAmountMismatch) {
		t.Fatalf("err = %v, want ErrAmountMismatch", err)
	}
	// The invoice stays pending; a later correct confirmation still works.
	got, _, _ := store.PaymentByInvoice(ctx, p.InvoiceID)
	if got.Status != domain.PaymentPending {
		t.Errorf("status = %q, want pending after a rejected attempt", got.Status)
	}
}

func TestConcurrentConfirmationsNotifyOnce(t *testing.T) {
	r, store, _, n := newTestReconciler(t)
	ctx := context.Background()
	p, _, err := r.CreateInvoice(ctx, 42, "month")
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.ConfirmReturn(ctx, p.InvoiceID)
		}()
	}
	wg.Wait()

	got, _, _ := store.PaymentByInvoice(ctx, p.InvoiceID)
	if got.Status != domain.PaymentPaid {
		t.Fatalf("status = %q, want paid", got.Status)
	}
	if n.count(42) != 1 {
		t.Errorf("notifications = %d, want exactly 1", n.count(42))
	}
	sub, found, _ := store.Subscription(ctx, 42)
	if !found || sub.Until.Sub(sub.StartedAt) != 30*24*time.Hour {
		t.Errorf("subscription window = %+v", sub)
	}
}

func TestCallbackVerifiesIdentityAndAmount(t *testing.T) {
	r, store, _, n := newTestReconciler(t)
	ctx := context.Background()
	p, _, err := r.CreateInvoice(ctx, 42, "week")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.ConfirmCallback(ctx, map[string]string{
		"transaction_param": p.InvoiceID,
		"service_id":        "svc-999",
	}); !errors.Is(err, ErrIdentityMismatch) {
		t.Fatalf("service mismatch err = %v", err)
	}
	if _, err := r.ConfirmCallback(ctx, map[string]string{
		"transaction_param": p.InvoiceID,
		"service_id":        "svc-1",
		"merchant_id":       "m-1",
		"amount":            "123",
	}); !errors.Is(err, ErrAmountMismatch) {
		t.Fatalf("amount mismatch err = %v", err)
	}
	if n.count(42) != 0 {
		t.Fatalf("rejected callbacks notified the user")
	}

	got, err := r.ConfirmCallback(ctx, map[string]string{
		"transaction_param": p.InvoiceID,
		"service_id":        "svc-1",
		"merchant_id":       "m-1",
		"amount":            "7900",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.PaymentPaid {
		t.Errorf("status = %q, want paid", got.Status)
	}

	events := store.GatewayEvents()
	var verified bool
	for _, e := range events {
		if e.Event == "callback_verified" && e.Verified {
			verified = true
		}
	}
	if !verified {
		t.Errorf("no verified callback event logged: %+v", events)
	}
}

func TestCallbackUnknownInvoice(t *testing.T) {
	r, _, _, _ := newTestReconciler(t)
	if _, err := r.ConfirmCallback(context.Background(), map[string]string{
		"transaction_param": "INV-999-0",
	}); !errors.Is(err, ErrNoInvoice) {
		t.Fatalf("err = %v, want ErrNoInvoice", err)
	}
	if _, err := r.ConfirmCallback(context.Background(), map[string]string{}); !errors.Is(err, ErrNoInvoice) {
		t.Fatalf("empty payload err = %v, want ErrNoInvoice", err)
	}
}

func TestApproveInvoiceActivatesOnce(t *testing.T) {
	r, store, _, n := newTestReconciler(t)
	ctx := context.Background()

	p, _, err := r.CreateInvoice(ctx, 42, "month")
	if err != nil {
		t.Fatal(err)
	}

	got, err := r.ApproveInvoice(ctx, p.InvoiceID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.PaymentPaid {
		t.Errorf("status = %q, want paid", got.Status)
	}
	sub, ok, err := store.Subscription(ctx, 42)
	if err != nil || !ok {
		t.Fatalf("subscription missing after approval: %v", err)
	}
	if want := sub.StartedAt.AddDate(0, 0, 30); !sub.Until.Equal(want) {
		t.Errorf("until = %s, want %s", sub.Until, want)
	}
	if n.count(42) != 1 {
		t.Fatalf("notifications = %d, want 1", n.count(42))
	}

	// Approving an already-paid invoice is a no-op.
	if _, err := r.ApproveInvoice(ctx, p.InvoiceID); err != nil {
		t.Fatal(err)
	}
	if n.count(42) != 1 {
		t.Errorf("repeat approval re-notified, count = %d", n.count(42))
	}

	if _, err := r.ApproveInvoice(ctx, "INV-missing"); !errors.Is(err, ErrNoInvoice) {
		t.Errorf("unknown invoice err = %v, want ErrNoInvoice", err)
	}
}

func TestSweepExpiringRemindsOnce(t *testing.T) {
	r, store, _, n := newTestReconciler(t)
	ctx := context.Background()
	store.SetSubscription(ctx, domain.Subscription{
		UserID:    42,
		StartedAt: time.Date(2024, 4, 12, 0, 0, 0, 0, time.UTC),
		Until:     time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC),
	})
	store.SetSubscription(ctx, domain.Subscription{
		UserID:    43,
		StartedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Until:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	})

	r.SweepExpiring(ctx, 3*24*time.Hour)
	r.SweepExpiring(ctx, 3*24*time.Hour)

	if n.count(42) != 1 {
		t.Errorf("user 42 reminders = %d, want 1", n.count(42))
	}
	if n.count(43) != 0 {
		t.Errorf("user 43 reminded %d times, subscription is not expiring", n.count(43))
	}
}

func TestResolveFallsBackToLongestPlan(t *testing.T) {
	plans := testPlans()
	p, known := plans.Resolve(19900)
	if !known || p.Key != "month" {
		t.Errorf("Resolve(19900) = %+v, %v", p, known)
	}
	p, known = plans.Resolve(5555)
	if known {
		t.Error("unknown amount reported as known")
	}
	if p.Key != "month" || p.Days != 30 {
		t.Errorf("fallback plan = %+v, want the longest", p)
	}
}
