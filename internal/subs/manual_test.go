package subs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/izakirov770/MoliyaUz/internal/domain"
)

type allowList []int64

func (a allowList) CanReview(id int64) bool {
	for _, v := range a {
		if v == id {
			return true
		}
	}
	return false
}

func newTestManual(t *testing.T) (*Manual, *Reconciler, *recordingNotifier) {
	t.Helper()
	r, store, _, n := newTestReconciler(t)
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	m := NewManual(store, r, allowList{100, 101}, func() time.Time { return now })
	return m, r, n
}

func TestSubmitValidatesDigits(t *testing.T) {
	m, r, _ := newTestManual(t)
	ctx := context.Background()

	if _, err := m.Submit(ctx, 42, "12a4"); !errors.Is(err, ErrBadDigits) {
		t.Fatalf("err = %v, want ErrBadDigits", err)
	}
	if _, err := m.Submit(ctx, 42, "1234"); !errors.Is(err, ErrNoInvoice) {
		t.Fatalf("without an invoice err = %v, want ErrNoInvoice", err)
	}

	p, _, err := r.CreateInvoice(ctx, 42, "week")
	if err != nil {
		t.Fatal(err)
	}
	req, err := m.Submit(ctx, 42, "1234")
	if err != nil {
		t.Fatal(err)
	}
	if req.InvoiceID != p.InvoiceID || req.Status != domain.ManualPending {
		t.Errorf("request = %+v", req)
	}
}

func TestDecideApprovesExactlyOnce(t *testing.T) {
	m, r, n := newTestManual(t)
	ctx := context.Background()

	if _, _, err := r.CreateInvoice(ctx, 42, "week"); err != nil {
		t.Fatal(err)
	}
	req, err := m.Submit(ctx, 42, "1234")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.Decide(ctx, req.ID, 999, true); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("stranger decide err = %v", err)
	}

	decided, err := m.Decide(ctx, req.ID, 100, true)
	if err != nil {
		t.Fatal(err)
	}
	if decided.Status != domain.ManualApproved || decided.Reviewer != 100 {
		t.Errorf("decided = %+v", decided)
	}
	if n.count(42) != 1 {
		t.Errorf("notifications = %d, want 1", n.count(42))
	}

	// The second reviewer sees the original decision, nothing re-applies.
	again, err := m.Decide(ctx, req.ID, 101, false)
	if !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("second decide err = %v, want ErrAlreadyProcessed", err)
	}
	if again.Status != domain.ManualApproved || again.Reviewer != 100 {
		t.Errorf("second decide returned %+v, want the original decision", again)
	}
	if n.count(42) != 1 {
		t.Errorf("notifications after re-decide = %d, want 1", n.count(42))
	}

	if _, err := m.Decide(ctx, 9999, 100, true); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("unknown id err = %v", err)
	}
}

func TestRejectDoesNotActivate(t *testing.T) {
	m, r, n := newTestManual(t)
	ctx := context.Background()

	if _, _, err := r.CreateInvoice(ctx, 42, "month"); err != nil {
		t.Fatal(err)
	}
	req, err := m.Submit(ctx, 42, "4321")
	if err != nil {
		t.Fatal(err)
	}
	decided, err := m.Decide(ctx, req.ID, 101, false)
	if err != nil {
		t.Fatal(err)
	}
	if decided.Status != domain.ManualRejected {
		t.Errorf("status = %q, want rejected", decided.Status)
	}
	if n.count(42) != 0 {
		t.Errorf("rejected request notified the user")
	}
	if _, active, _ := r.Active(ctx, 42); active {
		t.Error("rejection activated the subscription")
	}

	pending, _ := m.Pending(ctx)
	if len(pending) != 0 {
		t.Errorf("pending after decision = %+v", pending)
	}
}
