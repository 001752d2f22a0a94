package subs

import (
	"context"
	"testing"
	"time"

	"github.com/izakirov770/MoliyaUz/internal/domain"
)

func TestTrialThenSubscription(t *testing.T) {
	r, store, _, _ := newTestReconciler(t)
	ctx := context.Background()

	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	a := NewAccess(store, r, 15*time.Minute, func() time.Time { return now })

	if _, err := a.Register(ctx, domain.User{ID: 42, FirstName: "Ali"}); err != nil {
		t.Fatal(err)
	}

	ok, err := a.Allowed(ctx, 42)
	if err != nil || !ok {
		t.Fatalf("inside trial: allowed = %v, %v", ok, err)
	}

	now = now.Add(16 * time.Minute)
	if ok, _ := a.Allowed(ctx, 42); ok {
		t.Fatal("allowed after trial expiry without a subscription")
	}
	if left, _ := a.TrialLeft(ctx, 42); left != 0 {
		t.Errorf("trial left = %v, want 0", left)
	}

	store.SetSubscription(ctx, domain.Subscription{
		UserID:    42,
		StartedAt: now,
		Until:     now.AddDate(0, 0, 30),
	})
	if ok, _ := a.Allowed(ctx, 42); !ok {
		t.Error("not allowed with an active subscription")
	}

	// Re-registering must not restart the trial.
	now = now.Add(time.Hour)
	u, err := a.Register(ctx, domain.User{ID: 42, FirstName: "Ali"})
	if err != nil {
		t.Fatal(err)
	}
	if !u.CreatedAt.Equal(time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("created_at after re-register = %v", u.CreatedAt)
	}
}

func TestAllowedUnknownUser(t *testing.T) {
	r, store, _, _ := newTestReconciler(t)
	a := NewAccess(store, r, 15*time.Minute, time.Now)
	ok, err := a.Allowed(context.Background(), 999)
	if err != nil || ok {
		t.Errorf("unknown user: allowed = %v, %v", ok, err)
	}
}
