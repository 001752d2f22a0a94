package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/izakirov770/MoliyaUz/internal/domain"
	"github.com/izakirov770/MoliyaUz/internal/repo/memory"
)

func monthToDate(t *testing.T, svc *Service, userID int64) Totals {
	t.Helper()
	got, err := svc.MonthToDate(context.Background(), userID)
	if err != nil {
		t.Fatal(err)
	}
	return got
}

func TestMonthToDateAccumulates(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	svc := New(memory.New(), Rates{USD: 12600, EUR: 13500}, func() time.Time { return now })
	ctx := context.Background()

	if _, err := svc.Append(ctx, 1, domain.Income, 1_000_000, domain.UZS, domain.Card, "💪 Mehnat daromadlari", "oylik"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Append(ctx, 1, domain.Expense, 50_000, domain.UZS, domain.Cash, "🍞 Oziq-ovqat", "non"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Append(ctx, 1, domain.Expense, 10, domain.USD, domain.Card, "🧾 Boshqa xarajatlar", ""); err != nil {
		t.Fatal(err)
	}

	got := monthToDate(t, svc, 1)
	if got.Income != 1_000_000 {
		t.Errorf("income = %d, want 1000000", got.Income)
	}
	if want := int64(50_000 + 10*12600); got.Expense != want {
		t.Errorf("expense = %d, want %d", got.Expense, want)
	}
	if other := monthToDate(t, svc, 2); other != (Totals{}) {
		t.Errorf("user 2 totals = %+v, want zero", other)
	}
}

func TestMonthRollover(t *testing.T) {
	now := time.Date(2024, 5, 31, 23, 0, 0, 0, time.UTC)
	svc := New(memory.New(), Rates{}, func() time.Time { return now })
	ctx := context.Background()

	if _, err := svc.Append(ctx, 1, domain.Expense, 70_000, domain.UZS, domain.Cash, "🚕 Transport", ""); err != nil {
		t.Fatal(err)
	}
	if got := monthToDate(t, svc, 1).Expense; got != 70_000 {
		t.Fatalf("expense = %d, want 70000", got)
	}

	now = time.Date(2024, 6, 1, 0, 5, 0, 0, time.UTC)
	if got := monthToDate(t, svc, 1); got != (Totals{}) {
		t.Errorf("totals after rollover = %+v, want zero", got)
	}
}

func TestCancelReversesCounters(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	svc := New(memory.New(), Rates{}, func() time.Time { return now })
	ctx := context.Background()

	tx, err := svc.Append(ctx, 1, domain.Expense, 30_000, domain.UZS, domain.Cash, "🍞 Oziq-ovqat", "")
	if err != nil {
		t.Fatal(err)
	}
	ok, err := svc.Cancel(ctx, 1, tx.ID)
	if err != nil || !ok {
		t.Fatalf("cancel = %v, %v; want true, nil", ok, err)
	}
	if got := monthToDate(t, svc, 1).Expense; got != 0 {
		t.Errorf("expense after cancel = %d, want 0", got)
	}

	// Cancelling again is nothing-to-do, not an error.
	ok, err = svc.Cancel(ctx, 1, tx.ID)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("second cancel reported a deletion")
	}
}

func TestCountersSurviveRestart(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := memory.New()
	ctx := context.Background()

	first := New(store, Rates{}, clock)
	tx, err := first.Append(ctx, 1, domain.Expense, 30_000, domain.UZS, domain.Cash, "🍞 Oziq-ovqat", "")
	if err != nil {
		t.Fatal(err)
	}

	// A second service over the same store stands in for a restarted process.
	second := New(store, Rates{}, clock)
	if got := monthToDate(t, second, 1).Expense; got != 30_000 {
		t.Fatalf("expense after restart = %d, want 30000", got)
	}

	ok, err := second.Cancel(ctx, 1, tx.ID)
	if err != nil || !ok {
		t.Fatalf("cancel = %v, %v; want true, nil", ok, err)
	}
	if got := monthToDate(t, second, 1).Expense; got != 0 {
		t.Errorf("expense after cancel = %d, want 0", got)
	}
}
