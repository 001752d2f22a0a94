package debt

import (
	"context"
	"errors"
	"time"

	"github.com/izakirov770/MoliyaUz/internal/domain"
	"github.com/izakirov770/MoliyaUz/internal/ledger"
)

// ErrNotFound: the debt id is unknown or the debt is already settled. Callers
// report it back to the user; nothing retries automatically.
var ErrNotFound = errors.New("debt not found")

// Store persists debt records. Create assigns the per-user sequence id.
// Close flips wait -> settled and writes the archive row in one atomic step;
// found=false when the id is unknown or not waiting anymore.
type Store interface {
	CreateDebt(ctx context.Context, d domain.Debt) (domain.Debt, error)
	WaitingDebts(ctx context.Context, userID int64) ([]domain.Debt, error)
	CloseDebt(ctx context.Context, userID, debtID int64, archivedAt time.Time) (domain.Debt, bool, error)
	ArchivedDebts(ctx context.Context, userID int64) ([]domain.ArchivedDebt, error)
	DebtsDueOn(ctx context.Context, due string) ([]domain.Debt, error)
	MarkDebtReminded(ctx context.Context, userID, debtID int64, slot, day string) (bool, error)
}

// Balancing-transaction categories. The ledger reflects money changing hands
// at promise time and again at settlement time.
const (
	catDebtTaken    = "💳 Qarz olindi"
	catDebtGiven    = "💳 Qarz berildi"
	catDebtRepaid   = "💳 Qarz qaytarildi"
	catDebtReturned = "💳 Qarz qaytdi"
)

// Service drives the debt lifecycle: Waiting -> Settled -> Archived, with a
// balancing ledger transaction on both transitions.
type Service struct {
	store  Store
	ledger *ledger.Service
	now    func() time.Time
}

func New(store Store, l *ledger.Service, now func() time.Time) *Service {
	return &Service{store: store, ledger: l, now: now}
}

// Open records a new waiting debt plus its balancing transaction: taking a
// debt is income right now, giving one is an expense right now.
func (s *Service) Open(ctx context.Context, userID int64, dir domain.DebtDirection, amount int64, cur domain.Currency, counterparty, due string) (domain.Debt, error) {
	d, err := s.store.CreateDebt(ctx, domain.Debt{
		UserID:       userID,
		CreatedAt:    s.now(),
		Direction:    dir,
		Amount:       amount,
		Currency:     cur,
		Counterparty: counterparty,
		DueDate:      due,
		Status:       domain.DebtWaiting,
	})
	if err != nil {
		return domain.Debt{}, err
	}
	if dir == domain.DebtMine {
		_, err = s.ledger.Append(ctx, userID, domain.Income, amount, cur, domain.Cash, catDebtTaken, "")
	} else {
		_, err = s.ledger.Append(ctx, userID, domain.Expense, amount, cur, domain.Cash, catDebtGiven, "")
	}
	if err != nil {
		return domain.Debt{}, err
	}
	return d, nil
}

// Settle closes a waiting debt: the opposite balancing transaction is
// appended and the debt moves to the archive in the same step. Settling an
// unknown or already settled id returns ErrNotFound.
func (s *Service) Settle(ctx context.Context, userID, debtID int64) (domain.Debt, error) {
	d, ok, err := s.store.CloseDebt(ctx, userID, debtID, s.now())
	if err != nil {
		return domain.Debt{}, err
	}
	if !ok {
		return domain.Debt{}, ErrNotFound
	}
	if d.Direction == domain.DebtMine {
		_, err = s.ledger.Append(ctx, userID, domain.Expense, d.Amount, d.Currency, domain.Cash, catDebtRepaid, "")
	} else {
		_, err = s.ledger.Append(ctx, userID, domain.Income, d.Amount, d.Currency, domain.Cash, catDebtReturned, "")
	}
	if err != nil {
		return domain.Debt{}, err
	}
	return d, nil
}

// Waiting lists the user's live debts.
func (s *Service) Waiting(ctx context.Context, userID int64) ([]domain.Debt, error) {
	return s.store.WaitingDebts(ctx, userID)
}

// Archive lists the user's settled history, newest last.
func (s *Service) Archive(ctx context.Context, userID int64) ([]domain.ArchivedDebt, error) {
	return s.store.ArchivedDebts(ctx, userID)
}

// DueOn lists all waiting debts due on the given DD.MM.YYYY date, for the
// reminder sweep.
func (s *Service) DueOn(ctx context.Context, due string) ([]domain.Debt, error) {
	return s.store.DebtsDueOn(ctx, due)
}

// ClaimReminder durably claims the single reminder for a debt, slot and day.
// false means something already claimed it; the caller must not notify. The
// claim survives a process restart, so a sweep interrupted mid-hour resumes
// without repeating sends.
func (s *Service) ClaimReminder(ctx context.Context, d domain.Debt, slot, day string) (bool, error) {
	return s.store.MarkDebtReminded(ctx, d.UserID, d.ID, slot, day)
}
