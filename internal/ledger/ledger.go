package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/izakirov770/MoliyaUz/internal/domain"
)

// Store is the persistence contract for transactions. Append assigns the
// per-user monotonically increasing id.
type Store interface {
	AppendTx(ctx context.Context, tx domain.Transaction) (domain.Transaction, error)
	DeleteTx(ctx context.Context, userID, txID int64) (domain.Transaction, bool, error)
	ListTx(ctx context.Context, userID int64, since, until time.Time) ([]domain.Transaction, error)
}

// Rates holds UZS per one unit of foreign currency, used to normalize
// month-to-date totals into a single currency.
type Rates struct {
	USD int64
	EUR int64
}

// ToUZS converts an amount into soums for aggregate counters.
func (r Rates) ToUZS(amount int64, cur domain.Currency) int64 {
	switch cur {
	case domain.USD:
		return amount * r.USD
	case domain.EUR:
		return amount * r.EUR
	default:
		return amount
	}
}

// Totals are the running month-to-date sums, UZS-normalized.
type Totals struct {
	Income  int64
	Expense int64
}

// Service is the append-only per-user transaction ledger with month-to-date
// aggregates. Counters are a cache over the durable store: a user's totals
// are hydrated from ListTx on the first touch of a month, so a restart
// cannot report zero for a month that already has transactions, and the
// cache rolls over to fresh hydrations in a new calendar month.
type Service struct {
	store Store
	rates Rates
	now   func() time.Time

	mu       sync.Mutex
	month    string // YYYYMM the counters belong to
	counters map[int64]*Totals
}

func New(store Store, rates Rates, now func() time.Time) *Service {
	return &Service{
		store:    store,
		rates:    rates,
		now:      now,
		counters: make(map[int64]*Totals),
	}
}

// Append records one transaction. It always succeeds for a reachable store.
func (s *Service) Append(ctx context.Context, userID int64, kind domain.TxKind, amount int64, cur domain.Currency, acc domain.Account, category, note string) (domain.Transaction, error) {
	tx := domain.Transaction{
		UserID:    userID,
		CreatedAt: s.now(),
		Kind:      kind,
		Amount:    amount,
		Currency:  cur,
		Account:   acc,
		Category:  category,
		Note:      note,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// Hydrate before the insert so the new row is not counted twice.
	t, err := s.loadLocked(ctx, userID)
	if err != nil {
		return domain.Transaction{}, err
	}
	tx, err = s.store.AppendTx(ctx, tx)
	if err != nil {
		return domain.Transaction{}, err
	}
	t.add(kind, s.rates.ToUZS(amount, cur))
	return tx, nil
}

// Cancel removes a transaction and reverses its effect on the counters.
// false means the id is unknown: already cancelled or never existed, which
// the caller treats as nothing-to-do, not as an error.
func (s *Service) Cancel(ctx context.Context, userID, txID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.loadLocked(ctx, userID)
	if err != nil {
		return false, err
	}
	tx, found, err := s.store.DeleteTx(ctx, userID, txID)
	if err != nil || !found {
		return false, err
	}
	// Only reverse counters for the month they were counted in.
	if tx.CreatedAt.Format("200601") == s.month {
		t.add(tx.Kind, -s.rates.ToUZS(tx.Amount, tx.Currency))
	}
	return true, nil
}

// MonthToDate returns the running income/expense sums for the current month.
func (s *Service) MonthToDate(ctx context.Context, userID int64) (Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.loadLocked(ctx, userID)
	if err != nil {
		return Totals{}, err
	}
	return *t, nil
}

// ListRange returns transactions in [since, until] for reports.
func (s *Service) ListRange(ctx context.Context, userID int64, since, until time.Time) ([]domain.Transaction, error) {
	return s.store.ListTx(ctx, userID, since, until)
}

// loadLocked rolls the counter cache over on a month change and hydrates a
// user's totals from the store on first touch. Caller holds s.mu.
func (s *Service) loadLocked(ctx context.Context, userID int64) (*Totals, error) {
	now := s.now()
	if current := now.Format("200601"); s.month != current {
		s.month = current
		s.counters = make(map[int64]*Totals)
	}
	if t := s.counters[userID]; t != nil {
		return t, nil
	}
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	txs, err := s.store.ListTx(ctx, userID, start, now)
	if err != nil {
		return nil, err
	}
	t := &Totals{}
	for _, tx := range txs {
		t.add(tx.Kind, s.rates.ToUZS(tx.Amount, tx.Currency))
	}
	s.counters[userID] = t
	return t, nil
}

func (t *Totals) add(kind domain.TxKind, deltaUZS int64) {
	if kind == domain.Income {
		t.Income += deltaUZS
	} else {
		t.Expense += deltaUZS
	}
}
