// Package memory is the in-process store used by tests. It implements every
// persistence contract in the service packages with the same atomicity
// semantics as the SQL layer: conditional writes decide races under one lock.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/izakirov770/MoliyaUz/internal/domain"
)

type Store struct {
	mu sync.Mutex

	users map[int64]domain.User

	txs   map[int64][]domain.Transaction // per user, id = per-user sequence
	txSeq map[int64]int64

	debts     map[int64][]domain.Debt
	debtSeq   map[int64]int64
	archive   map[int64][]domain.ArchivedDebt
	reminders map[string]bool // user:debt:slot:day

	payments []domain.Payment // append order = creation order
	subs     map[int64]domain.Subscription

	manual    []domain.ManualActivationRequest
	manualSeq int64

	events []GatewayEvent
}

type GatewayEvent struct {
	Event    string
	Payload  map[string]string
	Verified bool
}

func New() *Store {
	return &Store{
		users:     make(map[int64]domain.User),
		txs:       make(map[int64][]domain.Transaction),
		txSeq:     make(map[int64]int64),
		debts:     make(map[int64][]domain.Debt),
		debtSeq:   make(map[int64]int64),
		archive:   make(map[int64][]domain.ArchivedDebt),
		reminders: make(map[string]bool),
		subs:      make(map[int64]domain.Subscription),
	}
}

// --- users ---

func (s *Store) EnsureUser(_ context.Context, u domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.users[u.ID]; ok {
		return existing, nil
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) User(_ context.Context, userID int64) (domain.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	return u, ok, nil
}

// --- transactions ---

func (s *Store) AppendTx(_ context.Context, tx domain.Transaction) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txSeq[tx.UserID]++
	tx.ID = s.txSeq[tx.UserID]
	s.txs[tx.UserID] = append(s.txs[tx.UserID], tx)
	return tx, nil
}

func (s *Store) DeleteTx(_ context.Context, userID, txID int64) (domain.Transaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.txs[userID]
	for i, tx := range list {
		if tx.ID == txID {
			s.txs[userID] = append(list[:i:i], list[i+1:]...)
			return tx, true, nil
		}
	}
	return domain.Transaction{}, false, nil
}

func (s *Store) ListTx(_ context.Context, userID int64, since, until time.Time) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Transaction
	for _, tx := range s.txs[userID] {
		if !tx.CreatedAt.Before(since) && !tx.CreatedAt.After(until) {
			out = append(out, tx)
		}
	}
	return out, nil
}

// --- debts ---

func (s *Store) CreateDebt(_ context.Context, d domain.Debt) (domain.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debtSeq[d.UserID]++
	d.ID = s.debtSeq[d.UserID]
	s.debts[d.UserID] = append(s.debts[d.UserID], d)
	return d, nil
}

func (s *Store) WaitingDebts(_ context.Context, userID int64) ([]domain.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Debt
	for _, d := range s.debts[userID] {
		if d.Status == domain.DebtWaiting {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *Store) CloseDebt(_ context.Context, userID, debtID int64, archivedAt time.Time) (domain.Debt, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.debts[userID]
	for i, d := range list {
		if d.ID != debtID || d.Status != domain.DebtWaiting {
			continue
		}
		d.Status = domain.SettleStatus(d.Direction)
		s.debts[userID] = append(list[:i:i], list[i+1:]...)
		s.archive[userID] = append(s.archive[userID], domain.ArchivedDebt{Debt: d, ArchivedAt: archivedAt})
		return d, true, nil
	}
	return domain.Debt{}, false, nil
}

func (s *Store) ArchivedDebts(_ context.Context, userID int64) ([]domain.ArchivedDebt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ArchivedDebt(nil), s.archive[userID]...), nil
}

func (s *Store) DebtsDueOn(_ context.Context, due string) ([]domain.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Debt
	for _, list := range s.debts {
		for _, d := range list {
			if d.Status == domain.DebtWaiting && d.DueDate == due {
				out = append(out, d)
			}
		}
	}
	return out, nil
}

// MarkDebtReminded is the conditional claim for one debt reminder; exactly
// one caller per (user, debt, slot, day) observes true.
func (s *Store) MarkDebtReminded(_ context.Context, userID, debtID int64, slot, day string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%d:%d:%s:%s", userID, debtID, slot, day)
	if s.reminders[key] {
		return false, nil
	}
	s.reminders[key] = true
	return true, nil
}

// --- payments and subscriptions ---

func (s *Store) CreatePayment(_ context.Context, p domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.payments {
		if existing.InvoiceID == p.InvoiceID {
			return fmt.Errorf("duplicate invoice %s", p.InvoiceID)
		}
	}
	s.payments = append(s.payments, p)
	return nil
}

func (s *Store) PaymentByInvoice(_ context.Context, invoiceID string) (domain.Payment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.InvoiceID == invoiceID {
			return p, true, nil
		}
	}
	return domain.Payment{}, false, nil
}

func (s *Store) LatestPayment(_ context.Context, userID int64) (domain.Payment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.payments) - 1; i >= 0; i-- {
		if s.payments[i].UserID == userID {
			return s.payments[i], true, nil
		}
	}
	return domain.Payment{}, false, nil
}

// MarkPaid is the conditional pending -> paid write; exactly one concurrent
// caller observes transitioned=true.
func (s *Store) MarkPaid(_ context.Context, invoiceID string, paidAt time.Time) (domain.Payment, bool, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.payments {
		if p.InvoiceID != invoiceID {
			continue
		}
		if p.Status != domain.PaymentPending {
			return p, true, false, nil
		}
		s.payments[i].Status = domain.PaymentPaid
		s.payments[i].PaidAt = paidAt
		return s.payments[i], true, true, nil
	}
	return domain.Payment{}, false, false, nil
}

func (s *Store) SetSubscription(_ context.Context, sub domain.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.UserID] = sub
	return nil
}

func (s *Store) Subscription(_ context.Context, userID int64) (domain.Subscription, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[userID]
	return sub, ok, nil
}

func (s *Store) ExpiringSubscriptions(_ context.Context, before time.Time) ([]domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Subscription
	for _, sub := range s.subs {
		if !sub.ReminderSent && sub.Until.Before(before) {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *Store) MarkReminderSent(_ context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[userID]
	if !ok || sub.ReminderSent {
		return false, nil
	}
	sub.ReminderSent = true
	s.subs[userID] = sub
	return true, nil
}

func (s *Store) LogGatewayEvent(_ context.Context, event string, payload map[string]string, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, GatewayEvent{Event: event, Payload: payload, Verified: verified})
	return nil
}

// GatewayEvents exposes the recorded log for assertions.
func (s *Store) GatewayEvents() []GatewayEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]GatewayEvent(nil), s.events...)
}

// --- manual activation requests ---

func (s *Store) CreateManualRequest(_ context.Context, r domain.ManualActivationRequest) (domain.ManualActivationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manualSeq++
	r.ID = s.manualSeq
	s.manual = append(s.manual, r)
	return r, nil
}

func (s *Store) DecideManualRequest(_ context.Context, id int64, status domain.ManualStatus, reviewer int64, at time.Time) (domain.ManualActivationRequest, bool, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.manual {
		if r.ID != id {
			continue
		}
		if r.Status != domain.ManualPending {
			return r, true, false, nil
		}
		s.manual[i].Status = status
		s.manual[i].Reviewer = reviewer
		s.manual[i].DecidedAt = at
		return s.manual[i], true, true, nil
	}
	return domain.ManualActivationRequest{}, false, false, nil
}

func (s *Store) PendingManualRequests(_ context.Context) ([]domain.ManualActivationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ManualActivationRequest
	for _, r := range s.manual {
		if r.Status == domain.ManualPending {
			out = append(out, r)
		}
	}
	return out, nil
}
