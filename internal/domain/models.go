package domain

import "time"

type TxKind string

const (
	Income  TxKind = "income"
	Expense TxKind = "expense"
)

type Currency string

const (
	UZS Currency = "UZS"
	USD Currency = "USD"
	EUR Currency = "EUR"
)

type Account string

const (
	Cash Account = "cash"
	Card Account = "card"
)

// Transaction is one ledger entry. Amount is always positive in the
// smallest currency unit; Kind carries the sign.
type Transaction struct {
	ID        int64
	UserID    int64
	CreatedAt time.Time
	Kind      TxKind
	Amount    int64
	Currency  Currency
	Account   Account
	Category  string
	Note      string
}

type DebtDirection string

const (
	// DebtMine: the user owes the counterparty.
	DebtMine DebtDirection = "mine"
	// DebtGiven: the counterparty owes the user.
	DebtGiven DebtDirection = "given"
)

type DebtStatus string

const (
	DebtWaiting  DebtStatus = "wait"
	DebtPaid     DebtStatus = "paid"     // own debt repaid
	DebtReceived DebtStatus = "received" // lent money returned
)

// SettleStatus is the outcome a waiting debt settles into: repaying my own
// debt marks it paid, collecting a given one marks it received.
func SettleStatus(dir DebtDirection) DebtStatus {
	if dir == DebtMine {
		return DebtPaid
	}
	return DebtReceived
}

// Debt is a live (waiting) debt record. ID is a per-user sequence.
type Debt struct {
	ID           int64
	UserID       int64
	CreatedAt    time.Time
	Direction    DebtDirection
	Amount       int64
	Currency     Currency
	Counterparty string
	DueDate      string // DD.MM.YYYY
	Status       DebtStatus
}

// ArchivedDebt is the read-only history entry written when a debt settles.
type ArchivedDebt struct {
	Debt
	ArchivedAt time.Time
}

// PendingDebt holds a recognized debt entry that still waits for a due date
// from the next message. At most one per user.
type PendingDebt struct {
	Direction    DebtDirection
	Amount       int64
	Currency     Currency
	Counterparty string
	CreatedAt    time.Time
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// Payment is a single subscription invoice. InvoiceID is unique and is
// round-tripped through the gateway verbatim.
type Payment struct {
	InvoiceID string
	UserID    int64
	Amount    int64
	Currency  Currency
	Plan      string
	Status    PaymentStatus
	CreatedAt time.Time
	PaidAt    time.Time
}

type ManualStatus string

const (
	ManualPending  ManualStatus = "pending"
	ManualApproved ManualStatus = "approved"
	ManualRejected ManualStatus = "rejected"
)

// ManualActivationRequest is the human-reviewer confirmation path used when
// the automated gateway channel is unavailable.
type ManualActivationRequest struct {
	ID        int64
	UserID    int64
	InvoiceID string
	LastFour  string
	Status    ManualStatus
	Reviewer  int64
	DecidedAt time.Time
	CreatedAt time.Time
}

// Subscription is the derived access window on the user record.
type Subscription struct {
	UserID       int64
	StartedAt    time.Time
	Until        time.Time
	ReminderSent bool
}

type Plan struct {
	Key  string
	Days int
}

// User is the registered chat user. CreatedAt anchors the trial window.
type User struct {
	ID        int64
	Username  string
	FirstName string
	CreatedAt time.Time
}
