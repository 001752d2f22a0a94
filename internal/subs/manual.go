package subs

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/izakirov770/MoliyaUz/internal/domain"
)

var (
	// ErrAlreadyProcessed: a second reviewer raced on a decided request.
	ErrAlreadyProcessed = errors.New("request already processed")
	// ErrNotAuthorized: the caller may not review manual activations.
	ErrNotAuthorized = errors.New("reviewer not authorized")
	// ErrRequestNotFound: unknown manual request id.
	ErrRequestNotFound = errors.New("manual request not found")
	// ErrBadDigits: the confirmation must be exactly the last four digits.
	ErrBadDigits = errors.New("need the last four card digits")
)

var reLastFour = regexp.MustCompile(`^\d{4}$`)

// ManualStore persists activation requests. Decide flips pending ->
// approved/rejected atomically; decided=false with found=true means someone
// else decided first.
type ManualStore interface {
	CreateManualRequest(ctx context.Context, r domain.ManualActivationRequest) (domain.ManualActivationRequest, error)
	DecideManualRequest(ctx context.Context, id int64, status domain.ManualStatus, reviewer int64, at time.Time) (r domain.ManualActivationRequest, found, decided bool, err error)
	PendingManualRequests(ctx context.Context) ([]domain.ManualActivationRequest, error)
}

// Authorizer answers whether a reviewer may decide manual requests.
type Authorizer interface {
	CanReview(reviewerID int64) bool
}

// Manual is the human confirmation path used when the automated gateway
// channel cannot be observed or trusted. Approval feeds the exact same
// transition as an automated confirmation.
type Manual struct {
	store ManualStore
	recon *Reconciler
	auth  Authorizer
	now   func() time.Time
}

func NewManual(store ManualStore, recon *Reconciler, auth Authorizer, now func() time.Time) *Manual {
	return &Manual{store: store, recon: recon, auth: auth, now: now}
}

// Submit files a request from the user's "last four digits" confirmation
// against their most recent pending invoice.
func (m *Manual) Submit(ctx context.Context, userID int64, lastFour string) (domain.ManualActivationRequest, error) {
	if !reLastFour.MatchString(lastFour) {
		return domain.ManualActivationRequest{}, ErrBadDigits
	}
	p, found, err := m.recon.store.LatestPayment(ctx, userID)
	if err != nil {
		return domain.ManualActivationRequest{}, err
	}
	if !found || p.Status != domain.PaymentPending {
		return domain.ManualActivationRequest{}, ErrNoInvoice
	}
	return m.store.CreateManualRequest(ctx, domain.ManualActivationRequest{
		UserID:    userID,
		InvoiceID: p.InvoiceID,
		LastFour:  lastFour,
		Status:    domain.ManualPending,
		CreatedAt: m.now(),
	})
}

// Decide resolves a request exactly once. A second reviewer's attempt on an
// already-decided request comes back as ErrAlreadyProcessed with the
// original decision attached, and is never re-applied.
func (m *Manual) Decide(ctx context.Context, requestID, reviewerID int64, approve bool) (domain.ManualActivationRequest, error) {
	if !m.auth.CanReview(reviewerID) {
		return domain.ManualActivationRequest{}, ErrNotAuthorized
	}
	status := domain.ManualRejected
	if approve {
		status = domain.ManualApproved
	}
	req, found, decided, err := m.store.DecideManualRequest(ctx, requestID, status, reviewerID, m.now())
	if err != nil {
		return domain.ManualActivationRequest{}, err
	}
	if !found {
		return domain.ManualActivationRequest{}, ErrRequestNotFound
	}
	if !decided {
		return req, ErrAlreadyProcessed
	}
	if approve {
		if _, err := m.recon.markPaid(ctx, req.InvoiceID, "manual"); err != nil {
			return req, err
		}
	}
	return req, nil
}

// Pending lists undecided requests for the reviewer view.
func (m *Manual) Pending(ctx context.Context) ([]domain.ManualActivationRequest, error) {
	return m.store.PendingManualRequests(ctx)
}
