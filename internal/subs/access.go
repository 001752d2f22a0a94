package subs

import (
	"context"
	"time"

	"github.com/izakirov770/MoliyaUz/internal/domain"
)

// UserStore persists registered users. Ensure is create-or-fetch: the stored
// CreatedAt survives repeated /start calls, so the trial cannot be restarted.
type UserStore interface {
	EnsureUser(ctx context.Context, u domain.User) (domain.User, error)
	User(ctx context.Context, userID int64) (domain.User, bool, error)
}

// Access gates paid functionality: a fresh account gets a short trial from
// registration time, afterwards an active subscription window is required.
type Access struct {
	users UserStore
	recon *Reconciler
	trial time.Duration
	now   func() time.Time
}

func NewAccess(users UserStore, recon *Reconciler, trial time.Duration, now func() time.Time) *Access {
	return &Access{users: users, recon: recon, trial: trial, now: now}
}

// Register creates the user on first contact and returns the stored record.
func (a *Access) Register(ctx context.Context, u domain.User) (domain.User, error) {
	u.CreatedAt = a.now()
	return a.users.EnsureUser(ctx, u)
}

// Allowed reports whether the user may record entries right now.
func (a *Access) Allowed(ctx context.Context, userID int64) (bool, error) {
	if _, active, err := a.recon.Active(ctx, userID); err != nil {
		return false, err
	} else if active {
		return true, nil
	}
	u, found, err := a.users.User(ctx, userID)
	if err != nil || !found {
		return false, err
	}
	return a.now().Before(u.CreatedAt.Add(a.trial)), nil
}

// TrialLeft reports the remaining trial time, zero when it is over.
func (a *Access) TrialLeft(ctx context.Context, userID int64) (time.Duration, error) {
	u, found, err := a.users.User(ctx, userID)
	if err != nil || !found {
		return 0, err
	}
	left := u.CreatedAt.Add(a.trial).Sub(a.now())
	if left < 0 {
		left = 0
	}
	return left, nil
}
