package debt

import (
	"sync"
	"time"

	"github.com/izakirov770/MoliyaUz/internal/domain"
)

// Pending is the single-slot conversation context for a debt entry whose due
// date is still missing. One slot per user; a newer debt entry overwrites an
// older one, and a stale slot expires instead of matching an unrelated later
// message.
type Pending struct {
	ttl time.Duration
	now func() time.Time

	mu sync.Mutex
	m  map[int64]domain.PendingDebt
}

func NewPending(ttl time.Duration, now func() time.Time) *Pending {
	return &Pending{ttl: ttl, now: now, m: make(map[int64]domain.PendingDebt)}
}

func (p *Pending) Put(userID int64, d domain.PendingDebt) {
	d.CreatedAt = p.now()
	p.mu.Lock()
	p.m[userID] = d
	p.mu.Unlock()
}

// Take returns and clears the user's pending debt. Expired slots are gone.
func (p *Pending) Take(userID int64) (domain.PendingDebt, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.m[userID]
	if !ok {
		return domain.PendingDebt{}, false
	}
	delete(p.m, userID)
	if p.ttl > 0 && p.now().Sub(d.CreatedAt) > p.ttl {
		return domain.PendingDebt{}, false
	}
	return d, true
}

// Peek reports whether a live slot exists without consuming it.
func (p *Pending) Peek(userID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.m[userID]
	if !ok {
		return false
	}
	if p.ttl > 0 && p.now().Sub(d.CreatedAt) > p.ttl {
		delete(p.m, userID)
		return false
	}
	return true
}

// Clear drops the slot on navigation-away.
func (p *Pending) Clear(userID int64) {
	p.mu.Lock()
	delete(p.m, userID)
	p.mu.Unlock()
}
