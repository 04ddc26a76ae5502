package billing

import (
	"context"
	"sync"
	"time"
)

// DefaultRetention bounds how long an event ID stays in the seen set.
// Provider retries stop well inside this window; after it expires a
// redelivery of the same event runs again.
const DefaultRetention = 24 * time.Hour

// EventLedger is the dedup authority for webhook deliveries. MarkSeen
// records an event ID and reports whether it was new; the membership test
// and the insert are one atomic step.
type EventLedger interface {
	MarkSeen(ctx context.Context, eventID string) (bool, error)
}

// MemoryLedger keeps the seen set in process memory. Good for a single
// instance and for tests; use RedisLedger when running more than one.
type MemoryLedger struct {
	mu        sync.Mutex
	seen      map[string]time.Time
	retention time.Duration
	now       func() time.Time
}

// NewMemoryLedger creates an in-process ledger. Non-positive retention
// falls back to DefaultRetention.
func NewMemoryLedger(retention time.Duration) *MemoryLedger {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &MemoryLedger{
		seen:      make(map[string]time.Time),
		retention: retention,
		now:       time.Now,
	}
}

// MarkSeen records the event ID and reports whether it was new. Expired
// entries count as new again.
func (l *MemoryLedger) MarkSeen(ctx context.Context, eventID string) (bool, error) {
	_ = ctx
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	if _, ok := l.seen[eventID]; ok {
		return false, nil
	}
	l.seen[eventID] = now
	return true, nil
}

// Len returns the current seen-set size.
func (l *MemoryLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}

// sweep drops expired entries. Caller holds the lock.
func (l *MemoryLedger) sweep(now time.Time) {
	for id, at := range l.seen {
		if now.Sub(at) >= l.retention {
			delete(l.seen, id)
		}
	}
}
