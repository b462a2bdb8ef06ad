package voice

import (
	"sync"
	"time"
)

// SnoozeRegistry tracks per-entry snooze expiries for one reminder session.
// It lives only in memory: a snoozed entry is excluded from due detection
// until its expiry passes.
type SnoozeRegistry struct {
	mu      sync.Mutex
	expires map[int]time.Time
}

// NewSnoozeRegistry creates an empty snooze registry.
func NewSnoozeRegistry() *SnoozeRegistry {
	return &SnoozeRegistry{expires: make(map[int]time.Time)}
}

// Snooze suppresses due detection for the entry until the given instant.
func (r *SnoozeRegistry) Snooze(seq int, until time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expires[seq] = until
}

// Active reports whether the entry is under an unexpired snooze at now.
// Expired snoozes are dropped on the way out.
func (r *SnoozeRegistry) Active(seq int, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	until, ok := r.expires[seq]
	if !ok {
		return false
	}
	if !now.Before(until) {
		delete(r.expires, seq)
		return false
	}
	return true
}
