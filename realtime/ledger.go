// Package realtime subscribes to the platform's push channel and
// reconciles pushed events against polled state without duplicating
// user-visible effects.
package realtime

import "sync"

// Ledger defines a public type used by goSession APIs.
//
// Ledger is the dedup set of already-applied event identifiers. It is
// scoped to the page/session lifetime, grows monotonically, and is shared
// between the push path and the poll path so the same logical event is
// applied at most once no matter which path delivers it first.
type Ledger struct {
	mu      sync.Mutex
	applied map[string]struct{}
}

// NewLedger describes the newledger operation and its observable behavior.
func NewLedger() *Ledger {
	return &Ledger{
		applied: make(map[string]struct{}),
	}
}

// Mark records id as applied. It returns true on first sight and false for
// every subsequent call with the same id.
func (l *Ledger) Mark(id string) bool {
	if id == "" {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, seen := l.applied[id]; seen {
		return false
	}
	l.applied[id] = struct{}{}
	return true
}

// Seen reports whether id was already applied.
func (l *Ledger) Seen(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, seen := l.applied[id]
	return seen
}

// Len returns the number of applied identifiers.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.applied)
}
