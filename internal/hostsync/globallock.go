package hostsync

import "sync"

// GlobalLock models ownership of the platform-wide firmware/OS arbitration
// lock. It is distinct from in-process mutexes: the other party may be
// firmware code outside this process entirely.
//
// Acquire returns true when the caller now holds exclusive access to
// firmware-shared hardware state. When it returns false the lock is owned
// elsewhere and a pending-request bit has been recorded; the current owner
// learns about it from Release and must notify the requester.
//
// Release clears ownership and returns the pending bit it observed. A true
// result means a deferred requester exists and must be signalled; the
// notification is never silently dropped because Release is the only way
// the bit is cleared.
type GlobalLock interface {
	Acquire() (acquired bool)
	Release() (pending bool)
}

// DegradedGlobalLock is the default implementation for hosts without real
// firmware arbitration hardware. This is a deliberate, documented mode,
// not an accident of defaults: acquisition always succeeds because there
// is no other party to arbitrate with, and release never reports a
// pending requester.
type DegradedGlobalLock struct{}

// Acquire trivially succeeds; there is no firmware to contend with.
func (DegradedGlobalLock) Acquire() bool { return true }

// Release trivially clears; pending is always false in degraded mode.
func (DegradedGlobalLock) Release() bool { return false }

// ArbitratedGlobalLock implements the two-bit owned/pending protocol of a
// real firmware arbitration lock within a single process. Hosts with real
// hardware supply their own GlobalLock; this implementation exists for
// single-machine hosts and for exercising the pending-handoff path.
type ArbitratedGlobalLock struct {
	mu      sync.Mutex
	owned   bool
	pending bool
}

// Acquire takes the lock if it is free. If it is owned, the pending bit is
// set and false is returned; the caller must wait to be notified by
// whoever observes pending=true on Release.
func (l *ArbitratedGlobalLock) Acquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.owned {
		l.pending = true
		return false
	}
	l.owned = true
	return true
}

// Release drops ownership and returns whether a requester was left
// waiting. Both bits are cleared; the returned value is the caller's
// obligation to deliver.
func (l *ArbitratedGlobalLock) Release() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	pending := l.pending
	l.owned = false
	l.pending = false
	return pending
}
