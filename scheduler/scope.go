package scheduler

import (
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Scope groups tasks whose validity is tied to a common owner: a state's active
// period, or the lifetime of a machine. Closing the scope cancels every task it
// scheduled that has not fired yet, and any later attempt to schedule through it
// returns an already-cancelled handle.
type Scope struct {
	name   string
	sched  *Scheduler
	closed atomic.Bool

	mu      sync.Mutex
	handles []*Handle
}

// NewScope creates a scope that schedules onto s.
func (s *Scheduler) NewScope(name string) *Scope {
	return &Scope{
		name:  name,
		sched: s,
	}
}

// Name returns the scope's name.
func (sc *Scope) Name() string {
	return sc.name
}

// After schedules fn on the underlying scheduler, bound to this scope.
func (sc *Scope) After(delay time.Duration, fn Task) *Handle {
	if sc == nil {
		return Cancelled()
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.closed.Load() {
		return Cancelled()
	}

	h := sc.sched.schedule(delay, fn, sc)
	sc.handles = append(sc.handles, h)

	return h
}

// Close cancels every pending task in the scope and returns how many were cancelled.
// Closing an already closed scope is a no-op.
func (sc *Scope) Close() int {
	if sc == nil {
		return 0
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if !sc.closed.CompareAndSwap(false, true) {
		return 0
	}

	n := 0

	for _, h := range sc.handles {
		if h.Cancel() {
			n++
		}
	}

	sc.handles = nil

	return n
}

// Closed reports whether Close has been called.
func (sc *Scope) Closed() bool {
	return sc == nil || sc.closed.Load()
}

// Pending returns the number of tasks in the scope that have not fired or been cancelled.
func (sc *Scope) Pending() int {
	if sc == nil {
		return 0
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	n := 0

	for _, h := range sc.handles {
		if h.Pending() {
			n++
		}
	}

	return n
}

// forget drops a fired handle so long-lived scopes do not accumulate them.
func (sc *Scope) forget(h *Handle) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	for i, other := range sc.handles {
		if other == h {
			sc.handles = append(sc.handles[:i], sc.handles[i+1:]...)

			return
		}
	}
}
