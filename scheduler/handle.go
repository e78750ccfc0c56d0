package scheduler

import (
	"time"

	"go.uber.org/atomic"
)

const (
	statusPending int32 = iota
	statusFired
	statusCancelled
)

// Handle refers to a single scheduled task.
type Handle struct {
	status atomic.Int32
	due    time.Duration
	seq    uint64
	fn     Task
	scope  *Scope
	sched  *Scheduler
	// index is the handle's position in the scheduler's queue, or -1 once popped.
	index int
}

// Cancelled returns a handle that is already cancelled and was never queued.
// It is what scheduling on a closed scope hands back.
func Cancelled() *Handle {
	h := &Handle{index: -1}
	h.status.Store(statusCancelled)

	return h
}

// Cancel prevents the task from running. It returns true if this call cancelled
// a pending task, and false if the task had already fired or been cancelled.
func (h *Handle) Cancel() bool {
	if h == nil {
		return false
	}

	if h.sched != nil {
		if !h.sched.cancel(h) {
			return false
		}
	} else if !h.status.CompareAndSwap(statusPending, statusCancelled) {
		return false
	}

	tasksTotal.WithLabelValues(outcomeCancelled).Inc()

	return true
}

// Pending reports whether the task is still waiting to run.
func (h *Handle) Pending() bool {
	return h != nil && h.status.Load() == statusPending
}

// Fired reports whether the task has run.
func (h *Handle) Fired() bool {
	return h != nil && h.status.Load() == statusFired
}

// Cancelled reports whether the task was cancelled before it could run.
func (h *Handle) Cancelled() bool {
	return h != nil && h.status.Load() == statusCancelled
}

// Due returns the virtual time at which the task becomes runnable.
func (h *Handle) Due() time.Duration {
	return h.due
}
