// Package scheduler provides a cooperative, virtual-clock task scheduler.
//
// Nothing in this package starts goroutines or sleeps. The owner advances the clock
// (usually once per simulation tick) and every task that has come due runs on the
// advancing goroutine, in due order. This is what lets a state say "after 1.5s, do X"
// without blocking the tick loop or racing with it.
//
// Tasks can be grouped in a Scope. Closing a Scope cancels everything it scheduled,
// which is how continuations get tied to the lifetime of whatever created them.
package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// Task is a unit of deferred work. The context is the one passed to Advance.
type Task func(ctx context.Context)

// Scheduler is a cooperative scheduler driven by Advance.
//
// A Scheduler is not safe for concurrent use, with one exception: Handle.Cancel
// (and Scope.Close) may be called from any goroutine.
type Scheduler struct {
	now time.Duration
	seq uint64

	// mu guards queue, which only ever holds pending handles.
	mu    sync.Mutex
	queue taskQueue
}

// New creates an empty scheduler with its clock at zero.
func New() *Scheduler {
	return &Scheduler{}
}

// Now returns the scheduler's virtual clock.
func (s *Scheduler) Now() time.Duration {
	return s.now
}

// After schedules fn to run once the clock has advanced by at least delay.
// Negative delays are treated as zero. The task never runs inside After itself;
// the earliest it can run is the next call to Advance.
func (s *Scheduler) After(delay time.Duration, fn Task) *Handle {
	return s.schedule(delay, fn, nil)
}

func (s *Scheduler) schedule(delay time.Duration, fn Task, scope *Scope) *Handle {
	if fn == nil {
		return Cancelled()
	}

	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	s.seq++

	h := &Handle{
		due:   s.now + delay,
		seq:   s.seq,
		fn:    fn,
		scope: scope,
		sched: s,
	}

	heap.Push(&s.queue, h)
	s.mu.Unlock()

	tasksTotal.WithLabelValues(outcomeScheduled).Inc()

	return h
}

// Advance moves the clock forward by elapsed and runs every pending task that is
// due at or before the new time. Tasks run in (due time, scheduling order) order.
// Tasks scheduled by a running task are not run by this call, even if they are
// already due; they wait for the next Advance. Returns the number of tasks run.
func (s *Scheduler) Advance(ctx context.Context, elapsed time.Duration) int {
	if elapsed < 0 {
		elapsed = 0
	}

	target := s.now + elapsed

	var due []*Handle

	s.mu.Lock()
	for s.queue.Len() > 0 && s.queue[0].due <= target {
		h, _ := heap.Pop(&s.queue).(*Handle)
		due = append(due, h)
	}
	s.mu.Unlock()

	fired := 0

	for _, h := range due {
		if h.due > s.now {
			s.now = h.due
		}

		if h.scope != nil && h.scope.Closed() {
			// The scope went away after this task was queued but the handle was
			// never cancelled. Drop it rather than run it against a dead owner.
			if h.status.CompareAndSwap(statusPending, statusCancelled) {
				tasksTotal.WithLabelValues(outcomeStale).Inc()
			}

			continue
		}

		if !h.status.CompareAndSwap(statusPending, statusFired) {
			continue
		}

		if h.scope != nil {
			h.scope.forget(h)
		}

		tasksTotal.WithLabelValues(outcomeFired).Inc()

		h.fn(ctx)

		fired++
	}

	s.now = target

	return fired
}

// Pending returns the number of queued tasks that have neither fired nor been cancelled.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.queue.Len()
}

// NextDue returns the due time of the earliest pending task.
func (s *Scheduler) NextDue() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queue.Len() == 0 {
		return 0, false
	}

	return s.queue[0].due, true
}

// cancel marks h cancelled and takes it off the queue.
func (s *Scheduler) cancel(h *Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !h.status.CompareAndSwap(statusPending, statusCancelled) {
		return false
	}

	if h.index >= 0 {
		heap.Remove(&s.queue, h.index)
	}

	return true
}

// taskQueue is a min-heap ordered by due time, then by scheduling sequence.
type taskQueue []*Handle

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].due != q[j].due {
		return q[i].due < q[j].due
	}

	return q[i].seq < q[j].seq
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x any) {
	h, _ := x.(*Handle)
	h.index = len(*q)
	*q = append(*q, h)
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	h := old[n-1]
	old[n-1] = nil
	h.index = -1
	*q = old[:n-1]

	return h
}
