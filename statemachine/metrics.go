package statemachine

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric definitions with appropriate labels.
var (
	// transitionsTotal tracks completed transitions, including the initial entry (from "none").
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamecore_statemachine_transitions_total",
		Help: "Total number of completed state transitions by machine, from state and to state",
	}, []string{"machine", "from", "to"})

	// rejectionsTotal tracks refused transition requests.
	rejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamecore_statemachine_rejections_total",
		Help: "Total number of rejected transition requests by machine and reason",
	}, []string{"machine", "reason"})

	// diagnosticsTotal tracks diagnostics sent to the sink.
	diagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamecore_statemachine_diagnostics_total",
		Help: "Total number of diagnostics reported by machine and severity",
	}, []string{"machine", "severity"})

	// ticksTotal tracks ticks forwarded to an active state.
	ticksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamecore_statemachine_ticks_total",
		Help: "Total number of ticks forwarded to an active state by machine",
	}, []string{"machine"})
)

func sanitizeMachine(name string) string {
	if name == "" {
		return "unknown"
	}

	return name
}

func sanitizeState(name string) string {
	if name == "" {
		return "none"
	}

	return name
}

// reasonOf maps a rejection error to a low-cardinality label value.
func reasonOf(err error) string {
	switch {
	case errors.Is(err, ErrStateNotFound):
		return "not_found"
	case errors.Is(err, ErrStaleRequest):
		return "stale"
	case errors.Is(err, ErrTransitionNotAllowed):
		return "not_allowed"
	case errors.Is(err, ErrNotInitialized):
		return "not_initialized"
	case errors.Is(err, ErrMachineClosed):
		return "closed"
	case errors.Is(err, ErrTransitionLoop):
		return "loop"
	default:
		return "other"
	}
}
