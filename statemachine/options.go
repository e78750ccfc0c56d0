package statemachine

import (
	"log/slog"

	"github.com/hexapus/gamecore/scheduler"
)

const (
	defaultMachineName  = "statemachine"
	defaultHistoryLimit = 64
	defaultDrainLimit   = 32
)

// Option configures a Machine.
type Option func(*Machine)

// WithName sets the machine's name, used in logs, diagnostics, metrics and spans.
func WithName(name string) Option {
	return func(m *Machine) {
		if name != "" {
			m.name = name
		}
	}
}

// WithLogger sets the logger used for lifecycle debug logs. Unless WithSink is
// also given, diagnostics are written to the same logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithSink sets the diagnostic sink.
func WithSink(sink Sink) Option {
	return func(m *Machine) {
		m.sink = sink
	}
}

// WithInitialState pre-selects the state Initialize enters when it is not given
// one explicitly.
func WithInitialState(name string) Option {
	return func(m *Machine) {
		m.initial = name
	}
}

// WithScheduler makes the machine schedule continuations on an externally owned
// scheduler. The machine will not advance it; the host must.
func WithScheduler(s *scheduler.Scheduler) Option {
	return func(m *Machine) {
		if s != nil {
			m.sched = s
			m.ownsScheduler = false
		}
	}
}

// WithHistoryLimit bounds how many transitions History keeps. Zero or negative
// disables history.
func WithHistoryLimit(limit int) Option {
	return func(m *Machine) {
		m.history.limit = limit
	}
}

// WithAllowedTransitions restricts the machine to the given edges. A From of
// WildcardState matches any source state. Without this option every transition
// between registered states is allowed.
func WithAllowedTransitions(edges ...Edge) Option {
	return func(m *Machine) {
		m.edges = append(m.edges, edges...)
	}
}

// WithStateChangeCallback sets a callback invoked after each completed transition,
// including the initial entry (from is "" then).
func WithStateChangeCallback(fn func(from, to string)) Option {
	return func(m *Machine) {
		m.onChange = fn
	}
}
