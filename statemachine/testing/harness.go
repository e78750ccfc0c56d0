// Package testing provides test helpers for state machines: states that record
// their hooks, a sink that keeps diagnostics and a Harness that wires both to a
// Machine.
package testing

import (
	"context"
	"testing"

	"github.com/hexapus/gamecore/statemachine"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Harness wraps a Machine with a journal, a recording sink and a test logger.
type Harness struct {
	*statemachine.Machine

	t       *testing.T
	Journal *Journal
	Sink    *RecordingSink
	States  map[string]*RecordingState
}

// NewHarness creates a machine with a RecordingState registered for each name,
// in order. Extra options are applied after the harness's logger and sink.
func NewHarness(t *testing.T, names []string, opts ...statemachine.Option) *Harness {
	t.Helper()

	h := &Harness{
		t:       t,
		Journal: NewJournal(),
		Sink:    NewRecordingSink(),
		States:  make(map[string]*RecordingState, len(names)),
	}

	base := []statemachine.Option{
		statemachine.WithName(t.Name()),
		statemachine.WithLogger(slogt.New(t)),
		statemachine.WithSink(h.Sink),
	}

	h.Machine = statemachine.New(append(base, opts...)...)

	for _, name := range names {
		st := NewRecordingState(h.Journal, name)
		require.NoError(t, h.RegisterState(name, st), "failed to register state %q", name)

		h.States[name] = st
	}

	t.Cleanup(func() {
		_ = h.Close(context.Background())
	})

	return h
}

// Start initializes the machine and fails the test on error.
func (h *Harness) Start(initial string) *Harness {
	h.t.Helper()

	require.NoError(h.t, h.Initialize(context.Background(), initial))

	return h
}

// Step ticks the machine n times by delta seconds.
func (h *Harness) Step(delta float64, n int) {
	for range n {
		h.Tick(context.Background(), delta)
	}
}

// Go transitions to target with a background context.
func (h *Harness) Go(target string) error {
	return h.Transition(context.Background(), target)
}

// AssertActive checks the active state.
func (h *Harness) AssertActive(name string) {
	h.t.Helper()

	current, ok := h.Current()
	assert.True(h.t, ok, "expected an active state")
	assert.Equal(h.t, name, current)
}

// AssertLifecycle checks the recorded enter/exit sequence, e.g. "exit:A", "enter:B".
func (h *Harness) AssertLifecycle(expected ...string) {
	h.t.Helper()

	assert.Equal(h.t, expected, h.Journal.Lifecycle())
}

// AssertDiagnostics checks how many diagnostics were reported with each severity.
func (h *Harness) AssertDiagnostics(warnings, errs int) {
	h.t.Helper()

	assert.Equal(h.t, warnings, h.Sink.Count(statemachine.SeverityWarning), "warnings: %s", h.Sink)
	assert.Equal(h.t, errs, h.Sink.Count(statemachine.SeverityError), "errors: %s", h.Sink)
}

// AssertMatches runs every matcher and reports each failure.
func (h *Harness) AssertMatches(matchers ...Matcher) {
	h.t.Helper()

	for _, m := range matchers {
		ok, err := m.Match(h)
		assert.True(h.t, ok, "%s: %v", m.Description(), err)
	}
}
