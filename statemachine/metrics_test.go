package statemachine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubState struct {
	Base
}

// newStubMachine creates a machine with a unique name so metric series do not
// collide with other tests.
func newStubMachine(t *testing.T, names ...string) *Machine {
	t.Helper()

	m := New(
		WithName("test-"+uuid.NewString()),
		WithSink(SinkFunc(func(context.Context, Diagnostic) {})),
	)

	for _, name := range names {
		require.NoError(t, m.RegisterState(name, &stubState{}))
	}

	return m
}

func TestTransitionMetrics(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newStubMachine(t, "A", "B")

	require.NoError(t, m.Initialize(ctx, "A"))
	require.NoError(t, m.Transition(ctx, "B"))
	require.NoError(t, m.Transition(ctx, "A"))
	require.NoError(t, m.Transition(ctx, "B"))

	assert.InDelta(t, 1, testutil.ToFloat64(transitionsTotal.WithLabelValues(m.Name(), "none", "A")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(transitionsTotal.WithLabelValues(m.Name(), "A", "B")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(transitionsTotal.WithLabelValues(m.Name(), "B", "A")), 0)
}

func TestRejectionAndDiagnosticMetrics(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newStubMachine(t, "A", "B")

	require.Error(t, m.Transition(ctx, "A"))
	require.NoError(t, m.Initialize(ctx, ""))
	require.Error(t, m.Transition(ctx, "Z"))
	require.Error(t, m.Transition(ctx, "Z"))
	require.NoError(t, m.Close(ctx))
	require.Error(t, m.Transition(ctx, "B"))

	assert.InDelta(t, 1, testutil.ToFloat64(rejectionsTotal.WithLabelValues(m.Name(), "not_initialized")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(rejectionsTotal.WithLabelValues(m.Name(), "not_found")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(rejectionsTotal.WithLabelValues(m.Name(), "closed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(diagnosticsTotal.WithLabelValues(m.Name(), "warning")), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(diagnosticsTotal.WithLabelValues(m.Name(), "error")), 0)
}

func TestTickMetric(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newStubMachine(t, "A")

	m.Tick(ctx, 0.1)
	require.NoError(t, m.Initialize(ctx, "A"))

	for range 5 {
		m.Tick(ctx, 0.1)
	}

	assert.InDelta(t, 5, testutil.ToFloat64(ticksTotal.WithLabelValues(m.Name())), 0)
}

func TestSanitization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
		fn       func(string) string
	}{
		{"empty machine", "", "unknown", sanitizeMachine},
		{"machine", "player", "player", sanitizeMachine},
		{"empty state", "", "none", sanitizeState},
		{"state", "Idle", "Idle", sanitizeState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, tt.fn(tt.input))
		})
	}
}

func TestReasonOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "not_found", reasonOf(WrapTransitionError("A", "Z", ErrStateNotFound)))
	assert.Equal(t, "stale", reasonOf(ErrStaleRequest))
	assert.Equal(t, "not_allowed", reasonOf(ErrTransitionNotAllowed))
	assert.Equal(t, "loop", reasonOf(ErrTransitionLoop))
	assert.Equal(t, "other", reasonOf(ErrNoStates))
}
