package statemachine_test

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/hexapus/gamecore/scheduler"
	"github.com/hexapus/gamecore/statemachine"
	smtesting "github.com/hexapus/gamecore/statemachine/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeEntersExplicitState(t *testing.T) {
	t.Parallel()

	h := smtesting.NewHarness(t, []string{"A", "B", "C"}).Start("B")

	h.AssertActive("B")
	h.AssertLifecycle("enter:B")
	h.AssertDiagnostics(0, 0)
	assert.Equal(t, statemachine.StatusRunning, h.Status())
}

func TestInitializeUsesPreselectedState(t *testing.T) {
	t.Parallel()

	h := smtesting.NewHarness(t, []string{"A", "B"}, statemachine.WithInitialState("B")).Start("")

	h.AssertActive("B")
	h.AssertDiagnostics(0, 0)
}

func TestInitializeFallsBackToFirstRegistered(t *testing.T) {
	t.Parallel()

	h := smtesting.NewHarness(t, []string{"A", "B", "C"}).Start("")

	h.AssertActive("A")
	h.AssertLifecycle("enter:A")
	h.AssertDiagnostics(1, 0)
	h.AssertMatches(smtesting.DiagnosticReported(statemachine.SeverityWarning, statemachine.ErrNoDefaultState))
}

func TestInitializeUnknownStateFallsBack(t *testing.T) {
	t.Parallel()

	h := smtesting.NewHarness(t, []string{"A", "B"}).Start("Z")

	h.AssertActive("A")
	h.AssertDiagnostics(1, 0)
	h.AssertMatches(smtesting.DiagnosticReported(statemachine.SeverityWarning, statemachine.ErrStateNotFound))
	assert.Equal(t, "Z", h.Sink.All()[0].Target)
}

func TestInitializeWithNoStates(t *testing.T) {
	t.Parallel()

	h := smtesting.NewHarness(t, nil)

	err := h.Initialize(context.Background(), "")
	require.ErrorIs(t, err, statemachine.ErrNoStates)
	assert.True(t, statemachine.IsConfigurationError(err))

	_, ok := h.Current()
	assert.False(t, ok)
	assert.Nil(t, h.CurrentState())
	h.AssertDiagnostics(0, 1)

	h.Step(0.016, 3)
	assert.Zero(t, h.Ticks())
	assert.Empty(t, h.Journal.Events())
}

func TestInitializeTwice(t *testing.T) {
	t.Parallel()

	h := smtesting.NewHarness(t, []string{"A"}).Start("A")

	err := h.Initialize(context.Background(), "A")
	require.ErrorIs(t, err, statemachine.ErrAlreadyInitialized)

	h.AssertLifecycle("enter:A")
	h.AssertDiagnostics(0, 1)
}

func TestRegisterStateErrors(t *testing.T) {
	t.Parallel()

	h := smtesting.NewHarness(t, []string{"A"})
	j := smtesting.NewJournal()

	err := h.RegisterState("", smtesting.NewRecordingState(j, "x"))
	require.ErrorIs(t, err, statemachine.ErrStateNameRequired)

	err = h.RegisterState("B", nil)
	require.ErrorIs(t, err, statemachine.ErrNilState)

	var stateErr *statemachine.StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "B", stateErr.State)

	err = h.RegisterState("A", smtesting.NewRecordingState(j, "A"))
	require.ErrorIs(t, err, statemachine.ErrDuplicateStateName)
	assert.True(t, statemachine.IsConfigurationError(err))

	h.Start("A")

	err = h.RegisterState("C", smtesting.NewRecordingState(j, "C"))
	require.ErrorIs(t, err, statemachine.ErrRegistryFrozen)

	assert.Equal(t, []string{"A"}, h.Machine.States())
}

func TestTransitionOrdering(t *testing.T) {
	t.Parallel()

	h := smtesting.NewHarness(t, []string{"A", "B"}).Start("A")
	h.Journal.Reset()

	var activeDuringExit, activeDuringEnter string

	h.States["A"].OnExit = func(context.Context, *smtesting.RecordingState) {
		activeDuringExit, _ = h.Current()
	}
	h.States["B"].OnEnter = func(context.Context, *smtesting.RecordingState) {
		activeDuringEnter, _ = h.Current()
	}

	require.NoError(t, h.Go("B"))

	h.AssertActive("B")
	h.AssertLifecycle("exit:A", "enter:B")
	assert.Equal(t, "A", activeDuringExit)
	assert.Equal(t, "A", activeDuringEnter, "current is assigned after Enter returns")
	h.AssertDiagnostics(0, 0)
}

func TestTransitionToUnknownState(t *testing.T) {
	t.Parallel()

	h := smtesting.NewHarness(t, []string{"A", "B"}).Start("A")
	before := h.CurrentState()

	err := h.Go("Z")
	require.ErrorIs(t, err, statemachine.ErrStateNotFound)

	var trErr *statemachine.TransitionError
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, "A", trErr.From)
	assert.Equal(t, "Z", trErr.To)

	assert.Same(t, before, h.CurrentState())
	h.AssertLifecycle("enter:A")
	h.AssertDiagnostics(0, 1)

	d := h.Sink.All()[0]
	assert.Equal(t, "A", d.State)
	assert.Equal(t, "Z", d.Target)
	assert.Equal(t, h.ID(), d.MachineID)
}

func TestSelfTransitionIsNoop(t *testing.T) {
	t.Parallel()

	h := smtesting.NewHarness(t, []string{"A", "B"}).Start("A")

	require.NoError(t, h.Go("A"))

	h.AssertActive("A")
	h.AssertLifecycle("enter:A")
	h.AssertDiagnostics(0, 0)
	assert.Len(t, h.History(), 1)
}

func TestTransitionBeforeInitialize(t *testing.T) {
	t.Parallel()

	h := smtesting.NewHarness(t, []string{"A"})

	err := h.Go("A")
	require.ErrorIs(t, err, statemachine.ErrNotInitialized)
	assert.Empty(t, h.Journal.Events())
	h.AssertDiagnostics(0, 1)
}

func TestTickForwardsToActiveState(t *testing.T) {
	t.Parallel()

	h := smtesting.NewHarness(t, []string{"A", "B"})

	h.Tick(context.Background(), 0.016)
	assert.Empty(t, h.Journal.Events(), "tick before initialize is a no-op")

	h.Start("A")
	h.Step(0.016, 3)
	require.NoError(t, h.Go("B"))
	h.Step(0.032, 1)

	assert.Equal(t, 3, h.Journal.Count(smtesting.KindUpdate, "A"))
	assert.Equal(t, 1, h.Journal.Count(smtesting.KindUpdate, "B"))
	assert.Equal(t, uint64(4), h.Ticks())

	events := h.Journal.Events()
	assert.InDelta(t, 0.032, events[len(events)-1].Delta, 1e-9)
}

func TestTickRejectsInvalidDelta(t *testing.T) {
	t.Parallel()

	for _, delta := range []float64{-1, math.NaN(), math.Inf(1)} {
		h := smtesting.NewHarness(t, []string{"A"}).Start("A")

		h.Tick(context.Background(), delta)

		h.AssertDiagnostics(1, 0)
		h.AssertMatches(smtesting.DiagnosticReported(statemachine.SeverityWarning, statemachine.ErrInvalidDelta))

		events := h.Journal.Events()
		require.Len(t, events, 2)
		assert.Zero(t, events[1].Delta)
	}
}

func TestContinuationFiresWhileActive(t *testing.T) {
	t.Parallel()

	h := smtesting.NewHarness(t, []string{"A", "B"})
	h.States["A"].OnEnter = func(_ context.Context, s *smtesting.RecordingState) {
		s.After(time.Second, func(ctx context.Context) {
			s.RequestTransition(ctx, "B")
		})
	}

	h.Start("A")

	h.Step(0.5, 1)
	h.AssertActive("A")

	h.Step(0.5, 1)
	h.AssertActive("B")
	h.AssertLifecycle("enter:A", "exit:A", "enter:B")
	h.AssertDiagnostics(0, 0)
}

func TestContinuationCancelledOnExit(t *testing.T) {
	t.Parallel()

	h := smtesting.NewHarness(t, []string{"A", "B", "C"})

	var handle *scheduler.Handle

	h.States["A"].OnEnter = func(_ context.Context, s *smtesting.RecordingState) {
		handle = s.After(time.Second, func(ctx context.Context) {
			s.RequestTransition(ctx, "B")
		})
	}

	h.Start("A")
	h.Step(0.5, 1)
	require.NoError(t, h.Go("C"))
	h.Step(0.5, 4)

	h.AssertActive("C")
	assert.True(t, handle.Cancelled())
	assert.Zero(t, h.Journal.Count(smtesting.KindEnter, "B"))
	h.AssertDiagnostics(0, 0)
}

func TestDetachedContinuationSurvivesExit(t *testing.T) {
	t.Parallel()

	h := smtesting.NewHarness(t, []string{"A", "B"})
	fired := 0

	h.States["A"].OnEnter = func(_ context.Context, s *smtesting.RecordingState) {
		s.AfterDetached(time.Second, func(context.Context) {
			fired++
		})
	}

	h.Start("A")
	require.NoError(t, h.Go("B"))
	h.Step(0.25, 4)

	assert.Equal(t, 1, fired)
}

func TestCloseCancelsContinuations(t *testing.T) {
	t.Parallel()

	h := smtesting.NewHarness(t, []string{"A", "B"})
	fired := 0

	h.States["A"].OnEnter = func(_ context.Context, s *smtesting.RecordingState) {
		s.AfterDetached(time.Second, func(context.Context) { fired++ })
		s.After(time.Second, func(context.Context) { fired++ })
	}

	h.Start("A")
	require.NoError(t, h.Close(context.Background()))
	require.NoError(t, h.Close(context.Background()))

	assert.Equal(t, statemachine.StatusClosed, h.Status())
	assert.Zero(t, h.Scheduler().Pending())

	h.Step(1, 2)
	assert.Zero(t, fired)
	assert.Zero(t, h.Journal.Count(smtesting.KindUpdate, "A"))
	h.AssertLifecycle("enter:A")

	err := h.Go("B")
	require.ErrorIs(t, err, statemachine.ErrMachineClosed)
}

func TestCloseDuringExitAbortsTransition(t *testing.T) {
	t.Parallel()

	sched := scheduler.New()
	h := smtesting.NewHarness(t, []string{"A", "B"}, statemachine.WithScheduler(sched))
	fired := false

	h.States["A"].OnExit = func(ctx context.Context, _ *smtesting.RecordingState) {
		require.NoError(t, h.Close(ctx))
	}
	h.States["B"].OnEnter = func(_ context.Context, s *smtesting.RecordingState) {
		s.After(time.Second, func(context.Context) { fired = true })
	}

	h.Start("A")

	err := h.Go("B")
	require.ErrorIs(t, err, statemachine.ErrMachineClosed)

	assert.Equal(t, statemachine.StatusClosed, h.Status())
	assert.Zero(t, sched.Advance(context.Background(), 2*time.Second))
	assert.False(t, fired)
	assert.Zero(t, h.Journal.Count(smtesting.KindEnter, "B"))
	assert.Equal(t, []string{"A"}, statemachine.Path(h.History()))
	h.AssertLifecycle("enter:A", "exit:A")
}

func TestStaleRequestIsRejected(t *testing.T) {
	t.Parallel()

	h := smtesting.NewHarness(t, []string{"A", "B", "C"}).Start("A")
	require.NoError(t, h.Go("B"))

	h.States["A"].RequestTransition(context.Background(), "C")

	h.AssertActive("B")
	h.AssertDiagnostics(0, 1)
	h.AssertMatches(smtesting.DiagnosticReported(statemachine.SeverityError, statemachine.ErrStaleRequest))
	assert.False(t, h.States["A"].Active())
	assert.True(t, h.States["B"].Active())
}

func TestRequestsDuringTransitionAreQueued(t *testing.T) {
	t.Parallel()

	h := smtesting.NewHarness(t, []string{"A", "B", "C"}).Start("A")

	h.States["B"].OnEnter = func(ctx context.Context, s *smtesting.RecordingState) {
		s.RequestTransition(ctx, "C")
	}

	require.NoError(t, h.Go("B"))

	h.AssertActive("C")
	h.AssertLifecycle("enter:A", "exit:A", "enter:B", "exit:B", "enter:C")
	assert.Equal(t, []string{"A", "B", "C"}, statemachine.Path(h.History()))
	h.AssertMatches(smtesting.BalancedHooks())
}

func TestOwnerTransitionDuringEnterIsQueued(t *testing.T) {
	t.Parallel()

	h := smtesting.NewHarness(t, []string{"A", "B", "C"})

	var nested error

	h.States["A"].OnEnter = func(ctx context.Context, _ *smtesting.RecordingState) {
		nested = h.Transition(ctx, "C")
	}

	h.Start("A")

	require.NoError(t, nested)
	h.AssertActive("C")
	h.AssertLifecycle("enter:A", "exit:A", "enter:C")
}

func TestTransitionLoopIsBounded(t *testing.T) {
	t.Parallel()

	h := smtesting.NewHarness(t, []string{"A", "B"})
	h.States["A"].OnEnter = func(ctx context.Context, s *smtesting.RecordingState) {
		s.RequestTransition(ctx, "B")
	}
	h.States["B"].OnEnter = func(ctx context.Context, s *smtesting.RecordingState) {
		s.RequestTransition(ctx, "A")
	}

	h.Start("A")

	h.AssertActive("A")
	h.AssertDiagnostics(0, 1)
	h.AssertMatches(
		smtesting.DiagnosticReported(statemachine.SeverityError, statemachine.ErrTransitionLoop),
		smtesting.BalancedHooks(),
	)
}

func TestAllowedTransitions(t *testing.T) {
	t.Parallel()

	h := smtesting.NewHarness(t, []string{"A", "B", "C"},
		statemachine.WithAllowedTransitions(
			statemachine.Edge{From: "A", To: "B"},
			statemachine.Edge{From: statemachine.WildcardState, To: "A"},
		),
	).Start("A")

	err := h.Go("C")
	require.ErrorIs(t, err, statemachine.ErrTransitionNotAllowed)
	h.AssertActive("A")

	require.NoError(t, h.Go("B"))
	require.NoError(t, h.Go("A"))

	h.AssertActive("A")
	h.AssertDiagnostics(0, 1)
}

func TestHistoryIsBounded(t *testing.T) {
	t.Parallel()

	h := smtesting.NewHarness(t, []string{"A", "B", "C"}, statemachine.WithHistoryLimit(2)).Start("A")

	h.Step(0.1, 2)
	require.NoError(t, h.Go("B"))
	require.NoError(t, h.Go("C"))

	history := h.History()
	require.Len(t, history, 2)
	assert.Equal(t, "A", history[0].From)
	assert.Equal(t, "B", history[0].To)
	assert.Equal(t, uint64(2), history[0].Tick)
	assert.Equal(t, []string{"A", "B", "C"}, statemachine.Path(history))
}

func TestStateChangeCallback(t *testing.T) {
	t.Parallel()

	var changes [][2]string

	h := smtesting.NewHarness(t, []string{"A", "B"},
		statemachine.WithStateChangeCallback(func(from, to string) {
			changes = append(changes, [2]string{from, to})
		}),
	).Start("A")

	require.NoError(t, h.Go("B"))
	require.NoError(t, h.Go("B"))
	_ = h.Go("Z")

	assert.Equal(t, [][2]string{{"", "A"}, {"A", "B"}}, changes)
}

func TestExternalSchedulerIsNotAdvanced(t *testing.T) {
	t.Parallel()

	sched := scheduler.New()
	h := smtesting.NewHarness(t, []string{"A", "B"}, statemachine.WithScheduler(sched))

	h.States["A"].OnEnter = func(_ context.Context, s *smtesting.RecordingState) {
		s.After(time.Second, func(ctx context.Context) {
			s.RequestTransition(ctx, "B")
		})
	}

	h.Start("A")
	h.Step(1, 3)
	h.AssertActive("A")

	assert.Same(t, sched, h.Scheduler())
	assert.Equal(t, 1, sched.Advance(context.Background(), time.Second))
	h.AssertActive("B")
}

func TestMachineIdentity(t *testing.T) {
	t.Parallel()

	a := statemachine.New(statemachine.WithName("player"))
	b := statemachine.New()

	assert.Equal(t, "player", a.Name())
	assert.Equal(t, "statemachine", b.Name())
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, statemachine.StatusUninitialized, a.Status())
	assert.Equal(t, "uninitialized", a.Status().String())
}

// TestRandomTransitionsKeepInvariants drives a machine with random requests,
// including unknown names, and checks the hook and active-state invariants.
func TestRandomTransitionsKeepInvariants(t *testing.T) {
	t.Parallel()

	names := []string{"A", "B", "C", "D"}
	targets := append([]string{"X", "Y"}, names...)

	h := smtesting.NewHarness(t, names).Start("")
	rng := rand.New(rand.NewPCG(7, 11)) //nolint:gosec // deterministic test input

	unknown := 0

	for range 500 {
		target := targets[rng.IntN(len(targets))]

		err := h.Go(target)
		if errors.Is(err, statemachine.ErrStateNotFound) {
			unknown++
		} else {
			require.NoError(t, err)
		}

		current, ok := h.Current()
		require.True(t, ok)
		require.Contains(t, names, current)

		h.Step(0.016, 1)
	}

	h.AssertMatches(smtesting.BalancedHooks())
	h.AssertDiagnostics(1, unknown)
}
