package testing

import (
	"errors"
	"fmt"

	"github.com/hexapus/gamecore/statemachine"
)

// Matcher errors.
var (
	ErrStateNotActive       = errors.New("state is not active")
	ErrStateNotVisited      = errors.New("state was not visited")
	ErrTransitionNotTaken   = errors.New("transition was not taken")
	ErrDiagnosticNotFound   = errors.New("diagnostic was not reported")
	ErrUnexpectedHookCounts = errors.New("unexpected hook counts")
)

// Matcher defines an assertion matcher interface.
type Matcher interface {
	Match(h *Harness) (bool, error)
	Description() string
}

// StateIsActive creates a matcher that checks the active state.
func StateIsActive(name string) Matcher {
	return &stateActiveMatcher{stateName: name}
}

type stateActiveMatcher struct {
	stateName string
}

func (m *stateActiveMatcher) Match(h *Harness) (bool, error) {
	current, ok := h.Current()
	if ok && current == m.stateName {
		return true, nil
	}

	return false, fmt.Errorf("%w: '%s' (active: '%s')", ErrStateNotActive, m.stateName, current)
}

func (m *stateActiveMatcher) Description() string {
	return fmt.Sprintf("state '%s' should be active", m.stateName)
}

// StateWasVisited creates a matcher that checks if a state was ever entered.
func StateWasVisited(name string) Matcher {
	return &stateVisitedMatcher{stateName: name}
}

type stateVisitedMatcher struct {
	stateName string
}

func (m *stateVisitedMatcher) Match(h *Harness) (bool, error) {
	if h.Journal.Count(KindEnter, m.stateName) > 0 {
		return true, nil
	}

	return false, fmt.Errorf("%w: '%s'", ErrStateNotVisited, m.stateName)
}

func (m *stateVisitedMatcher) Description() string {
	return fmt.Sprintf("state '%s' should be visited", m.stateName)
}

// TransitionWasTaken creates a matcher that checks the machine's history for a
// transition. An empty from matches the initial entry.
func TransitionWasTaken(from, to string) Matcher {
	return &transitionTakenMatcher{from: from, to: to}
}

type transitionTakenMatcher struct {
	from string
	to   string
}

func (m *transitionTakenMatcher) Match(h *Harness) (bool, error) {
	for _, rec := range h.History() {
		if rec.From == m.from && rec.To == m.to {
			return true, nil
		}
	}

	return false, fmt.Errorf("%w: '%s' -> '%s'", ErrTransitionNotTaken, m.from, m.to)
}

func (m *transitionTakenMatcher) Description() string {
	return fmt.Sprintf("transition '%s' -> '%s' should be taken", m.from, m.to)
}

// DiagnosticReported creates a matcher that checks for a diagnostic whose code
// matches code (errors.Is) and whose severity is sev.
func DiagnosticReported(sev statemachine.Severity, code error) Matcher {
	return &diagnosticMatcher{severity: sev, code: code}
}

type diagnosticMatcher struct {
	severity statemachine.Severity
	code     error
}

func (m *diagnosticMatcher) Match(h *Harness) (bool, error) {
	for _, d := range h.Sink.All() {
		if d.Severity == m.severity && errors.Is(d.Code, m.code) {
			return true, nil
		}
	}

	return false, fmt.Errorf("%w: %s %v", ErrDiagnosticNotFound, m.severity, m.code)
}

func (m *diagnosticMatcher) Description() string {
	return fmt.Sprintf("%s diagnostic '%v' should be reported", m.severity, m.code)
}

// BalancedHooks creates a matcher that checks that every state has exited as
// many times as it entered, except the active state which has entered once more.
func BalancedHooks() Matcher {
	return &balancedMatcher{}
}

type balancedMatcher struct{}

func (m *balancedMatcher) Match(h *Harness) (bool, error) {
	current, active := h.Current()

	for name := range h.States {
		enters := h.Journal.Count(KindEnter, name)
		exits := h.Journal.Count(KindExit, name)

		want := exits
		if active && name == current {
			want++
		}

		if enters != want {
			return false, fmt.Errorf("%w: %s entered %d, exited %d", ErrUnexpectedHookCounts, name, enters, exits)
		}
	}

	return true, nil
}

func (m *balancedMatcher) Description() string {
	return "enter and exit counts should balance"
}
