package testing

import (
	"context"
	"fmt"
	"sync"

	"github.com/hexapus/gamecore/statemachine"
)

// Hook kinds recorded in a Journal.
const (
	KindEnter  = "enter"
	KindUpdate = "update"
	KindExit   = "exit"
)

// Event is one hook invocation.
type Event struct {
	Kind  string
	State string
	Delta float64
}

func (e Event) String() string {
	return e.Kind + ":" + e.State
}

// Journal is a shared, ordered record of hook invocations across states.
type Journal struct {
	mu     sync.Mutex
	events []Event
}

// NewJournal creates an empty journal.
func NewJournal() *Journal {
	return &Journal{}
}

// Record appends an event.
func (j *Journal) Record(kind, state string, delta float64) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.events = append(j.events, Event{Kind: kind, State: state, Delta: delta})
}

// Events returns a copy of the recorded events.
func (j *Journal) Events() []Event {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]Event, len(j.events))
	copy(out, j.events)

	return out
}

// Lifecycle returns the recorded enter and exit events as "kind:state" strings,
// skipping updates.
func (j *Journal) Lifecycle() []string {
	var out []string

	for _, e := range j.Events() {
		if e.Kind != KindUpdate {
			out = append(out, e.String())
		}
	}

	return out
}

// Count returns how many events of kind were recorded for state.
func (j *Journal) Count(kind, state string) int {
	n := 0

	for _, e := range j.Events() {
		if e.Kind == kind && e.State == state {
			n++
		}
	}

	return n
}

// Reset clears the journal.
func (j *Journal) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.events = nil
}

// RecordingState is a State that records every hook into a Journal. The optional
// On* funcs run after recording, so tests can request transitions or schedule
// continuations from inside hooks.
type RecordingState struct {
	statemachine.Base

	journal *Journal
	label   string

	OnEnter  func(ctx context.Context, s *RecordingState)
	OnUpdate func(ctx context.Context, s *RecordingState, delta float64)
	OnExit   func(ctx context.Context, s *RecordingState)
}

// NewRecordingState creates a state recording into journal. label is used in
// journal entries until the state is registered, after which its registered
// name is used.
func NewRecordingState(journal *Journal, label string) *RecordingState {
	return &RecordingState{journal: journal, label: label}
}

func (s *RecordingState) name() string {
	if n := s.Name(); n != "" {
		return n
	}

	return s.label
}

// Enter implements statemachine.State.
func (s *RecordingState) Enter(ctx context.Context) {
	s.journal.Record(KindEnter, s.name(), 0)

	if s.OnEnter != nil {
		s.OnEnter(ctx, s)
	}
}

// PhysicsUpdate implements statemachine.State.
func (s *RecordingState) PhysicsUpdate(ctx context.Context, delta float64) {
	s.journal.Record(KindUpdate, s.name(), delta)

	if s.OnUpdate != nil {
		s.OnUpdate(ctx, s, delta)
	}
}

// Exit implements statemachine.State.
func (s *RecordingState) Exit(ctx context.Context) {
	s.journal.Record(KindExit, s.name(), 0)

	if s.OnExit != nil {
		s.OnExit(ctx, s)
	}
}

// RecordingSink is a statemachine.Sink that keeps every diagnostic.
type RecordingSink struct {
	mu          sync.Mutex
	diagnostics []statemachine.Diagnostic
}

// NewRecordingSink creates an empty sink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

// Report implements statemachine.Sink.
func (s *RecordingSink) Report(_ context.Context, d statemachine.Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.diagnostics = append(s.diagnostics, d)
}

// All returns a copy of the reported diagnostics.
func (s *RecordingSink) All() []statemachine.Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]statemachine.Diagnostic, len(s.diagnostics))
	copy(out, s.diagnostics)

	return out
}

// Count returns the number of diagnostics with the given severity.
func (s *RecordingSink) Count(sev statemachine.Severity) int {
	n := 0

	for _, d := range s.All() {
		if d.Severity == sev {
			n++
		}
	}

	return n
}

// Reset clears the sink.
func (s *RecordingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.diagnostics = nil
}

// String is used in failure messages.
func (s *RecordingSink) String() string {
	return fmt.Sprintf("%+v", s.All())
}
